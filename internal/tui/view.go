package tui

import (
	"fmt"
	"strings"

	"calendo/internal/grid"
	"calendo/internal/session"

	"github.com/charmbracelet/lipgloss"
)

const (
	cellWidth = 5
	gridWidth = cellWidth * 7
	minTasksW = 28
)

func (m appModel) View() string {
	month := m.sess.Grid()

	cal := m.renderCalendar(month)
	tasksW := m.width - gridWidth - 4
	var body string
	if tasksW >= minTasksW {
		body = lipgloss.JoinHorizontal(lipgloss.Top, cal, "    ", m.renderTasks(tasksW))
	} else {
		w := m.width
		if w <= 0 {
			w = gridWidth
		}
		body = cal + "\n\n" + m.renderTasks(w)
	}

	parts := []string{body, ""}
	if m.flash != "" {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(colorAccentFg).
			Background(colorFlashErrorBg).
			Padding(0, 1).
			Render(m.flash))
	}
	parts = append(parts, m.help.View(m.keys))
	out := strings.Join(parts, "\n")

	if m.focus == focusConfirm {
		if p, ok := m.sess.Pending(); ok {
			body := fmt.Sprintf("Delete %q from %s?", p.Text, p.Key)
			modal := renderConfirmModal(m.width, "Delete task", body, "Delete", "Keep", m.confirmFocus)
			if m.width > 0 && m.height > 0 {
				return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal,
					lipgloss.WithWhitespaceChars(" "))
			}
			return out + "\n\n" + modal
		}
	}
	return out
}

func (m appModel) renderCalendar(month grid.Month) string {
	title := lipgloss.NewStyle().Bold(true).Width(gridWidth).Align(lipgloss.Center).Render(month.Title())

	var hdr strings.Builder
	for _, h := range grid.WeekdayHeaders(month.WeekStart) {
		hdr.WriteString(fmt.Sprintf(" %2s  ", h))
	}
	header := lipgloss.NewStyle().Foreground(colorChromeMutedFg).Render(hdr.String())

	lines := []string{title, header}
	for _, week := range month.Weeks() {
		var row strings.Builder
		for _, c := range week {
			row.WriteString(m.renderCell(c))
		}
		lines = append(lines, row.String())
	}
	if len(month.Overflow) > 0 {
		var row strings.Builder
		row.WriteString(styleMuted().Render(fmt.Sprintf("%-*s", cellWidth, " "+glyphOverflow())))
		for _, c := range month.Overflow {
			row.WriteString(m.renderCell(c))
		}
		lines = append(lines, row.String())
	}
	return strings.Join(lines, "\n")
}

func (m appModel) renderCell(c grid.Cell) string {
	if c.Blank() {
		return strings.Repeat(" ", cellWidth)
	}
	num := lipgloss.NewStyle()
	switch {
	case c.Day == m.cursor && m.focus == focusGrid:
		num = num.Foreground(colorAccentFg).Background(colorAccent).Bold(true)
	case c.Selected:
		num = num.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)
	case c.Day == m.cursor:
		num = num.Underline(true)
	}
	if c.Today {
		num = num.Bold(true).Underline(true)
	}
	dot := lipgloss.NewStyle().Foreground(tierColor(c.Tier)).Render(glyphTier(c.Tier))
	return " " + num.Render(fmt.Sprintf("%2d", c.Day)) + dot + " "
}

func (m appModel) renderTasks(width int) string {
	head := lipgloss.NewStyle().Bold(true)
	k, ok := m.sess.Selected()
	if !ok {
		return head.Render("Tasks") + "\n" + styleMuted().Render("Select a date to see its tasks.")
	}

	lines := []string{head.Render(fmt.Sprintf("Tasks for %s", k))}
	rows := m.sess.Rows()
	if len(rows) == 0 && !(m.focus == focusInput && m.purpose == inputAdd) {
		lines = append(lines, styleMuted().Render("No tasks. Press a to add one."))
	}
	for _, r := range rows {
		lines = append(lines, m.renderRow(r, width))
	}
	if m.focus == focusInput && m.purpose == inputAdd {
		lines = append(lines, renderInputLine(width, m.input.View()))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) renderRow(r session.Row, width int) string {
	prefix := fmt.Sprintf("%2d. ", r.Index+1)
	if r.Editing && m.focus == focusInput && m.purpose == inputEdit && r.Index == m.editIndex {
		return prefix + renderInputLine(width-len(prefix), m.input.View())
	}
	text := truncate(r.Text, width-len(prefix))
	if m.focus != focusGrid && r.Index == m.taskCursor {
		return lipgloss.NewStyle().
			Foreground(colorSelectedFg).
			Background(colorSelectedBg).
			Render(prefix + text)
	}
	return prefix + text
}
