package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"calendo/internal/session"
	"calendo/internal/store"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

const (
	flashDuration = 3 * time.Second
	// Writes we made ourselves show up on the watcher shortly after Persist.
	selfWriteWindow = 750 * time.Millisecond
)

type appModel struct {
	sess   *session.Session
	logger *log.Logger

	width  int
	height int

	keys     keyMap
	help     help.Model
	focus    focus
	input    textinput.Model
	purpose  inputPurpose
	showHelp bool

	// cursor is the grid day with keyboard focus; taskCursor the row.
	cursor     int
	taskCursor int
	editIndex  int

	confirmFocus confirmModalFocus

	flash    string
	flashSeq int

	watch         <-chan struct{}
	reloadPending bool

	feed *eventFeed
}

func newAppModel(sess *session.Session, logger *log.Logger, watch <-chan struct{}) appModel {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	m := appModel{
		sess:      sess,
		logger:    logger,
		keys:      newKeyMap(),
		help:      help.New(),
		watch:     watch,
		editIndex: -1,
		feed:      &eventFeed{},
	}
	feed := m.feed
	feed.cancel = sess.Subscribe(func(e session.Event) {
		feed.events = append(feed.events, e)
	})

	m.input = textinput.New()
	m.input.Placeholder = "Task"
	m.input.CharLimit = 500
	m.input.Width = 40

	m.cursor = m.todayOrFirst()
	if k, ok := sess.Selected(); ok {
		if d, err := k.Date(); err == nil && d.Year == sess.Year() && d.Month == sess.Month() {
			m.cursor = d.Day
		}
	}
	return m
}

// todayOrFirst is today's day when the view shows the current month, else 1.
func (m appModel) todayOrFirst() int {
	for _, c := range m.sess.Grid().Days() {
		if c.Today {
			return c.Day
		}
	}
	return 1
}

func (m appModel) Init() tea.Cmd {
	return waitForStoreChange(m.watch)
}

func waitForStoreChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case flashDoneMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
		}
		return m, nil

	case storeChangedMsg:
		cmd := m.handleStoreChanged()
		return m, tea.Batch(cmd, waitForStoreChange(m.watch))

	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		m.applyEvents()
		if m.focus != focusInput && m.focus != focusConfirm && m.reloadPending {
			m.reloadPending = false
			cmd = tea.Batch(cmd, m.reload())
		}
		return m, cmd
	}

	if m.focus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *appModel) handleStoreChanged() tea.Cmd {
	if time.Since(m.sess.Tasks().LastPersist()) < selfWriteWindow {
		return nil
	}
	// Reloading under an open input or prompt could retarget it.
	if m.focus == focusInput || m.focus == focusConfirm {
		m.reloadPending = true
		return nil
	}
	return m.reload()
}

func (m *appModel) reload() tea.Cmd {
	c, err := m.sess.Tasks().Reload()
	m.applyEvents()
	if err != nil {
		m.logger.Warn("reload failed", "err", err)
		return m.flashErr(err)
	}
	if c.Kind == store.ChangeReloaded {
		m.logger.Info("reloaded tasks after external change")
		return m.flashf("Reloaded tasks from disk")
	}
	return nil
}

// applyEvents keeps the cursors in step with what the session reported.
func (m *appModel) applyEvents() {
	for _, e := range m.feed.drain() {
		switch e.Kind {
		case session.EventNavigated:
			if days := m.sess.Grid().Days(); m.cursor > len(days) {
				m.cursor = len(days)
			}
		case session.EventSelected:
			if d, err := e.Selected.Date(); err == nil {
				m.cursor = d.Day
			}
			m.taskCursor = 0
		case session.EventTasks:
			if e.Change.Kind == store.ChangeAdded && e.Change.Key == e.Selected {
				m.taskCursor = e.Change.Index
			}
		}
	}
	if n := len(m.sess.Rows()); m.taskCursor >= n {
		m.taskCursor = n - 1
	}
	if m.taskCursor < 0 {
		m.taskCursor = 0
	}
}

func (m *appModel) flashf(format string, args ...any) tea.Cmd {
	m.flash = fmt.Sprintf(format, args...)
	m.flashSeq++
	seq := m.flashSeq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg { return flashDoneMsg{seq: seq} })
}

func (m *appModel) flashErr(err error) tea.Cmd {
	var ete store.EmptyTaskError
	var oor store.IndexOutOfRangeError
	var pwe store.PersistenceWriteError
	switch {
	case errors.As(err, &ete):
		return m.flashf("Task text cannot be empty")
	case errors.As(err, &oor):
		return m.flashf("That task changed; list refreshed")
	case errors.As(err, &pwe):
		m.logger.Error("persist failed", "err", err)
		return m.flashf("Could not save: %v", pwe.Err)
	default:
		return m.flashf("%v", err)
	}
}

func (m appModel) handleKey(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch m.focus {
	case focusInput:
		return m.updateInput(msg)
	case focusConfirm:
		return m.updateConfirm(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.feed.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.PrevMonth):
		m.sess.ChangeMonth(-1)
		return m, nil
	case key.Matches(msg, m.keys.NextMonth):
		m.sess.ChangeMonth(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevYear):
		m.sess.ChangeYear(-1)
		return m, nil
	case key.Matches(msg, m.keys.NextYear):
		m.sess.ChangeYear(1)
		return m, nil
	case key.Matches(msg, m.keys.Today):
		m.sess.GoToToday()
		m.cursor = m.todayOrFirst()
		return m, nil
	case key.Matches(msg, m.keys.Add):
		return m.beginAdd()
	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusGrid {
			if _, ok := m.sess.Selected(); !ok {
				return m, m.flashf("Select a date first")
			}
			m.setFocus(focusTasks)
		} else {
			m.setFocus(focusGrid)
		}
		return m, nil
	}

	if m.focus == focusTasks {
		return m.updateTasks(msg)
	}
	return m.updateGrid(msg)
}

func (m *appModel) setFocus(f focus) {
	m.focus = f
	m.keys.focus = f
}

func (m appModel) updateGrid(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Left):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Right):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-7)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(7)
	case key.Matches(msg, m.keys.Select):
		if err := m.sess.OnDaySelected(m.sess.Year(), m.sess.Month(), m.cursor); err != nil {
			return m, m.flashErr(err)
		}
		m.setFocus(focusTasks)
	}
	return m, nil
}

// moveCursor moves by delta days, crossing into the adjacent month when needed.
func (m *appModel) moveCursor(delta int) {
	t := time.Date(m.sess.Year(), m.sess.Month(), m.cursor+delta, 0, 0, 0, 0, time.UTC)
	months := (t.Year()-m.sess.Year())*12 + int(t.Month()) - int(m.sess.Month())
	if months != 0 {
		m.sess.ChangeMonth(months)
		if t.Year() != m.sess.Year() || t.Month() != m.sess.Month() {
			// Clamped at the edge of the supported range.
			return
		}
	}
	m.cursor = t.Day()
}

func (m appModel) updateTasks(msg tea.KeyMsg) (appModel, tea.Cmd) {
	rows := m.sess.Rows()
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.setFocus(focusGrid)
	case key.Matches(msg, m.keys.Up):
		if m.taskCursor > 0 {
			m.taskCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.taskCursor < len(rows)-1 {
			m.taskCursor++
		}
	case key.Matches(msg, m.keys.Edit):
		if len(rows) == 0 {
			return m, nil
		}
		if err := m.sess.BeginEdit(m.taskCursor); err != nil {
			return m, m.flashErr(err)
		}
		m.editIndex = m.taskCursor
		m.purpose = inputEdit
		m.input.SetValue(rows[m.taskCursor].Text)
		m.input.CursorEnd()
		m.setFocus(focusInput)
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Delete):
		if len(rows) == 0 {
			return m, nil
		}
		if err := m.sess.OnTaskDelete(context.Background(), m.taskCursor); err != nil {
			return m, m.flashErr(err)
		}
		m.confirmFocus = confirmFocusCancel
		m.setFocus(focusConfirm)
	}
	return m, nil
}

func (m appModel) beginAdd() (appModel, tea.Cmd) {
	if _, ok := m.sess.Selected(); !ok {
		return m, m.flashf("Select a date first")
	}
	m.purpose = inputAdd
	m.input.SetValue("")
	m.setFocus(focusInput)
	return m, m.input.Focus()
}

func (m appModel) updateInput(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		m.feed.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		if m.purpose == inputEdit {
			_ = m.sess.CancelEdit(m.editIndex)
			m.editIndex = -1
		}
		m.input.Blur()
		m.setFocus(focusTasks)
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.submitInput()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m appModel) submitInput() (appModel, tea.Cmd) {
	text := m.input.Value()
	if m.purpose == inputAdd {
		if err := m.sess.OnTaskAdd(text); err != nil {
			// Blank text keeps the input open for another try.
			return m, m.flashErr(err)
		}
		m.input.Blur()
		m.input.SetValue("")
		m.setFocus(focusTasks)
		return m, nil
	}

	err := m.sess.OnTaskEdit(m.editIndex, text)
	var ete store.EmptyTaskError
	if errors.As(err, &ete) {
		return m, m.flashErr(err)
	}
	m.editIndex = -1
	m.input.Blur()
	m.input.SetValue("")
	m.setFocus(focusTasks)
	if err != nil {
		return m, m.flashErr(err)
	}
	return m, nil
}

func (m appModel) updateConfirm(msg tea.KeyMsg) (appModel, tea.Cmd) {
	confirm := false
	switch msg.String() {
	case "y", "Y":
		confirm = true
	case "n", "N", "esc", "ctrl+g", "q":
	case "tab", "shift+tab", "left", "right", "h", "l":
		m.confirmFocus = m.confirmFocus.toggle()
		return m, nil
	case "enter":
		confirm = m.confirmFocus == confirmFocusConfirm
	default:
		return m, nil
	}

	m.setFocus(focusTasks)
	if !confirm {
		m.sess.CancelDelete()
		return m, nil
	}
	if err := m.sess.ConfirmDelete(); err != nil {
		return m, m.flashErr(err)
	}
	return m, nil
}
