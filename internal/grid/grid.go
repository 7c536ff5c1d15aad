// Package grid lays out a month as a fixed grid of week rows.
package grid

import (
	"fmt"
	"strings"
	"time"

	"calendo/internal/busyness"
	"calendo/internal/datekey"
)

// Layout selects how many week rows a month grid has.
type Layout int

const (
	// FiveWeeks is the legacy 35-cell grid. Months that need a sixth row keep
	// their extra days in Month.Overflow.
	FiveWeeks Layout = iota
	// SixWeeks always fits every month in 42 cells.
	SixWeeks
)

func (l Layout) Size() int {
	if l == SixWeeks {
		return 42
	}
	return 35
}

func (l Layout) String() string {
	if l == SixWeeks {
		return "six-weeks"
	}
	return "five-weeks"
}

func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "five-weeks", "35", "fixed":
		return FiveWeeks, nil
	case "six-weeks", "42":
		return SixWeeks, nil
	default:
		return FiveWeeks, fmt.Errorf("unknown grid layout: %s (want five-weeks|six-weeks)", s)
	}
}

// Counter reports how many tasks a date has.
type Counter interface {
	Count(datekey.Key) int
}

// Cell is either a blank pad (Day == 0) or one day of the month.
type Cell struct {
	Day      int           `json:"day,omitempty"`
	Key      datekey.Key   `json:"key,omitempty"`
	Today    bool          `json:"today,omitempty"`
	Selected bool          `json:"selected,omitempty"`
	Count    int           `json:"count,omitempty"`
	Tier     busyness.Tier `json:"tier"`
}

func (c Cell) Blank() bool { return c.Day == 0 }

// Options controls which cells Build marks and how it orders weekdays.
type Options struct {
	// Today marks the matching cell. Zero means no cell is today.
	Today time.Time
	// Selected marks the matching cell when non-empty.
	Selected  datekey.Key
	WeekStart time.Weekday
	Layout    Layout
}

// Month is one built grid. Cells holds Layout.Size() cells in row order.
type Month struct {
	Year      int          `json:"year"`
	Month     time.Month   `json:"month"`
	WeekStart time.Weekday `json:"weekStart"`
	Layout    Layout       `json:"-"`
	Cells     []Cell       `json:"cells"`
	Overflow  []Cell       `json:"overflow,omitempty"`
}

// Build lays out month. Out-of-range months are normalized the way time.Date
// does (month 13 of 2024 is January 2025).
func Build(year int, month time.Month, counts Counter, opts Options) Month {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	year, month = first.Year(), first.Month()

	var todayKey datekey.Key
	if !opts.Today.IsZero() {
		todayKey = datekey.FromTime(opts.Today)
	}

	leading := LeadingBlanks(first.Weekday(), opts.WeekStart)
	days := datekey.DaysIn(year, month)

	all := make([]Cell, 0, opts.Layout.Size())
	for i := 0; i < leading; i++ {
		all = append(all, Cell{})
	}
	for d := 1; d <= days; d++ {
		k := datekey.MustEncode(year, month, d)
		n := 0
		if counts != nil {
			n = counts.Count(k)
		}
		all = append(all, Cell{
			Day:      d,
			Key:      k,
			Today:    k == todayKey,
			Selected: opts.Selected != "" && k == opts.Selected,
			Count:    n,
			Tier:     busyness.Classify(n),
		})
	}
	trailing := opts.Layout.Size() - len(all)
	for i := 0; i < trailing; i++ {
		all = append(all, Cell{})
	}

	m := Month{Year: year, Month: month, WeekStart: opts.WeekStart, Layout: opts.Layout}
	size := opts.Layout.Size()
	if len(all) > size {
		m.Cells = all[:size]
		m.Overflow = all[size:]
	} else {
		m.Cells = all
	}
	return m
}

// LeadingBlanks is the column index of weekday in a week starting at weekStart.
func LeadingBlanks(weekday, weekStart time.Weekday) int {
	return (int(weekday) - int(weekStart) + 7) % 7
}

// Weeks splits the cells into rows of seven. Overflow days are not included.
func (m Month) Weeks() [][]Cell {
	var out [][]Cell
	for i := 0; i < len(m.Cells); i += 7 {
		end := i + 7
		if end > len(m.Cells) {
			end = len(m.Cells)
		}
		out = append(out, m.Cells[i:end])
	}
	return out
}

// Find returns the cell for day, looking in Overflow too.
func (m Month) Find(day int) (Cell, bool) {
	for _, c := range m.Cells {
		if c.Day == day {
			return c, true
		}
	}
	for _, c := range m.Overflow {
		if c.Day == day {
			return c, true
		}
	}
	return Cell{}, false
}

// Days returns every day cell in order, overflow included.
func (m Month) Days() []Cell {
	out := make([]Cell, 0, 31)
	for _, c := range m.Cells {
		if !c.Blank() {
			out = append(out, c)
		}
	}
	return append(out, m.Overflow...)
}

func (m Month) Title() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

// WeekdayHeaders returns short weekday names in column order.
func WeekdayHeaders(weekStart time.Weekday) []string {
	out := make([]string, 7)
	for i := 0; i < 7; i++ {
		out[i] = time.Weekday((int(weekStart) + i) % 7).String()[:2]
	}
	return out
}

func ParseWeekStart(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sunday", "sun":
		return time.Sunday, nil
	case "monday", "mon":
		return time.Monday, nil
	case "saturday", "sat":
		return time.Saturday, nil
	default:
		return time.Sunday, fmt.Errorf("unsupported week start: %s (want sunday|monday|saturday)", s)
	}
}
