// Package session owns the interactive state of one calendar session: the
// month on screen, the selected date, and the task rows shown for it.
//
// A rendering surface drives the session through Intents and redraws from
// the Events it subscribes to. The session never calls into the surface.
package session

import (
	"context"
	"errors"
	"sort"
	"time"

	"calendo/internal/datekey"
	"calendo/internal/grid"
	"calendo/internal/store"
)

// Confirmer asks the user to confirm deleting the task shown as text.
type Confirmer interface {
	Confirm(ctx context.Context, text string) (bool, error)
}

// ConfirmFunc adapts a func to Confirmer.
type ConfirmFunc func(ctx context.Context, text string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, text string) (bool, error) { return f(ctx, text) }

// Intents is everything a rendering surface may ask of the session.
type Intents interface {
	OnDaySelected(year int, month time.Month, day int) error
	OnTaskAdd(text string) error
	OnTaskEdit(index int, text string) error
	OnTaskDelete(ctx context.Context, index int) error
}

type EventKind int

const (
	EventNavigated EventKind = iota
	EventSelected
	EventTasks
	EventGrid
)

// Event tells subscribers what to redraw.
type Event struct {
	Kind     EventKind
	Selected datekey.Key
	Change   store.Change
}

// Row is one rendered task of the selected date.
type Row struct {
	Index   int
	Text    string
	Editing bool
}

// PendingDelete is a delete awaiting confirmation.
type PendingDelete struct {
	Key   datekey.Key
	Index int
	Text  string
}

var ErrNoSelection = errors.New("no date selected")

type Options struct {
	Now       func() time.Time
	WeekStart time.Weekday
	Layout    grid.Layout

	// Confirm answers OnTaskDelete. When nil, OnTaskDelete only stages the
	// delete and the surface finishes it with ConfirmDelete or CancelDelete.
	Confirm Confirmer
}

type Session struct {
	tasks *store.Tasks
	now   func() time.Time
	opts  Options

	year  int
	month time.Month

	selected    datekey.Key
	hasSelected bool
	rows        []Row

	pending *PendingDelete

	subs        map[int]func(Event)
	nextSubID   int
	unsubscribe func()
}

// New starts a session on the current month with nothing selected.
func New(tasks *store.Tasks, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Session{
		tasks: tasks,
		now:   opts.Now,
		opts:  opts,
		subs:  map[int]func(Event){},
	}
	now := s.now()
	s.year, s.month = now.Year(), now.Month()
	s.unsubscribe = tasks.Subscribe(s.onStoreChange)
	return s
}

// Close detaches the session from the store.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *Session) Tasks() *store.Tasks { return s.tasks }

func (s *Session) Year() int { return s.year }

func (s *Session) Month() time.Month { return s.month }

func (s *Session) Layout() grid.Layout { return s.opts.Layout }

// Selected reports the selected date, if any.
func (s *Session) Selected() (datekey.Key, bool) {
	return s.selected, s.hasSelected
}

// Grid builds the current month with today and selection marked.
func (s *Session) Grid() grid.Month {
	var sel datekey.Key
	if s.hasSelected {
		sel = s.selected
	}
	return grid.Build(s.year, s.month, s.tasks, grid.Options{
		Today:     s.now(),
		Selected:  sel,
		WeekStart: s.opts.WeekStart,
		Layout:    s.opts.Layout,
	})
}

// ChangeMonth moves the view by delta months, wrapping the year.
func (s *Session) ChangeMonth(delta int) {
	m := int(s.month) - 1 + delta
	y := s.year + floorDiv(m, 12)
	m = floorMod(m, 12)
	s.setView(y, time.Month(m+1))
}

func (s *Session) ChangeYear(delta int) {
	s.setView(s.year+delta, s.month)
}

// GoToToday shows the current month. The selection is kept.
func (s *Session) GoToToday() {
	now := s.now()
	s.setView(now.Year(), now.Month())
}

func (s *Session) setView(y int, m time.Month) {
	if y < 1 {
		y, m = 1, time.January
	}
	if y > 9999 {
		y, m = 9999, time.December
	}
	if y == s.year && m == s.month {
		return
	}
	s.year, s.month = y, m
	s.emit(Event{Kind: EventNavigated})
	s.emit(Event{Kind: EventGrid})
}

// SelectDate selects a date and renders its task list. The view moves to the
// date's month when needed.
func (s *Session) SelectDate(year int, month time.Month, day int) error {
	k, err := datekey.Encode(year, month, day)
	if err != nil {
		return err
	}
	s.pending = nil
	s.selected = k
	s.hasSelected = true
	if year != s.year || month != s.month {
		s.year, s.month = year, month
		s.emit(Event{Kind: EventNavigated})
	}
	s.RenderTaskList()
	s.emit(Event{Kind: EventSelected, Selected: k})
	s.emit(Event{Kind: EventGrid})
	return nil
}

// SelectKey is SelectDate for an existing key.
func (s *Session) SelectKey(k datekey.Key) error {
	d, err := k.Date()
	if err != nil {
		return err
	}
	return s.SelectDate(d.Year, d.Month, d.Day)
}

// RenderTaskList rebuilds the rows from the store. Rows that were being
// edited stay editable when their index still exists.
func (s *Session) RenderTaskList() []Row {
	if !s.hasSelected {
		s.rows = nil
		return nil
	}
	editing := map[int]bool{}
	for _, r := range s.rows {
		if r.Editing {
			editing[r.Index] = true
		}
	}
	texts := s.tasks.TasksFor(s.selected)
	rows := make([]Row, len(texts))
	for i, t := range texts {
		rows[i] = Row{Index: i, Text: t, Editing: editing[i]}
	}
	s.rows = rows
	return s.Rows()
}

// Rows returns the current task rows; nil when nothing is selected.
func (s *Session) Rows() []Row {
	if !s.hasSelected {
		return nil
	}
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}

func (s *Session) row(index int) (*Row, error) {
	if !s.hasSelected {
		return nil, ErrNoSelection
	}
	if index < 0 || index >= len(s.rows) {
		return nil, store.IndexOutOfRangeError{Key: s.selected, Index: index, Len: len(s.rows)}
	}
	return &s.rows[index], nil
}

// BeginEdit makes a row editable.
func (s *Session) BeginEdit(index int) error {
	r, err := s.row(index)
	if err != nil {
		return err
	}
	r.Editing = true
	return nil
}

// CancelEdit reverts a row to read-only without saving.
func (s *Session) CancelEdit(index int) error {
	r, err := s.row(index)
	if err != nil {
		return err
	}
	r.Editing = false
	return nil
}

// Editing returns the index of the first editable row, or -1.
func (s *Session) Editing() int {
	for _, r := range s.rows {
		if r.Editing {
			return r.Index
		}
	}
	return -1
}

// CommitEdit saves text into the row. Blank text is rejected and the row stays
// editable. A stale index drops the edit and re-renders the list.
func (s *Session) CommitEdit(index int, text string) error {
	if !s.hasSelected {
		return ErrNoSelection
	}
	_, err := s.tasks.Update(s.selected, index, text)
	var oor store.IndexOutOfRangeError
	switch {
	case errors.As(err, &oor):
		for i := range s.rows {
			s.rows[i].Editing = false
		}
		s.RenderTaskList()
		return err
	case err != nil:
		return err
	}
	if r, rerr := s.row(index); rerr == nil {
		r.Editing = false
	}
	return nil
}

// RequestDelete stages deleting a row and returns what the confirmation
// prompt should show. Nothing changes until ConfirmDelete.
func (s *Session) RequestDelete(index int) (PendingDelete, error) {
	r, err := s.row(index)
	if err != nil {
		return PendingDelete{}, err
	}
	p := PendingDelete{Key: s.selected, Index: index, Text: r.Text}
	s.pending = &p
	return p, nil
}

// Pending returns the staged delete, if any.
func (s *Session) Pending() (PendingDelete, bool) {
	if s.pending == nil {
		return PendingDelete{}, false
	}
	return *s.pending, true
}

// CancelDelete drops the staged delete.
func (s *Session) CancelDelete() {
	s.pending = nil
}

// ConfirmDelete removes the first task matching the staged text.
func (s *Session) ConfirmDelete() error {
	if s.pending == nil {
		return nil
	}
	p := *s.pending
	s.pending = nil
	c, err := s.tasks.RemoveByText(p.Key, p.Text)
	if err != nil {
		return err
	}
	// A removal already re-rendered through onStoreChange.
	if c.Kind == store.ChangeNone {
		s.RenderTaskList()
	}
	return nil
}

// DeleteWithConfirm runs the whole request/confirm flow with a synchronous prompt.
func (s *Session) DeleteWithConfirm(ctx context.Context, index int, c Confirmer) (bool, error) {
	p, err := s.RequestDelete(index)
	if err != nil {
		return false, err
	}
	ok, err := c.Confirm(ctx, p.Text)
	if err != nil {
		s.CancelDelete()
		return false, err
	}
	if !ok {
		s.CancelDelete()
		return false, nil
	}
	return true, s.ConfirmDelete()
}

// AddTask appends to the selected date. It is a no-op when nothing is selected.
func (s *Session) AddTask(text string) error {
	if !s.hasSelected {
		return nil
	}
	_, err := s.tasks.Add(s.selected, text)
	return err
}

// Subscribe registers fn for session events.
func (s *Session) Subscribe(fn func(Event)) (cancel func()) {
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

func (s *Session) emit(e Event) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		s.subs[id](e)
	}
}

func (s *Session) onStoreChange(c store.Change) {
	if c.Kind == store.ChangeRemoved && s.hasSelected && c.Key == s.selected {
		s.dropRow(c.Index)
	}
	if c.Kind == store.ChangeReloaded || (s.hasSelected && c.Key == s.selected) {
		s.RenderTaskList()
		if c.Kind == store.ChangeReloaded {
			s.pending = nil
		}
	}
	s.emit(Event{Kind: EventTasks, Selected: s.selected, Change: c})
	s.emit(Event{Kind: EventGrid, Change: c})
}

// dropRow removes a row and renumbers the rest so edit flags follow their text.
func (s *Session) dropRow(index int) {
	if index < 0 || index >= len(s.rows) {
		return
	}
	s.rows = append(s.rows[:index], s.rows[index+1:]...)
	for i := range s.rows {
		s.rows[i].Index = i
	}
}

var _ Intents = (*Session)(nil)

func (s *Session) OnDaySelected(year int, month time.Month, day int) error {
	return s.SelectDate(year, month, day)
}

func (s *Session) OnTaskAdd(text string) error {
	return s.AddTask(text)
}

func (s *Session) OnTaskEdit(index int, text string) error {
	return s.CommitEdit(index, text)
}

func (s *Session) OnTaskDelete(ctx context.Context, index int) error {
	if s.opts.Confirm == nil {
		_, err := s.RequestDelete(index)
		return err
	}
	_, err := s.DeleteWithConfirm(ctx, index, s.opts.Confirm)
	return err
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
