package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"calendo/internal/busyness"
	"calendo/internal/datekey"
	"calendo/internal/grid"
	"calendo/internal/store"

	"github.com/google/go-cmp/cmp"
)

func fixedNow() time.Time {
	return time.Date(2024, time.January, 10, 9, 0, 0, 0, time.Local)
}

func newSession(t *testing.T) (*Session, *store.Tasks, *store.MemoryBackend) {
	t.Helper()
	b := store.NewMemoryBackend()
	ts := store.NewTasks(b)
	if err := ts.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := New(ts, Options{Now: fixedNow})
	t.Cleanup(s.Close)
	return s, ts, b
}

func texts(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Text
	}
	return out
}

func TestSession_StartsOnCurrentMonthUnselected(t *testing.T) {
	t.Parallel()

	s, _, _ := newSession(t)
	if s.Year() != 2024 || s.Month() != time.January {
		t.Fatalf("expected January 2024; got %v %d", s.Month(), s.Year())
	}
	if _, ok := s.Selected(); ok {
		t.Fatalf("expected no selection")
	}
	if rows := s.RenderTaskList(); rows != nil {
		t.Fatalf("expected nil rows when unselected; got %v", rows)
	}
	if err := s.AddTask("ignored"); err != nil {
		t.Fatalf("AddTask unselected: %v", err)
	}
	if len(s.Tasks().Keys()) != 0 {
		t.Fatalf("AddTask must be a no-op without selection")
	}
}

func TestSession_PayRentScenario(t *testing.T) {
	t.Parallel()

	s, ts, _ := newSession(t)
	g := s.Grid()
	if len(g.Cells) != 35 || g.Cells[0].Day != 0 || g.Cells[1].Day != 1 {
		t.Fatalf("unexpected January grid start: %+v", g.Cells[:2])
	}

	if err := s.SelectDate(2024, time.January, 15); err != nil {
		t.Fatalf("SelectDate: %v", err)
	}
	if err := s.AddTask("Pay rent"); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if diff := cmp.Diff([]string{"Pay rent"}, ts.TasksFor("2024-01-15")); diff != "" {
		t.Fatalf("tasks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Pay rent"}, texts(s.Rows())); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}

	cell, _ := s.Grid().Find(15)
	if cell.Tier != busyness.Light || !cell.Selected {
		t.Fatalf("expected selected Light cell; got %+v", cell)
	}
	today, _ := s.Grid().Find(10)
	if !today.Today {
		t.Fatalf("expected the 10th marked today")
	}
}

func TestSession_SelectingMovesTheMark(t *testing.T) {
	t.Parallel()

	s, _, _ := newSession(t)
	_ = s.SelectDate(2024, time.January, 3)
	_ = s.SelectDate(2024, time.January, 4)
	n := 0
	for _, c := range s.Grid().Cells {
		if c.Selected {
			n++
			if c.Day != 4 {
				t.Fatalf("wrong cell selected: %+v", c)
			}
		}
	}
	if n != 1 {
		t.Fatalf("expected exactly one selected cell; got %d", n)
	}

	var ide datekey.InvalidDateError
	if err := s.SelectDate(2024, time.February, 30); !errors.As(err, &ide) {
		t.Fatalf("expected InvalidDateError; got %v", err)
	}
	if k, _ := s.Selected(); k != "2024-01-04" {
		t.Fatalf("invalid select must not change selection; got %q", k)
	}
}

func TestSession_DeleteConfirmedRemovesKey(t *testing.T) {
	t.Parallel()

	s, ts, b := newSession(t)
	_ = s.SelectDate(2024, time.January, 15)
	_ = s.AddTask("Pay rent")

	gridEvents := 0
	cancel := s.Subscribe(func(e Event) {
		if e.Kind == EventGrid {
			gridEvents++
		}
	})
	defer cancel()

	ok, err := s.DeleteWithConfirm(context.Background(), 0, ConfirmFunc(func(_ context.Context, text string) (bool, error) {
		if text != "Pay rent" {
			t.Fatalf("prompt got %q", text)
		}
		return true, nil
	}))
	if err != nil || !ok {
		t.Fatalf("DeleteWithConfirm: %v %v", ok, err)
	}
	if got := ts.TasksFor("2024-01-15"); len(got) != 0 {
		t.Fatalf("expected no tasks; got %v", got)
	}
	if len(s.Rows()) != 0 {
		t.Fatalf("expected row removed from list")
	}
	raw, _, _ := b.Get(context.Background(), store.TasksKey)
	if string(raw) != "{}" {
		t.Fatalf("expected key absent from serialized mapping; got %s", raw)
	}
	if gridEvents == 0 {
		t.Fatalf("expected a grid refresh after delete")
	}
}

func TestSession_DeleteCancelledLeavesState(t *testing.T) {
	t.Parallel()

	s, ts, _ := newSession(t)
	_ = s.SelectDate(2024, time.January, 15)
	_ = s.AddTask("keep me")

	p, err := s.RequestDelete(0)
	if err != nil {
		t.Fatalf("RequestDelete: %v", err)
	}
	if p.Text != "keep me" {
		t.Fatalf("pending text %q", p.Text)
	}
	if ts.Count("2024-01-15") != 1 {
		t.Fatalf("request alone must not delete")
	}
	s.CancelDelete()
	if _, ok := s.Pending(); ok {
		t.Fatalf("expected no pending delete")
	}
	if err := s.ConfirmDelete(); err != nil {
		t.Fatalf("ConfirmDelete with nothing pending: %v", err)
	}
	if ts.Count("2024-01-15") != 1 {
		t.Fatalf("cancelled delete removed a task")
	}

	ok, err := s.DeleteWithConfirm(context.Background(), 0, ConfirmFunc(func(context.Context, string) (bool, error) {
		return false, nil
	}))
	if err != nil || ok {
		t.Fatalf("expected cancelled delete; got %v %v", ok, err)
	}
	if diff := cmp.Diff([]string{"keep me"}, texts(s.Rows())); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_DeleteDuplicateTextRemovesFirst(t *testing.T) {
	t.Parallel()

	s, ts, _ := newSession(t)
	_ = s.SelectDate(2024, time.January, 15)
	_ = s.AddTask("same")
	_ = s.AddTask("other")
	_ = s.AddTask("same")

	// Asking to delete row 2 removes the first "same" (row 0).
	if _, err := s.RequestDelete(2); err != nil {
		t.Fatalf("RequestDelete: %v", err)
	}
	if err := s.ConfirmDelete(); err != nil {
		t.Fatalf("ConfirmDelete: %v", err)
	}
	if diff := cmp.Diff([]string{"other", "same"}, ts.TasksFor("2024-01-15")); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_EditFlow(t *testing.T) {
	t.Parallel()

	s, ts, _ := newSession(t)
	_ = s.SelectDate(2024, time.January, 15)
	_ = s.AddTask("draft")

	if err := s.BeginEdit(0); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	if s.Editing() != 0 {
		t.Fatalf("expected row 0 editing")
	}

	err := s.CommitEdit(0, "   ")
	if !errors.As(err, new(store.EmptyTaskError)) {
		t.Fatalf("expected EmptyTaskError; got %v", err)
	}
	if !s.Rows()[0].Editing {
		t.Fatalf("row must stay editable after a blank commit")
	}
	if ts.TasksFor("2024-01-15")[0] != "draft" {
		t.Fatalf("blank commit changed the store")
	}

	if err := s.CommitEdit(0, "final"); err != nil {
		t.Fatalf("CommitEdit: %v", err)
	}
	r := s.Rows()[0]
	if r.Editing || r.Text != "final" {
		t.Fatalf("expected read-only row with new text; got %+v", r)
	}
}

func TestSession_CommitStaleIndexDropsEdit(t *testing.T) {
	t.Parallel()

	s, ts, _ := newSession(t)
	_ = s.SelectDate(2024, time.January, 15)
	_ = s.AddTask("a")
	_ = s.AddTask("b")
	_ = s.BeginEdit(1)

	// Another surface removed "b" behind our back.
	if _, err := ts.RemoveByText("2024-01-15", "b"); err != nil {
		t.Fatalf("RemoveByText: %v", err)
	}
	err := s.CommitEdit(1, "b2")
	if !errors.As(err, new(store.IndexOutOfRangeError)) {
		t.Fatalf("expected IndexOutOfRangeError; got %v", err)
	}
	if s.Editing() != -1 {
		t.Fatalf("expected edit dropped")
	}
	if diff := cmp.Diff([]string{"a"}, texts(s.Rows())); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_EditFlagFollowsRowAfterDelete(t *testing.T) {
	t.Parallel()

	s, _, _ := newSession(t)
	_ = s.SelectDate(2024, time.January, 15)
	_ = s.AddTask("a")
	_ = s.AddTask("b")
	_ = s.AddTask("c")
	_ = s.BeginEdit(2)
	_, _ = s.RequestDelete(0)
	_ = s.ConfirmDelete()

	rows := s.Rows()
	if len(rows) != 2 || !rows[1].Editing || rows[1].Text != "c" {
		t.Fatalf("expected edit flag on c; got %+v", rows)
	}
}

func TestSession_ConfirmDeleteAfterExternalEdit(t *testing.T) {
	t.Parallel()

	s, ts, _ := newSession(t)
	_ = s.SelectDate(2024, time.January, 15)
	_ = s.AddTask("a")
	_ = s.AddTask("b")
	_ = s.BeginEdit(1)
	if _, err := s.RequestDelete(0); err != nil {
		t.Fatalf("RequestDelete: %v", err)
	}
	if _, err := ts.Update("2024-01-15", 0, "a2"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// The staged text no longer exists, so nothing is removed.
	if err := s.ConfirmDelete(); err != nil {
		t.Fatalf("ConfirmDelete: %v", err)
	}
	if diff := cmp.Diff([]string{"a2", "b"}, ts.TasksFor("2024-01-15")); diff != "" {
		t.Fatalf("store mismatch (-want +got):\n%s", diff)
	}
	rows := s.Rows()
	if diff := cmp.Diff([]string{"a2", "b"}, texts(rows)); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if !rows[1].Editing {
		t.Fatalf("expected edit flag kept on b; got %+v", rows)
	}

	if _, err := s.RequestDelete(0); err != nil {
		t.Fatalf("RequestDelete: %v", err)
	}
	if err := s.ConfirmDelete(); err != nil {
		t.Fatalf("ConfirmDelete: %v", err)
	}
	rows = s.Rows()
	if len(rows) != 1 || rows[0].Text != "b" || rows[0].Index != 0 || !rows[0].Editing {
		t.Fatalf("expected b at index 0 still editing; got %+v", rows)
	}
}

func TestSession_NavigationWraps(t *testing.T) {
	t.Parallel()

	s, _, _ := newSession(t)
	s.ChangeMonth(-1)
	if s.Year() != 2023 || s.Month() != time.December {
		t.Fatalf("expected December 2023; got %v %d", s.Month(), s.Year())
	}
	s.ChangeMonth(1)
	s.ChangeMonth(12)
	if s.Year() != 2025 || s.Month() != time.January {
		t.Fatalf("expected January 2025; got %v %d", s.Month(), s.Year())
	}
	s.ChangeYear(-2)
	if s.Year() != 2023 {
		t.Fatalf("expected 2023; got %d", s.Year())
	}
	s.GoToToday()
	if s.Year() != 2024 || s.Month() != time.January {
		t.Fatalf("GoToToday: got %v %d", s.Month(), s.Year())
	}
	s.ChangeYear(-5000)
	if s.Year() != 1 {
		t.Fatalf("expected clamp to year 1; got %d", s.Year())
	}
}

func TestSession_WriteFailureSurfacesAndKeepsInput(t *testing.T) {
	t.Parallel()

	s, ts, b := newSession(t)
	_ = s.SelectDate(2024, time.January, 15)
	b.FailPuts = errors.New("disk full")

	err := s.AddTask("lost?")
	if !errors.As(err, new(store.PersistenceWriteError)) {
		t.Fatalf("expected PersistenceWriteError; got %v", err)
	}
	if ts.Count("2024-01-15") != 0 || len(s.Rows()) != 0 {
		t.Fatalf("failed write must be rolled back")
	}
}

func TestSession_IntentsWithConfirmer(t *testing.T) {
	t.Parallel()

	b := store.NewMemoryBackend()
	ts := store.NewTasks(b)
	s := New(ts, Options{
		Now:     fixedNow,
		Layout:  grid.SixWeeks,
		Confirm: ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil }),
	})
	defer s.Close()

	var in Intents = s
	if err := in.OnDaySelected(2024, time.March, 2); err != nil {
		t.Fatalf("OnDaySelected: %v", err)
	}
	if s.Month() != time.March {
		t.Fatalf("expected view to follow selection")
	}
	_ = in.OnTaskAdd("one")
	_ = in.OnTaskEdit(0, "uno")
	if ts.TasksFor("2024-03-02")[0] != "uno" {
		t.Fatalf("edit intent not applied")
	}
	if err := in.OnTaskDelete(context.Background(), 0); err != nil {
		t.Fatalf("OnTaskDelete: %v", err)
	}
	if ts.Count("2024-03-02") != 0 {
		t.Fatalf("delete intent not applied")
	}
	if len(s.Grid().Cells) != 42 {
		t.Fatalf("expected six-week layout")
	}
}

func TestSession_ReloadRefreshesRows(t *testing.T) {
	t.Parallel()

	s, ts, b := newSession(t)
	_ = s.SelectDate(2024, time.January, 15)
	_ = b.Put(context.Background(), store.TasksKey, []byte(`{"2024-01-15":["external"]}`))
	if _, err := ts.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if diff := cmp.Diff([]string{"external"}, texts(s.Rows())); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}
