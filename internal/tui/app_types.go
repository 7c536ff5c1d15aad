package tui

import (
	"calendo/internal/session"
)

type focus int

const (
	focusGrid focus = iota
	focusTasks
	focusInput
	focusConfirm
)

type inputPurpose int

const (
	inputAdd inputPurpose = iota
	inputEdit
)

type flashDoneMsg struct{ seq int }

// storeChangedMsg is sent when the backing file changed on disk.
type storeChangedMsg struct{}

// eventFeed collects session events between Update calls. It is shared by
// every copy of the model.
type eventFeed struct {
	events []session.Event
	cancel func()
}

func (f *eventFeed) drain() []session.Event {
	out := f.events
	f.events = nil
	return out
}
