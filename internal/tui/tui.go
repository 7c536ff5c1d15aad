package tui

import (
	"context"

	"calendo/internal/session"
	"calendo/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

type Options struct {
	Logger *log.Logger
	// WatchPaths are reloaded from when another process writes them.
	WatchPaths []string
}

// Run starts the interactive calendar. sess must not carry a Confirmer: the
// TUI confirms deletes with its own modal.
func Run(ctx context.Context, sess *session.Session, opts Options) error {
	applyColorProfilePreference()
	applyThemePreference()
	applyGlyphPreference()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var watch <-chan struct{}
	if len(opts.WatchPaths) > 0 {
		ch, err := store.Watch(ctx, opts.WatchPaths)
		if err != nil {
			// The calendar still works without live reload.
			if opts.Logger != nil {
				opts.Logger.Warn("watch disabled", "err", err)
			}
		} else {
			watch = ch
		}
	}

	m := newAppModel(sess, opts.Logger, watch)
	defer m.feed.cancel()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
