package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
)

// huhConfirmer asks with a huh confirm field. Accessible mode reads a plain
// y/n line, which also works with piped stdin.
type huhConfirmer struct {
	in         io.Reader
	out        io.Writer
	accessible bool
}

func newHuhConfirmer(in io.Reader, out io.Writer, accessible bool) huhConfirmer {
	return huhConfirmer{in: in, out: out, accessible: accessible}
}

func (h huhConfirmer) Confirm(ctx context.Context, text string) (bool, error) {
	var ok bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Delete %q?", text)).
			Affirmative("Delete").
			Negative("Keep").
			Value(&ok),
	)).
		WithInput(h.in).
		WithOutput(h.out).
		WithAccessible(h.accessible)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}
