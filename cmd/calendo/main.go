package main

import (
	"os"
	"strings"

	"calendo/internal/cli"
	"calendo/internal/datekey"
)

func isDateArg(s string) bool {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "today") {
		return true
	}
	_, err := datekey.Parse(s)
	return err == nil
}

// rewriteDirectDateArgs makes `calendo <date>` work like `calendo list <date>`.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten
// before parsing. Persistent flags may come first (`calendo --dir x 2024-01-15`),
// so the first positional token is searched for, not just argv[1].
func rewriteDirectDateArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--dir":        true,
		"--backend":    true,
		"--format":     true,
		"--log-level":  true,
		"--week-start": true,
		"--layout":     true,
	}

	insertList := func(i int) []string {
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:i]...)
		out = append(out, "list")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isDateArg(argv[i+1]) {
				return insertList(i + 1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			// Unknown flags are skipped without their value so a date is
			// never swallowed.
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if isDateArg(a) {
			return insertList(i)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteDirectDateArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
