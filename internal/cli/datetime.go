package cli

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"calendo/internal/datekey"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var reYearMonth = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

var naturalDates = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// parseDate accepts:
// - YYYY-MM-DD
// - today / tomorrow / yesterday
// - natural language ("next friday", "in 3 days"), relative to now
func parseDate(s string, now time.Time) (datekey.Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty date")
	}
	switch strings.ToLower(s) {
	case "today":
		return datekey.FromTime(now), nil
	case "tomorrow":
		return datekey.FromTime(now.AddDate(0, 0, 1)), nil
	case "yesterday":
		return datekey.FromTime(now.AddDate(0, 0, -1)), nil
	}
	if k, err := datekey.Parse(s); err == nil {
		return k, nil
	} else if looksNumericDate(s) {
		// 2024-02-30 is a typo, not a phrase.
		return "", err
	}

	r, err := naturalDates.Parse(s, now)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	if r == nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD, today, or a phrase like \"next friday\")", s)
	}
	return datekey.FromTime(r.Time), nil
}

// parseYearMonth accepts YYYY-MM, a full date, or a phrase; empty means now.
func parseYearMonth(s string, now time.Time) (int, time.Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.Year(), now.Month(), nil
	}
	if m := reYearMonth.FindStringSubmatch(s); m != nil {
		k, err := datekey.Parse(m[1] + "-" + m[2] + "-01")
		if err != nil {
			return 0, 0, fmt.Errorf("invalid month %q (expected YYYY-MM)", s)
		}
		d, _ := k.Date()
		return d.Year, d.Month, nil
	}
	k, err := parseDate(s, now)
	if err != nil {
		return 0, 0, err
	}
	d, err := k.Date()
	if err != nil {
		return 0, 0, err
	}
	return d.Year, d.Month, nil
}

func looksNumericDate(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return true
}
