// Package datekey converts calendar dates to canonical YYYY-MM-DD keys and back.
//
// Keys are fixed width, so lexical order equals chronological order.
package datekey

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const layout = "2006-01-02"

// Key identifies one calendar date, e.g. "2024-01-15".
type Key string

func (k Key) String() string { return string(k) }

// Date is a (year, month, day) triple with no time or location attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// InvalidDateError reports input that does not name a real calendar date.
type InvalidDateError struct {
	Year  int
	Month time.Month
	Day   int
	Input string
}

func (e InvalidDateError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("invalid date: %q", e.Input)
	}
	return fmt.Sprintf("invalid date: year=%d month=%d day=%d", e.Year, int(e.Month), e.Day)
}

// Encode builds the key for (year, month, day). Month is 1-based (time.January == 1).
func Encode(year int, month time.Month, day int) (Key, error) {
	if year < 1 || year > 9999 || month < time.January || month > time.December {
		return "", InvalidDateError{Year: year, Month: month, Day: day}
	}
	if day < 1 || day > DaysIn(year, month) {
		return "", InvalidDateError{Year: year, Month: month, Day: day}
	}
	return Key(fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)), nil
}

// MustEncode is Encode for values that come out of calendar arithmetic.
func MustEncode(year int, month time.Month, day int) Key {
	k, err := Encode(year, month, day)
	if err != nil {
		panic(err)
	}
	return k
}

// FromTime returns the key for t's calendar date in t's own location.
func FromTime(t time.Time) Key {
	y, m, d := t.Date()
	return MustEncode(y, m, d)
}

// Parse validates s and returns it as a Key.
func Parse(s string) (Key, error) {
	s = strings.TrimSpace(s)
	d, err := parseDate(s)
	if err != nil {
		return "", err
	}
	return Encode(d.Year, d.Month, d.Day)
}

// Date decodes the key.
func (k Key) Date() (Date, error) {
	return parseDate(string(k))
}

// Time returns local midnight of the key's date.
func (k Key) Time(loc *time.Location) (time.Time, error) {
	d, err := k.Date()
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc), nil
}

func parseDate(s string) (Date, error) {
	if len(s) != len(layout) || s[4] != '-' || s[7] != '-' {
		return Date{}, InvalidDateError{Input: s}
	}
	y, err1 := strconv.Atoi(s[0:4])
	m, err2 := strconv.Atoi(s[5:7])
	d, err3 := strconv.Atoi(s[8:10])
	if err1 != nil || err2 != nil || err3 != nil {
		return Date{}, InvalidDateError{Input: s}
	}
	if _, err := Encode(y, time.Month(m), d); err != nil {
		return Date{}, InvalidDateError{Input: s}
	}
	return Date{Year: y, Month: time.Month(m), Day: d}, nil
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	// Day 0 of next month is last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
