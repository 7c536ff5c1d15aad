package datekey

import (
	"errors"
	"testing"
	"time"
)

func TestEncode_ZeroPads(t *testing.T) {
	t.Parallel()

	cases := []struct {
		y    int
		m    time.Month
		d    int
		want Key
	}{
		{2024, time.January, 5, "2024-01-05"},
		{2024, time.December, 31, "2024-12-31"},
		{2024, time.February, 29, "2024-02-29"},
		{999, time.March, 1, "0999-03-01"},
	}
	for _, tc := range cases {
		got, err := Encode(tc.y, tc.m, tc.d)
		if err != nil {
			t.Fatalf("Encode(%d,%d,%d): %v", tc.y, tc.m, tc.d, err)
		}
		if got != tc.want {
			t.Fatalf("Encode(%d,%d,%d)=%q; want %q", tc.y, tc.m, tc.d, got, tc.want)
		}
	}
}

func TestEncode_RejectsOutOfRange(t *testing.T) {
	t.Parallel()

	bad := []Date{
		{2024, time.January, 32},
		{2024, time.January, 0},
		{2023, time.February, 29},
		{2024, 13, 1},
		{2024, 0, 1},
		{0, time.January, 1},
		{10000, time.January, 1},
	}
	for _, d := range bad {
		_, err := Encode(d.Year, d.Month, d.Day)
		var ide InvalidDateError
		if !errors.As(err, &ide) {
			t.Fatalf("Encode(%+v): expected InvalidDateError, got %v", d, err)
		}
	}
}

func TestEncode_InjectiveAcrossYear(t *testing.T) {
	t.Parallel()

	seen := map[Key]Date{}
	for _, y := range []int{2023, 2024} {
		for m := time.January; m <= time.December; m++ {
			for d := 1; d <= DaysIn(y, m); d++ {
				k := MustEncode(y, m, d)
				if prev, ok := seen[k]; ok {
					t.Fatalf("collision: %v and %v both map to %q", prev, Date{y, m, d}, k)
				}
				seen[k] = Date{y, m, d}
			}
		}
	}
	if len(seen) != 365+366 {
		t.Fatalf("expected %d keys, got %d", 365+366, len(seen))
	}
}

func TestFromTime_IgnoresClockAndLocation(t *testing.T) {
	t.Parallel()

	berlin := time.FixedZone("CET", 3600)
	a := FromTime(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	b := FromTime(time.Date(2024, 1, 15, 23, 59, 59, 0, berlin))
	if a != b || a != "2024-01-15" {
		t.Fatalf("expected equal keys 2024-01-15; got %q and %q", a, b)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	t.Parallel()

	k, err := Parse(" 2024-02-29 ")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	d, err := k.Date()
	if err != nil {
		t.Fatalf("Date: %v", err)
	}
	if d != (Date{2024, time.February, 29}) {
		t.Fatalf("unexpected date %+v", d)
	}

	for _, s := range []string{"2023-02-29", "2024-1-5", "20240105", "abcd-ef-gh", ""} {
		if _, err := Parse(s); err == nil {
			t.Fatalf("Parse(%q): expected error", s)
		}
	}
}
