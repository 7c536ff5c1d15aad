package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRewriteDirectDateArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"calendo"},
			want: []string{"calendo"},
		},
		{
			name: "date first token",
			in:   []string{"calendo", "2024-01-15"},
			want: []string{"calendo", "list", "2024-01-15"},
		},
		{
			name: "today",
			in:   []string{"calendo", "today"},
			want: []string{"calendo", "list", "today"},
		},
		{
			name: "date after value flag",
			in:   []string{"calendo", "--dir", "./tmp", "2024-01-15"},
			want: []string{"calendo", "--dir", "./tmp", "list", "2024-01-15"},
		},
		{
			name: "date after equals flag",
			in:   []string{"calendo", "--format=edn", "2024-01-15"},
			want: []string{"calendo", "--format=edn", "list", "2024-01-15"},
		},
		{
			name: "date after bool flag",
			in:   []string{"calendo", "--pretty", "2024-01-15"},
			want: []string{"calendo", "--pretty", "list", "2024-01-15"},
		},
		{
			name: "date after double dash",
			in:   []string{"calendo", "--", "2024-01-15"},
			want: []string{"calendo", "--", "list", "2024-01-15"},
		},
		{
			name: "subcommand not rewritten",
			in:   []string{"calendo", "add", "2024-01-15", "x"},
			want: []string{"calendo", "add", "2024-01-15", "x"},
		},
		{
			name: "invalid date not rewritten",
			in:   []string{"calendo", "2024-02-30"},
			want: []string{"calendo", "2024-02-30"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, rewriteDirectDateArgs(tt.in)); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
