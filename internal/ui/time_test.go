package ui

import (
	"testing"
	"time"
)

func TestFormatTimeAgo(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		then time.Time
		want string
	}{
		{"just now", now, "0s ago"},
		{"seconds", now.Add(-45 * time.Second), "45s ago"},
		{"minutes floor", now.Add(-2*time.Minute - 10*time.Second), "2m ago"},
		{"hours floor", now.Add(-3*time.Hour - 5*time.Minute), "3h ago"},
		{"days", now.Add(-48 * time.Hour), "2d ago"},
		{"future clamps to zero", now.Add(time.Minute), "0s ago"},
		{"unset", time.Time{}, "-"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatTimeAgo(tc.then, now); got != tc.want {
				t.Fatalf("FormatTimeAgo = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFormatTimeAgeShort(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	if got := FormatTimeAgeShort(now.Add(-3*time.Hour), now); got != "3h" {
		t.Fatalf("FormatTimeAgeShort = %q, want %q", got, "3h")
	}
	if got := FormatTimeAgeShort(time.Time{}, now); got != "-" {
		t.Fatalf("FormatTimeAgeShort on zero time = %q, want %q", got, "-")
	}
}
