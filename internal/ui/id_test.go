package ui

import "testing"

func TestUniqueIDPrefixLengths(t *testing.T) {
	cases := []struct {
		name string
		ids  []string
		want map[string]int
	}{
		{
			name: "distinct leading digits",
			ids:  []string{"101", "205", "318"},
			want: map[string]int{"101": 1, "205": 1, "318": 1},
		},
		{
			name: "shared stem needs longer prefix",
			ids:  []string{"1204", "1287", "34"},
			want: map[string]int{"1204": 3, "1287": 3, "34": 1},
		},
		{
			name: "id is prefix of another",
			ids:  []string{"12", "124"},
			want: map[string]int{"12": 2, "124": 3},
		},
		{
			name: "single id",
			ids:  []string{"847"},
			want: map[string]int{"847": 1},
		},
		{
			name: "case folds and blanks drop",
			ids:  []string{"A1", "a1", ""},
			want: map[string]int{"a1": 1},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := UniqueIDPrefixLengths(tc.ids)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d entries, want %d", len(got), len(tc.want))
			}
			for id, want := range tc.want {
				if got[id] != want {
					t.Errorf("prefix length for %s = %d, want %d", id, got[id], want)
				}
			}
		})
	}
}

func TestPrefixLength(t *testing.T) {
	lengths := map[string]int{"1204": 3}

	if got := PrefixLength(lengths, "1204"); got != 3 {
		t.Errorf("PrefixLength = %d, want 3", got)
	}
	if got := PrefixLength(lengths, ""); got != 0 {
		t.Errorf("PrefixLength for empty id = %d, want 0", got)
	}
	if got := PrefixLength(nil, "1204"); got != 0 {
		t.Errorf("PrefixLength with nil map = %d, want 0", got)
	}
}

func TestHighlightIDBounds(t *testing.T) {
	// Highlighting is a no-op outside a terminal, so only the guard
	// paths are checkable here.
	if got := HighlightID("", 1); got != "" {
		t.Errorf("HighlightID on empty id = %q", got)
	}
	if got := HighlightID("1204", 0); got != "1204" {
		t.Errorf("HighlightID with zero prefix = %q", got)
	}
	if got := HighlightID("1204", 9); got != "1204" {
		t.Errorf("HighlightID with oversized prefix = %q", got)
	}
}
