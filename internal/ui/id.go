package ui

import (
	"os"
	"sort"
	"strings"

	"golang.org/x/term"
)

const (
	ansiBold  = "\x1b[1m"
	ansiCyan  = "\x1b[36m"
	ansiReset = "\x1b[0m"
)

// HighlightID marks the first prefixLen characters of an ID in bold cyan
// so the part worth typing stands out. Output not going to a terminal
// gets the ID unchanged.
func HighlightID(id string, prefixLen int) string {
	if id == "" || prefixLen <= 0 || prefixLen > len(id) {
		return id
	}
	if !ansiEnabled() {
		return id
	}
	return ansiBold + ansiCyan + id[:prefixLen] + ansiReset + id[prefixLen:]
}

func ansiEnabled() bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// UniqueIDPrefixLengths computes, for every distinct ID, the shortest
// prefix that selects it alone. Keys are lowercased; an ID that is a
// prefix of a longer ID gets its full length.
func UniqueIDPrefixLengths(ids []string) map[string]int {
	distinct := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		lower := strings.ToLower(id)
		if lower == "" || seen[lower] {
			continue
		}
		seen[lower] = true
		distinct = append(distinct, lower)
	}
	sort.Strings(distinct)

	// In sorted order the longest prefix an ID shares with any other is
	// shared with one of its neighbors.
	lengths := make(map[string]int, len(distinct))
	for i, id := range distinct {
		shared := 0
		if i > 0 {
			shared = commonPrefixLen(id, distinct[i-1])
		}
		if i+1 < len(distinct) {
			if n := commonPrefixLen(id, distinct[i+1]); n > shared {
				shared = n
			}
		}
		length := shared + 1
		if length > len(id) {
			length = len(id)
		}
		lengths[id] = length
	}
	return lengths
}

// PrefixLength looks up the unique prefix length for an ID however it
// was cased in the output.
func PrefixLength(lengths map[string]int, id string) int {
	if id == "" {
		return 0
	}
	return lengths[strings.ToLower(id)]
}

func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
