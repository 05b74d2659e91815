package main

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"sheetctl/page"
	"sheetctl/session"
)

func TestFormatPageTable(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	pages := []page.Info{
		{
			ID:        "p1",
			Name:      "Roadmap",
			Slug:      "roadmap",
			Owner:     session.User{ID: "u1", Username: "ana"},
			UpdatedAt: now.Add(-2 * time.Minute),
		},
		{
			ID:        "p2",
			Name:      "Backlog",
			Slug:      "backlog",
			Owner:     session.User{ID: "u2", Username: "bo"},
			UpdatedAt: now.Add(-3 * time.Hour),
		},
	}

	output := formatPageTable(pages, now)

	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected a header and two rows, got %d lines:\n%s", len(lines), output)
	}
	if !strings.HasPrefix(lines[0], "NAME") {
		t.Errorf("expected header to start with NAME, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "Roadmap") || !strings.Contains(lines[1], "2m ago") {
		t.Errorf("expected first row with Roadmap and its age, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "backlog") || !strings.Contains(lines[2], "3h ago") {
		t.Errorf("expected second row with backlog and its age, got %q", lines[2])
	}
}

func TestPrintPageTableEmpty(t *testing.T) {
	output := captureStdout(t, func() {
		printPageTable(nil, time.Now())
	})
	if output != "No pages found.\n" {
		t.Fatalf("expected empty-list message, got %q", output)
	}
}

func TestFormatPageDetail(t *testing.T) {
	data := &page.Data{
		ID:    "p1",
		Name:  "Roadmap",
		Slug:  "roadmap",
		Owner: session.User{ID: "u1", Username: "ana"},
		Columns: []page.Column{
			{ID: "c1", Name: "Task", Order: 1, Width: 150},
			{ID: "c2", Name: "Who", Order: 2, Width: 30},
		},
		Rows: []page.Row{
			{ID: "r1", Order: 1, Cells: []string{"Design review", "alexandra"}},
			{ID: "r2", Order: 2, Cells: []string{"Ship beta", "bo"}},
		},
	}

	output := formatPageDetail(data)

	lines := strings.Split(output, "\n")
	if len(lines) < 6 {
		t.Fatalf("expected header, owner, and grid lines, got:\n%s", output)
	}
	if lines[0] != "Roadmap (roadmap)" {
		t.Errorf("expected title line, got %q", lines[0])
	}
	if lines[1] != "Owner: ana" {
		t.Errorf("expected owner line, got %q", lines[1])
	}
	if lines[2] != "" {
		t.Errorf("expected blank line before the grid, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "Task") || !strings.Contains(lines[3], "Who") {
		t.Errorf("expected grid header with column names, got %q", lines[3])
	}
	if !strings.HasPrefix(lines[4], "1") || !strings.Contains(lines[4], "Design review") {
		t.Errorf("expected numbered first row, got %q", lines[4])
	}
	if !strings.HasPrefix(lines[5], "2") || !strings.Contains(lines[5], "Ship beta") {
		t.Errorf("expected numbered second row, got %q", lines[5])
	}
	// The 30px column caps at four characters, so the long cell shrinks.
	if !strings.Contains(lines[4], "a...") {
		t.Errorf("expected truncated cell in narrow column, got %q", lines[4])
	}
}

func TestGridColumnCap(t *testing.T) {
	cases := []struct {
		width int
		want  int
	}{
		{width: 10, want: 4},
		{width: 30, want: 4},
		{width: 150, want: 15},
		{width: 500, want: 50},
		{width: 2000, want: 50},
	}
	for _, tc := range cases {
		if got := gridColumnCap(tc.width); got != tc.want {
			t.Errorf("gridColumnCap(%d) = %d, expected %d", tc.width, got, tc.want)
		}
	}
}

func TestFormatVersionTable(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	user := session.User{ID: "u1", Username: "ana"}
	versions := []page.Version{
		{ID: "v2", PageSlug: "roadmap", Timestamp: now.Add(-30 * time.Second), User: &user, CommitMessage: "Add beta row"},
		{ID: "v1", PageSlug: "roadmap", Timestamp: now.Add(-2 * time.Hour)},
	}

	output := formatVersionTable(versions, now)

	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected a header and two rows, got %d lines:\n%s", len(lines), output)
	}
	if !strings.HasPrefix(lines[0], "WHEN") {
		t.Errorf("expected header to start with WHEN, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "30s ago") || !strings.Contains(lines[1], "Add beta row") {
		t.Errorf("expected first version row, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "2h ago") {
		t.Errorf("expected second version age, got %q", lines[2])
	}
	// A missing user and an empty message both render as dashes.
	if strings.Count(lines[2], "-") < 2 {
		t.Errorf("expected dashes for missing user and message, got %q", lines[2])
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stdout: %v", err)
	}
	defer func() {
		os.Stdout = old
		_ = r.Close()
	}()

	os.Stdout = w
	fn()
	_ = w.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("read stdout: %v", err)
	}

	return buf.String()
}
