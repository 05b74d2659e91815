package main

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"sheetctl/page"
	"sheetctl/session"
	"sheetctl/todo"
)

func TestFormatTodoTable(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	todos := []todo.Todo{
		{
			ID:             "t1",
			Name:           "Launch",
			Slug:           "launch",
			SourcePageSlug: "roadmap",
			Creator:        session.User{ID: "u1", Username: "ana"},
			CreatedAt:      now.Add(-45 * time.Minute),
		},
		{
			ID:             "t2",
			Name:           "Secrets",
			Slug:           "secrets",
			SourcePageSlug: "roadmap",
			Creator:        session.User{ID: "u1", Username: "ana"},
			IsPersonal:     true,
			CreatedAt:      now.Add(-2 * 24 * time.Hour),
		},
	}

	output := formatTodoTable(todos, nil, func(id string, prefix int) string { return id }, now)

	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected a header and two rows, got %d lines:\n%s", len(lines), output)
	}
	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[0], "VISIBILITY") {
		t.Errorf("expected header with ID and VISIBILITY, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "t1") || !strings.Contains(lines[1], "launch") || !strings.Contains(lines[1], "shared") || !strings.Contains(lines[1], "45m ago") {
		t.Errorf("expected shared todo row, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "t2") || !strings.Contains(lines[2], "secrets") || !strings.Contains(lines[2], "personal") || !strings.Contains(lines[2], "2d ago") {
		t.Errorf("expected personal todo row, got %q", lines[2])
	}
}

func TestFormatTodoTableUsesProvidedPrefixLengths(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	todos := []todo.Todo{
		{
			ID:             "t1234567",
			Name:           "Only listed",
			Slug:           "only-listed",
			SourcePageSlug: "roadmap",
			CreatedAt:      now,
		},
	}

	prefixLengths := map[string]int{"t1234567": 2}
	output := formatTodoTable(todos, prefixLengths, func(id string, prefix int) string {
		return fmt.Sprintf("%s:%d", id, prefix)
	}, now)

	if !strings.Contains(output, "t1234567:2") {
		t.Fatalf("expected table to use provided prefix length, got:\n%s", output)
	}
}

func TestFormatTodoTableAlignsWithANSI(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	todos := []todo.Todo{
		{
			ID:             "abc123",
			Name:           "First",
			Slug:           "first",
			SourcePageSlug: "roadmap",
			CreatedAt:      now,
		},
		{
			ID:             "abd456",
			Name:           "Second",
			Slug:           "second",
			SourcePageSlug: "roadmap",
			IsPersonal:     true,
			CreatedAt:      now,
		},
	}

	plain := formatTodoTable(todos, nil, func(id string, prefix int) string { return id }, now)
	ansi := formatTodoTable(todos, nil, func(id string, prefix int) string {
		if prefix <= 0 || prefix > len(id) {
			return id
		}
		return "\x1b[1m\x1b[36m" + id[:prefix] + "\x1b[0m" + id[prefix:]
	}, now)

	if stripANSICodes(ansi) != plain {
		t.Fatalf("expected ANSI output to align with plain output\nplain:\n%s\nansi:\n%s", plain, ansi)
	}
}

func TestPrintTodoTableEmpty(t *testing.T) {
	output := captureStdout(t, func() {
		printTodoTable(nil, time.Now())
	})
	if output != "No todos found.\n" {
		t.Fatalf("expected empty-list message, got %q", output)
	}
}

func TestFormatOverlayTable(t *testing.T) {
	columns := []page.Column{
		{ID: "c1", Name: "Task", Order: 1, Width: 150},
		{ID: "c2", Name: "Who", Order: 2, Width: 150},
	}
	items := []todo.Item{
		{RowID: "r1", Order: 1, Cells: []string{"Design review", "ana"}, Status: todo.StatusCompleted},
		{RowID: "r2", Order: 2, Cells: []string{"Ship beta", "bo"}, Status: todo.StatusNotStarted},
	}

	output := formatOverlayTable(columns, items)

	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected a header and two rows, got %d lines:\n%s", len(lines), output)
	}
	if !strings.HasPrefix(lines[0], "#") || !strings.Contains(lines[0], "STATUS") || !strings.Contains(lines[0], "Task") {
		t.Errorf("expected grid header, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "1") || !strings.Contains(lines[1], "completed") || !strings.Contains(lines[1], "Design review") {
		t.Errorf("expected first overlay row, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "2") || !strings.Contains(lines[2], "not started") || !strings.Contains(lines[2], "Ship beta") {
		t.Errorf("expected second overlay row, got %q", lines[2])
	}
}

func TestTodoVisibility(t *testing.T) {
	if got := todoVisibility(true); got != "personal" {
		t.Errorf("expected personal, got %q", got)
	}
	if got := todoVisibility(false); got != "shared" {
		t.Errorf("expected shared, got %q", got)
	}
}
