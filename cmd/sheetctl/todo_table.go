package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"sheetctl/internal/ui"
	"sheetctl/page"
	"sheetctl/todo"
)

func printTodoTable(todos []todo.Todo, now time.Time) {
	if len(todos) == 0 {
		fmt.Println("No todos found.")
		return
	}
	fmt.Print(formatTodoTable(todos, nil, ui.HighlightID, now))
}

// formatTodoTable highlights each id's unique prefix, which is the shortest
// argument `todo show` accepts for it.
func formatTodoTable(todos []todo.Todo, prefixLengths map[string]int, highlight func(string, int) string, now time.Time) string {
	if prefixLengths == nil {
		prefixLengths = todoIDPrefixLengths(todos)
	}

	builder := ui.NewTableBuilder([]string{"ID", "NAME", "SLUG", "PAGE", "VISIBILITY", "CREATED"}, len(todos))
	for _, item := range todos {
		builder.AddRow([]string{
			highlight(item.ID, ui.PrefixLength(prefixLengths, item.ID)),
			ui.TruncateTableCell(item.Name),
			item.Slug,
			item.SourcePageSlug,
			todoVisibility(item.IsPersonal),
			ui.FormatTimeAgo(item.CreatedAt, now),
		})
	}
	return builder.String()
}

func todoIDPrefixLengths(todos []todo.Todo) map[string]int {
	ids := make([]string, 0, len(todos))
	for _, item := range todos {
		ids = append(ids, item.ID)
	}
	return ui.UniqueIDPrefixLengths(ids)
}

func formatTodoDetail(overlay *todo.Overlay) string {
	detail := overlay.Detail()
	done, total := overlay.Progress()

	var builder strings.Builder
	fmt.Fprintf(&builder, "%s (%s)\n", detail.Name, detail.Slug)
	fmt.Fprintf(&builder, "Page: %s\n", detail.SourcePage.Name)
	fmt.Fprintf(&builder, "Creator: %s\n", detail.Creator.Username)
	fmt.Fprintf(&builder, "Visibility: %s\n", todoVisibility(detail.IsPersonal))
	fmt.Fprintf(&builder, "Progress: %d/%d done\n\n", done, total)
	builder.WriteString(formatOverlayTable(overlay.Columns(), overlay.Items()))
	return builder.String()
}

func formatOverlayTable(columns []page.Column, items []todo.Item) string {
	headers := make([]string, 0, len(columns)+2)
	caps := make([]int, 0, len(columns)+2)
	headers = append(headers, "#", "STATUS")
	caps = append(caps, 0, 0)
	for _, column := range columns {
		headers = append(headers, column.Name)
		caps = append(caps, gridColumnCap(column.Width))
	}

	rows := make([][]string, 0, len(items))
	for i, item := range items {
		cells := make([]string, 0, len(item.Cells)+2)
		cells = append(cells, strconv.Itoa(i+1), item.Status.Label())
		cells = append(cells, item.Cells...)
		rows = append(rows, cells)
	}
	return ui.FormatGrid(headers, rows, caps)
}

func todoVisibility(personal bool) string {
	if personal {
		return "personal"
	}
	return "shared"
}
