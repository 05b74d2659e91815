package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"sheetctl/internal/ui"
	"sheetctl/page"
)

// Grid column caps derived from stored pixel widths, at roughly ten
// pixels per character.
const (
	gridPixelsPerChar = 10
	gridMinColumnCap  = 4
	gridMaxColumnCap  = 50
)

// printPageTable prints pages in a table format.
func printPageTable(pages []page.Info, now time.Time) {
	if len(pages) == 0 {
		fmt.Println("No pages found.")
		return
	}
	fmt.Print(formatPageTable(pages, now))
}

func formatPageTable(pages []page.Info, now time.Time) string {
	builder := ui.NewTableBuilder([]string{"NAME", "SLUG", "OWNER", "UPDATED"}, len(pages))
	for _, info := range pages {
		builder.AddRow([]string{
			ui.TruncateTableCell(info.Name),
			info.Slug,
			info.Owner.Username,
			ui.FormatTimeAgo(info.UpdatedAt, now),
		})
	}
	return builder.String()
}

// formatPageDetail renders the page header followed by its grid.
func formatPageDetail(data *page.Data) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "%s (%s)\n", data.Name, data.Slug)
	fmt.Fprintf(&builder, "Owner: %s\n\n", data.Owner.Username)
	builder.WriteString(formatGridTable(data))
	return builder.String()
}

// formatGridTable renders the grid with a leading row-number column.
func formatGridTable(data *page.Data) string {
	headers := make([]string, 0, len(data.Columns)+1)
	caps := make([]int, 0, len(data.Columns)+1)
	headers = append(headers, "#")
	caps = append(caps, 0)
	for _, column := range data.Columns {
		headers = append(headers, column.Name)
		caps = append(caps, gridColumnCap(column.Width))
	}

	rows := make([][]string, 0, len(data.Rows))
	for i, row := range data.Rows {
		cells := make([]string, 0, len(row.Cells)+1)
		cells = append(cells, strconv.Itoa(i+1))
		cells = append(cells, row.Cells...)
		rows = append(rows, cells)
	}
	return ui.FormatGrid(headers, rows, caps)
}

func gridColumnCap(width int) int {
	chars := width / gridPixelsPerChar
	if chars < gridMinColumnCap {
		return gridMinColumnCap
	}
	if chars > gridMaxColumnCap {
		return gridMaxColumnCap
	}
	return chars
}

// printVersionTable prints a page's version history.
func printVersionTable(versions []page.Version, now time.Time) {
	if len(versions) == 0 {
		fmt.Println("No versions found.")
		return
	}
	fmt.Print(formatVersionTable(versions, now))
}

func formatVersionTable(versions []page.Version, now time.Time) string {
	builder := ui.NewTableBuilder([]string{"WHEN", "USER", "MESSAGE"}, len(versions))
	for _, version := range versions {
		user := "-"
		if version.User != nil {
			user = version.User.Username
		}
		message := version.CommitMessage
		if message == "" {
			message = "-"
		}
		builder.AddRow([]string{
			ui.FormatTimeAgo(version.Timestamp, now),
			user,
			ui.TruncateTableCell(message),
		})
	}
	return builder.String()
}
