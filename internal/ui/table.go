package ui

import (
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

const tableCellMaxWidth = 50
const tableCellEllipsis = "..."

// tableViewportWidth reports the terminal width tables render into.
// Overridden in tests.
var tableViewportWidth = func() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 0
	}
	return width
}

// TableBuilder accumulates rows for an aligned table.
type TableBuilder struct {
	headers []string
	rows    [][]string
}

// NewTableBuilder returns a builder sized for the expected row count.
func NewTableBuilder(headers []string, capacity int) *TableBuilder {
	return &TableBuilder{headers: headers, rows: make([][]string, 0, capacity)}
}

// AddRow appends one row.
func (builder *TableBuilder) AddRow(row []string) {
	builder.rows = append(builder.rows, row)
}

// String renders the accumulated table.
func (builder *TableBuilder) String() string {
	return FormatTable(builder.headers, builder.rows)
}

// FormatTable renders headers and rows as an aligned table. Every line
// pads to the table width and clips to the terminal viewport.
func FormatTable(headers []string, rows [][]string) string {
	headers = normalizeRow(headers)
	normalized := make([][]string, 0, len(rows))
	for _, row := range rows {
		normalized = append(normalized, normalizeRow(row))
	}

	widths := columnWidths(headers, normalized)
	target := tableTargetWidth(widths)

	var out strings.Builder
	out.WriteString(renderLine(headers, widths, target))
	for _, row := range normalized {
		out.WriteString(renderLine(row, widths, target))
	}
	return out.String()
}

func normalizeRow(row []string) []string {
	normalized := make([]string, len(row))
	for i, cell := range row {
		normalized[i] = normalizeTableCell(cell)
	}
	return normalized
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if width := displayWidth(cell); width > widths[i] {
				widths[i] = width
			}
		}
	}
	return widths
}

func tableTargetWidth(widths []int) int {
	target := 0
	for i, width := range widths {
		target += width
		if i < len(widths)-1 {
			target += 2
		}
	}
	if viewport := tableViewportWidth(); viewport > 0 && viewport < target {
		return viewport
	}
	return target
}

func renderLine(row []string, widths []int, target int) string {
	var line strings.Builder
	for i, cell := range row {
		line.WriteString(cell)
		if i == len(row)-1 {
			break
		}
		line.WriteString(strings.Repeat(" ", widths[i]-displayWidth(cell)+2))
	}

	rendered := line.String()
	switch width := displayWidth(rendered); {
	case width < target:
		rendered += strings.Repeat(" ", target-width)
	case width > target:
		rendered = truncateVisible(rendered, target)
	}
	return rendered + "\n"
}

// FormatGrid renders a table whose columns are capped at the given display
// widths. A zero cap leaves that column unbounded.
func FormatGrid(headers []string, rows [][]string, caps []int) string {
	capAt := func(i int) int {
		if i < len(caps) {
			return caps[i]
		}
		return 0
	}

	cappedHeaders := make([]string, len(headers))
	for i, header := range headers {
		cappedHeaders[i] = truncateCellTo(header, capAt(i))
	}
	cappedRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		cappedRow := make([]string, len(row))
		for i, cell := range row {
			cappedRow[i] = truncateCellTo(cell, capAt(i))
		}
		cappedRows = append(cappedRows, cappedRow)
	}

	return FormatTable(cappedHeaders, cappedRows)
}

// TruncateTableCell limits cell width while preserving visible characters.
func TruncateTableCell(value string) string {
	return truncateCellTo(value, tableCellMaxWidth)
}

func truncateCellTo(value string, max int) string {
	value = normalizeTableCell(value)
	if max <= 0 || displayWidth(value) <= max {
		return value
	}

	visible := max - displayWidth(tableCellEllipsis)
	if visible <= 0 {
		return tableCellEllipsis
	}
	return truncateVisible(value, visible) + tableCellEllipsis
}

func displayWidth(value string) int {
	return utf8.RuneCountInString(stripANSICodes(value))
}

func normalizeTableCell(value string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(value)
}

// ansiSeqEnd returns the index just past the SGR sequence starting at i,
// or i when no sequence starts there.
func ansiSeqEnd(value string, i int) int {
	if i+1 >= len(value) || value[i] != '\x1b' || value[i+1] != '[' {
		return i
	}
	j := i + 2
	for j < len(value) && value[j] != 'm' {
		j++
	}
	if j < len(value) {
		j++
	}
	return j
}

// truncateVisible cuts value to max printable runes. Escape sequences
// pass through uncounted so styled cells keep their styling.
func truncateVisible(value string, max int) string {
	if max <= 0 {
		return ""
	}

	var out strings.Builder
	visible := 0
	for i := 0; i < len(value); {
		if j := ansiSeqEnd(value, i); j > i {
			out.WriteString(value[i:j])
			i = j
			continue
		}
		if visible >= max {
			break
		}
		r, size := utf8.DecodeRuneInString(value[i:])
		if r == utf8.RuneError && size == 1 {
			out.WriteByte(value[i])
		} else {
			out.WriteRune(r)
		}
		visible++
		i += size
	}
	return out.String()
}

func stripANSICodes(value string) string {
	var out strings.Builder
	for i := 0; i < len(value); {
		if j := ansiSeqEnd(value, i); j > i {
			i = j
			continue
		}
		out.WriteByte(value[i])
		i++
	}
	return out.String()
}
