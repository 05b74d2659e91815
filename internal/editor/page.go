package editor

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/BurntSushi/toml"

	"sheetctl/page"
)

// PageData represents the data used to render the TOML document.
type PageData struct {
	// Name is the page name, shown in the document header.
	Name string
	// Slug is the page slug, shown in the document header.
	Slug string
	// Columns are the grid columns in display order.
	Columns []ColumnData
	// Rows are the grid rows in display order.
	Rows []RowData
}

// ColumnData is one column table in the document.
type ColumnData struct {
	ID    string
	Name  string
	Width int
}

// RowData is one row table in the document.
type RowData struct {
	ID    string
	Cells []string
}

// DataFromPage converts a grid into document data for editing.
func DataFromPage(d *page.Data) PageData {
	data := PageData{
		Name:    d.Name,
		Slug:    d.Slug,
		Columns: make([]ColumnData, len(d.Columns)),
		Rows:    make([]RowData, len(d.Rows)),
	}
	for i, column := range d.Columns {
		data.Columns[i] = ColumnData{
			ID:    column.ID,
			Name:  column.Name,
			Width: column.Width,
		}
	}
	for i, row := range d.Rows {
		data.Rows[i] = RowData{
			ID:    row.ID,
			Cells: row.Cells,
		}
	}
	return data
}

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"cellList": func(cells []string) string {
		quoted := make([]string, len(cells))
		for i, cell := range cells {
			quoted[i] = fmt.Sprintf("%q", cell)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	},
}).Parse(`# {{ .Name }} ({{ .Slug }})
#
# Tables are saved top to bottom: the first [[columns]] table becomes
# column 1 and the first [[rows]] table becomes row 1. Leave out id to
# create a column or row; delete a table to delete it. Every row needs
# one cell per column, and width runs 10-2000.

{{ range .Columns -}}
[[columns]]
{{ if .ID }}id = {{ printf "%q" .ID }}
{{ end -}}
name = {{ printf "%q" .Name }}
width = {{ .Width }}

{{ end -}}
{{ range .Rows -}}
[[rows]]
{{ if .ID }}id = {{ printf "%q" .ID }}
{{ end -}}
cells = {{ cellList .Cells }}

{{ end -}}
`))

// RenderPageTOML renders the page data as a TOML document for editing.
func RenderPageTOML(data PageData) (string, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}

// ParsedPage is the grid parsed back from an edited document.
type ParsedPage struct {
	Columns []ParsedColumn `toml:"columns"`
	Rows    []ParsedRow    `toml:"rows"`
}

// ParsedColumn is one parsed column table. An empty ID marks a column
// the user added.
type ParsedColumn struct {
	ID    string `toml:"id"`
	Name  string `toml:"name"`
	Width int    `toml:"width"`
}

// ParsedRow is one parsed row table. An empty ID marks a new row.
type ParsedRow struct {
	ID    string   `toml:"id"`
	Cells []string `toml:"cells"`
}

// ParsePageTOML parses the TOML content from the editor. Column names are
// trimmed and a missing width falls back to the default.
func ParsePageTOML(content string) (*ParsedPage, error) {
	var parsed ParsedPage
	if _, err := toml.Decode(content, &parsed); err != nil {
		return nil, fmt.Errorf("parse TOML: %w", err)
	}
	for i := range parsed.Columns {
		parsed.Columns[i].Name = strings.TrimSpace(parsed.Columns[i].Name)
		if parsed.Columns[i].Width == 0 {
			parsed.Columns[i].Width = page.DefaultColumnWidth
		}
	}

	if err := parsed.validate(); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (p *ParsedPage) validate() error {
	if len(p.Columns) == 0 {
		return page.ErrLastColumn
	}
	seen := make(map[string]int, len(p.Columns))
	for i, column := range p.Columns {
		if column.Name == "" {
			return fmt.Errorf("%w: column %d has no name", page.ErrColumnName, i+1)
		}
		if utf8.RuneCountInString(column.Name) > page.MaxColumnNameLength {
			return fmt.Errorf("%w: column %d exceeds %d characters", page.ErrColumnName, i+1, page.MaxColumnNameLength)
		}
		key := strings.ToLower(column.Name)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%w: columns %d and %d are both named %q", page.ErrColumnName, prev+1, i+1, column.Name)
		}
		seen[key] = i
		if column.Width < page.MinColumnWidth || column.Width > page.MaxColumnWidth {
			return fmt.Errorf("%w: column %d has width %d (valid: %d-%d)",
				page.ErrColumnWidth, i+1, column.Width, page.MinColumnWidth, page.MaxColumnWidth)
		}
	}
	for i, row := range p.Rows {
		if len(row.Cells) != len(p.Columns) {
			return fmt.Errorf("%w: row %d has %d cells for %d columns",
				page.ErrCellCount, i+1, len(row.Cells), len(p.Columns))
		}
	}
	return nil
}

// ToColumns converts the parsed tables into grid columns, ordered by
// document position.
func (p *ParsedPage) ToColumns() []page.Column {
	columns := make([]page.Column, len(p.Columns))
	for i, column := range p.Columns {
		columns[i] = page.Column{
			ID:    column.ID,
			Name:  column.Name,
			Order: i + 1,
			Width: column.Width,
		}
	}
	return columns
}

// ToRows converts the parsed tables into grid rows, ordered by document
// position.
func (p *ParsedPage) ToRows() []page.Row {
	rows := make([]page.Row, len(p.Rows))
	for i, row := range p.Rows {
		cells := make([]string, len(row.Cells))
		copy(cells, row.Cells)
		rows[i] = page.Row{
			ID:    row.ID,
			Order: i + 1,
			Cells: cells,
		}
	}
	return rows
}

// EditPage renders the grid as a TOML document, opens it in the editor,
// and parses the result.
func EditPage(d *page.Data) (*ParsedPage, error) {
	content, err := RenderPageTOML(DataFromPage(d))
	if err != nil {
		return nil, err
	}
	edited, err := RoundTrip("sheetctl-page-*.toml", content)
	if err != nil {
		return nil, err
	}
	return ParsePageTOML(edited)
}
