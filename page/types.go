// Package page models sheet pages and the edit lifecycle around them.
//
// A page is a small spreadsheet: named columns in a fixed order and rows of
// positional cells, where cell index i belongs to the column with order i+1.
// The server is the source of truth; the Editor wraps one page in a
// view/edit/save state machine that edits a deep copy and only swaps the
// canonical data after the server accepts a save.
package page

import (
	"time"

	"sheetctl/session"
)

// Default and boundary values for column geometry.
const (
	DefaultColumnWidth  = 150
	MinColumnWidth      = 10
	MaxColumnWidth      = 2000
	MaxColumnNameLength = 100
)

// MaxNameLength bounds page display names.
const MaxNameLength = 255

// Column describes one column of a page.
type Column struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
	Width int    `json:"width"`
}

// Row is one row of positional cell values.
type Row struct {
	ID    string   `json:"id"`
	Order int      `json:"order"`
	Cells []string `json:"cells"`
}

// Data is the full grid for one page, as served by the data endpoint.
type Data struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Slug    string       `json:"slug"`
	Owner   session.User `json:"owner"`
	Columns []Column     `json:"columns"`
	Rows    []Row        `json:"rows"`
}

// Info is the page metadata returned by list and detail endpoints.
type Info struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Slug      string       `json:"slug"`
	Owner     session.User `json:"owner"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Clone returns a deep copy of the row. The cell slice shares no backing
// array with the receiver.
func (r Row) Clone() Row {
	clone := r
	clone.Cells = make([]string, len(r.Cells))
	copy(clone.Cells, r.Cells)
	return clone
}

// Clone returns a deep copy of the data. Mutating the copy never affects the
// receiver.
func (d *Data) Clone() *Data {
	if d == nil {
		return nil
	}
	clone := *d
	clone.Columns = make([]Column, len(d.Columns))
	copy(clone.Columns, d.Columns)
	clone.Rows = make([]Row, len(d.Rows))
	for i, row := range d.Rows {
		clone.Rows[i] = row.Clone()
	}
	return &clone
}

// Equal reports whether two grids hold identical content.
func (d *Data) Equal(other *Data) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.ID != other.ID || d.Name != other.Name || d.Slug != other.Slug || d.Owner != other.Owner {
		return false
	}
	if len(d.Columns) != len(other.Columns) || len(d.Rows) != len(other.Rows) {
		return false
	}
	for i, column := range d.Columns {
		if column != other.Columns[i] {
			return false
		}
	}
	for i, row := range d.Rows {
		if !row.equal(other.Rows[i]) {
			return false
		}
	}
	return true
}

func (r Row) equal(other Row) bool {
	if r.ID != other.ID || r.Order != other.Order || len(r.Cells) != len(other.Cells) {
		return false
	}
	for i, cell := range r.Cells {
		if cell != other.Cells[i] {
			return false
		}
	}
	return true
}

// Cell returns the value at the given row and column index, or the empty
// string when either index is out of range. Rendering code uses this to stay
// robust against ragged data.
func (d *Data) Cell(row, col int) string {
	if d == nil || row < 0 || row >= len(d.Rows) {
		return ""
	}
	cells := d.Rows[row].Cells
	if col < 0 || col >= len(cells) {
		return ""
	}
	return cells[col]
}
