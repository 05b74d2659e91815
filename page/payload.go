package page

import (
	"encoding/json"
	"time"

	"sheetctl/session"
)

// SaveColumn is one column in a save payload. A nil ID marks a column the
// client created; the server assigns its identity.
type SaveColumn struct {
	ID    *string `json:"id"`
	Name  string  `json:"name"`
	Order int     `json:"order"`
	Width int     `json:"width"`
}

// SaveRow is one row in a save payload. A nil ID marks a new row.
type SaveRow struct {
	ID    *string  `json:"id"`
	Order int      `json:"order"`
	Cells []string `json:"cells"`
}

// SavePayload is the full-grid replacement document posted on save. The
// server validates it as a whole: dense orders, unique column names, and one
// cell per column in every row.
type SavePayload struct {
	Columns       []SaveColumn `json:"columns"`
	Rows          []SaveRow    `json:"rows"`
	CommitMessage string       `json:"commit_message,omitempty"`
}

// WidthUpdate adjusts one column's width outside the save flow.
type WidthUpdate struct {
	ID    string `json:"id"`
	Width int    `json:"width"`
}

// Version is one historical snapshot of a page, created on every save.
type Version struct {
	ID            string          `json:"id"`
	PageSlug      string          `json:"page_slug"`
	User          *session.User   `json:"user"`
	Timestamp     time.Time       `json:"timestamp"`
	CommitMessage string          `json:"commit_message"`
	DataSnapshot  json.RawMessage `json:"data_snapshot"`
}

// BuildSavePayload converts a grid into the save document. Empty IDs become
// null so the server creates those rows and columns; cell slices are copied,
// so later buffer edits cannot leak into an in-flight payload.
func BuildSavePayload(d *Data, commitMessage string) SavePayload {
	payload := SavePayload{
		Columns:       make([]SaveColumn, len(d.Columns)),
		Rows:          make([]SaveRow, len(d.Rows)),
		CommitMessage: commitMessage,
	}
	for i, column := range d.Columns {
		payload.Columns[i] = SaveColumn{
			ID:    optionalID(column.ID),
			Name:  column.Name,
			Order: column.Order,
			Width: column.Width,
		}
	}
	for i, row := range d.Rows {
		cells := make([]string, len(row.Cells))
		copy(cells, row.Cells)
		payload.Rows[i] = SaveRow{
			ID:    optionalID(row.ID),
			Order: row.Order,
			Cells: cells,
		}
	}
	return payload
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
