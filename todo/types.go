// Package todo implements checklists derived from pages.
//
// A todo points at a source page. Each page row gets a status entry, and the
// Overlay merges the page's rows with those statuses into one combined list:
// the page stays the source of truth for content and order, the todo for
// per-row progress. Status changes apply optimistically and roll back when
// the server rejects them.
package todo

import (
	"strings"
	"time"

	"sheetctl/page"
	"sheetctl/session"
)

// MaxNameLength bounds todo display names.
const MaxNameLength = 255

// Status is the progress of one row within a todo.
type Status string

const (
	// StatusNotStarted is the initial status of every row.
	StatusNotStarted Status = "NOT_STARTED"

	// StatusInProgress marks a row as being worked on.
	StatusInProgress Status = "IN_PROGRESS"

	// StatusCompleted marks a row as finished.
	StatusCompleted Status = "COMPLETED"
)

// ValidStatuses returns all valid status values in cycle order.
func ValidStatuses() []Status {
	return []Status{StatusNotStarted, StatusInProgress, StatusCompleted}
}

// IsValid returns true if the status is a known valid value.
func (s Status) IsValid() bool {
	for _, valid := range ValidStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// Label returns the human-readable form of the status.
func (s Status) Label() string {
	switch s {
	case StatusNotStarted:
		return "not started"
	case StatusInProgress:
		return "in progress"
	case StatusCompleted:
		return "completed"
	default:
		return strings.ToLower(string(s))
	}
}

// Next returns the following status in the cycle, wrapping from completed
// back to not started.
func (s Status) Next() Status {
	switch s {
	case StatusNotStarted:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	default:
		return StatusNotStarted
	}
}

// ParseStatus accepts wire values and labels in any case, with spaces or
// hyphens for underscores.
func ParseStatus(raw string) (Status, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	status := Status(normalized)
	if !status.IsValid() {
		return "", formatInvalidStatusError(Status(raw))
	}
	return status, nil
}

// Todo is the list representation of a checklist. Source-page fields are
// flattened here; Detail carries the full page info.
type Todo struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Slug           string       `json:"slug"`
	SourcePageSlug string       `json:"source_page_slug"`
	SourcePageName string       `json:"source_page_name"`
	Creator        session.User `json:"creator"`
	IsPersonal     bool         `json:"is_personal"`
	CreatedAt      time.Time    `json:"created_at"`
}

// StatusEntry is the stored status for one source-page row.
type StatusEntry struct {
	ID        string    `json:"id"`
	RowID     string    `json:"row_id"`
	RowOrder  int       `json:"row_order"`
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Detail is a todo with its source page and status entries.
type Detail struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Slug       string        `json:"slug"`
	SourcePage page.Info     `json:"source_page"`
	Creator    session.User  `json:"creator"`
	IsPersonal bool          `json:"is_personal"`
	Statuses   []StatusEntry `json:"statuses"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// CreateInput carries the fields for creating a todo.
type CreateInput struct {
	Name       string `json:"name"`
	PageSlug   string `json:"source_page_slug"`
	IsPersonal bool   `json:"is_personal"`
}
