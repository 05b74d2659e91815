package todo

import (
	"context"
	"fmt"
	"sync"

	"sheetctl/notify"
	"sheetctl/page"
)

// Item is one combined overlay row: source-page content plus todo status.
type Item struct {
	RowID  string
	Order  int
	Cells  []string
	Status Status
}

// Gateway is the slice of the remote API the overlay needs.
type Gateway interface {
	// GetTodo fetches a todo with its status entries.
	GetTodo(ctx context.Context, id string) (*Detail, error)
	// GetPageData fetches the todo's source page.
	GetPageData(ctx context.Context, slug string) (*page.Data, error)
	// UpdateTodoStatus changes one row's status and returns the stored entry.
	UpdateTodoStatus(ctx context.Context, todoID, rowID string, status Status) (*StatusEntry, error)
}

// Overlay merges a todo's statuses onto its source page's rows.
//
// The page's rows and order are authoritative for content; the todo's
// entries are authoritative for status. Rows without an entry show as not
// started, and entries whose row left the page are dropped. SetStatus
// applies optimistically and restores the previous status when the server
// rejects the change. Methods are safe for concurrent use.
type Overlay struct {
	mu      sync.Mutex
	gateway Gateway
	feed    *notify.Feed
	todoID  string
	detail  *Detail
	columns []page.Column
	items   []Item
	pending map[string]bool
}

// NewOverlay creates an overlay for the todo with the given ID.
func NewOverlay(gateway Gateway, feed *notify.Feed, todoID string) *Overlay {
	return &Overlay{
		gateway: gateway,
		feed:    feed,
		todoID:  todoID,
		pending: make(map[string]bool),
	}
}

// TodoID returns the todo ID this overlay is bound to.
func (o *Overlay) TodoID() string {
	return o.todoID
}

// Load fetches the todo and its source page and rebuilds the combined rows.
func (o *Overlay) Load(ctx context.Context) error {
	detail, err := o.gateway.GetTodo(ctx, o.todoID)
	if err != nil {
		return fmt.Errorf("load todo %s: %w", o.todoID, err)
	}
	data, err := o.gateway.GetPageData(ctx, detail.SourcePage.Slug)
	if err != nil {
		return fmt.Errorf("load source page %s: %w", detail.SourcePage.Slug, err)
	}

	byRow := make(map[string]StatusEntry, len(detail.Statuses))
	for _, entry := range detail.Statuses {
		byRow[entry.RowID] = entry
	}

	items := make([]Item, len(data.Rows))
	liveRows := make(map[string]bool, len(data.Rows))
	for i, row := range data.Rows {
		liveRows[row.ID] = true
		status := StatusNotStarted
		if entry, ok := byRow[row.ID]; ok && entry.Status.IsValid() {
			status = entry.Status
		}
		cells := make([]string, len(row.Cells))
		copy(cells, row.Cells)
		items[i] = Item{RowID: row.ID, Order: row.Order, Cells: cells, Status: status}
	}

	kept := make([]StatusEntry, 0, len(detail.Statuses))
	for _, entry := range detail.Statuses {
		if liveRows[entry.RowID] {
			kept = append(kept, entry)
		}
	}
	detail.Statuses = kept

	columns := make([]page.Column, len(data.Columns))
	copy(columns, data.Columns)

	o.mu.Lock()
	o.detail = detail
	o.columns = columns
	o.items = items
	o.mu.Unlock()
	return nil
}

// SetStatus changes one row's status. The change shows immediately; if the
// server rejects it, that row (and only that row) snaps back to its previous
// status. A second change for the same row while one is in flight is
// rejected.
func (o *Overlay) SetStatus(ctx context.Context, rowID string, status Status) error {
	if !status.IsValid() {
		return formatInvalidStatusError(status)
	}

	o.mu.Lock()
	if o.detail == nil {
		o.mu.Unlock()
		return ErrNotLoaded
	}
	idx := o.itemIndexLocked(rowID)
	if idx < 0 {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownRow, rowID)
	}
	if o.pending[rowID] {
		o.mu.Unlock()
		return ErrPending
	}
	previous := o.items[idx].Status
	if previous == status {
		o.mu.Unlock()
		return nil
	}
	o.items[idx].Status = status
	o.pending[rowID] = true
	o.mu.Unlock()

	entry, err := o.gateway.UpdateTodoStatus(ctx, o.todoID, rowID, status)

	o.mu.Lock()
	delete(o.pending, rowID)
	if err != nil {
		if i := o.itemIndexLocked(rowID); i >= 0 {
			o.items[i].Status = previous
		}
		o.mu.Unlock()
		o.notifyError("Status change failed: %v", err)
		return fmt.Errorf("set status for row %s: %w", rowID, err)
	}
	if entry != nil {
		if i := o.itemIndexLocked(rowID); i >= 0 {
			o.items[i].Status = entry.Status
		}
		o.upsertEntryLocked(*entry)
	}
	o.mu.Unlock()
	return nil
}

// CycleStatus advances a row to the next status in the cycle and returns the
// status it moved to.
func (o *Overlay) CycleStatus(ctx context.Context, rowID string) (Status, error) {
	o.mu.Lock()
	if o.detail == nil {
		o.mu.Unlock()
		return "", ErrNotLoaded
	}
	idx := o.itemIndexLocked(rowID)
	if idx < 0 {
		o.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrUnknownRow, rowID)
	}
	next := o.items[idx].Status.Next()
	o.mu.Unlock()

	return next, o.SetStatus(ctx, rowID, next)
}

// Detail returns the loaded todo, or nil before Load. Treat the result as
// read-only.
func (o *Overlay) Detail() *Detail {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.detail
}

// Columns returns the source page's columns.
func (o *Overlay) Columns() []page.Column {
	o.mu.Lock()
	defer o.mu.Unlock()
	columns := make([]page.Column, len(o.columns))
	copy(columns, o.columns)
	return columns
}

// Items returns the combined rows in page order. Cell slices are shared;
// treat them as read-only.
func (o *Overlay) Items() []Item {
	o.mu.Lock()
	defer o.mu.Unlock()
	items := make([]Item, len(o.items))
	copy(items, o.items)
	return items
}

// Item returns the combined row with the given ID.
func (o *Overlay) Item(rowID string) (Item, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if idx := o.itemIndexLocked(rowID); idx >= 0 {
		return o.items[idx], true
	}
	return Item{}, false
}

// Progress returns how many rows are completed out of the total.
func (o *Overlay) Progress() (done, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, item := range o.items {
		if item.Status == StatusCompleted {
			done++
		}
	}
	return done, len(o.items)
}

func (o *Overlay) itemIndexLocked(rowID string) int {
	for i, item := range o.items {
		if item.RowID == rowID {
			return i
		}
	}
	return -1
}

func (o *Overlay) upsertEntryLocked(entry StatusEntry) {
	for i, existing := range o.detail.Statuses {
		if existing.RowID == entry.RowID {
			o.detail.Statuses[i] = entry
			return
		}
	}
	o.detail.Statuses = append(o.detail.Statuses, entry)
}

func (o *Overlay) notifyError(format string, args ...any) {
	if o.feed != nil {
		o.feed.Errorf(format, args...)
	}
}
