package page

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"sheetctl/notify"
)

// Phase is the editor's position in the view/edit/save cycle.
type Phase string

const (
	// PhaseView shows canonical server data with no open edits.
	PhaseView Phase = "view"

	// PhaseEditing holds local mutations in the edit buffer.
	PhaseEditing Phase = "editing"

	// PhaseSaving has a save in flight; the buffer is frozen.
	PhaseSaving Phase = "saving"
)

// Gateway is the slice of the remote API the editor needs.
type Gateway interface {
	// GetPageData fetches the canonical grid for a page.
	GetPageData(ctx context.Context, slug string) (*Data, error)
	// SavePage posts a full-grid replacement.
	SavePage(ctx context.Context, slug string, payload SavePayload) error
}

// Editor drives one page through view, edit, and save.
//
// Entering edit mode deep-copies the canonical grid into a buffer; all
// mutations touch only the buffer. Save snapshots the buffer at call time
// and, once the server accepts it, refetches canonical data and discards the
// buffer. A failed save drops back to editing with every local change
// intact. Methods are safe for concurrent use, so UI code may run Save and
// Load from background goroutines.
type Editor struct {
	mu        sync.Mutex
	gateway   Gateway
	feed      *notify.Feed
	slug      string
	phase     Phase
	editable  bool
	canonical *Data
	buffer    *Data
	lastErr   error
}

// NewEditor creates an editor in the view phase with no data loaded.
func NewEditor(gateway Gateway, feed *notify.Feed, slug string) *Editor {
	return &Editor{
		gateway:  gateway,
		feed:     feed,
		slug:     slug,
		phase:    PhaseView,
		editable: true,
	}
}

// Slug returns the page slug this editor is bound to.
func (e *Editor) Slug() string {
	return e.slug
}

// Load fetches canonical data from the server. It refuses to run while edits
// are open so a background refresh can never clobber unsaved work.
func (e *Editor) Load(ctx context.Context) error {
	e.mu.Lock()
	switch e.phase {
	case PhaseEditing:
		e.mu.Unlock()
		return ErrEditing
	case PhaseSaving:
		e.mu.Unlock()
		return ErrSaving
	}
	e.mu.Unlock()

	data, err := e.gateway.GetPageData(ctx, e.slug)
	if err != nil {
		return fmt.Errorf("load page %s: %w", e.slug, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseView {
		// Edits opened while the fetch was in flight win; drop the result.
		return ErrEditing
	}
	e.canonical = data
	e.lastErr = nil
	return nil
}

// SetEditable flips the local edit gate. The server stays authoritative; a
// page left editable here can still fail to save with a permission error.
func (e *Editor) SetEditable(editable bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.editable = editable
}

// Editable reports the local edit gate.
func (e *Editor) Editable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editable
}

// EnterEdit deep-copies canonical data into the edit buffer and moves to the
// editing phase. Calling it while already editing is a no-op.
func (e *Editor) EnterEdit() error {
	e.mu.Lock()
	switch e.phase {
	case PhaseEditing:
		e.mu.Unlock()
		return nil
	case PhaseSaving:
		e.mu.Unlock()
		return ErrSaving
	}
	if e.canonical == nil {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	if !e.editable {
		e.mu.Unlock()
		e.notifyWarning("No edit access to page %s", e.slug)
		return ErrNotEditable
	}
	e.buffer = e.canonical.Clone()
	e.phase = PhaseEditing
	e.mu.Unlock()
	return nil
}

// Cancel discards the edit buffer and returns to the view phase with
// canonical data untouched. In the view phase it is a no-op; a save in
// flight cannot be abandoned.
func (e *Editor) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.phase {
	case PhaseSaving:
		return ErrSaving
	case PhaseView:
		return nil
	}
	e.buffer = nil
	e.phase = PhaseView
	e.lastErr = nil
	return nil
}

// SetCell writes a value into one buffer cell. Out-of-range indices leave
// the buffer untouched.
func (e *Editor) SetCell(row, col int, value string) error {
	return e.mutate(func() error {
		if row < 0 || row >= len(e.buffer.Rows) {
			return fmt.Errorf("%w: row %d of %d", ErrOutOfRange, row, len(e.buffer.Rows))
		}
		cells := e.buffer.Rows[row].Cells
		if col < 0 || col >= len(cells) {
			return fmt.Errorf("%w: column %d of %d", ErrOutOfRange, col, len(cells))
		}
		cells[col] = value
		return nil
	})
}

// AddRow appends an empty row, one blank cell per column.
func (e *Editor) AddRow() error {
	return e.mutate(func() error {
		e.buffer.Rows = append(e.buffer.Rows, Row{
			Order: len(e.buffer.Rows) + 1,
			Cells: make([]string, len(e.buffer.Columns)),
		})
		return nil
	})
}

// DeleteRow removes the row at the given index and renumbers the rest so
// orders stay dense from 1.
func (e *Editor) DeleteRow(index int) error {
	return e.mutate(func() error {
		if index < 0 || index >= len(e.buffer.Rows) {
			return fmt.Errorf("%w: row %d of %d", ErrOutOfRange, index, len(e.buffer.Rows))
		}
		e.buffer.Rows = append(e.buffer.Rows[:index], e.buffer.Rows[index+1:]...)
		renumberRows(e.buffer)
		return nil
	})
}

// AddColumn appends a column with the default width and pads every row with
// a blank cell. Columns are append-only: positional cells make insertion in
// the middle ambiguous.
func (e *Editor) AddColumn(name string) error {
	return e.mutate(func() error {
		if err := validateColumnName(name, e.buffer.Columns, -1); err != nil {
			return err
		}
		e.buffer.Columns = append(e.buffer.Columns, Column{
			Name:  strings.TrimSpace(name),
			Order: len(e.buffer.Columns) + 1,
			Width: DefaultColumnWidth,
		})
		for i := range e.buffer.Rows {
			e.buffer.Rows[i].Cells = append(e.buffer.Rows[i].Cells, "")
		}
		return nil
	})
}

// DeleteColumn removes the column at the given index along with that cell in
// every row, then renumbers. The last remaining column cannot be deleted.
func (e *Editor) DeleteColumn(index int) error {
	return e.mutate(func() error {
		if index < 0 || index >= len(e.buffer.Columns) {
			return fmt.Errorf("%w: column %d of %d", ErrOutOfRange, index, len(e.buffer.Columns))
		}
		if len(e.buffer.Columns) == 1 {
			return ErrLastColumn
		}
		e.buffer.Columns = append(e.buffer.Columns[:index], e.buffer.Columns[index+1:]...)
		renumberColumns(e.buffer)
		for i := range e.buffer.Rows {
			cells := e.buffer.Rows[i].Cells
			if index < len(cells) {
				e.buffer.Rows[i].Cells = append(cells[:index], cells[index+1:]...)
			}
		}
		return nil
	})
}

// RenameColumn changes a column's name with the same validation as AddColumn.
func (e *Editor) RenameColumn(index int, name string) error {
	return e.mutate(func() error {
		if index < 0 || index >= len(e.buffer.Columns) {
			return fmt.Errorf("%w: column %d of %d", ErrOutOfRange, index, len(e.buffer.Columns))
		}
		if err := validateColumnName(name, e.buffer.Columns, index); err != nil {
			return err
		}
		e.buffer.Columns[index].Name = strings.TrimSpace(name)
		return nil
	})
}

// SetColumnWidth sets a column's width, clamped to the allowed range.
func (e *Editor) SetColumnWidth(index, width int) error {
	return e.mutate(func() error {
		if index < 0 || index >= len(e.buffer.Columns) {
			return fmt.Errorf("%w: column %d of %d", ErrOutOfRange, index, len(e.buffer.Columns))
		}
		if width < MinColumnWidth {
			width = MinColumnWidth
		}
		if width > MaxColumnWidth {
			width = MaxColumnWidth
		}
		e.buffer.Columns[index].Width = width
		return nil
	})
}

// ReplaceBuffer swaps in a whole new grid, used by document-based editing
// where the user edits columns and rows as one file. Identity fields are
// kept from the open buffer; orders are renumbered from document position.
func (e *Editor) ReplaceBuffer(columns []Column, rows []Row) error {
	return e.mutate(func() error {
		if len(columns) == 0 {
			return ErrLastColumn
		}
		for i, column := range columns {
			if err := validateColumnName(column.Name, columns, i); err != nil {
				return fmt.Errorf("column %d: %w", i+1, err)
			}
		}
		for i, row := range rows {
			if len(row.Cells) != len(columns) {
				return fmt.Errorf("%w: row %d has %d cells for %d columns",
					ErrCellCount, i+1, len(row.Cells), len(columns))
			}
		}

		next := &Data{
			ID:      e.buffer.ID,
			Name:    e.buffer.Name,
			Slug:    e.buffer.Slug,
			Owner:   e.buffer.Owner,
			Columns: make([]Column, len(columns)),
			Rows:    make([]Row, len(rows)),
		}
		copy(next.Columns, columns)
		for i, row := range rows {
			next.Rows[i] = row.Clone()
		}
		for i := range next.Columns {
			if next.Columns[i].Width == 0 {
				next.Columns[i].Width = DefaultColumnWidth
			}
		}
		renumberColumns(next)
		renumberRows(next)
		e.buffer = next
		return nil
	})
}

// Save posts the buffer to the server. The payload is snapshotted before the
// network call, so racing edits are excluded. On success the editor
// refetches canonical data and returns to the view phase; on failure it
// drops back to editing with the buffer intact.
func (e *Editor) Save(ctx context.Context, commitMessage string) error {
	e.mu.Lock()
	switch e.phase {
	case PhaseSaving:
		e.mu.Unlock()
		return ErrSaving
	case PhaseView:
		e.mu.Unlock()
		return ErrNotEditing
	}
	payload := BuildSavePayload(e.buffer, commitMessage)
	e.phase = PhaseSaving
	e.mu.Unlock()

	if err := e.gateway.SavePage(ctx, e.slug, payload); err != nil {
		e.mu.Lock()
		e.phase = PhaseEditing
		e.lastErr = err
		e.mu.Unlock()
		e.notifyError("Save failed: %v", err)
		return fmt.Errorf("save page %s: %w", e.slug, err)
	}

	fresh, fetchErr := e.gateway.GetPageData(ctx, e.slug)

	e.mu.Lock()
	if fetchErr != nil || fresh == nil {
		// The save landed but the reload did not. Promote the buffer so the
		// view shows what the server accepted; the next Load fills in
		// server-assigned IDs.
		e.canonical = e.buffer
	} else {
		e.canonical = fresh
	}
	e.buffer = nil
	e.phase = PhaseView
	e.lastErr = nil
	e.mu.Unlock()

	if fetchErr != nil {
		e.notifyWarning("Saved page %s, but reloading it failed: %v", e.slug, fetchErr)
		return nil
	}
	e.notifySuccess("Saved page %s", e.slug)
	return nil
}

// ToggleEdit enters edit mode from the view phase and saves from the editing
// phase, matching a single edit/save key in the UI.
func (e *Editor) ToggleEdit(ctx context.Context) error {
	switch e.Phase() {
	case PhaseSaving:
		return ErrSaving
	case PhaseEditing:
		return e.Save(ctx, "")
	default:
		return e.EnterEdit()
	}
}

// Phase returns the current phase.
func (e *Editor) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Canonical returns the last server-confirmed grid, or nil before the first
// load. Treat the result as read-only.
func (e *Editor) Canonical() *Data {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canonical
}

// Buffer returns the edit buffer, or nil outside the editing and saving
// phases. Treat the result as read-only.
func (e *Editor) Buffer() *Data {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffer
}

// Current returns the grid the UI should render: the buffer while edits are
// open, canonical data otherwise.
func (e *Editor) Current() *Data {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.buffer != nil {
		return e.buffer
	}
	return e.canonical
}

// Dirty reports whether the buffer differs from canonical data.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffer != nil && !e.buffer.Equal(e.canonical)
}

// LastError returns the most recent save failure, cleared by a successful
// save or a cancel.
func (e *Editor) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// mutate runs fn against the buffer under the lock, guarding the phase.
func (e *Editor) mutate(fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.phase {
	case PhaseSaving:
		return ErrSaving
	case PhaseView:
		return ErrNotEditing
	}
	return fn()
}

func (e *Editor) notifySuccess(format string, args ...any) {
	if e.feed != nil {
		e.feed.Successf(format, args...)
	}
}

func (e *Editor) notifyWarning(format string, args ...any) {
	if e.feed != nil {
		e.feed.Warningf(format, args...)
	}
}

func (e *Editor) notifyError(format string, args ...any) {
	if e.feed != nil {
		e.feed.Errorf(format, args...)
	}
}

func renumberRows(d *Data) {
	for i := range d.Rows {
		d.Rows[i].Order = i + 1
	}
}

func renumberColumns(d *Data) {
	for i := range d.Columns {
		d.Columns[i].Order = i + 1
	}
}

func validateColumnName(name string, columns []Column, skip int) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: name is empty", ErrColumnName)
	}
	if len(trimmed) > MaxColumnNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrColumnName, MaxColumnNameLength)
	}
	for i, column := range columns {
		if i == skip {
			continue
		}
		if strings.EqualFold(column.Name, trimmed) {
			return fmt.Errorf("%w: duplicate name %q", ErrColumnName, trimmed)
		}
	}
	return nil
}
