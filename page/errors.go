package page

import "errors"

var (
	// ErrNotLoaded indicates the editor has no canonical data yet.
	ErrNotLoaded = errors.New("page not loaded")

	// ErrEditing indicates an operation that requires the view phase ran
	// while edits were open.
	ErrEditing = errors.New("page has open edits")

	// ErrNotEditing indicates a buffer mutation was attempted outside the
	// editing phase.
	ErrNotEditing = errors.New("not editing")

	// ErrSaving indicates a save is in flight and the editor is locked.
	ErrSaving = errors.New("save in progress")

	// ErrNotEditable indicates the edit gate is off for this page.
	ErrNotEditable = errors.New("page is not editable")

	// ErrOutOfRange indicates a row or column index outside the buffer.
	ErrOutOfRange = errors.New("cell index out of range")

	// ErrColumnName indicates an empty, overlong, or duplicate column name.
	ErrColumnName = errors.New("invalid column name")

	// ErrColumnWidth indicates a width outside the allowed range.
	ErrColumnWidth = errors.New("column width out of range")

	// ErrLastColumn indicates an attempt to delete the only column.
	ErrLastColumn = errors.New("a page needs at least one column")

	// ErrCellCount indicates a row whose cell count does not match the
	// column count.
	ErrCellCount = errors.New("cell count does not match column count")
)
