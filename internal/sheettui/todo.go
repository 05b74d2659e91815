package sheettui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sheetctl/notify"
	"sheetctl/todo"
)

type todoItem struct {
	todo todo.Todo
}

func (item todoItem) FilterValue() string {
	return item.todo.Name
}

type todoItemDelegate struct {
	normalStyle   lipgloss.Style
	selectedStyle lipgloss.Style
}

func newTodoItemDelegate() todoItemDelegate {
	return todoItemDelegate{
		normalStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		selectedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("24")),
	}
}

func (d todoItemDelegate) Height() int                             { return 1 }
func (d todoItemDelegate) Spacing() int                            { return 0 }
func (d todoItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d todoItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(todoItem)
	if !ok {
		return
	}

	line := formatTodoItem(item, m.Width())
	style := d.normalStyle
	if index == m.Index() {
		style = d.selectedStyle
	}
	fmt.Fprint(w, style.Render(line))
}

func formatTodoItem(item todoItem, width int) string {
	name := strings.TrimSpace(item.todo.Name)
	if name == "" {
		name = "(untitled)"
	}
	scope := "shared"
	if item.todo.IsPersonal {
		scope = "personal"
	}
	line := fmt.Sprintf("%s  %s  [%s/%s]", item.todo.Slug, name, scope, item.todo.SourcePageSlug)
	return truncateText(line, width)
}

type overlayRequestKind int

const (
	overlayRequestNone overlayRequestKind = iota
	overlayRequestCycle
	overlayRequestExit
)

type overlayRequest struct {
	kind   overlayRequestKind
	rowID  string
	status todo.Status
}

const statusCellWidth = 15

// todoDetailModel renders one todo's combined rows: the source page's cells
// with a status column in front. Status flips show immediately through a
// pending override per row; the override is dropped once the server answers,
// at which point the overlay holds either the confirmed status or the rolled
// back one.
type todoDetailModel struct {
	overlay   *todo.Overlay
	feed      *notify.Feed
	loading   bool
	focused   bool
	cursor    int
	rowOffset int
	colOffset int
	width     int
	height    int
	pending   map[string]todo.Status
}

func newTodoDetailModel(feed *notify.Feed) todoDetailModel {
	return todoDetailModel{
		feed:    feed,
		pending: make(map[string]todo.Status),
	}
}

// SetOverlay binds the model to a todo's overlay and resets cursor state. A
// nil overlay empties the pane.
func (model *todoDetailModel) SetOverlay(overlay *todo.Overlay) {
	model.overlay = overlay
	model.loading = overlay != nil
	model.cursor = 0
	model.rowOffset = 0
	model.colOffset = 0
	model.pending = make(map[string]todo.Status)
}

func (model *todoDetailModel) SetSize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	model.width = width
	model.height = height
}

func (model *todoDetailModel) Focus() {
	model.focused = true
}

func (model *todoDetailModel) Blur() {
	model.focused = false
}

func (model *todoDetailModel) Loaded() {
	model.loading = false
	model.clampCursor()
}

// BeginCycle records the optimistic status for a row while the server call is
// in flight.
func (model *todoDetailModel) BeginCycle(rowID string, status todo.Status) {
	model.pending[rowID] = status
}

// EndCycle drops the override; the overlay now holds the outcome.
func (model *todoDetailModel) EndCycle(rowID string) {
	delete(model.pending, rowID)
}

// items returns the overlay rows with pending overrides applied.
func (model todoDetailModel) items() []todo.Item {
	if model.overlay == nil {
		return nil
	}
	items := model.overlay.Items()
	if len(model.pending) == 0 {
		return items
	}
	for i, item := range items {
		if status, ok := model.pending[item.RowID]; ok {
			items[i].Status = status
		}
	}
	return items
}

// CursorItem returns the row under the cursor.
func (model todoDetailModel) CursorItem() (todo.Item, bool) {
	items := model.items()
	if model.cursor < 0 || model.cursor >= len(items) {
		return todo.Item{}, false
	}
	return items[model.cursor], true
}

func (model todoDetailModel) Update(msg tea.Msg) (todoDetailModel, overlayRequest) {
	if !model.focused {
		return model, overlayRequest{}
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return model, overlayRequest{}
	}

	if model.overlay == nil {
		switch key.String() {
		case "q", "esc":
			return model, overlayRequest{kind: overlayRequestExit}
		}
		return model, overlayRequest{}
	}

	items := model.items()
	switch key.String() {
	case "up", "k":
		model.moveCursor(len(items), -1)
	case "down", "j":
		model.moveCursor(len(items), 1)
	case "pgup":
		model.moveCursor(len(items), -model.visibleRowCount())
	case "pgdown":
		model.moveCursor(len(items), model.visibleRowCount())
	case "home":
		model.moveCursor(len(items), -len(items))
	case "end":
		model.moveCursor(len(items), len(items))
	case "left", "h":
		if model.colOffset > 0 {
			model.colOffset--
		}
	case "right", "l":
		if model.colOffset < len(model.columns())-1 {
			model.colOffset++
		}
	case " ", "space":
		item, ok := model.CursorItem()
		if !ok {
			return model, overlayRequest{}
		}
		if _, inFlight := model.pending[item.RowID]; inFlight {
			if model.feed != nil {
				model.feed.Warningf("Status change already in flight")
			}
			return model, overlayRequest{}
		}
		return model, overlayRequest{
			kind:   overlayRequestCycle,
			rowID:  item.RowID,
			status: item.Status.Next(),
		}
	case "q", "esc":
		return model, overlayRequest{kind: overlayRequestExit}
	}
	return model, overlayRequest{}
}

func (model *todoDetailModel) moveCursor(count, delta int) {
	model.cursor += delta
	if model.cursor >= count {
		model.cursor = count - 1
	}
	if model.cursor < 0 {
		model.cursor = 0
	}
	model.ensureCursorVisible()
}

func (model *todoDetailModel) clampCursor() {
	count := len(model.items())
	if model.cursor >= count {
		model.cursor = count - 1
	}
	if model.cursor < 0 {
		model.cursor = 0
	}
	model.ensureCursorVisible()
}

func (model *todoDetailModel) ensureCursorVisible() {
	visible := model.visibleRowCount()
	if model.cursor < model.rowOffset {
		model.rowOffset = model.cursor
	}
	if model.cursor >= model.rowOffset+visible {
		model.rowOffset = model.cursor - visible + 1
	}
	if model.rowOffset < 0 {
		model.rowOffset = 0
	}
}

func (model todoDetailModel) visibleRowCount() int {
	count := model.height - 3
	if count < 1 {
		count = 1
	}
	return count
}

func (model todoDetailModel) columns() []string {
	if model.overlay == nil {
		return nil
	}
	columns := model.overlay.Columns()
	names := make([]string, len(columns))
	for i, column := range columns {
		names[i] = column.Name
	}
	return names
}

func (model todoDetailModel) columnWidths() []int {
	if model.overlay == nil {
		return nil
	}
	columns := model.overlay.Columns()
	widths := make([]int, len(columns))
	for i, column := range columns {
		widths[i] = displayColumnWidth(column.Width)
	}
	return widths
}

func (model todoDetailModel) View() string {
	if model.overlay == nil {
		return valueMuted.Render("No todo selected")
	}
	detail := model.overlay.Detail()
	if detail == nil {
		if model.loading {
			return valueMuted.Render("Loading todo...")
		}
		return valueMuted.Render("Todo not loaded")
	}

	lines := make([]string, 0, model.visibleRowCount()+3)
	lines = append(lines, model.renderMeta(detail.Name, detail.IsPersonal))
	lines = append(lines, model.renderHeader())
	lines = append(lines, model.renderSeparator())

	items := model.items()
	if len(items) == 0 {
		lines = append(lines, valueMuted.Render("No rows in source page"))
		return strings.Join(lines, "\n")
	}

	last := model.rowOffset + model.visibleRowCount()
	if last > len(items) {
		last = len(items)
	}
	for i := model.rowOffset; i < last; i++ {
		lines = append(lines, model.renderItem(items[i], i))
	}
	return strings.Join(lines, "\n")
}

func (model todoDetailModel) renderMeta(name string, personal bool) string {
	done, total := model.overlay.Progress()
	parts := []string{
		labelStyle.Render(truncateText(name, model.width-20)),
		valueMuted.Render(fmt.Sprintf("%d/%d done", done, total)),
	}
	if personal {
		parts = append(parts, valueMuted.Render("[personal]"))
	}
	return strings.Join(parts, "  ")
}

func (model todoDetailModel) renderHeader() string {
	parts := []string{
		fmt.Sprintf("%*s", gridGutter-1, "#") + " ",
		headerCellStyle.Render(padCell("STATUS", statusCellWidth)),
	}
	names := model.columns()
	widths := model.columnWidths()
	for i := model.colOffset; i < len(names); i++ {
		parts = append(parts, headerCellStyle.Render(padCell(names[i], widths[i])))
	}
	return truncateText(strings.Join(parts, "  "), model.width)
}

func (model todoDetailModel) renderSeparator() string {
	width := model.width
	if width < 1 {
		width = 1
	}
	return valueMuted.Render(strings.Repeat("-", width))
}

func (model todoDetailModel) renderItem(item todo.Item, index int) string {
	onCursor := model.focused && index == model.cursor
	_, inFlight := model.pending[item.RowID]

	statusText := padCell(statusCellText(item.Status), statusCellWidth)
	statusStyle := statusCellStyle(item.Status)
	if inFlight {
		statusStyle = valueMuted
	}
	if onCursor {
		statusStyle = cursorCellStyle
	}

	parts := []string{
		valueMuted.Render(fmt.Sprintf("%*d", gridGutter-1, item.Order) + " "),
		statusStyle.Render(statusText),
	}
	widths := model.columnWidths()
	for i := model.colOffset; i < len(widths) && i < len(item.Cells); i++ {
		style := cellStyle
		if onCursor {
			style = cursorCellStyle
		}
		parts = append(parts, style.Render(padCell(item.Cells[i], widths[i])))
	}
	return truncateText(strings.Join(parts, "  "), model.width)
}

func statusCellText(status todo.Status) string {
	return statusGlyph(status) + " " + status.Label()
}

func statusGlyph(status todo.Status) string {
	switch status {
	case todo.StatusCompleted:
		return "[x]"
	case todo.StatusInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}

func statusCellStyle(status todo.Status) lipgloss.Style {
	switch status {
	case todo.StatusCompleted:
		return statusDoneStyle
	case todo.StatusInProgress:
		return statusActiveStyle
	default:
		return cellStyle
	}
}
