package sheettui

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"sheetctl/internal/ui"
	"sheetctl/notify"
	"sheetctl/page"
)

type pageItem struct {
	info page.Info
}

func (item pageItem) FilterValue() string {
	return item.info.Name
}

type pageItemDelegate struct {
	normalStyle   lipgloss.Style
	selectedStyle lipgloss.Style
}

func newPageItemDelegate() pageItemDelegate {
	return pageItemDelegate{
		normalStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		selectedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("24")),
	}
}

func (d pageItemDelegate) Height() int                             { return 1 }
func (d pageItemDelegate) Spacing() int                            { return 0 }
func (d pageItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d pageItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(pageItem)
	if !ok {
		return
	}

	line := formatPageItem(item, time.Now(), m.Width())
	style := d.normalStyle
	if index == m.Index() {
		style = d.selectedStyle
	}
	fmt.Fprint(w, style.Render(line))
}

func formatPageItem(item pageItem, now time.Time, width int) string {
	name := strings.TrimSpace(item.info.Name)
	if name == "" {
		name = "(untitled)"
	}
	meta := fmt.Sprintf("%s/%s", item.info.Owner.Username, ui.FormatTimeAgeShort(item.info.UpdatedAt, now))
	line := fmt.Sprintf("%s  %s  [%s]", item.info.Slug, name, meta)
	return truncateText(line, width)
}

type gridRequestKind int

const (
	gridRequestNone gridRequestKind = iota
	gridRequestSave
	gridRequestExit
	gridRequestAddColumn
	gridRequestSaveWidth
)

// gridRequest is what the detail model asks the top-level model to do:
// things that need a network command or a modal.
type gridRequest struct {
	kind  gridRequestKind
	colID string
	width int
}

// Cell geometry: server widths are pixels, the grid maps them to columns of
// text.
const (
	pixelsPerCell = 10
	minCellWidth  = 4
	maxCellWidth  = 32
	gridGutter    = 4
)

// pageDetailModel renders one page as a navigable grid. Content always comes
// straight from the editor on render, so buffer mutations and save results
// show up without any syncing step. Width changes made outside edit mode are
// kept in a local overlay until the server confirms them.
type pageDetailModel struct {
	editor        *page.Editor
	feed          *notify.Feed
	loading       bool
	focused       bool
	cursorRow     int
	cursorCol     int
	rowOffset     int
	colOffset     int
	input         textinput.Model
	inputOpen     bool
	width         int
	height        int
	widthOverride map[string]int
}

func newPageDetailModel(feed *notify.Feed) pageDetailModel {
	input := textinput.New()
	input.Prompt = ""
	return pageDetailModel{
		feed:          feed,
		input:         input,
		widthOverride: make(map[string]int),
	}
}

// SetEditor binds the model to a page's editor and resets cursor state. A nil
// editor empties the pane.
func (model *pageDetailModel) SetEditor(editor *page.Editor) {
	model.editor = editor
	model.loading = editor != nil
	model.cursorRow = 0
	model.cursorCol = 0
	model.rowOffset = 0
	model.colOffset = 0
	model.closeInput()
	model.widthOverride = make(map[string]int)
}

func (model *pageDetailModel) SetSize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	model.width = width
	model.height = height
}

func (model *pageDetailModel) Focus() {
	model.focused = true
}

func (model *pageDetailModel) Blur() {
	model.focused = false
	model.closeInput()
}

// Loaded marks the end of a load and drops any unconfirmed width overrides,
// since fresh canonical data is authoritative.
func (model *pageDetailModel) Loaded() {
	model.loading = false
	model.widthOverride = make(map[string]int)
	if data := model.currentData(); data != nil {
		model.clampCursor(data)
		model.ensureCursorVisible(data)
	}
}

func (model *pageDetailModel) closeInput() {
	model.inputOpen = false
	model.input.Blur()
	model.input.SetValue("")
}

// Dirty reports whether the bound editor holds unsaved changes.
func (model pageDetailModel) Dirty() bool {
	return model.editor != nil && model.editor.Dirty()
}

func (model pageDetailModel) phase() page.Phase {
	if model.editor == nil {
		return page.PhaseView
	}
	return model.editor.Phase()
}

func (model pageDetailModel) currentData() *page.Data {
	if model.editor == nil {
		return nil
	}
	return model.editor.Current()
}

func (model pageDetailModel) Update(msg tea.Msg) (pageDetailModel, tea.Cmd, gridRequest) {
	if !model.focused {
		return model, nil, gridRequest{}
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return model, nil, gridRequest{}
	}

	data := model.currentData()
	if data == nil {
		switch key.String() {
		case "q", "esc":
			return model, nil, gridRequest{kind: gridRequestExit}
		}
		return model, nil, gridRequest{}
	}

	if model.inputOpen {
		return model.updateCellInput(key)
	}

	phase := model.phase()
	switch key.String() {
	case "up", "k":
		model.moveCursor(data, -1, 0)
	case "down", "j":
		model.moveCursor(data, 1, 0)
	case "left", "h":
		model.moveCursor(data, 0, -1)
	case "right", "l":
		model.moveCursor(data, 0, 1)
	case "pgup":
		model.moveCursor(data, -model.visibleRowCount(), 0)
	case "pgdown":
		model.moveCursor(data, model.visibleRowCount(), 0)
	case "home":
		model.moveCursor(data, 0, -len(data.Columns))
	case "end":
		model.moveCursor(data, 0, len(data.Columns))
	case "e":
		if phase == page.PhaseEditing {
			return model, nil, gridRequest{kind: gridRequestSave}
		}
		model.reportEditError(model.editor.EnterEdit())
	case "enter":
		if phase == page.PhaseEditing {
			model.openCellInput(data)
		}
	case "o":
		if err := model.editor.AddRow(); err != nil {
			model.reportEditError(err)
		} else if fresh := model.currentData(); fresh != nil {
			model.cursorRow = len(fresh.Rows) - 1
			model.ensureCursorVisible(fresh)
		}
	case "D":
		if err := model.editor.DeleteRow(model.cursorRow); err != nil {
			model.reportEditError(err)
		} else if fresh := model.currentData(); fresh != nil {
			model.clampCursor(fresh)
			model.ensureCursorVisible(fresh)
		}
	case "+":
		return model, nil, gridRequest{kind: gridRequestAddColumn}
	case "<":
		return model.adjustWidth(data, -pixelsPerCell)
	case ">":
		return model.adjustWidth(data, pixelsPerCell)
	case "q", "esc":
		return model, nil, gridRequest{kind: gridRequestExit}
	default:
		if phase == page.PhaseEditing && isTextKey(key) {
			model.openCellInput(data)
			var cmd tea.Cmd
			model.input, cmd = model.input.Update(key)
			return model, cmd, gridRequest{}
		}
	}
	return model, nil, gridRequest{}
}

func (model pageDetailModel) updateCellInput(key tea.KeyMsg) (pageDetailModel, tea.Cmd, gridRequest) {
	switch key.String() {
	case "enter":
		value := model.input.Value()
		model.closeInput()
		model.reportEditError(model.editor.SetCell(model.cursorRow, model.cursorCol, value))
		return model, nil, gridRequest{}
	case "esc":
		model.closeInput()
		return model, nil, gridRequest{}
	}
	var cmd tea.Cmd
	model.input, cmd = model.input.Update(key)
	return model, cmd, gridRequest{}
}

func (model *pageDetailModel) openCellInput(data *page.Data) {
	model.clampCursor(data)
	model.input.SetValue(data.Cell(model.cursorRow, model.cursorCol))
	model.input.Width = model.cursorCellWidth(data) - 1
	if model.input.Width < 1 {
		model.input.Width = 1
	}
	model.input.CursorEnd()
	model.input.Focus()
	model.inputOpen = true
}

func (model pageDetailModel) adjustWidth(data *page.Data, delta int) (pageDetailModel, tea.Cmd, gridRequest) {
	if model.cursorCol < 0 || model.cursorCol >= len(data.Columns) {
		return model, nil, gridRequest{}
	}
	column := data.Columns[model.cursorCol]

	if model.phase() == page.PhaseEditing {
		// Rides the next save payload.
		model.reportEditError(model.editor.SetColumnWidth(model.cursorCol, column.Width+delta))
		return model, nil, gridRequest{}
	}

	width := model.columnPixelWidth(column) + delta
	if width < page.MinColumnWidth {
		width = page.MinColumnWidth
	}
	if width > page.MaxColumnWidth {
		width = page.MaxColumnWidth
	}
	if width == model.columnPixelWidth(column) {
		return model, nil, gridRequest{}
	}
	model.widthOverride[column.ID] = width
	return model, nil, gridRequest{kind: gridRequestSaveWidth, colID: column.ID, width: width}
}

// DropWidthOverride undoes the local width change for one column, used when
// the server rejects the update.
func (model *pageDetailModel) DropWidthOverride(colID string) {
	delete(model.widthOverride, colID)
}

func (model *pageDetailModel) moveCursor(data *page.Data, dRow, dCol int) {
	model.cursorRow += dRow
	model.cursorCol += dCol
	model.clampCursor(data)
	model.ensureCursorVisible(data)
}

func (model *pageDetailModel) clampCursor(data *page.Data) {
	if model.cursorRow >= len(data.Rows) {
		model.cursorRow = len(data.Rows) - 1
	}
	if model.cursorRow < 0 {
		model.cursorRow = 0
	}
	if model.cursorCol >= len(data.Columns) {
		model.cursorCol = len(data.Columns) - 1
	}
	if model.cursorCol < 0 {
		model.cursorCol = 0
	}
}

func (model *pageDetailModel) ensureCursorVisible(data *page.Data) {
	visible := model.visibleRowCount()
	if model.cursorRow < model.rowOffset {
		model.rowOffset = model.cursorRow
	}
	if model.cursorRow >= model.rowOffset+visible {
		model.rowOffset = model.cursorRow - visible + 1
	}
	if model.rowOffset < 0 {
		model.rowOffset = 0
	}

	if model.cursorCol < model.colOffset {
		model.colOffset = model.cursorCol
	}
	for model.colOffset < model.cursorCol && model.lastVisibleColumn(data) < model.cursorCol {
		model.colOffset++
	}
}

func (model pageDetailModel) visibleRowCount() int {
	// Meta, header, and separator lines take three rows of the pane.
	count := model.height - 3
	if count < 1 {
		count = 1
	}
	return count
}

func (model pageDetailModel) lastVisibleColumn(data *page.Data) int {
	used := gridGutter
	last := model.colOffset
	for i := model.colOffset; i < len(data.Columns); i++ {
		cellWidth := model.columnDisplayWidth(data.Columns[i])
		if i > model.colOffset && used+cellWidth > model.width {
			break
		}
		used += cellWidth + 2
		last = i
	}
	return last
}

func (model pageDetailModel) columnPixelWidth(column page.Column) int {
	if width, ok := model.widthOverride[column.ID]; ok {
		return width
	}
	return column.Width
}

func (model pageDetailModel) columnDisplayWidth(column page.Column) int {
	return displayColumnWidth(model.columnPixelWidth(column))
}

func (model pageDetailModel) cursorCellWidth(data *page.Data) int {
	if model.cursorCol < 0 || model.cursorCol >= len(data.Columns) {
		return minCellWidth
	}
	return model.columnDisplayWidth(data.Columns[model.cursorCol])
}

func (model pageDetailModel) View() string {
	if model.editor == nil {
		return valueMuted.Render("No page selected")
	}
	data := model.currentData()
	if data == nil {
		if model.loading {
			return valueMuted.Render("Loading page...")
		}
		return valueMuted.Render("Page not loaded")
	}

	lines := make([]string, 0, model.visibleRowCount()+3)
	lines = append(lines, model.renderMeta(data))
	lines = append(lines, model.renderHeader(data))
	lines = append(lines, model.renderSeparator(data))

	if len(data.Rows) == 0 {
		empty := "No rows"
		if model.phase() == page.PhaseEditing {
			empty = "No rows (press o to add one)"
		}
		lines = append(lines, valueMuted.Render(empty))
		return strings.Join(lines, "\n")
	}

	last := model.rowOffset + model.visibleRowCount()
	if last > len(data.Rows) {
		last = len(data.Rows)
	}
	for i := model.rowOffset; i < last; i++ {
		lines = append(lines, model.renderRow(data, i))
	}
	return strings.Join(lines, "\n")
}

func (model pageDetailModel) renderMeta(data *page.Data) string {
	name := labelStyle.Render(truncateText(data.Name, model.width-12))
	switch model.phase() {
	case page.PhaseEditing:
		badge := "[editing]"
		if model.Dirty() {
			badge = "[editing *]"
		}
		return name + "  " + statusActiveStyle.Render(badge)
	case page.PhaseSaving:
		return name + "  " + valueMuted.Render("[saving]")
	default:
		return name
	}
}

func (model pageDetailModel) renderHeader(data *page.Data) string {
	parts := []string{fmt.Sprintf("%*s", gridGutter-1, "#") + " "}
	for i := model.colOffset; i <= model.lastVisibleColumn(data) && i < len(data.Columns); i++ {
		parts = append(parts, headerCellStyle.Render(padCell(data.Columns[i].Name, model.columnDisplayWidth(data.Columns[i]))))
	}
	return truncateText(strings.Join(parts, "  "), model.width)
}

func (model pageDetailModel) renderSeparator(data *page.Data) string {
	width := gridGutter
	for i := model.colOffset; i <= model.lastVisibleColumn(data) && i < len(data.Columns); i++ {
		width += model.columnDisplayWidth(data.Columns[i]) + 2
	}
	if width > model.width {
		width = model.width
	}
	if width < 1 {
		width = 1
	}
	return valueMuted.Render(strings.Repeat("-", width))
}

func (model pageDetailModel) renderRow(data *page.Data, row int) string {
	parts := []string{valueMuted.Render(fmt.Sprintf("%*d", gridGutter-1, data.Rows[row].Order) + " ")}
	for col := model.colOffset; col <= model.lastVisibleColumn(data) && col < len(data.Columns); col++ {
		width := model.columnDisplayWidth(data.Columns[col])
		onCursor := model.focused && row == model.cursorRow && col == model.cursorCol
		if onCursor && model.inputOpen {
			parts = append(parts, editingCellStyle.Render(padCell(model.input.View(), width)))
			continue
		}
		style := cellStyle
		if onCursor {
			style = cursorCellStyle
		}
		parts = append(parts, style.Render(padCell(data.Cell(row, col), width)))
	}
	return truncateText(strings.Join(parts, "  "), model.width)
}

func (model pageDetailModel) reportEditError(err error) {
	if model.feed == nil {
		return
	}
	switch {
	case err == nil:
	case errors.Is(err, page.ErrNotEditable):
		// The editor posts its own notification for this one.
	case errors.Is(err, page.ErrNotEditing):
		model.feed.Warningf("Press e to start editing")
	case errors.Is(err, page.ErrNotLoaded):
		model.feed.Warningf("Page is still loading")
	case errors.Is(err, page.ErrSaving):
		model.feed.Warningf("Save in progress")
	default:
		model.feed.Errorf("%v", err)
	}
}

func isTextKey(key tea.KeyMsg) bool {
	if key.Alt {
		return false
	}
	return key.Type == tea.KeyRunes || key.Type == tea.KeySpace
}

func displayColumnWidth(pixels int) int {
	cells := pixels / pixelsPerCell
	if cells < minCellWidth {
		cells = minCellWidth
	}
	if cells > maxCellWidth {
		cells = maxCellWidth
	}
	return cells
}

func padCell(value string, width int) string {
	value = truncateText(value, width)
	if gap := width - lipgloss.Width(value); gap > 0 {
		value += strings.Repeat(" ", gap)
	}
	return value
}

func truncateText(value string, width int) string {
	if width <= 0 {
		return value
	}
	return truncate.StringWithTail(value, uint(width), "...")
}
