package sheettui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sheetctl/api"
	internalstrings "sheetctl/internal/strings"
	"sheetctl/notify"
	"sheetctl/page"
	"sheetctl/session"
	"sheetctl/todo"
)

type viewKind int

const (
	viewStartup viewKind = iota
	viewLogin
	viewMain
)

type tabKind int

const (
	tabPages tabKind = iota
	tabTodos
)

type focusPane int

const (
	focusList focusPane = iota
	focusDetail
)

type modalKind int

const (
	modalNone modalKind = iota
	modalHelp
	modalDiscardEdits
	modalNewTodo
	modalAddColumn
)

type model struct {
	ctx      context.Context
	client   *api.Client
	sessions *session.Manager
	feed     *notify.Feed

	width  int
	height int

	view      viewKind
	activeTab tabKind
	focus     focusPane

	login loginModel

	pageList list.Model
	todoList list.Model

	pageDetail pageDetailModel
	todoDetail todoDetailModel

	modal confirmModal

	spinner    spinner.Model
	savingSlug string

	selectedPageSlug string
	selectedTodoID   string
	pendingTodoID    string

	// Monotonic per-pane fetch sequences; a result older than the latest
	// issued one is dropped.
	pagesSeq   int
	todosSeq   int
	gridSeq    int
	overlaySeq int

	gridCancel    context.CancelFunc
	overlayCancel context.CancelFunc
}

type confirmModal struct {
	kind        modalKind
	message     string
	confirmText string
	cancelText  string
	selected    int
	input       textinput.Model
	hasInput    bool
	subject     string
}

// feedTickInterval is how often the status line reconsults the notification
// feed, so expired entries disappear without a keypress.
const feedTickInterval = 500 * time.Millisecond

func Run(ctx context.Context, client *api.Client, sessions *session.Manager, feed *notify.Feed) error {
	if client == nil {
		return fmt.Errorf("api client is required")
	}
	if sessions == nil {
		return fmt.Errorf("session manager is required")
	}
	if feed == nil {
		return fmt.Errorf("notification feed is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	program := tea.NewProgram(newModel(ctx, client, sessions, feed), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func newModel(ctx context.Context, client *api.Client, sessions *session.Manager, feed *notify.Feed) model {
	pageList := list.New(nil, newPageItemDelegate(), 0, 0)
	pageList.Title = "Pages"
	pageList.SetShowStatusBar(false)
	pageList.SetFilteringEnabled(false)
	pageList.SetShowHelp(false)
	pageList.SetShowPagination(false)

	todoList := list.New(nil, newTodoItemDelegate(), 0, 0)
	todoList.Title = "Todos"
	todoList.SetShowStatusBar(false)
	todoList.SetFilteringEnabled(false)
	todoList.SetShowHelp(false)
	todoList.SetShowPagination(false)

	saveSpinner := spinner.New(spinner.WithSpinner(spinner.Line), spinner.WithStyle(statusActiveStyle))

	return model{
		ctx:        ctx,
		client:     client,
		sessions:   sessions,
		feed:       feed,
		view:       viewStartup,
		activeTab:  tabPages,
		focus:      focusList,
		login:      newLoginModel(),
		pageList:   pageList,
		todoList:   todoList,
		pageDetail: newPageDetailModel(feed),
		todoDetail: newTodoDetailModel(feed),
		modal:      confirmModal{kind: modalNone},
		spinner:    saveSpinner,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.checkSessionCmd(), m.tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	case feedTickMsg:
		return m, m.tickCmd()
	case spinner.TickMsg:
		if m.savingSlug == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	switch m.view {
	case viewStartup:
		return m.updateStartup(msg)
	case viewLogin:
		return m.updateLogin(msg)
	}

	if m.modal.kind != modalNone {
		return m.updateModal(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		updated, cmd, handled := m.handleKey(msg)
		if handled {
			return updated, cmd
		}
		m = updated
	case sessionCheckedMsg:
		return m.handleSessionChecked(msg)
	case pagesLoadedMsg:
		return m.handlePagesLoaded(msg)
	case todosLoadedMsg:
		return m.handleTodosLoaded(msg)
	case gridLoadedMsg:
		return m.handleGridLoaded(msg)
	case overlayLoadedMsg:
		return m.handleOverlayLoaded(msg)
	case pageSavedMsg:
		return m.handlePageSaved(msg)
	case widthSavedMsg:
		return m.handleWidthSaved(msg)
	case statusCycledMsg:
		return m.handleStatusCycled(msg)
	case todoCreatedMsg:
		return m.handleTodoCreated(msg)
	}

	if m.activeTab == tabPages {
		return m.updatePagesTab(msg)
	}
	return m.updateTodosTab(msg)
}

func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading sheet UI..."
	}
	switch m.view {
	case viewStartup:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, valueMuted.Render("Checking session..."))
	case viewLogin:
		return m.renderLoginView()
	}

	helpLine := m.renderHelpLine()
	statusLine := m.renderStatusLine()
	contentHeight := m.height - 3
	if contentHeight < 1 {
		contentHeight = 1
	}
	leftWidth, rightWidth := splitWidths(m.width)

	listContent := m.pageList.View()
	detailContent := m.pageDetail.View()
	if m.activeTab == tabTodos {
		listContent = m.todoList.View()
		detailContent = m.todoDetail.View()
	}

	listPane := m.renderPane(listContent, leftWidth, contentHeight, m.focus == focusList)
	detailPane := m.renderPane(detailContent, rightWidth, contentHeight, m.focus == focusDetail)
	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)

	view := strings.Join([]string{m.renderTabs(), helpLine, content, statusLine}, "\n")
	if m.modal.kind != modalNone {
		view = m.renderModalOverlay(view)
	}
	return view
}

func (m model) updateStartup(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionCheckedMsg:
		return m.handleSessionChecked(msg)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		return m.handleLoginResult(msg)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		updated, cmd, submit := m.login.Update(msg)
		m.login = updated
		if !submit {
			return m, cmd
		}
		if !m.login.Ready() {
			m.feed.Warningf("Email and password are required")
			return m, cmd
		}
		email, password := m.login.Values()
		m.login.SetSubmitting(true)
		return m, tea.Batch(cmd, m.loginCmd(email, password))
	}
	return m, nil
}

func (m model) handleSessionChecked(msg sessionCheckedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.feed.Errorf("Cannot reach server: %v", msg.err)
		m.view = viewLogin
		return m, nil
	}
	if msg.signedIn {
		return m.enterMain()
	}
	m.view = viewLogin
	return m, nil
}

func (m model) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	m.login.SetSubmitting(false)
	if msg.err != nil {
		switch {
		case errors.Is(msg.err, session.ErrBadCredentials):
			m.feed.Errorf("Invalid email or password")
		case errors.Is(msg.err, session.ErrAccountDisabled):
			m.feed.Errorf("This account has been disabled")
		default:
			m.feed.Errorf("Sign in failed: %v", msg.err)
		}
		m.login.ClearPassword()
		return m, nil
	}
	return m.enterMain()
}

func (m model) enterMain() (tea.Model, tea.Cmd) {
	m.view = viewMain
	m.activeTab = tabPages
	m.focus = focusList
	m.pagesSeq++
	m.todosSeq++
	return m, tea.Batch(m.loadPagesCmd(m.pagesSeq), m.loadTodosCmd(m.todosSeq))
}

func (m model) updatePagesTab(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.focus == focusList {
		var cmd tea.Cmd
		m.pageList, cmd = m.pageList.Update(msg)
		if selectCmd := m.updatePageSelection(); selectCmd != nil {
			return m, tea.Batch(cmd, selectCmd)
		}
		return m, cmd
	}

	updated, cmd, request := m.pageDetail.Update(msg)
	m.pageDetail = updated
	switch request.kind {
	case gridRequestSave:
		m.savingSlug = m.selectedPageSlug
		return m, tea.Batch(cmd, m.saveGridCmd(m.pageDetail.editor), m.spinner.Tick)
	case gridRequestExit:
		return m.exitGrid(), cmd
	case gridRequestAddColumn:
		if m.pageDetail.phase() != page.PhaseEditing {
			m.feed.Warningf("Press e to start editing")
			return m, cmd
		}
		m.modal = newInputModal(modalAddColumn, "New column name")
		return m, cmd
	case gridRequestSaveWidth:
		return m, tea.Batch(cmd, m.saveWidthCmd(m.selectedPageSlug, request.colID, request.width))
	}
	return m, cmd
}

func (m model) updateTodosTab(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.focus == focusList {
		var cmd tea.Cmd
		m.todoList, cmd = m.todoList.Update(msg)
		if selectCmd := m.updateTodoSelection(); selectCmd != nil {
			return m, tea.Batch(cmd, selectCmd)
		}
		return m, cmd
	}

	updated, request := m.todoDetail.Update(msg)
	m.todoDetail = updated
	switch request.kind {
	case overlayRequestCycle:
		m.todoDetail.BeginCycle(request.rowID, request.status)
		return m, m.cycleStatusCmd(m.todoDetail.overlay, request.rowID)
	case overlayRequestExit:
		return m.setFocus(focusList), nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd, bool) {
	key := msg.String()

	if key == "ctrl+c" {
		m.cancelLoads()
		return m, tea.Quit, true
	}

	// A grid that is editing owns every printable key: cell text first,
	// command keys second, global shortcuts not at all.
	if m.gridOwnsText() && isTextKey(msg) {
		return m, nil, false
	}

	switch key {
	case "?":
		return m.openHelp(), nil, true
	case "ctrl+k":
		m.feed.DismissAll()
		return m, nil, true
	}

	if updated, cmd, handled := m.handleListNavigation(key); handled {
		return updated, cmd, true
	}

	switch key {
	case "q":
		if m.focus == focusList {
			m.cancelLoads()
			return m, tea.Quit, true
		}
	case "tab":
		if m.focus == focusList {
			updated, cmd := m.switchTab(1)
			return updated, cmd, true
		}
	case "shift+tab", "backtab":
		if m.focus == focusList {
			updated, cmd := m.switchTab(-1)
			return updated, cmd, true
		}
	case "1":
		updated, cmd := m.activateTab(tabPages)
		return updated, cmd, true
	case "2":
		updated, cmd := m.activateTab(tabTodos)
		return updated, cmd, true
	case "[":
		updated, cmd := m.switchTab(-1)
		return updated, cmd, true
	case "]":
		updated, cmd := m.switchTab(1)
		return updated, cmd, true
	case "enter":
		if m.focus == focusList {
			return m.enterDetail(), nil, true
		}
	case "n":
		if m.activeTab == tabTodos && m.focus == focusList {
			return m.openNewTodoPrompt(), nil, true
		}
	}

	return m, nil, false
}

// gridOwnsText reports whether keystrokes should reach the grid before any
// global shortcut, which is the case whenever the page detail pane is taking
// cell input or could start taking it.
func (m model) gridOwnsText() bool {
	if m.activeTab != tabPages || m.focus != focusDetail {
		return false
	}
	return m.pageDetail.inputOpen || m.pageDetail.phase() == page.PhaseEditing
}

// switchTab cycles between the two tabs; with only two, either direction
// lands on the other one.
func (m model) switchTab(_ int) (model, tea.Cmd) {
	if m.activeTab == tabPages {
		return m.activateTab(tabTodos)
	}
	return m.activateTab(tabPages)
}

func (m model) activateTab(target tabKind) (model, tea.Cmd) {
	if target == m.activeTab {
		return m, nil
	}
	if m.focus == focusDetail && m.activeTab == tabPages {
		switch m.pageDetail.phase() {
		case page.PhaseSaving:
			m.feed.Warningf("Save in progress")
			return m, nil
		case page.PhaseEditing:
			if m.pageDetail.Dirty() {
				m.feed.Warningf("Finish or discard edits first (esc)")
				return m, nil
			}
			_ = m.pageDetail.editor.Cancel()
		}
	}
	if m.focus == focusDetail {
		m = m.setFocus(focusList)
	}

	if m.activeTab == tabPages {
		m.cancelGridLoad()
	} else {
		m.cancelOverlayLoad()
	}
	m.activeTab = target

	var cmd tea.Cmd
	if target == tabPages {
		if m.pageDetail.editor != nil {
			cmd = m.issueGridLoad()
		}
	} else if m.todoDetail.overlay != nil {
		cmd = m.issueOverlayLoad()
	}
	return m, cmd
}

func (m model) enterDetail() model {
	if m.focus == focusDetail {
		return m
	}
	if m.activeTab == tabPages {
		if _, ok := m.currentPageItem(); !ok {
			return m
		}
	} else {
		if _, ok := m.currentTodoItem(); !ok {
			return m
		}
	}
	return m.setFocus(focusDetail)
}

func (m model) exitGrid() model {
	switch m.pageDetail.phase() {
	case page.PhaseSaving:
		m.feed.Warningf("Save in progress")
		return m
	case page.PhaseEditing:
		if m.pageDetail.Dirty() {
			m.modal = confirmModal{
				kind:        modalDiscardEdits,
				message:     "Discard unsaved edits?",
				confirmText: "Discard",
				cancelText:  "Keep editing",
				selected:    1,
			}
			return m
		}
		_ = m.pageDetail.editor.Cancel()
	}
	return m.setFocus(focusList)
}

func (m model) setFocus(target focusPane) model {
	if m.focus == target {
		return m
	}
	m.focus = target
	if target == focusDetail {
		if m.activeTab == tabPages {
			m.pageDetail.Focus()
		} else {
			m.todoDetail.Focus()
		}
		return m
	}
	m.pageDetail.Blur()
	m.todoDetail.Blur()
	return m
}

func (m model) openNewTodoPrompt() model {
	if m.selectedPageSlug == "" {
		m.feed.Warningf("Select a page first (tab 1)")
		return m
	}
	modal := newInputModal(modalNewTodo, fmt.Sprintf("New todo from page %s", m.selectedPageSlug))
	modal.subject = m.selectedPageSlug
	m.modal = modal
	return m
}

func (m *model) updatePageSelection() tea.Cmd {
	item, ok := m.currentPageItem()
	slug := ""
	if ok {
		slug = item.info.Slug
	}
	if slug == m.selectedPageSlug && ok && m.pageDetail.editor != nil {
		return nil
	}
	m.selectedPageSlug = slug
	m.cancelGridLoad()
	if slug == "" {
		m.pageDetail.SetEditor(nil)
		return nil
	}
	m.pageDetail.SetEditor(page.NewEditor(m.client, m.feed, slug))
	if m.activeTab != tabPages {
		return nil
	}
	return m.issueGridLoad()
}

func (m *model) updateTodoSelection() tea.Cmd {
	item, ok := m.currentTodoItem()
	id := ""
	if ok {
		id = item.todo.ID
	}
	if id == m.selectedTodoID && ok && m.todoDetail.overlay != nil {
		return nil
	}
	m.selectedTodoID = id
	m.cancelOverlayLoad()
	if id == "" {
		m.todoDetail.SetOverlay(nil)
		return nil
	}
	m.todoDetail.SetOverlay(todo.NewOverlay(m.client, m.feed, id))
	if m.activeTab != tabTodos {
		return nil
	}
	return m.issueOverlayLoad()
}

func (m *model) issueGridLoad() tea.Cmd {
	if m.pageDetail.editor == nil {
		return nil
	}
	m.cancelGridLoad()
	ctx, cancel := context.WithCancel(m.ctx)
	m.gridCancel = cancel
	m.gridSeq++
	m.pageDetail.loading = true
	return m.loadGridCmd(ctx, m.pageDetail.editor, m.gridSeq)
}

func (m *model) issueOverlayLoad() tea.Cmd {
	if m.todoDetail.overlay == nil {
		return nil
	}
	m.cancelOverlayLoad()
	ctx, cancel := context.WithCancel(m.ctx)
	m.overlayCancel = cancel
	m.overlaySeq++
	m.todoDetail.loading = true
	return m.loadOverlayCmd(ctx, m.todoDetail.overlay, m.overlaySeq)
}

func (m model) handlePagesLoaded(msg pagesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.pagesSeq {
		return m, nil
	}
	if msg.err != nil {
		if m.handleAuthFailure(msg.err) {
			return m, nil
		}
		m.feed.Errorf("Page load failed: %v", msg.err)
		return m, nil
	}
	items := make([]list.Item, 0, len(msg.pages))
	for _, info := range msg.pages {
		items = append(items, pageItem{info: info})
	}
	m.pageList.SetItems(items)
	if m.selectedPageSlug != "" {
		m.selectPageBySlug(m.selectedPageSlug)
	}
	if len(items) > 0 && m.pageList.Index() < 0 {
		m.pageList.Select(0)
	}
	cmd := m.updatePageSelection()
	return m, cmd
}

func (m model) handleTodosLoaded(msg todosLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.todosSeq {
		return m, nil
	}
	if msg.err != nil {
		if m.handleAuthFailure(msg.err) {
			return m, nil
		}
		m.feed.Errorf("Todo load failed: %v", msg.err)
		return m, nil
	}
	items := make([]list.Item, 0, len(msg.todos))
	for _, item := range msg.todos {
		items = append(items, todoItem{todo: item})
	}
	m.todoList.SetItems(items)
	if m.pendingTodoID != "" {
		m.selectTodoByID(m.pendingTodoID)
		m.pendingTodoID = ""
	} else if m.selectedTodoID != "" {
		m.selectTodoByID(m.selectedTodoID)
	}
	if len(items) > 0 && m.todoList.Index() < 0 {
		m.todoList.Select(0)
	}
	cmd := m.updateTodoSelection()
	return m, cmd
}

func (m model) handleGridLoaded(msg gridLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.gridSeq || msg.slug != m.selectedPageSlug {
		return m, nil
	}
	m.pageDetail.Loaded()
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return m, nil
		}
		if m.handleAuthFailure(msg.err) {
			return m, nil
		}
		m.feed.Errorf("Page load failed: %v", msg.err)
		return m, nil
	}
	// Only the owner can save, so gate edit mode up front.
	if data := m.pageDetail.editor.Canonical(); data != nil {
		user := m.sessions.Current().User
		m.pageDetail.editor.SetEditable(user != nil && user.ID == data.Owner.ID)
	}
	return m, nil
}

func (m model) handleOverlayLoaded(msg overlayLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.overlaySeq || msg.todoID != m.selectedTodoID {
		return m, nil
	}
	m.todoDetail.Loaded()
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return m, nil
		}
		if m.handleAuthFailure(msg.err) {
			return m, nil
		}
		m.feed.Errorf("Todo load failed: %v", msg.err)
	}
	return m, nil
}

func (m model) handlePageSaved(msg pageSavedMsg) (tea.Model, tea.Cmd) {
	if msg.slug == m.savingSlug {
		m.savingSlug = ""
	}
	if msg.err != nil {
		// The editor already posted the failure; only the session state
		// needs attention here.
		m.handleAuthFailure(msg.err)
		return m, nil
	}
	m.pagesSeq++
	return m, m.loadPagesCmd(m.pagesSeq)
}

func (m model) handleWidthSaved(msg widthSavedMsg) (tea.Model, tea.Cmd) {
	if msg.slug != m.selectedPageSlug {
		return m, nil
	}
	if msg.err != nil {
		m.pageDetail.DropWidthOverride(msg.colID)
		if m.handleAuthFailure(msg.err) {
			return m, nil
		}
		m.feed.Errorf("Width update failed: %v", msg.err)
	}
	return m, nil
}

func (m model) handleStatusCycled(msg statusCycledMsg) (tea.Model, tea.Cmd) {
	if m.todoDetail.overlay != nil && m.todoDetail.overlay.TodoID() == msg.todoID {
		m.todoDetail.EndCycle(msg.rowID)
	}
	if msg.err != nil {
		// The overlay already posted the failure and rolled the row back.
		m.handleAuthFailure(msg.err)
	}
	return m, nil
}

func (m model) handleTodoCreated(msg todoCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if m.handleAuthFailure(msg.err) {
			return m, nil
		}
		m.feed.Errorf("Create todo failed: %v", msg.err)
		return m, nil
	}
	m.feed.Successf("Created todo %s", msg.created.Name)
	m.pendingTodoID = msg.created.ID
	m.todosSeq++
	return m, m.loadTodosCmd(m.todosSeq)
}

// handleAuthFailure flips to the login view when the error is a 401. The
// session manager posts the expiry notification.
func (m *model) handleAuthFailure(err error) bool {
	if !m.sessions.HandleAuthError(err) {
		return false
	}
	m.cancelLoads()
	m.savingSlug = ""
	m.view = viewLogin
	m.login = newLoginModel()
	m.focus = focusList
	m.modal = confirmModal{kind: modalNone}
	// Drop everything tied to the dead session so a fresh sign-in reloads
	// from scratch.
	m.selectedPageSlug = ""
	m.selectedTodoID = ""
	m.pendingTodoID = ""
	m.pageDetail.SetEditor(nil)
	m.todoDetail.SetOverlay(nil)
	m.pageDetail.Blur()
	m.todoDetail.Blur()
	return true
}

func (m model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.modal.kind == modalHelp {
		switch key.String() {
		case "?", "esc":
			m.modal = confirmModal{kind: modalNone}
			return m, nil
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		return m, nil
	}
	if m.modal.hasInput {
		switch key.String() {
		case "enter":
			return m.resolveModal(true)
		case "esc":
			return m.resolveModal(false)
		case "ctrl+c":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.modal.input, cmd = m.modal.input.Update(msg)
		return m, cmd
	}
	selection := m.modal.selected
	switch key.String() {
	case "left", "right", "tab", "shift+tab", "backtab":
		if selection == 0 {
			selection = 1
		} else {
			selection = 0
		}
		m.modal.selected = selection
		return m, nil
	case "enter":
		return m.resolveModal(selection == 0)
	case "esc":
		return m.resolveModal(false)
	}
	return m, nil
}

func (m model) resolveModal(confirm bool) (tea.Model, tea.Cmd) {
	modal := m.modal
	m.modal = confirmModal{kind: modalNone}
	if !confirm {
		return m, nil
	}
	switch modal.kind {
	case modalDiscardEdits:
		return m.discardGridEdits(), nil
	case modalNewTodo:
		name := strings.TrimSpace(modal.input.Value())
		if name == "" {
			m.feed.Warningf("Todo name is required")
			return m, nil
		}
		return m, m.createTodoCmd(name, modal.subject)
	case modalAddColumn:
		if m.pageDetail.editor != nil {
			if err := m.pageDetail.editor.AddColumn(modal.input.Value()); err != nil {
				m.pageDetail.reportEditError(err)
			}
		}
		return m, nil
	}
	return m, nil
}

func (m model) discardGridEdits() model {
	if m.pageDetail.editor != nil {
		if err := m.pageDetail.editor.Cancel(); err != nil {
			m.feed.Warningf("Save in progress")
			return m
		}
	}
	m.pageDetail.closeInput()
	m = m.setFocus(focusList)
	m.feed.Infof("Edits discarded")
	return m
}

func (m model) currentPageItem() (pageItem, bool) {
	item := m.pageList.SelectedItem()
	if item == nil {
		return pageItem{}, false
	}
	current, ok := item.(pageItem)
	return current, ok
}

func (m model) currentTodoItem() (todoItem, bool) {
	item := m.todoList.SelectedItem()
	if item == nil {
		return todoItem{}, false
	}
	current, ok := item.(todoItem)
	return current, ok
}

func (m *model) resize() {
	contentHeight := m.height - 3
	if contentHeight < 1 {
		contentHeight = 1
	}
	leftWidth, rightWidth := splitWidths(m.width)
	listHeight := contentHeight - 2
	if listHeight < 1 {
		listHeight = 1
	}
	listWidth := leftWidth - 4
	if listWidth < 1 {
		listWidth = 1
	}
	innerDetailWidth := rightWidth - 4
	if innerDetailWidth < 1 {
		innerDetailWidth = 1
	}
	innerDetailHeight := contentHeight - 2
	if innerDetailHeight < 1 {
		innerDetailHeight = 1
	}
	m.pageList.SetSize(listWidth, listHeight)
	m.todoList.SetSize(listWidth, listHeight)
	m.pageDetail.SetSize(innerDetailWidth, innerDetailHeight)
	m.todoDetail.SetSize(innerDetailWidth, innerDetailHeight)
}

func splitWidths(width int) (int, int) {
	left := width / 3
	if left < 30 {
		left = 30
	}
	if left > width-20 {
		left = width / 2
	}
	right := width - left
	if right < 20 {
		right = 20
		left = width - right
	}
	return left, right
}

func (m model) renderTabs() string {
	labels := []string{"[1] Pages", "[2] Todos"}
	parts := make([]string, 0, len(labels))
	for i, label := range labels {
		style := tabInactiveStyle
		if (i == 0 && m.activeTab == tabPages) || (i == 1 && m.activeTab == tabTodos) {
			style = tabActiveStyle
		}
		parts = append(parts, style.Render(label))
	}
	content := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	helpHint := valueMuted.Render("Press ? for help")
	spacerWidth := m.width - lipgloss.Width(content) - lipgloss.Width(helpHint)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := strings.Repeat(" ", spacerWidth)
	return tabBarStyle.Width(m.width).Render(content + spacer + helpHint)
}

func (m model) renderPane(content string, width, height int, focused bool) string {
	style := paneStyle
	if focused {
		style = paneActiveStyle
	}
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return style.Width(width).Height(height).Render(content)
}

func (m model) renderStatusLine() string {
	if m.savingSlug != "" {
		return fmt.Sprintf("%s %s", m.spinner.View(), valueMuted.Render("Saving page "+m.savingSlug+"..."))
	}
	items := m.feed.Active()
	if len(items) == 0 {
		return ""
	}
	latest := items[len(items)-1]
	text := latest.Message
	if len(items) > 1 {
		text = fmt.Sprintf("%s (+%d more)", text, len(items)-1)
	}
	return severityStyle(latest.Severity).Render(truncateText(text, m.width))
}

func severityStyle(severity notify.Severity) lipgloss.Style {
	switch severity {
	case notify.SeverityError:
		return statusErrorStyle
	case notify.SeveritySuccess:
		return statusSuccessStyle
	case notify.SeverityWarning:
		return statusWarnStyle
	default:
		return valueMuted
	}
}

func (m model) renderHelpLine() string {
	text := internalstrings.TrimSpace(m.helpSummary())
	if text == "" {
		return ""
	}
	return helpBarStyle.Width(m.width).Render(truncateText(text, m.width))
}

func (m model) helpSummary() string {
	if m.activeTab == tabPages {
		if m.focus == focusDetail {
			if m.pageDetail.phase() == page.PhaseEditing {
				return "Keys: type into cell | enter commit | o add row | D delete row | + add column | </> width | e save | esc back"
			}
			return "Keys: arrows/hjkl move | e edit | </> width | esc back | ? help"
		}
		return "Keys: up/down move | enter open page | tab switch tabs | ctrl+k clear notices | ? help | q quit"
	}
	if m.focus == focusDetail {
		return "Keys: up/down move | space cycle status | esc back | ? help"
	}
	return "Keys: up/down move | enter open todo | n new todo | tab switch tabs | ? help | q quit"
}

func (m model) renderLoginView() string {
	statusLine := m.renderStatusLine()
	bodyHeight := m.height - 1
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, m.login.View())
	return body + "\n" + statusLine
}

func (m model) renderModalOverlay(content string) string {
	if m.modal.kind == modalNone {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.modalView())
}

func (m model) modalView() string {
	modalStyle := lipgloss.NewStyle().Border(borderASCII).Padding(1, 2)
	if m.modal.kind == modalHelp {
		return modalStyle.Render(m.helpContent())
	}
	if m.modal.hasInput {
		content := strings.Join([]string{
			m.modal.message,
			"",
			m.modal.input.View(),
			"",
			valueMuted.Render("enter: confirm | esc: cancel"),
		}, "\n")
		return modalStyle.Render(content)
	}
	options := []string{m.modal.confirmText, m.modal.cancelText}
	buttons := make([]string, 0, 2)
	for i, option := range options {
		style := valueMuted
		if i == m.modal.selected {
			style = selectedBorder
		}
		buttons = append(buttons, style.Render("["+option+"]"))
	}
	content := strings.Join([]string{m.modal.message, "", strings.Join(buttons, " ")}, "\n")
	return modalStyle.Render(content)
}

func newInputModal(kind modalKind, message string) confirmModal {
	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = page.MaxColumnNameLength
	input.Width = 32
	input.Focus()
	return confirmModal{kind: kind, message: message, input: input, hasInput: true}
}

func (m model) handleListNavigation(key string) (model, tea.Cmd, bool) {
	if m.focus != focusList {
		return m, nil, false
	}
	switch key {
	case "up", "k":
		return m.moveListSelection(-1)
	case "down", "j":
		return m.moveListSelection(1)
	case "home":
		return m.moveListSelection(-len(m.activeItems()))
	case "end":
		return m.moveListSelection(len(m.activeItems()))
	}
	return m, nil, false
}

func (m model) moveListSelection(delta int) (model, tea.Cmd, bool) {
	items := m.activeItems()
	if len(items) == 0 {
		return m, nil, true
	}
	current := m.activeIndex()
	if current < 0 {
		current = 0
	}
	next := current + delta
	if next < 0 {
		next = 0
	}
	if next >= len(items) {
		next = len(items) - 1
	}
	if next == current {
		return m, nil, true
	}
	if m.activeTab == tabPages {
		m.pageList.Select(next)
		cmd := m.updatePageSelection()
		return m, cmd, true
	}
	m.todoList.Select(next)
	cmd := m.updateTodoSelection()
	return m, cmd, true
}

func (m model) activeItems() []list.Item {
	if m.activeTab == tabTodos {
		return m.todoList.Items()
	}
	return m.pageList.Items()
}

func (m model) activeIndex() int {
	if m.activeTab == tabTodos {
		return m.todoList.Index()
	}
	return m.pageList.Index()
}

func (m model) openHelp() model {
	m.modal = confirmModal{kind: modalHelp}
	return m
}

func (m model) helpContent() string {
	sections := []string{
		labelStyle.Render("Global"),
		"q or ctrl+c: quit",
		"[ or ] / 1 or 2 / tab: switch tabs",
		"ctrl+k: clear notifications",
		"?: toggle help",
		"",
		labelStyle.Render("Navigation"),
		"up/down or j/k: move selection",
		"enter: focus detail pane",
		"esc: return to list",
		"",
		labelStyle.Render("Page grid"),
		"arrows or hjkl: move cell cursor",
		"e: start editing / save",
		"enter or typing: edit the cell",
		"o: add row, D: delete row",
		"+: add column, < or >: column width",
		"esc: discard cell / leave grid",
		"",
		labelStyle.Render("Todos"),
		"space: cycle row status",
		"n: new todo from the selected page",
		"",
		labelStyle.Render("Help"),
		"press ? or esc to close",
	}
	return strings.Join(sections, "\n")
}

func (m *model) cancelGridLoad() {
	if m.gridCancel != nil {
		m.gridCancel()
		m.gridCancel = nil
	}
}

func (m *model) cancelOverlayLoad() {
	if m.overlayCancel != nil {
		m.overlayCancel()
		m.overlayCancel = nil
	}
}

func (m *model) cancelLoads() {
	m.cancelGridLoad()
	m.cancelOverlayLoad()
}

func (m *model) selectPageBySlug(slug string) {
	if slug == "" {
		return
	}
	for i, item := range m.pageList.Items() {
		pageItem, ok := item.(pageItem)
		if ok && pageItem.info.Slug == slug {
			m.pageList.Select(i)
			return
		}
	}
}

func (m *model) selectTodoByID(id string) {
	if id == "" {
		return
	}
	for i, item := range m.todoList.Items() {
		todoItem, ok := item.(todoItem)
		if ok && todoItem.todo.ID == id {
			m.todoList.Select(i)
			return
		}
	}
}

func (m model) checkSessionCmd() tea.Cmd {
	return func() tea.Msg {
		err := m.sessions.Refresh(m.ctx)
		return sessionCheckedMsg{signedIn: m.sessions.SignedIn(), err: err}
	}
}

func (m model) loginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		return loginResultMsg{err: m.sessions.Login(m.ctx, email, password)}
	}
}

func (m model) loadPagesCmd(seq int) tea.Cmd {
	return func() tea.Msg {
		pages, err := m.client.ListPages(m.ctx)
		return pagesLoadedMsg{seq: seq, pages: pages, err: err}
	}
}

func (m model) loadTodosCmd(seq int) tea.Cmd {
	return func() tea.Msg {
		todos, err := m.client.ListTodos(m.ctx)
		return todosLoadedMsg{seq: seq, todos: todos, err: err}
	}
}

func (m model) loadGridCmd(ctx context.Context, editor *page.Editor, seq int) tea.Cmd {
	return func() tea.Msg {
		err := editor.Load(ctx)
		return gridLoadedMsg{seq: seq, slug: editor.Slug(), err: err}
	}
}

func (m model) loadOverlayCmd(ctx context.Context, overlay *todo.Overlay, seq int) tea.Cmd {
	return func() tea.Msg {
		err := overlay.Load(ctx)
		return overlayLoadedMsg{seq: seq, todoID: overlay.TodoID(), err: err}
	}
}

func (m model) saveGridCmd(editor *page.Editor) tea.Cmd {
	return func() tea.Msg {
		err := editor.Save(m.ctx, "")
		return pageSavedMsg{slug: editor.Slug(), err: err}
	}
}

func (m model) saveWidthCmd(slug, colID string, width int) tea.Cmd {
	return func() tea.Msg {
		err := m.client.UpdateColumnWidths(m.ctx, slug, []page.WidthUpdate{{ID: colID, Width: width}})
		return widthSavedMsg{slug: slug, colID: colID, err: err}
	}
}

func (m model) cycleStatusCmd(overlay *todo.Overlay, rowID string) tea.Cmd {
	return func() tea.Msg {
		_, err := overlay.CycleStatus(m.ctx, rowID)
		return statusCycledMsg{todoID: overlay.TodoID(), rowID: rowID, err: err}
	}
}

func (m model) createTodoCmd(name, pageSlug string) tea.Cmd {
	return func() tea.Msg {
		created, err := m.client.CreateTodo(m.ctx, todo.CreateInput{Name: name, PageSlug: pageSlug})
		return todoCreatedMsg{created: created, err: err}
	}
}

func (m model) tickCmd() tea.Cmd {
	return tea.Tick(feedTickInterval, func(time.Time) tea.Msg {
		return feedTickMsg{}
	})
}

type sessionCheckedMsg struct {
	signedIn bool
	err      error
}

type loginResultMsg struct {
	err error
}

type pagesLoadedMsg struct {
	seq   int
	pages []page.Info
	err   error
}

type todosLoadedMsg struct {
	seq   int
	todos []todo.Todo
	err   error
}

type gridLoadedMsg struct {
	seq  int
	slug string
	err  error
}

type overlayLoadedMsg struct {
	seq    int
	todoID string
	err    error
}

type pageSavedMsg struct {
	slug string
	err  error
}

type widthSavedMsg struct {
	slug  string
	colID string
	err   error
}

type statusCycledMsg struct {
	todoID string
	rowID  string
	err    error
}

type todoCreatedMsg struct {
	created *todo.Detail
	err     error
}

type feedTickMsg struct{}
