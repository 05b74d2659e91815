package sheettui

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"sheetctl/api"
	"sheetctl/notify"
	"sheetctl/page"
	"sheetctl/session"
	"sheetctl/todo"
)

func newTestModel(t *testing.T) model {
	t.Helper()
	client, err := api.New("http://sheets.test")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	feed := notify.NewFeed()
	m := newModel(context.Background(), client, session.NewManager(client, feed), feed)
	m.width = 100
	m.height = 30
	m.resize()
	m.view = viewMain
	return m
}

func testPageInfos() []page.Info {
	return []page.Info{
		{ID: "p1", Slug: "roadmap", Name: "Roadmap", Owner: session.User{ID: "u1", Username: "ana"}},
		{ID: "p2", Slug: "backlog", Name: "Backlog", Owner: session.User{ID: "u1", Username: "ana"}},
	}
}

func TestHandlePagesLoaded(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.handlePagesLoaded(pagesLoadedMsg{seq: m.pagesSeq, pages: testPageInfos()})
	m = updated.(model)

	if got := len(m.pageList.Items()); got != 2 {
		t.Fatalf("expected 2 items, got %d", got)
	}
	if m.selectedPageSlug != "roadmap" {
		t.Fatalf("expected first page selected, got %q", m.selectedPageSlug)
	}
	if m.pageDetail.editor == nil || m.pageDetail.editor.Slug() != "roadmap" {
		t.Fatalf("expected editor bound to roadmap")
	}
}

func TestHandlePagesLoadedKeepsSelection(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.handlePagesLoaded(pagesLoadedMsg{seq: m.pagesSeq, pages: testPageInfos()})
	m = updated.(model)
	m.pageList.Select(1)
	if cmd := m.updatePageSelection(); cmd == nil {
		t.Fatalf("expected a load command for the new selection")
	}
	if m.selectedPageSlug != "backlog" {
		t.Fatalf("expected backlog selected, got %q", m.selectedPageSlug)
	}

	// A reload with the same pages in a different order keeps the slug
	// selected.
	reordered := []page.Info{testPageInfos()[1], testPageInfos()[0]}
	updated, _ = m.handlePagesLoaded(pagesLoadedMsg{seq: m.pagesSeq, pages: reordered})
	m = updated.(model)
	if m.selectedPageSlug != "backlog" {
		t.Fatalf("expected selection kept, got %q", m.selectedPageSlug)
	}
	if m.pageList.Index() != 0 {
		t.Fatalf("expected backlog at index 0 after reorder, got %d", m.pageList.Index())
	}
}

func TestHandlePagesLoadedDropsStaleResult(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.handlePagesLoaded(pagesLoadedMsg{seq: m.pagesSeq, pages: testPageInfos()})
	m = updated.(model)

	updated, _ = m.handlePagesLoaded(pagesLoadedMsg{seq: m.pagesSeq + 5, pages: nil})
	m = updated.(model)
	if got := len(m.pageList.Items()); got != 2 {
		t.Fatalf("expected stale result dropped, got %d items", got)
	}
}

func TestHandleTodosLoadedSelectsPending(t *testing.T) {
	m := newTestModel(t)
	m.pendingTodoID = "t2"

	todos := []todo.Todo{
		{ID: "t1", Name: "First", Slug: "first", SourcePageSlug: "roadmap"},
		{ID: "t2", Name: "Second", Slug: "second", SourcePageSlug: "roadmap"},
	}
	updated, _ := m.handleTodosLoaded(todosLoadedMsg{seq: m.todosSeq, todos: todos})
	m = updated.(model)

	if m.todoList.Index() != 1 {
		t.Fatalf("expected pending todo selected, got index %d", m.todoList.Index())
	}
	if m.selectedTodoID != "t2" {
		t.Fatalf("expected t2 selected, got %q", m.selectedTodoID)
	}
	if m.pendingTodoID != "" {
		t.Fatalf("expected pending ID cleared, got %q", m.pendingTodoID)
	}
	if m.todoDetail.overlay == nil || m.todoDetail.overlay.TodoID() != "t2" {
		t.Fatalf("expected overlay bound to t2")
	}
}

func TestHandleLoginResult(t *testing.T) {
	m := newTestModel(t)
	m.view = viewLogin

	updated, _ := m.handleLoginResult(loginResultMsg{err: session.ErrBadCredentials})
	m = updated.(model)
	if m.view != viewLogin {
		t.Fatalf("expected to stay on login view")
	}
	if !feedHasMessage(m.feed, "Invalid email or password") {
		t.Fatalf("expected credentials notice, got %v", m.feed.Active())
	}

	updated, cmd := m.handleLoginResult(loginResultMsg{})
	m = updated.(model)
	if m.view != viewMain {
		t.Fatalf("expected main view after login")
	}
	if cmd == nil {
		t.Fatalf("expected initial load commands")
	}
}

func TestSessionCheckDecidesStartView(t *testing.T) {
	m := newTestModel(t)
	m.view = viewStartup

	updated, _ := m.handleSessionChecked(sessionCheckedMsg{signedIn: false})
	m = updated.(model)
	if m.view != viewLogin {
		t.Fatalf("expected login view for signed-out start, got %v", m.view)
	}

	m.view = viewStartup
	updated, cmd := m.handleSessionChecked(sessionCheckedMsg{signedIn: true})
	m = updated.(model)
	if m.view != viewMain {
		t.Fatalf("expected main view for signed-in start, got %v", m.view)
	}
	if cmd == nil {
		t.Fatalf("expected initial load commands")
	}
}

func TestTabKeys(t *testing.T) {
	m := newTestModel(t)

	updated, _, handled := m.handleKey(keyMsg("2"))
	if !handled {
		t.Fatalf("expected key handled")
	}
	m = updated
	if m.activeTab != tabTodos {
		t.Fatalf("expected todos tab")
	}

	updated, _, handled = m.handleKey(keyMsg("["))
	if !handled {
		t.Fatalf("expected key handled")
	}
	m = updated
	if m.activeTab != tabPages {
		t.Fatalf("expected pages tab")
	}
}

func TestHelpModal(t *testing.T) {
	m := newTestModel(t)

	updated, _, handled := m.handleKey(keyMsg("?"))
	if !handled {
		t.Fatalf("expected key handled")
	}
	m = updated
	if m.modal.kind != modalHelp {
		t.Fatalf("expected help modal")
	}

	closed, _ := m.updateModal(keyMsg("esc"))
	m = closed.(model)
	if m.modal.kind != modalNone {
		t.Fatalf("expected modal closed")
	}
}

func TestEnterDetailNeedsSelection(t *testing.T) {
	m := newTestModel(t)

	m = m.enterDetail()
	if m.focus != focusList {
		t.Fatalf("expected focus to stay on the list with nothing selected")
	}

	updated, _ := m.handlePagesLoaded(pagesLoadedMsg{seq: m.pagesSeq, pages: testPageInfos()})
	m = updated.(model)
	m = m.enterDetail()
	if m.focus != focusDetail {
		t.Fatalf("expected detail focus after selection exists")
	}
	if !m.pageDetail.focused {
		t.Fatalf("expected page detail focused")
	}
}

func TestExitGridDirtyConfirm(t *testing.T) {
	m := newTestModel(t)
	editor, _ := newLoadedEditor(t)
	m.selectedPageSlug = "roadmap"
	m.pageDetail.SetEditor(editor)
	m.pageDetail.Loaded()
	m = m.setFocus(focusDetail)

	if err := editor.EnterEdit(); err != nil {
		t.Fatalf("enter edit: %v", err)
	}
	if err := editor.SetCell(0, 0, "changed"); err != nil {
		t.Fatalf("set cell: %v", err)
	}

	m = m.exitGrid()
	if m.modal.kind != modalDiscardEdits {
		t.Fatalf("expected discard modal, got %v", m.modal.kind)
	}
	if m.focus != focusDetail {
		t.Fatalf("expected focus kept until confirmed")
	}

	resolved, _ := m.resolveModal(true)
	m = resolved.(model)
	if m.focus != focusList {
		t.Fatalf("expected focus back on the list")
	}
	if editor.Phase() != page.PhaseView {
		t.Fatalf("expected editor back in view phase, got %s", editor.Phase())
	}
	if m.pageDetail.Dirty() {
		t.Fatalf("expected edits discarded")
	}
	if !feedHasMessage(m.feed, "Edits discarded") {
		t.Fatalf("expected discard notice, got %v", m.feed.Active())
	}
}

func TestExitGridCleanCancelsQuietly(t *testing.T) {
	m := newTestModel(t)
	editor, _ := newLoadedEditor(t)
	m.selectedPageSlug = "roadmap"
	m.pageDetail.SetEditor(editor)
	m.pageDetail.Loaded()
	m = m.setFocus(focusDetail)

	if err := editor.EnterEdit(); err != nil {
		t.Fatalf("enter edit: %v", err)
	}

	m = m.exitGrid()
	if m.modal.kind != modalNone {
		t.Fatalf("expected no modal for a clean buffer")
	}
	if m.focus != focusList {
		t.Fatalf("expected focus back on the list")
	}
	if editor.Phase() != page.PhaseView {
		t.Fatalf("expected editor back in view phase, got %s", editor.Phase())
	}
}

func TestGridOwnsTextWhileEditing(t *testing.T) {
	m := newTestModel(t)
	editor, _ := newLoadedEditor(t)
	m.selectedPageSlug = "roadmap"
	m.pageDetail.SetEditor(editor)
	m.pageDetail.Loaded()
	m = m.setFocus(focusDetail)
	if err := editor.EnterEdit(); err != nil {
		t.Fatalf("enter edit: %v", err)
	}

	// "1" is a tab shortcut everywhere else, but an editing grid takes it
	// as cell text.
	updated, _, handled := m.handleKey(keyMsg("1"))
	if handled {
		t.Fatalf("expected rune key to fall through to the grid")
	}
	if updated.activeTab != tabPages {
		t.Fatalf("expected tab unchanged")
	}
}

func TestActivateTabBlockedWhileDirty(t *testing.T) {
	m := newTestModel(t)
	editor, _ := newLoadedEditor(t)
	m.selectedPageSlug = "roadmap"
	m.pageDetail.SetEditor(editor)
	m.pageDetail.Loaded()
	m = m.setFocus(focusDetail)
	if err := editor.EnterEdit(); err != nil {
		t.Fatalf("enter edit: %v", err)
	}
	if err := editor.SetCell(0, 0, "changed"); err != nil {
		t.Fatalf("set cell: %v", err)
	}

	updated, _ := m.activateTab(tabTodos)
	if updated.activeTab != tabPages {
		t.Fatalf("expected tab switch blocked while dirty")
	}
	if !feedHasMessage(updated.feed, "Finish or discard edits first (esc)") {
		t.Fatalf("expected dirty warning, got %v", updated.feed.Active())
	}
}

func TestGridLoadedAppliesOwnerGate(t *testing.T) {
	m := newTestModel(t)
	editor, _ := newLoadedEditor(t)
	m.selectedPageSlug = "roadmap"
	m.pageDetail.SetEditor(editor)
	m.gridSeq = 3
	if !editor.Editable() {
		t.Fatalf("expected a fresh editor to start editable")
	}

	updated, _ := m.handleGridLoaded(gridLoadedMsg{seq: 3, slug: "roadmap"})
	m = updated.(model)

	// Nobody is signed in, so the page cannot be owned by the viewer.
	if editor.Editable() {
		t.Fatalf("expected edit gate closed for non-owner")
	}
}

func TestAuthFailureFlipsToLogin(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.handlePagesLoaded(pagesLoadedMsg{seq: m.pagesSeq, pages: testPageInfos()})
	m = updated.(model)

	authErr := &api.Error{StatusCode: http.StatusUnauthorized, Message: "Authentication credentials were not provided."}
	updated, _ = m.handlePagesLoaded(pagesLoadedMsg{seq: m.pagesSeq, err: authErr})
	m = updated.(model)

	if m.view != viewLogin {
		t.Fatalf("expected login view after 401")
	}
	if m.selectedPageSlug != "" || m.pageDetail.editor != nil {
		t.Fatalf("expected stale selection dropped")
	}
}

func TestHandleWidthSavedError(t *testing.T) {
	m := newTestModel(t)
	m.selectedPageSlug = "roadmap"
	m.pageDetail.widthOverride["c1"] = 160

	failure := &api.Error{StatusCode: http.StatusBadRequest, Message: "Width value invalid"}
	updated, _ := m.handleWidthSaved(widthSavedMsg{slug: "roadmap", colID: "c1", err: failure})
	m = updated.(model)

	if _, ok := m.pageDetail.widthOverride["c1"]; ok {
		t.Fatalf("expected override dropped after rejection")
	}
	if !feedHasMessage(m.feed, "Width update failed: api: Width value invalid (status 400)") {
		t.Fatalf("expected failure notice, got %v", m.feed.Active())
	}
}

func TestHandleStatusCycledEndsPending(t *testing.T) {
	m := newTestModel(t)
	gateway := &stubTodoGateway{detail: testTodoDetail(), data: testPageData()}
	overlay := todo.NewOverlay(gateway, m.feed, "t1")
	m.selectedTodoID = "t1"
	m.todoDetail.SetOverlay(overlay)
	m.todoDetail.BeginCycle("r1", todo.StatusCompleted)

	updated, _ := m.handleStatusCycled(statusCycledMsg{todoID: "t1", rowID: "r1"})
	m = updated.(model)

	if _, ok := m.todoDetail.pending["r1"]; ok {
		t.Fatalf("expected pending override cleared")
	}
}

func TestStatusLine(t *testing.T) {
	useASCIIRenderer(t)
	m := newTestModel(t)

	if got := m.renderStatusLine(); got != "" {
		t.Fatalf("expected empty status line, got %q", got)
	}

	m.feed.Errorf("Save failed: boom")
	if got := m.renderStatusLine(); !strings.Contains(got, "Save failed: boom") {
		t.Fatalf("expected latest notice, got %q", got)
	}

	m.feed.Warningf("Second notice")
	got := m.renderStatusLine()
	if !strings.Contains(got, "Second notice") || !strings.Contains(got, "(+1 more)") {
		t.Fatalf("expected newest notice with more-count, got %q", got)
	}

	m.savingSlug = "roadmap"
	if got := m.renderStatusLine(); !strings.Contains(got, "Saving page roadmap") {
		t.Fatalf("expected saving indicator, got %q", got)
	}
}

func TestMainViewSmoke(t *testing.T) {
	useASCIIRenderer(t)
	m := newTestModel(t)

	view := m.View()
	for _, want := range []string{"[1] Pages", "[2] Todos", "Press ? for help", "No page selected", "q quit"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q:\n%s", want, view)
		}
	}
}

func TestLoginViewSmoke(t *testing.T) {
	useASCIIRenderer(t)
	m := newTestModel(t)
	m.view = viewLogin

	view := m.View()
	for _, want := range []string{"Sign in", "Email", "Password"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q:\n%s", want, view)
		}
	}
}

func TestNewTodoPromptNeedsPage(t *testing.T) {
	m := newTestModel(t)
	m.activeTab = tabTodos

	m = m.openNewTodoPrompt()
	if m.modal.kind != modalNone {
		t.Fatalf("expected no modal without a selected page")
	}
	if !feedHasMessage(m.feed, "Select a page first (tab 1)") {
		t.Fatalf("expected page hint, got %v", m.feed.Active())
	}

	m.selectedPageSlug = "roadmap"
	m = m.openNewTodoPrompt()
	if m.modal.kind != modalNewTodo {
		t.Fatalf("expected new-todo modal")
	}
	if m.modal.subject != "roadmap" {
		t.Fatalf("expected modal bound to roadmap, got %q", m.modal.subject)
	}
}

func TestResolveNewTodoModal(t *testing.T) {
	m := newTestModel(t)
	m.selectedPageSlug = "roadmap"
	m = m.openNewTodoPrompt()

	// Empty names are rejected without a command.
	resolved, cmd := m.resolveModal(true)
	m = resolved.(model)
	if cmd != nil {
		t.Fatalf("expected no command for empty name")
	}
	if !feedHasMessage(m.feed, "Todo name is required") {
		t.Fatalf("expected name warning, got %v", m.feed.Active())
	}

	m = m.openNewTodoPrompt()
	m.modal.input.SetValue("Launch checklist")
	resolved, cmd = m.resolveModal(true)
	m = resolved.(model)
	if cmd == nil {
		t.Fatalf("expected create command")
	}
	if m.modal.kind != modalNone {
		t.Fatalf("expected modal closed")
	}
}
