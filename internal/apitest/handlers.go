package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	internalstrings "sheetctl/internal/strings"
	"sheetctl/page"
	"sheetctl/todo"
)

func (s *Server) handleCSRF(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	token := s.newID("csrf")
	s.mu.Unlock()
	setCSRFCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]string{"message": "CSRF cookie set."})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		Password2 string `json:"password2"`
	}
	if !decodeBody(w, r, &input) {
		return
	}
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if input.Username == "" {
		writeFieldError(w, "username", "This field may not be blank.")
		return
	}
	if input.Email == "" {
		writeFieldError(w, "email", "This field may not be blank.")
		return
	}
	if input.Password == "" {
		writeFieldError(w, "password", "This field may not be blank.")
		return
	}
	if input.Password != input.Password2 {
		writeFieldError(w, "password2", "Password fields didn't match.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userByEmail(input.Email) != nil {
		writeFieldError(w, "email", "A user with this email address already exists.")
		return
	}
	if s.userByName(input.Username) != nil {
		writeFieldError(w, "username", "A user with this username already exists.")
		return
	}
	u := &user{
		id:       s.newID("u"),
		username: input.Username,
		email:    input.Email,
		password: input.Password,
		active:   true,
	}
	s.users = append(s.users, u)
	writeJSON(w, http.StatusCreated, userJSON(u))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &input) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userByEmail(input.Email)
	if u == nil || u.password != input.Password {
		writeErrorMessage(w, http.StatusUnauthorized, "Unable to log in with provided credentials.")
		return
	}
	if !u.active {
		writeErrorMessage(w, http.StatusForbidden, "This account has been disabled.")
		return
	}
	sid := s.newID("sess")
	s.sessions[sid] = u.id
	setSessionCookie(w, sid)
	setCSRFCookie(w, s.newID("csrf"))
	writeJSON(w, http.StatusOK, userJSON(u))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requireUser(w, r) == nil {
		return
	}
	if cookie, err := r.Cookie("sessionid"); err == nil {
		delete(s.sessions, cookie.Value)
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out."})
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.currentUser(r); u != nil {
		account := userJSON(u)
		writeJSON(w, http.StatusOK, map[string]any{"isAuthenticated": true, "user": account})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"isAuthenticated": false, "user": nil})
}

func (s *Server) handlePageList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requireUser(w, r) == nil {
		return
	}
	infos := make([]page.Info, 0, len(s.pages))
	for i := len(s.pages) - 1; i >= 0; i-- {
		infos = append(infos, s.pageInfo(s.pages[i]))
	}
	sort.SliceStable(infos, func(a, b int) bool {
		return infos[a].UpdatedAt.After(infos[b].UpdatedAt)
	})
	writePaginated(s, w, r, infos)
}

func (s *Server) handlePageCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &input) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	name := strings.TrimSpace(input.Name)
	if msg := pageNameError(name); msg != "" {
		writeFieldError(w, "name", msg)
		return
	}

	now := s.now()
	rec := &pageRecord{
		id:        s.newID("p"),
		name:      name,
		owner:     u.id,
		createdAt: now,
		updatedAt: now,
	}
	rec.slug = s.uniquePageSlug(pageSlugBase(name, rec.id))
	rec.columns = []page.Column{
		{ID: s.newID("c"), Name: "Column A", Order: 1, Width: page.DefaultColumnWidth},
		{ID: s.newID("c"), Name: "Column B", Order: 2, Width: page.DefaultColumnWidth},
	}
	s.pages = append(s.pages, rec)
	writeJSON(w, http.StatusCreated, s.pageInfo(rec))
}

func (s *Server) handlePageDetail(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requireUser(w, r) == nil {
		return
	}
	rec := s.pageBySlug(r.PathValue("slug"))
	if rec == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, s.pageInfo(rec))
}

func (s *Server) handlePageRename(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &input) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	rec := s.pageBySlug(r.PathValue("slug"))
	if rec == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if rec.owner != u.id {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}
	name := strings.TrimSpace(input.Name)
	if msg := pageNameError(name); msg != "" {
		writeFieldError(w, "name", msg)
		return
	}
	rec.name = name
	rec.updatedAt = s.now()
	writeJSON(w, http.StatusOK, s.pageInfo(rec))
}

func (s *Server) handlePageDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	slug := r.PathValue("slug")
	rec := s.pageBySlug(slug)
	if rec == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if rec.owner != u.id {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}

	pages := s.pages[:0]
	for _, p := range s.pages {
		if p.slug != slug {
			pages = append(pages, p)
		}
	}
	s.pages = pages
	todos := s.todos[:0]
	for _, t := range s.todos {
		if t.pageSlug != slug {
			todos = append(todos, t)
		}
	}
	s.todos = todos
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePageData(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requireUser(w, r) == nil {
		return
	}
	rec := s.pageBySlug(r.PathValue("slug"))
	if rec == nil {
		writeDetail(w, http.StatusNotFound, "Page not found.")
		return
	}
	writeJSON(w, http.StatusOK, s.pageData(rec))
}

func (s *Server) handlePageSave(w http.ResponseWriter, r *http.Request) {
	var payload page.SavePayload
	if !decodeBody(w, r, &payload) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	rec := s.pageBySlug(r.PathValue("slug"))
	if rec == nil {
		writeDetail(w, http.StatusNotFound, "Page not found.")
		return
	}
	if rec.owner != u.id {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}
	if field, msg := validateSavePayload(payload); field != "" {
		writeFieldError(w, field, msg)
		return
	}

	columnIDs := make(map[string]bool, len(rec.columns))
	for _, col := range rec.columns {
		columnIDs[col.ID] = true
	}
	rowIDs := make(map[string]bool, len(rec.rows))
	for _, row := range rec.rows {
		rowIDs[row.ID] = true
	}

	columns := make([]page.Column, len(payload.Columns))
	for i, col := range payload.Columns {
		id := ""
		if col.ID != nil && *col.ID != "" {
			if !columnIDs[*col.ID] {
				writeJSON(w, http.StatusBadRequest, []string{
					fmt.Sprintf("Invalid payload: Column ID '%s' does not exist for this page.", *col.ID),
				})
				return
			}
			id = *col.ID
		} else {
			id = s.newID("c")
		}
		width := col.Width
		if width == 0 {
			width = page.DefaultColumnWidth
		}
		columns[i] = page.Column{ID: id, Name: strings.TrimSpace(col.Name), Order: col.Order, Width: width}
	}
	rows := make([]page.Row, len(payload.Rows))
	for i, row := range payload.Rows {
		id := ""
		if row.ID != nil && *row.ID != "" {
			if !rowIDs[*row.ID] {
				writeJSON(w, http.StatusBadRequest, []string{
					fmt.Sprintf("Invalid payload: Row ID '%s' does not exist for this page.", *row.ID),
				})
				return
			}
			id = *row.ID
		} else {
			id = s.newID("r")
		}
		rows[i] = page.Row{ID: id, Order: row.Order, Cells: append([]string(nil), row.Cells...)}
	}
	sort.Slice(columns, func(a, b int) bool { return columns[a].Order < columns[b].Order })
	sort.Slice(rows, func(a, b int) bool { return rows[a].Order < rows[b].Order })

	rec.columns = columns
	rec.rows = rows
	rec.updatedAt = s.now()

	// Status entries for rows that no longer exist go away with them.
	liveRows := make(map[string]bool, len(rows))
	for _, row := range rows {
		liveRows[row.ID] = true
	}
	for _, t := range s.todos {
		if t.pageSlug != rec.slug {
			continue
		}
		kept := t.statuses[:0]
		for _, entry := range t.statuses {
			if liveRows[entry.rowID] {
				kept = append(kept, entry)
			}
		}
		t.statuses = kept
	}

	commit := payload.CommitMessage
	if commit == "" {
		commit = "Page updated via API"
	}
	account := userJSON(u)
	snapshot, _ := marshalSnapshot(rec)
	rec.versions = append(rec.versions, page.Version{
		ID:            s.newID("v"),
		PageSlug:      rec.slug,
		User:          &account,
		Timestamp:     rec.updatedAt,
		CommitMessage: commit,
		DataSnapshot:  snapshot,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Page saved successfully"})
}

func (s *Server) handlePageWidths(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Updates []page.WidthUpdate `json:"updates"`
	}
	if !decodeBody(w, r, &input) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	rec := s.pageBySlug(r.PathValue("slug"))
	if rec == nil {
		writeDetail(w, http.StatusNotFound, "Page not found.")
		return
	}
	if rec.owner != u.id {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}
	if input.Updates == nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"error": {"Invalid data format: 'updates' must be a list."},
		})
		return
	}

	var errs []string
	var ids []string
	for _, update := range input.Updates {
		if update.ID == "" {
			errs = append(errs, "Missing 'id' or 'width' in update item.")
			continue
		}
		if findColumn(rec, update.ID) == nil {
			errs = append(errs, fmt.Sprintf("Column with id '%s' not found for this page.", update.ID))
			continue
		}
		if update.Width < page.MinColumnWidth || update.Width > page.MaxColumnWidth {
			errs = append(errs, fmt.Sprintf(
				"Invalid width value '%d' for column id '%s': Width must be between 10 and 2000 pixels.",
				update.Width, update.ID))
			continue
		}
		ids = append(ids, update.ID)
	}
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"errors": errs})
		return
	}
	for _, update := range input.Updates {
		findColumn(rec, update.ID).Width = update.Width
	}
	if len(ids) > 0 {
		rec.updatedAt = s.now()
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Widths updated for columns: " + formatIDList(ids),
	})
}

func (s *Server) handlePageVersions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requireUser(w, r) == nil {
		return
	}
	rec := s.pageBySlug(r.PathValue("slug"))
	if rec == nil {
		writeDetail(w, http.StatusNotFound, "Page not found.")
		return
	}
	versions := make([]page.Version, 0, len(rec.versions))
	for i := len(rec.versions) - 1; i >= 0; i-- {
		versions = append(versions, rec.versions[i])
	}
	writePaginated(s, w, r, versions)
}

func (s *Server) handleTodoList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	todos := make([]todo.Todo, 0, len(s.todos))
	for i := len(s.todos) - 1; i >= 0; i-- {
		t := s.todos[i]
		if t.personal && t.creator != u.id {
			continue
		}
		todos = append(todos, s.todoSummary(t))
	}
	writePaginated(s, w, r, todos)
}

func (s *Server) handleTodoCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name       string `json:"name"`
		PageSlug   string `json:"source_page_slug"`
		IsPersonal *bool  `json:"is_personal"`
	}
	if !decodeBody(w, r, &input) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		writeFieldError(w, "name", "This field may not be blank.")
		return
	}
	rec := s.pageBySlug(input.PageSlug)
	if rec == nil {
		writeFieldError(w, "source_page_slug", "Source page not found.")
		return
	}
	personal := true
	if input.IsPersonal != nil {
		personal = *input.IsPersonal
	}

	now := s.now()
	id := s.newID("t")
	t := &todoRecord{
		id:        id,
		name:      name,
		slug:      s.uniqueTodoSlug(rec.slug, todoSlugBase(name, id)),
		pageSlug:  rec.slug,
		creator:   u.id,
		personal:  personal,
		createdAt: now,
		updatedAt: now,
	}
	for _, row := range rec.rows {
		t.statuses = append(t.statuses, statusRecord{
			id:        s.newID("s"),
			rowID:     row.ID,
			status:    todo.StatusNotStarted,
			updatedAt: now,
		})
	}
	s.todos = append(s.todos, t)
	writeJSON(w, http.StatusCreated, s.todoDetail(t))
}

func (s *Server) handleTodoDetail(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	t := s.todoByID(r.PathValue("id"))
	if t == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if t.personal && t.creator != u.id {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}
	writeJSON(w, http.StatusOK, s.todoDetail(t))
}

func (s *Server) handleTodoDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	t := s.todoByID(r.PathValue("id"))
	if t == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if t.creator != u.id {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}
	todos := s.todos[:0]
	for _, other := range s.todos {
		if other.id != t.id {
			todos = append(todos, other)
		}
	}
	s.todos = todos
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTodoStatus(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &input) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	t := s.todoByID(r.PathValue("id"))
	if t == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if t.personal && t.creator != u.id {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}
	rowID := r.PathValue("rowID")
	var entry *statusRecord
	for i := range t.statuses {
		if t.statuses[i].rowID == rowID {
			entry = &t.statuses[i]
		}
	}
	if entry == nil {
		writeDetail(w, http.StatusNotFound, "Status entry not found for this row and ToDo list.")
		return
	}
	status := todo.Status(input.Status)
	if !status.IsValid() {
		writeFieldError(w, "status", fmt.Sprintf("\"%s\" is not a valid choice.", input.Status))
		return
	}
	entry.status = status
	entry.updatedAt = s.now()
	t.updatedAt = entry.updatedAt
	writeJSON(w, http.StatusOK, s.statusEntry(t, *entry))
}

// writePaginated answers one page of items in the server's list envelope.
// Callers hold mu.
func writePaginated[T any](s *Server, w http.ResponseWriter, r *http.Request, items []T) {
	number := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeDetail(w, http.StatusNotFound, "Invalid page.")
			return
		}
		number = parsed
	}
	start := (number - 1) * s.pageSize
	if number > 1 && start >= len(items) {
		writeDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}
	end := min(start+s.pageSize, len(items))
	results := make([]T, 0, end-start)
	results = append(results, items[start:end]...)

	envelope := struct {
		Count    int     `json:"count"`
		Next     *string `json:"next"`
		Previous *string `json:"previous"`
		Results  []T     `json:"results"`
	}{Count: len(items), Results: results}
	if end < len(items) {
		next := fmt.Sprintf("%s?page=%d", r.URL.Path, number+1)
		envelope.Next = &next
	}
	if number > 1 {
		previous := r.URL.Path
		if number > 2 {
			previous = fmt.Sprintf("%s?page=%d", r.URL.Path, number-1)
		}
		envelope.Previous = &previous
	}
	writeJSON(w, http.StatusOK, envelope)
}

// validateSavePayload mirrors the server's checks in order: per-item field
// limits, column list shape, row list shape, then per-row cell counts. It
// returns the failing field and message, or two empty strings.
func validateSavePayload(payload page.SavePayload) (string, string) {
	for _, col := range payload.Columns {
		if strings.TrimSpace(col.Name) == "" {
			return "columns", "This field may not be blank."
		}
		if utf8.RuneCountInString(col.Name) > page.MaxColumnNameLength {
			return "columns", fmt.Sprintf("Ensure this field has no more than %d characters.", page.MaxColumnNameLength)
		}
		if col.Order < 1 {
			return "columns", "Ensure this value is greater than or equal to 1."
		}
		if col.Width != 0 {
			if col.Width < page.MinColumnWidth {
				return "columns", fmt.Sprintf("Ensure this value is greater than or equal to %d.", page.MinColumnWidth)
			}
			if col.Width > page.MaxColumnWidth {
				return "columns", fmt.Sprintf("Ensure this value is less than or equal to %d.", page.MaxColumnWidth)
			}
		}
	}
	if len(payload.Columns) == 0 {
		return "columns", "Page must have at least one column."
	}
	orders := make([]int, len(payload.Columns))
	for i, col := range payload.Columns {
		orders[i] = col.Order
	}
	if msg := denseOrderError("Column", orders); msg != "" {
		return "columns", msg
	}
	seen := make(map[string]bool, len(payload.Columns))
	for _, col := range payload.Columns {
		lower := internalstrings.NormalizeLowerTrimSpace(col.Name)
		if seen[lower] {
			return "columns", "Column names must be unique (case-insensitive)."
		}
		seen[lower] = true
	}

	for _, row := range payload.Rows {
		if row.Order < 1 {
			return "rows", "Ensure this value is greater than or equal to 1."
		}
	}
	if len(payload.Rows) > 0 {
		orders = make([]int, len(payload.Rows))
		for i, row := range payload.Rows {
			orders[i] = row.Order
		}
		if msg := denseOrderError("Row", orders); msg != "" {
			return "rows", msg
		}
	}
	for i, row := range payload.Rows {
		if len(row.Cells) != len(payload.Columns) {
			return fmt.Sprintf("rows[%d].cells", i),
				fmt.Sprintf("Incorrect number of cells. Expected %d, got %d.", len(payload.Columns), len(row.Cells))
		}
	}
	return "", ""
}

// denseOrderError checks that orders are exactly 1..N in some arrangement.
func denseOrderError(kind string, orders []int) string {
	sorted := append([]int(nil), orders...)
	sort.Ints(sorted)
	for i, order := range sorted {
		if order != i+1 {
			return fmt.Sprintf("%s orders must be unique and sequential from 1 to %d. Received orders: %s",
				kind, len(orders), formatIntList(sorted))
		}
	}
	return ""
}

func pageNameError(name string) string {
	if name == "" {
		return "This field may not be blank."
	}
	if utf8.RuneCountInString(name) > 255 {
		return "Ensure this field has no more than 255 characters."
	}
	return ""
}

func findColumn(rec *pageRecord, id string) *page.Column {
	for i := range rec.columns {
		if rec.columns[i].ID == id {
			return &rec.columns[i]
		}
	}
	return nil
}

func marshalSnapshot(rec *pageRecord) ([]byte, error) {
	return json.Marshal(map[string]any{
		"columns": rec.columns,
		"rows":    rec.rows,
	})
}

// formatIntList renders ints the way the server prints order lists: [1, 3].
func formatIntList(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// formatIDList renders ids the way the server prints them: ['c1', 'c2'].
func formatIDList(ids []string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "'" + id + "'"
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
