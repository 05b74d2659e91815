// Package apitest provides an in-memory sheet service for tests.
//
// The Server implements the REST surface the client consumes with the real
// backend's semantics: cookie sessions, CSRF double-submit on mutating
// verbs, paginated list envelopes, whole-grid save validation, version
// snapshots, and cascade deletes. Tests mount it with httptest.NewServer,
// seed state through SeedUser, SeedPage, and SeedTodo, and inspect traffic
// through Requests. FailNext injects one canned failure for the next
// matching request.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	internalstrings "sheetctl/internal/strings"
	"sheetctl/page"
	"sheetctl/session"
	"sheetctl/todo"
)

// Request is one captured request, recorded before any routing or CSRF
// checks run.
type Request struct {
	Method    string
	Path      string
	CSRFToken string
	Body      []byte
}

type user struct {
	id       string
	username string
	email    string
	password string
	active   bool
}

type pageRecord struct {
	id        string
	name      string
	slug      string
	owner     string
	columns   []page.Column
	rows      []page.Row
	createdAt time.Time
	updatedAt time.Time
	versions  []page.Version
}

type todoRecord struct {
	id        string
	name      string
	slug      string
	pageSlug  string
	creator   string
	personal  bool
	statuses  []statusRecord
	createdAt time.Time
	updatedAt time.Time
}

type statusRecord struct {
	id        string
	rowID     string
	status    todo.Status
	updatedAt time.Time
}

type failure struct {
	method string
	path   string
	status int
	body   string
}

// Server is the fake backend. The zero value is not usable; construct with
// NewServer.
type Server struct {
	mux *http.ServeMux

	mu       sync.Mutex
	users    []*user
	sessions map[string]string
	pages    []*pageRecord
	todos    []*todoRecord
	requests []Request
	failures []failure
	pageSize int
	nextID   map[string]int
	clock    time.Time
}

// NewServer returns an empty fake with the default page size of 20.
func NewServer() *Server {
	s := &Server{
		sessions: make(map[string]string),
		pageSize: 20,
		nextID:   make(map[string]int),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/csrf/{$}", s.handleCSRF)
	mux.HandleFunc("POST /auth/register/{$}", s.handleRegister)
	mux.HandleFunc("POST /auth/login/{$}", s.handleLogin)
	mux.HandleFunc("POST /auth/logout/{$}", s.handleLogout)
	mux.HandleFunc("GET /auth/status/{$}", s.handleAuthStatus)

	mux.HandleFunc("GET /pages/{$}", s.handlePageList)
	mux.HandleFunc("POST /pages/{$}", s.handlePageCreate)
	mux.HandleFunc("GET /pages/{slug}/{$}", s.handlePageDetail)
	mux.HandleFunc("PATCH /pages/{slug}/{$}", s.handlePageRename)
	mux.HandleFunc("DELETE /pages/{slug}/{$}", s.handlePageDelete)
	mux.HandleFunc("GET /pages/{slug}/data/{$}", s.handlePageData)
	mux.HandleFunc("POST /pages/{slug}/save/{$}", s.handlePageSave)
	mux.HandleFunc("POST /pages/{slug}/columns/width/{$}", s.handlePageWidths)
	mux.HandleFunc("GET /pages/{slug}/versions/{$}", s.handlePageVersions)

	mux.HandleFunc("GET /todos/{$}", s.handleTodoList)
	mux.HandleFunc("POST /todos/{$}", s.handleTodoCreate)
	mux.HandleFunc("GET /todos/{id}/{$}", s.handleTodoDetail)
	mux.HandleFunc("DELETE /todos/{id}/{$}", s.handleTodoDelete)
	mux.HandleFunc("PATCH /todos/{id}/status/{rowID}/{$}", s.handleTodoStatus)
	s.mux = mux
	return s
}

// ServeHTTP records the request, serves any injected failure, enforces the
// CSRF double-submit on mutating verbs, and then routes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:    r.Method,
		Path:      r.URL.Path,
		CSRFToken: r.Header.Get("X-CSRFToken"),
		Body:      body,
	})
	injected := s.popFailure(r.Method, r.URL.Path)
	s.mu.Unlock()

	if injected != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(injected.status)
		_, _ = io.WriteString(w, injected.body)
		return
	}
	if isMutating(r.Method) && !csrfOK(r) {
		writeDetail(w, http.StatusForbidden, "CSRF Failed: CSRF token missing or incorrect.")
		return
	}
	s.mux.ServeHTTP(w, r)
}

// SeedUser creates an active account and returns it.
func (s *Server) SeedUser(username, email, password string) session.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &user{
		id:       s.newID("u"),
		username: username,
		email:    email,
		password: password,
		active:   true,
	}
	s.users = append(s.users, u)
	return userJSON(u)
}

// DisableUser deactivates the account with the given email. Logins fail
// afterwards; existing sessions stay live.
func (s *Server) DisableUser(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userByEmail(email)
	if u == nil {
		panic("apitest: no user with email " + email)
	}
	u.active = false
}

// SeedPage creates a page owned by the given user with the named columns
// and row cells. Ids, dense orders, and default widths are assigned; every
// row must have one cell per column.
func (s *Server) SeedPage(ownerEmail, name string, columns []string, rows [][]string) page.Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner := s.userByEmail(ownerEmail)
	if owner == nil {
		panic("apitest: no user with email " + ownerEmail)
	}

	now := s.now()
	rec := &pageRecord{
		id:        s.newID("p"),
		name:      name,
		owner:     owner.id,
		createdAt: now,
		updatedAt: now,
	}
	rec.slug = s.uniquePageSlug(pageSlugBase(name, rec.id))
	for i, columnName := range columns {
		rec.columns = append(rec.columns, page.Column{
			ID:    s.newID("c"),
			Name:  columnName,
			Order: i + 1,
			Width: page.DefaultColumnWidth,
		})
	}
	for i, cells := range rows {
		if len(cells) != len(columns) {
			panic(fmt.Sprintf("apitest: row %d has %d cells for %d columns", i, len(cells), len(columns)))
		}
		rec.rows = append(rec.rows, page.Row{
			ID:    s.newID("r"),
			Order: i + 1,
			Cells: append([]string(nil), cells...),
		})
	}
	s.pages = append(s.pages, rec)
	return s.pageData(rec)
}

// SeedTodo creates a todo over a seeded page with one NOT_STARTED entry per
// current row.
func (s *Server) SeedTodo(creatorEmail, pageSlug, name string, personal bool) todo.Detail {
	s.mu.Lock()
	defer s.mu.Unlock()
	creator := s.userByEmail(creatorEmail)
	if creator == nil {
		panic("apitest: no user with email " + creatorEmail)
	}
	rec := s.pageBySlug(pageSlug)
	if rec == nil {
		panic("apitest: no page with slug " + pageSlug)
	}

	now := s.now()
	id := s.newID("t")
	t := &todoRecord{
		id:        id,
		name:      name,
		slug:      s.uniqueTodoSlug(pageSlug, todoSlugBase(name, id)),
		pageSlug:  pageSlug,
		creator:   creator.id,
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
	return s.todoDetail(t)
}

// FailNext queues a canned response for the next request matching the
// method and path. Queued failures are consumed in order, before routing
// and CSRF checks.
func (s *Server) FailNext(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, path: path, status: status, body: body})
}

// SetPageSize changes the list pagination size.
func (s *Server) SetPageSize(size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = size
}

// Requests returns a copy of every request seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) popFailure(method, path string) *failure {
	for i, f := range s.failures {
		if f.method == method && f.path == path {
			s.failures = append(s.failures[:i], s.failures[i+1:]...)
			return &f
		}
	}
	return nil
}

// now advances the fake clock one second per call, so record timestamps are
// distinct and ordering is deterministic.
func (s *Server) now() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Server) newID(prefix string) string {
	s.nextID[prefix]++
	return fmt.Sprintf("%s%d", prefix, s.nextID[prefix])
}

// Lookups below assume mu is held.

func (s *Server) userByID(id string) *user {
	for _, u := range s.users {
		if u.id == id {
			return u
		}
	}
	return nil
}

func (s *Server) userByEmail(email string) *user {
	for _, u := range s.users {
		if strings.EqualFold(u.email, email) {
			return u
		}
	}
	return nil
}

func (s *Server) userByName(username string) *user {
	for _, u := range s.users {
		if u.username == username {
			return u
		}
	}
	return nil
}

func (s *Server) pageBySlug(slug string) *pageRecord {
	for _, p := range s.pages {
		if p.slug == slug {
			return p
		}
	}
	return nil
}

func (s *Server) todoByID(id string) *todoRecord {
	for _, t := range s.todos {
		if t.id == id {
			return t
		}
	}
	return nil
}

func (s *Server) todoBySlug(pageSlug, slug string) *todoRecord {
	for _, t := range s.todos {
		if t.pageSlug == pageSlug && t.slug == slug {
			return t
		}
	}
	return nil
}

func (s *Server) uniquePageSlug(base string) string {
	slug := base
	for counter := 1; s.pageBySlug(slug) != nil; counter++ {
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
	return slug
}

func (s *Server) uniqueTodoSlug(pageSlug, base string) string {
	slug := base
	for counter := 1; s.todoBySlug(pageSlug, slug) != nil; counter++ {
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
	return slug
}

// currentUser resolves the session cookie to an account, or nil.
func (s *Server) currentUser(r *http.Request) *user {
	cookie, err := r.Cookie("sessionid")
	if err != nil {
		return nil
	}
	id, ok := s.sessions[cookie.Value]
	if !ok {
		return nil
	}
	return s.userByID(id)
}

// requireUser writes a 401 and returns nil when the request carries no live
// session.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) *user {
	u := s.currentUser(r)
	if u == nil {
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
	}
	return u
}

// Projections below assume mu is held.

func userJSON(u *user) session.User {
	return session.User{ID: u.id, Username: u.username, Email: u.email}
}

func (s *Server) pageInfo(p *pageRecord) page.Info {
	return page.Info{
		ID:        p.id,
		Name:      p.name,
		Slug:      p.slug,
		Owner:     userJSON(s.userByID(p.owner)),
		CreatedAt: p.createdAt,
		UpdatedAt: p.updatedAt,
	}
}

func (s *Server) pageData(p *pageRecord) page.Data {
	data := page.Data{
		ID:      p.id,
		Name:    p.name,
		Slug:    p.slug,
		Owner:   userJSON(s.userByID(p.owner)),
		Columns: append([]page.Column(nil), p.columns...),
	}
	for _, row := range p.rows {
		data.Rows = append(data.Rows, row.Clone())
	}
	return data
}

func (s *Server) todoSummary(t *todoRecord) todo.Todo {
	rec := s.pageBySlug(t.pageSlug)
	return todo.Todo{
		ID:             t.id,
		Name:           t.name,
		Slug:           t.slug,
		SourcePageSlug: t.pageSlug,
		SourcePageName: rec.name,
		Creator:        userJSON(s.userByID(t.creator)),
		IsPersonal:     t.personal,
		CreatedAt:      t.createdAt,
	}
}

// todoDetail projects a todo with its statuses in source-row order. Row
// orders come from the current page, not the stored entry.
func (s *Server) todoDetail(t *todoRecord) todo.Detail {
	rec := s.pageBySlug(t.pageSlug)
	detail := todo.Detail{
		ID:         t.id,
		Name:       t.name,
		Slug:       t.slug,
		SourcePage: s.pageInfo(rec),
		Creator:    userJSON(s.userByID(t.creator)),
		IsPersonal: t.personal,
		Statuses:   []todo.StatusEntry{},
		CreatedAt:  t.createdAt,
		UpdatedAt:  t.updatedAt,
	}
	for _, row := range rec.rows {
		for _, entry := range t.statuses {
			if entry.rowID == row.ID {
				detail.Statuses = append(detail.Statuses, s.statusEntry(t, entry))
			}
		}
	}
	return detail
}

func (s *Server) statusEntry(t *todoRecord, entry statusRecord) todo.StatusEntry {
	order := 0
	if rec := s.pageBySlug(t.pageSlug); rec != nil {
		for _, row := range rec.rows {
			if row.ID == entry.rowID {
				order = row.Order
			}
		}
	}
	return todo.StatusEntry{
		ID:        entry.id,
		RowID:     entry.rowID,
		RowOrder:  order,
		Status:    entry.status,
		UpdatedAt: entry.updatedAt,
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// csrfOK checks the double-submit pair: the csrftoken cookie must exist and
// match the X-CSRFToken header.
func csrfOK(r *http.Request) bool {
	cookie, err := r.Cookie("csrftoken")
	if err != nil {
		return false
	}
	return cookie.Value != "" && r.Header.Get("X-CSRFToken") == cookie.Value
}

func setSessionCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: value, Path: "/", HttpOnly: true})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "", Path: "/", MaxAge: -1})
}

func setCSRFCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: value, Path: "/"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeFieldError(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusBadRequest, map[string][]string{field: {message}})
}

// decodeBody unmarshals a JSON request body, answering 400 on garbage.
func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error.")
		return false
	}
	return true
}

// slugify reduces a name to lowercase letters, digits, and hyphens, the way
// the server generates slugs.
func slugify(name string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range internalstrings.NormalizeLowerTrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphen = false
		case r == ' ' || r == '-' || r == '_':
			if !hyphen && b.Len() > 0 {
				b.WriteByte('-')
				hyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func pageSlugBase(name, id string) string {
	if slug := slugify(name); slug != "" {
		return slug
	}
	return "page-" + id
}

func todoSlugBase(name, id string) string {
	if slug := slugify(name); slug != "" {
		return slug
	}
	return "todo-" + id
}
