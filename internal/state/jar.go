package state

import (
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Jar is an http.CookieJar backed by persisted state. Cookies are keyed
// by server host so one state file can track several servers, and the jar
// tracks whether anything changed so callers persist only when needed.
//
// Cookies without an expiry persist until the server rejects or replaces
// them; for a CLI the "browser session" spans invocations.
type Jar struct {
	mu      sync.Mutex
	cookies map[string][]Cookie
	dirty   bool
	now     func() time.Time
}

// NewJar creates a jar seeded from previously persisted state.
func NewJar(st *State) *Jar {
	jar := &Jar{cookies: make(map[string][]Cookie), now: time.Now}
	for host, cookies := range st.Cookies {
		jar.cookies[host] = append([]Cookie(nil), cookies...)
	}
	return jar
}

// SetCookies implements http.CookieJar. A cookie with a negative MaxAge
// or an expiry in the past deletes the stored cookie of the same name.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	host := u.Hostname()
	stored := j.cookies[host]
	for _, cookie := range cookies {
		stored = upsertCookie(stored, cookie, j.now())
	}
	j.cookies[host] = stored
	j.dirty = true
}

// Cookies implements http.CookieJar. Expired cookies are pruned on read.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	host := u.Hostname()
	now := j.now()
	kept := j.cookies[host][:0]
	var out []*http.Cookie
	for _, cookie := range j.cookies[host] {
		if !cookie.Expires.IsZero() && !cookie.Expires.After(now) {
			j.dirty = true
			continue
		}
		kept = append(kept, cookie)
		out = append(out, &http.Cookie{Name: cookie.Name, Value: cookie.Value, Path: cookie.Path})
	}
	j.cookies[host] = kept
	return out
}

// Dirty reports whether the jar changed since it was created.
func (j *Jar) Dirty() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.dirty
}

// Export snapshots the jar's cookies for persistence.
func (j *Jar) Export() map[string][]Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make(map[string][]Cookie, len(j.cookies))
	for host, cookies := range j.cookies {
		if len(cookies) == 0 {
			continue
		}
		out[host] = append([]Cookie(nil), cookies...)
	}
	return out
}

// Clear drops every stored cookie.
func (j *Jar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.cookies) == 0 {
		return
	}
	j.cookies = make(map[string][]Cookie)
	j.dirty = true
}

func upsertCookie(stored []Cookie, cookie *http.Cookie, now time.Time) []Cookie {
	expires := cookie.Expires
	if cookie.MaxAge > 0 {
		expires = now.Add(time.Duration(cookie.MaxAge) * time.Second)
	}
	remove := cookie.MaxAge < 0 || (!expires.IsZero() && !expires.After(now))

	for i, existing := range stored {
		if existing.Name != cookie.Name {
			continue
		}
		if remove {
			return append(stored[:i], stored[i+1:]...)
		}
		stored[i] = fromHTTPCookie(cookie, expires)
		return stored
	}
	if remove {
		return stored
	}
	return append(stored, fromHTTPCookie(cookie, expires))
}

func fromHTTPCookie(cookie *http.Cookie, expires time.Time) Cookie {
	return Cookie{
		Name:     cookie.Name,
		Value:    cookie.Value,
		Path:     cookie.Path,
		Expires:  expires,
		Secure:   cookie.Secure,
		HTTPOnly: cookie.HttpOnly,
	}
}
