package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"sheetctl/notify"
)

// Manager holds the client's view of the server session.
type Manager struct {
	mu      sync.Mutex
	gateway Gateway
	feed    *notify.Feed
	status  Status
	checked bool
}

// NewManager creates a manager that starts signed out. Call Refresh to pick
// up an existing cookie session.
func NewManager(gateway Gateway, feed *notify.Feed) *Manager {
	return &Manager{gateway: gateway, feed: feed}
}

// Refresh asks the server whether the current cookies identify a user. On a
// transport failure the last known state is kept and the error returned.
func (m *Manager) Refresh(ctx context.Context) error {
	status, err := m.gateway.AuthStatus(ctx)
	if err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = *status
	m.checked = true
	return nil
}

// Login authenticates with the server. The CSRF cookie is primed first so
// the login POST carries a token even on a cold start.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if err := m.gateway.PrimeCSRF(ctx); err != nil {
		return fmt.Errorf("prime csrf: %w", err)
	}

	user, err := m.gateway.Login(ctx, email, password)
	if err != nil {
		switch httpStatus(err) {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", ErrBadCredentials, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrAccountDisabled, err)
		}
		return fmt.Errorf("login: %w", err)
	}

	m.mu.Lock()
	m.status = Status{Authenticated: true, User: user}
	m.checked = true
	m.mu.Unlock()

	if m.feed != nil {
		m.feed.Successf("Signed in as %s", user.Username)
	}
	return nil
}

// Register creates an account and signs it in. The register endpoint does
// not start a session, so a login with the new credentials follows the
// create.
func (m *Manager) Register(ctx context.Context, input RegisterInput) error {
	if err := m.gateway.PrimeCSRF(ctx); err != nil {
		return fmt.Errorf("prime csrf: %w", err)
	}

	user, err := m.gateway.Register(ctx, input)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if _, err := m.gateway.Login(ctx, input.Email, input.Password); err != nil {
		return fmt.Errorf("login after register: %w", err)
	}

	m.mu.Lock()
	m.status = Status{Authenticated: true, User: user}
	m.checked = true
	m.mu.Unlock()

	if m.feed != nil {
		m.feed.Successf("Registered and signed in as %s", user.Username)
	}
	return nil
}

// Logout ends the session. The local state flips to signed out even when the
// server call fails, since the cookie may already be invalid.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.gateway.Logout(ctx)

	m.mu.Lock()
	m.status = Status{}
	m.checked = true
	m.mu.Unlock()

	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if m.feed != nil {
		m.feed.Infof("Signed out")
	}
	return nil
}

// HandleAuthError folds a rejected request into the session state. When the
// error is a 401 the manager flips to signed out, posts a warning, and
// returns true; other errors are left to the caller.
func (m *Manager) HandleAuthError(err error) bool {
	if httpStatus(err) != http.StatusUnauthorized {
		return false
	}

	m.mu.Lock()
	wasSignedIn := m.status.Authenticated
	m.status = Status{}
	m.checked = true
	m.mu.Unlock()

	if wasSignedIn && m.feed != nil {
		m.feed.Warningf("Session expired, sign in again")
	}
	return true
}

// Current returns the last known session status.
func (m *Manager) Current() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// SignedIn returns true when the last known state is authenticated.
func (m *Manager) SignedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status.Authenticated
}

// Checked returns true once the manager has heard from the server at least
// once (or performed a login/logout).
func (m *Manager) Checked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checked
}

// Username returns the signed-in user's name, or the empty string.
func (m *Manager) Username() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.status.Authenticated || m.status.User == nil {
		return ""
	}
	return m.status.User.Username
}
