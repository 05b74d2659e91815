// Package session tracks who is signed in to the sheet service.
//
// The Manager mirrors the server's session: a Refresh asks the server, Login
// and Logout flip it, and HandleAuthError lets UI layers fold a rejected
// request back into the local state. Authentication itself is cookie-based
// and lives in the HTTP client's jar; this package only holds the answer to
// "who am I right now".
package session

import "context"

// User identifies an account on the sheet service.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Status is the server's answer to an auth-status probe.
type Status struct {
	Authenticated bool  `json:"isAuthenticated"`
	User          *User `json:"user"`
}

// RegisterInput carries the fields for creating an account.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Gateway is the slice of the remote API the session manager needs.
type Gateway interface {
	// PrimeCSRF asks the server to set the CSRF cookie.
	PrimeCSRF(ctx context.Context) error
	// AuthStatus reports whether the current cookie session is live.
	AuthStatus(ctx context.Context) (*Status, error)
	// Login authenticates with credentials and returns the signed-in user.
	Login(ctx context.Context, email, password string) (*User, error)
	// Logout ends the server-side session.
	Logout(ctx context.Context) error
	// Register creates an account. It does not start a session.
	Register(ctx context.Context, input RegisterInput) (*User, error)
}
