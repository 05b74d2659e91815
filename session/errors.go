package session

import "errors"

var (
	// ErrBadCredentials indicates the email/password pair was rejected.
	ErrBadCredentials = errors.New("invalid email or password")
	// ErrAccountDisabled indicates the account exists but is deactivated.
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrNotSignedIn indicates an operation that requires a session ran without one.
	ErrNotSignedIn = errors.New("not signed in")
)

// statusCoder is implemented by gateway errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

func httpStatus(err error) int {
	var coder statusCoder
	if errors.As(err, &coder) {
		return coder.HTTPStatus()
	}
	return 0
}
