package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetctl/notify"
)

// stubGateway implements Gateway with per-call hooks.
type stubGateway struct {
	primeCSRF  func(ctx context.Context) error
	authStatus func(ctx context.Context) (*Status, error)
	login      func(ctx context.Context, email, password string) (*User, error)
	logout     func(ctx context.Context) error
	register   func(ctx context.Context, input RegisterInput) (*User, error)
}

func (s *stubGateway) PrimeCSRF(ctx context.Context) error {
	if s.primeCSRF == nil {
		return nil
	}
	return s.primeCSRF(ctx)
}

func (s *stubGateway) AuthStatus(ctx context.Context) (*Status, error) {
	return s.authStatus(ctx)
}

func (s *stubGateway) Login(ctx context.Context, email, password string) (*User, error) {
	return s.login(ctx, email, password)
}

func (s *stubGateway) Logout(ctx context.Context) error {
	return s.logout(ctx)
}

func (s *stubGateway) Register(ctx context.Context, input RegisterInput) (*User, error) {
	return s.register(ctx, input)
}

// httpError mimics a gateway error carrying an HTTP status.
type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return fmt.Sprintf("http %d", e.code)
}

func (e *httpError) HTTPStatus() int {
	return e.code
}

func TestManager_RefreshAdoptsServerState(t *testing.T) {
	gateway := &stubGateway{
		authStatus: func(context.Context) (*Status, error) {
			return &Status{Authenticated: true, User: &User{ID: "u1", Username: "ada", Email: "ada@example.com"}}, nil
		},
	}
	manager := NewManager(gateway, notify.NewFeed())

	require.False(t, manager.Checked())
	require.NoError(t, manager.Refresh(context.Background()))

	assert.True(t, manager.SignedIn())
	assert.True(t, manager.Checked())
	assert.Equal(t, "ada", manager.Username())
}

func TestManager_RefreshKeepsStateOnTransportFailure(t *testing.T) {
	calls := 0
	gateway := &stubGateway{
		authStatus: func(context.Context) (*Status, error) {
			calls++
			if calls == 1 {
				return &Status{Authenticated: true, User: &User{Username: "ada"}}, nil
			}
			return nil, errors.New("connection refused")
		},
	}
	manager := NewManager(gateway, nil)

	require.NoError(t, manager.Refresh(context.Background()))
	err := manager.Refresh(context.Background())
	require.Error(t, err)

	assert.True(t, manager.SignedIn(), "a failed probe must not sign the user out")
	assert.Equal(t, "ada", manager.Username())
}

func TestManager_LoginPrimesCSRFBeforePosting(t *testing.T) {
	var order []string
	gateway := &stubGateway{
		primeCSRF: func(context.Context) error {
			order = append(order, "csrf")
			return nil
		},
		login: func(_ context.Context, email, password string) (*User, error) {
			order = append(order, "login")
			assert.Equal(t, "ada@example.com", email)
			assert.Equal(t, "hunter2", password)
			return &User{Username: "ada"}, nil
		},
	}
	manager := NewManager(gateway, notify.NewFeed())

	require.NoError(t, manager.Login(context.Background(), "ada@example.com", "hunter2"))
	assert.Equal(t, []string{"csrf", "login"}, order)
	assert.True(t, manager.SignedIn())
}

func TestManager_LoginErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"bad credentials", &httpError{code: 401}, ErrBadCredentials},
		{"disabled account", &httpError{code: 403}, ErrAccountDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := &stubGateway{
				login: func(context.Context, string, string) (*User, error) {
					return nil, tt.err
				},
			}
			manager := NewManager(gateway, nil)

			err := manager.Login(context.Background(), "ada@example.com", "wrong")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, manager.SignedIn())
		})
	}
}

func TestManager_LogoutFlipsStateEvenOnServerError(t *testing.T) {
	gateway := &stubGateway{
		authStatus: func(context.Context) (*Status, error) {
			return &Status{Authenticated: true, User: &User{Username: "ada"}}, nil
		},
		logout: func(context.Context) error {
			return errors.New("boom")
		},
	}
	manager := NewManager(gateway, nil)
	require.NoError(t, manager.Refresh(context.Background()))

	err := manager.Logout(context.Background())
	require.Error(t, err)
	assert.False(t, manager.SignedIn(), "logout must flip local state regardless of server errors")
}

func TestManager_RegisterSignsIn(t *testing.T) {
	var loginEmail string
	gateway := &stubGateway{
		register: func(_ context.Context, input RegisterInput) (*User, error) {
			assert.Equal(t, "ada", input.Username)
			return &User{ID: "u1", Username: input.Username, Email: input.Email}, nil
		},
		login: func(_ context.Context, email, password string) (*User, error) {
			loginEmail = email
			assert.Equal(t, "hunter22", password)
			return &User{ID: "u1", Username: "ada", Email: email}, nil
		},
	}
	feed := notify.NewFeed()
	manager := NewManager(gateway, feed)

	input := RegisterInput{Username: "ada", Email: "ada@example.com", Password: "hunter22"}
	require.NoError(t, manager.Register(context.Background(), input))
	assert.Equal(t, "ada@example.com", loginEmail, "register should sign in with the new credentials")
	assert.True(t, manager.SignedIn())
	assert.Equal(t, 1, feed.Len())
}

func TestManager_HandleAuthError(t *testing.T) {
	gateway := &stubGateway{
		authStatus: func(context.Context) (*Status, error) {
			return &Status{Authenticated: true, User: &User{Username: "ada"}}, nil
		},
	}
	feed := notify.NewFeed()
	manager := NewManager(gateway, feed)
	require.NoError(t, manager.Refresh(context.Background()))

	assert.False(t, manager.HandleAuthError(errors.New("plain failure")))
	assert.True(t, manager.SignedIn())

	assert.True(t, manager.HandleAuthError(&httpError{code: 401}))
	assert.False(t, manager.SignedIn())
	assert.Equal(t, 1, feed.Len(), "expiry should post a warning")

	// A second 401 while already signed out stays quiet.
	assert.True(t, manager.HandleAuthError(&httpError{code: 401}))
	assert.Equal(t, 1, feed.Len())
}
