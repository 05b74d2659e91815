package api

import (
	"context"

	"sheetctl/session"
)

// PrimeCSRF asks the server to set the CSRF cookie. Call it before the
// first mutating request of a fresh session.
func (c *Client) PrimeCSRF(ctx context.Context) error {
	return c.get(ctx, "/auth/csrf/", nil)
}

// Register creates an account. The server requires the password twice;
// confirmation is the caller's concern, so the client mirrors it. No
// session starts here; log in afterwards.
func (c *Client) Register(ctx context.Context, input session.RegisterInput) (*session.User, error) {
	payload := map[string]string{
		"username":  input.Username,
		"email":     input.Email,
		"password":  input.Password,
		"password2": input.Password,
	}
	var user session.User
	if err := c.post(ctx, "/auth/register/", payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates with email and password. The server sets the session
// cookie on success.
func (c *Client) Login(ctx context.Context, email, password string) (*session.User, error) {
	payload := map[string]string{"email": email, "password": password}
	var user session.User
	if err := c.post(ctx, "/auth/login/", payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout ends the server session.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/auth/logout/", nil, nil)
}

// AuthStatus reports whether the session cookie is still good and who it
// belongs to.
func (c *Client) AuthStatus(ctx context.Context) (*session.Status, error) {
	var status session.Status
	if err := c.get(ctx, "/auth/status/", &status); err != nil {
		return nil, err
	}
	return &status, nil
}
