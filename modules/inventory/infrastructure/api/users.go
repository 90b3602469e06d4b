package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iota-uz/itam/pkg/appstate"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	tokenPair
	User appstate.User `json:"user"`
}

// Login authenticates against /auth/login, falling back to /users/login when the
// backend does not expose the former, and stores tokens and user in the session.
func (c *Client) Login(ctx context.Context, creds Credentials) (appstate.User, error) {
	var resp loginResponse
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: creds, anonymous: true}, &resp)
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.NotFound() {
		err = c.do(ctx, request{method: http.MethodPost, path: "/users/login", body: creds, anonymous: true}, &resp)
	}
	if err != nil {
		return appstate.User{}, err
	}
	if resp.access() == "" {
		return appstate.User{}, &Error{Method: http.MethodPost, Path: "/auth/login", Status: http.StatusBadGateway, Message: "login response carried no token"}
	}
	if err := c.session.SetTokens(ctx, resp.access(), resp.RefreshToken); err != nil {
		return appstate.User{}, err
	}
	if resp.User.Email == "" {
		resp.User.Email = creds.Email
	}
	if err := c.session.SetUser(ctx, resp.User); err != nil {
		return appstate.User{}, err
	}
	c.logger.WithField("user", resp.User.Email).Info("signed in")
	return resp.User, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]appstate.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users"}, &raw); err != nil {
		return nil, err
	}
	return decodeList[appstate.User](raw, "users")
}
