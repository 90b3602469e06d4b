package appstate

import (
	"context"
	"strings"
)

// User is the signed-in user as persisted under KeyUser.
type User struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// Session gives typed access to the authentication keys of a Store.
type Session struct {
	store Store
}

func NewSession(store Store) *Session {
	return &Session{store: store}
}

func (s *Session) Store() Store { return s.store }

func (s *Session) Token(ctx context.Context) string {
	v, _, _ := s.store.Get(ctx, KeyToken)
	return v
}

func (s *Session) RefreshToken(ctx context.Context) string {
	v, _, _ := s.store.Get(ctx, KeyRefreshToken)
	return v
}

// SetTokens stores the access token and, when non-empty, the refresh token.
func (s *Session) SetTokens(ctx context.Context, token, refreshToken string) error {
	if err := s.store.Set(ctx, KeyToken, token); err != nil {
		return err
	}
	if strings.TrimSpace(refreshToken) == "" {
		return nil
	}
	return s.store.Set(ctx, KeyRefreshToken, refreshToken)
}

func (s *Session) User(ctx context.Context) (User, bool) {
	u, ok, err := GetJSON[User](ctx, s.store, KeyUser)
	if err != nil {
		return User{}, false
	}
	return u, ok
}

func (s *Session) SetUser(ctx context.Context, u User) error {
	return SetJSON(ctx, s.store, KeyUser, u)
}

// Role returns the current user's role, empty when nobody is signed in.
func (s *Session) Role(ctx context.Context) string {
	u, ok := s.User(ctx)
	if !ok {
		return ""
	}
	return u.Role
}

// Clear removes tokens and the user, as on logout or a failed token refresh.
func (s *Session) Clear(ctx context.Context) error {
	for _, key := range []string{KeyToken, KeyRefreshToken, KeyUser} {
		if err := s.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) SidebarOpen(ctx context.Context) bool {
	v, ok, err := GetJSON[bool](ctx, s.store, KeySidebarIsOpen)
	if err != nil || !ok {
		return true
	}
	return v
}

func (s *Session) SetSidebarOpen(ctx context.Context, open bool) error {
	return SetJSON(ctx, s.store, KeySidebarIsOpen, open)
}
