package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/itam/modules/inventory/infrastructure/api"
	"github.com/iota-uz/itam/pkg/appstate"
	"github.com/iota-uz/itam/pkg/serrors"
)

var ErrNotSignedIn = serrors.NewError("NOT_SIGNED_IN", "Sign in first", "Errors.NotSignedIn")

type UserService struct {
	users UserGateway
	log   *logrus.Entry
}

func NewUserService(users UserGateway, logger *logrus.Logger) *UserService {
	return &UserService{users: users, log: componentLogger(logger, "users")}
}

func (s *UserService) Login(ctx context.Context, email, password string) (appstate.User, error) {
	creds := api.Credentials{Email: strings.TrimSpace(email), Password: password}
	if creds.Email == "" || creds.Password == "" {
		return appstate.User{}, serrors.ValidationErrors{"Email": "email and password are required"}
	}
	u, err := s.users.Login(ctx, creds)
	if err != nil {
		s.log.WithError(err).WithField("email", creds.Email).Warn("sign in failed")
		return appstate.User{}, err
	}
	return u, nil
}

func (s *UserService) Logout(ctx context.Context) error {
	return s.users.Session().Clear(ctx)
}

// Current returns the signed-in user.
func (s *UserService) Current(ctx context.Context) (appstate.User, error) {
	u, ok := s.users.Session().User(ctx)
	if !ok {
		return appstate.User{}, ErrNotSignedIn
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context) ([]appstate.User, error) {
	return s.users.ListUsers(ctx)
}
