// Package auth authenticates workers against the sheet-backed user list.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bfall/sawshift/internal/domain/models"
)

// ErrInvalidCredentials covers both unknown logins and wrong PINs so the
// response never leaks which half failed.
var ErrInvalidCredentials = errors.New("invalid login or pin")

// UserSource provides the user list. Backed by the sheet in production.
type UserSource interface {
	FetchUsers(ctx context.Context) ([]models.User, error)
}

// Service verifies worker credentials and resolves role capabilities.
type Service struct {
	users  UserSource
	logger *zap.Logger
}

// NewService wires an auth service over a user source.
func NewService(users UserSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, logger: logger}
}

// Session is the authenticated view returned to the client.
type Session struct {
	User         models.User         `json:"user"`
	Capabilities models.Capabilities `json:"capabilities"`
}

// Authenticate checks a login/PIN pair against the user list. PINs are
// stored as bcrypt hashes in the sheet.
func (s *Service) Authenticate(ctx context.Context, login, pin string) (Session, error) {
	login = strings.TrimSpace(login)
	if login == "" || pin == "" {
		return Session{}, ErrInvalidCredentials
	}

	users, err := s.users.FetchUsers(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("load user list: %w", err)
	}

	for _, user := range users {
		if !strings.EqualFold(user.Login, login) {
			continue
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PinHash), []byte(pin)); err != nil {
			s.logger.Warn("pin mismatch", zap.String("login", login))
			return Session{}, ErrInvalidCredentials
		}

		return Session{
			User:         user,
			Capabilities: models.CapabilitiesFor(user.Role),
		}, nil
	}

	return Session{}, ErrInvalidCredentials
}
