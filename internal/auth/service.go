package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/keystone-pm/keystone/internal/shared"
)

// RepositoryPort defines the lookup the service needs.
type RepositoryPort interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// Service wraps authentication business rules.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a new Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}
