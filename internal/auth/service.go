package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/marketmap/backend/internal/domain"
	"github.com/marketmap/backend/internal/store"
)

var (
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
)

// Service is the credential store: bcrypt hashing on register, constant-time
// verification on login.
type Service struct {
	users store.UserStorer
}

func NewService(users store.UserStorer) *Service {
	return &Service{users: users}
}

func (s *Service) Register(ctx context.Context, email, password string) (uuid.UUID, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("auth: failed to hash password: %w", err)
	}

	id, err := s.users.CreateUser(ctx, email, string(hash))
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return uuid.Nil, ErrEmailTaken
		}
		return uuid.Nil, fmt.Errorf("auth: failed to create user: %w", err)
	}
	return id, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*domain.UserProfile, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &domain.UserProfile{
		ID:    user.ID,
		Email: user.Email,
		Name:  strings.SplitN(user.Email, "@", 2)[0],
	}, nil
}
