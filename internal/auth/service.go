package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/apperr"
	"fintrack/internal/backend"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

const minPasswordLen = 8

// Service handles registration, login and profile lookups.
type Service struct {
	store  backend.Store
	jwt    *JWTManager
	logger *log.Logger
}

func NewService(store backend.Store, jwt *JWTManager, logger *log.Logger) *Service {
	return &Service{
		store:  store,
		jwt:    jwt,
		logger: logger.WithComponent(log.ComponentAuth),
	}
}

// Register creates a user and issues a token. Duplicate emails conflict;
// the uniqueness check runs inside the store's critical section.
func (s *Service) Register(ctx context.Context, name, email, password string) (core.User, string, error) {
	name = core.NormalizeDescription(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return core.User{}, "", apperr.Validation("name is required")
	}
	if !strings.Contains(email, "@") || strings.ContainsAny(email, " \t") {
		return core.User{}, "", apperr.Validation("a valid email address is required")
	}
	if len(password) < minPasswordLen {
		return core.User{}, "", apperr.Validation("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, "", err
	}

	user := core.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return core.User{}, "", err
	}

	token, err := s.jwt.Generate(user.ID, user.Name)
	if err != nil {
		return core.User{}, "", err
	}

	s.logger.InfoContext(ctx, "user registered", log.FieldUserID, user.ID)
	return user, token, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (core.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if apperr.IsNotFound(err) {
			return core.User{}, "", apperr.Unauthorized("invalid email or password")
		}
		return core.User{}, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return core.User{}, "", apperr.Unauthorized("invalid email or password")
		}
		return core.User{}, "", err
	}

	token, err := s.jwt.Generate(user.ID, user.Name)
	if err != nil {
		return core.User{}, "", err
	}

	s.logger.InfoContext(ctx, "user logged in", log.FieldUserID, user.ID)
	return user, token, nil
}

// Profile returns the user for an already-authenticated ID.
func (s *Service) Profile(ctx context.Context, userID string) (core.User, error) {
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return core.User{}, apperr.Unauthorized("user not found")
		}
		return core.User{}, err
	}
	return user, nil
}
