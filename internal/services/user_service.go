package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/avelar/fitcoach-be/internal/database"
	"github.com/avelar/fitcoach-be/internal/models"
)

var (
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials is returned for a bad username/password pair.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// UserStore is the document-store access the user service needs.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
	Insert(ctx context.Context, user models.User) error
	PushHistory(ctx context.Context, username string, record models.PlanRecord) error
	FetchHistory(ctx context.Context, username string) ([]models.PlanRecord, error)
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, username, password string) error
	Authenticate(ctx context.Context, username, password string) (models.User, error)
	Get(ctx context.Context, username string) (models.User, error)
	AppendHistory(ctx context.Context, username string, record models.PlanRecord) error
	History(ctx context.Context, username string) ([]models.PlanRecord, error)
}

// UserService provides business logic for accounts and plan history.
type UserService struct {
	store UserStore
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

// Register creates a new account with an empty history. Uniqueness is
// enforced by the store's single atomic insert, not by a lookup first,
// so concurrent registrations of the same name cannot race.
func (s *UserService) Register(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
		History:      []models.PlanRecord{},
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.Insert(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateUser) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Authenticate verifies a user's credentials. An unknown username and a
// wrong password are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// Get retrieves a user without their password hash.
func (s *UserService) Get(ctx context.Context, username string) (models.User, error) {
	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return models.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// AppendHistory prepends a plan record to the user's history. A user
// that vanished between session start and the write surfaces as an
// error for the caller to log; the write is never retried.
func (s *UserService) AppendHistory(ctx context.Context, username string, record models.PlanRecord) error {
	return s.store.PushHistory(ctx, username, record)
}

// History returns the user's plan records, newest first. A user with no
// plans yields an empty slice.
func (s *UserService) History(ctx context.Context, username string) ([]models.PlanRecord, error) {
	return s.store.FetchHistory(ctx, username)
}
