package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/avelar/fitcoach-be/internal/database"
	"github.com/avelar/fitcoach-be/internal/models"
)

// fakeUserStore is an in-memory UserStore with the same contract as the
// Mongo-backed one: atomic insert-if-absent, prepend-only history.
type fakeUserStore struct {
	users map[string]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]models.User)}
}

func (f *fakeUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	user, ok := f.users[username]
	if !ok {
		return models.User{}, database.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) Insert(_ context.Context, user models.User) error {
	if _, ok := f.users[user.Username]; ok {
		return database.ErrDuplicateUser
	}
	f.users[user.Username] = user
	return nil
}

func (f *fakeUserStore) PushHistory(_ context.Context, username string, record models.PlanRecord) error {
	user, ok := f.users[username]
	if !ok {
		return database.ErrNotFound
	}
	user.History = append([]models.PlanRecord{record}, user.History...)
	f.users[username] = user
	return nil
}

func (f *fakeUserStore) FetchHistory(_ context.Context, username string) ([]models.PlanRecord, error) {
	user, ok := f.users[username]
	if !ok {
		return nil, database.ErrNotFound
	}
	if user.History == nil {
		return []models.PlanRecord{}, nil
	}
	return user.History, nil
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newFakeUserStore())

	require.NoError(t, svc.Register(ctx, "alice", "pw1"))

	user, err := svc.Authenticate(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash, "hash must not leave the service")

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody", "pw1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateKeepsOriginalPassword(t *testing.T) {
	ctx := context.Background()
	store := newFakeUserStore()
	svc := NewUserService(store)

	require.NoError(t, svc.Register(ctx, "alice", "pw1"))

	err := svc.Register(ctx, "alice", "pw2")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	// The original credentials must survive the failed re-registration.
	stored := store.users["alice"]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("pw1")))
	_, err = svc.Authenticate(ctx, "alice", "pw1")
	assert.NoError(t, err)
	_, err = svc.Authenticate(ctx, "alice", "pw2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRequiresUsernameAndPassword(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newFakeUserStore())

	assert.Error(t, svc.Register(ctx, "", "pw"))
	assert.Error(t, svc.Register(ctx, "alice", ""))
}

func TestRegisterCreatesEmptyHistory(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newFakeUserStore())

	require.NoError(t, svc.Register(ctx, "alice", "pw1"))

	history, err := svc.History(ctx, "alice")
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestAppendHistoryPrepends(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newFakeUserStore())
	require.NoError(t, svc.Register(ctx, "alice", "pw1"))

	first := models.PlanRecord{Date: "2026-08-30 10:00:00", WorkoutPlan: "W1", DietPlan: "D1"}
	second := models.PlanRecord{Date: "2026-08-30 11:00:00", WorkoutPlan: "W2", DietPlan: "D2"}

	require.NoError(t, svc.AppendHistory(ctx, "alice", first))

	history, err := svc.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "W1", history[0].WorkoutPlan)
	assert.Equal(t, "D1", history[0].DietPlan)

	require.NoError(t, svc.AppendHistory(ctx, "alice", second))

	history, err = svc.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "W2", history[0].WorkoutPlan, "newest record comes first")
	assert.Equal(t, "W1", history[1].WorkoutPlan, "older record is preserved")
}

func TestAppendHistoryForMissingUser(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(newFakeUserStore())

	err := svc.AppendHistory(ctx, "ghost", models.PlanRecord{Date: "2026-08-30 10:00:00"})
	assert.ErrorIs(t, err, database.ErrNotFound)
}
