package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/avelar/fitcoach-be/internal/models"
)

var (
	// ErrNotFound is returned when no document exists for a username.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateUser is returned when an insert collides with an
	// existing username.
	ErrDuplicateUser = errors.New("username already exists")
)

// UserStore provides document access to the users collection. The
// username is the document _id, so insert-if-absent and the history
// prepend are both single atomic document operations.
type UserStore struct {
	coll *mongo.Collection
}

// NewUserStore creates a UserStore over the configured collection.
func NewUserStore(client *mongo.Client, dbName, collectionName string) *UserStore {
	return &UserStore{coll: client.Database(dbName).Collection(collectionName)}
}

// FindByUsername retrieves a single user document.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, bson.M{"_id": username}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// Insert stores a new user document. The unique _id index makes this an
// atomic insert-if-absent: a concurrent registration of the same
// username loses with ErrDuplicateUser instead of racing.
func (s *UserStore) Insert(ctx context.Context, user models.User) error {
	_, err := s.coll.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateUser
	}
	return err
}

// PushHistory prepends a plan record to the user's history array.
func (s *UserStore) PushHistory(ctx context.Context, username string, record models.PlanRecord) error {
	result, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": username},
		bson.M{"$push": bson.M{"history": bson.M{
			"$each":     []models.PlanRecord{record},
			"$position": 0,
		}}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FetchHistory returns the user's plan history, newest first. A user
// with no history yields an empty slice.
func (s *UserStore) FetchHistory(ctx context.Context, username string) ([]models.PlanRecord, error) {
	user, err := s.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.History == nil {
		return []models.PlanRecord{}, nil
	}
	return user.History, nil
}

// Ping verifies connectivity to the backing store.
func (s *UserStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}
