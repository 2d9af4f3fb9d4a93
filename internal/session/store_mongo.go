package session

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps sessions in a collection with a TTL index on expires_at,
// so expiry is handled by the database.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Find(ctx context.Context, id string) (State, error) {
	var state State
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&state)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return state, ErrNotFound
	}
	return state, errors.Wrapf(err, "error finding session with ID: %s", id)
}

func (s *MongoStore) Save(ctx context.Context, state State) error {
	_, err := s.coll.ReplaceOne(
		ctx,
		bson.M{"_id": state.ID},
		state,
		options.Replace().SetUpsert(true),
	)
	return errors.Wrapf(err, "error saving session with ID: %s", state.ID)
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	return errors.Wrapf(err, "error deleting session with ID: %s", id)
}
