package database

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	Name                    = "property_site_db"
	CollectionProperties    = "properties"
	CollectionUsers         = "users"
	CollectionNotifications = "property_notifications"
	CollectionSessions      = "sessions"
)

type Database struct {
	*mongo.Database
}

var ErrNoDocumentsModified = errors.New("no documents modified")

func ConnectDB(ctx context.Context, dbURI string) (*mongo.Client, error) {
	c, err := mongo.Connect(ctx, options.Client().ApplyURI(dbURI))
	if err != nil {
		return nil, err
	}

	_, err = c.Database(Name).Collection(CollectionProperties).Indexes().CreateMany(
		ctx,
		[]mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "status", Value: 1},
					{Key: "created_at", Value: -1},
				},
			},
			{
				Keys: bson.D{{Key: "realtor", Value: 1}},
			},
		},
	)
	if err != nil {
		return nil, err
	}

	_, err = c.Database(Name).Collection(CollectionUsers).Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	)
	if err != nil {
		return nil, err
	}

	// One email may hold a general subscription plus several
	// property-specific ones, but never two for the same listing. The
	// partial filter keeps general rows (no property_id) out of the unique
	// constraint.
	_, err = c.Database(Name).Collection(CollectionNotifications).Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys: bson.D{
				{Key: "email", Value: 1},
				{Key: "type", Value: 1},
				{Key: "property_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"property_id": bson.M{"$exists": true}}),
		},
	)
	if err != nil {
		return nil, err
	}

	_, err = c.Database(Name).Collection(CollectionSessions).Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	)
	if err != nil {
		return nil, err
	}

	return c, nil
}
