package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"propertysite/internal/model"
)

// PropertyQuery narrows the public listing pages; zero values match
// everything.
type PropertyQuery struct {
	Status      string
	ListingType string
}

func (db Database) PropertyInsert(ctx context.Context, p model.Property) (id string, err error) {
	p.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	p.LastModified = primitive.NewDateTimeFromTime(time.Now())
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Videos == nil {
		p.Videos = []model.VideoRef{}
	}
	if p.Features == nil {
		p.Features = []string{}
	}

	r, err := db.Collection(CollectionProperties).InsertOne(ctx, p)
	if err != nil {
		return "", errors.Wrapf(err, "error inserting Property with title: %s", p.Title)
	}
	return r.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (db Database) PropertyFindByID(ctx context.Context, id string) (model.Property, error) {
	var p model.Property
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return p, errors.Wrapf(err, "error creating ObjectID from hex: %s", id)
	}
	err = db.Collection(CollectionProperties).FindOne(ctx, bson.M{"_id": objID}).Decode(&p)
	return p, errors.Wrapf(err, "error finding Property with ID: %s", id)
}

func (db Database) PropertiesFind(ctx context.Context, q PropertyQuery) ([]model.Property, error) {
	filter := bson.M{}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.ListingType != "" {
		filter["listing_type"] = q.ListingType
	}

	var ps []model.Property
	cur, err := db.Collection(CollectionProperties).Find(
		ctx,
		filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find Properties, query: %+v", q)
	}
	if err = cur.All(ctx, &ps); err != nil {
		return nil, errors.Wrapf(err, "error getting Properties from cursor, query: %+v", q)
	}
	return ps, nil
}

// PropertiesFindActive returns the most recent active listings, the set the
// home page features.
func (db Database) PropertiesFindActive(ctx context.Context, limit int64) ([]model.Property, error) {
	var ps []model.Property
	cur, err := db.Collection(CollectionProperties).Find(
		ctx,
		bson.M{"status": model.StatusActive},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, errors.Wrap(err, "error getting cursor to find active Properties")
	}
	if err = cur.All(ctx, &ps); err != nil {
		return nil, errors.Wrap(err, "error getting active Properties from cursor")
	}
	return ps, nil
}

func (db Database) PropertiesFindByRealtor(ctx context.Context, realtorID string) ([]model.Property, error) {
	objID, err := primitive.ObjectIDFromHex(realtorID)
	if err != nil {
		return nil, errors.Wrapf(err, "error creating ObjectID from hex: %s", realtorID)
	}

	var ps []model.Property
	cur, err := db.Collection(CollectionProperties).Find(
		ctx,
		bson.M{"realtor": objID},
		options.Find().SetSort(bson.D{{Key: "last_modified", Value: -1}}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find Properties for realtor: %s", realtorID)
	}
	if err = cur.All(ctx, &ps); err != nil {
		return nil, errors.Wrapf(err, "error getting Properties from cursor for realtor: %s", realtorID)
	}
	return ps, nil
}

// PropertyUpdate replaces the whole document in one write, so concurrent
// readers never observe a partially reconciled media array.
func (db Database) PropertyUpdate(ctx context.Context, p model.Property) error {
	p.LastModified = primitive.NewDateTimeFromTime(time.Now())
	res, err := db.Collection(CollectionProperties).ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return errors.Wrapf(err, "error updating Property with ID: %s", p.ID.Hex())
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "Property not found when updating, ID: %s", p.ID.Hex())
	}
	return nil
}

func (db Database) PropertyDelete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.Wrapf(err, "error creating ObjectID from hex: %s", id)
	}
	res, err := db.Collection(CollectionProperties).DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return errors.Wrapf(err, "error deleting Property with ID: %s", id)
	}
	if res.DeletedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "Property not found when deleting, ID: %s", id)
	}
	return nil
}

func (db Database) PropertyViewsIncrement(ctx context.Context, id primitive.ObjectID) error {
	_, err := db.Collection(CollectionProperties).UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"views": 1}},
	)
	return errors.Wrapf(err, "error incrementing views for Property with ID: %s", id.Hex())
}

func (db Database) PropertyInquiriesIncrement(ctx context.Context, id primitive.ObjectID) error {
	_, err := db.Collection(CollectionProperties).UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"inquiries": 1}},
	)
	return errors.Wrapf(err, "error incrementing inquiries for Property with ID: %s", id.Hex())
}
