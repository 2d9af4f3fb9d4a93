package database

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"propertysite/internal/model"
)

func (db Database) NotificationInsert(ctx context.Context, n model.PropertyNotification) (string, error) {
	n.Email = strings.ToLower(strings.TrimSpace(n.Email))
	if n.Type == "" {
		n.Type = model.NotificationTypeGeneral
	}
	n.CreatedAt = primitive.NewDateTimeFromTime(time.Now())

	r, err := db.Collection(CollectionNotifications).InsertOne(ctx, n)
	if err != nil {
		// Duplicate-key errors pass through unwrapped context so callers
		// can translate them into a duplicate-subscription response.
		return "", errors.Wrapf(err, "error inserting PropertyNotification for email: %s", n.Email)
	}
	return r.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (db Database) NotificationFindByID(ctx context.Context, id string) (model.PropertyNotification, error) {
	var n model.PropertyNotification
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return n, errors.Wrapf(err, "error creating ObjectID from hex: %s", id)
	}
	err = db.Collection(CollectionNotifications).FindOne(ctx, bson.M{"_id": objID}).Decode(&n)
	return n, errors.Wrapf(err, "error finding PropertyNotification with ID: %s", id)
}

func (db Database) NotificationDelete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.Wrapf(err, "error creating ObjectID from hex: %s", id)
	}
	res, err := db.Collection(CollectionNotifications).DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return errors.Wrapf(err, "error deleting PropertyNotification with ID: %s", id)
	}
	if res.DeletedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "PropertyNotification not found when deleting, ID: %s", id)
	}
	return nil
}

// NotificationsFindPending returns the not-yet-notified subscriptions that a
// newly activated listing should reach: every general subscription plus the
// ones targeting this property.
func (db Database) NotificationsFindPending(ctx context.Context, propertyID primitive.ObjectID) ([]model.PropertyNotification, error) {
	var ns []model.PropertyNotification
	cur, err := db.Collection(CollectionNotifications).Find(
		ctx,
		bson.M{
			"notified": false,
			"$or": []bson.M{
				{"type": model.NotificationTypeGeneral},
				{"property_id": propertyID},
			},
		},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting cursor to find pending PropertyNotifications for Property: %s", propertyID.Hex())
	}
	if err = cur.All(ctx, &ns); err != nil {
		return nil, errors.Wrapf(err, "error getting pending PropertyNotifications from cursor for Property: %s", propertyID.Hex())
	}
	return ns, nil
}

func (db Database) NotificationMarkNotified(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Collection(CollectionNotifications).UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"notified": true}},
	)
	if err != nil {
		return errors.Wrapf(err, "error marking PropertyNotification notified, ID: %s", id.Hex())
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(ErrNoDocumentsModified, "PropertyNotification not found when marking notified, ID: %s", id.Hex())
	}
	return nil
}
