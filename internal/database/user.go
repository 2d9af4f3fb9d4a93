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

func (db Database) UserInsert(ctx context.Context, u model.User) (id string, err error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = model.RoleRealtor
	}
	u.CreatedAt = primitive.NewDateTimeFromTime(time.Now())
	u.UpdatedAt = primitive.NewDateTimeFromTime(time.Now())

	r, err := db.Collection(CollectionUsers).InsertOne(ctx, u)
	if err != nil {
		return "", errors.Wrapf(err, "error inserting User with email: %s", u.Email)
	}
	return r.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (db Database) UserFindByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := db.Collection(CollectionUsers).FindOne(
		ctx,
		bson.M{"email": strings.ToLower(strings.TrimSpace(email))},
	).Decode(&u)
	return u, errors.Wrapf(err, "error finding User with email: %s", email)
}

func (db Database) UserFindByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return u, errors.Wrapf(err, "error creating ObjectID from hex: %s", id)
	}
	err = db.Collection(CollectionUsers).FindOne(ctx, bson.M{"_id": objID}).Decode(&u)
	return u, errors.Wrapf(err, "error finding User with ID: %s", id)
}
