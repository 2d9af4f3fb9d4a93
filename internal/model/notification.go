package model

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	NotificationTypeProperty = "property"
	NotificationTypeGeneral  = "general"
)

// PropertyNotification is a subscription to be emailed when a listing (or,
// for the general type, any new listing) becomes available. PropertyID is nil
// for general subscriptions.
type PropertyNotification struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty"`
	Name       string              `bson:"name"`
	Email      string              `bson:"email"`
	PropertyID *primitive.ObjectID `bson:"property_id,omitempty"`
	Type       string              `bson:"type"`
	Phone      string              `bson:"phone,omitempty"`
	Notified   bool                `bson:"notified"`
	CreatedAt  primitive.DateTime  `bson:"created_at"`
}
