package server

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"propertysite/internal/cache"
	"propertysite/internal/client"
	"propertysite/internal/configuration"
	"propertysite/internal/database"
	"propertysite/internal/mailer"
	"propertysite/internal/model"
	"propertysite/internal/session"
)

type Server struct {
	DB       db
	Sessions *session.Manager
	Mailer   *mailer.Mailer
	Client   client.Client
	Featured *cache.FeaturedCache
	Logger   logger
	Config   *configuration.Config
}

// db is what the handlers need from database.Database, so tests can swap in
// a fake the same way they do for the session store.
type db interface {
	PropertyInsert(ctx context.Context, p model.Property) (string, error)
	PropertyFindByID(ctx context.Context, id string) (model.Property, error)
	PropertiesFind(ctx context.Context, q database.PropertyQuery) ([]model.Property, error)
	PropertiesFindByRealtor(ctx context.Context, realtorID string) ([]model.Property, error)
	PropertyUpdate(ctx context.Context, p model.Property) error
	PropertyDelete(ctx context.Context, id string) error
	PropertyViewsIncrement(ctx context.Context, id primitive.ObjectID) error
	PropertyInquiriesIncrement(ctx context.Context, id primitive.ObjectID) error
	UserFindByEmail(ctx context.Context, email string) (model.User, error)
	UserFindByID(ctx context.Context, id string) (model.User, error)
	NotificationInsert(ctx context.Context, n model.PropertyNotification) (string, error)
	NotificationFindByID(ctx context.Context, id string) (model.PropertyNotification, error)
	NotificationDelete(ctx context.Context, id string) error
	NotificationsFindPending(ctx context.Context, propertyID primitive.ObjectID) ([]model.PropertyNotification, error)
	NotificationMarkNotified(ctx context.Context, id primitive.ObjectID) error
}

type logger interface {
	Trace(v ...any)
	Debug(v ...any)
	Info(v ...any)
	Warn(v ...any)
	Error(v ...any)
	Tracef(format string, v ...any)
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}
