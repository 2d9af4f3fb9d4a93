// Package session holds the server-side session state behind the signed
// session cookie. The state is an explicit struct rather than a free-form
// bag, so every field a handler may read exists by construction.
package session

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"propertysite/internal/csrf"
	"propertysite/internal/model"
)

// State is everything persisted for one session.
type State struct {
	ID             string    `bson:"_id" json:"id"`
	UserID         string    `bson:"user_id,omitempty" json:"user_id,omitempty"`
	UserName       string    `bson:"user_name,omitempty" json:"user_name,omitempty"`
	UserEmail      string    `bson:"user_email,omitempty" json:"user_email,omitempty"`
	Role           string    `bson:"role,omitempty" json:"role,omitempty"`
	CSRFSecret     []byte    `bson:"csrf_secret,omitempty" json:"csrf_secret,omitempty"`
	TransientError string    `bson:"transient_error,omitempty" json:"transient_error,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt      time.Time `bson:"expires_at" json:"expires_at"`
}

// Session wraps State with bookkeeping for the middleware: whether the state
// changed during the request and whether it was destroyed.
type Session struct {
	State
	dirty     bool
	destroyed bool
}

func (s *Session) LoggedIn() bool {
	return s.UserID != ""
}

func (s *Session) IsAdmin() bool {
	return s.Role == model.RoleAdmin
}

// SetUser stores the sanitized projection of a user: the ID as a hex string
// for downstream ownership comparisons, and never the password hash.
func (s *Session) SetUser(u model.User) {
	s.UserID = u.ID.Hex()
	s.UserName = u.Name
	s.UserEmail = u.Email
	s.Role = u.Role
	s.dirty = true
}

// EnsureCSRFSecret lazily creates the session's CSRF secret. Idempotent; the
// secret is only ever generated once per session.
func (s *Session) EnsureCSRFSecret() error {
	if len(s.CSRFSecret) > 0 {
		return nil
	}
	secret, err := csrf.GenerateSecret()
	if err != nil {
		return err
	}
	s.CSRFSecret = secret
	s.dirty = true
	return nil
}

// TakeTransientError returns the stashed one-shot error message and clears
// it, so a redirect-with-error is shown exactly once.
func (s *Session) TakeTransientError() string {
	msg := s.TransientError
	if msg != "" {
		s.TransientError = ""
		s.dirty = true
	}
	return msg
}

func (s *Session) SetTransientError(msg string) {
	s.TransientError = msg
	s.dirty = true
}

func (s *Session) MarkDirty() { s.dirty = true }

func (s *Session) Modified() bool { return s.dirty }

func (s *Session) Destroyed() bool { return s.destroyed }

type sessionContextKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, s)
}

// FromContext returns the request's session. An error here means the session
// middleware did not run, which is a server misconfiguration, not a user
// condition.
func FromContext(ctx context.Context) (*Session, error) {
	s, ok := ctx.Value(sessionContextKey{}).(*Session)
	if !ok {
		return nil, errors.New("no session in request context")
	}
	return s, nil
}
