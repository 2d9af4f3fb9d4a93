package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/pkg/errors"
)

const tokenIssuer = "propertysite"

// Manager binds a Store to the cookie surface. The cookie value is an
// HS256-signed token carrying only the session ID; all state stays server
// side.
type Manager struct {
	store      Store
	signKey    jwk.Key
	cookieName string
	maxAge     time.Duration
	secure     bool
}

func NewManager(store Store, secret []byte, cookieName string, maxAge time.Duration, secure bool) (*Manager, error) {
	key, err := jwk.FromRaw(secret)
	if err != nil {
		return nil, errors.Wrap(err, "error creating signing key from session secret")
	}
	return &Manager{
		store:      store,
		signKey:    key,
		cookieName: cookieName,
		maxAge:     maxAge,
		secure:     secure,
	}, nil
}

// New creates an unsaved session; the middleware persists it once something
// is written to it.
func (m *Manager) New() *Session {
	now := time.Now()
	return &Session{
		State: State{
			ID:        uuid.NewString(),
			CreatedAt: now,
			ExpiresAt: now.Add(m.maxAge),
		},
	}
}

// Load resolves the request's session cookie to stored state. Any failure
// (no cookie, bad signature, expired token, unknown ID) is reported so the
// caller can start a fresh session.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil, errors.Wrap(err, "no session cookie")
	}
	id, err := m.verifyCookieValue(c.Value)
	if err != nil {
		return nil, err
	}
	state, err := m.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if time.Now().After(state.ExpiresAt) {
		return nil, ErrNotFound
	}
	return &Session{State: state}, nil
}

func (m *Manager) Save(ctx context.Context, s *Session) error {
	return m.store.Save(ctx, s.State)
}

// Destroy removes the stored state and flags the session so the middleware
// does not write it back after the handler returns.
func (m *Manager) Destroy(ctx context.Context, s *Session) error {
	s.destroyed = true
	return m.store.Delete(ctx, s.ID)
}

func (m *Manager) Cookie(s *Session) (*http.Cookie, error) {
	value, err := m.signCookieValue(s.ID, s.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// ExpiredCookie clears the session cookie on logout.
func (m *Manager) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) signCookieValue(sessionID string, expiration time.Time) (string, error) {
	t, err := jwt.NewBuilder().
		Subject(sessionID).
		Issuer(tokenIssuer).
		IssuedAt(time.Now()).
		Expiration(expiration).
		Build()
	if err != nil {
		return "", errors.Wrapf(err, "error building session token for session: %s", sessionID)
	}
	signed, err := jwt.Sign(t, jwt.WithKey(jwa.HS256, m.signKey))
	if err != nil {
		return "", errors.Wrapf(err, "error signing session token for session: %s", sessionID)
	}
	return string(signed), nil
}

func (m *Manager) verifyCookieValue(value string) (string, error) {
	t, err := jwt.Parse([]byte(value), jwt.WithKey(jwa.HS256, m.signKey), jwt.WithValidate(true))
	if err != nil {
		return "", errors.Wrap(err, "error validating session token")
	}
	if t.Subject() == "" {
		return "", errors.New("session token has no subject")
	}
	return t.Subject(), nil
}
