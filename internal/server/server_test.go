package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"propertysite/internal/configuration"
	"propertysite/internal/csrf"
	logpkg "propertysite/internal/logger"
	"propertysite/internal/session"
)

type memStore struct {
	mu     sync.Mutex
	states map[string]session.State
}

func newMemStore() *memStore {
	return &memStore{states: map[string]session.State{}}
}

func (m *memStore) Find(_ context.Context, id string) (session.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok {
		return session.State{}, session.ErrNotFound
	}
	return st, nil
}

func (m *memStore) Save(_ context.Context, st session.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[st.ID] = st
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, id)
	return nil
}

func (m *memStore) only(t *testing.T) session.State {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.states) != 1 {
		t.Fatalf("expected 1 stored session, got %d", len(m.states))
	}
	for _, st := range m.states {
		return st
	}
	return session.State{}
}

func testServer(t *testing.T, store session.Store) *Server {
	t.Helper()
	secret := []byte("0123456789abcdef0123456789abcdef")
	mgr, err := session.NewManager(store, secret, "sid", time.Hour, false)
	if err != nil {
		t.Fatalf("creating session manager: %v", err)
	}
	return &Server{
		Sessions: mgr,
		Logger:   logpkg.NewLogger(logpkg.LevelOff, io.Discard),
		Config:   &configuration.Config{},
	}
}

func sessionChain(s *Server, next http.Handler) http.Handler {
	return s.loggingMw(s.sessionMw(s.csrfMw(next)))
}

func TestSessionMwIssuesCookieAndSecret(t *testing.T) {
	store := newMemStore()
	s := testServer(t, store)

	h := sessionChain(s, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "sid" {
		t.Fatalf("expected one sid cookie, got %+v", cookies)
	}
	st := store.only(t)
	if len(st.CSRFSecret) < 32 {
		t.Fatalf("expected stored CSRF secret of at least 32 bytes, got %d", len(st.CSRFSecret))
	}
}

func TestCsrfMwRejectsMissingToken(t *testing.T) {
	store := newMemStore()
	s := testServer(t, store)

	called := false
	h := sessionChain(s, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	// Establish a session first so the rejection is a token failure, not a
	// missing secret.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := rec.Result().Cookies()[0]
	called = false

	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(""))
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if called {
		t.Fatal("handler ran despite missing CSRF token")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON error body, got Content-Type %q", ct)
	}
}

func TestCsrfMwAcceptsIssuedToken(t *testing.T) {
	store := newMemStore()
	s := testServer(t, store)

	called := false
	h := sessionChain(s, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := rec.Result().Cookies()[0]

	token, err := csrf.IssueToken(store.only(t).CSRFSecret)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(""))
	req.AddCookie(cookie)
	req.Header.Set("csrf-token", token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !called {
		t.Fatal("handler did not run with a valid CSRF token")
	}
}

func TestRequireUserMwRedirectsAnonymous(t *testing.T) {
	store := newMemStore()
	s := testServer(t, store)

	h := s.loggingMw(s.sessionMw(s.requireUserMw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/manage", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/auth/login" {
		t.Fatalf("expected redirect to /auth/login, got %q", loc)
	}
}

func TestRequireUserMwPassesLoggedIn(t *testing.T) {
	store := newMemStore()
	s := testServer(t, store)

	// Seed a logged-in session directly in the store and present its cookie.
	sess := s.Sessions.New()
	sess.UserID = "64f000000000000000000001"
	sess.UserName = "Jane Realtor"
	if err := s.Sessions.Save(context.Background(), sess); err != nil {
		t.Fatalf("saving session: %v", err)
	}
	cookie, err := s.Sessions.Cookie(sess)
	if err != nil {
		t.Fatalf("creating cookie: %v", err)
	}

	h := s.loggingMw(s.sessionMw(s.requireUserMw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))))

	req := httptest.NewRequest(http.MethodGet, "/manage", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
