package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"propertysite/internal/model"
	"propertysite/internal/session"
)

func loginRequestWith(sess *session.Session, email, password string) *http.Request {
	values := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req.WithContext(session.NewContext(req.Context(), sess))
}

func TestLoginSuccess(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse-battery"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	user := model.User{
		ID:       primitive.NewObjectID(),
		Name:     "Jane Realtor",
		Email:    "jane@example.com",
		Password: hash,
		Role:     model.RoleRealtor,
	}

	s := testServer(t, newMemStore())
	s.DB = &fakeDB{user: user}

	sess := s.Sessions.New()
	rec := httptest.NewRecorder()
	s.loginHandler()(rec, loginRequestWith(sess, "jane@example.com", "correct-horse-battery"))

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/manage" {
		t.Fatalf("expected redirect to /manage, got %q", loc)
	}
	if sess.UserID != user.ID.Hex() {
		t.Fatalf("expected session user ID %s, got %q", user.ID.Hex(), sess.UserID)
	}
	if !sess.LoggedIn() {
		t.Fatal("expected session to be logged in")
	}
	if !sess.Modified() {
		t.Fatal("expected session to be marked modified so the middleware persists it")
	}
}

func TestLoginFailures(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse-battery"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	user := model.User{
		ID:       primitive.NewObjectID(),
		Email:    "jane@example.com",
		Password: hash,
		Role:     model.RoleRealtor,
	}

	tests := []struct {
		name     string
		fake     *fakeDB
		email    string
		password string
	}{
		{"wrong password", &fakeDB{user: user}, "jane@example.com", "wrong-password-here"},
		{"unknown user", &fakeDB{userErr: errors.New("user not found")}, "nobody@example.com", "correct-horse-battery"},
		{"invalid form", &fakeDB{user: user}, "not-an-email", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testServer(t, newMemStore())
			s.DB = tt.fake

			sess := s.Sessions.New()
			rec := httptest.NewRecorder()
			s.loginHandler()(rec, loginRequestWith(sess, tt.email, tt.password))

			if rec.Code != http.StatusFound {
				t.Fatalf("expected 302, got %d", rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != "/auth/login" {
				t.Fatalf("expected redirect to /auth/login, got %q", loc)
			}
			if sess.LoggedIn() {
				t.Fatal("expected session to stay anonymous")
			}
			if msg := sess.TakeTransientError(); msg != loginFailedMessage {
				t.Fatalf("expected transient error %q, got %q", loginFailedMessage, msg)
			}
		})
	}
}
