package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
)

type testLogger struct{}

func (testLogger) Debugf(string, ...any) {}
func (testLogger) Infof(string, ...any)  {}
func (testLogger) Errorf(string, ...any) {}

func recaptchaClient(t *testing.T, body string) Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("secret") != "secret-key" {
			t.Errorf("expected secret in form, got %q", r.PostForm.Get("secret"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	old := recaptchaVerifyURL
	recaptchaVerifyURL = srv.URL
	t.Cleanup(func() { recaptchaVerifyURL = old })

	return Client{
		Client:             srv.Client(),
		RecaptchaSecretKey: "secret-key",
		RecaptchaMinScore:  0.5,
		RecaptchaAction:    "contact",
		Logger:             testLogger{},
	}
}

func TestVerifyRecaptchaPasses(t *testing.T) {
	c := recaptchaClient(t, `{"success":true,"score":0.9,"action":"contact"}`)
	if err := c.VerifyRecaptcha(context.Background(), "tok", "203.0.113.9"); err != nil {
		t.Fatalf("expected passing assessment, got: %v", err)
	}
}

func TestVerifyRecaptchaRejections(t *testing.T) {
	cases := map[string]string{
		"unsuccessful":    `{"success":false,"error-codes":["invalid-input-response"]}`,
		"low score":       `{"success":true,"score":0.1,"action":"contact"}`,
		"action mismatch": `{"success":true,"score":0.9,"action":"login"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := recaptchaClient(t, body)
			err := c.VerifyRecaptcha(context.Background(), "tok", "")
			if !errors.Is(err, ErrRecaptchaRejected) {
				t.Fatalf("expected ErrRecaptchaRejected, got: %v", err)
			}
		})
	}
}
