// Package csrf implements a synchronizer-token defense: a random secret held
// in the server-side session, and a per-request presentable token derived
// from it. Any number of tokens issued from the same secret verify against
// it, so regenerating the token on every page render never invalidates forms
// already open in other tabs.
package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

const (
	// FieldName is the form field and query parameter carrying the token.
	FieldName = "_csrf"

	headerName    = "csrf-token"
	altHeaderName = "x-csrf-token"

	secretLength = 32
	saltLength   = 8
)

var ErrInvalidToken = errors.New("invalid csrf token")

// GenerateSecret returns a fresh session secret. The secret never leaves the
// server; only tokens derived from it do.
func GenerateSecret() ([]byte, error) {
	secret := make([]byte, secretLength)
	if _, err := rand.Read(secret); err != nil {
		return nil, errors.Wrap(err, "error generating csrf secret")
	}
	return secret, nil
}

// IssueToken derives a presentable token from the session secret. The token
// is salt.mac where mac = HMAC-SHA256(secret, salt).
func IssueToken(secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("no csrf secret in session")
	}
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "error generating csrf token salt")
	}
	return encode(salt) + "." + encode(mac(secret, salt)), nil
}

// VerifyRequest checks the candidate token on state-changing requests. Safe
// methods are skipped outright; there is no per-method failure recovery.
// Verification is a pure function of (secret, candidate) and never mutates
// session state.
func VerifyRequest(r *http.Request, secret []byte) error {
	if SafeMethod(r.Method) {
		return nil
	}
	return verify(tokenFromRequest(r), secret)
}

func SafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// tokenFromRequest extracts the candidate token, checking the request body
// field, then the query parameter, then the two accepted header names.
// Multipart bodies are left to the handler's own parser, so upload forms
// carry the token in the query string or a header.
func tokenFromRequest(r *http.Request) string {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if t := r.PostFormValue(FieldName); t != "" {
			return t
		}
	}
	if t := r.URL.Query().Get(FieldName); t != "" {
		return t
	}
	if t := r.Header.Get(headerName); t != "" {
		return t
	}
	return r.Header.Get(altHeaderName)
}

func verify(token string, secret []byte) error {
	if token == "" || len(secret) == 0 {
		return ErrInvalidToken
	}
	saltPart, macPart, ok := strings.Cut(token, ".")
	if !ok {
		return ErrInvalidToken
	}
	salt, err := decode(saltPart)
	if err != nil {
		return ErrInvalidToken
	}
	candidate, err := decode(macPart)
	if err != nil {
		return ErrInvalidToken
	}
	if !hmac.Equal(candidate, mac(secret, salt)) {
		return ErrInvalidToken
	}
	return nil
}

func mac(secret, salt []byte) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write(salt)
	return h.Sum(nil)
}

func encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func decode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
