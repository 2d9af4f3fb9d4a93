package configuration

import (
	"strings"
	"testing"
	"time"

	"propertysite/internal/logger"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("SESSION_SECRET", strings.Repeat("s", 64))
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, https://example.com")
	t.Setenv("APP_ENV", "test")
	t.Setenv("HTTP_PORT", "3000")
	t.Setenv("HTTPS_PORT", "3443")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("SMTP_SECURE", "true")
	t.Setenv("SMTP_USER", "mailer")
	t.Setenv("SMTP_PASS", "hunter2")
	t.Setenv("SMTP_FROM", "listings@example.com")
	t.Setenv("BASE_URL", "https://example.com/")
	t.Setenv("RECAPTCHA_SITE_KEY", "site-key")
	t.Setenv("RECAPTCHA_SECRET_KEY", "secret-key")
	t.Setenv("RECAPTCHA_MIN_SCORE", "0.5")
	t.Setenv("RECAPTCHA_ACTION", "contact")
	t.Setenv("RATE_LIMIT_WINDOW_MS", "900000")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "100")
	t.Setenv("LOGIN_RATE_LIMIT_MAX", "5")
	t.Setenv("SESSION_NAME", "sid")
	t.Setenv("SESSION_MAX_AGE", "86400")
	t.Setenv("SESSION_STORE", "")
	t.Setenv("REDIS_URI", "")
	t.Setenv("UPLOAD_DIR", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SSL_KEY_PATH", "")
	t.Setenv("SSL_CERT_PATH", "")
	t.Setenv("SSL_CHAIN_PATH", "")
}

func TestGetConfig(t *testing.T) {
	setValidEnv(t)

	c, err := GetConfig()
	if err != nil {
		t.Fatalf("expected config to load, got err: %v", err)
	}
	if c.RateLimitWindow != 15*time.Minute {
		t.Fatalf("expected 15m rate limit window, got %s", c.RateLimitWindow)
	}
	if c.SessionMaxAge != 24*time.Hour {
		t.Fatalf("expected 24h session max age, got %s", c.SessionMaxAge)
	}
	if c.BaseURL != "https://example.com" {
		t.Fatalf("expected trailing slash trimmed from base URL, got %s", c.BaseURL)
	}
	if len(c.AllowedOrigins) != 2 || c.AllowedOrigins[1] != "https://example.com" {
		t.Fatalf("expected trimmed origin list, got %v", c.AllowedOrigins)
	}
	if c.SessionStore != SessionStoreMongo {
		t.Fatalf("expected mongo session store default, got %s", c.SessionStore)
	}
	if c.UploadDir != "public" {
		t.Fatalf("expected default upload dir, got %s", c.UploadDir)
	}
	if c.LogLevel != logger.LevelInfo {
		t.Fatalf("expected default INFO log level, got %s", c.LogLevel)
	}
}

func TestGetConfigMissingVars(t *testing.T) {
	setValidEnv(t)
	t.Setenv("SMTP_HOST", "")
	t.Setenv("BASE_URL", "")

	_, err := GetConfig()
	if err == nil {
		t.Fatal("expected error for missing vars")
	}
	if !strings.Contains(err.Error(), "SMTP_HOST") || !strings.Contains(err.Error(), "BASE_URL") {
		t.Fatalf("expected all missing vars to be reported, got: %v", err)
	}
}

func TestGetConfigShortSessionSecret(t *testing.T) {
	setValidEnv(t)
	t.Setenv("SESSION_SECRET", strings.Repeat("s", 63))

	if _, err := GetConfig(); err == nil {
		t.Fatal("expected error for short session secret")
	}
}

func TestGetConfigInvalidValues(t *testing.T) {
	cases := map[string]struct {
		name  string
		value string
	}{
		"bad mongo scheme":  {"MONGODB_URI", "postgres://localhost"},
		"bad env":           {"APP_ENV", "staging"},
		"bad port":          {"HTTP_PORT", "99999"},
		"bad from address":  {"SMTP_FROM", "not-an-address"},
		"score above range": {"RECAPTCHA_MIN_SCORE", "1.5"},
		"zero window":       {"RATE_LIMIT_WINDOW_MS", "0"},
		"bad session store": {"SESSION_STORE", "memcached"},
		"bad log level":     {"LOG_LEVEL", "LOUD"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			setValidEnv(t)
			t.Setenv(tc.name, tc.value)
			if _, err := GetConfig(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.name, tc.value)
			}
		})
	}
}

func TestGetConfigProductionRequiresSSL(t *testing.T) {
	setValidEnv(t)
	t.Setenv("APP_ENV", "production")

	if _, err := GetConfig(); err == nil {
		t.Fatal("expected error for production without SSL paths")
	}

	t.Setenv("SSL_KEY_PATH", "/etc/ssl/key.pem")
	t.Setenv("SSL_CERT_PATH", "/etc/ssl/cert.pem")
	t.Setenv("SSL_CHAIN_PATH", "/etc/ssl/chain.pem")
	if _, err := GetConfig(); err != nil {
		t.Fatalf("expected production config with SSL to load, got: %v", err)
	}
}

func TestGetConfigRedisStoreRequiresURI(t *testing.T) {
	setValidEnv(t)
	t.Setenv("SESSION_STORE", "redis")

	if _, err := GetConfig(); err == nil {
		t.Fatal("expected error for redis store without REDIS_URI")
	}

	t.Setenv("REDIS_URI", "redis://localhost:6379/0")
	c, err := GetConfig()
	if err != nil {
		t.Fatalf("expected redis store config to load, got: %v", err)
	}
	if c.SessionStore != SessionStoreRedis {
		t.Fatalf("expected redis session store, got %s", c.SessionStore)
	}
}
