package configuration

import (
	"net/mail"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"propertysite/internal/logger"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

const (
	SessionStoreMongo = "mongo"
	SessionStoreRedis = "redis"
)

type Config struct {
	MongoURI       string
	AppEnv         string
	HTTPPort       int
	HTTPSPort      int
	AllowedOrigins []string
	BaseURL        string

	SSLKeyPath   string
	SSLCertPath  string
	SSLChainPath string

	SessionSecret string
	SessionName   string
	SessionMaxAge time.Duration
	SessionStore  string
	RedisURI      string

	SMTPHost   string
	SMTPPort   int
	SMTPSecure bool
	SMTPUser   string
	SMTPPass   string
	SMTPFrom   string

	RecaptchaSiteKey   string
	RecaptchaSecretKey string
	RecaptchaMinScore  float64
	RecaptchaAction    string

	RateLimitWindow   time.Duration
	RateLimitMax      int
	LoginRateLimitMax int

	UploadDir string
	LogLevel  logger.Level
}

// requiredVars must be present in the environment before any parsing is
// attempted; validation reports all missing names at once so a broken
// deployment is fixed in one pass.
var requiredVars = []string{
	"MONGODB_URI",
	"SESSION_SECRET",
	"ALLOWED_ORIGINS",
	"APP_ENV",
	"HTTP_PORT",
	"HTTPS_PORT",
	"SMTP_HOST",
	"SMTP_PORT",
	"SMTP_SECURE",
	"SMTP_USER",
	"SMTP_PASS",
	"SMTP_FROM",
	"BASE_URL",
	"RECAPTCHA_SITE_KEY",
	"RECAPTCHA_SECRET_KEY",
	"RECAPTCHA_MIN_SCORE",
	"RECAPTCHA_ACTION",
	"RATE_LIMIT_WINDOW_MS",
	"RATE_LIMIT_MAX_REQUESTS",
	"LOGIN_RATE_LIMIT_MAX",
	"SESSION_NAME",
	"SESSION_MAX_AGE",
}

// GetConfig loads .env (if present), then validates the environment in three
// stages: presence of required variables, per-variable format, and
// production-only constraints. Any failure is returned to the caller, which
// is expected to exit nonzero before serving.
func GetConfig() (*Config, error) {
	_ = godotenv.Load()

	if missing := missingRequiredVars(); len(missing) > 0 {
		return nil, errors.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	c := &Config{
		MongoURI:           os.Getenv("MONGODB_URI"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		SessionName:        os.Getenv("SESSION_NAME"),
		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPUser:           os.Getenv("SMTP_USER"),
		SMTPPass:           os.Getenv("SMTP_PASS"),
		SMTPFrom:           os.Getenv("SMTP_FROM"),
		RecaptchaSiteKey:   os.Getenv("RECAPTCHA_SITE_KEY"),
		RecaptchaSecretKey: os.Getenv("RECAPTCHA_SECRET_KEY"),
		RecaptchaAction:    os.Getenv("RECAPTCHA_ACTION"),
		SSLKeyPath:         os.Getenv("SSL_KEY_PATH"),
		SSLCertPath:        os.Getenv("SSL_CERT_PATH"),
		SSLChainPath:       os.Getenv("SSL_CHAIN_PATH"),
	}

	mongoURL, err := url.Parse(c.MongoURI)
	if err != nil || (mongoURL.Scheme != "mongodb" && mongoURL.Scheme != "mongodb+srv") {
		return nil, errors.New("MONGODB_URI: invalid MongoDB URI format")
	}

	if len(c.SessionSecret) < 64 {
		return nil, errors.New("SESSION_SECRET: session secret must be at least 64 characters")
	}

	c.AllowedOrigins = strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",")
	for i := range c.AllowedOrigins {
		c.AllowedOrigins[i] = strings.TrimSpace(c.AllowedOrigins[i])
	}

	c.AppEnv = os.Getenv("APP_ENV")
	switch c.AppEnv {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return nil, errors.Errorf("APP_ENV: must be one of development, production, test, got: %s", c.AppEnv)
	}

	if c.HTTPPort, err = parsePort("HTTP_PORT"); err != nil {
		return nil, err
	}
	if c.HTTPSPort, err = parsePort("HTTPS_PORT"); err != nil {
		return nil, err
	}

	if c.SMTPPort, err = parsePort("SMTP_PORT"); err != nil {
		return nil, err
	}
	c.SMTPSecure = os.Getenv("SMTP_SECURE") == "true"
	if _, err = mail.ParseAddress(c.SMTPFrom); err != nil {
		return nil, errors.Wrap(err, "SMTP_FROM: invalid from address format")
	}

	baseURL, err := url.Parse(os.Getenv("BASE_URL"))
	if err != nil || (baseURL.Scheme != "http" && baseURL.Scheme != "https") || baseURL.Host == "" {
		return nil, errors.New("BASE_URL: invalid base URL format")
	}
	c.BaseURL = strings.TrimSuffix(baseURL.String(), "/")

	c.RecaptchaMinScore, err = strconv.ParseFloat(os.Getenv("RECAPTCHA_MIN_SCORE"), 64)
	if err != nil || c.RecaptchaMinScore < 0 || c.RecaptchaMinScore > 1 {
		return nil, errors.New("RECAPTCHA_MIN_SCORE: must be a number between 0 and 1")
	}

	windowMs, err := parsePositiveInt("RATE_LIMIT_WINDOW_MS")
	if err != nil {
		return nil, err
	}
	c.RateLimitWindow = time.Duration(windowMs) * time.Millisecond
	if c.RateLimitMax, err = parsePositiveInt("RATE_LIMIT_MAX_REQUESTS"); err != nil {
		return nil, err
	}
	if c.LoginRateLimitMax, err = parsePositiveInt("LOGIN_RATE_LIMIT_MAX"); err != nil {
		return nil, err
	}

	maxAgeSecs, err := parsePositiveInt("SESSION_MAX_AGE")
	if err != nil {
		return nil, err
	}
	c.SessionMaxAge = time.Duration(maxAgeSecs) * time.Second

	c.SessionStore = os.Getenv("SESSION_STORE")
	if c.SessionStore == "" {
		c.SessionStore = SessionStoreMongo
	}
	switch c.SessionStore {
	case SessionStoreMongo:
	case SessionStoreRedis:
		c.RedisURI = os.Getenv("REDIS_URI")
		if c.RedisURI == "" {
			return nil, errors.New("REDIS_URI: required when SESSION_STORE is redis")
		}
	default:
		return nil, errors.Errorf("SESSION_STORE: must be mongo or redis, got: %s", c.SessionStore)
	}

	c.UploadDir = os.Getenv("UPLOAD_DIR")
	if c.UploadDir == "" {
		c.UploadDir = "public"
	}

	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		levelStr = "INFO"
	}
	if c.LogLevel, err = logger.ParseLevel(levelStr); err != nil {
		return nil, errors.Wrap(err, "LOG_LEVEL")
	}

	if c.AppEnv == EnvProduction {
		if c.SSLKeyPath == "" || c.SSLCertPath == "" || c.SSLChainPath == "" {
			return nil, errors.New("SSL configuration is required in production environment")
		}
	}

	return c, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

func missingRequiredVars() []string {
	var missing []string
	for _, name := range requiredVars {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func parsePort(name string) (int, error) {
	p, err := strconv.Atoi(os.Getenv(name))
	if err != nil || p < 1 || p > 65535 {
		return 0, errors.Errorf("%s: must be a valid port number, got: %s", name, os.Getenv(name))
	}
	return p, nil
}

func parsePositiveInt(name string) (int, error) {
	n, err := strconv.Atoi(os.Getenv(name))
	if err != nil || n <= 0 {
		return 0, errors.Errorf("%s: must be a positive integer, got: %s", name, os.Getenv(name))
	}
	return n, nil
}
