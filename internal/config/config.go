package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Version is the bridge build version reported to the quiz service in the
// X-Plugin-Version header and in signed payloads.
const Version = "2024041600"

type Config struct {
	HTTPAddr  string
	PublicURL string `validate:"required,url"`

	DBDriver string
	DBDSN    string

	// Quiz-service credentials. Every signed operation needs all three;
	// a missing value is a hard misconfiguration, not a degraded mode.
	AccessKeyID     string `validate:"required"`
	SecretAccessKey string `validate:"required"`
	BaseURL         string `validate:"required,url"`

	// ShowConsentScreen gates whether students are asked before their email
	// is shared with the quiz service. Teachers never see the prompt.
	ShowConsentScreen bool

	// SessionSecret signs the visitor session cookie.
	SessionSecret string `validate:"required"`

	// LoginURL is where anonymous visitors are sent to authenticate.
	LoginURL string

	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOrigins []string
}

func FromEnv() Config {
	pub := strings.TrimSuffix(envOr("PUBLIC_URL", "http://localhost:8080"), "/")
	return Config{
		HTTPAddr:          envOr("HTTP_ADDR", ":8080"),
		PublicURL:         pub,
		DBDriver:          envOr("DB_DRIVER", "sqlite"),
		DBDSN:             os.Getenv("DB_DSN"),
		AccessKeyID:       os.Getenv("QUIZLINK_ACCESS_KEY_ID"),
		SecretAccessKey:   os.Getenv("QUIZLINK_SECRET_ACCESS_KEY"),
		BaseURL:           strings.TrimSuffix(envOr("QUIZLINK_BASE_URL", "https://app.quizlink.io"), "/"),
		ShowConsentScreen: envBool("SHOW_CONSENT_SCREEN", true),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		LoginURL:          envOr("LOGIN_URL", pub+"/login"),
		AdminUser:         envOr("ADMIN_USER", "admin"),
		AdminPassHash:     os.Getenv("ADMIN_PASS_HASH"),
		CORSOrigins:       csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

// Validate reports missing or malformed settings. Called once at startup so
// a bad deployment fails fast instead of rejecting its first signed call.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	return v.Struct(c)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func csvOr(k, def string) []string {
	parts := strings.Split(envOr(k, def), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
