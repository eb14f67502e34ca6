// Package config loads process settings from .env files and the environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/joho/godotenv"
)

// Config holds every setting of the process. It is loaded once at startup
// and passed by value or pointer into constructors.
type Config struct {
	// server
	Port string

	// store
	DatabaseDriver string
	DatabaseDSN    string
	DatabaseDebug  bool

	// logging
	LogLevel string
	AuditLog string

	// tokens and confirmation codes
	SigningKey      string
	CodeSalt        string
	CodeTTL         time.Duration
	TokenExpiration int
	Issuer          string
	Audience        []string
	ContextKey      string
	TokenLookup     string
	AuthScheme      string
	UseHashid       bool

	// mail
	MailBackend  string
	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	MailBackendLog  = "log"
	MailBackendSMTP = "smtp"
)

// Load reads .env (when present) and then the environment.
func Load(files ...string) (*Config, error) {
	loadEnvFiles(files...)

	cfg := &Config{
		Port: getEnv("YAMDB_PORT", "8000"),

		DatabaseDriver: getEnv("YAMDB_DB_DRIVER", DriverSQLite),
		DatabaseDSN:    getEnv("YAMDB_DB_DSN", "file:yamdb.sqlite?cache=shared"),
		DatabaseDebug:  getEnvAsBool("YAMDB_DB_DEBUG", false),

		LogLevel: getEnv("YAMDB_LOG_LEVEL", "INFO"),
		AuditLog: getEnv("YAMDB_AUDIT_LOG", ""),

		SigningKey:      getEnv("YAMDB_SIGNING_KEY", ""),
		CodeSalt:        getEnv("YAMDB_CODE_SALT", "yamdb-confirmation"),
		CodeTTL:         getEnvAsDuration("YAMDB_CODE_TTL", 72*time.Hour),
		TokenExpiration: getEnvAsInt("YAMDB_TOKEN_EXPIRATION_HOURS", 24),
		Issuer:          getEnv("YAMDB_TOKEN_ISSUER", "yamdb"),
		Audience:        getEnvAsList("YAMDB_TOKEN_AUDIENCE", []string{"yamdb"}),
		ContextKey:      getEnv("YAMDB_CONTEXT_KEY", "user"),
		TokenLookup:     getEnv("YAMDB_TOKEN_LOOKUP", "header:Authorization"),
		AuthScheme:      getEnv("YAMDB_AUTH_SCHEME", "Bearer"),
		UseHashid:       getEnvAsBool("YAMDB_USE_HASHID", false),

		MailBackend:  getEnv("YAMDB_MAIL_BACKEND", MailBackendLog),
		SMTPHost:     getEnv("YAMDB_SMTP_HOST", "localhost"),
		SMTPPort:     getEnvAsInt("YAMDB_SMTP_PORT", 25),
		SMTPFrom:     getEnv("YAMDB_SMTP_FROM", "noreply@yamdb.local"),
		SMTPUsername: getEnv("YAMDB_SMTP_USERNAME", ""),
		SMTPPassword: getEnv("YAMDB_SMTP_PASSWORD", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadEnvFiles(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err == nil {
			continue
		}

		cwd, err := os.Getwd()
		if err != nil {
			continue
		}

		parent := filepath.Dir(cwd)
		if parent == "" || parent == cwd {
			continue
		}

		_ = godotenv.Load(filepath.Join(parent, f))
	}
}

// Validate checks required settings.
func (c *Config) Validate() error {
	var smtpRules []validation.Rule
	if c.MailBackend == MailBackendSMTP {
		smtpRules = []validation.Rule{validation.Required}
	}

	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.DatabaseDriver, validation.Required, validation.In(DriverSQLite, DriverPostgres)),
		validation.Field(&c.DatabaseDSN, validation.Required),
		validation.Field(&c.SigningKey, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.CodeSalt, validation.Required),
		validation.Field(&c.TokenExpiration, validation.Required, validation.Min(1)),
		validation.Field(&c.MailBackend, validation.Required, validation.In(MailBackendLog, MailBackendSMTP)),
		validation.Field(&c.SMTPHost, smtpRules...),
		validation.Field(&c.SMTPPort, append(smtpRules, validation.Max(65535))...),
	)
}

func (c Config) GetSigningKey() string { return c.SigningKey }
func (c Config) GetCodeSalt() string { return c.CodeSalt }
func (c Config) GetCodeTTL() time.Duration { return c.CodeTTL }
func (c Config) GetTokenExpiration() int { return c.TokenExpiration }
func (c Config) GetIssuer() string { return c.Issuer }
func (c Config) GetAudience() []string { return c.Audience }
func (c Config) GetContextKey() string { return c.ContextKey }
func (c Config) GetTokenLookup() string { return c.TokenLookup }
func (c Config) GetAuthScheme() string { return c.AuthScheme }

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	out := []string{}
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
