package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-yamdb/config"
)

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("YAMDB_SIGNING_KEY", "a-very-long-signing-key")
	t.Setenv("YAMDB_PORT", "9090")
	t.Setenv("YAMDB_CODE_TTL", "30m")
	t.Setenv("YAMDB_TOKEN_EXPIRATION_HOURS", "2")
	t.Setenv("YAMDB_TOKEN_AUDIENCE", "web, mobile ,")
	t.Setenv("YAMDB_USE_HASHID", "true")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.GetCodeTTL())
	assert.Equal(t, 2, cfg.GetTokenExpiration())
	assert.Equal(t, []string{"web", "mobile"}, cfg.GetAudience())
	assert.True(t, cfg.UseHashid)

	assert.Equal(t, config.DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, config.MailBackendLog, cfg.MailBackend)
	assert.Equal(t, "header:Authorization", cfg.GetTokenLookup())
	assert.Equal(t, "Bearer", cfg.GetAuthScheme())
	assert.Equal(t, "user", cfg.GetContextKey())
	assert.Equal(t, "yamdb", cfg.GetIssuer())
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(file, []byte("YAMDB_SIGNING_KEY=from-dotenv-file-key\nYAMDB_LOG_LEVEL=DEBUG\n"), 0o600))

	t.Setenv("YAMDB_SIGNING_KEY", "")
	t.Setenv("YAMDB_LOG_LEVEL", "")
	// godotenv never overrides variables that are already set
	require.NoError(t, os.Unsetenv("YAMDB_SIGNING_KEY"))
	require.NoError(t, os.Unsetenv("YAMDB_LOG_LEVEL"))

	cfg, err := config.Load(file)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv-file-key", cfg.GetSigningKey())
	assert.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	base := config.Config{
		Port:            "8000",
		DatabaseDriver:  config.DriverSQLite,
		DatabaseDSN:     "file::memory:",
		SigningKey:      "a-very-long-signing-key",
		CodeSalt:        "salt",
		TokenExpiration: 24,
		MailBackend:     config.MailBackendLog,
	}
	require.NoError(t, base.Validate())

	short := base
	short.SigningKey = "short"
	assert.Error(t, short.Validate())

	driver := base
	driver.DatabaseDriver = "mysql"
	assert.Error(t, driver.Validate())

	smtp := base
	smtp.MailBackend = config.MailBackendSMTP
	assert.Error(t, smtp.Validate())

	smtp.SMTPHost = "mail.local"
	smtp.SMTPPort = 2525
	assert.NoError(t, smtp.Validate())
}
