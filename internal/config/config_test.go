package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults_FillsPolicy(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 30*time.Second, cfg.OTP.ResendInterval)
	assert.Equal(t, 5, cfg.OTP.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.OTP.ResetTTL)
	assert.Equal(t, 100, sumWeights(cfg.Profile.StudentWeights))
	assert.Equal(t, 100, sumWeights(cfg.Profile.CompanyWeights))
	assert.True(t, cfg.AllowWithdrawAfterShortlist())
	assert.Equal(t, "token", cfg.JWT.CookieName)
}

func TestValidate_RejectsBadWeights(t *testing.T) {
	var cfg Config
	cfg.JWT.Secret = "secret"
	cfg.Database.Driver = "memory"
	cfg.Profile.StudentWeights = map[string]int{"basic-info": 50, "skills": 10}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "student_weights")
}

func TestValidate_RequiresSecretAndDSN(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
	assert.Contains(t, err.Error(), "database.url")
}

func TestLoad_FileThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 8081
  env: production
database:
  driver: memory
jwt:
  secret: from-file
otp:
  ttl: 5m
matching:
  allow_withdraw_after_shortlist: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Env)
	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL)
	assert.False(t, cfg.AllowWithdrawAfterShortlist())
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
