package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvDefaults(t *testing.T) {
	cfg, err := LoadEnv("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "bedrock", cfg.Classifier.Backend)
	assert.Equal(t, 15*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, "development", cfg.Identity.Provider)
	assert.Equal(t, int64(25*1024*1024), cfg.Transcription.MaxFileSize)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CLASSIFIER_BACKEND", "keyword")
	t.Setenv("CLASSIFIER_TIMEOUT", "3s")
	t.Setenv("OPENAI_API_KEY", "sk-legacy")
	t.Setenv("IDENTITY_PROVIDER", "jwt")
	t.Setenv("SUPABASE_JWT_SECRET", "legacy-secret")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := LoadEnv("")
	require.NoError(t, err)

	assert.Equal(t, "keyword", cfg.Classifier.Backend)
	assert.Equal(t, 3*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, "sk-legacy", cfg.Transcription.APIKey)
	assert.Equal(t, "sk-legacy", cfg.Classifier.OpenAI.APIKey)
	assert.Equal(t, "legacy-secret", cfg.Identity.JWTSecret)
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)
}

func TestLoadEnvSectionedNameWins(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-legacy")
	t.Setenv("TRANSCRIPTION_API_KEY", "sk-whisper")

	cfg, err := LoadEnv("")
	require.NoError(t, err)
	assert.Equal(t, "sk-whisper", cfg.Transcription.APIKey)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DATABASE_DRIVER=postgres\nDATABASE_DSN=postgres://localhost/callstack\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("DATABASE_DRIVER")
		os.Unsetenv("DATABASE_DSN")
	})

	cfg, err := LoadEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/callstack", cfg.Database.DSN)

	_, err = LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoadEnvRejectsUnknownBackend(t *testing.T) {
	t.Setenv("CLASSIFIER_BACKEND", "telepathy")

	_, err := LoadEnv("")
	assert.Error(t, err)
}
