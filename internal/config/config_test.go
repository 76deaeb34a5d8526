package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(10*1024*1024), cfg.Uploads.MaxGeneralBytes)
	assert.Equal(t, int64(5*1024*1024), cfg.Uploads.MaxWizardBytes)
	assert.Equal(t, 1500*time.Millisecond, cfg.Wizard.AutosaveDebounce)
	assert.Equal(t, 2*time.Second, cfg.TryOn.PollInterval)
	assert.Equal(t, 30, cfg.TryOn.MaxAttempts)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoadProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadHTTPInvokerNeedsFunctionURL(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("TRYON_INVOKER", "http")
	t.Setenv("TRYON_FUNCTION_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitList(" a:9092, ,b:9092 "))
}

func TestFetchAllowPrivateDependsOnEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.TryOn.FetchAllowPrivate)

	t.Setenv("TRYON_FETCH_ALLOW_PRIVATE", "false")
	cfg, err = Load()
	require.NoError(t, err)
	assert.False(t, cfg.TryOn.FetchAllowPrivate)
}
