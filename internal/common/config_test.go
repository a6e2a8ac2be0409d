package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, 8090, config.Server.Port)
	assert.Equal(t, 30, config.Engine.FetchConcurrency)
	assert.Equal(t, 50, config.Engine.MaxInstruments)
	assert.Equal(t, 20, config.Engine.PageSize)
	assert.False(t, config.IsProduction())
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "askfin.toml")
	content := `
environment = "production"

[server]
port = 9000

[engine]
page_size = 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, 10, config.Engine.PageSize)
	assert.True(t, config.IsProduction())
	// untouched sections keep defaults
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "askfin.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 9000\n"), 0o644))

	t.Setenv("ASKFIN_PORT", "7000")
	t.Setenv("ASKFIN_LOG_LEVEL", "debug")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, config.Server.Port)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadConfigSkipsMissingFiles(t *testing.T) {
	config, err := LoadConfig("does/not/exist.toml")
	require.NoError(t, err)
	assert.Equal(t, 8090, config.Server.Port)
}

func TestValidateEngineClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "askfin.toml")
	require.NoError(t, os.WriteFile(path, []byte("[engine]\nfetch_concurrency = -1\npage_size = 0\n"), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 30, config.Engine.FetchConcurrency)
	assert.Equal(t, 20, config.Engine.PageSize)
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("ECOS_API_KEY", "from-env")

	key, err := ResolveAPIKey("ecos_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
}

func TestResolveAPIKeyFallback(t *testing.T) {
	t.Setenv("ECOS_API_KEY", "")
	t.Setenv("ASKFIN_ECOS_API_KEY", "")

	key, err := ResolveAPIKey("ecos_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-config", key)

	_, err = ResolveAPIKey("ecos_api_key", "")
	require.Error(t, err)
}
