package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BROWSERBASE_API_KEY", "bb_key")
	t.Setenv("BROWSERBASE_PROJECT_ID", "proj")
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig(&EnvService{})
	require.NoError(t, err)

	assert.Equal(t, "bb_key", cfg.BrowserbaseAPIKey)
	assert.Equal(t, "https://www.browserbase.com", cfg.BrowserbaseAPIURL)
	assert.Equal(t, "wss://connect.browserbase.com", cfg.BrowserbaseConnectURL)
	assert.Equal(t, "gpt-4-turbo", cfg.OpenAIModel)
	assert.Equal(t, "gpt-4-turbo", cfg.SummaryModel)
	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, 5, cfg.MaxSteps)
	assert.Equal(t, 90*time.Second, cfg.ToolTimeout)
	assert.Equal(t, 30*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 10*time.Second, cfg.PageLoadTimeout)
	assert.Empty(t, cfg.FetchDenyHosts)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("MAX_STEPS", "8")
	t.Setenv("TOOL_TIMEOUT", "2m")
	t.Setenv("PROVIDER_TIMEOUT", "45")
	t.Setenv("FETCH_DENY_HOSTS", "localhost, internal.example ,,")

	cfg, err := LoadConfig(&EnvService{})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.SummaryModel)
	assert.Equal(t, 8, cfg.MaxSteps)
	assert.Equal(t, 2*time.Minute, cfg.ToolTimeout)
	assert.Equal(t, 45*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, []string{"localhost", "internal.example"}, cfg.FetchDenyHosts)
}

func TestLoadConfig_MissingCredentials(t *testing.T) {
	t.Setenv("BROWSERBASE_API_KEY", "")
	t.Setenv("BROWSERBASE_PROJECT_ID", "proj")
	t.Setenv("OPENAI_API_KEY", " ")

	_, err := LoadConfig(&EnvService{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BROWSERBASE_API_KEY")
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.NotContains(t, err.Error(), "BROWSERBASE_PROJECT_ID")
}

func TestLoadConfig_InvalidMaxSteps(t *testing.T) {
	setRequired(t)
	t.Setenv("MAX_STEPS", "0")

	_, err := LoadConfig(&EnvService{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_STEPS")
}

func TestEnvService_Getters(t *testing.T) {
	e := &EnvService{}
	t.Setenv("X_BOOL", "true")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "bad")

	assert.True(t, e.GetBool("X_BOOL", false))
	assert.True(t, e.GetBool("X_MISSING", true))
	assert.Equal(t, 7, e.GetInt("X_INT", 7))
	assert.Equal(t, time.Second, e.GetDuration("X_DUR", time.Second))
	assert.Equal(t, "fallback", e.GetWithDefault("X_MISSING", "fallback"))
}
