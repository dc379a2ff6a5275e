package env

import (
	"errors"
	"fmt"
	"time"
)

type AppConfig struct {
	BrowserbaseAPIKey     string
	BrowserbaseProjectID  string
	BrowserbaseAPIURL     string
	BrowserbaseConnectURL string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	SummaryModel  string

	HTTPAddr string

	MaxSteps        int
	ToolTimeout     time.Duration
	ProviderTimeout time.Duration
	PageLoadTimeout time.Duration

	SearchURLTemplate string
	FetchDenyHosts    []string

	LogLevel  string
	LogFormat string
}

// LoadConfig reads the typed configuration. Every missing credential is
// reported, not only the first.
func LoadConfig(e *EnvService) (*AppConfig, error) {
	var errs []error
	require := func(key string) string {
		val, err := e.Require(key)
		if err != nil {
			errs = append(errs, err)
		}
		return val
	}

	cfg := &AppConfig{
		BrowserbaseAPIKey:     require("BROWSERBASE_API_KEY"),
		BrowserbaseProjectID:  require("BROWSERBASE_PROJECT_ID"),
		OpenAIAPIKey:          require("OPENAI_API_KEY"),
		BrowserbaseAPIURL:     e.GetWithDefault("BROWSERBASE_API_URL", "https://www.browserbase.com"),
		BrowserbaseConnectURL: e.GetWithDefault("BROWSERBASE_CONNECT_URL", "wss://connect.browserbase.com"),
		OpenAIBaseURL:         e.GetWithDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:           e.GetWithDefault("OPENAI_MODEL", "gpt-4-turbo"),
		HTTPAddr:              e.GetWithDefault("HTTP_ADDR", ":3000"),
		MaxSteps:              e.GetInt("MAX_STEPS", 5),
		ToolTimeout:           e.GetDuration("TOOL_TIMEOUT", 90*time.Second),
		ProviderTimeout:       e.GetDuration("PROVIDER_TIMEOUT", 30*time.Second),
		PageLoadTimeout:       e.GetDuration("PAGE_LOAD_TIMEOUT", 10*time.Second),
		SearchURLTemplate:     e.GetWithDefault("SEARCH_URL_TEMPLATE", "https://www.google.com/search?q=%s"),
		FetchDenyHosts:        e.GetList("FETCH_DENY_HOSTS"),
		LogLevel:              e.GetWithDefault("LOG_LEVEL", "info"),
		LogFormat:             e.GetWithDefault("LOG_FORMAT", "json"),
	}
	cfg.SummaryModel = e.GetWithDefault("SUMMARY_MODEL", cfg.OpenAIModel)

	if cfg.MaxSteps < 1 {
		errs = append(errs, fmt.Errorf("MAX_STEPS must be at least 1, got %d", cfg.MaxSteps))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
