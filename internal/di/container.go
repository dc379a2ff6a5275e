package di

import (
	"fmt"

	"browsegpt/internal/adapter/httpapi"
	"browsegpt/internal/adapter/tool"
	"browsegpt/internal/application/port/input"
	"browsegpt/internal/application/port/output"
	"browsegpt/internal/application/service"
	"browsegpt/internal/domain/entity"
	"browsegpt/internal/infrastructure/browser/rod"
	"browsegpt/internal/infrastructure/browserbase"
	"browsegpt/internal/infrastructure/env"
	"browsegpt/internal/infrastructure/extract"
	"browsegpt/internal/infrastructure/llm/openaichat"
	"browsegpt/internal/infrastructure/llm/summarizer"
	"browsegpt/internal/infrastructure/logger"
	"browsegpt/internal/infrastructure/prompts"
	"browsegpt/internal/usecase/chat"
)

type Container struct {
	Config   *env.AppConfig
	Logger   output.LoggerPort
	Sessions output.SessionProviderPort
	Browser  output.BrowserPort
	LLM      output.LLMPort
	Tools    output.ToolRegistry
	Chat     input.ChatExecutor
	Server   *httpapi.Server
}

// NewContainer builds every component from cfg. Nothing is connected until
// the first request: sessions and pages are reached on demand.
func NewContainer(cfg *env.AppConfig) (*Container, error) {
	log, err := logger.NewLoggerAdapter(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	sessionsCfg := browserbase.DefaultConfig(cfg.BrowserbaseAPIKey, cfg.BrowserbaseProjectID)
	sessionsCfg.BaseURL = cfg.BrowserbaseAPIURL
	sessionsCfg.Timeout = cfg.ProviderTimeout
	sessionsCfg.Logger = log.WithField("component", "browserbase")
	sessions := browserbase.NewClient(sessionsCfg)

	browserCfg := rod.DefaultConfig(cfg.BrowserbaseAPIKey)
	browserCfg.ConnectURL = cfg.BrowserbaseConnectURL
	browserCfg.SearchURLTemplate = cfg.SearchURLTemplate
	browserCfg.LoadTimeout = cfg.PageLoadTimeout
	browserCfg.Logger = log.WithField("component", "browser")
	browser := rod.NewBrowserAdapter(browserCfg)

	extractCfg := extract.DefaultConfig()
	extractCfg.Logger = log.WithField("component", "extractor")
	extractor := extract.NewExtractor(extractCfg)

	summaryCfg := summarizer.DefaultConfig(cfg.OpenAIAPIKey)
	summaryCfg.Model = cfg.SummaryModel
	summaryCfg.BaseURL = cfg.OpenAIBaseURL
	summaryCfg.Timeout = cfg.ProviderTimeout
	summaryCfg.Logger = log.WithField("component", "summarizer")
	summary, err := summarizer.New(summaryCfg)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create summarizer: %w", err)
	}

	llmCfg := openaichat.DefaultConfig(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	llmCfg.BaseURL = cfg.OpenAIBaseURL
	llmCfg.Logger = log.WithField("component", "chat-model")
	llm := openaichat.NewChatAdapter(llmCfg)

	tools := service.NewToolRegistry()
	registerTools(tools, sessions, browser, extractor, summary, tool.NewURLPolicy(cfg.FetchDenyHosts), log)

	dispatcher, err := service.NewDispatcher(tools, log.WithField("component", "dispatcher"), service.DispatcherConfig{
		Timeout: cfg.ToolTimeout,
	})
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	systemPrompt, err := prompts.GenerateSystemPrompt(prompts.DefaultSystemPrompt, tools, cfg.MaxSteps)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to build system prompt: %w", err)
	}

	chatCfg := chat.DefaultConfig()
	chatCfg.MaxSteps = cfg.MaxSteps
	uc := chat.New(llm, tools, dispatcher, log.WithField("component", "chat"), systemPrompt, chatCfg)

	serverCfg := httpapi.DefaultConfig(cfg.HTTPAddr)
	serverCfg.AccessLogJSON = cfg.LogFormat == "json"
	server := httpapi.NewServer(serverCfg, uc, sessions, browser, log.WithField("component", "http"))

	return &Container{
		Config:   cfg,
		Logger:   log,
		Sessions: sessions,
		Browser:  browser,
		LLM:      llm,
		Tools:    tools,
		Chat:     uc,
		Server:   server,
	}, nil
}

func (c *Container) Close() {
	if c.Logger != nil {
		c.Logger.Close()
	}
}

func registerTools(
	registry *service.ToolRegistryImpl,
	sessions output.SessionProviderPort,
	browser output.BrowserPort,
	extractor output.ContentExtractorPort,
	summary output.SummarizerPort,
	policy *tool.URLPolicy,
	log output.LoggerPort,
) {
	registry.Register(tool.NewCreateSessionTool(sessions, log.WithField("tool", entity.ToolCreateSession.String())))
	registry.Register(tool.NewRequestConfirmationTool())
	registry.Register(tool.NewWebSearchTool(browser, summary, log.WithField("tool", entity.ToolWebSearch.String())))
	registry.Register(tool.NewFetchPageTool(browser, extractor, summary, policy, log.WithField("tool", entity.ToolFetchPageContent.String())))
}
