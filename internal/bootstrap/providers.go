package bootstrap

import (
	"context"
	"os"

	"stockresearch/internal/adapters/adk"
	"stockresearch/internal/adapters/ai"
	"stockresearch/internal/adapters/config"
	errnoop "stockresearch/internal/adapters/errors/noop"
	"stockresearch/internal/adapters/errors/sentry"
	"stockresearch/internal/adapters/polygon"
	"stockresearch/internal/agents"
	"stockresearch/internal/agents/workflows"
	"stockresearch/internal/api"
	"stockresearch/internal/api/health"
	"stockresearch/internal/metrics"
	marketdatasvc "stockresearch/internal/services/market_data"
	"stockresearch/internal/tools"
	"stockresearch/pkg/errors"
	"stockresearch/pkg/logger"
)

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	c.Log = logger.Get()

	if err := cfg.Validate(); err != nil {
		c.Log.Fatalf("invalid configuration: %v", err)
	}
	c.Config = cfg
	c.Log.Infof("Starting %s %s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Env)

	// Initialize error tracker
	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)

	metrics.Init()
}

// ========================================
// Phase 2: External Adapters
// ========================================

// MustInitAdapters initializes the LLM backend behind a shared rate limiter
func (c *Container) MustInitAdapters() {
	c.Adapters.Limiter = ai.NewRateLimiter("gemini", float64(c.Config.LLM.RequestsPerMinute), c.Config.LLM.Burst)
	c.Adapters.Models = adk.NewModelProvider(adk.GeminiConstructor(c.Config.LLM.GoogleAPIKey), c.Adapters.Limiter)

	c.Log.Infof("✓ LLM adapters initialized (%d req/min)", c.Config.LLM.RequestsPerMinute)
}

// ========================================
// Phase 3: Services
// ========================================

// MustInitServices initializes the market data service over the Polygon MCP bridge
func (c *Container) MustInitServices() {
	c.Services.MarketData = marketdatasvc.NewService(
		providePolygonClientFactory(c.Config),
		marketdatasvc.WithBatchDelay(c.Config.MCP.BatchDelay),
		marketdatasvc.WithRSIBands(c.Config.Agents.RSIOversold, c.Config.Agents.RSIOverbought),
	)

	c.Log.Infof("✓ Market data service initialized (launcher %s)", c.Config.MCP.LauncherPath)
}

// ========================================
// Phase 4: Business Logic
// ========================================

// MustInitBusiness initializes tools, the agent factory and the workflow factory
func (c *Container) MustInitBusiness() {
	c.Business.ToolRegistry = tools.NewRegistry()
	if err := tools.RegisterMarketTools(c.Business.ToolRegistry, c.Services.MarketData, c.Config.Agents.ToolTimeout); err != nil {
		c.Log.Fatalf("failed to register tools: %v", err)
	}

	var err error
	c.Business.AgentFactory, err = agents.NewFactory(agents.FactoryDeps{
		Models:       c.Adapters.Models,
		ModelNames:   agents.ModelNames(c.Config.LLM),
		ToolRegistry: c.Business.ToolRegistry,
		Tracker:      c.ErrorTracker,
		Strategy: agents.StrategyConfig{
			RSIOversold:   c.Config.Agents.RSIOversold,
			RSIOverbought: c.Config.Agents.RSIOverbought,
		},
	})
	if err != nil {
		c.Log.Fatalf("failed to initialize agent factory: %v", err)
	}

	c.Business.WorkflowFactory = workflows.NewFactory(c.Business.AgentFactory)

	c.Log.Infof("✓ Business logic initialized (%d tools)", len(c.Business.ToolRegistry.Names()))
}

// ========================================
// Phase 5: Application Layer
// ========================================

// MustInitApplication initializes health checks and, when METRICS_ADDR is
// set, the ops HTTP server
func (c *Container) MustInitApplication() {
	c.Application.HealthHandler = health.New(c.Log, c.Config.App.Name, c.Config.App.Version, provideHealthChecks(c.Config))

	if c.Config.Metrics.Addr == "" {
		return
	}
	c.Application.HTTPServer = api.NewServer(api.ServerConfig{
		Addr:        c.Config.Metrics.Addr,
		ServiceName: c.Config.App.Name,
		Version:     c.Config.App.Version,
	}, c.Application.HealthHandler, c.Log)
}

// ========================================
// Helper Provider Functions
// ========================================

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Debug("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

// providePolygonClientFactory returns a factory of clients, each with its own
// session that spawns a fresh MCP server subprocess on open
func providePolygonClientFactory(cfg *config.Config) marketdatasvc.ClientFactory {
	transport := polygon.CommandTransportFactory(polygon.CommandOptions{
		Launcher:          cfg.MCP.LauncherPath,
		Args:              cfg.MCP.Args(),
		APIKey:            cfg.Polygon.APIKey,
		TerminateDuration: cfg.MCP.TerminateDuration,
	})
	return func() *polygon.Client {
		return polygon.NewClient(polygon.NewSession(transport), polygon.WithCallTimeout(cfg.MCP.CallTimeout))
	}
}

// provideHealthChecks checks static prerequisites only. Probing the MCP
// server would spawn a subprocess per request.
func provideHealthChecks(cfg *config.Config) map[string]health.Check {
	launcher := cfg.MCP.LauncherPath
	return map[string]health.Check{
		"mcp_launcher": func(context.Context) error {
			info, err := os.Stat(launcher)
			if err != nil {
				return errors.Wrapf(errors.ErrConfig, "launcher %s: %v", launcher, err)
			}
			if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
				return errors.Wrapf(errors.ErrConfig, "launcher %s is not executable", launcher)
			}
			return nil
		},
		"llm": func(context.Context) error {
			if cfg.LLM.GoogleAPIKey == "" {
				return errors.Wrap(errors.ErrConfig, "GOOGLE_API_KEY is not set")
			}
			return nil
		},
	}
}
