package bootstrap

import (
	"context"
	"sync"

	"google.golang.org/adk/agent"

	"stockresearch/internal/adapters/adk"
	"stockresearch/internal/adapters/ai"
	"stockresearch/internal/adapters/config"
	"stockresearch/internal/agents"
	"stockresearch/internal/agents/state"
	"stockresearch/internal/agents/workflows"
	"stockresearch/internal/api"
	"stockresearch/internal/api/health"
	marketdatasvc "stockresearch/internal/services/market_data"
	"stockresearch/internal/tools"
	"stockresearch/pkg/errors"
	"stockresearch/pkg/logger"
)

// Container holds all application dependencies and their lifecycle.
// It is built once in main and passed down explicitly.
// Components are organized in initialization order
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// External Adapters
	Adapters *Adapters

	// Services over the Polygon MCP bridge
	Services *Services

	// Business Logic
	Business *Business

	// Application Layer
	Application *Application

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Adapters groups all external adapters
type Adapters struct {
	Limiter ai.RateLimiter
	Models  *adk.ModelProvider
}

// Services groups the data services
type Services struct {
	MarketData *marketdatasvc.Service
}

// Business groups business logic components
type Business struct {
	ToolRegistry    *tools.Registry
	AgentFactory    *agents.Factory
	WorkflowFactory *workflows.Factory
}

// Application groups application layer components.
// HTTPServer is nil unless METRICS_ADDR is set.
type Application struct {
	HTTPServer    *api.Server
	HealthHandler *health.Handler
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Adapters:    &Adapters{},
		Services:    &Services{},
		Business:    &Business{},
		Application: &Application{},
		Lifecycle:   NewLifecycle(),
		WG:          &sync.WaitGroup{},
		Context:     ctx,
		Cancel:      cancel,
	}
}

// MustInit initializes all components in the correct order
// Panics on any initialization error (fail-fast at startup)
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitAdapters()
	c.MustInitServices()
	c.MustInitBusiness()
	c.MustInitApplication()
}

// Start starts the optional ops HTTP server
func (c *Container) Start() error {
	if c.Application.HTTPServer == nil {
		c.Log.Debug("Metrics listener disabled")
		return nil
	}

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Application.HTTPServer.Start(); err != nil {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel()
		}
	}()

	c.Log.Info("✓ Ops HTTP server started")
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Cancel()
	c.Lifecycle.Shutdown(c.WG, c.Application.HTTPServer, c.ErrorTracker, c.Log)
}

// TraderRunner builds the trader pipeline for ticker and wraps it in a runner
// that collects every pipeline output key. The final strategy decision is required.
func (c *Container) TraderRunner(ctx context.Context, ticker string) (*agents.Runner, error) {
	pipeline, err := c.Business.WorkflowFactory.CreateTraderPipeline(ctx, workflows.Options{Ticker: ticker})
	if err != nil {
		return nil, err
	}
	return c.newRunner(pipeline, workflows.TraderOutputKeys, []string{state.KeyStrategyResult})
}

// ResearchRunner builds the research assistant and wraps it in a runner
func (c *Container) ResearchRunner(ctx context.Context) (*agents.Runner, error) {
	assistant, err := c.Business.WorkflowFactory.CreateResearchAssistant(ctx)
	if err != nil {
		return nil, err
	}
	return c.newRunner(assistant, workflows.ResearchOutputKeys, nil)
}

func (c *Container) newRunner(root agent.Agent, outputKeys, requiredKeys []string) (*agents.Runner, error) {
	return agents.NewRunner(root, agents.RunnerConfig{
		AppName:      c.Config.App.Name,
		UserID:       c.Config.Agents.UserID,
		Timeout:      c.Config.Agents.ExecutionTimeout,
		OutputKeys:   outputKeys,
		RequiredKeys: requiredKeys,
	})
}
