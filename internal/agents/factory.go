package agents

import (
	"context"
	"time"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/geminitool"

	"stockresearch/internal/agents/callbacks"
	"stockresearch/internal/tools"
	"stockresearch/pkg/errors"
	"stockresearch/pkg/logger"
	"stockresearch/pkg/templates"
)

// ModelSource resolves a model by name. adk.ModelProvider implements it.
type ModelSource interface {
	Model(ctx context.Context, name string) (model.LLM, error)
}

// FactoryDeps gathers external dependencies needed to instantiate agents.
type FactoryDeps struct {
	Models       ModelSource
	ModelNames   map[ModelRole]string
	ToolRegistry *tools.Registry
	Templates    *templates.Registry
	Tracker      errors.Tracker
	Strategy     StrategyConfig
	Now          func() time.Time
}

// BuildOptions adjust a single agent build
type BuildOptions struct {
	// Ticker focuses instructions that support it on one stock
	Ticker string
	// ExtraTools are added after the registry tools, typically agent tools
	ExtraTools []tool.Tool
	// AfterToolCallbacks run after the audit callback
	AfterToolCallbacks []llmagent.AfterToolCallback
	// StateKeys, when non-nil, are the session state keys published before
	// this agent runs. Instructions requiring any other key are rejected.
	StateKeys []string
}

// Factory creates configured agents.
type Factory struct {
	models     ModelSource
	modelNames map[ModelRole]string
	registry   *tools.Registry
	templates  *templates.Registry
	tracker    errors.Tracker
	strategy   StrategyConfig
	now        func() time.Time
	lifecycle  *callbacks.Lifecycle
	log        *logger.Logger
}

// NewFactory builds an agent factory with required dependencies.
func NewFactory(deps FactoryDeps) (*Factory, error) {
	if deps.Models == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "model source is required")
	}
	if deps.ToolRegistry == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "tool registry is required")
	}
	if deps.Templates == nil {
		deps.Templates = templates.Get()
	}
	if deps.Strategy == (StrategyConfig{}) {
		deps.Strategy = DefaultStrategy
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Factory{
		models:     deps.Models,
		modelNames: deps.ModelNames,
		registry:   deps.ToolRegistry,
		templates:  deps.Templates,
		tracker:    deps.Tracker,
		strategy:   deps.Strategy,
		now:        deps.Now,
		lifecycle:  callbacks.NewLifecycle(deps.Tracker),
		log:        logger.Get().With("component", "agent_factory"),
	}, nil
}

// CreateAgentByType builds the agent declared in DefaultAgentConfigs
func (f *Factory) CreateAgentByType(ctx context.Context, agentType AgentType, opts BuildOptions) (agent.Agent, error) {
	cfg, ok := DefaultAgentConfigs[agentType]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "agent %s", agentType)
	}
	return f.CreateAgent(ctx, cfg, opts)
}

// CreateAgent constructs a single ADK agent instance from a config.
func (f *Factory) CreateAgent(ctx context.Context, cfg AgentConfig, opts BuildOptions) (agent.Agent, error) {
	modelName := f.modelNames[cfg.Model]
	if modelName == "" {
		return nil, errors.Wrapf(errors.ErrConfig, "no model configured for role %s (agent %s)", cfg.Model, cfg.Name())
	}
	llm, err := f.models.Model(ctx, modelName)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve model for %s", cfg.Name())
	}

	agentTools, err := f.registry.Lookup(cfg.Tools...)
	if err != nil {
		return nil, errors.Wrapf(err, "tools for %s", cfg.Name())
	}
	agentTools = append(agentTools, opts.ExtraTools...)

	toolInfo := make([]ToolInfo, 0, len(agentTools))
	for _, t := range agentTools {
		info := ToolInfo{Name: t.Name(), Description: t.Description()}
		if def, ok := f.registry.Definition(t.Name()); ok && def.Description != "" {
			info.Description = def.Description
		}
		toolInfo = append(toolInfo, info)
	}
	if cfg.GoogleSearch {
		// Gemini built-in search does not mix with function declarations
		if len(agentTools) > 0 {
			return nil, errors.Wrapf(errors.ErrConfig, "agent %s cannot combine Google Search with %d function tools", cfg.Name(), len(agentTools))
		}
		agentTools = append(agentTools, geminitool.GoogleSearch{})
	}

	instruction, err := f.templates.Render(cfg.Template, PromptData{
		AgentName:     cfg.Name(),
		Ticker:        opts.Ticker,
		Schema:        cfg.SchemaName,
		Tools:         toolInfo,
		RSIOversold:   f.strategy.RSIOversold,
		RSIOverbought: f.strategy.RSIOverbought,
		Date:          f.now().UTC().Format("2006-01-02"),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "render prompt for %s", cfg.Name())
	}
	if opts.StateKeys != nil {
		if missing := unpublishedKeys(instruction, opts.StateKeys); len(missing) > 0 {
			return nil, errors.Wrapf(errors.ErrConfig, "agent %s reads state %v before it is published", cfg.Name(), missing)
		}
	}

	afterTool := append([]llmagent.AfterToolCallback{callbacks.AuditLogAfterToolCallback(f.tracker)}, opts.AfterToolCallbacks...)

	ag, err := llmagent.New(llmagent.Config{
		Name:                 cfg.Name(),
		Description:          cfg.Description,
		Model:                llm,
		Instruction:          instruction,
		Tools:                agentTools,
		OutputKey:            cfg.OutputKey,
		OutputSchema:         cfg.OutputSchema,
		BeforeAgentCallbacks: []agent.BeforeAgentCallback{f.lifecycle.Before()},
		AfterAgentCallbacks:  []agent.AfterAgentCallback{f.lifecycle.After()},
		AfterModelCallbacks:  []llmagent.AfterModelCallback{callbacks.TokenLoggingAfterModelCallback()},
		AfterToolCallbacks:   afterTool,
		// Schema-bound agents only answer
		DisallowTransferToParent: cfg.OutputSchema != nil,
		DisallowTransferToPeers:  cfg.OutputSchema != nil,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create agent %s", cfg.Name())
	}

	f.log.Debugf("Created agent %s on %s with %d tools", cfg.Name(), modelName, len(agentTools))
	return ag, nil
}

// unpublishedKeys returns the required placeholders of instruction missing from published
func unpublishedKeys(instruction string, published []string) []string {
	available := make(map[string]bool, len(published))
	for _, key := range published {
		available[key] = true
	}

	required, _ := templates.Placeholders(instruction)
	var missing []string
	for _, key := range required {
		if !available[key] {
			missing = append(missing, key)
		}
	}
	return missing
}
