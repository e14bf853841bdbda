package workflows

import (
	"context"

	"google.golang.org/adk/agent"

	"stockresearch/internal/agents"
	"stockresearch/pkg/errors"
	"stockresearch/pkg/logger"
)

// Factory creates workflow agents (parallel, sequential, agent-tool trees)
type Factory struct {
	baseFactory *agents.Factory
	log         *logger.Logger
}

// NewFactory creates a new workflow agent factory
func NewFactory(baseFactory *agents.Factory) *Factory {
	return &Factory{
		baseFactory: baseFactory,
		log:         logger.Get().With("component", "workflow_factory"),
	}
}

// Options tune a workflow build
type Options struct {
	// Ticker focuses the trader pipeline instructions on one stock
	Ticker string
}

// createAgent is a helper to create individual agents
func (f *Factory) createAgent(ctx context.Context, agentType agents.AgentType, opts agents.BuildOptions) (agent.Agent, error) {
	ag, err := f.baseFactory.CreateAgentByType(ctx, agentType, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create agent %s", agentType)
	}
	return ag, nil
}
