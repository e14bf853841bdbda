package workflows

import (
	"context"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/agenttool"

	"stockresearch/internal/agents"
	"stockresearch/internal/agents/callbacks"
	"stockresearch/internal/agents/state"
	"stockresearch/pkg/errors"
)

// ResearchOutputKeys are the state keys the research assistant may publish
var ResearchOutputKeys = []string{
	state.KeyStockDataResult,
	state.KeySentimentResult,
	state.KeyInvestorReport,
	state.KeyScreeningResult,
}

type researchTool struct {
	agentType agents.AgentType
	// skipSummarization returns the agent output verbatim as the final answer
	skipSummarization bool
}

var researchTools = []researchTool{
	{agentType: agents.AgentStockData},
	{agentType: agents.AgentStockSentiment},
	{agentType: agents.AgentReportGenerator, skipSummarization: true},
	{agentType: agents.AgentNLPScreener},
}

// CreateResearchAssistant creates the stock research assistant: a root LLM
// agent that calls the data, sentiment, report and screener agents as tools.
// Outputs of those agents are published into the root session under their
// output keys so that later tool calls (the report generator) can read them.
func (f *Factory) CreateResearchAssistant(ctx context.Context) (agent.Agent, error) {
	f.log.Info("Creating research assistant")

	agentTools := make([]tool.Tool, 0, len(researchTools))
	publish := make(map[string]string, len(researchTools))
	for _, rt := range researchTools {
		ag, err := f.createAgent(ctx, rt.agentType, agents.BuildOptions{})
		if err != nil {
			return nil, err
		}
		agentTools = append(agentTools, agenttool.New(ag, &agenttool.Config{SkipSummarization: rt.skipSummarization}))

		if key := agents.DefaultAgentConfigs[rt.agentType].OutputKey; key != "" {
			publish[ag.Name()] = key
		}
	}

	root, err := f.createAgent(ctx, agents.AgentResearchAssistant, agents.BuildOptions{
		ExtraTools:         agentTools,
		AfterToolCallbacks: []llmagent.AfterToolCallback{callbacks.PublishAgentOutputsCallback(publish)},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create research assistant root")
	}

	f.log.Infof("Research assistant created with %d agent tools", len(agentTools))
	return root, nil
}
