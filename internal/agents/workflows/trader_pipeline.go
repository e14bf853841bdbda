package workflows

import (
	"context"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/workflowagents/parallelagent"
	"google.golang.org/adk/agent/workflowagents/sequentialagent"

	"stockresearch/internal/agents"
	"stockresearch/internal/agents/state"
	"stockresearch/pkg/errors"
)

// Workflow agent names
const (
	TraderPipelineName       = "investment_advisor_root"
	InformationRetrieverName = "information_retriever"
)

// TraderOutputKeys are the state keys the trader pipeline publishes, in pipeline order
var TraderOutputKeys = []string{
	state.KeyMarketResult,
	state.KeyFundamentalsResult,
	state.KeySentimentResult,
	state.KeyStockInformationResult,
	state.KeyStrategyResult,
}

// gatherers are the information retriever branches
var gatherers = []agents.AgentType{
	agents.AgentMarket,
	agents.AgentFundamentals,
	agents.AgentSentiment,
}

// CreateInformationRetriever runs the market, fundamentals and sentiment
// agents in parallel. Each branch writes its own output key and reads none.
func (f *Factory) CreateInformationRetriever(ctx context.Context, opts Options) (agent.Agent, error) {
	subAgents := make([]agent.Agent, 0, len(gatherers))
	for _, agentType := range gatherers {
		ag, err := f.createAgent(ctx, agentType, agents.BuildOptions{Ticker: opts.Ticker, StateKeys: []string{}})
		if err != nil {
			return nil, err
		}
		subAgents = append(subAgents, ag)
	}

	retriever, err := parallelagent.New(parallelagent.Config{
		AgentConfig: agent.Config{
			Name:        InformationRetrieverName,
			Description: "Gathers market, fundamental and sentiment information for a stock in parallel",
			SubAgents:   subAgents,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create parallel agent")
	}
	return retriever, nil
}

// CreateTraderPipeline creates the sequential pipeline:
// information retrieval → structured output → strategy decision
func (f *Factory) CreateTraderPipeline(ctx context.Context, opts Options) (agent.Agent, error) {
	f.log.Infof("Creating trader pipeline workflow ticker=%q", opts.Ticker)

	retriever, err := f.CreateInformationRetriever(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create information retriever")
	}

	// Each stage may only read what earlier stages published
	published := outputKeys(gatherers...)
	outputAgent, err := f.createAgent(ctx, agents.AgentOutput, agents.BuildOptions{Ticker: opts.Ticker, StateKeys: published})
	if err != nil {
		return nil, err
	}

	published = append(published, outputKeys(agents.AgentOutput)...)
	strategyAgent, err := f.createAgent(ctx, agents.AgentStrategy, agents.BuildOptions{Ticker: opts.Ticker, StateKeys: published})
	if err != nil {
		return nil, err
	}

	pipeline, err := sequentialagent.New(sequentialagent.Config{
		AgentConfig: agent.Config{
			Name:        TraderPipelineName,
			Description: "Investment advisor: parallel information retrieval → structured stock information → buy decision",
			SubAgents: []agent.Agent{
				retriever,
				outputAgent,
				strategyAgent,
			},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create sequential pipeline")
	}

	f.log.Info("Trader pipeline workflow created successfully")
	return pipeline, nil
}

func outputKeys(types ...agents.AgentType) []string {
	keys := make([]string, 0, len(types))
	for _, agentType := range types {
		if key := agents.DefaultAgentConfigs[agentType].OutputKey; key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}
