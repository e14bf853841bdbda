package workflows

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"

	"stockresearch/internal/adapters/adk/adktest"
	"stockresearch/internal/agents"
	"stockresearch/internal/agents/schemas"
	"stockresearch/internal/agents/state"
	"stockresearch/internal/tools"
	"stockresearch/pkg/templates"
)

type fakeModels struct{ llm model.LLM }

func (f fakeModels) Model(context.Context, string) (model.LLM, error) { return f.llm, nil }

const stockInformationJSON = "```json\n" +
	`{"ticker":"AAPL","current_price":189.5,"rsi":28.4,"sentiment_summary":"Positive after earnings",` +
	`"valuation_summary":"Fairly valued","recommendation":"Buy"}` +
	"\n```"

// traderModel answers each trader pipeline agent by its instruction. The
// downstream agents are matched first since their instructions embed the
// upstream results.
func traderModel() *adktest.Model {
	return adktest.NewModel("test", "unexpected agent",
		adktest.Rule{Match: "investment strategy agent", Text: "Buy AAPL below 185; RSI 28.4 is oversold."},
		adktest.Rule{Match: "converting agent outputs", Text: stockInformationJSON},
		adktest.Rule{Match: "market data assistant", Text: "AAPL trades at 189.50, RSI 28.4"},
		adktest.Rule{Match: "financial fundamentals assistant", Text: "P/E 29, EPS 6.43"},
		adktest.Rule{Match: "market sentiment assistant", Text: "Positive after earnings"},
	)
}

func newTestWorkflowFactory(t *testing.T, llm model.LLM, registry *tools.Registry) *Factory {
	t.Helper()
	if registry == nil {
		registry = tools.NewRegistry()
	}

	agentFactory, err := agents.NewFactory(agents.FactoryDeps{
		Models: fakeModels{llm: llm},
		ModelNames: map[agents.ModelRole]string{
			agents.ModelDefault:      "test-default",
			agents.ModelStructured:   "test-structured",
			agents.ModelOrchestrator: "test-orchestrator",
			agents.ModelData:         "test-data",
		},
		ToolRegistry: registry,
		Templates:    templates.Get(),
	})
	require.NoError(t, err)

	return NewFactory(agentFactory)
}

func TestWorkflowFactory_CreateInformationRetriever(t *testing.T) {
	f := newTestWorkflowFactory(t, traderModel(), nil)

	retriever, err := f.CreateInformationRetriever(context.Background(), Options{Ticker: "AAPL"})
	require.NoError(t, err)

	assert.Equal(t, InformationRetrieverName, retriever.Name())
	var names []string
	for _, sub := range retriever.SubAgents() {
		names = append(names, sub.Name())
	}
	assert.Equal(t, []string{"market_agent", "fundamentals_agent", "sentiment_agent"}, names)
}

func TestWorkflowFactory_CreateTraderPipeline(t *testing.T) {
	f := newTestWorkflowFactory(t, traderModel(), nil)

	pipeline, err := f.CreateTraderPipeline(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, TraderPipelineName, pipeline.Name())

	subAgents := pipeline.SubAgents()
	require.Len(t, subAgents, 3, "Pipeline should have 3 steps")
	assert.Equal(t, InformationRetrieverName, subAgents[0].Name())
	assert.Equal(t, "output_agent", subAgents[1].Name())
	assert.Equal(t, "strategy_agent", subAgents[2].Name())
}

func TestTraderPipeline_EndToEnd(t *testing.T) {
	llm := traderModel()
	llm.InputTokens = 100
	llm.OutputTokens = 10
	f := newTestWorkflowFactory(t, llm, nil)

	pipeline, err := f.CreateTraderPipeline(context.Background(), Options{Ticker: "AAPL"})
	require.NoError(t, err)

	runner, err := agents.NewRunner(pipeline, agents.RunnerConfig{
		OutputKeys:   TraderOutputKeys,
		RequiredKeys: []string{state.KeyStockInformationResult, state.KeyStrategyResult},
	})
	require.NoError(t, err)

	out, err := runner.Execute(context.Background(), agents.ExecutionInput{Query: "AAPL"})
	require.NoError(t, err)

	assert.Equal(t, "AAPL trades at 189.50, RSI 28.4", out.Outputs[state.KeyMarketResult])
	assert.Equal(t, "P/E 29, EPS 6.43", out.Outputs[state.KeyFundamentalsResult])
	assert.Equal(t, "Positive after earnings", out.Outputs[state.KeySentimentResult])
	assert.Equal(t, "Buy AAPL below 185; RSI 28.4 is oversold.", out.Outputs[state.KeyStrategyResult])
	assert.Equal(t, out.Outputs[state.KeyStrategyResult], out.FinalText)

	info, err := schemas.Decode[schemas.StockInformation](out.Outputs[state.KeyStockInformationResult])
	require.NoError(t, err)
	assert.Equal(t, "AAPL", info.Ticker)
	require.NotNil(t, info.Recommendation)
	assert.Equal(t, "Buy", *info.Recommendation)

	// five model calls, one per agent
	assert.Len(t, llm.Requests(), 5)
	assert.Equal(t, 5, out.TurnCount)
	assert.Equal(t, 500, out.InputTokens)
	assert.Equal(t, 50, out.OutputTokens)

	for _, req := range llm.Requests() {
		assert.NotContains(t, adktest.SystemInstruction(req), "{market_agent_result}", "placeholders are resolved")
	}
}

func TestWorkflowFactory_CreateResearchAssistant(t *testing.T) {
	llm := adktest.NewModel("test", "I can research stocks, screen them and write investor reports.")
	registry := tools.NewRegistry()
	require.NoError(t, tools.RegisterMarketTools(registry, nil, 0))

	f := newTestWorkflowFactory(t, llm, registry)

	root, err := f.CreateResearchAssistant(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stock_research_assistant", root.Name())

	runner, err := agents.NewRunner(root, agents.RunnerConfig{OutputKeys: ResearchOutputKeys})
	require.NoError(t, err)

	out, err := runner.Execute(context.Background(), agents.ExecutionInput{Query: "What can you do?"})
	require.NoError(t, err)
	assert.Equal(t, "I can research stocks, screen them and write investor reports.", out.FinalText)
	assert.Empty(t, out.Outputs)

	requests := llm.Requests()
	require.Len(t, requests, 1)

	var declared []string
	for _, tl := range requests[0].Config.Tools {
		for _, decl := range tl.FunctionDeclarations {
			declared = append(declared, decl.Name)
		}
	}
	assert.ElementsMatch(t, []string{
		"stock_data_agent",
		"stock_sentiment_agent",
		"report_generator",
		"nlp_screener_agent",
	}, declared)

	instruction := adktest.SystemInstruction(requests[0])
	assert.Contains(t, instruction, "`report_generator`")
	assert.Contains(t, instruction, "`nlp_screener_agent`")
}

func TestTraderPipeline_StateFlow(t *testing.T) {
	order := [][]agents.AgentType{
		{agents.AgentMarket, agents.AgentFundamentals, agents.AgentSentiment},
		{agents.AgentOutput},
		{agents.AgentStrategy},
	}

	produced := map[string]bool{}
	for _, stage := range order {
		published := make([]string, 0, len(stage))
		for _, agentType := range stage {
			cfg := agents.DefaultAgentConfigs[agentType]
			instruction, err := templates.Get().Render(cfg.Template, agents.PromptData{Ticker: "AAPL", Schema: cfg.SchemaName})
			require.NoError(t, err)

			required, _ := templates.Placeholders(instruction)
			for _, key := range required {
				assert.True(t, produced[key], "%s reads %s before it is published", agentType, key)
			}
			published = append(published, cfg.OutputKey)
		}
		// Parallel branches only see what earlier stages published
		for _, key := range published {
			produced[key] = true
		}
	}

	for _, key := range TraderOutputKeys {
		assert.True(t, produced[key], key)
	}
}
