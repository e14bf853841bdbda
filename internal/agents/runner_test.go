package agents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockresearch/internal/adapters/adk/adktest"
	"stockresearch/internal/agents/schemas"
	"stockresearch/internal/agents/state"
	"stockresearch/pkg/errors"
)

const stockInformationJSON = `{"ticker":"AAPL","current_price":189.5,"rsi":28.4,` +
	`"sentiment_summary":"Positive after earnings","valuation_summary":"Fairly valued"}`

func gatheredState() map[string]any {
	return map[string]any{
		state.KeyMarketResult:       "AAPL trades at 189.50 with RSI 28.4",
		state.KeySentimentResult:    "Positive after earnings",
		state.KeyFundamentalsResult: "P/E 29, fairly valued",
	}
}

func TestNewRunner_RequiresAgent(t *testing.T) {
	_, err := NewRunner(nil, RunnerConfig{})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestRunner_ExecuteCollectsOutputs(t *testing.T) {
	llm := adktest.NewModel("test", stockInformationJSON)
	llm.InputTokens = 120
	llm.OutputTokens = 40
	factory := newTestFactory(t, llm)

	ag, err := factory.CreateAgentByType(context.Background(), AgentOutput, BuildOptions{})
	require.NoError(t, err)

	runner, err := NewRunner(ag, RunnerConfig{
		OutputKeys:   []string{state.KeyStockInformationResult},
		RequiredKeys: []string{state.KeyStockInformationResult},
	})
	require.NoError(t, err)

	out, err := runner.Execute(context.Background(), ExecutionInput{
		Query: "AAPL",
		State: gatheredState(),
	})
	require.NoError(t, err)

	assert.Equal(t, "output_agent", out.Agent)
	assert.NotEmpty(t, out.SessionID)
	assert.JSONEq(t, stockInformationJSON, out.FinalText)
	assert.Equal(t, 120, out.InputTokens)
	assert.Equal(t, 40, out.OutputTokens)
	assert.Equal(t, 1, out.TurnCount)
	assert.Zero(t, out.ToolCallCount)
	assert.Positive(t, out.Duration)

	info, err := schemas.Decode[schemas.StockInformation](out.Outputs[state.KeyStockInformationResult])
	require.NoError(t, err)
	assert.Equal(t, "AAPL", info.Ticker)
	assert.InDelta(t, 28.4, info.RSI, 1e-9)
	assert.Nil(t, info.Recommendation)

	instruction := adktest.SystemInstruction(llm.Requests()[0])
	assert.Contains(t, instruction, "AAPL trades at 189.50 with RSI 28.4")
	assert.Contains(t, instruction, "P/E 29, fairly valued")
}

func TestRunner_SessionsAreIsolated(t *testing.T) {
	llm := adktest.NewModel("test", "Volume is light")
	factory := newTestFactory(t, llm)

	ag, err := factory.CreateAgentByType(context.Background(), AgentMarket, BuildOptions{})
	require.NoError(t, err)
	runner, err := NewRunner(ag, RunnerConfig{OutputKeys: []string{state.KeyMarketResult, state.KeyStrategyResult}})
	require.NoError(t, err)

	first, err := runner.Execute(context.Background(), ExecutionInput{
		Query: "AAPL",
		State: map[string]any{state.KeyStrategyResult: "left over"},
	})
	require.NoError(t, err)
	second, err := runner.Execute(context.Background(), ExecutionInput{Query: "MSFT"})
	require.NoError(t, err)

	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, "left over", first.Outputs[state.KeyStrategyResult])
	assert.NotContains(t, second.Outputs, state.KeyStrategyResult)
	assert.Equal(t, "Volume is light", second.Outputs[state.KeyMarketResult])
}

func TestRunner_RequiredKeyMissing(t *testing.T) {
	factory := newTestFactory(t, adktest.NewModel("test", "Buy below 180"))

	ag, err := factory.CreateAgentByType(context.Background(), AgentStrategy, BuildOptions{})
	require.NoError(t, err)
	runner, err := NewRunner(ag, RunnerConfig{RequiredKeys: []string{state.KeyInvestorReport}})
	require.NoError(t, err)

	out, err := runner.Execute(context.Background(), ExecutionInput{
		Query: "AAPL",
		State: map[string]any{state.KeyStockInformationResult: stockInformationJSON},
	})
	assert.ErrorIs(t, err, errors.ErrOutputMissing)
	require.NotNil(t, out)
	assert.Equal(t, "Buy below 180", out.FinalText)
}

func TestRunner_ModelErrorFailsRun(t *testing.T) {
	llm := adktest.NewModel("test", "unused", adktest.Rule{
		Match: "market data assistant",
		Err:   errors.New("quota exhausted"),
	})
	factory := newTestFactory(t, llm)

	ag, err := factory.CreateAgentByType(context.Background(), AgentMarket, BuildOptions{})
	require.NoError(t, err)
	runner, err := NewRunner(ag, RunnerConfig{})
	require.NoError(t, err)

	_, err = runner.Execute(context.Background(), ExecutionInput{Query: "AAPL"})
	assert.ErrorContains(t, err, "quota exhausted")
}

func TestRunner_DeadlineExceeded(t *testing.T) {
	factory := newTestFactory(t, adktest.NewModel("test", "too late"))

	ag, err := factory.CreateAgentByType(context.Background(), AgentMarket, BuildOptions{})
	require.NoError(t, err)
	runner, err := NewRunner(ag, RunnerConfig{Timeout: time.Minute})
	require.NoError(t, err)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err = runner.Execute(ctx, ExecutionInput{Query: "AAPL"})
	assert.ErrorIs(t, err, errors.ErrTimeout)
}

func TestRunner_EmptyAnswerIsNoFinalResponse(t *testing.T) {
	factory := newTestFactory(t, adktest.NewModel("test", ""))

	ag, err := factory.CreateAgentByType(context.Background(), AgentMarket, BuildOptions{})
	require.NoError(t, err)
	runner, err := NewRunner(ag, RunnerConfig{})
	require.NoError(t, err)

	_, err = runner.Execute(context.Background(), ExecutionInput{Query: "AAPL"})
	assert.ErrorIs(t, err, errors.ErrNoFinalResponse)
}
