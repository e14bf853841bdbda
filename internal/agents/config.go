package agents

import (
	"google.golang.org/genai"

	"stockresearch/internal/adapters/config"
	"stockresearch/internal/agents/schemas"
	"stockresearch/internal/agents/state"
	"stockresearch/internal/tools/market"
)

// AgentConfig declares one agent node: its instruction, model, tools and
// where its result is published.
type AgentConfig struct {
	Type        AgentType
	Description string
	Model       ModelRole
	// Template is the instruction template ID in pkg/templates
	Template string
	// Tools are registry tool names
	Tools        []string
	GoogleSearch bool

	OutputKey    string
	OutputSchema *genai.Schema
	// SchemaName is how the instruction refers to OutputSchema
	SchemaName string
}

// Name is the agent name used in the agent tree
func (c AgentConfig) Name() string {
	return string(c.Type)
}

// StockDataTools are the market data tools of the stock data agent
var StockDataTools = []string{
	market.GetStockQuote,
	market.GetHistoricalData,
	market.GetIntradayData,
	market.GetMultipleQuotes,
	market.GetMarketDataBatch,
	market.GetComprehensiveAnalysis,
	market.GetTechnicalIndicators,
}

// DefaultAgentConfigs holds every agent of the trader pipeline and the research assistant
var DefaultAgentConfigs = map[AgentType]AgentConfig{
	AgentMarket: {
		Type:         AgentMarket,
		Description:  "Agent to gather current market data and technical indicators for a stock.",
		Model:        ModelDefault,
		Template:     "agents/market_agent",
		GoogleSearch: true,
		OutputKey:    state.KeyMarketResult,
	},
	AgentFundamentals: {
		Type:         AgentFundamentals,
		Description:  "Agent to gather and summarize fundamental financial data for a stock.",
		Model:        ModelDefault,
		Template:     "agents/fundamentals_agent",
		GoogleSearch: true,
		OutputKey:    state.KeyFundamentalsResult,
	},
	AgentSentiment: {
		Type:         AgentSentiment,
		Description:  "Agent to gather current sentiment around a specific stock.",
		Model:        ModelDefault,
		Template:     "agents/sentiment_agent",
		GoogleSearch: true,
		OutputKey:    state.KeySentimentResult,
	},
	AgentOutput: {
		Type:         AgentOutput,
		Description:  "Agent that converts multi-agent responses into structured output.",
		Model:        ModelStructured,
		Template:     "agents/output_agent",
		OutputKey:    state.KeyStockInformationResult,
		OutputSchema: schemas.StockInformationSchema,
		SchemaName:   "StockInformation",
	},
	AgentStrategy: {
		Type:        AgentStrategy,
		Description: "Agent that decides whether to buy a stock and at what price.",
		Model:       ModelDefault,
		Template:    "agents/strategy_agent",
		OutputKey:   state.KeyStrategyResult,
	},

	AgentStockData: {
		Type:        AgentStockData,
		Description: "Agent for stock market data via Polygon MCP",
		Model:       ModelData,
		Template:    "agents/stock_data_agent",
		Tools:       StockDataTools,
		OutputKey:   state.KeyStockDataResult,
	},
	AgentStockSentiment: {
		Type:         AgentStockSentiment,
		Description:  "Agent to gather current sentiment around a specific stock.",
		Model:        ModelDefault,
		Template:     "agents/sentiment_agent",
		GoogleSearch: true,
		OutputKey:    state.KeySentimentResult,
	},
	AgentReportGenerator: {
		Type:         AgentReportGenerator,
		Description:  "Agent that aggregates inputs from other agents and generates a comprehensive investor report in a structured format.",
		Model:        ModelStructured,
		Template:     "agents/report_generator",
		OutputKey:    state.KeyInvestorReport,
		OutputSchema: schemas.ReportSchema,
		SchemaName:   "Report",
	},
	AgentNLPScreener: {
		Type:         AgentNLPScreener,
		Description:  "Translates a natural language stock screening request into structured screening criteria.",
		Model:        ModelStructured,
		Template:     "agents/nlp_screener_agent",
		OutputKey:    state.KeyScreeningResult,
		OutputSchema: schemas.ScreeningStatusSchema,
		SchemaName:   "ScreeningStatus",
	},
	AgentResearchAssistant: {
		Type:        AgentResearchAssistant,
		Description: "A comprehensive assistant for analyzing stocks, market trends, and news sentiment to generate in-depth investor reports.",
		Model:       ModelOrchestrator,
		Template:    "agents/stock_research_assistant",
	},
}

// StrategyConfig holds the RSI thresholds of the sample strategy
type StrategyConfig struct {
	RSIOversold   int
	RSIOverbought int
}

// DefaultStrategy uses the conventional 30/70 RSI bands
var DefaultStrategy = StrategyConfig{RSIOversold: 30, RSIOverbought: 70}

// ModelNames maps model roles to the model names configured in cfg
func ModelNames(cfg config.LLMConfig) map[ModelRole]string {
	return map[ModelRole]string{
		ModelDefault:      cfg.DefaultModel,
		ModelStructured:   cfg.StructuredModel,
		ModelOrchestrator: cfg.OrchestratorModel,
		ModelData:         cfg.DataModel,
	}
}
