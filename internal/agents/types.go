package agents

// AgentType enumerates the agent nodes of both pipelines. The value is also
// the agent name, which must be unique within one agent tree and is the tool
// name when the agent is exposed as an agent tool.
type AgentType string

const (
	// Trader pipeline
	AgentMarket       AgentType = "market_agent"
	AgentFundamentals AgentType = "fundamentals_agent"
	AgentSentiment    AgentType = "sentiment_agent"
	AgentOutput       AgentType = "output_agent"
	AgentStrategy     AgentType = "strategy_agent"

	// Research assistant
	AgentStockData         AgentType = "stock_data_agent"
	AgentStockSentiment    AgentType = "stock_sentiment_agent"
	AgentReportGenerator   AgentType = "report_generator"
	AgentNLPScreener       AgentType = "nlp_screener_agent"
	AgentResearchAssistant AgentType = "stock_research_assistant"
)

// ModelRole selects which configured model an agent runs on
type ModelRole string

const (
	// ModelDefault serves the search-backed gathering agents and the strategy agent
	ModelDefault ModelRole = "default"
	// ModelStructured serves agents bound to an output schema
	ModelStructured ModelRole = "structured"
	// ModelOrchestrator serves the research assistant root
	ModelOrchestrator ModelRole = "orchestrator"
	// ModelData serves the tool-calling stock data agent
	ModelData ModelRole = "data"
)

// ToolInfo is how a tool is listed in an agent instruction
type ToolInfo struct {
	Name        string
	Description string
}

// PromptData is the data every instruction template is rendered with
type PromptData struct {
	AgentName     string
	Ticker        string
	Schema        string
	Tools         []ToolInfo
	RSIOversold   int
	RSIOverbought int
	Date          string
}
