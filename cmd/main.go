package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"stockresearch/internal/agents"
	"stockresearch/internal/agents/schemas"
	"stockresearch/internal/agents/state"
	"stockresearch/internal/bootstrap"
	"stockresearch/internal/report"
	"stockresearch/pkg/errors"
	"stockresearch/pkg/logger"
)

// Run modes
const (
	modeTrader   = "trader"
	modeResearch = "research"
	modeQuote    = "quote"
	modeAnalysis = "analysis"
)

// Output formats
const (
	formatText     = "text"
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

type options struct {
	mode    string
	ticker  string
	symbols []string
	format  string
	query   string
}

func main() {
	os.Exit(run())
}

func run() int {
	mode := flag.String("mode", modeResearch, "Run mode: trader, research, quote or analysis")
	ticker := flag.String("ticker", "", "Stock ticker for trader and analysis modes")
	symbols := flag.String("symbols", "", "Comma separated tickers for quote mode")
	format := flag.String("format", formatText, "Output format: text (plain), json or markdown")
	flag.Parse()

	opts, err := parseOptions(*mode, *ticker, *symbols, *format, flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		return 2
	}

	container := bootstrap.NewContainer()
	container.MustInit()
	defer container.Shutdown()

	if err := container.Start(); err != nil {
		container.Log.Errorf("Failed to start: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(container.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, container, opts, os.Stdout); err != nil {
		if errors.Is(err, context.Canceled) {
			container.Log.Warn("Interrupted")
			return 130
		}
		container.Log.Errorf("%s failed: %v", opts.mode, err)
		return 1
	}
	return 0
}

func parseOptions(mode, ticker, symbols, format string, args []string) (options, error) {
	opts := options{
		mode:   strings.ToLower(strings.TrimSpace(mode)),
		ticker: strings.ToUpper(strings.TrimSpace(ticker)),
		format: strings.ToLower(strings.TrimSpace(format)),
		query:  strings.TrimSpace(strings.Join(args, " ")),
	}
	for _, s := range strings.Split(symbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			opts.symbols = append(opts.symbols, s)
		}
	}

	switch opts.format {
	case formatText, formatJSON, formatMarkdown:
	default:
		return opts, errors.Wrapf(errors.ErrInvalidInput, "unknown format %q", format)
	}

	switch opts.mode {
	case modeTrader:
		if opts.ticker == "" {
			return opts, errors.Wrap(errors.ErrInvalidInput, "trader mode requires -ticker")
		}
		if opts.query == "" {
			opts.query = fmt.Sprintf("Should I buy %s right now?", opts.ticker)
		}
	case modeResearch:
		if opts.query == "" {
			return opts, errors.Wrap(errors.ErrInvalidInput, "research mode requires a question")
		}
	case modeQuote:
		if len(opts.symbols) == 0 {
			return opts, errors.Wrap(errors.ErrInvalidInput, "quote mode requires -symbols")
		}
	case modeAnalysis:
		if opts.ticker == "" {
			return opts, errors.Wrap(errors.ErrInvalidInput, "analysis mode requires -ticker")
		}
	default:
		return opts, errors.Wrapf(errors.ErrInvalidInput, "unknown mode %q", mode)
	}
	return opts, nil
}

func execute(ctx context.Context, c *bootstrap.Container, opts options, w io.Writer) error {
	switch opts.mode {
	case modeQuote:
		return writeJSON(w, c.Services.MarketData.GetMultipleQuotes(ctx, opts.symbols))
	case modeAnalysis:
		return writeJSON(w, c.Services.MarketData.GetComprehensiveAnalysis(ctx, opts.ticker))
	}

	var (
		runner *agents.Runner
		err    error
	)
	if opts.mode == modeTrader {
		runner, err = c.TraderRunner(ctx, opts.ticker)
	} else {
		runner, err = c.ResearchRunner(ctx)
	}
	if err != nil {
		return err
	}

	out, err := runner.Execute(ctx, agents.ExecutionInput{Query: opts.query})
	if err != nil {
		return err
	}

	c.Log.Infow("Run completed",
		"agent", out.Agent,
		"duration", out.Duration,
		"input_tokens", out.InputTokens,
		"output_tokens", out.OutputTokens,
		"tool_calls", out.ToolCallCount,
	)
	return writeExecution(w, out, opts.format)
}

// executionView is the JSON shape of a finished run. Outputs that hold JSON
// are embedded as objects rather than strings.
type executionView struct {
	Agent        string         `json:"agent"`
	SessionID    string         `json:"session_id"`
	Answer       string         `json:"answer"`
	Outputs      map[string]any `json:"outputs"`
	InputTokens  int            `json:"input_tokens"`
	OutputTokens int            `json:"output_tokens"`
	ToolCalls    int            `json:"tool_calls"`
	Duration     string         `json:"duration"`
}

func writeExecution(w io.Writer, out *agents.ExecutionOutput, format string) error {
	if format == formatJSON {
		view := executionView{
			Agent:        out.Agent,
			SessionID:    out.SessionID,
			Answer:       out.FinalText,
			Outputs:      make(map[string]any, len(out.Outputs)),
			InputTokens:  out.InputTokens,
			OutputTokens: out.OutputTokens,
			ToolCalls:    out.ToolCallCount,
			Duration:     out.Duration.String(),
		}
		for key, val := range out.Outputs {
			if json.Valid([]byte(val)) {
				view.Outputs[key] = json.RawMessage(val)
			} else {
				view.Outputs[key] = val
			}
		}
		return writeJSON(w, view)
	}

	md, ok := renderStructured(out)
	if !ok {
		_, err := fmt.Fprintln(w, strings.TrimSpace(out.FinalText))
		return err
	}
	if format == formatText {
		md = report.PlainText(md)
	}
	_, err := io.WriteString(w, md)
	return err
}

// renderStructured renders the structured result of a run as Markdown: the
// investor report of the research assistant or the stock analysis of the
// trader pipeline. Runs without one report false.
func renderStructured(out *agents.ExecutionOutput) (string, bool) {
	log := logger.Get()

	if raw, ok := out.Outputs[state.KeyInvestorReport]; ok {
		r, err := schemas.Decode[schemas.Report](raw)
		if err == nil {
			return report.RenderMarkdown(*r), true
		}
		log.Warnf("Investor report could not be decoded, printing raw answer: %v", err)
	}

	if raw, ok := out.Outputs[state.KeyStockInformationResult]; ok {
		info, err := schemas.Decode[schemas.StockInformation](raw)
		if err == nil {
			return report.RenderStockInformation(*info, out.Outputs[state.KeyStrategyResult]), true
		}
		log.Warnf("Stock analysis could not be decoded, printing raw answer: %v", err)
	}

	return "", false
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
