package agents

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"stockresearch/internal/agents/state"
	"stockresearch/internal/metrics"
	"stockresearch/pkg/errors"
	"stockresearch/pkg/logger"
)

// RunnerConfig configures a Runner
type RunnerConfig struct {
	AppName string
	UserID  string
	// Timeout bounds one Execute call; zero means no limit beyond ctx
	Timeout time.Duration
	// OutputKeys are copied from session state into ExecutionOutput.Outputs
	OutputKeys []string
	// RequiredKeys must be present after the run, otherwise Execute fails with ErrOutputMissing
	RequiredKeys []string
}

// ExecutionInput contains input parameters for one run
type ExecutionInput struct {
	Query   string
	UserID  string         // empty = RunnerConfig.UserID
	Timeout time.Duration  // 0 = RunnerConfig.Timeout
	State   map[string]any // initial session state
}

// ExecutionOutput contains the result of one run
type ExecutionOutput struct {
	Agent     string
	SessionID string
	// FinalText is the last final response of the run
	FinalText string
	// Outputs holds the configured output keys found in session state
	Outputs map[string]string

	// Metrics
	InputTokens   int
	OutputTokens  int
	ToolCallCount int
	TurnCount     int
	Duration      time.Duration
}

// Runner executes an agent tree against a fresh session per call
type Runner struct {
	agent    agent.Agent
	runner   *runner.Runner
	sessions session.Service
	cfg      RunnerConfig
	log      *logger.Logger
}

// NewRunner creates a runner over an in-memory session service
func NewRunner(ag agent.Agent, cfg RunnerConfig) (*Runner, error) {
	if ag == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "agent is required")
	}
	if cfg.AppName == "" {
		cfg.AppName = "stockresearch_" + ag.Name()
	}
	if cfg.UserID == "" {
		cfg.UserID = "local"
	}

	sessions := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        cfg.AppName,
		Agent:          ag,
		SessionService: sessions,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create ADK runner")
	}

	return &Runner{
		agent:    ag,
		runner:   r,
		sessions: sessions,
		cfg:      cfg,
		log:      logger.Get().With("component", "agent_runner", "agent", ag.Name()),
	}, nil
}

// Execute runs the agent tree once for query and collects its outputs
func (r *Runner) Execute(ctx context.Context, input ExecutionInput) (*ExecutionOutput, error) {
	startTime := time.Now()
	sessionID := uuid.New().String()

	userID := input.UserID
	if userID == "" {
		userID = r.cfg.UserID
	}

	timeout := input.Timeout
	if timeout == 0 {
		timeout = r.cfg.Timeout
	}
	execCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	r.log.Infof("Starting agent execution: session=%s user=%s", sessionID, userID)

	output, err := r.execute(execCtx, userID, sessionID, input)
	duration := time.Since(startTime)
	if output == nil {
		output = &ExecutionOutput{Agent: r.agent.Name(), SessionID: sessionID}
	}
	output.Duration = duration

	if deadlineExceeded(execCtx) && !errors.Is(err, errors.ErrTimeout) {
		err = errors.Wrapf(errors.ErrTimeout, "agent %s exceeded its deadline", r.agent.Name())
	}
	metrics.RecordAgentRun(r.agent.Name(), duration, output.InputTokens, output.OutputTokens, err)
	if err != nil {
		r.log.Errorf("Agent execution failed: session=%s duration=%v err=%v", sessionID, duration, err)
		return output, err
	}

	r.log.Infof("Agent execution complete: session=%s duration=%v tokens=%d tools=%d outputs=%d",
		sessionID, duration, output.InputTokens+output.OutputTokens, output.ToolCallCount, len(output.Outputs))
	return output, nil
}

func (r *Runner) execute(ctx context.Context, userID, sessionID string, input ExecutionInput) (*ExecutionOutput, error) {
	output := &ExecutionOutput{Agent: r.agent.Name(), SessionID: sessionID}

	if _, err := r.sessions.Create(ctx, &session.CreateRequest{
		AppName:   r.cfg.AppName,
		UserID:    userID,
		SessionID: sessionID,
		State:     input.State,
	}); err != nil {
		return output, errors.Wrap(err, "create session")
	}

	userContent := genai.NewContentFromText(input.Query, genai.RoleUser)

	// Parallel branches interleave their events; every event is consumed so
	// that usage and tool calls of all branches are counted.
	for event, err := range r.runner.Run(ctx, userID, sessionID, userContent, agent.RunConfig{}) {
		if err != nil {
			if deadlineExceeded(ctx) {
				return output, errors.Wrapf(errors.ErrTimeout, "agent execution interrupted: %v", err)
			}
			return output, errors.Wrap(err, "agent execution failed")
		}
		if event == nil || event.Partial {
			continue
		}

		r.log.Debugf("Agent event: author=%s final=%v", event.Author, event.IsFinalResponse())

		if event.UsageMetadata != nil {
			output.InputTokens += int(event.UsageMetadata.PromptTokenCount)
			output.OutputTokens += int(event.UsageMetadata.CandidatesTokenCount)
		}
		if event.Content != nil && event.Content.Role == genai.RoleModel {
			output.TurnCount++
		}
		output.ToolCallCount += countFunctionCalls(event)

		if event.IsFinalResponse() {
			if text := finalText(event); text != "" {
				output.FinalText = text
			}
		}
	}

	resp, err := r.sessions.Get(ctx, &session.GetRequest{
		AppName:   r.cfg.AppName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return output, errors.Wrap(err, "load session")
	}
	output.Outputs = state.Snapshot(resp.Session.State(), r.cfg.OutputKeys...)

	for _, key := range r.cfg.RequiredKeys {
		if _, ok := output.Outputs[key]; !ok {
			if _, ok := state.GetString(resp.Session.State(), key); !ok {
				return output, errors.Wrapf(errors.ErrOutputMissing, "state key %s", key)
			}
		}
	}

	if output.FinalText == "" && len(output.Outputs) == 0 {
		return output, errors.ErrNoFinalResponse
	}
	return output, nil
}

func deadlineExceeded(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}

func countFunctionCalls(event *session.Event) int {
	if event.Content == nil {
		return 0
	}
	n := 0
	for _, part := range event.Content.Parts {
		if part != nil && part.FunctionCall != nil {
			n++
		}
	}
	return n
}

// finalText extracts the answer of a final event. Agent tools that skip
// summarization end the run on their function response, which is returned as JSON.
func finalText(event *session.Event) string {
	if event.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range event.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	if b.Len() > 0 {
		return b.String()
	}
	for _, part := range event.Content.Parts {
		if part != nil && part.FunctionResponse != nil && part.FunctionResponse.Response != nil {
			data, err := json.Marshal(part.FunctionResponse.Response)
			if err == nil {
				return string(data)
			}
		}
	}
	return ""
}
