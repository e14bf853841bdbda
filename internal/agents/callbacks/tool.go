package callbacks

import (
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/tool"

	"stockresearch/internal/agents/state"
	"stockresearch/pkg/errors"
	"stockresearch/pkg/logger"
)

// AuditLogAfterToolCallback logs every tool execution and leaves a breadcrumb
// so a later pipeline failure shows which data calls preceded it.
// Tool results pass through unchanged.
func AuditLogAfterToolCallback(tracker errors.Tracker) llmagent.AfterToolCallback {
	return func(ctx tool.Context, t tool.Tool, args, result map[string]any, err error) (map[string]any, error) {
		toolName := t.Name()
		log := logger.Get().With(
			"component", "tool_audit",
			"agent", ctx.AgentName(),
			"tool", toolName,
			"session", ctx.SessionID(),
		)

		level := errors.LevelInfo
		switch {
		case err != nil:
			level = errors.LevelError
			log.Warnf("Tool %s failed: %v", toolName, err)
		case result["error"] != nil:
			level = errors.LevelWarning
			log.Warnf("Tool %s returned an in-band error: %v", toolName, result["error"])
		default:
			log.Debugf("Tool %s executed successfully", toolName)
		}

		if tracker != nil {
			tracker.AddBreadcrumb(ctx, "tool "+toolName, "tool", level, map[string]interface{}{
				"agent": ctx.AgentName(),
				"args":  args,
			})
		}

		return nil, nil
	}
}

// PublishAgentOutputsCallback copies agent tool results into the caller's
// session state. Agent tools run their agent in a separate session, so its
// output key never reaches the caller otherwise.
//
// keys maps an agent tool name to the state key its result is stored under.
func PublishAgentOutputsCallback(keys map[string]string) llmagent.AfterToolCallback {
	return func(ctx tool.Context, t tool.Tool, args, result map[string]any, err error) (map[string]any, error) {
		key, ok := keys[t.Name()]
		if !ok || err != nil || result == nil {
			return nil, nil
		}

		value, convErr := publishedValue(result)
		if convErr != nil {
			logger.Get().With("tool", t.Name()).Warnf("Cannot publish agent output to %s: %v", key, convErr)
			return nil, nil
		}
		if setErr := ctx.State().Set(key, value); setErr != nil {
			return nil, errors.Wrapf(setErr, "publish %s", key)
		}

		return nil, nil
	}
}

// publishedValue unwraps the {"result": text} envelope of free-text agents.
// Structured agents are stored as JSON text, matching what their output key holds.
func publishedValue(result map[string]any) (string, error) {
	if text, ok := result["result"].(string); ok && len(result) == 1 {
		return text, nil
	}
	return state.Stringify(result)
}
