package callbacks

import (
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"

	"stockresearch/pkg/logger"
)

// TokenLoggingAfterModelCallback logs token usage of every model response
func TokenLoggingAfterModelCallback() llmagent.AfterModelCallback {
	return func(ctx agent.CallbackContext, resp *model.LLMResponse, respErr error) (*model.LLMResponse, error) {
		log := logger.Get().With("component", "token_counter", "agent", ctx.AgentName())

		if respErr != nil {
			log.Warnf("Model call failed: %v", respErr)
			return nil, nil
		}
		if resp == nil || resp.UsageMetadata == nil {
			return nil, nil
		}

		log.Debugf("Tokens used: prompt=%d completion=%d total=%d",
			resp.UsageMetadata.PromptTokenCount,
			resp.UsageMetadata.CandidatesTokenCount,
			resp.UsageMetadata.TotalTokenCount,
		)
		return nil, nil
	}
}
