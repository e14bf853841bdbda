package callbacks

import (
	"sync"
	"time"

	"google.golang.org/adk/agent"
	"google.golang.org/genai"

	"stockresearch/pkg/errors"
	"stockresearch/pkg/logger"
)

// Lifecycle logs agent start and completion with the elapsed time.
// One Lifecycle can be shared by every agent of a pipeline.
type Lifecycle struct {
	tracker errors.Tracker
	started sync.Map // invocation/agent -> time.Time
}

// NewLifecycle creates lifecycle callbacks reporting breadcrumbs to tracker (may be nil)
func NewLifecycle(tracker errors.Tracker) *Lifecycle {
	return &Lifecycle{tracker: tracker}
}

func (l *Lifecycle) Before() agent.BeforeAgentCallback {
	return func(ctx agent.CallbackContext) (*genai.Content, error) {
		l.started.Store(runKey(ctx), time.Now())

		logger.Get().With(
			"agent", ctx.AgentName(),
			"user", ctx.UserID(),
			"session", ctx.SessionID(),
		).Infof("Agent %s started", ctx.AgentName())

		if l.tracker != nil {
			l.tracker.AddBreadcrumb(ctx, "agent "+ctx.AgentName()+" started", "agent", errors.LevelInfo, nil)
		}
		return nil, nil
	}
}

func (l *Lifecycle) After() agent.AfterAgentCallback {
	return func(ctx agent.CallbackContext) (*genai.Content, error) {
		log := logger.Get().With("agent", ctx.AgentName(), "session", ctx.SessionID())

		v, ok := l.started.LoadAndDelete(runKey(ctx))
		if !ok {
			log.Infof("Agent %s completed", ctx.AgentName())
			return nil, nil
		}

		duration := time.Since(v.(time.Time))
		log.Infof("Agent %s completed in %v", ctx.AgentName(), duration)
		return nil, nil
	}
}

func runKey(ctx agent.CallbackContext) string {
	return ctx.InvocationID() + "/" + ctx.AgentName()
}
