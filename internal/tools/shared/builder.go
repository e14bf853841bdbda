package shared

import (
	"context"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"stockresearch/pkg/errors"
)

// DefaultTimeout bounds a single tool invocation when WithTimeout is used without a value
const DefaultTimeout = 60 * time.Second

// Handler is the body of a tool. It receives a plain context so middleware
// can attach deadlines before the domain code runs.
type Handler[T any] func(ctx context.Context, args T) (map[string]any, error)

// ToolBuilder provides a fluent API for creating function tools with middleware
type ToolBuilder[T any] struct {
	name        string
	description string
	fn          Handler[T]
	inputSchema *jsonschema.Schema

	withTimeout bool
	timeout     time.Duration

	withStats bool
}

// NewToolBuilder creates a builder for a tool with typed arguments.
// Unless WithInputSchema is used, the argument type drives the JSON schema
// the model sees.
func NewToolBuilder[T any](name, description string, fn Handler[T]) *ToolBuilder[T] {
	return &ToolBuilder[T]{
		name:        name,
		description: description,
		fn:          fn,
		timeout:     DefaultTimeout,
	}
}

// WithInputSchema replaces the inferred argument schema. Calls that do not
// validate against it fail before the handler runs.
func (b *ToolBuilder[T]) WithInputSchema(schema *jsonschema.Schema) *ToolBuilder[T] {
	b.inputSchema = schema
	return b
}

// WithTimeout enables the deadline middleware
func (b *ToolBuilder[T]) WithTimeout(timeout time.Duration) *ToolBuilder[T] {
	b.withTimeout = true
	if timeout > 0 {
		b.timeout = timeout
	}
	return b
}

// WithStats enables latency and outcome tracking
func (b *ToolBuilder[T]) WithStats() *ToolBuilder[T] {
	b.withStats = true
	return b
}

// Handler returns the handler with the configured middleware applied.
// Build uses it; tests call it directly without an agent context.
func (b *ToolBuilder[T]) Handler() Handler[T] {
	fn := b.fn

	// Inner layers first: timeout, then stats so the measured latency
	// includes deadline handling.
	if b.withTimeout {
		fn = wrapWithTimeout(b.timeout, fn)
	}
	if b.withStats {
		fn = wrapWithStats(b.name, fn)
	}
	return fn
}

// Build creates the ADK function tool
func (b *ToolBuilder[T]) Build() (tool.Tool, error) {
	if b.fn == nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "tool %s has no handler", b.name)
	}

	fn := b.Handler()
	t, err := functiontool.New(
		functiontool.Config{
			Name:        b.name,
			Description: b.description,
			InputSchema: b.inputSchema,
		},
		func(ctx tool.Context, args T) (map[string]any, error) {
			return fn(ctx, args)
		})
	if err != nil {
		return nil, errors.Wrapf(err, "create tool %s", b.name)
	}
	return t, nil
}
