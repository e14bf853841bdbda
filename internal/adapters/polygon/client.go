package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"stockresearch/internal/metrics"
	"stockresearch/pkg/logger"
)

// NoContentWarning is returned when the server answers with an empty payload
const NoContentWarning = "No content returned from MCP server"

// Result is the decoded payload of one remote call. Failures are encoded
// in-band under the "error" key instead of being returned as Go errors,
// because the consumer is a language model that cannot handle them.
type Result map[string]any

// ErrorMessage returns the in-band error text, if any
func (r Result) ErrorMessage() (string, bool) {
	msg, ok := r["error"].(string)
	return msg, ok
}

// IsError reports whether the result carries an in-band error
func (r Result) IsError() bool {
	_, ok := r.ErrorMessage()
	return ok
}

// ErrorResult builds the in-band failure value for a remote call
func ErrorResult(err error) Result {
	return Result{"error": fmt.Sprintf("MCP tool call failed: %s", err)}
}

// Client dispatches named tool calls over a Session
type Client struct {
	session     *Session
	callTimeout time.Duration
	log         *logger.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithCallTimeout bounds each remote call; zero means no bound
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) { c.callTimeout = d }
}

// NewClient creates a client over session. The session is opened lazily on first call.
func NewClient(session *Session, opts ...Option) *Client {
	c := &Client{
		session: session,
		log:     logger.Get().With("component", "polygon_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session exposes the underlying session for scoped acquisition
func (c *Client) Session() *Session {
	return c.session
}

// Do runs fn inside one scoped session: opened before, closed after.
func (c *Client) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.session.Do(ctx, fn)
}

// Close releases the session
func (c *Client) Close() {
	c.session.Close()
}

// Call invokes a remote tool and decodes its first content item.
// It never returns a Go error: every failure comes back as {"error": ...}.
func (c *Client) Call(ctx context.Context, toolName string, args map[string]any) Result {
	start := time.Now()
	result := c.call(ctx, toolName, args)

	status := metrics.StatusOK
	switch {
	case result.IsError():
		status = metrics.StatusError
		c.log.Warnf("MCP tool %s failed: %v", toolName, result["error"])
	case result["warning"] != nil:
		status = metrics.StatusWarning
	}
	metrics.RecordMCPCall(toolName, status, time.Since(start))

	return result
}

func (c *Client) call(ctx context.Context, toolName string, args map[string]any) Result {
	if err := c.session.Open(ctx); err != nil {
		return ErrorResult(err)
	}

	caller, err := c.session.caller()
	if err != nil {
		return ErrorResult(err)
	}

	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	c.log.Debugw("Calling MCP tool", "tool", toolName, "args", args)

	res, err := caller.CallTool(ctx, &mcp.CallToolParams{Name: toolName, Arguments: args})
	if err != nil {
		return ErrorResult(err)
	}

	return decodeResult(res)
}

// decodeResult applies the decoding policy in priority order:
// text content as JSON (or {"text": raw}), structured content as-is,
// binary data, a string coercion, and finally the no-content warning.
func decodeResult(res *mcp.CallToolResult) Result {
	if res == nil {
		return Result{"warning": NoContentWarning}
	}

	if res.IsError {
		return ErrorResult(fmt.Errorf("%s", errorText(res)))
	}

	if len(res.Content) > 0 {
		if text, ok := res.Content[0].(*mcp.TextContent); ok {
			return decodeText(text.Text)
		}
	}

	if res.StructuredContent != nil {
		return asResult(res.StructuredContent)
	}

	if len(res.Content) == 0 {
		return Result{"warning": NoContentWarning}
	}

	switch content := res.Content[0].(type) {
	case *mcp.ImageContent:
		return Result{"data": content.Data, "mime_type": content.MIMEType}
	case *mcp.AudioContent:
		return Result{"data": content.Data, "mime_type": content.MIMEType}
	default:
		return Result{"content": stringify(content)}
	}
}

// decodeText parses text as JSON; anything that isn't JSON comes back verbatim
func decodeText(text string) Result {
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return Result{"text": text}
	}
	return asResult(parsed)
}

// asResult returns objects as-is and wraps other JSON values under "data"
func asResult(v any) Result {
	switch value := v.(type) {
	case map[string]any:
		return value
	case Result:
		return value
	case json.RawMessage:
		return decodeText(string(value))
	default:
		return Result{"data": value}
	}
}

func errorText(res *mcp.CallToolResult) string {
	for _, content := range res.Content {
		if text, ok := content.(*mcp.TextContent); ok && text.Text != "" {
			return text.Text
		}
	}
	return "remote tool reported an error"
}

func stringify(content mcp.Content) string {
	if raw, err := json.Marshal(content); err == nil {
		return string(raw)
	}
	return fmt.Sprintf("%v", content)
}
