// Package polygontest provides an in-process Polygon MCP server for tests.
package polygontest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"stockresearch/internal/adapters/polygon"
	"stockresearch/pkg/errors"
)

// Bar is one aggregate bar in Polygon's wire format
type Bar struct {
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
	Timestamp int64   `json:"t"`
}

// Call is one tool invocation observed by the server
type Call struct {
	Tool string
	Args map[string]any
}

// ToolFunc handles a custom tool registered with AddTool
type ToolFunc func(args map[string]any) (*mcp.CallToolResult, error)

// Server fakes the subset of the Polygon MCP server the bridge uses.
// get_aggs answers from bars registered per ticker.
type Server struct {
	mu          sync.Mutex
	server      *mcp.Server
	bars        map[string][]Bar
	failures    map[string]string
	calls       []Call
	connections int
	refuse      error
}

func New() *Server {
	s := &Server{
		server:   mcp.NewServer(&mcp.Implementation{Name: "polygon-test", Version: "0.0.1"}, nil),
		bars:     map[string][]Bar{},
		failures: map[string]string{},
	}

	mcp.AddTool(s.server, &mcp.Tool{Name: polygon.AggregatesTool, Description: "aggregate bars"}, s.handleAggs)
	return s
}

// SetBars sets the bars returned for ticker
func (s *Server) SetBars(ticker string, bars ...Bar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bars[strings.ToUpper(ticker)] = bars
}

// FailTicker makes get_aggs report a tool error for ticker
func (s *Server) FailTicker(ticker, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[strings.ToUpper(ticker)] = message
}

// RefuseConnections makes every following connect attempt fail with err (nil re-enables)
func (s *Server) RefuseConnections(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refuse = err
}

// AddTool registers an extra tool
func (s *Server) AddTool(name string, fn ToolFunc) {
	mcp.AddTool(s.server, &mcp.Tool{Name: name}, func(_ context.Context, _ *mcp.CallToolRequest, in any) (*mcp.CallToolResult, any, error) {
		args := toArgs(in)
		s.record(name, args)
		res, err := fn(args)
		return res, nil, err
	})
}

// Calls returns the recorded invocations in order
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Connections returns how many client sessions were connected
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connections
}

// TransportFactory connects each new client session to this server in memory
func (s *Server) TransportFactory() polygon.TransportFactory {
	return func(ctx context.Context) (mcp.Transport, error) {
		s.mu.Lock()
		refuse := s.refuse
		s.mu.Unlock()
		if refuse != nil {
			return nil, refuse
		}

		serverT, clientT := mcp.NewInMemoryTransports()
		if _, err := s.server.Connect(context.Background(), serverT, nil); err != nil {
			return nil, errors.Wrap(err, "connect test server")
		}

		s.mu.Lock()
		s.connections++
		s.mu.Unlock()
		return clientT, nil
	}
}

// NewClient returns a polygon client wired to this server
func (s *Server) NewClient(opts ...polygon.Option) *polygon.Client {
	return polygon.NewClient(polygon.NewSession(s.TransportFactory()), opts...)
}

func (s *Server) handleAggs(_ context.Context, _ *mcp.CallToolRequest, in any) (*mcp.CallToolResult, any, error) {
	args := toArgs(in)
	s.record(polygon.AggregatesTool, args)

	ticker, _ := args["ticker"].(string)

	s.mu.Lock()
	failure, failing := s.failures[ticker]
	bars := s.bars[ticker]
	s.mu.Unlock()

	if failing {
		return nil, nil, fmt.Errorf("%s", failure)
	}

	if limit, ok := args["limit"].(float64); ok && int(limit) < len(bars) {
		bars = bars[len(bars)-int(limit):]
	}

	body := map[string]any{
		"ticker":       ticker,
		"status":       "OK",
		"resultsCount": len(bars),
		"queryCount":   len(bars),
	}
	if len(bars) > 0 {
		body["results"] = bars
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}}}, nil, nil
}

func (s *Server) record(tool string, args map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Tool: tool, Args: args})
}

func toArgs(in any) map[string]any {
	if m, ok := in.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
