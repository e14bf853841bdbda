package polygon

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"stockresearch/internal/metrics"
	"stockresearch/pkg/errors"
	"stockresearch/pkg/logger"
)

const (
	clientName    = "stockresearch-polygon"
	clientVersion = "1.0.0"
)

// TransportFactory returns a fresh transport for every session open.
// A transport can only be connected once, so reopening needs a new one.
type TransportFactory func(ctx context.Context) (mcp.Transport, error)

// CommandOptions describes the MCP server subprocess
type CommandOptions struct {
	Launcher          string
	Args              []string
	APIKey            string
	TerminateDuration time.Duration
}

// CommandTransportFactory spawns the Polygon MCP server over stdio.
// The child only sees PATH, HOME and POLYGON_API_KEY.
func CommandTransportFactory(opts CommandOptions) TransportFactory {
	return func(ctx context.Context) (mcp.Transport, error) {
		if opts.Launcher == "" {
			return nil, errors.Wrap(errors.ErrConfig, "MCP launcher path is empty")
		}

		home, _ := os.UserHomeDir()
		// Not exec.CommandContext: the session must outlive the ctx used to open it.
		cmd := exec.Command(opts.Launcher, opts.Args...)
		cmd.Env = []string{
			"PATH=" + os.Getenv("PATH"),
			"HOME=" + home,
			"POLYGON_API_KEY=" + opts.APIKey,
		}
		cmd.Stderr = os.Stderr

		return &mcp.CommandTransport{Command: cmd, TerminateDuration: opts.TerminateDuration}, nil
	}
}

// Session owns one MCP client connection to the data provider.
// Open is idempotent; Close is safe to call any number of times. Each
// Open after a Close connects a brand-new ClientSession.
type Session struct {
	mu           sync.Mutex
	client       *mcp.Client
	newTransport TransportFactory
	cs           *mcp.ClientSession
	opened       int
	log          *logger.Logger
}

// NewSession creates a closed session that connects through factory
func NewSession(factory TransportFactory) *Session {
	return &Session{
		client:       mcp.NewClient(&mcp.Implementation{Name: clientName, Version: clientVersion}, nil),
		newTransport: factory,
		log:          logger.Get().With("component", "polygon_session"),
	}
}

// Open connects the session if it is not already connected
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cs != nil {
		return nil
	}

	transport, err := s.newTransport(ctx)
	if err != nil {
		metrics.RecordMCPSession("open_failed")
		return fmt.Errorf("%w: create MCP transport: %w", errors.ErrConnection, err)
	}

	cs, err := s.client.Connect(ctx, transport, nil)
	if err != nil {
		metrics.RecordMCPSession("open_failed")
		return fmt.Errorf("%w: connect to Polygon MCP server: %w", errors.ErrConnection, err)
	}

	s.cs = cs
	s.opened++
	metrics.RecordMCPSession("opened")
	s.log.Debugf("Connected to Polygon MCP server (session %s)", cs.ID())
	return nil
}

// Close tears the session down. Teardown errors are logged, never returned.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cs == nil {
		return
	}

	cs := s.cs
	s.cs = nil
	if err := cs.Close(); err != nil {
		metrics.RecordMCPSession("close_failed")
		s.log.Warnf("Error disconnecting from Polygon MCP server: %v", err)
		return
	}
	metrics.RecordMCPSession("closed")
	s.log.Debug("Disconnected from Polygon MCP server")
}

// IsOpen reports whether a connection is currently held
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cs != nil
}

// Generation counts successful opens; a reopen yields a new generation.
func (s *Session) Generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

// Do opens the session, runs fn and always closes it afterwards,
// also when fn returns an error or panics.
func (s *Session) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := s.Open(ctx); err != nil {
		return err
	}
	defer s.Close()
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrap(errors.ErrInternal, fmt.Sprintf("panic in session scope: %v", r))
		}
	}()

	return fn(ctx)
}

// caller returns the live session for a remote call
func (s *Session) caller() (toolCaller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cs == nil {
		return nil, errors.ErrSessionClosed
	}
	return s.cs, nil
}

// toolCaller is the subset of *mcp.ClientSession the dispatcher uses
type toolCaller interface {
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
}
