package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"stockresearch/pkg/errors"
)

type Config struct {
	App           AppConfig
	Polygon       PolygonConfig
	MCP           MCPConfig
	LLM           LLMConfig
	Agents        AgentsConfig
	ErrorTracking ErrorTrackingConfig
	Metrics       MetricsConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"stockresearch"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type PolygonConfig struct {
	APIKey string `envconfig:"POLYGON_API_KEY" required:"true"`
}

// MCPConfig describes how the Polygon MCP server subprocess is launched.
// The default command line is:
//
//	uvx --from git+https://github.com/polygon-io/mcp_polygon@v0.4.0 mcp_polygon
type MCPConfig struct {
	LauncherPath string        `envconfig:"MCP_LAUNCHER_PATH"`
	Source       string        `envconfig:"MCP_SERVER_SOURCE" default:"git+https://github.com/polygon-io/mcp_polygon@v0.4.0"`
	Entrypoint   string        `envconfig:"MCP_SERVER_ENTRYPOINT" default:"mcp_polygon"`
	CallTimeout  time.Duration `envconfig:"MCP_CALL_TIMEOUT" default:"0s"`
	BatchDelay   time.Duration `envconfig:"MCP_BATCH_DELAY" default:"100ms"`
	// TerminateDuration bounds how long Close waits for the subprocess to exit
	TerminateDuration time.Duration `envconfig:"MCP_TERMINATE_DURATION" default:"5s"`
}

// Args returns the launcher arguments that start the MCP server
func (c MCPConfig) Args() []string {
	return []string{"--from", c.Source, c.Entrypoint}
}

type LLMConfig struct {
	GoogleAPIKey      string `envconfig:"GOOGLE_API_KEY"`
	DefaultModel      string `envconfig:"LLM_DEFAULT_MODEL" default:"gemini-2.0-flash"`
	StructuredModel   string `envconfig:"LLM_STRUCTURED_MODEL" default:"gemini-1.5-pro"`
	OrchestratorModel string `envconfig:"LLM_ORCHESTRATOR_MODEL" default:"gemini-2.5-pro"`
	DataModel         string `envconfig:"LLM_DATA_MODEL" default:"gemini-2.5-flash"`
	RequestsPerMinute int    `envconfig:"LLM_REQUESTS_PER_MINUTE" default:"60"`
	Burst             int    `envconfig:"LLM_BURST" default:"5"`
}

type AgentsConfig struct {
	ExecutionTimeout time.Duration `envconfig:"AGENT_EXECUTION_TIMEOUT" default:"5m"`
	ToolTimeout      time.Duration `envconfig:"AGENT_TOOL_TIMEOUT" default:"2m"`
	UserID           string        `envconfig:"AGENT_USER_ID" default:"local"`
	// RSI bands handed to the strategy agent instruction
	RSIOversold   int `envconfig:"STRATEGY_RSI_OVERSOLD" default:"30"`
	RSIOverbought int `envconfig:"STRATEGY_RSI_OVERBOUGHT" default:"70"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"development"`
}

type MetricsConfig struct {
	// Addr enables the /metrics, /health and /ready listener when non-empty
	Addr string `envconfig:"METRICS_ADDR"`
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to process env config: %w", errors.ErrConfig, err)
	}

	return &cfg, nil
}

// Validate checks values envconfig cannot express and resolves the MCP
// launcher, storing the absolute path back into LauncherPath.
func (c *Config) Validate() error {
	if c.Polygon.APIKey == "" {
		return errors.Wrap(errors.ErrConfig, "POLYGON_API_KEY environment variable is required")
	}
	if c.MCP.BatchDelay < 0 {
		return errors.Wrapf(errors.ErrConfig, "MCP_BATCH_DELAY must not be negative, got %s", c.MCP.BatchDelay)
	}
	if c.Agents.RSIOversold <= 0 || c.Agents.RSIOverbought > 100 || c.Agents.RSIOversold >= c.Agents.RSIOverbought {
		return errors.Wrapf(errors.ErrConfig, "RSI bands must satisfy 0 < oversold < overbought <= 100, got %d/%d",
			c.Agents.RSIOversold, c.Agents.RSIOverbought)
	}
	if c.LLM.RequestsPerMinute < 0 {
		return errors.Wrapf(errors.ErrConfig, "LLM_REQUESTS_PER_MINUTE must not be negative, got %d", c.LLM.RequestsPerMinute)
	}

	path, err := ResolveLauncher(c.MCP.LauncherPath, os.Getenv("HOME"), exec.LookPath)
	if err != nil {
		return err
	}
	c.MCP.LauncherPath = path
	return nil
}

// LauncherCandidates lists the conventional uvx install locations, checked in order
// before falling back to PATH.
func LauncherCandidates(home string) []string {
	var candidates []string
	if home != "" {
		candidates = append(candidates,
			filepath.Join(home, ".local", "bin", "uvx"),
			filepath.Join(home, ".cargo", "bin", "uvx"),
		)
	}
	return append(candidates, "/usr/local/bin/uvx", "/opt/homebrew/bin/uvx")
}

// ResolveLauncher finds the executable that starts the MCP server.
// An explicit override must exist; otherwise the candidates are checked in
// order and PATH is consulted last.
func ResolveLauncher(override, home string, lookPath func(string) (string, error)) (string, error) {
	if override != "" {
		if isExecutable(override) {
			return override, nil
		}
		return "", errors.Wrapf(errors.ErrConfig, "MCP_LAUNCHER_PATH %q is not an executable file", override)
	}

	for _, candidate := range LauncherCandidates(home) {
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if lookPath != nil {
		if path, err := lookPath("uvx"); err == nil {
			return path, nil
		}
	}

	return "", errors.Wrap(errors.ErrConfig, "uvx launcher not found; install uv or set MCP_LAUNCHER_PATH")
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
