// Package config loads and validates the engine configuration from
// YAML. All thresholds and paths concrete checks depend on live here
// and are passed in explicitly; there is no process-global state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full configuration.
type Config struct {
	Server     Server     `yaml:"server"`
	Engine     Engine     `yaml:"engine"`
	Daemon     Daemon     `yaml:"daemon"`
	Thresholds Thresholds `yaml:"thresholds"`
}

// Server configures the probe HTTP server.
type Server struct {
	Address string `yaml:"address,omitempty"`
}

// Engine configures check execution.
type Engine struct {
	// CheckTimeout bounds each provider invocation. Zero means no
	// per-check deadline; a blocking check then blocks the whole run.
	CheckTimeout Duration `yaml:"checkTimeout,omitempty"`

	// Parallel runs each level's checks concurrently.
	Parallel bool `yaml:"parallel,omitempty"`

	// CacheTTL serves cached reports to probes for this long. Zero
	// disables caching and every probe re-runs the checks.
	CacheTTL Duration `yaml:"cacheTTL,omitempty"`
}

// Daemon locates the monitored daemon's runtime artifacts.
type Daemon struct {
	Home         string   `yaml:"home,omitempty"`
	PIDFile      string   `yaml:"pidFile,omitempty"`
	LogFile      string   `yaml:"logFile,omitempty"`
	DatabaseFile string   `yaml:"databaseFile,omitempty"`
	StartCommand []string `yaml:"startCommand,omitempty"`
}

// Thresholds holds the limits concrete checks compare against.
type Thresholds struct {
	MaxQueueDepth          int     `yaml:"maxQueueDepth,omitempty"`
	MaxBacklog             int     `yaml:"maxBacklog,omitempty"`
	MinDiskGB              float64 `yaml:"minDiskGB,omitempty"`
	MaxMemoryPercent       float64 `yaml:"maxMemoryPercent,omitempty"`
	MaxConnectionLatencyMS float64 `yaml:"maxConnectionLatencyMS,omitempty"`
	MaxLogSizeMB           float64 `yaml:"maxLogSizeMB,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	home := defaultHome()
	return &Config{
		Server: Server{
			Address: ":8080",
		},
		Engine: Engine{
			CheckTimeout: Duration(10 * time.Second),
		},
		Daemon: Daemon{
			Home:         home,
			PIDFile:      filepath.Join(home, "daemon.pid"),
			LogFile:      filepath.Join(home, "daemon.log"),
			DatabaseFile: filepath.Join(home, "sessions.db"),
		},
		Thresholds: Thresholds{
			MaxQueueDepth:          100,
			MaxBacklog:             50,
			MinDiskGB:              1.0,
			MaxMemoryPercent:       90.0,
			MaxConnectionLatencyMS: 5000,
			MaxLogSizeMB:           100,
		},
	}
}

// Load reads configuration from a file path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML bytes on top of the defaults and validates the
// result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is well-formed.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.Engine.CheckTimeout < 0 {
		return fmt.Errorf("engine.checkTimeout must not be negative")
	}
	if c.Engine.CacheTTL < 0 {
		return fmt.Errorf("engine.cacheTTL must not be negative")
	}
	if c.Thresholds.MaxQueueDepth < 0 {
		return fmt.Errorf("thresholds.maxQueueDepth must not be negative")
	}
	if c.Thresholds.MaxBacklog < 0 {
		return fmt.Errorf("thresholds.maxBacklog must not be negative")
	}
	if c.Thresholds.MinDiskGB < 0 {
		return fmt.Errorf("thresholds.minDiskGB must not be negative")
	}
	if c.Thresholds.MaxMemoryPercent < 0 || c.Thresholds.MaxMemoryPercent > 100 {
		return fmt.Errorf("thresholds.maxMemoryPercent must be between 0 and 100")
	}
	return nil
}

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lookout"
	}
	return filepath.Join(home, ".lookout")
}

// Duration wraps time.Duration for YAML marshaling.
type Duration time.Duration

// Duration returns the wrapped time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML parses durations in Go syntax ("10s", "1m30s").
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in Go syntax.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}
