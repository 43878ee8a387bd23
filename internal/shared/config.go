package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	RPC      RPCConfig      `toml:"rpc"`
	Poll     PollConfig     `toml:"poll"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// RPCConfig contains the daemon endpoint and credentials.
type RPCConfig struct {
	URL       string  `toml:"url" env:"TRX_RPC_URL"`
	Username  string  `toml:"username" env:"TRX_RPC_USERNAME"`
	Password  string  `toml:"password" env:"TRX_RPC_PASSWORD"`
	TimeoutMS int     `toml:"timeout_ms" env:"TRX_RPC_TIMEOUT_MS"`
	RateLimit float64 `toml:"rate_limit" env:"TRX_RPC_RATE_LIMIT"`
}

// Timeout returns the per-request timeout.
func (c RPCConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// PollConfig contains polling settings for watch and serve.
type PollConfig struct {
	IntervalSeconds int  `toml:"interval_seconds" env:"TRX_POLL_INTERVAL_SECONDS"`
	Record          bool `toml:"record" env:"TRX_POLL_RECORD"`
}

// Interval returns the polling interval.
func (c PollConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"TRX_DATABASE_PATH"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host" env:"TRX_SERVER_HOST"`
	Port int    `toml:"port" env:"TRX_SERVER_PORT"`
}

// Addr returns host:port for [net/http.Server].
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" env:"TRX_LOG_LEVEL"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overrides config values with any TRX_* environment variables that are set.
func ApplyEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	u, err := url.Parse(c.RPC.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: rpc.url %q is not an absolute URL", ErrInvalidConfig, c.RPC.URL)
	}
	if c.RPC.TimeoutMS < 0 {
		return fmt.Errorf("%w: rpc.timeout_ms must not be negative", ErrInvalidConfig)
	}
	if c.RPC.RateLimit < 0 {
		return fmt.Errorf("%w: rpc.rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
