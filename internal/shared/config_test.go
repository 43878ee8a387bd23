package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.RPC.URL != "http://localhost:9091/transmission/rpc" {
			t.Errorf("expected default rpc url, got %s", config.RPC.URL)
		}

		if config.RPC.Timeout() != 3*time.Second {
			t.Errorf("expected 3s timeout, got %v", config.RPC.Timeout())
		}

		if config.Poll.Interval() != 5*time.Second {
			t.Errorf("expected 5s poll interval, got %v", config.Poll.Interval())
		}

		if config.Database.Path != "./trx.db" {
			t.Errorf("expected database path ./trx.db, got %s", config.Database.Path)
		}

		if config.Server.Addr() != "127.0.0.1:3000" {
			t.Errorf("expected server addr 127.0.0.1:3000, got %s", config.Server.Addr())
		}

		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to be valid, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[rpc]
url = "http://seedbox:9091/transmission/rpc"
username = "admin"
password = "secret"

[server]
port = 8080
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0o644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.RPC.URL != "http://seedbox:9091/transmission/rpc" {
			t.Errorf("expected custom rpc url, got %s", config.RPC.URL)
		}
		if config.RPC.Username != "admin" || config.RPC.Password != "secret" {
			t.Errorf("expected credentials to be loaded, got %q/%q", config.RPC.Username, config.RPC.Password)
		}
		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}
		if config.RPC.TimeoutMS != 3000 {
			t.Errorf("expected missing timeout to keep default, got %d", config.RPC.TimeoutMS)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("TRX_RPC_URL", "http://nas:9091/transmission/rpc")
		t.Setenv("TRX_SERVER_PORT", "4000")
		t.Setenv("TRX_POLL_RECORD", "true")

		config := DefaultConfig()
		if err := ApplyEnv(config); err != nil {
			t.Fatalf("failed to apply env: %v", err)
		}

		if config.RPC.URL != "http://nas:9091/transmission/rpc" {
			t.Errorf("expected env rpc url, got %s", config.RPC.URL)
		}
		if config.Server.Port != 4000 {
			t.Errorf("expected env port 4000, got %d", config.Server.Port)
		}
		if !config.Poll.Record {
			t.Error("expected poll record to be enabled")
		}
		if config.Database.Path != "./trx.db" {
			t.Errorf("expected unset env to keep default, got %s", config.Database.Path)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tt := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "relative url", mutate: func(c *Config) { c.RPC.URL = "/transmission/rpc" }},
			{name: "negative timeout", mutate: func(c *Config) { c.RPC.TimeoutMS = -1 }},
			{name: "negative rate", mutate: func(c *Config) { c.RPC.RateLimit = -2 }},
			{name: "port out of range", mutate: func(c *Config) { c.Server.Port = 70000 }},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				config := DefaultConfig()
				tc.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})
}
