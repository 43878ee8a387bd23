package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trx/internal/rpc"
	"github.com/desertthunder/trx/internal/shared"
	"github.com/desertthunder/trx/internal/tasks"
	"github.com/desertthunder/trx/internal/transmission"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client
	token      *rpc.SessionToken
	registry   *prometheus.Registry
	metrics    *rpc.Metrics
	rpc        *rpc.Client
	client     *transmission.Client
	engine     *tasks.Engine
	palette    *Palette
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client      // Overrides the RPC HTTP client
	Token      *rpc.SessionToken // Defaults to [rpc.DefaultSessionToken]
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Token == nil {
		opts.Token = rpc.DefaultSessionToken
	}

	registry := prometheus.NewRegistry()
	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
		token:      opts.Token,
		registry:   registry,
		metrics:    rpc.NewMetrics(registry),
		palette:    NewPalette(isTerminal(opts.Output)),
	}
	r.connect()
	return r
}

// connect builds the daemon clients from the current config.
func (r *Runner) connect() {
	rpcLogger := shared.WithLogger(r.logger, "component", "rpc")
	middleware := []rpc.Middleware{rpc.WithLogging(rpcLogger), rpc.WithMetrics(r.metrics)}
	if rps := r.config.RPC.RateLimit; rps > 0 {
		middleware = append(middleware, rpc.WithRateLimit(rate.NewLimiter(rate.Limit(rps), 1)))
	}

	r.rpc = rpc.NewClient(rpc.Options{
		Endpoint:   r.config.RPC.URL,
		Username:   r.config.RPC.Username,
		Password:   r.config.RPC.Password,
		Timeout:    r.config.RPC.Timeout(),
		HTTPClient: r.httpClient,
		Token:      r.token,
		Metrics:    r.metrics,
		Middleware: middleware,
	})
	r.client = transmission.NewClient(r.rpc)
	r.engine = tasks.NewEngine(r.client)
}

// configure is the root Before hook: it loads the config file, applies TRX_* environment
// variables and then the global flags, and rebuilds the clients.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")

	config, found, err := loadConfig(path)
	if err != nil {
		return ctx, err
	}
	if !found && cmd.IsSet("config") {
		r.logger.Warn("config file not found, using defaults", "path", path)
	}
	if err := shared.ApplyEnv(config); err != nil {
		return ctx, err
	}

	if cmd.IsSet("url") {
		config.RPC.URL = cmd.String("url")
	}
	if cmd.IsSet("username") {
		config.RPC.Username = cmd.String("username")
	}
	if cmd.IsSet("password") {
		config.RPC.Password = cmd.String("password")
	}
	if cmd.IsSet("timeout") {
		config.RPC.TimeoutMS = int(cmd.Duration("timeout").Milliseconds())
	}

	level := config.Log.Level
	if cmd.Bool("debug") {
		level = "debug"
	}
	shared.SetLogLevel(r.logger, level)

	if err := config.Validate(); err != nil {
		return ctx, err
	}

	r.config, r.configPath = config, path
	r.connect()
	r.logger.Debug("configured", "config", path, "url", config.RPC.URL)
	return ctx, nil
}

// loadConfig reads path. A missing file yields the defaults with found set to false.
func loadConfig(path string) (config *shared.Config, found bool, err error) {
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, false, fmt.Errorf("%w: %v", shared.ErrMissingConfig, err)
		}
		return shared.DefaultConfig(), false, nil
	}
	config, err = shared.LoadConfig(path)
	return config, err == nil, err
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		torrentsCommand, sessionCommand, statsCommand, freeSpaceCommand, portTestCommand,
		watchCommand, historyCommand, serveCommand, rpcCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("%s\n", r.palette.Title(title))
}
