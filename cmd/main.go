package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/trx/internal/rpc"
	"github.com/desertthunder/trx/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.app().Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		if hint := errorHint(err); hint != "" {
			logger.Error(hint)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// errorHint suggests a fix for the common daemon failures.
func errorHint(err error) string {
	var transportErr *rpc.TransportError
	switch {
	case errors.Is(err, shared.ErrUnauthorized):
		return "the daemon rejected the credentials; check rpc.username and rpc.password"
	case errors.Is(err, shared.ErrTimeout):
		return "the daemon did not answer in time; raise rpc.timeout_ms or check the url"
	case errors.As(err, &transportErr):
		return "could not reach the daemon; check rpc.url and that transmission-daemon is running"
	case errors.Is(err, shared.ErrSessionConflict):
		return "the daemon kept rejecting the session id; try again"
	default:
		return ""
	}
}
