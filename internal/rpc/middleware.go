package rpc

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// Handler performs one RPC exchange.
type Handler func(ctx context.Context, req *Request) (*Response, error)

// Middleware wraps a [Handler] with additional behavior.
type Middleware func(next Handler) Handler

// Chain combines middlewares into one; the first argument is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(next Handler) Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// WithLogging logs each call with its duration at debug level, and failures at warn.
func WithLogging(l *log.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (*Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			elapsed := time.Since(start)

			switch {
			case err != nil:
				l.Warn("rpc failed", "method", req.Method, "duration", elapsed, "error", err)
			case !resp.OK():
				l.Warn("rpc rejected", "method", req.Method, "duration", elapsed, "result", resp.Result)
			default:
				l.Debug("rpc", "method", req.Method, "duration", elapsed)
			}
			return resp, err
		}
	}
}

// WithRateLimit waits on limiter before each call.
//
// A wait cancelled by ctx is reported as a [TransportError].
func WithRateLimit(limiter *rate.Limiter) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (*Response, error) {
			if err := limiter.Wait(ctx); err != nil {
				return nil, &TransportError{Method: req.Method, Err: err}
			}
			return next(ctx, req)
		}
	}
}

// WithMetrics records call counts and durations in m.
func WithMetrics(m *Metrics) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (*Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			m.Duration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
			m.Requests.WithLabelValues(req.Method, outcome(resp, err)).Inc()
			return resp, err
		}
	}
}

func outcome(resp *Response, err error) string {
	var te *TransportError
	var pe *ProtocolError
	switch {
	case errors.As(err, &te):
		return "transport_error"
	case errors.As(err, &pe):
		return "protocol_error"
	case err != nil:
		return "error"
	case !resp.OK():
		return "rejected"
	default:
		return "success"
	}
}
