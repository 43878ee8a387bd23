package rpc

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	tu "github.com/desertthunder/trx/internal/testing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/time/rate"
)

func TestChain(t *testing.T) {
	t.Run("first middleware is outermost", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next Handler) Handler {
				return func(ctx context.Context, req *Request) (*Response, error) {
					order = append(order, name+":before")
					resp, err := next(ctx, req)
					order = append(order, name+":after")
					return resp, err
				}
			}
		}

		final := func(ctx context.Context, req *Request) (*Response, error) {
			order = append(order, "handler")
			return &Response{Result: ResultSuccess}, nil
		}

		h := Chain(mark("a"), mark("b"))(final)
		if _, err := h(context.Background(), &Request{Method: "session-get"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := "a:before b:before handler b:after a:after"
		if got := strings.Join(order, " "); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("empty chain", func(t *testing.T) {
		called := false
		h := Chain()(func(ctx context.Context, req *Request) (*Response, error) {
			called = true
			return &Response{Result: ResultSuccess}, nil
		})
		h(context.Background(), &Request{})
		if !called {
			t.Error("expected handler to be called")
		}
	})
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

	h := WithLogging(logger)(func(ctx context.Context, req *Request) (*Response, error) {
		switch req.Method {
		case "torrent-add":
			return &Response{Result: "duplicate torrent"}, nil
		case "torrent-get":
			return nil, &TransportError{Method: req.Method, Err: errors.New("refused")}
		}
		return &Response{Result: ResultSuccess}, nil
	})

	h(context.Background(), &Request{Method: "session-get"})
	h(context.Background(), &Request{Method: "torrent-add"})
	h(context.Background(), &Request{Method: "torrent-get"})

	out := buf.String()
	for _, want := range []string{"method=session-get", "rpc rejected", "result=\"duplicate torrent\"", "rpc failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log to contain %q, got:\n%s", want, out)
		}
	}
}

func TestWithRateLimit(t *testing.T) {
	t.Run("cancelled wait is a transport error", func(t *testing.T) {
		limiter := rate.NewLimiter(rate.Limit(0.001), 1)
		limiter.Allow()

		called := false
		h := WithRateLimit(limiter)(func(ctx context.Context, req *Request) (*Response, error) {
			called = true
			return &Response{Result: ResultSuccess}, nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := h(ctx, &Request{Method: "torrent-get"})
		var te *TransportError
		if !errors.As(err, &te) {
			t.Fatalf("expected TransportError, got %v", err)
		}
		if called {
			t.Error("expected handler not to be called")
		}
	})

	t.Run("passes through within burst", func(t *testing.T) {
		limiter := rate.NewLimiter(rate.Inf, 1)
		h := WithRateLimit(limiter)(func(ctx context.Context, req *Request) (*Response, error) {
			return &Response{Result: ResultSuccess}, nil
		})
		for range 3 {
			if _, err := h(context.Background(), &Request{Method: "torrent-get"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}
	})
}

func TestWithMetrics(t *testing.T) {
	t.Run("counts outcomes", func(t *testing.T) {
		m := NewMetrics(prometheus.NewRegistry())
		h := WithMetrics(m)(func(ctx context.Context, req *Request) (*Response, error) {
			switch req.Method {
			case "torrent-add":
				return &Response{Result: "duplicate torrent"}, nil
			case "torrent-get":
				return nil, &TransportError{Method: req.Method, Err: errors.New("refused")}
			case "torrent-set":
				return nil, &ProtocolError{Method: req.Method, StatusCode: 500}
			}
			return &Response{Result: ResultSuccess}, nil
		})

		for _, method := range []string{"session-get", "session-get", "torrent-add", "torrent-get", "torrent-set"} {
			h(context.Background(), &Request{Method: method})
		}

		tests := []struct {
			method, outcome string
			want            float64
		}{
			{"session-get", "success", 2},
			{"torrent-add", "rejected", 1},
			{"torrent-get", "transport_error", 1},
			{"torrent-set", "protocol_error", 1},
		}
		for _, tt := range tests {
			if got := testutil.ToFloat64(m.Requests.WithLabelValues(tt.method, tt.outcome)); got != tt.want {
				t.Errorf("%s/%s: expected %v, got %v", tt.method, tt.outcome, tt.want, got)
			}
		}
		if got := testutil.CollectAndCount(m.Duration); got != 4 {
			t.Errorf("expected 4 duration series, got %d", got)
		}
	})

	t.Run("wired through the client", func(t *testing.T) {
		d := tu.NewDaemon(t, "T1")
		d.Reply("session-stats", map[string]any{})

		m := NewMetrics(prometheus.NewRegistry())
		c := NewClient(Options{
			Endpoint:   d.URL(),
			Token:      &SessionToken{},
			Metrics:    m,
			Middleware: []Middleware{WithMetrics(m)},
		})
		if err := c.Call(context.Background(), "session-stats", nil, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := testutil.ToFloat64(m.Requests.WithLabelValues("session-stats", "success")); got != 1 {
			t.Errorf("expected 1 success, got %v", got)
		}
	})

	t.Run("nil registry", func(t *testing.T) {
		m := NewMetrics(nil)
		if m.Requests == nil || m.Duration == nil || m.SessionRefreshes == nil {
			t.Error("expected collectors to be created")
		}
	})
}

func TestSessionToken(t *testing.T) {
	token := &SessionToken{}
	if token.Get() != "" {
		t.Errorf("expected empty token, got %q", token.Get())
	}

	token.Set("a")
	token.Set("b")
	if token.Get() != "b" {
		t.Errorf("expected last write to win, got %q", token.Get())
	}
	if token.Refreshes() != 2 {
		t.Errorf("expected 2 refreshes, got %d", token.Refreshes())
	}
}
