package rpc

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/desertthunder/trx/internal/shared"
)

// ResultSuccess is the result value of a successful call.
const ResultSuccess = "success"

// TransportError reports a request that produced no HTTP response.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rpc %s: transport: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline or client timeout.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, os.ErrDeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// Is matches [shared.ErrTimeout] for timeouts.
func (e *TransportError) Is(target error) bool {
	return target == shared.ErrTimeout && e.Timeout()
}

// ProtocolError reports a response the daemon did not accept.
//
// StatusCode is set for HTTP failures, Result for a non-success result on a 2xx response.
type ProtocolError struct {
	Method     string
	StatusCode int
	Result     string
}

func (e *ProtocolError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("rpc %s: unexpected status %d %s", e.Method, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("rpc %s: %s", e.Method, e.Result)
}

// Is matches [shared.ErrUnauthorized] for 401, [shared.ErrSessionConflict] for 409
// and [shared.ErrAPIRequest] for any protocol failure.
func (e *ProtocolError) Is(target error) bool {
	switch target {
	case shared.ErrAPIRequest:
		return true
	case shared.ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case shared.ErrSessionConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}
