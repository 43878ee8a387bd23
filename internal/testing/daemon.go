package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

const sessionHeader = "X-Transmission-Session-Id"

// DaemonHandler answers one RPC method with a result string and arguments.
type DaemonHandler func(args json.RawMessage) (result string, arguments any)

// DaemonRequest records one HTTP request received by a [Daemon].
type DaemonRequest struct {
	Method    string
	SessionID string
	Arguments json.RawMessage
}

// Daemon is a fake Transmission RPC endpoint enforcing the session id handshake.
type Daemon struct {
	Server *httptest.Server

	mu             sync.Mutex
	sessionID      string
	rotations      int
	alwaysConflict bool
	username       string
	password       string
	handlers       map[string]DaemonHandler
	requests       []DaemonRequest
}

// NewDaemon starts a fake daemon issuing sessionID and closes it when the test ends.
func NewDaemon(t *testing.T, sessionID string) *Daemon {
	t.Helper()

	d := &Daemon{sessionID: sessionID, handlers: make(map[string]DaemonHandler)}
	d.Server = httptest.NewServer(http.HandlerFunc(d.serve))
	t.Cleanup(d.Server.Close)
	return d
}

// URL returns the RPC endpoint.
func (d *Daemon) URL() string { return d.Server.URL + "/transmission/rpc" }

// Handle registers fn for method.
func (d *Daemon) Handle(method string, fn DaemonHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[method] = fn
}

// Reply registers a handler answering method with "success" and arguments.
func (d *Daemon) Reply(method string, arguments any) {
	d.Handle(method, func(json.RawMessage) (string, any) { return "success", arguments })
}

// RotateSession makes the daemon expect id from now on.
func (d *Daemon) RotateSession(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessionID = id
}

// AlwaysConflict makes every request receive 409 with a fresh session id.
func (d *Daemon) AlwaysConflict() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.alwaysConflict = true
}

// RequireAuth makes the daemon answer 401 unless basic auth matches.
func (d *Daemon) RequireAuth(username, password string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.username, d.password = username, password
}

// Requests returns every request received, including rejected ones.
func (d *Daemon) Requests() []DaemonRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DaemonRequest(nil), d.requests...)
}

// Calls returns the accepted requests for method.
func (d *Daemon) Calls(method string) []DaemonRequest {
	d.mu.Lock()
	defer d.mu.Unlock()

	var calls []DaemonRequest
	for _, r := range d.requests {
		if r.Method == method && r.SessionID == d.sessionID {
			calls = append(calls, r)
		}
	}
	return calls
}

func (d *Daemon) serve(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Method    string          `json:"method"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	d.mu.Lock()
	d.requests = append(d.requests, DaemonRequest{
		Method:    body.Method,
		SessionID: r.Header.Get(sessionHeader),
		Arguments: body.Arguments,
	})

	if d.username != "" {
		user, pass, ok := r.BasicAuth()
		if !ok || user != d.username || pass != d.password {
			d.mu.Unlock()
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	if d.alwaysConflict {
		d.rotations++
		d.sessionID = fmt.Sprintf("session-%d", d.rotations)
	}
	if d.alwaysConflict || r.Header.Get(sessionHeader) != d.sessionID {
		w.Header().Set(sessionHeader, d.sessionID)
		d.mu.Unlock()
		w.WriteHeader(http.StatusConflict)
		return
	}

	handler, ok := d.handlers[body.Method]
	d.mu.Unlock()

	result, arguments := "method name not recognized", any(map[string]any{})
	if ok {
		result, arguments = handler(body.Arguments)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"result": result, "arguments": arguments})
}
