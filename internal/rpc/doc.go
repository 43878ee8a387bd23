// Package rpc implements the session-negotiating client for the Transmission JSON-RPC control API.
//
// # Wire Protocol
//
// Every call is a single HTTP POST to one endpoint with a JSON body
// {"method": ..., "arguments": {...}}. The daemon answers with
// {"result": ..., "arguments": {...}}, where result is "success" or an error string.
//
// # Session Negotiation
//
// The daemon rejects requests that lack a current session id with HTTP 409 and
// returns the id to use in the X-Transmission-Session-Id response header.
// [Client.Send] stores that id in a [SessionToken] and re-submits the original
// request exactly once. A second rejection is surfaced to the caller.
//
// The token cell is process-wide by default ([DefaultSessionToken]) and follows
// last-writer-wins semantics. Refreshes are not serialized: requests in flight
// while the id rotates may each receive a 409, each store the id they were given
// and each retry once.
//
// # Errors
//
//   - [TransportError] : the request never produced an HTTP response (network failure, timeout)
//   - [ProtocolError] : an HTTP status other than 2xx, or a result other than "success"
//
// # Middleware
//
// [Middleware] wraps the exchange, in the manner of an HTTP middleware chain.
// [WithLogging], [WithRateLimit] and [WithMetrics] are provided.
package rpc
