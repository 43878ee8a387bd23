// Package server exposes the dashboard JSON API over HTTP.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method and wildcard patterns, so a request with
// the wrong method gets a 405 from the mux itself.
//
// # Dashboard
//
// [Dashboard] answers read requests from the latest poller snapshot and forwards torrent details and actions
// to the daemon client. Routes:
//
//	GET  /health
//	GET  /api/torrents
//	GET  /api/torrents/{id}
//	POST /api/torrents/actions
//	GET  /api/stats
//	GET  /api/session
//	GET  /api/stats/history
//	GET  /metrics
//
// Errors are written as {"error": "..."} with a status derived from the shared sentinel errors.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// [MetricsHandler] is registered this way.
package server
