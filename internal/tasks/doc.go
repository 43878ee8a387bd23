// Package tasks runs multi-torrent operations against the daemon with real-time progress reporting.
//
// # Core Operations
//
//  1. [Engine.ReplaceTracker] : swap one announce URL for another
//     - Selects the torrents announcing the old URL
//     - Sends each one its tracker list with the URL replaced, order kept
//     - Reports a result per torrent
//
//  2. [Engine.BulkAdd] : add many magnet links, URLs or .torrent files
//     - Runs a bounded worker pool
//     - Reports added, duplicate and failed sources
//
// Both operations wait on a [rate.Limiter] before each RPC call.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default so a slow reader never blocks an operation.
package tasks
