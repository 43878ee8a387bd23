package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// RPC errors
	ErrUnauthorized    = fmt.Errorf("rpc credentials rejected")
	ErrSessionConflict = fmt.Errorf("session id rejected")
	ErrTimeout         = fmt.Errorf("operation timed out")
	ErrAPIRequest      = fmt.Errorf("API request failed")

	// Daemon errors
	ErrTorrentNotFound    = fmt.Errorf("torrent not found")
	ErrNoTorrentsSelected = fmt.Errorf("no torrents selected")
	ErrSampleNotFound     = fmt.Errorf("stats sample not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
