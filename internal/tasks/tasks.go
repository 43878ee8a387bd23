package tasks

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/trx/internal/shared"
	"github.com/desertthunder/trx/internal/transmission"
	"golang.org/x/time/rate"
)

// DefaultRateLimit is the default number of RPC calls per second.
const DefaultRateLimit = 5.0

// TorrentAPI is the part of [transmission.Client] used by the engine.
type TorrentAPI interface {
	SetTrackers(ctx context.Context, ids []int, announces []string) error
	AddTorrent(ctx context.Context, opts transmission.AddTorrentOptions) (*transmission.AddResult, error)
	AddTorrentFile(ctx context.Context, path string, opts transmission.AddTorrentOptions) (*transmission.AddResult, error)
}

// Engine runs multi-torrent operations.
type Engine struct {
	api TorrentAPI
}

// NewEngine creates a new [Engine] calling api.
func NewEngine(api TorrentAPI) *Engine {
	return &Engine{api: api}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		rps = DefaultRateLimit
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// TrackerResult is the outcome of one torrent in a tracker replacement.
type TrackerResult struct {
	ID        int
	Name      string
	Announces []string // tracker list sent to the daemon
	Error     error
}

// ReplaceResult summarizes a tracker replacement.
type ReplaceResult struct {
	From, To string
	Matched  int
	Updated  int
	Failed   int
	Results  []TrackerResult
}

// ReplaceTrackerOpts configures [Engine.ReplaceTracker].
type ReplaceTrackerOpts struct {
	RateLimit float64 // calls per second, defaults to [DefaultRateLimit]
}

// ReplaceTracker replaces the announce URL from with to on every torrent announcing from.
//
// Each torrent keeps its tracker order; if to is already present the duplicate is dropped.
// A failed torrent does not stop the others.
func (e *Engine) ReplaceTracker(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	torrents []transmission.Torrent,
	from, to string,
	opts ReplaceTrackerOpts,
) (*ReplaceResult, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return nil, fmt.Errorf("%w: both tracker URLs are required", shared.ErrMissingArgument)
	}

	var targets []transmission.Torrent
	for _, t := range torrents {
		if t.AnnouncesTo(from) {
			targets = append(targets, t)
		}
	}

	result := &ReplaceResult{From: from, To: to, Matched: len(targets), Results: make([]TrackerResult, 0, len(targets))}
	e.sendProgress(prog, selectedTorrentsUpdate(len(targets), len(torrents), from))

	limiter := newLimiter(opts.RateLimit)
	for i, t := range targets {
		if err := limiter.Wait(ctx); err != nil {
			return result, fmt.Errorf("tracker replacement interrupted: %w", err)
		}

		res := TrackerResult{ID: t.ID, Name: t.Name, Announces: ReplaceAnnounce(t.Announces(), from, to)}
		if err := e.api.SetTrackers(ctx, []int{t.ID}, res.Announces); err != nil {
			res.Error = err
			result.Failed++
		} else {
			result.Updated++
		}
		result.Results = append(result.Results, res)
		e.sendProgress(prog, trackerReplacedUpdate(i+1, len(targets), res))
	}

	return result, nil
}

// ReplaceAnnounce returns announces with from replaced by to, keeping order and dropping duplicates.
func ReplaceAnnounce(announces []string, from, to string) []string {
	out := make([]string, 0, len(announces))
	for _, a := range announces {
		if strings.EqualFold(a, from) {
			a = to
		}
		if a == "" || slices.Contains(out, a) {
			continue
		}
		out = append(out, a)
	}
	return out
}
