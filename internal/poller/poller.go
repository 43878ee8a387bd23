// package poller keeps a periodically refreshed snapshot of the daemon state.
package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trx/internal/transmission"
)

const (
	// DefaultInterval is the polling period when none is configured.
	DefaultInterval = 5 * time.Second
	// MinInterval is the shortest accepted polling period.
	MinInterval = time.Second
)

// Fetcher reads the daemon state. Implemented by [transmission.Client].
type Fetcher interface {
	GetTorrents(ctx context.Context, opts transmission.GetTorrentsOptions) ([]transmission.Torrent, error)
	SessionStats(ctx context.Context) (*transmission.SessionStats, error)
	Session(ctx context.Context) (*transmission.Session, error)
	FreeSpace(ctx context.Context, path string) (*transmission.FreeSpace, error)
}

// Recorder receives every snapshot whose session stats were fetched in that round.
type Recorder interface {
	Record(ctx context.Context, s Snapshot) error
}

// Snapshot is the result of one polling round.
//
// Fields whose fetch failed keep the value of the previous round, and Err joins the failures.
type Snapshot struct {
	Sequence  uint64
	Torrents  []transmission.Torrent
	Stats     *transmission.SessionStats
	Session   *transmission.Session
	FreeSpace *transmission.FreeSpace
	FetchedAt time.Time
	Err       error
}

// Options configures a [Poller].
type Options struct {
	Interval time.Duration
	Recorder Recorder
	Logger   *log.Logger
}

// Poller fetches the daemon state on an interval.
type Poller struct {
	fetcher  Fetcher
	recorder Recorder
	logger   *log.Logger

	mu       sync.RWMutex
	interval time.Duration
	latest   *Snapshot
	sequence uint64

	updates chan Snapshot
	reset   chan time.Duration
}

// New creates a new [Poller] reading from f.
func New(f Fetcher, opts Options) *Poller {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Interval == 0 {
		opts.Interval = DefaultInterval
	}

	return &Poller{
		fetcher:  f,
		recorder: opts.Recorder,
		logger:   logger,
		interval: clampInterval(opts.Interval),
		updates:  make(chan Snapshot, 1),
		reset:    make(chan time.Duration, 1),
	}
}

func clampInterval(d time.Duration) time.Duration {
	return max(d, MinInterval)
}

// Interval returns the current polling period.
func (p *Poller) Interval() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.interval
}

// SetInterval changes the polling period, taking effect on a running poller at the next tick.
func (p *Poller) SetInterval(d time.Duration) {
	d = clampInterval(d)

	p.mu.Lock()
	p.interval = d
	p.mu.Unlock()

	select {
	case <-p.reset:
	default:
	}
	select {
	case p.reset <- d:
	default:
	}
}

// Updates delivers snapshots as they are taken. A slow reader only sees the newest one.
func (p *Poller) Updates() <-chan Snapshot { return p.updates }

// Latest returns the most recent snapshot. ok is false before the first round.
func (p *Poller) Latest() (Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.latest == nil {
		return Snapshot{}, false
	}
	return *p.latest, true
}

// Run polls immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	p.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d := <-p.reset:
			ticker.Reset(d)
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll performs one round, stores it as the latest snapshot and publishes it.
func (p *Poller) Poll(ctx context.Context) Snapshot {
	prev, _ := p.Latest()
	snap := Snapshot{
		Torrents:  prev.Torrents,
		Stats:     prev.Stats,
		Session:   prev.Session,
		FreeSpace: prev.FreeSpace,
	}

	var errs []error
	if torrents, err := p.fetcher.GetTorrents(ctx, transmission.GetTorrentsOptions{}); err != nil {
		errs = append(errs, fmt.Errorf("failed to fetch torrents: %w", err))
	} else {
		snap.Torrents = torrents
	}

	fresh := false
	if stats, err := p.fetcher.SessionStats(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to fetch session stats: %w", err))
	} else {
		snap.Stats = stats
		fresh = true
	}

	if session, err := p.fetcher.Session(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to fetch session: %w", err))
	} else {
		snap.Session = session
	}

	if snap.Session != nil && snap.Session.DownloadDir != "" {
		if fs, err := p.fetcher.FreeSpace(ctx, snap.Session.DownloadDir); err != nil {
			errs = append(errs, fmt.Errorf("failed to fetch free space: %w", err))
		} else {
			snap.FreeSpace = fs
		}
	}

	snap.Err = errors.Join(errs...)
	snap.FetchedAt = time.Now()
	if snap.Err != nil {
		p.logger.Warn("poll failed", "error", snap.Err)
	} else {
		p.logger.Debug("polled", "torrents", len(snap.Torrents))
	}

	p.mu.Lock()
	p.sequence++
	snap.Sequence = p.sequence
	p.latest = &snap
	p.mu.Unlock()

	if p.recorder != nil && fresh {
		if err := p.recorder.Record(ctx, snap); err != nil {
			p.logger.Warn("failed to record stats", "error", err)
		}
	}

	p.publish(snap)
	return snap
}

func (p *Poller) publish(s Snapshot) {
	select {
	case p.updates <- s:
		return
	default:
	}

	select {
	case <-p.updates:
	default:
	}

	select {
	case p.updates <- s:
	default:
	}
}
