package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/trx/internal/shared"
	"github.com/desertthunder/trx/internal/transmission"
	"golang.org/x/time/rate"
)

// BulkAddOpts contains configuration for bulk torrent adds.
type BulkAddOpts struct {
	NumWorkers int                            // Concurrent workers (default: 3, max: 10)
	RateLimit  float64                        // Requests per second (default: 5)
	Add        transmission.AddTorrentOptions // Applied to every source; Filename and Metainfo are ignored
}

// AddSourceResult is the outcome of adding one source.
type AddSourceResult struct {
	Source    string
	ID        int
	Name      string
	Duplicate bool
	Error     error
}

// BulkAddResult summarizes a bulk add.
type BulkAddResult struct {
	Total      int
	Added      int
	Duplicates int
	Failed     int
	Results    []AddSourceResult // in input order
}

type addJob struct {
	index  int
	source string
}

// IsRemoteSource reports whether source is a magnet link or URL rather than a local path.
func IsRemoteSource(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "magnet:") || strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// BulkAdd adds sources concurrently with rate limiting and progress tracking.
//
// Magnet links and URLs are passed as filename; anything else is read as a .torrent file.
func (e *Engine) BulkAdd(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	sources []string,
	opts BulkAddOpts,
) (*BulkAddResult, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no sources given", shared.ErrMissingArgument)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	opts.Add.Filename, opts.Add.Metainfo = "", ""

	result := &BulkAddResult{
		Total:   len(sources),
		Results: make([]AddSourceResult, len(sources)),
	}

	limiter := newLimiter(opts.RateLimit)
	jobs := make(chan addJob, len(sources))
	results := make(chan addJob, len(sources))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.addWorker(ctx, &wg, limiter, jobs, results, result.Results, opts.Add)
	}

	go func() {
		defer close(jobs)
		for i, source := range sources {
			select {
			case <-ctx.Done():
				return
			case jobs <- addJob{index: i, source: source}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for job := range results {
		completed++
		res := result.Results[job.index]
		switch {
		case res.Error != nil:
			result.Failed++
		case res.Duplicate:
			result.Duplicates++
		default:
			result.Added++
		}
		e.sendProgress(prog, torrentAddedUpdate(completed, len(sources), res))
	}

	if err := ctx.Err(); err != nil {
		for i := range result.Results {
			if result.Results[i].Source == "" {
				result.Results[i] = AddSourceResult{Source: sources[i], Error: err}
				result.Failed++
			}
		}
		return result, fmt.Errorf("bulk add interrupted: %w", err)
	}
	return result, nil
}

// addWorker adds sources from the jobs channel, writing each outcome at its input index.
func (e *Engine) addWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan addJob,
	done chan<- addJob,
	out []AddSourceResult,
	opts transmission.AddTorrentOptions,
) {
	defer wg.Done()

	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		out[job.index] = e.addOne(ctx, job.source, opts)
		done <- job
	}
}

func (e *Engine) addOne(ctx context.Context, source string, opts transmission.AddTorrentOptions) AddSourceResult {
	res := AddSourceResult{Source: source}

	var (
		added *transmission.AddResult
		err   error
	)
	if IsRemoteSource(source) {
		opts.Filename = source
		added, err = e.api.AddTorrent(ctx, opts)
	} else {
		added, err = e.api.AddTorrentFile(ctx, source, opts)
	}
	if err != nil {
		res.Error = err
		return res
	}

	res.ID = added.Torrent.ID
	res.Name = added.Torrent.Name
	res.Duplicate = added.Duplicate
	return res
}
