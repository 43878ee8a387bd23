package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/trx/internal/shared"
	"github.com/desertthunder/trx/internal/transmission"
)

type mockAPI struct {
	mu          sync.Mutex
	trackerSets map[int][]string
	setErr      map[int]error
	added       []string
	files       []string
	duplicates  map[string]bool
	addErr      map[string]error
}

func newMockAPI() *mockAPI {
	return &mockAPI{
		trackerSets: make(map[int][]string),
		setErr:      make(map[int]error),
		duplicates:  make(map[string]bool),
		addErr:      make(map[string]error),
	}
}

func (m *mockAPI) SetTrackers(ctx context.Context, ids []int, announces []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.setErr[ids[0]]; err != nil {
		return err
	}
	m.trackerSets[ids[0]] = announces
	return nil
}

func (m *mockAPI) AddTorrent(ctx context.Context, opts transmission.AddTorrentOptions) (*transmission.AddResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, opts.Filename)
	return m.result(opts.Filename)
}

func (m *mockAPI) AddTorrentFile(ctx context.Context, path string, opts transmission.AddTorrentOptions) (*transmission.AddResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = append(m.files, path)
	return m.result(path)
}

func (m *mockAPI) result(source string) (*transmission.AddResult, error) {
	if err := m.addErr[source]; err != nil {
		return nil, err
	}
	return &transmission.AddResult{
		Torrent:   transmission.AddedTorrent{ID: len(m.added) + len(m.files), Name: "name:" + source},
		Duplicate: m.duplicates[source],
	}, nil
}

func torrentWith(id int, announces ...string) transmission.Torrent {
	t := transmission.Torrent{ID: id, Name: fmt.Sprintf("torrent-%d", id)}
	for _, a := range announces {
		t.TrackerStats = append(t.TrackerStats, transmission.TrackerStats{Announce: a})
	}
	return t
}

func TestReplaceAnnounce(t *testing.T) {
	tests := []struct {
		name      string
		announces []string
		want      []string
	}{
		{"keeps order", []string{"a", "old", "b"}, []string{"a", "new", "b"}},
		{"drops duplicate", []string{"old", "new", "b"}, []string{"new", "b"}},
		{"case insensitive match", []string{"OLD"}, []string{"new"}},
		{"untouched", []string{"a", "b"}, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReplaceAnnounce(tt.announces, "old", "new")
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestReplaceTracker(t *testing.T) {
	t.Run("updates matching torrents only", func(t *testing.T) {
		api := newMockAPI()
		engine := NewEngine(api)
		torrents := []transmission.Torrent{
			torrentWith(1, "http://old/announce", "http://backup/announce"),
			torrentWith(2, "http://other/announce"),
			torrentWith(3, "http://old/announce"),
		}

		prog := make(chan ProgressUpdate, 10)
		res, err := engine.ReplaceTracker(context.Background(), prog, torrents, "http://old/announce", "http://new/announce", ReplaceTrackerOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if res.Matched != 2 || res.Updated != 2 || res.Failed != 0 {
			t.Errorf("unexpected result %+v", res)
		}
		if got := strings.Join(api.trackerSets[1], ","); got != "http://new/announce,http://backup/announce" {
			t.Errorf("unexpected tracker list %s", got)
		}
		if _, ok := api.trackerSets[2]; ok {
			t.Error("torrent 2 should not be updated")
		}

		close(prog)
		var phases []Phase
		for u := range prog {
			phases = append(phases, u.Phase)
		}
		if len(phases) != 3 || phases[0] != SelectTorrents || phases[2] != ReplaceTrackers {
			t.Errorf("unexpected progress phases %v", phases)
		}
	})

	t.Run("failures are reported per torrent", func(t *testing.T) {
		api := newMockAPI()
		api.setErr[1] = errors.New("rpc torrent-set: invalid tracker list")

		torrents := []transmission.Torrent{torrentWith(1, "old"), torrentWith(2, "old")}
		res, err := NewEngine(api).ReplaceTracker(context.Background(), nil, torrents, "old", "new", ReplaceTrackerOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Failed != 1 || res.Updated != 1 {
			t.Errorf("unexpected result %+v", res)
		}
		if res.Results[0].Error == nil {
			t.Error("expected error on first result")
		}
	})

	t.Run("requires both urls", func(t *testing.T) {
		_, err := NewEngine(newMockAPI()).ReplaceTracker(context.Background(), nil, nil, " ", "new", ReplaceTrackerOpts{})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		torrents := []transmission.Torrent{torrentWith(1, "old")}
		res, err := NewEngine(newMockAPI()).ReplaceTracker(ctx, nil, torrents, "old", "new", ReplaceTrackerOpts{})
		if err == nil {
			t.Fatal("expected error")
		}
		if res == nil || res.Updated != 0 {
			t.Errorf("expected partial result without updates, got %+v", res)
		}
	})

	t.Run("full progress channel does not block", func(t *testing.T) {
		prog := make(chan ProgressUpdate)
		torrents := []transmission.Torrent{torrentWith(1, "old"), torrentWith(2, "old")}
		res, err := NewEngine(newMockAPI()).ReplaceTracker(context.Background(), prog, torrents, "old", "new", ReplaceTrackerOpts{RateLimit: 1000})
		if err != nil || res.Updated != 2 {
			t.Errorf("expected success, got %+v %v", res, err)
		}
	})
}

func TestBulkAdd(t *testing.T) {
	t.Run("routes sources and keeps input order", func(t *testing.T) {
		api := newMockAPI()
		api.duplicates["magnet:?xt=urn:btih:dup"] = true
		api.addErr["/tmp/broken.torrent"] = errors.New("invalid or corrupt torrent file")

		sources := []string{
			"magnet:?xt=urn:btih:aaa",
			"https://example.com/b.torrent",
			"/tmp/c.torrent",
			"magnet:?xt=urn:btih:dup",
			"/tmp/broken.torrent",
		}

		prog := make(chan ProgressUpdate, len(sources))
		res, err := NewEngine(api).BulkAdd(context.Background(), prog, sources, BulkAddOpts{NumWorkers: 3, RateLimit: 1000})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if res.Total != 5 || res.Added != 3 || res.Duplicates != 1 || res.Failed != 1 {
			t.Errorf("unexpected counts %+v", res)
		}
		for i, r := range res.Results {
			if r.Source != sources[i] {
				t.Errorf("result %d: expected source %s, got %s", i, sources[i], r.Source)
			}
		}
		if len(api.added) != 3 || len(api.files) != 2 {
			t.Errorf("expected 3 remote and 2 file adds, got %d and %d", len(api.added), len(api.files))
		}
		if len(prog) != 5 {
			t.Errorf("expected 5 progress updates, got %d", len(prog))
		}
	})

	t.Run("worker count is clamped", func(t *testing.T) {
		api := newMockAPI()
		res, err := NewEngine(api).BulkAdd(context.Background(), nil, []string{"magnet:?a", "magnet:?b"}, BulkAddOpts{NumWorkers: 50, RateLimit: 1000})
		if err != nil || res.Added != 2 {
			t.Errorf("expected 2 added, got %+v %v", res, err)
		}
	})

	t.Run("no sources", func(t *testing.T) {
		_, err := NewEngine(newMockAPI()).BulkAdd(context.Background(), nil, nil, BulkAddOpts{})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res, err := NewEngine(newMockAPI()).BulkAdd(ctx, nil, []string{"magnet:?a", "magnet:?b"}, BulkAddOpts{})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if res.Failed+res.Added != 2 {
			t.Errorf("expected every source accounted for, got %+v", res)
		}
	})

	t.Run("remote sources", func(t *testing.T) {
		for source, want := range map[string]bool{
			"magnet:?xt=urn:btih:x":   true,
			"HTTPS://example.com/a":   true,
			"http://example.com/a":    true,
			"./downloads/a.torrent":   false,
			"C:\\torrents\\a.torrent": false,
		} {
			if got := IsRemoteSource(source); got != want {
				t.Errorf("IsRemoteSource(%q) = %v, want %v", source, got, want)
			}
		}
	})
}
