package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trx/internal/poller"
	"github.com/desertthunder/trx/internal/rpc"
	"github.com/desertthunder/trx/internal/shared"
	tu "github.com/desertthunder/trx/internal/testing"
	"github.com/desertthunder/trx/internal/transmission"
)

type testCLI struct {
	daemon *tu.Daemon
	out    *bytes.Buffer
	logs   *bytes.Buffer
	config string
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()
	return &testCLI{
		daemon: tu.NewDaemon(t, "sid-1"),
		out:    &bytes.Buffer{},
		logs:   &bytes.Buffer{},
		config: filepath.Join(t.TempDir(), "missing.toml"),
	}
}

// run executes trx with global flags pointing at the fake daemon.
func (c *testCLI) run(t *testing.T, args ...string) error {
	t.Helper()
	c.out.Reset()

	r := NewRunner(RunnerOpts{Output: c.out, Logger: log.New(c.logs), Token: &rpc.SessionToken{}})
	base := []string{"trx", "--config", c.config, "--url", c.daemon.URL()}
	return r.app().Run(context.Background(), append(base, args...))
}

func sampleTorrents() []map[string]any {
	return []map[string]any{
		{
			"id": 1, "name": "ubuntu.iso", "status": int(transmission.StatusDownloading), "percentDone": 0.5,
			"totalSize": 4096, "downloadDir": "/data", "trackerStats": []map[string]any{{"host": "tracker.example.org", "announce": "http://tracker.example.org/announce"}},
		},
		{
			"id": 2, "name": "debian.iso", "status": int(transmission.StatusSeeding), "percentDone": 1.0,
			"totalSize": 8192, "downloadDir": "/data", "uploadRatio": 2.5,
		},
		{
			"id": 3, "name": "arch.iso", "status": int(transmission.StatusStopped), "percentDone": 0.1,
			"totalSize": 1024, "downloadDir": "/other",
		},
	}
}

func TestTorrentsCommands(t *testing.T) {
	t.Run("list prints a table with tab counts", func(t *testing.T) {
		c := newTestCLI(t)
		c.daemon.Reply("torrent-get", map[string]any{"torrents": sampleTorrents()})
		c.daemon.Reply("session-get", map[string]any{"download-dir": "/data", "version": "4.0.5"})

		if err := c.run(t, "torrents", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := c.out.String()
		for _, name := range []string{"ubuntu.iso", "debian.iso", "arch.iso"} {
			if !strings.Contains(out, name) {
				t.Errorf("expected %s in output:\n%s", name, out)
			}
		}
		if !strings.Contains(out, "3 of 3 torrents") {
			t.Errorf("expected summary line, got:\n%s", out)
		}
	})

	t.Run("list filters by tab and sorts", func(t *testing.T) {
		c := newTestCLI(t)
		c.daemon.Reply("torrent-get", map[string]any{"torrents": sampleTorrents()})
		c.daemon.Reply("session-get", map[string]any{"download-dir": "/data"})

		if err := c.run(t, "torrents", "list", "--tab", "stopped", "--json", "--pretty=false"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var result struct {
			Torrents []transmission.Torrent `json:"torrents"`
			Total    int                    `json:"total"`
		}
		if err := json.Unmarshal(c.out.Bytes(), &result); err != nil {
			t.Fatalf("failed to decode output: %v\n%s", err, c.out.String())
		}
		if len(result.Torrents) != 1 || result.Torrents[0].Name != "arch.iso" {
			t.Errorf("expected only arch.iso, got %+v", result.Torrents)
		}
	})

	t.Run("list rejects unknown tab", func(t *testing.T) {
		c := newTestCLI(t)
		err := c.run(t, "torrents", "list", "--tab", "sleeping")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("list exports csv", func(t *testing.T) {
		c := newTestCLI(t)
		c.daemon.Reply("torrent-get", map[string]any{"torrents": sampleTorrents()})
		c.daemon.Reply("session-get", map[string]any{"download-dir": "/data"})

		if err := c.run(t, "torrents", "list", "--export", "csv", "--search", "deb"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		lines := strings.Split(strings.TrimSpace(c.out.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected header and one row, got %d lines:\n%s", len(lines), c.out.String())
		}
		if !strings.HasPrefix(lines[0], "ID,Name,Status") || !strings.Contains(lines[1], "debian.iso") {
			t.Errorf("unexpected csv:\n%s", c.out.String())
		}
	})

	t.Run("show prints details", func(t *testing.T) {
		c := newTestCLI(t)
		c.daemon.Reply("torrent-get", map[string]any{"torrents": sampleTorrents()[:1]})

		if err := c.run(t, "torrents", "show", "1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := c.out.String()
		if !strings.Contains(out, "ubuntu.iso") || !strings.Contains(out, "50.0%") {
			t.Errorf("expected details, got:\n%s", out)
		}
	})

	t.Run("show missing torrent", func(t *testing.T) {
		c := newTestCLI(t)
		c.daemon.Reply("torrent-get", map[string]any{"torrents": []any{}})

		err := c.run(t, "torrents", "show", "9")
		if !errors.Is(err, shared.ErrTorrentNotFound) {
			t.Errorf("expected ErrTorrentNotFound, got %v", err)
		}
	})

	t.Run("add magnet", func(t *testing.T) {
		c := newTestCLI(t)
		c.daemon.Reply("torrent-add", map[string]any{
			"torrent-added": map[string]any{"id": 7, "name": "new.iso", "hashString": "abc"},
		})

		err := c.run(t, "torrents", "add", "--paused", "--label", "linux:#00ff00", "magnet:?xt=urn:btih:abc")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(c.out.String(), "added torrent 7: new.iso") {
			t.Errorf("unexpected output %q", c.out.String())
		}

		calls := c.daemon.Calls("torrent-add")
		if len(calls) != 1 {
			t.Fatalf("expected one torrent-add, got %d", len(calls))
		}
		var args transmission.AddTorrentOptions
		json.Unmarshal(calls[0].Arguments, &args)
		if args.Filename != "magnet:?xt=urn:btih:abc" || !args.Paused || len(args.Labels) != 1 {
			t.Errorf("unexpected arguments %s", calls[0].Arguments)
		}
	})

	t.Run("add duplicate", func(t *testing.T) {
		c := newTestCLI(t)
		c.daemon.Reply("torrent-add", map[string]any{
			"torrent-duplicate": map[string]any{"id": 2, "name": "debian.iso"},
		})

		if err := c.run(t, "torrents", "add", "https://example.org/debian.torrent"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(c.out.String(), "already present") {
			t.Errorf("unexpected output %q", c.out.String())
		}
	})

	t.Run("add without source", func(t *testing.T) {
		c := newTestCLI(t)
		err := c.run(t, "torrents", "add")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("start sends ids", func(t *testing.T) {
		c := newTestCLI(t)
		c.daemon.Reply("torrent-start", map[string]any{})

		if err := c.run(t, "torrents", "start", "1,3-4"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		calls := c.daemon.Calls("torrent-start")
		if len(calls) != 1 {
			t.Fatalf("expected one torrent-start, got %d", len(calls))
		}
		var args struct {
			IDs []int `json:"ids"`
		}
		json.Unmarshal(calls[0].Arguments, &args)
		if len(args.IDs) != 3 || args.IDs[0] != 1 || args.IDs[2] != 4 {
			t.Errorf("unexpected ids %v", args.IDs)
		}
		if !strings.Contains(c.out.String(), "start sent for 3 torrent(s)") {
			t.Errorf("unexpected output %q", c.out.String())
		}
	})

	t.Run("stop without ids sends nothing", func(t *testing.T) {
		c := newTestCLI(t)
		err := c.run(t, "torrents", "stop")
		if !errors.Is(err, shared.ErrNoTorrentsSelected) {
			t.Errorf("expected ErrNoTorrentsSelected, got %v", err)
		}
		if len(c.daemon.Requests()) != 0 {
			t.Errorf("expected no requests, got %d", len(c.daemon.Requests()))
		}
	})

	t.Run("remove with data", func(t *testing.T) {
		c := newTestCLI(t)
		c.daemon.Reply("torrent-remove", map[string]any{})

		if err := c.run(t, "torrents", "remove", "--delete-data", "2"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		calls := c.daemon.Calls("torrent-remove")
		if len(calls) != 1 || !strings.Contains(string(calls[0].Arguments), `"delete-local-data":true`) {
			t.Errorf("unexpected calls %+v", calls)
		}
		if !strings.Contains(c.out.String(), "and their data") {
			t.Errorf("unexpected output %q", c.out.String())
		}
	})

	t.Run("label set and clear are exclusive", func(t *testing.T) {
		c := newTestCLI(t)
		err := c.run(t, "torrents", "label", "--set", "a", "--clear", "1")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("label clear", func(t *testing.T) {
		c := newTestCLI(t)
		c.daemon.Reply("torrent-set", map[string]any{})

		if err := c.run(t, "torrents", "label", "--clear", "1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(c.daemon.Calls("torrent-set")) != 1 {
			t.Error("expected one torrent-set")
		}
	})

	t.Run("daemon rejects credentials", func(t *testing.T) {
		c := newTestCLI(t)
		c.daemon.RequireAuth("admin", "secret")
		c.daemon.Reply("torrent-get", map[string]any{"torrents": []any{}})

		err := c.run(t, "--username", "admin", "--password", "wrong", "torrents", "list")
		if !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestSessionCommands(t *testing.T) {
	t.Run("session get", func(t *testing.T) {
		c := newTestCLI(t)
		c.daemon.Reply("session-get", map[string]any{
			"version": "4.0.5", "rpc-version": 17, "download-dir": "/data", "encryption": "preferred",
		})

		if err := c.run(t, "session", "get"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := c.out.String()
		if !strings.Contains(out, "Transmission 4.0.5") || !strings.Contains(out, "/data") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("session set sends only given settings", func(t *testing.T) {
		c := newTestCLI(t)
		c.daemon.Reply("session-set", map[string]any{})

		if err := c.run(t, "session", "set", "--down-limit", "0", "--peer-port", "51413"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		calls := c.daemon.Calls("session-set")
		if len(calls) != 1 {
			t.Fatalf("expected one session-set, got %d", len(calls))
		}
		var args map[string]any
		json.Unmarshal(calls[0].Arguments, &args)
		if args["speed-limit-down-enabled"] != false {
			t.Errorf("expected download limit disabled, got %v", args)
		}
		if args["peer-port"] != float64(51413) {
			t.Errorf("expected peer port, got %v", args)
		}
		if _, ok := args["speed-limit-down"]; ok {
			t.Errorf("expected no speed-limit-down, got %v", args)
		}
		if _, ok := args["download-dir"]; ok {
			t.Errorf("expected no download-dir, got %v", args)
		}
	})

	t.Run("session set rejects bad encryption", func(t *testing.T) {
		c := newTestCLI(t)
		err := c.run(t, "session", "set", "--encryption", "sometimes")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("stats", func(t *testing.T) {
		c := newTestCLI(t)
		c.daemon.Reply("session-stats", map[string]any{
			"torrentCount": 3, "activeTorrentCount": 1, "pausedTorrentCount": 1,
			"downloadSpeed": 2048, "uploadSpeed": 0,
			"current-stats": map[string]any{"downloadedBytes": 1024, "sessionCount": 1},
		})

		if err := c.run(t, "stats"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := c.out.String()
		if !strings.Contains(out, "3 (1 active, 1 paused)") || !strings.Contains(out, "2.0 KiB/s") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("free space defaults to the session download dir", func(t *testing.T) {
		c := newTestCLI(t)
		c.daemon.Reply("session-get", map[string]any{"download-dir": "/data"})
		c.daemon.Reply("free-space", map[string]any{"path": "/data", "size-bytes": 1 << 30})

		if err := c.run(t, "free-space"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(c.out.String(), "/data: 1.0 GiB free") {
			t.Errorf("unexpected output %q", c.out.String())
		}
		calls := c.daemon.Calls("free-space")
		if len(calls) != 1 || !strings.Contains(string(calls[0].Arguments), `"/data"`) {
			t.Errorf("unexpected calls %+v", calls)
		}
	})

	t.Run("port test", func(t *testing.T) {
		c := newTestCLI(t)
		c.daemon.Reply("port-test", map[string]any{"port-is-open": true})

		if err := c.run(t, "port-test"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(c.out.String(), "peer port is open") {
			t.Errorf("unexpected output %q", c.out.String())
		}
	})
}

func TestRPCCommand(t *testing.T) {
	t.Run("prints the raw response", func(t *testing.T) {
		c := newTestCLI(t)
		c.daemon.Reply("session-get", map[string]any{"version": "4.0.5"})

		if err := c.run(t, "rpc", "--pretty=false", "--args", `{"fields":["version"]}`, "session-get"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if strings.TrimSpace(c.out.String()) != `{"result":"success","arguments":{"version":"4.0.5"}}` {
			t.Errorf("unexpected output %q", c.out.String())
		}
		if len(c.daemon.Requests()) != 2 {
			t.Errorf("expected the 409 handshake and one retry, got %d requests", len(c.daemon.Requests()))
		}
	})

	t.Run("unknown method returns a protocol error", func(t *testing.T) {
		c := newTestCLI(t)

		err := c.run(t, "rpc", "no-such-method")
		var protoErr *rpc.ProtocolError
		if !errors.As(err, &protoErr) {
			t.Fatalf("expected ProtocolError, got %v", err)
		}
		if protoErr.Result != "method name not recognized" {
			t.Errorf("unexpected result %q", protoErr.Result)
		}
		if !strings.Contains(c.out.String(), "method name not recognized") {
			t.Errorf("expected the response to be printed, got %q", c.out.String())
		}
	})

	t.Run("rejects invalid args", func(t *testing.T) {
		c := newTestCLI(t)
		err := c.run(t, "rpc", "--args", "{nope", "session-get")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("requires a method", func(t *testing.T) {
		c := newTestCLI(t)
		err := c.run(t, "rpc")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("setup config writes the template", func(t *testing.T) {
		c := newTestCLI(t)

		if err := c.run(t, "setup", "config"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, c.config)
		if !strings.Contains(tu.MustReadFile(t, c.config), "[rpc]") {
			t.Error("expected the config template")
		}
		if !strings.Contains(c.out.String(), "Next steps:") {
			t.Errorf("unexpected output %q", c.out.String())
		}

		if err := c.run(t, "setup", "config"); err == nil {
			t.Error("expected error when the config already exists")
		}
	})

	t.Run("setup database runs migrations", func(t *testing.T) {
		c := newTestCLI(t)
		dbPath := filepath.Join(t.TempDir(), "trx.db")
		t.Setenv("TRX_DATABASE_PATH", dbPath)

		if err := c.run(t, "setup", "database"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, dbPath)
		if !strings.Contains(c.out.String(), "ready") {
			t.Errorf("unexpected output %q", c.out.String())
		}

		if err := c.run(t, "setup", "database"); err != nil {
			t.Fatalf("expected rerun to succeed, got %v", err)
		}
		if !strings.Contains(c.out.String(), "0 migration(s) applied") {
			t.Errorf("expected no pending migrations, got %q", c.out.String())
		}
	})
}

func TestWatchAndHistory(t *testing.T) {
	replyAll := func(d *tu.Daemon) {
		d.Reply("torrent-get", map[string]any{"torrents": sampleTorrents()})
		d.Reply("session-get", map[string]any{"download-dir": "/data"})
		d.Reply("session-stats", map[string]any{
			"torrentCount": 3, "activeTorrentCount": 1, "downloadSpeed": 1024, "uploadSpeed": 512,
		})
		d.Reply("free-space", map[string]any{"path": "/data", "size-bytes": 2048})
	}

	t.Run("history is empty before recording", func(t *testing.T) {
		c := newTestCLI(t)
		t.Setenv("TRX_DATABASE_PATH", filepath.Join(t.TempDir(), "trx.db"))

		if err := c.run(t, "history"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(c.out.String(), "no samples recorded yet") {
			t.Errorf("unexpected output %q", c.out.String())
		}
	})

	t.Run("watch prints one round then history shows the sample", func(t *testing.T) {
		c := newTestCLI(t)
		replyAll(c.daemon)
		t.Setenv("TRX_DATABASE_PATH", filepath.Join(t.TempDir(), "trx.db"))

		if err := c.run(t, "watch", "--count", "1", "--record"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := c.out.String()
		if !strings.Contains(out, "1.0 KiB/s") || !strings.Contains(out, "1/3 active") {
			t.Errorf("unexpected summary %q", out)
		}

		if err := c.run(t, "history", "--format", "csv"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		lines := strings.Split(strings.TrimSpace(c.out.String()), "\n")
		if len(lines) != 2 {
			t.Errorf("expected header and one sample, got:\n%s", c.out.String())
		}
	})

	t.Run("history rejects unknown format", func(t *testing.T) {
		c := newTestCLI(t)
		t.Setenv("TRX_DATABASE_PATH", filepath.Join(t.TempDir(), "trx.db"))

		err := c.run(t, "history", "--format", "xml")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []int
		wantErr error
	}{
		{"single", []string{"4"}, []int{4}, nil},
		{"separate args", []string{"1", "2"}, []int{1, 2}, nil},
		{"comma list", []string{"1,2, 3"}, []int{1, 2, 3}, nil},
		{"range", []string{"3-5"}, []int{3, 4, 5}, nil},
		{"dedup", []string{"2", "1-3"}, []int{2, 1, 3}, nil},
		{"empty", nil, nil, shared.ErrNoTorrentsSelected},
		{"blank parts", []string{" , "}, nil, shared.ErrNoTorrentsSelected},
		{"not a number", []string{"abc"}, nil, shared.ErrInvalidArgument},
		{"zero", []string{"0"}, nil, shared.ErrInvalidArgument},
		{"backwards range", []string{"5-3"}, nil, shared.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIDs(tt.args)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestParseLabel(t *testing.T) {
	t.Run("text only", func(t *testing.T) {
		l, err := parseLabel("linux")
		if err != nil || l.Text != "linux" || l.Color != "" {
			t.Errorf("unexpected label %+v, %v", l, err)
		}
	})

	t.Run("text with color", func(t *testing.T) {
		l, err := parseLabel("movies:#ff0000")
		if err != nil || l.Text != "movies" || l.Color != "#ff0000" {
			t.Errorf("unexpected label %+v, %v", l, err)
		}
	})

	t.Run("colon inside text", func(t *testing.T) {
		l, err := parseLabel("a:b")
		if err != nil || l.Text != "a:b" {
			t.Errorf("unexpected label %+v, %v", l, err)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		if _, err := parseLabel(":#fff"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestServeWithPoller(t *testing.T) {
	t.Run("returns after the poller has stopped", func(t *testing.T) {
		d := tu.NewDaemon(t, "sid-1")
		polled := make(chan struct{})
		var once sync.Once
		d.Handle("torrent-get", func(json.RawMessage) (string, any) {
			once.Do(func() { close(polled) })
			return "success", map[string]any{"torrents": []any{}}
		})

		config := shared.DefaultConfig()
		config.RPC.URL = d.URL()
		r := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}, Logger: log.New(&bytes.Buffer{}), Token: &rpc.SessionToken{}})
		p := poller.New(r.client, poller.Options{Interval: time.Hour})

		err := r.serveWithPoller(context.Background(), p, func(ctx context.Context) error {
			<-polled
			return nil
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := p.Latest(); !ok {
			t.Error("expected the in-flight round to finish before returning")
		}
	})

	t.Run("returns the serve error", func(t *testing.T) {
		d := tu.NewDaemon(t, "sid-1")
		config := shared.DefaultConfig()
		config.RPC.URL = d.URL()
		r := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}, Logger: log.New(&bytes.Buffer{}), Token: &rpc.SessionToken{}})
		p := poller.New(r.client, poller.Options{Interval: time.Hour})

		boom := errors.New("address in use")
		err := r.serveWithPoller(context.Background(), p, func(context.Context) error { return boom })
		if !errors.Is(err, boom) {
			t.Errorf("expected serve error, got %v", err)
		}
	})
}
