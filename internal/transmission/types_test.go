package transmission

import (
	"errors"
	"testing"

	"github.com/desertthunder/trx/internal/shared"
)

func TestTorrent(t *testing.T) {
	t.Run("progress while checking", func(t *testing.T) {
		torrent := Torrent{Status: StatusChecking, PercentDone: 1, RecheckProgress: 0.25}
		if got := torrent.Progress(); got != 0.25 {
			t.Errorf("expected 0.25, got %v", got)
		}
		torrent.Status = StatusSeeding
		if got := torrent.Progress(); got != 1 {
			t.Errorf("expected 1, got %v", got)
		}
	})

	t.Run("peer counts sum trackers", func(t *testing.T) {
		torrent := Torrent{TrackerStats: []TrackerStats{
			{LeecherCount: 3, SeederCount: 10},
			{LeecherCount: 2, SeederCount: 5},
		}}
		if torrent.DownloadPeers() != 5 {
			t.Errorf("expected 5 leechers, got %d", torrent.DownloadPeers())
		}
		if torrent.UploadPeers() != 15 {
			t.Errorf("expected 15 seeders, got %d", torrent.UploadPeers())
		}
	})

	t.Run("warning", func(t *testing.T) {
		tests := []struct {
			name    string
			torrent Torrent
			want    bool
		}{
			{"no trackers", Torrent{}, false},
			{"announce ok", Torrent{TrackerStats: []TrackerStats{{LastAnnounceSucceeded: true}}}, false},
			{"announce failed", Torrent{TrackerStats: []TrackerStats{{LastAnnounceSucceeded: false}}}, true},
			{"error wins", Torrent{Error: 2, TrackerStats: []TrackerStats{{}}}, false},
			{"only first tracker counts", Torrent{TrackerStats: []TrackerStats{{LastAnnounceSucceeded: true}, {}}}, false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := tt.torrent.HasWarning(); got != tt.want {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			})
		}
	})

	t.Run("announces", func(t *testing.T) {
		torrent := Torrent{TrackerStats: []TrackerStats{{Announce: "http://a/announce", Host: "a"}, {Announce: "http://b/announce"}}}
		if torrent.TrackerHost() != "a" {
			t.Errorf("expected host a, got %q", torrent.TrackerHost())
		}
		if !torrent.AnnouncesTo("HTTP://B/announce") {
			t.Error("expected case-insensitive announce match")
		}
		if got := torrent.Announces(); len(got) != 2 || got[1] != "http://b/announce" {
			t.Errorf("unexpected announces %v", got)
		}
	})

	t.Run("status names", func(t *testing.T) {
		if StatusSeeding.String() != "Seeding" || Status(42).String() != "Unknown" {
			t.Error("unexpected status names")
		}
	})
}

func TestLabels(t *testing.T) {
	t.Run("parse", func(t *testing.T) {
		tests := []struct {
			raw  string
			want Label
			ok   bool
		}{
			{`{"text":"linux","color":"#fff"}`, Label{Text: "linux", Color: "#fff"}, true},
			{"movies", Label{Text: "movies"}, true},
			{`{"color":"#fff"}`, Label{Text: `{"color":"#fff"}`}, true},
			{"{broken", Label{Text: "{broken"}, true},
			{"  ", Label{}, false},
		}

		for _, tt := range tests {
			got, ok := ParseLabel(tt.raw)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseLabel(%q) = %+v, %v; want %+v, %v", tt.raw, got, ok, tt.want, tt.ok)
			}
		}
	})

	t.Run("encode output parses back", func(t *testing.T) {
		l := Label{Text: "tv", Color: "red"}
		got, ok := ParseLabel(EncodeLabel(l))
		if !ok || got != l {
			t.Errorf("expected %+v, got %+v", l, got)
		}
	})

	t.Run("parse skips blanks", func(t *testing.T) {
		labels := ParseLabels([]string{"a", "", `{"text":"b"}`})
		if len(labels) != 2 || labels[1].Text != "b" {
			t.Errorf("unexpected labels %+v", labels)
		}
	})
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"0", StatusStopped},
		{"6", StatusSeeding},
		{"downloading", StatusDownloading},
		{"Queued to seed", StatusSeedWait},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.raw)
		if err != nil || got != tt.want {
			t.Errorf("ParseStatus(%q) = %v, %v; want %v", tt.raw, got, err, tt.want)
		}
	}

	for _, raw := range []string{"7", "-1", "paused", ""} {
		if _, err := ParseStatus(raw); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("ParseStatus(%q): expected ErrInvalidArgument, got %v", raw, err)
		}
	}
}
