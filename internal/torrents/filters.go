package torrents

import (
	"slices"
	"strings"

	"github.com/desertthunder/trx/internal/transmission"
)

// Filters narrows the table by column values. Empty fields match everything.
type Filters struct {
	Status   *transmission.Status
	Trackers []string // tracker hosts, any match
	Labels   []string // label texts, any match
	Paths    []string // download dirs, exact match
	Name     string   // case-insensitive substring
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return f.Status == nil && len(f.Trackers) == 0 && len(f.Labels) == 0 && len(f.Paths) == 0 && f.Name == ""
}

// Match reports whether t passes every filter.
func (f Filters) Match(t *transmission.Torrent) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}

	if len(f.Trackers) > 0 && !slices.ContainsFunc(t.TrackerStats, func(ts transmission.TrackerStats) bool {
		return slices.Contains(f.Trackers, ts.Host)
	}) {
		return false
	}

	if len(f.Labels) > 0 && !slices.ContainsFunc(t.ParsedLabels(), func(l transmission.Label) bool {
		return slices.Contains(f.Labels, l.Text)
	}) {
		return false
	}

	if len(f.Paths) > 0 && !slices.Contains(f.Paths, t.DownloadDir) {
		return false
	}

	if f.Name != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(f.Name)) {
		return false
	}
	return true
}
