package torrents

import (
	"slices"
	"strings"

	"github.com/desertthunder/trx/internal/transmission"
)

// DefaultPageSize is used when a query does not set one.
const DefaultPageSize = 50

// Query describes one table view.
type Query struct {
	Tab        Tab
	Filters    Filters
	Sort       *Sort  // nil uses [DefaultSort]
	Page       int    // zero-based
	Size       int    // rows per page, defaults to [DefaultPageSize]
	SessionDir string // daemon download dir, always offered as a path facet
}

// Facets are the distinct values available to the column filters.
type Facets struct {
	Paths     []string             `json:"paths"`
	Trackers  []string             `json:"trackers"`
	Announces []string             `json:"announces"`
	Labels    []transmission.Label `json:"labels"`
}

// Result is one page of the table.
type Result struct {
	Torrents []transmission.Torrent `json:"torrents"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	Size     int                    `json:"size"`
	Pages    int                    `json:"pages"`
	Counts   map[Tab]int            `json:"counts"`
	Facets   Facets                 `json:"facets"`
}

// Apply filters, sorts and pages torrents. The input slice is not modified.
func Apply(torrents []transmission.Torrent, q Query) Result {
	rows := make([]transmission.Torrent, 0, len(torrents))
	for i := range torrents {
		if q.Tab.Match(&torrents[i]) && q.Filters.Match(&torrents[i]) {
			rows = append(rows, torrents[i])
		}
	}

	s := DefaultSort
	if q.Sort != nil {
		s = *q.Sort
	}
	sortTorrents(rows, s)

	page, size, pages := Paginate(len(rows), q.Page, q.Size)
	start := min(page*size, len(rows))
	end := min(start+size, len(rows))

	return Result{
		Torrents: rows[start:end],
		Total:    len(rows),
		Page:     page,
		Size:     size,
		Pages:    pages,
		Counts:   TabCounts(torrents, q.Filters),
		Facets:   BuildFacets(torrents, q.SessionDir),
	}
}

// Paginate clamps page into range and returns the page count for total rows.
func Paginate(total, page, size int) (int, int, int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := max((total+size-1)/size, 1)
	page = min(max(page, 0), pages-1)
	return page, size, pages
}

// TabCounts counts the torrents of each tab that also pass f.
func TabCounts(torrents []transmission.Torrent, f Filters) map[Tab]int {
	counts := make(map[Tab]int, len(Tabs))
	for _, tab := range Tabs {
		counts[tab] = 0
	}
	for i := range torrents {
		if !f.Match(&torrents[i]) {
			continue
		}
		for _, tab := range Tabs {
			if tab.Match(&torrents[i]) {
				counts[tab]++
			}
		}
	}
	return counts
}

// BuildFacets collects the distinct paths, tracker hosts, announce URLs and labels.
//
// Labels are keyed by text; the last color seen wins.
func BuildFacets(torrents []transmission.Torrent, sessionDir string) Facets {
	paths := make(map[string]struct{})
	hosts := make(map[string]struct{})
	announces := make(map[string]struct{})
	labels := make(map[string]transmission.Label)

	if sessionDir != "" {
		paths[sessionDir] = struct{}{}
	}
	for i := range torrents {
		t := &torrents[i]
		if t.DownloadDir != "" {
			paths[t.DownloadDir] = struct{}{}
		}
		for _, ts := range t.TrackerStats {
			if ts.Host != "" {
				hosts[ts.Host] = struct{}{}
			}
			if ts.Announce != "" {
				announces[ts.Announce] = struct{}{}
			}
		}
		for _, l := range t.ParsedLabels() {
			labels[l.Text] = l
		}
	}

	f := Facets{
		Paths:     sortedKeys(paths),
		Trackers:  sortedKeys(hosts),
		Announces: sortedKeys(announces),
		Labels:    make([]transmission.Label, 0, len(labels)),
	}
	for _, l := range labels {
		f.Labels = append(f.Labels, l)
	}
	slices.SortFunc(f.Labels, func(a, b transmission.Label) int { return strings.Compare(a.Text, b.Text) })
	return f
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
