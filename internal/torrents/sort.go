package torrents

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/trx/internal/shared"
	"github.com/desertthunder/trx/internal/transmission"
)

// Column is a sortable table column.
type Column string

const (
	ColumnName          Column = "name"
	ColumnSize          Column = "size"
	ColumnProgress      Column = "progress"
	ColumnETA           Column = "eta"
	ColumnStatus        Column = "status"
	ColumnDownloadRate  Column = "download"
	ColumnUploadRate    Column = "upload"
	ColumnDownloadPeers Column = "download-peers"
	ColumnUploadPeers   Column = "upload-peers"
	ColumnRatio         Column = "ratio"
	ColumnUploaded      Column = "uploaded"
	ColumnTracker       Column = "tracker"
	ColumnAdded         Column = "added"
	ColumnLabels        Column = "labels"
	ColumnPath          Column = "path"
)

var columnTitles = map[Column]string{
	ColumnName:          "Name",
	ColumnSize:          "Total Size",
	ColumnProgress:      "Percentage",
	ColumnETA:           "ETA",
	ColumnStatus:        "Status",
	ColumnDownloadRate:  "Download Rate",
	ColumnUploadRate:    "Upload Rate",
	ColumnDownloadPeers: "Download Peers",
	ColumnUploadPeers:   "Upload Peers",
	ColumnRatio:         "Upload Ratio",
	ColumnUploaded:      "Uploaded",
	ColumnTracker:       "Tracker",
	ColumnAdded:         "Added Date",
	ColumnLabels:        "Labels",
	ColumnPath:          "Path",
}

// Title returns the column header.
func (c Column) Title() string { return columnTitles[c] }

// ParseColumn accepts a column key or its header in any case. "" is [ColumnAdded].
func ParseColumn(s string) (Column, error) {
	if s == "" {
		return ColumnAdded, nil
	}
	for col, title := range columnTitles {
		if strings.EqualFold(s, string(col)) || strings.EqualFold(s, title) {
			return col, nil
		}
	}
	return "", fmt.Errorf("%w: unknown sort column %q", shared.ErrInvalidArgument, s)
}

// Sort orders the table by one column.
type Sort struct {
	Column Column
	Desc   bool
}

// DefaultSort is newest first.
var DefaultSort = Sort{Column: ColumnAdded, Desc: true}

func compareBy(col Column) func(a, b *transmission.Torrent) int {
	switch col {
	case ColumnName:
		return func(a, b *transmission.Torrent) int {
			return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case ColumnSize:
		return func(a, b *transmission.Torrent) int { return cmp.Compare(a.TotalSize, b.TotalSize) }
	case ColumnProgress:
		return func(a, b *transmission.Torrent) int { return cmp.Compare(a.Progress(), b.Progress()) }
	case ColumnETA:
		return func(a, b *transmission.Torrent) int { return cmp.Compare(a.ETA, b.ETA) }
	case ColumnStatus:
		return func(a, b *transmission.Torrent) int { return cmp.Compare(a.Status, b.Status) }
	case ColumnDownloadRate:
		return func(a, b *transmission.Torrent) int { return cmp.Compare(a.RateDownload, b.RateDownload) }
	case ColumnUploadRate:
		return func(a, b *transmission.Torrent) int { return cmp.Compare(a.RateUpload, b.RateUpload) }
	case ColumnDownloadPeers:
		return func(a, b *transmission.Torrent) int { return cmp.Compare(a.DownloadPeers(), b.DownloadPeers()) }
	case ColumnUploadPeers:
		return func(a, b *transmission.Torrent) int { return cmp.Compare(a.UploadPeers(), b.UploadPeers()) }
	case ColumnRatio:
		return func(a, b *transmission.Torrent) int { return cmp.Compare(a.UploadRatio, b.UploadRatio) }
	case ColumnUploaded:
		return func(a, b *transmission.Torrent) int { return cmp.Compare(a.UploadedEver, b.UploadedEver) }
	case ColumnTracker:
		return func(a, b *transmission.Torrent) int { return cmp.Compare(a.TrackerHost(), b.TrackerHost()) }
	case ColumnLabels:
		return func(a, b *transmission.Torrent) int { return cmp.Compare(firstLabel(a), firstLabel(b)) }
	case ColumnPath:
		return func(a, b *transmission.Torrent) int { return cmp.Compare(a.DownloadDir, b.DownloadDir) }
	default:
		return func(a, b *transmission.Torrent) int { return cmp.Compare(a.AddedDate, b.AddedDate) }
	}
}

func firstLabel(t *transmission.Torrent) string {
	labels := t.ParsedLabels()
	if len(labels) == 0 {
		return ""
	}
	return labels[0].Text
}

// sortTorrents orders torrents in place. Ties keep ascending id order in both directions.
func sortTorrents(torrents []transmission.Torrent, s Sort) {
	compare := compareBy(s.Column)
	slices.SortStableFunc(torrents, func(a, b transmission.Torrent) int {
		c := compare(&a, &b)
		if s.Desc {
			c = -c
		}
		if c == 0 {
			return cmp.Compare(a.ID, b.ID)
		}
		return c
	})
}
