package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/trx/internal/transmission"
	"github.com/dustin/go-humanize"
)

// TimestampLayout is used for every absolute time shown to the user.
const TimestampLayout = "2006-01-02 15:04:05"

// Ratio sentinels reported by the daemon.
const (
	RatioNotAvailable = -1
	RatioInfinite     = -2
)

// FormatBytes renders a byte count with binary units, e.g. "1.5 GiB".
func FormatBytes(n int64) string {
	if n < 0 {
		return "-"
	}
	return humanize.IBytes(uint64(n))
}

// FormatSpeed renders a transfer rate in bytes per second.
func FormatSpeed(bps int64) string {
	if bps <= 0 {
		return "0 B/s"
	}
	return humanize.IBytes(uint64(bps)) + "/s"
}

// FormatETA renders seconds remaining. -1 is not available and renders empty; -2 is unknown.
func FormatETA(seconds int64) string {
	switch {
	case seconds == transmission.ETANotAvailable:
		return ""
	case seconds == transmission.ETAUnknown, seconds < 0:
		return "Unknown"
	}
	return FormatDuration(time.Duration(seconds) * time.Second)
}

// FormatDuration renders d with its two most significant units, e.g. "2d 3h" or "4m 10s".
func FormatDuration(d time.Duration) string {
	total := int64(d.Round(time.Second) / time.Second)
	if total <= 0 {
		return "0s"
	}

	units := []struct {
		suffix string
		size   int64
	}{
		{"d", 86400},
		{"h", 3600},
		{"m", 60},
		{"s", 1},
	}

	parts := make([]string, 0, 2)
	for _, u := range units {
		if v := total / u.size; v > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", v, u.suffix))
			total %= u.size
		} else if len(parts) > 0 {
			break
		}
		if len(parts) == 2 {
			break
		}
	}
	return strings.Join(parts, " ")
}

// FormatRatio renders an upload ratio with two decimals.
func FormatRatio(ratio float64) string {
	switch ratio {
	case RatioNotAvailable:
		return "None"
	case RatioInfinite:
		return "∞"
	}
	return fmt.Sprintf("%.2f", ratio)
}

// FormatTimestamp renders a unix timestamp in local time. Zero renders empty.
func FormatTimestamp(unix int64) string {
	if unix <= 0 {
		return ""
	}
	return time.Unix(unix, 0).Format(TimestampLayout)
}

// FormatRelative renders a unix timestamp relative to now, e.g. "3 hours ago".
func FormatRelative(unix int64) string {
	if unix <= 0 {
		return ""
	}
	return humanize.Time(time.Unix(unix, 0))
}

// StatusString describes the torrent state. A daemon error wins over the activity status.
func StatusString(t *transmission.Torrent) string {
	if t.HasError() {
		if t.ErrorString != "" {
			return "Error: " + t.ErrorString
		}
		return "Error"
	}
	return t.Status.String()
}

// Progress renders the torrent progress as a percentage.
func Progress(t *transmission.Torrent) string {
	return fmt.Sprintf("%.1f%%", t.Progress()*100)
}

// LabelTexts joins the label texts of a torrent.
func LabelTexts(t *transmission.Torrent) string {
	labels := t.ParsedLabels()
	texts := make([]string, 0, len(labels))
	for _, l := range labels {
		texts = append(texts, l.Text)
	}
	return strings.Join(texts, ", ")
}
