package torrents

import (
	"fmt"
	"strings"

	"github.com/desertthunder/trx/internal/shared"
	"github.com/desertthunder/trx/internal/transmission"
)

// Tab is a predefined torrent subset.
type Tab string

const (
	TabAll         Tab = "all"
	TabActive      Tab = "active"
	TabDownloading Tab = "downloading"
	TabSeeding     Tab = "seeding"
	TabStopped     Tab = "stopped"
	TabError       Tab = "error"
	TabWarning     Tab = "warning"
)

// Tabs lists every tab in display order.
var Tabs = []Tab{TabAll, TabActive, TabDownloading, TabSeeding, TabStopped, TabError, TabWarning}

// ParseTab accepts a tab name in any case. "" is [TabAll].
func ParseTab(s string) (Tab, error) {
	if s == "" {
		return TabAll, nil
	}
	for _, tab := range Tabs {
		if strings.EqualFold(s, string(tab)) {
			return tab, nil
		}
	}
	return "", fmt.Errorf("%w: unknown tab %q", shared.ErrInvalidArgument, s)
}

// Match reports whether t belongs to the tab.
func (tab Tab) Match(t *transmission.Torrent) bool {
	switch tab {
	case TabActive:
		return t.RateDownload > 0 || t.RateUpload > 0
	case TabDownloading:
		return t.Status == transmission.StatusDownloading
	case TabSeeding:
		return t.Status == transmission.StatusSeeding
	case TabStopped:
		return t.Status == transmission.StatusStopped
	case TabError:
		return t.HasError()
	case TabWarning:
		return t.HasWarning()
	default:
		return true
	}
}
