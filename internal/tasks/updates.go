package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	SelectTorrents Phase = iota
	ReplaceTrackers
	AddTorrents
)

func (p Phase) String() string {
	switch p {
	case SelectTorrents:
		return "select_torrents"
	case ReplaceTrackers:
		return "replace_trackers"
	case AddTorrents:
		return "add_torrents"
	default:
		return ""
	}
}

func selectedTorrentsUpdate(selected, total int, announce string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SelectTorrents,
		Step:    selected,
		Total:   total,
		Message: fmt.Sprintf("%d of %d torrents announce to %s", selected, total, announce),
	}
}

func trackerReplacedUpdate(step, total int, res TrackerResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Name)
	if res.Error != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Name, res.Error)
	}
	return ProgressUpdate{
		Phase:   ReplaceTrackers,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

func torrentAddedUpdate(step, total int, res AddSourceResult) ProgressUpdate {
	var msg string
	switch {
	case res.Error != nil:
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Source, res.Error)
	case res.Duplicate:
		msg = fmt.Sprintf("[%d/%d] = %s (already added)", step, total, res.Name)
	default:
		msg = fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Name)
	}
	return ProgressUpdate{
		Phase:   AddTorrents,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}
