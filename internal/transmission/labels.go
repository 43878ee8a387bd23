package transmission

import (
	"encoding/json"
	"strings"
)

// Label is a torrent label with an optional display color.
type Label struct {
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
}

// EncodeLabel returns the string stored by the daemon for l.
func EncodeLabel(l Label) string {
	b, _ := json.Marshal(l)
	return string(b)
}

// EncodeLabels encodes each label, keeping the order.
func EncodeLabels(labels []Label) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, EncodeLabel(l))
	}
	return out
}

// ParseLabel decodes a stored label. ok is false for blank input.
func ParseLabel(raw string) (Label, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Label{}, false
	}

	if strings.HasPrefix(trimmed, "{") {
		var l Label
		if err := json.Unmarshal([]byte(trimmed), &l); err == nil && l.Text != "" {
			return l, true
		}
	}
	return Label{Text: raw}, true
}

// ParseLabels decodes stored labels, skipping blank ones.
func ParseLabels(raw []string) []Label {
	labels := make([]Label, 0, len(raw))
	for _, r := range raw {
		if l, ok := ParseLabel(r); ok {
			labels = append(labels, l)
		}
	}
	return labels
}
