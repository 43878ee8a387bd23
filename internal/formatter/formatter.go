// package formatter renders torrents and stats history for display and export (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/shared"
	"github.com/desertthunder/trx/internal/transmission"
)

// Formats lists the accepted export formats.
var Formats = []string{"csv", "markdown", "txt", "json"}

// ExportToCSV converts torrents to CSV with columns: ID, Name, Status, Progress, Size, Ratio, Uploaded, Tracker, Labels, Path, Added
func ExportToCSV(torrents []transmission.Torrent) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Status", "Progress", "Size", "Ratio", "Uploaded", "Tracker", "Labels", "Path", "Added"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i := range torrents {
		t := &torrents[i]
		record := []string{
			strconv.Itoa(t.ID),
			t.Name,
			StatusString(t),
			strconv.FormatFloat(t.Progress(), 'f', 4, 64),
			strconv.FormatInt(t.TotalSize, 10),
			strconv.FormatFloat(t.UploadRatio, 'f', 2, 64),
			strconv.FormatInt(t.UploadedEver, 10),
			t.TrackerHost(),
			LabelTexts(t),
			t.DownloadDir,
			FormatTimestamp(t.AddedDate),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts torrents to a Markdown table
func ExportToMarkdown(torrents []transmission.Torrent) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Torrents\n\n")
	buf.WriteString(fmt.Sprintf("**Total**: %d\n\n", len(torrents)))
	buf.WriteString("| ID | Name | Status | Progress | Size | Ratio | Tracker |\n")
	buf.WriteString("|---:|------|--------|---------:|-----:|------:|---------|\n")

	for i := range torrents {
		t := &torrents[i]
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s |\n",
			t.ID,
			strings.ReplaceAll(t.Name, "|", "\\|"),
			StatusString(t),
			Progress(t),
			FormatBytes(t.TotalSize),
			FormatRatio(t.UploadRatio),
			t.TrackerHost(),
		))
	}

	return buf.Bytes(), nil
}

// ExportToText converts torrents to plain text format
func ExportToText(torrents []transmission.Torrent) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Torrents: %d\n\n", len(torrents)))
	for i := range torrents {
		t := &torrents[i]
		buf.WriteString(fmt.Sprintf("%d. [%d] %s (%s, %s of %s)\n",
			i+1, t.ID, t.Name, StatusString(t), Progress(t), FormatBytes(t.TotalSize)))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts torrents to indented JSON
func ExportToJSON(torrents []transmission.Torrent) ([]byte, error) {
	data, err := json.MarshalIndent(torrents, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal torrents: %w", err)
	}
	return data, nil
}

// Export renders torrents in the named format.
func Export(torrents []transmission.Torrent, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "csv":
		return ExportToCSV(torrents)
	case "markdown", "md":
		return ExportToMarkdown(torrents)
	case "txt", "text":
		return ExportToText(torrents)
	case "json":
		return ExportToJSON(torrents)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// WriteExport renders torrents in format and writes them to path.
func WriteExport(torrents []transmission.Torrent, format, path string) error {
	data, err := Export(torrents, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

// HistoryToCSV converts stats samples to CSV
func HistoryToCSV(samples []*models.StatsSample) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Sequence", "Sampled At", "Download Speed", "Upload Speed", "Active", "Paused", "Total", "Downloaded", "Uploaded", "Free Space"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, s := range samples {
		record := []string{
			strconv.Itoa(s.Sequence()),
			s.SampledAt().Local().Format(TimestampLayout),
			strconv.FormatInt(s.DownloadSpeed(), 10),
			strconv.FormatInt(s.UploadSpeed(), 10),
			strconv.Itoa(s.ActiveTorrents()),
			strconv.Itoa(s.PausedTorrents()),
			strconv.Itoa(s.TotalTorrents()),
			strconv.FormatInt(s.DownloadedBytes(), 10),
			strconv.FormatInt(s.UploadedBytes(), 10),
			strconv.FormatInt(s.FreeSpace(), 10),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}
