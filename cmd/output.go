package main

import (
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/trx/internal/formatter"
	"github.com/desertthunder/trx/internal/transmission"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// Palette is a simple stylesheet built with named [lipgloss.Style] fields.
//
// A disabled palette returns text unchanged.
type Palette struct {
	enabled bool
	title   lipgloss.Style
	ok      lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	help    lipgloss.Style
}

func NewPalette(enabled bool) *Palette {
	return &Palette{
		enabled: enabled,
		title:   newBold("#7D56F4"),
		ok:      newBold("#04B575"),
		err:     newBold("#FF0000"),
		warn:    newStyle("#FFA500"),
		help:    newStyle("#626262").Italic(true),
	}
}

func newStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func newBold(fg string) lipgloss.Style {
	return newStyle(fg).Bold(true)
}

func (p *Palette) render(s lipgloss.Style, v string) string {
	if !p.enabled {
		return v
	}
	return s.Render(v)
}

func (p *Palette) Title(v string) string { return p.render(p.title, v) }
func (p *Palette) OK(v string) string    { return p.render(p.ok, v) }
func (p *Palette) Err(v string) string   { return p.render(p.err, v) }
func (p *Palette) Warn(v string) string  { return p.render(p.warn, v) }
func (p *Palette) Help(v string) string  { return p.render(p.help, v) }

// Status colors a torrent status: errors red, tracker warnings orange, seeding green.
func (p *Palette) Status(t *transmission.Torrent) string {
	s := formatter.StatusString(t)
	switch {
	case t.HasError():
		return p.Err(s)
	case t.HasWarning():
		return p.Warn(s)
	case t.Status == transmission.StatusSeeding:
		return p.OK(s)
	default:
		return s
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment, rounded bool) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if rounded {
		tw.SetStyle(table.StyleRounded)
	}

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func (r *Runner) writeTable(headers []string, rows [][]string, aligns []columnAlignment) error {
	return r.writePlain("%s\n", renderTable(headers, rows, aligns, r.palette.enabled))
}

func (r *Runner) writeKeyValues(pairs [][2]string) error {
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{p[0], p[1]})
	}
	return r.writeTable([]string{"Field", "Value"}, rows, nil)
}

func (r *Runner) writeTorrentTable(torrents []transmission.Torrent) error {
	headers := []string{"ID", "Name", "Status", "Progress", "Size", "ETA", "Down", "Up", "Ratio", "Tracker", "Labels"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}

	rows := make([][]string, 0, len(torrents))
	for i := range torrents {
		t := &torrents[i]
		rows = append(rows, []string{
			strconv.Itoa(t.ID),
			t.Name,
			r.palette.Status(t),
			formatter.Progress(t),
			formatter.FormatBytes(t.TotalSize),
			formatter.FormatETA(t.ETA),
			formatter.FormatSpeed(t.RateDownload),
			formatter.FormatSpeed(t.RateUpload),
			formatter.FormatRatio(t.UploadRatio),
			t.TrackerHost(),
			formatter.LabelTexts(t),
		})
	}
	return r.writeTable(headers, rows, aligns)
}
