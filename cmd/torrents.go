package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/trx/internal/formatter"
	"github.com/desertthunder/trx/internal/shared"
	"github.com/desertthunder/trx/internal/tasks"
	"github.com/desertthunder/trx/internal/torrents"
	"github.com/desertthunder/trx/internal/transmission"
	"github.com/urfave/cli/v3"
)

// TorrentsList prints one page of the torrent table, or exports the filtered torrents.
func (r *Runner) TorrentsList(ctx context.Context, cmd *cli.Command) error {
	q, err := listQuery(cmd)
	if err != nil {
		return err
	}

	list, err := r.client.GetTorrents(ctx, transmission.GetTorrentsOptions{})
	if err != nil {
		return fmt.Errorf("failed to list torrents: %w", err)
	}
	if session, err := r.client.Session(ctx); err != nil {
		r.logger.Warn("failed to read session, path facets may be incomplete", "error", err)
	} else {
		q.SessionDir = session.DownloadDir
	}

	if format := cmd.String("export"); format != "" {
		q.Page, q.Size = 0, max(len(list), 1)
		result := torrents.Apply(list, q)
		return r.export(result.Torrents, format, cmd.String("output"))
	}

	if q.Size == 0 {
		q.Size = max(len(list), 1)
	}
	result := torrents.Apply(list, q)

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	if err := r.writeTorrentTable(result.Torrents); err != nil {
		return err
	}

	counts := make([]string, 0, len(torrents.Tabs))
	for _, tab := range torrents.Tabs {
		counts = append(counts, fmt.Sprintf("%s %d", tab, result.Counts[tab]))
	}
	r.writePlain("%s\n", r.palette.Help(fmt.Sprintf("%d of %d torrents, page %d/%d  |  %s",
		len(result.Torrents), result.Total, result.Page+1, max(result.Pages, 1), strings.Join(counts, ", "))))
	return nil
}

func (r *Runner) export(list []transmission.Torrent, format, path string) error {
	if path != "" {
		if err := formatter.WriteExport(list, format, path); err != nil {
			return err
		}
		r.logger.Info("exported torrents", "count", len(list), "format", format, "path", path)
		return nil
	}

	data, err := formatter.Export(list, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// listQuery builds the table query from the list flags.
func listQuery(cmd *cli.Command) (torrents.Query, error) {
	var q torrents.Query

	tab, err := torrents.ParseTab(cmd.String("tab"))
	if err != nil {
		return q, err
	}
	q.Tab = tab

	if raw := cmd.String("sort"); raw != "" {
		col, err := torrents.ParseColumn(raw)
		if err != nil {
			return q, err
		}
		q.Sort = &torrents.Sort{Column: col, Desc: cmd.Bool("desc")}
	}

	page, size := int(cmd.Int("page")), int(cmd.Int("size"))
	if page < 0 || size < 0 {
		return q, fmt.Errorf("%w: page and size must not be negative", shared.ErrInvalidFlag)
	}
	q.Page, q.Size = page, size

	if raw := cmd.String("status"); raw != "" {
		status, err := transmission.ParseStatus(raw)
		if err != nil {
			return q, fmt.Errorf("%w: %w", shared.ErrInvalidFlag, err)
		}
		q.Filters.Status = &status
	}
	q.Filters.Trackers = cmd.StringSlice("tracker")
	q.Filters.Labels = cmd.StringSlice("label")
	q.Filters.Paths = cmd.StringSlice("path")
	q.Filters.Name = strings.TrimSpace(cmd.String("search"))
	return q, nil
}

// parseIDs accepts ids as separate arguments, comma lists or ranges like 3-7.
func parseIDs(args []string) ([]int, error) {
	var ids []int
	seen := make(map[int]bool)
	add := func(id int) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}

			if lo, hi, ok := strings.Cut(part, "-"); ok {
				from, err1 := strconv.Atoi(lo)
				to, err2 := strconv.Atoi(hi)
				if err1 != nil || err2 != nil || from <= 0 || to < from {
					return nil, fmt.Errorf("%w: bad id range %q", shared.ErrInvalidArgument, part)
				}
				for id := from; id <= to; id++ {
					add(id)
				}
				continue
			}

			id, err := strconv.Atoi(part)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("%w: bad torrent id %q", shared.ErrInvalidArgument, part)
			}
			add(id)
		}
	}

	if len(ids) == 0 {
		return nil, shared.ErrNoTorrentsSelected
	}
	return ids, nil
}

// parseLabel reads "text" or "text:#color".
func parseLabel(raw string) (transmission.Label, error) {
	raw = strings.TrimSpace(raw)
	text, color := raw, ""
	if i := strings.LastIndex(raw, ":#"); i >= 0 {
		text, color = raw[:i], raw[i+1:]
	}
	if strings.TrimSpace(text) == "" {
		return transmission.Label{}, fmt.Errorf("%w: empty label %q", shared.ErrInvalidArgument, raw)
	}
	return transmission.Label{Text: text, Color: color}, nil
}

func parseLabels(raw []string) ([]transmission.Label, error) {
	labels := make([]transmission.Label, 0, len(raw))
	for _, s := range raw {
		l, err := parseLabel(s)
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, nil
}

// TorrentsShow prints the details of one torrent.
func (r *Runner) TorrentsShow(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseIDs(cmd.Args().Slice())
	if err != nil {
		return err
	}
	if len(ids) != 1 {
		return fmt.Errorf("%w: show takes exactly one id", shared.ErrInvalidArgument)
	}

	t, err := r.client.GetTorrent(ctx, ids[0])
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(t, cmd.Bool("pretty"))
	}

	r.writePlainHeader(t.Name)
	r.writeKeyValues([][2]string{
		{"ID", strconv.Itoa(t.ID)},
		{"Hash", t.HashString},
		{"Status", r.palette.Status(t)},
		{"Progress", formatter.Progress(t)},
		{"Size", formatter.FormatBytes(t.TotalSize)},
		{"Remaining", formatter.FormatBytes(t.LeftUntilDone)},
		{"ETA", formatter.FormatETA(t.ETA)},
		{"Download", formatter.FormatSpeed(t.RateDownload)},
		{"Upload", formatter.FormatSpeed(t.RateUpload)},
		{"Downloaded", formatter.FormatBytes(t.DownloadedEver)},
		{"Uploaded", formatter.FormatBytes(t.UploadedEver)},
		{"Ratio", formatter.FormatRatio(t.UploadRatio)},
		{"Peers", fmt.Sprintf("%d downloading, %d seeding", t.PeersGettingFromUs, t.PeersSendingToUs)},
		{"Location", t.DownloadDir},
		{"Labels", formatter.LabelTexts(t)},
		{"Added", formatter.FormatTimestamp(t.AddedDate)},
		{"Completed", formatter.FormatTimestamp(t.DoneDate)},
		{"Last activity", formatter.FormatRelative(t.ActivityDate)},
		{"Comment", t.Comment},
	})

	if len(t.Files) > 0 {
		r.writePlainln("Files")
		rows := make([][]string, 0, len(t.Files))
		for _, f := range t.Files {
			progress := 0.0
			if f.Length > 0 {
				progress = float64(f.BytesCompleted) / float64(f.Length) * 100
			}
			rows = append(rows, []string{f.Name, formatter.FormatBytes(f.Length), fmt.Sprintf("%.1f%%", progress)})
		}
		r.writeTable([]string{"Name", "Size", "Done"}, rows, []columnAlignment{alignLeft, alignRight, alignRight})
	}

	if len(t.TrackerStats) > 0 {
		r.writePlainln("Trackers")
		rows := make([][]string, 0, len(t.TrackerStats))
		for _, ts := range t.TrackerStats {
			last := r.palette.OK("ok")
			if !ts.LastAnnounceSucceeded {
				last = r.palette.Warn(ts.LastAnnounceResult)
			}
			rows = append(rows, []string{ts.Announce, strconv.Itoa(ts.SeederCount), strconv.Itoa(ts.LeecherCount), last})
		}
		r.writeTable([]string{"Announce", "Seeders", "Leechers", "Last announce"}, rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft})
	}
	return nil
}

func addOptions(cmd *cli.Command) (transmission.AddTorrentOptions, error) {
	labels, err := parseLabels(cmd.StringSlice("label"))
	if err != nil {
		return transmission.AddTorrentOptions{}, err
	}
	opts := transmission.AddTorrentOptions{
		DownloadDir: cmd.String("download-dir"),
		Paused:      cmd.Bool("paused"),
		PeerLimit:   int(cmd.Int("peer-limit")),
	}
	if len(labels) > 0 {
		opts.Labels = transmission.EncodeLabels(labels)
	}
	return opts, nil
}

// TorrentsAdd adds a single magnet link, URL or .torrent file.
func (r *Runner) TorrentsAdd(ctx context.Context, cmd *cli.Command) error {
	source := strings.TrimSpace(cmd.Args().First())
	if source == "" {
		return fmt.Errorf("%w: a magnet link, URL or .torrent path is required", shared.ErrMissingArgument)
	}

	opts, err := addOptions(cmd)
	if err != nil {
		return err
	}

	var added *transmission.AddResult
	if tasks.IsRemoteSource(source) {
		opts.Filename = source
		added, err = r.client.AddTorrent(ctx, opts)
	} else {
		added, err = r.client.AddTorrentFile(ctx, source, opts)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(added, true)
	}
	if added.Duplicate {
		return r.writePlain("%s torrent %d already present: %s\n", r.palette.Warn("="), added.Torrent.ID, added.Torrent.Name)
	}
	return r.writePlain("%s added torrent %d: %s\n", r.palette.OK("✓"), added.Torrent.ID, added.Torrent.Name)
}

// readSources returns the non-blank, non-comment lines of path.
func readSources(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sources file: %w", err)
	}
	defer f.Close()

	var sources []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sources = append(sources, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}
	return sources, nil
}

// TorrentsImport adds many sources through the task engine.
func (r *Runner) TorrentsImport(ctx context.Context, cmd *cli.Command) error {
	sources := cmd.Args().Slice()
	if path := cmd.String("from-file"); path != "" {
		fromFile, err := readSources(path)
		if err != nil {
			return err
		}
		sources = append(sources, fromFile...)
	}

	add, err := addOptions(cmd)
	if err != nil {
		return err
	}

	progress, wait := r.logProgress()
	result, err := r.engine.BulkAdd(ctx, progress, sources, tasks.BulkAddOpts{
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate-limit"),
		Add:        add,
	})
	close(progress)
	wait()

	if result == nil {
		return err
	}

	if cmd.Bool("json") {
		if jsonErr := r.writeJSON(result, true); jsonErr != nil {
			return jsonErr
		}
		return err
	}

	rows := make([][]string, 0, len(result.Results))
	for _, res := range result.Results {
		outcome := r.palette.OK("added")
		switch {
		case res.Error != nil:
			outcome = r.palette.Err(res.Error.Error())
		case res.Duplicate:
			outcome = r.palette.Warn("duplicate")
		}
		id := ""
		if res.ID > 0 {
			id = strconv.Itoa(res.ID)
		}
		rows = append(rows, []string{res.Source, id, res.Name, outcome})
	}
	r.writeTable([]string{"Source", "ID", "Name", "Result"}, rows, []columnAlignment{alignLeft, alignRight})
	r.writePlain("%d added, %d duplicates, %d failed of %d\n", result.Added, result.Duplicates, result.Failed, result.Total)
	return err
}

// logProgress starts a goroutine logging task updates. Close the channel, then call wait.
func (r *Runner) logProgress() (chan tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			r.logger.Info(u.Message, "phase", u.Phase.String())
		}
	}()
	return progress, func() { <-done }
}

// TorrentsRemove removes torrents, optionally with their data.
func (r *Runner) TorrentsRemove(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseIDs(cmd.Args().Slice())
	if err != nil {
		return err
	}

	deleteData := cmd.Bool("delete-data")
	if err := r.client.RemoveTorrents(ctx, ids, deleteData); err != nil {
		return err
	}
	suffix := ""
	if deleteData {
		suffix = " and their data"
	}
	return r.writePlain("%s removed %d torrent(s)%s\n", r.palette.OK("✓"), len(ids), suffix)
}

// TorrentsAction returns the action for start, stop, verify and reannounce.
func (r *Runner) TorrentsAction(name string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		ids, err := parseIDs(cmd.Args().Slice())
		if err != nil {
			return err
		}

		var fn func(context.Context, []int) error
		switch name {
		case "start":
			fn = r.client.StartTorrents
		case "stop":
			fn = r.client.StopTorrents
		case "verify":
			fn = r.client.VerifyTorrents
		case "reannounce":
			fn = r.client.ReannounceTorrents
		default:
			return fmt.Errorf("%w: %s", shared.ErrNotImplemented, name)
		}

		if err := fn(ctx, ids); err != nil {
			return err
		}
		return r.writePlain("%s %s sent for %d torrent(s)\n", r.palette.OK("✓"), name, len(ids))
	}
}

// TorrentsRename renames a path inside a torrent.
func (r *Runner) TorrentsRename(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) != 3 {
		return fmt.Errorf("%w: rename takes <id> <path> <new-name>", shared.ErrMissingArgument)
	}
	ids, err := parseIDs(args[:1])
	if err != nil {
		return err
	}

	res, err := r.client.RenamePath(ctx, ids[0], args[1], args[2])
	if err != nil {
		return err
	}
	return r.writePlain("%s renamed %s to %s\n", r.palette.OK("✓"), res.Path, res.Name)
}

// TorrentsMove sets the location of torrents.
func (r *Runner) TorrentsMove(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseIDs(cmd.Args().Slice())
	if err != nil {
		return err
	}

	location := cmd.String("location")
	if err := r.client.SetLocation(ctx, ids, location, cmd.Bool("move")); err != nil {
		return err
	}
	return r.writePlain("%s location of %d torrent(s) set to %s\n", r.palette.OK("✓"), len(ids), location)
}

// TorrentsLabel replaces the labels of torrents.
func (r *Runner) TorrentsLabel(ctx context.Context, cmd *cli.Command) error {
	ids, err := parseIDs(cmd.Args().Slice())
	if err != nil {
		return err
	}

	raw := cmd.StringSlice("set")
	clearAll := cmd.Bool("clear")
	switch {
	case clearAll && len(raw) > 0:
		return fmt.Errorf("%w: --set and --clear are exclusive", shared.ErrInvalidFlag)
	case !clearAll && len(raw) == 0:
		return fmt.Errorf("%w: give --set or --clear", shared.ErrMissingArgument)
	}

	labels, err := parseLabels(raw)
	if err != nil {
		return err
	}
	if err := r.client.SetLabels(ctx, ids, labels); err != nil {
		return err
	}
	return r.writePlain("%s labels of %d torrent(s) updated\n", r.palette.OK("✓"), len(ids))
}

// TorrentsReplaceTracker swaps an announce URL on every torrent using it.
func (r *Runner) TorrentsReplaceTracker(ctx context.Context, cmd *cli.Command) error {
	list, err := r.client.GetTorrents(ctx, transmission.GetTorrentsOptions{Fields: []string{"id", "name", "trackerStats"}})
	if err != nil {
		return fmt.Errorf("failed to list torrents: %w", err)
	}

	progress, wait := r.logProgress()
	result, err := r.engine.ReplaceTracker(ctx, progress, list, cmd.String("from"), cmd.String("to"),
		tasks.ReplaceTrackerOpts{RateLimit: cmd.Float("rate-limit")})
	close(progress)
	wait()

	if result == nil {
		return err
	}
	if cmd.Bool("json") {
		if jsonErr := r.writeJSON(result, true); jsonErr != nil {
			return jsonErr
		}
		return err
	}

	r.writePlain("%d matched, %d updated, %d failed\n", result.Matched, result.Updated, result.Failed)
	for _, res := range result.Results {
		if res.Error != nil {
			r.writePlain("  %s %d %s: %v\n", r.palette.Err("✗"), res.ID, res.Name, res.Error)
		}
	}
	return err
}
