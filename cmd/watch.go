package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/trx/internal/formatter"
	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/poller"
	"github.com/desertthunder/trx/internal/repositories"
	"github.com/desertthunder/trx/internal/server"
	"github.com/desertthunder/trx/internal/shared"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"
)

// openHistory opens the configured database and its stats repository.
func (r *Runner) openHistory(ctx context.Context) (*sql.DB, *repositories.StatsRepository, error) {
	db, err := shared.OpenDatabase(ctx, r.config.Database)
	if err != nil {
		return nil, nil, err
	}
	return db, repositories.NewStatsRepository(db), nil
}

// newPoller builds a poller from the poll flags, recording to repo when it is not nil.
func (r *Runner) newPoller(cmd *cli.Command, repo *repositories.StatsRepository) *poller.Poller {
	interval := r.config.Poll.Interval()
	if cmd.IsSet("interval") {
		interval = cmd.Duration("interval")
	}

	opts := poller.Options{
		Interval: interval,
		Logger:   shared.WithLogger(r.logger, "component", "poller"),
	}
	if repo != nil {
		opts.Recorder = repositories.NewStatsRecorder(repo)
	}
	return poller.New(r.client, opts)
}

func recordEnabled(r *Runner, cmd *cli.Command) bool {
	if cmd.IsSet("record") {
		return cmd.Bool("record")
	}
	return r.config.Poll.Record
}

// Watch polls the daemon and prints one summary line per round.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	var repo *repositories.StatsRepository
	if recordEnabled(r, cmd) {
		db, statsRepo, err := r.openHistory(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		repo = statsRepo
	}

	p := r.newPoller(cmd, repo)
	count := int(cmd.Int("count"))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 1)
	go func() { errs <- p.Run(ctx) }()

	seen := 0
	for {
		select {
		case snap := <-p.Updates():
			r.writePlain("%s\n", r.summaryLine(snap))
			seen++
			if count > 0 && seen >= count {
				cancel()
				<-errs
				return nil
			}
		case err := <-errs:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

func (r *Runner) summaryLine(s poller.Snapshot) string {
	parts := []string{s.FetchedAt.Format(formatter.TimestampLayout)}
	if s.Stats != nil {
		parts = append(parts,
			"↓ "+formatter.FormatSpeed(s.Stats.DownloadSpeed),
			"↑ "+formatter.FormatSpeed(s.Stats.UploadSpeed),
			fmt.Sprintf("%d/%d active", s.Stats.ActiveTorrentCount, s.Stats.TorrentCount),
		)
	}
	if s.FreeSpace != nil {
		parts = append(parts, formatter.FormatBytes(s.FreeSpace.SizeBytes)+" free")
	}

	errored := 0
	for i := range s.Torrents {
		if s.Torrents[i].HasError() {
			errored++
		}
	}
	if errored > 0 {
		parts = append(parts, r.palette.Err(fmt.Sprintf("%d errored", errored)))
	}
	if s.Err != nil {
		parts = append(parts, r.palette.Warn(s.Err.Error()))
	}
	return strings.Join(parts, "  ")
}

// History prints recorded stats samples.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, repo, err := r.openHistory(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.IsSet("prune") {
		before := time.Now().Add(-cmd.Duration("prune"))
		n, err := repo.Prune(before)
		if err != nil {
			return err
		}
		r.logger.Info("pruned stats samples", "count", n, "before", before.Format(formatter.TimestampLayout))
	}

	samples, err := repo.Latest(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	switch format := strings.ToLower(cmd.String("format")); format {
	case "json":
		return r.writeHistory(samples, cmd.String("output"), func() ([]byte, error) {
			data, err := json.MarshalIndent(samples, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal JSON: %w", err)
			}
			return append(data, '\n'), nil
		})
	case "csv":
		return r.writeHistory(samples, cmd.String("output"), func() ([]byte, error) {
			return formatter.HistoryToCSV(samples)
		})
	case "table", "":
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}

	if len(samples) == 0 {
		return r.writePlain("%s\n", r.palette.Help("no samples recorded yet; run watch or serve with --record"))
	}

	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		free := ""
		if s.FreeSpace() != models.UnknownFreeSpace {
			free = formatter.FormatBytes(s.FreeSpace())
		}
		rows = append(rows, []string{
			strconv.Itoa(s.Sequence()),
			s.SampledAt().Local().Format(formatter.TimestampLayout),
			formatter.FormatSpeed(s.DownloadSpeed()),
			formatter.FormatSpeed(s.UploadSpeed()),
			fmt.Sprintf("%d/%d", s.ActiveTorrents(), s.TotalTorrents()),
			free,
		})
	}
	return r.writeTable([]string{"#", "Sampled", "Down", "Up", "Active", "Free"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight})
}

func (r *Runner) writeHistory(samples []*models.StatsSample, path string, render func() ([]byte, error)) error {
	data, err := render()
	if err != nil {
		return err
	}
	if path == "" {
		_, err := r.output.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	r.logger.Info("exported stats history", "count", len(samples), "path", path)
	return nil
}

// Serve runs the poller and the dashboard API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}

	opts := server.Options{
		Torrents: r.client,
		Gatherer: r.registry,
		Logger:   shared.WithLogger(r.logger, "component", "server"),
	}

	var repo *repositories.StatsRepository
	if recordEnabled(r, cmd) {
		db, statsRepo, err := r.openHistory(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		repo = statsRepo
		opts.History = repo
	}

	p := r.newPoller(cmd, repo)
	opts.Snapshots = p

	if err := r.registry.Register(collectors.NewGoCollector()); err != nil {
		r.logger.Debug("go collector already registered", "error", err)
	}

	return r.serveWithPoller(ctx, p, func(ctx context.Context) error {
		return server.Serve(ctx, cfg.Addr(), server.NewDashboard(opts).Router(), r.logger)
	})
}

// serveWithPoller runs p alongside serve and returns only after the poller has stopped.
func (r *Runner) serveWithPoller(ctx context.Context, p *poller.Poller, serve func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	err := serve(ctx)
	cancel()
	if perr := <-done; perr != nil && !errors.Is(perr, context.Canceled) {
		r.logger.Warn("poller stopped", "error", perr)
	}
	return err
}
