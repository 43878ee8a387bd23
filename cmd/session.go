package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/trx/internal/formatter"
	"github.com/desertthunder/trx/internal/rpc"
	"github.com/desertthunder/trx/internal/shared"
	"github.com/desertthunder/trx/internal/transmission"
	"github.com/urfave/cli/v3"
)

// SessionGet prints the daemon session settings.
func (r *Runner) SessionGet(ctx context.Context, cmd *cli.Command) error {
	s, err := r.client.Session(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(s, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Transmission " + s.Version)
	return r.writeKeyValues([][2]string{
		{"RPC version", strconv.Itoa(s.RPCVersion)},
		{"Download dir", s.DownloadDir},
		{"Incomplete dir", enabled(s.IncompleteDir, s.IncompleteDirEnabled)},
		{"Download limit", enabled(fmt.Sprintf("%d KB/s", s.SpeedLimitDown), s.SpeedLimitDownEnabled)},
		{"Upload limit", enabled(fmt.Sprintf("%d KB/s", s.SpeedLimitUp), s.SpeedLimitUpEnabled)},
		{"Alt speed", enabled(fmt.Sprintf("%d/%d KB/s", s.AltSpeedDown, s.AltSpeedUp), s.AltSpeedEnabled)},
		{"Peer port", strconv.Itoa(s.PeerPort)},
		{"Encryption", s.Encryption},
		{"Seed ratio", enabled(formatter.FormatRatio(s.SeedRatioLimit), s.SeedRatioLimited)},
		{"Download queue", enabled(strconv.Itoa(s.DownloadQueueSize), s.DownloadQueueEnabled)},
		{"Seed queue", enabled(strconv.Itoa(s.SeedQueueSize), s.SeedQueueEnabled)},
		{"DHT / PEX / LPD / uTP", fmt.Sprintf("%t / %t / %t / %t", s.DHTEnabled, s.PEXEnabled, s.LPDEnabled, s.UTPEnabled)},
	})
}

func enabled(value string, on bool) string {
	if !on {
		return "off"
	}
	return value
}

// sessionSettings collects the session-set flags that were given.
func sessionSettings(cmd *cli.Command) (transmission.SessionSettings, error) {
	var s transmission.SessionSettings

	if cmd.IsSet("download-dir") {
		dir := cmd.String("download-dir")
		s.DownloadDir = &dir
	}
	if cmd.IsSet("down-limit") {
		limit := int(cmd.Int("down-limit"))
		on := limit > 0
		s.SpeedLimitDownEnabled = &on
		if on {
			s.SpeedLimitDown = &limit
		}
	}
	if cmd.IsSet("up-limit") {
		limit := int(cmd.Int("up-limit"))
		on := limit > 0
		s.SpeedLimitUpEnabled = &on
		if on {
			s.SpeedLimitUp = &limit
		}
	}
	if cmd.IsSet("alt-speed") {
		on := cmd.Bool("alt-speed")
		s.AltSpeedEnabled = &on
	}
	if cmd.IsSet("peer-port") {
		port := int(cmd.Int("peer-port"))
		if port <= 0 || port > 65535 {
			return s, fmt.Errorf("%w: peer port %d out of range", shared.ErrInvalidFlag, port)
		}
		s.PeerPort = &port
	}
	if cmd.IsSet("encryption") {
		enc := strings.ToLower(cmd.String("encryption"))
		switch enc {
		case "required", "preferred", "tolerated":
		default:
			return s, fmt.Errorf("%w: encryption %q", shared.ErrInvalidFlag, enc)
		}
		s.Encryption = &enc
	}
	if cmd.IsSet("seed-ratio") {
		ratio := cmd.Float("seed-ratio")
		on := ratio >= 0
		s.SeedRatioLimited = &on
		if on {
			s.SeedRatioLimit = &ratio
		}
	}
	return s, nil
}

// SessionSet changes the daemon session settings.
func (r *Runner) SessionSet(ctx context.Context, cmd *cli.Command) error {
	settings, err := sessionSettings(cmd)
	if err != nil {
		return err
	}
	if err := r.client.SetSession(ctx, settings); err != nil {
		return err
	}
	return r.writePlain("%s session updated\n", r.palette.OK("✓"))
}

// Stats prints the session statistics.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	s, err := r.client.SessionStats(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(s, cmd.Bool("pretty"))
	}

	r.writeKeyValues([][2]string{
		{"Torrents", fmt.Sprintf("%d (%d active, %d paused)", s.TorrentCount, s.ActiveTorrentCount, s.PausedTorrentCount)},
		{"Download", formatter.FormatSpeed(s.DownloadSpeed)},
		{"Upload", formatter.FormatSpeed(s.UploadSpeed)},
	})

	rows := [][]string{statRow("Current session", s.CurrentStats), statRow("Total", s.CumulativeStats)}
	return r.writeTable([]string{"Period", "Downloaded", "Uploaded", "Files", "Active", "Sessions"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight})
}

func statRow(name string, s transmission.StatItem) []string {
	return []string{
		name,
		formatter.FormatBytes(s.DownloadedBytes),
		formatter.FormatBytes(s.UploadedBytes),
		strconv.FormatInt(s.FilesAdded, 10),
		formatter.FormatETA(s.SecondsActive),
		strconv.FormatInt(s.SessionCount, 10),
	}
}

// FreeSpace prints free space at a path, defaulting to the session download dir.
func (r *Runner) FreeSpace(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		s, err := r.client.Session(ctx)
		if err != nil {
			return err
		}
		path = s.DownloadDir
	}

	fs, err := r.client.FreeSpace(ctx, path)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(fs, true)
	}
	if fs.TotalSize > 0 {
		return r.writePlain("%s: %s free of %s\n", fs.Path, formatter.FormatBytes(fs.SizeBytes), formatter.FormatBytes(fs.TotalSize))
	}
	return r.writePlain("%s: %s free\n", fs.Path, formatter.FormatBytes(fs.SizeBytes))
}

// PortTest asks the daemon whether its peer port is reachable.
func (r *Runner) PortTest(ctx context.Context, cmd *cli.Command) error {
	res, err := r.client.PortTest(ctx, strings.ToLower(cmd.String("ip")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(res, true)
	}
	if res.PortIsOpen {
		return r.writePlain("%s peer port is open\n", r.palette.OK("✓"))
	}
	return r.writePlain("%s peer port is closed\n", r.palette.Err("✗"))
}

// RPC sends a raw request and prints the daemon response.
func (r *Runner) RPC(ctx context.Context, cmd *cli.Command) error {
	method := strings.TrimSpace(cmd.Args().First())
	if method == "" {
		return fmt.Errorf("%w: method is required", shared.ErrMissingArgument)
	}

	req := &rpc.Request{Method: method}
	if raw := cmd.String("args"); raw != "" {
		if !json.Valid([]byte(raw)) {
			return fmt.Errorf("%w: --args is not valid JSON", shared.ErrInvalidFlag)
		}
		req.Arguments = json.RawMessage(raw)
	}

	resp, err := r.rpc.Send(ctx, req)
	if err != nil {
		return err
	}
	if err := r.writeJSON(resp, cmd.Bool("pretty")); err != nil {
		return err
	}
	if !resp.OK() {
		return &rpc.ProtocolError{Method: method, Result: resp.Result}
	}
	return nil
}
