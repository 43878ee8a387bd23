// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/trx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// app returns the root command with the global connection flags.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "trx",
		Usage:   "Manage a Transmission daemon over its RPC interface",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("TRX_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "url",
				Usage: "Daemon RPC URL (overrides rpc.url)",
			},
			&cli.StringFlag{
				Name:  "username",
				Usage: "RPC username (overrides rpc.username)",
			},
			&cli.StringFlag{
				Name:  "password",
				Usage: "RPC password (overrides rpc.password)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-request timeout (overrides rpc.timeout_ms)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.configure,
		Commands: r.register(),
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON output", Value: true}
}

// torrentsCommand handles torrent operations
func torrentsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "torrents",
		Aliases: []string{"t"},
		Usage:   "List and manage torrents",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List torrents with tab, filters, sorting and paging",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tab", Usage: "all, active, downloading, seeding, stopped, error or warning", Value: "all"},
					&cli.StringFlag{Name: "sort", Usage: "Sort column (name, size, progress, eta, status, ratio, added, ...)"},
					&cli.BoolFlag{Name: "desc", Usage: "Sort descending"},
					&cli.IntFlag{Name: "page", Usage: "Zero-based page number"},
					&cli.IntFlag{Name: "size", Usage: "Rows per page (0 shows all)"},
					&cli.StringFlag{Name: "status", Usage: "Only torrents with this status"},
					&cli.StringSliceFlag{Name: "tracker", Usage: "Only torrents on this tracker host (repeatable)"},
					&cli.StringSliceFlag{Name: "label", Usage: "Only torrents with this label (repeatable)"},
					&cli.StringSliceFlag{Name: "path", Usage: "Only torrents in this download dir (repeatable)"},
					&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "Case-insensitive name filter"},
					&cli.StringFlag{Name: "export", Usage: "Export the filtered torrents (csv, markdown, txt, json)"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Export file path (stdout when empty)"},
					jsonFlag(),
					prettyFlag(),
				},
				Action: r.TorrentsList,
			},
			{
				Name:      "show",
				Usage:     "Show one torrent with files and trackers",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{jsonFlag(), prettyFlag()},
				Action:    r.TorrentsShow,
			},
			{
				Name:      "add",
				Usage:     "Add a torrent from a magnet link, URL or .torrent file",
				ArgsUsage: "<source>",
				Flags:     addFlags(),
				Action:    r.TorrentsAdd,
			},
			{
				Name:      "import",
				Usage:     "Add many torrents concurrently",
				ArgsUsage: "[source...]",
				Flags: append(addFlags(),
					&cli.StringFlag{Name: "from-file", Usage: "Read sources from a file, one per line"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent workers (max 10)", Value: 3},
					&cli.FloatFlag{Name: "rate-limit", Usage: "Requests per second", Value: tasks.DefaultRateLimit},
				),
				Action: r.TorrentsImport,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove torrents",
				ArgsUsage: "<id...>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "delete-data", Usage: "Also delete downloaded data"},
				},
				Action: r.TorrentsRemove,
			},
			actionCommand(r, "start", "Start torrents"),
			actionCommand(r, "stop", "Stop torrents"),
			actionCommand(r, "verify", "Verify local data of torrents"),
			actionCommand(r, "reannounce", "Ask trackers for more peers"),
			{
				Name:      "rename",
				Usage:     "Rename a file or folder inside a torrent",
				ArgsUsage: "<id> <path> <new-name>",
				Action:    r.TorrentsRename,
			},
			{
				Name:      "move",
				Usage:     "Set the download location of torrents",
				ArgsUsage: "<id...>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "location", Aliases: []string{"l"}, Usage: "New location", Required: true},
					&cli.BoolFlag{Name: "move", Usage: "Move data to the new location", Value: true},
				},
				Action: r.TorrentsMove,
			},
			{
				Name:      "label",
				Usage:     "Replace the labels of torrents",
				ArgsUsage: "<id...>",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "set", Usage: "Label as text or text:#color (repeatable)"},
					&cli.BoolFlag{Name: "clear", Usage: "Remove every label"},
				},
				Action: r.TorrentsLabel,
			},
			{
				Name:  "trackers",
				Usage: "Tracker operations",
				Commands: []*cli.Command{
					{
						Name:  "replace",
						Usage: "Replace an announce URL on every torrent using it",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "from", Usage: "Announce URL to replace", Required: true},
							&cli.StringFlag{Name: "to", Usage: "Replacement announce URL", Required: true},
							&cli.FloatFlag{Name: "rate-limit", Usage: "Requests per second", Value: tasks.DefaultRateLimit},
							jsonFlag(),
						},
						Action: r.TorrentsReplaceTracker,
					},
				},
			},
		},
	}
}

func addFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "download-dir", Usage: "Download directory"},
		&cli.BoolFlag{Name: "paused", Usage: "Add without starting"},
		&cli.StringSliceFlag{Name: "label", Usage: "Label as text or text:#color (repeatable)"},
		&cli.IntFlag{Name: "peer-limit", Usage: "Maximum peers"},
		jsonFlag(),
	}
}

func actionCommand(r *Runner, name, usage string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<id...>",
		Action:    r.TorrentsAction(name),
	}
}

// sessionCommand handles daemon session settings
func sessionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Daemon session settings",
		Commands: []*cli.Command{
			{
				Name:   "get",
				Usage:  "Show session settings",
				Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
				Action: r.SessionGet,
			},
			{
				Name:  "set",
				Usage: "Change session settings",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "download-dir", Usage: "Default download directory"},
					&cli.IntFlag{Name: "down-limit", Usage: "Download limit in KB/s, 0 disables"},
					&cli.IntFlag{Name: "up-limit", Usage: "Upload limit in KB/s, 0 disables"},
					&cli.BoolFlag{Name: "alt-speed", Usage: "Enable or disable alternative speed limits"},
					&cli.IntFlag{Name: "peer-port", Usage: "Incoming peer port"},
					&cli.StringFlag{Name: "encryption", Usage: "required, preferred or tolerated"},
					&cli.FloatFlag{Name: "seed-ratio", Usage: "Seed ratio limit, negative disables"},
				},
				Action: r.SessionSet,
			},
		},
	}
}

func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show session statistics",
		Flags:  []cli.Flag{jsonFlag(), prettyFlag()},
		Action: r.Stats,
	}
}

func freeSpaceCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "free-space",
		Usage:     "Show free space in a directory (default: session download dir)",
		ArgsUsage: "[path]",
		Flags:     []cli.Flag{jsonFlag()},
		Action:    r.FreeSpace,
	}
}

func portTestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "port-test",
		Usage: "Check whether the peer port is reachable",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ip", Usage: "Test only ipv4 or ipv6"},
			jsonFlag(),
		},
		Action: r.PortTest,
	}
}

func pollFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{Name: "interval", Aliases: []string{"i"}, Usage: "Polling interval (overrides poll.interval_seconds)"},
		&cli.BoolFlag{Name: "record", Usage: "Record stats samples to the database (overrides poll.record)"},
	}
}

// watchCommand polls the daemon and prints a summary line per round
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Poll the daemon and print transfer summaries",
		Flags: append(pollFlags(),
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Usage: "Stop after this many rounds (0 runs until interrupted)"},
		),
		Action: r.Watch,
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recorded stats samples",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Number of most recent samples", Value: 20},
			&cli.StringFlag{Name: "format", Usage: "table, json or csv", Value: "table"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write to file instead of stdout"},
			&cli.DurationFlag{Name: "prune", Usage: "Delete samples older than this before listing"},
		},
		Action: r.History,
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the dashboard JSON API",
		Flags: append(pollFlags(),
			&cli.StringFlag{Name: "host", Usage: "Listen host (overrides server.host)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (overrides server.port)"},
		),
		Action: r.Serve,
	}
}

// rpcCommand sends a raw RPC request
func rpcCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "rpc",
		Usage:     "Send a raw RPC request and print the response",
		ArgsUsage: "<method>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "args", Aliases: []string{"a"}, Usage: "JSON arguments object"},
			prettyFlag(),
		},
		Action: r.RPC,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}
