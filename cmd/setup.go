package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/trx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the built-in config template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)

	r.writePlain("%s config written to %s\n", r.palette.OK("✓"), path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set rpc.url, rpc.username and rpc.password in %s\n", path)
	r.writePlain("2. Run 'trx setup database' to create the stats history\n")
	r.writePlain("3. Run 'trx torrents list' to test the connection\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	path := r.config.Database.Path
	r.logger.Info("initializing database", "path", path)

	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	applied, err := shared.RunMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, err := shared.CurrentVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", path)
	return r.writePlain("%s database %s ready (%d migration(s) applied, schema version %d)\n",
		r.palette.OK("✓"), path, applied, version)
}
