package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qiyas/continuity/internal/config"
	"github.com/qiyas/continuity/internal/infrastructure/database/postgres"
)

// newMigrateCmd groups the schema migration subcommands.
func newMigrateCmd(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		newMigrateUpCmd(opts),
		newMigrateDownCmd(opts),
		newMigrateStatusCmd(opts),
		newMigrateForceCmd(opts),
	)
	return cmd
}

func migrationTargets(opts *RootOptions) (dbURL, path string, err error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return "", "", err
	}
	return postgres.BuildDSN(cfg.Database), migrationPath(cfg), nil
}

func migrationPath(cfg *config.Config) string {
	if cfg.Database.MigrationPath != "" {
		return cfg.Database.MigrationPath
	}
	return "file://migrations"
}

func newMigrateUpCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbURL, path, err := migrationTargets(opts)
			if err != nil {
				return err
			}
			if err := postgres.RunMigrations(dbURL, path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newMigrateDownCmd(opts *RootOptions) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations by the given number of steps",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbURL, path, err := migrationTargets(opts)
			if err != nil {
				return err
			}
			if err := postgres.RollbackMigration(dbURL, path, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d step(s)\n", steps)
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return cmd
}

func newMigrateStatusCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current migration version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbURL, path, err := migrationTargets(opts)
			if err != nil {
				return err
			}
			version, dirty, err := postgres.MigrationStatus(dbURL, path)
			if err != nil {
				return err
			}
			state := "clean"
			if dirty {
				state = "dirty"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version: %d (%s)\n", version, state)
			return nil
		},
	}
}

func newMigrateForceCmd(opts *RootOptions) *cobra.Command {
	var version int

	cmd := &cobra.Command{
		Use:   "force",
		Short: "Force the migration version to recover from a dirty state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbURL, path, err := migrationTargets(opts)
			if err != nil {
				return err
			}
			if err := postgres.ForceMigrationVersion(dbURL, path, version); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "forced version to %d\n", version)
			return nil
		},
	}
	cmd.Flags().IntVar(&version, "version", 0, "schema version to force")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}
