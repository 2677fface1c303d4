package main

import (
	"callstack/database"
	"callstack/internal/config"
	"callstack/pkg/log"
	"fmt"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

func newMigrateCmd(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(*envFile, func(db *sqlx.DB, driver string) error {
					return database.Migrate(cmd.Context(), db, driver)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(*envFile, func(db *sqlx.DB, driver string) error {
					return database.MigrateDown(cmd.Context(), db, driver)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(*envFile, func(db *sqlx.DB, driver string) error {
					statuses, err := database.MigrationStatuses(cmd.Context(), db, driver)
					if err != nil {
						return err
					}

					w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "VERSION\tSTATE\tSOURCE")
					for _, s := range statuses {
						state := "pending"
						if s.Applied {
							state = "applied"
						}
						fmt.Fprintf(w, "%d\t%s\t%s\n", s.Version, state, s.Source)
					}
					return w.Flush()
				})
			},
		},
	)

	return cmd
}

func withDatabase(envFile string, fn func(db *sqlx.DB, driver string) error) error {
	cfg, err := config.LoadEnv(envFile)
	if err != nil {
		return err
	}

	logger := log.NewLogger(log.Config{Level: cfg.Log.Level, Dir: cfg.Log.Dir, Env: cfg.App.Env})

	db, err := database.New(database.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
	}, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(db, cfg.Database.Driver)
}
