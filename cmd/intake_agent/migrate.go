package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/executive-intake/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply, roll back, or inspect database migrations",
	Long:      "Run the embedded goose migrations against DATABASE_URL. Defaults to up.",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(db.MigrateUp), string(db.MigrateDown), string(db.MigrateStatus)},
	RunE:      runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	command := db.MigrateUp
	if len(args) == 1 {
		command = db.MigrationCommand(args[0])
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	reports, err := database.Migrate(ctx, command)
	if err != nil {
		return err
	}
	return printMigrations(cmd, command, reports)
}

func printMigrations(cmd *cobra.Command, command db.MigrationCommand, reports []db.MigrationReport) error {
	out := cmd.OutOrStdout()
	if len(reports) == 0 {
		_, err := fmt.Fprintf(out, "migrate %s: nothing to do\n", command)
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "VERSION\tFILE\tSTATE")
	for _, r := range reports {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", r.Version, r.Path, r.Detail)
	}
	return w.Flush()
}
