package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/executive-intake/internal/config"
	"github.com/jonathan/executive-intake/internal/db"
)

var (
	listStatus string
	listPhase  string
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent conversations (postgres store only)",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (ACTIVE, PAUSED, COMPLETED, ABANDONED)")
	listCmd.Flags().StringVar(&listPhase, "phase", "", "Filter by phase (INITIAL, QUESTIONING, COMPLETED, ERROR)")
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of conversations to show")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.StoreBackend != config.BackendPostgres {
		return fmt.Errorf("list needs the postgres store: set STORE_BACKEND=postgres")
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	summaries, err := database.ListConversations(ctx, db.ConversationFilters{
		Status: strings.ToUpper(listStatus),
		Phase:  strings.ToUpper(listPhase),
		Limit:  listLimit,
	})
	if err != nil {
		return err
	}
	return printConversationList(cmd, summaries)
}

func printConversationList(cmd *cobra.Command, summaries []db.ConversationSummary) error {
	out := cmd.OutOrStdout()
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(out, "No conversations found.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPHASE\tSTATUS\tQUESTIONS\tROLE\tUPDATED")
	for _, s := range summaries {
		role := s.RoleTitle
		if s.CompanyName != "" {
			role += " @ " + s.CompanyName
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			s.ID, s.Phase, s.Status, s.CurrentIndex, s.TotalQuestions, role, s.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
