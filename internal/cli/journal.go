package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"sleepvoice-server-go/internal/bootstrap"
	"sleepvoice-server-go/internal/domain/eventbus/repository"
	"sleepvoice-server-go/internal/platform/logging"
)

var (
	journalSince time.Duration
	journalStats bool
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Print journaled dispatches",
	Long: `Reads the dispatch journal from the configured SQLite database.
Entries are printed oldest first; --stats prints per-handler counts instead.`,
	Args: cobra.NoArgs,
	RunE: runJournal,
}

func init() {
	f := journalCmd.Flags()
	f.DurationVar(&journalSince, "since", 24*time.Hour, "trailing window to read")
	f.BoolVar(&journalStats, "stats", false, "print per-handler counts")
	rootCmd.AddCommand(journalCmd)
}

type journalStatsView struct {
	Since  time.Time        `json:"since"`
	Counts map[string]int64 `json:"counts"`
}

func runJournal(cmd *cobra.Command, _ []string) error {
	if journalSince <= 0 {
		return errors.New("--since must be positive")
	}

	engine, err := bootstrap.Prepare(cmd.Context(), bootstrap.Options{
		ConfigPath: configPath,
		Logger:     logging.NewWithWriter(cmd.ErrOrStderr(), "warn"),
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	if engine.Journal == nil {
		return errors.New("journal is disabled; set journal.enabled in the config")
	}

	end := time.Now().UTC()
	start := end.Add(-journalSince)
	if journalStats {
		counts, err := engine.Journal.HandlerStats(cmd.Context(), start)
		if err != nil {
			return err
		}
		return printJSON(cmd, journalStatsView{Since: start, Counts: counts})
	}

	entries, err := engine.Journal.FindByTimeRange(cmd.Context(), start, end)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []repository.Entry{}
	}
	return printJSON(cmd, entries)
}
