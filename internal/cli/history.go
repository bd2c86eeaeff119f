package cli

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/battery-guardian/pkg/model"
	"github.com/ogulcanaydogan/battery-guardian/pkg/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past check cycles",
	Long:  `Show aggregated check statistics for a time period and, optionally, the individual checks.`,
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringP("period", "P", "daily", "History period (daily, weekly, monthly)")
	historyCmd.Flags().StringP("outcome", "o", "", "Filter by outcome")
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of checks to list")
	historyCmd.Flags().Bool("detailed", false, "Show individual checks")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Storage.Enabled {
		return fmt.Errorf("history is disabled (storage.enabled=false)")
	}

	period, _ := cmd.Flags().GetString("period")
	outcome, _ := cmd.Flags().GetString("outcome")
	limit, _ := cmd.Flags().GetInt("limit")
	detailed, _ := cmd.Flags().GetBool("detailed")

	store, err := storage.NewSQLite(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	start, end := model.PeriodBounds(model.HistoryPeriod(period))
	filter := model.HistoryFilter{
		Outcome:   model.Outcome(outcome),
		StartTime: start,
		EndTime:   end,
	}

	summary, err := store.SummarizeChecks(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("summarize checks: %w", err)
	}

	out := cmd.OutOrStdout()
	printSummary(out, period, start.Format("2006-01-02"), end.Format("2006-01-02"), summary)

	if detailed {
		filter.Limit = limit
		records, err := store.QueryChecks(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("query checks: %w", err)
		}
		printRecords(out, records)
	}

	return nil
}

func printSummary(out io.Writer, period, from, to string, summary *model.HistorySummary) {
	fmt.Fprintf(out, "=== Battery Guardian History (%s) ===\n", period)
	fmt.Fprintf(out, "Period: %s to %s\n\n", from, to)
	fmt.Fprintf(out, "Total Checks:     %d\n", summary.TotalChecks)
	fmt.Fprintf(out, "Notifications:    %d\n", summary.Notifications)
	fmt.Fprintf(out, "Average Battery:  %.1f%%\n", summary.AveragePercent)
	if !summary.LastCheckedAt.IsZero() {
		fmt.Fprintf(out, "Last Check:       %s\n", summary.LastCheckedAt.Local().Format("2006-01-02 15:04:05"))
	}

	if len(summary.ByOutcome) > 0 {
		outcomes := make([]string, 0, len(summary.ByOutcome))
		for o := range summary.ByOutcome {
			outcomes = append(outcomes, string(o))
		}
		sort.Strings(outcomes)

		fmt.Fprintf(out, "\nBy Outcome:\n")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  OUTCOME\tCHECKS\n")
		for _, o := range outcomes {
			fmt.Fprintf(w, "  %s\t%d\n", o, summary.ByOutcome[model.Outcome(o)])
		}
		w.Flush()
	}
}

func printRecords(out io.Writer, records []model.CheckRecord) {
	if len(records) == 0 {
		return
	}
	fmt.Fprintf(out, "\nChecks:\n")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  TIMESTAMP\tBATTERY\tCHARGING\tOUTCOME\tREQUEST\n")
	for _, r := range records {
		req := "-"
		if r.URL != "" {
			req = r.Method + " " + r.URL
		}
		fmt.Fprintf(w, "  %s\t%d%%\t%t\t%s\t%s\n",
			r.Timestamp.Local().Format("2006-01-02 15:04"),
			r.LeftInPercent, r.IsCharging,
			r.Outcome, req,
		)
	}
	w.Flush()
}
