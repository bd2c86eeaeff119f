package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/battery-guardian/pkg/model"
	"github.com/ogulcanaydogan/battery-guardian/pkg/storage"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a single check cycle",
	Long: `Read the battery once, decide whether charging has to be toggled and, if so,
send the configured request to the remote controller.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Bool("no-record", false, "Do not store the check in the history database")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	noRecord, _ := cmd.Flags().GetBool("no-record")

	settings, _, err := loadSettings(cfg, logger)
	if err != nil {
		return err
	}

	var store storage.Storage
	if !noRecord {
		store, err = initStorage(cfg)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		if store != nil {
			defer store.Close()
		}
	}

	engine := initEngine(cfg, settings, store, logger)
	record := engine.CheckOnce(cmd.Context())

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Check %s:\n", record.ID)
	fmt.Fprintf(out, "  Battery:   %d%%\n", record.LeftInPercent)
	fmt.Fprintf(out, "  Charging:  %t\n", record.IsCharging)
	fmt.Fprintf(out, "  Action:    %s\n", record.Action)
	if record.URL != "" {
		fmt.Fprintf(out, "  Request:   %s %s\n", record.Method, record.URL)
	}
	fmt.Fprintf(out, "  Outcome:   %s\n", record.Outcome)
	if record.StatusCode != 0 {
		fmt.Fprintf(out, "  Status:    %d\n", record.StatusCode)
	}
	if record.Detail != "" {
		fmt.Fprintf(out, "  Detail:    %s\n", record.Detail)
	}

	if record.Outcome == model.OutcomeSensorError {
		return fmt.Errorf("read power state: %s", record.Detail)
	}
	return nil
}
