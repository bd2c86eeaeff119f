package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/battery-guardian/pkg/guardian"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the engine configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the engine configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the normalized engine configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigDump,
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change engine configuration values in place",
	Args:  cobra.NoArgs,
	RunE:  runConfigSet,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configDumpCmd)
	configCmd.AddCommand(configSetCmd)

	configDumpCmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")

	configSetCmd.Flags().Int("charged", 0, "Level above which charging stops")
	configSetCmd.Flags().Int("low", 0, "Level below which charging starts")
	configSetCmd.Flags().Int("interval", 0, "Seconds between checks")
	configSetCmd.Flags().String("address", "", "Remote controller address")
	configSetCmd.Flags().String("method", "", "HTTP method")
	configSetCmd.Flags().String("template", "", "Request path template")
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	settings, path, err := loadSettings(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s is valid\n\n", path)

	thresholds := settings.Thresholds()
	target := settings.Target()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  charged\t%d%%\n", thresholds.Charged)
	fmt.Fprintf(w, "  low\t%d%%\n", thresholds.Low)
	fmt.Fprintf(w, "  check interval\t%s\n", settings.CheckInterval())
	fmt.Fprintf(w, "  request\t%s %s%s\n", target.Method, target.Address, target.Template)
	fmt.Fprintf(w, "  placeholders\t%v\n", settings.RequestKeys())
	if thresholds.Low > thresholds.Charged {
		fmt.Fprintf(w, "  warning\tlow limit is above the charged limit\n")
	}
	return w.Flush()
}

func runConfigDump(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	settings, _, err := loadSettings(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output != "" {
		return guardian.Dump(settings, output)
	}

	data, err := guardian.MarshalDocument(settings.Document())
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigSet(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	settings, path, err := loadSettings(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	if err := applySetFlags(cmd, settings); err != nil {
		return err
	}

	if err := guardian.Dump(settings, path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", path)
	return nil
}

// applySetFlags applies every flag the user changed, in declaration order.
func applySetFlags(cmd *cobra.Command, settings *guardian.Settings) error {
	flags := cmd.Flags()
	changed := 0

	intSetters := []struct {
		flag string
		set  func(int) error
	}{
		{"charged", settings.SetChargedLimit},
		{"low", settings.SetLowLimit},
		{"interval", settings.SetCheckInterval},
	}
	for _, s := range intSetters {
		if !flags.Changed(s.flag) {
			continue
		}
		v, _ := flags.GetInt(s.flag)
		if err := s.set(v); err != nil {
			return err
		}
		changed++
	}

	stringSetters := []struct {
		flag string
		set  func(string) error
	}{
		{"address", settings.SetRemoteAddress},
		{"method", settings.SetRequestMethod},
		{"template", settings.SetRequestTemplate},
	}
	for _, s := range stringSetters {
		if !flags.Changed(s.flag) {
			continue
		}
		v, _ := flags.GetString(s.flag)
		if err := s.set(v); err != nil {
			return err
		}
		changed++
	}

	if changed == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "nothing to change")
	}
	return nil
}
