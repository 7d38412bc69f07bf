package cmd

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/smallsh/core/logger"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Explore the process event log.",
}

var reportSession string

var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Show a report of spawned processes and how they exited.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		config, err := loadConfig()
		if err != nil {
			return err
		}

		fd, err := config.ReadEventLog()
		if err != nil {
			return err
		}
		defer fd.Close()

		var report logger.Report
		handler := report.Update
		if reportSession != "" {
			handler = func(e *logger.Event) {
				if strings.HasPrefix(e.SessionID, reportSession) {
					report.Update(e)
				}
			}
		}
		if err := logger.ReadJSONLinesLog(fd, handler); err != nil {
			return err
		}

		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		if n := report.Unreaped(); n > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%d background processes were never reaped.\n", n)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(reportCommand)

	reportCommand.Flags().StringVar(&reportSession, "session", "", "only report events from sessions whose ID starts with this prefix")
}
