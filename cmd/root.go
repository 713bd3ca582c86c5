package cmd

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	insecure   bool

	rootCmd = &cobra.Command{
		Use:   "fleetcheck",
		Short: "Fleet pre-check orchestrator",
		Long: `fleetcheck runs a pre-check script over SSH on a list of hosts,
classifies each host's reachability and health from the command output,
and writes spreadsheet-pasteable status columns plus a verbose run log.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default ~/.config/fleetcheck/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&insecure, "insecure", false, "Skip host key verification")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newDiscoverCmd())
	rootCmd.AddCommand(newConfigCmd())
}
