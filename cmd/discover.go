package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opsdrift/fleetcheck/internal/discover"
)

// newDiscoverCmd creates the discover subcommand: probe a CIDR range for
// SSH listeners and emit the result as a host list.
func newDiscoverCmd() *cobra.Command {
	var (
		port        int
		concurrency int
		timeout     time.Duration
		outFile     string
	)

	cmd := &cobra.Command{
		Use:   "discover <cidr>",
		Short: "Probe a CIDR range for SSH hosts and emit a host list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hosts, err := discover.Scan(cmd.Context(), args[0], port, concurrency, timeout)
			if err != nil {
				return err
			}
			if len(hosts) == 0 {
				fmt.Fprintln(os.Stderr, "no hosts found")
				return nil
			}

			list := strings.Join(hosts, "\n") + "\n"
			if outFile == "" {
				fmt.Print(list)
				return nil
			}

			header := fmt.Sprintf("# discovered from %s on %s\n", args[0], time.Now().Format("2006-01-02 15:04"))
			if err := os.WriteFile(outFile, []byte(header+list), 0644); err != nil {
				return fmt.Errorf("write host list: %w", err)
			}
			fmt.Printf("%d hosts written to %s\n", len(hosts), outFile)
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 22, "TCP port to probe")
	cmd.Flags().IntVar(&concurrency, "concurrency", 64, "Parallel probe limit")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 2*time.Second, "Per-address dial timeout")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Write the host list to a file instead of stdout")

	return cmd
}
