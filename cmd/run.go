package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/opsdrift/fleetcheck/internal/classify"
	"github.com/opsdrift/fleetcheck/internal/config"
	"github.com/opsdrift/fleetcheck/internal/executor"
	"github.com/opsdrift/fleetcheck/internal/pathutil"
	"github.com/opsdrift/fleetcheck/internal/report"
	"github.com/opsdrift/fleetcheck/internal/ssh"
	"github.com/opsdrift/fleetcheck/internal/transfer"
)

// newRunCmd creates the run subcommand: the whole pipeline from host
// list to output files.
func newRunCmd() *cobra.Command {
	var (
		hostsFile   string
		outputDir   string
		timeout     time.Duration
		concurrency int
		askPass     bool
		pushScript  string
		noProgress  bool
	)

	cmd := &cobra.Command{
		Use:   "run [host ...]",
		Short: "Run the pre-check across the fleet",
		Long: `Runs the configured pre-check script (under sudo) plus a disk-usage
probe on every host in the target list, classifies each host's output,
and writes the access and pre-check status columns in host-list order.

Hosts given as arguments override the host list file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if hostsFile != "" {
				cfg.HostsFile = hostsFile
			}
			if outputDir != "" {
				cfg.Output.Dir = outputDir
			}
			// Config and flags may carry ~ or $VAR paths.
			cfg.HostsFile = pathutil.Expand(cfg.HostsFile)
			cfg.Output.Dir = pathutil.Expand(cfg.Output.Dir)
			pushScript = pathutil.Expand(pushScript)
			if timeout > 0 {
				cfg.Timeout = config.Duration{Duration: timeout}
			}
			if concurrency > 0 {
				cfg.Concurrency = concurrency
			}

			return runPipeline(cmd.Context(), cfg, args, askPass, pushScript, !noProgress)
		},
	}

	cmd.Flags().StringVarP(&hostsFile, "hosts", "H", "", "Host list file (one host per line, # comments)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory for status columns and run log")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "Per-host timeout (overrides config)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Hosts processed at once (default 1, sequential)")
	cmd.Flags().BoolVar(&askPass, "ask-pass", false, "Prompt for the sudo/SSH password")
	cmd.Flags().StringVar(&pushScript, "push-script", "", "Local pre-check script to upload to the remote path before running")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadDefault()
}

// resolvePassword fetches the privileged-run secret: an interactive
// prompt when asked for, otherwise the configured environment variable.
// An empty result means passwordless (NOPASSWD) sudo.
func resolvePassword(cfg *config.Config, askPass bool) (string, error) {
	if askPass {
		fmt.Fprint(os.Stderr, "Password: ")
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}
	if cfg.PasswordEnv != "" {
		return os.Getenv(cfg.PasswordEnv), nil
	}
	return "", nil
}

func runPipeline(parent context.Context, cfg *config.Config, args []string, askPass bool, pushScript string, progress bool) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Pre-flight: host list and credentials. Failures here are fatal and
	// happen before any output file is touched.
	var hosts []config.Host
	var err error
	if len(args) > 0 {
		hosts, err = config.ParseHostArgs(args)
	} else {
		hosts, err = config.LoadHostList(cfg.HostsFile)
	}
	if err != nil {
		return err
	}

	password, err := resolvePassword(cfg, askPass)
	if err != nil {
		return err
	}

	baseConf := ssh.ClientConfig{
		AcceptUnknownHosts: insecure,
	}
	if password != "" {
		// The same secret serves SSH password auth when agent and key
		// auth fail, matching how the operator credential is stored.
		baseConf.PasswordCallback = func(host string) (string, error) {
			return password, nil
		}
	}
	defer ssh.CloseAgent()

	var runner *ssh.Runner
	if cfg.Sudo && password != "" {
		runner = ssh.NewRunnerWithSudo(baseConf, password)
	} else {
		runner = ssh.NewRunner(baseConf)
	}

	if pushScript != "" {
		if err := pushScriptToHosts(ctx, runner, hosts, pushScript, cfg.RemoteScript); err != nil {
			return err
		}
	}

	var bar *progressbar.ProgressBar
	if progress {
		bar = progressbar.NewOptions(len(hosts),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("checking hosts"),
		)
	}

	opts := []executor.Option{
		executor.WithTimeout(cfg.Timeout.Duration),
		executor.WithDelay(cfg.Delay.Duration),
		executor.WithConcurrency(cfg.Concurrency),
	}
	if bar != nil {
		opts = append(opts, executor.WithProgress(func(host string) {
			bar.Add(1)
		}))
	}

	exec := executor.New(runner, opts...)
	command := executor.BuildCommand(cfg)
	results := exec.Execute(ctx, hosts, command)

	if bar != nil {
		bar.Finish()
		fmt.Fprintln(os.Stderr)
	}

	classifier := classify.New(cfg.Rules)
	run := report.NewRun(len(hosts))
	for _, r := range results {
		raw := string(r.Output)
		result := classifier.Classify(raw, r.TimedOut || r.Unreached)
		cleaned := classify.StripPromptEchoes(raw, cfg.Rules.PromptEchoes)
		run.Record(r.Host, result, cleaned, r.Duration)
	}

	summary := run.Finalize()
	if summary.Warning != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", summary.Warning)
	}

	entries := run.Entries()
	if err := report.WriteFiles(cfg.Output.Dir, cfg.Output.AccessFile, cfg.Output.PrecheckFile, cfg.Output.LogFile, entries); err != nil {
		return err
	}

	color := term.IsTerminal(int(os.Stdout.Fd()))
	fmt.Print(report.RenderSummary(summary, color))
	fmt.Printf("output written to %s\n", cfg.Output.Dir)

	return nil
}

// pushScriptToHosts uploads the pre-check script to every host before
// the run. Per-host push failures are reported and skipped; the run
// itself will classify those hosts from whatever the command produces.
func pushScriptToHosts(ctx context.Context, runner *ssh.Runner, hosts []config.Host, localPath, remotePath string) error {
	if _, err := os.Stat(localPath); err != nil {
		return fmt.Errorf("push script: %w", err)
	}

	for _, host := range hosts {
		client, err := runner.Dial(ctx, host)
		if err != nil {
			fmt.Fprintf(os.Stderr, "push to %s failed: %v\n", host.Name, err)
			continue
		}
		_, _, err = transfer.PushScript(ctx, client.Raw(), localPath, remotePath, host.Name, nil)
		client.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "push to %s failed: %v\n", host.Name, err)
		}
	}
	return nil
}
