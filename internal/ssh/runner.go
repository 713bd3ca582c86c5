package ssh

import (
	"context"
	"fmt"

	"github.com/opsdrift/fleetcheck/internal/config"
	"github.com/opsdrift/fleetcheck/internal/executor"
)

// Runner implements executor.Runner over one-shot SSH connections: dial,
// run the composite command, close. When SudoPassword is set the command
// runs on a PTY with the password delivered on stdin.
type Runner struct {
	baseConf     ClientConfig
	sudoPassword string
}

// NewRunner creates a Runner with the given base SSH config.
func NewRunner(baseConf ClientConfig) *Runner {
	return &Runner{baseConf: baseConf}
}

// NewRunnerWithSudo creates a Runner that delivers sudoPassword over a
// PTY. An empty password falls back to the plain session (NOPASSWD sudo).
func NewRunnerWithSudo(baseConf ClientConfig, sudoPassword string) *Runner {
	return &Runner{baseConf: baseConf, sudoPassword: sudoPassword}
}

// clientConf applies per-host overrides from the host list to the base config.
func (r *Runner) clientConf(host config.Host) ClientConfig {
	conf := r.baseConf
	if host.User != "" {
		conf.User = host.User
	}
	if host.Port > 0 {
		conf.Port = host.Port
	}
	if host.IdentityFile != "" {
		conf.IdentityFiles = []string{host.IdentityFile}
	}
	if host.ProxyJump != "" {
		conf.ProxyJump = host.ProxyJump
	}
	return conf
}

// Run executes the command on a single host. Transport failures are
// contained here: the result is flagged Unreached and the error text is
// folded into the output blob for the run log, mirroring how terminal
// SSH tools write connect errors into captured output.
func (r *Runner) Run(ctx context.Context, host config.Host, command string) *executor.HostResult {
	result := &executor.HostResult{Host: host.Name, ExitCode: -1}

	client, err := Dial(ctx, host.Hostname, r.clientConf(host))
	if err != nil {
		err = WrapConnectError(host.Name, fmt.Errorf("connect: %w", err))
		result.Err = err
		result.Output = []byte(err.Error() + "\n")
		// Unreached is the authoritative signal: classification must not
		// depend on the marker list recognizing this dialer's wording.
		result.Unreached = true
		return result
	}
	defer client.Close()

	var output []byte
	var exitCode int
	if r.sudoPassword != "" {
		output, exitCode, err = client.CombinedOutputPTY(ctx, command, r.sudoPassword+"\n")
	} else {
		output, exitCode, err = client.CombinedOutput(ctx, command)
	}

	result.Output = output
	result.ExitCode = exitCode
	if err != nil {
		result.Err = err
		result.Output = append(result.Output, []byte(err.Error()+"\n")...)
	}
	return result
}

// Dial exposes a raw client connection for auxiliary steps (script push)
// that need the same resolution and auth chain as the run itself.
func (r *Runner) Dial(ctx context.Context, host config.Host) (*Client, error) {
	return Dial(ctx, host.Hostname, r.clientConf(host))
}
