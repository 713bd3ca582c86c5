package executor

import (
	"fmt"
	"strings"

	"github.com/opsdrift/fleetcheck/internal/config"
)

// BuildCommand assembles the composite remote command: run the pre-check
// script (under sudo when configured), emit the separator token, then
// report disk usage for the monitored mount point. The classifier
// assumes exactly this two-part structure.
//
// The script's stderr is folded into stdout so the captured blob holds
// everything the script said. The separator and disk probe run
// unconditionally: a failing script must not suppress the token.
func BuildCommand(cfg *config.Config) string {
	script := cfg.RemoteScript
	if cfg.Sudo {
		// -S reads the password from stdin when one is required; under
		// NOPASSWD it is a no-op.
		script = "sudo -S " + script
	}

	parts := []string{
		script + " 2>&1",
		fmt.Sprintf("echo %s", shellQuote(cfg.Rules.Separator)),
		fmt.Sprintf("df -P %s 2>&1", shellQuote(cfg.Rules.MountPoint)),
	}
	return strings.Join(parts, "; ")
}

// shellQuote single-quotes a value for safe interpolation into the
// remote shell command line.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
