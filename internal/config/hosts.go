package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kevinburke/ssh_config"

	"github.com/opsdrift/fleetcheck/internal/pathutil"
)

// ErrNoTargets is returned when the host list file yields zero targets.
// It is fatal: a run with no hosts has nothing to do.
var ErrNoTargets = errors.New("host list contains no targets")

// Host represents a resolved target with connection details. Hosts are
// immutable once loaded; each is consumed exactly once per run.
type Host struct {
	Name         string // Display/identity label (original input, e.g. "admin@server1")
	Hostname     string // Actual SSH hostname to connect to (e.g. "server1")
	User         string
	Port         int
	IdentityFile string
	ProxyJump    string
	Timeout      time.Duration
}

// LoadHostList reads a plain-text target list from path: one host per
// line, in "host" or "user@host" form. Blank lines and lines whose first
// non-whitespace character is '#' are dropped. Order is preserved and
// duplicates are kept (deliberately: repeating a host is the operator's
// call). Connection details missing from the line are filled in from
// ~/.ssh/config.
func LoadHostList(path string) ([]Host, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open host list %s: %w", path, err)
	}
	defer f.Close()

	var hosts []Host
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		hosts = append(hosts, resolveHost(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read host list %s: %w", path, err)
	}

	if len(hosts) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoTargets)
	}
	return hosts, nil
}

// ParseHostArgs builds a host list directly from command-line arguments,
// bypassing the list file. Blank entries are dropped; duplicates are kept.
func ParseHostArgs(args []string) ([]Host, error) {
	var hosts []Host
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		hosts = append(hosts, resolveHost(arg))
	}
	if len(hosts) == 0 {
		return nil, ErrNoTargets
	}
	return hosts, nil
}

// resolveHost parses a single target entry and merges SSH config values.
func resolveHost(entry string) Host {
	host := Host{Name: entry, Hostname: entry, Port: 22}

	if user, hostname, ok := parseUserAtHost(entry); ok {
		host.Hostname = hostname
		host.User = user
		// Name stays as the original "user@host" for display.
	}

	MergeSSHConfig(&host)
	return host
}

// MergeSSHConfig reads ~/.ssh/config and fills in User, Port,
// IdentityFile, and ProxyJump for the host if they are not already set.
// Lookups use the Hostname field (the actual SSH target), not the
// display Name.
func MergeSSHConfig(host *Host) {
	lookup := host.Hostname
	if lookup == "" {
		lookup = host.Name
	}

	if host.User == "" {
		if user := sshConfigGet(lookup, "User"); user != "" {
			host.User = user
		}
	}

	if host.Port == 22 {
		if portStr := sshConfigGet(lookup, "Port"); portStr != "" {
			if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
				host.Port = port
			}
		}
	}

	if host.IdentityFile == "" {
		if identity := sshConfigGet(lookup, "IdentityFile"); identity != "" {
			expanded := pathutil.ExpandHome(identity)
			if _, err := os.Stat(expanded); err == nil {
				host.IdentityFile = expanded
			}
		}
	}

	if host.ProxyJump == "" {
		if proxy := sshConfigGet(lookup, "ProxyJump"); proxy != "" {
			host.ProxyJump = proxy
		}
	}
}

// sshConfigGet looks up a key for a host in the user's SSH config.
func sshConfigGet(hostname, key string) string {
	val, err := ssh_config.GetStrict(hostname, key)
	if err != nil {
		return ""
	}
	return val
}

// parseUserAtHost splits "user@host" into its components.
// Returns ("", "", false) if the input doesn't contain @ or if the user part is empty.
func parseUserAtHost(s string) (user, host string, ok bool) {
	i := strings.Index(s, "@")
	if i <= 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// Names returns the display names of hosts, in list order.
func Names(hosts []Host) []string {
	names := make([]string, len(hosts))
	for i, h := range hosts {
		names[i] = h.Name
	}
	return names
}
