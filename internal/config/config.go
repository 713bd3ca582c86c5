package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level fleetcheck run configuration.
type Config struct {
	// HostsFile is the path to the plain-text target list (one host per
	// line, '#' comments). May be overridden on the command line.
	HostsFile string `yaml:"hosts_file"`

	// RemoteScript is the absolute path of the pre-check script on the
	// remote hosts.
	RemoteScript string `yaml:"remote_script"`

	// Sudo runs the remote script under sudo. PasswordEnv names the
	// environment variable holding the sudo password; empty means
	// passwordless (NOPASSWD) sudo or an interactive prompt (--ask-pass).
	Sudo        bool   `yaml:"sudo"`
	PasswordEnv string `yaml:"password_env,omitempty"`

	// Timeout bounds each host's connect-plus-execute time.
	Timeout Duration `yaml:"timeout"`

	// Delay is the pause inserted after each successfully contacted,
	// non-final host. Pacing only; zero disables it.
	Delay Duration `yaml:"delay,omitempty"`

	// Concurrency is the number of hosts processed at once. The default
	// of 1 preserves strict host-list ordering of side effects.
	Concurrency int `yaml:"concurrency"`

	Rules  Rules  `yaml:"rules"`
	Output Output `yaml:"output"`
}

// Rules holds the classification rule sets. They are loaded once and
// treated as immutable for the duration of a run.
type Rules struct {
	// ConnectionFailures are case-sensitive substrings that mark a host
	// unreachable when found anywhere in the raw output.
	ConnectionFailures []string `yaml:"connection_failures"`

	// ScriptFailures are case-sensitive substrings that mark the remote
	// script as not having run as intended (sudo refusals, missing
	// script, permission problems).
	ScriptFailures []string `yaml:"script_failures"`

	// IssueKeywords are matched case-insensitively as whole words (or
	// literal phrases) against the pre-check section of the output.
	IssueKeywords []string `yaml:"issue_keywords"`

	// PromptEchoes are line prefixes of privilege-prompt echoes stripped
	// from the output before script-failure and keyword analysis.
	PromptEchoes []string `yaml:"prompt_echoes"`

	// MountPoint is the filesystem whose usage line is checked.
	MountPoint string `yaml:"mount_point"`

	// DiskThreshold is the usage percentage at or above which a host
	// needs review.
	DiskThreshold int `yaml:"disk_threshold"`

	// Separator is the token the composite remote command emits between
	// the pre-check output and the disk-usage report.
	Separator string `yaml:"separator"`
}

// Output holds the per-run output file locations.
type Output struct {
	Dir          string `yaml:"dir"`
	AccessFile   string `yaml:"access_file"`
	PrecheckFile string `yaml:"precheck_file"`
	LogFile      string `yaml:"log_file"`
}

// Duration wraps time.Duration to support YAML unmarshaling from strings like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = dur
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		HostsFile:    "hosts.txt",
		RemoteScript: "/usr/local/bin/precheck.sh",
		Sudo:         true,
		Timeout:      Duration{30 * time.Second},
		Delay:        Duration{2 * time.Second},
		Concurrency:  1,
		Rules:        DefaultRules(),
		Output: Output{
			Dir:          "out",
			AccessFile:   "access.txt",
			PrecheckFile: "precheck.txt",
			LogFile:      "run.log",
		},
	}
}

// DefaultRules returns the built-in classification rule sets. The
// connection-failure list covers both remote sshd messages and the error
// text the SSH transport itself produces, since dial failures surface
// through the same output blob.
func DefaultRules() Rules {
	return Rules{
		ConnectionFailures: []string{
			"Access denied",
			"Connection refused",
			"Host does not exist",
			"No route to host",
			"Connection timed out",
			"Connection reset",
			// Lowercase variants as the Go dialer spells them; dial errors
			// land in the same output blob as remote sshd messages.
			"connection refused",
			"no route to host",
			"connection reset",
			"network is unreachable",
			"no such host",
			"i/o timeout",
			"context deadline exceeded",
			"context canceled",
			"unable to authenticate",
			"handshake failed",
		},
		ScriptFailures: []string{
			"sudo: a password is required",
			"sudo: incorrect password",
			"command not found",
			"No such file or directory",
			"Permission denied",
		},
		IssueKeywords: []string{
			"error",
			"failed",
			"warning",
			"critical",
			"corruption",
			"degraded",
			"no space left",
			"read-only file system",
		},
		PromptEchoes: []string{
			"[sudo] password for",
			"Password:",
		},
		MountPoint:    "/var",
		DiskThreshold: 90,
		Separator:     "===DISKCHECK===",
	}
}

// DefaultConfigPath returns the default config file path.
// Respects $XDG_CONFIG_HOME if set, otherwise falls back to ~/.config.
func DefaultConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir != "" {
		return filepath.Join(configDir, "fleetcheck", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "fleetcheck", "config.yaml")
}

// Load reads and parses a config YAML file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadDefault loads the config from the default path
// (~/.config/fleetcheck/config.yaml). If the file does not exist, it
// returns the default config.
func LoadDefault() (*Config, error) {
	path := DefaultConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Save writes the config to the given file path as YAML.
// It creates parent directories if they don't exist.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks the config for logical errors. Validation failures are
// fatal: they abort the run before any host is contacted.
func (c *Config) Validate() error {
	if c.RemoteScript == "" {
		return fmt.Errorf("remote_script must be set")
	}
	if c.Timeout.Duration <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Delay.Duration < 0 {
		return fmt.Errorf("delay must be non-negative, got %s", c.Delay)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be non-negative, got %d", c.Concurrency)
	}

	if err := c.Rules.Validate(); err != nil {
		return err
	}

	if c.Output.AccessFile == "" || c.Output.PrecheckFile == "" {
		return fmt.Errorf("output access_file and precheck_file must be set")
	}

	return nil
}

// Validate checks the rule sets for logical errors.
func (r *Rules) Validate() error {
	if r.DiskThreshold < 1 || r.DiskThreshold > 100 {
		return fmt.Errorf("disk_threshold must be between 1 and 100, got %d", r.DiskThreshold)
	}
	if r.MountPoint == "" {
		return fmt.Errorf("mount_point must be set")
	}
	if r.Separator == "" {
		return fmt.Errorf("separator must be set")
	}
	for i, kw := range r.IssueKeywords {
		if kw == "" {
			return fmt.Errorf("issue_keywords[%d] is empty", i)
		}
	}
	return nil
}
