package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeHostList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write host list: %v", err)
	}
	return path
}

func TestLoadHostList(t *testing.T) {
	path := writeHostList(t, `# primary rack
server1
server2

  # indented comment
  server3
admin@server4
`)

	hosts, err := LoadHostList(path)
	if err != nil {
		t.Fatalf("LoadHostList: %v", err)
	}

	want := []string{"server1", "server2", "server3", "admin@server4"}
	if len(hosts) != len(want) {
		t.Fatalf("got %d hosts, want %d", len(hosts), len(want))
	}
	for i, name := range want {
		if hosts[i].Name != name {
			t.Errorf("hosts[%d].Name = %q, want %q", i, hosts[i].Name, name)
		}
	}

	// user@host splits into user and hostname but keeps the display name.
	last := hosts[3]
	if last.User != "admin" {
		t.Errorf("User = %q, want admin", last.User)
	}
	if last.Hostname != "server4" {
		t.Errorf("Hostname = %q, want server4", last.Hostname)
	}
}

func TestLoadHostListKeepsDuplicatesAndOrder(t *testing.T) {
	path := writeHostList(t, "b\na\nb\n")

	hosts, err := LoadHostList(path)
	if err != nil {
		t.Fatalf("LoadHostList: %v", err)
	}

	got := Names(hosts)
	want := []string{"b", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadHostListEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"only comments", "# one\n# two\n"},
		{"only blanks", "\n\n   \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeHostList(t, tt.content)
			_, err := LoadHostList(path)
			if !errors.Is(err, ErrNoTargets) {
				t.Errorf("error = %v, want ErrNoTargets", err)
			}
		})
	}
}

func TestLoadHostListMissingFile(t *testing.T) {
	_, err := LoadHostList(filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if errors.Is(err, ErrNoTargets) {
		t.Error("missing file should not report ErrNoTargets")
	}
}

func TestParseHostArgs(t *testing.T) {
	hosts, err := ParseHostArgs([]string{"server1", "", "  ", "ops@server2"})
	if err != nil {
		t.Fatalf("ParseHostArgs: %v", err)
	}
	if len(hosts) != 2 {
		t.Fatalf("got %d hosts, want 2", len(hosts))
	}
	if hosts[0].Name != "server1" || hosts[1].Name != "ops@server2" {
		t.Errorf("names = %v", Names(hosts))
	}
	if hosts[1].User != "ops" || hosts[1].Hostname != "server2" {
		t.Errorf("hosts[1] = %+v", hosts[1])
	}
}

func TestParseHostArgsEmpty(t *testing.T) {
	if _, err := ParseHostArgs([]string{"", "   "}); !errors.Is(err, ErrNoTargets) {
		t.Errorf("error = %v, want ErrNoTargets", err)
	}
}

func TestParseUserAtHost(t *testing.T) {
	tests := []struct {
		input    string
		user     string
		host     string
		expectOK bool
	}{
		{"admin@server1", "admin", "server1", true},
		{"server1", "", "", false},
		{"@server1", "", "", false},
		{"a@b@c", "a", "b@c", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			user, host, ok := parseUserAtHost(tt.input)
			if ok != tt.expectOK || user != tt.user || host != tt.host {
				t.Errorf("parseUserAtHost(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.input, user, host, ok, tt.user, tt.host, tt.expectOK)
			}
		})
	}
}

func TestResolveHostDefaults(t *testing.T) {
	host := resolveHost("server1")
	if host.Name != "server1" || host.Hostname != "server1" {
		t.Errorf("host = %+v", host)
	}
	if host.Port == 0 {
		t.Error("Port not defaulted")
	}
}
