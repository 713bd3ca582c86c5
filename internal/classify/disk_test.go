package classify

import (
	"testing"

	"github.com/opsdrift/fleetcheck/internal/config"
)

func diskClassifier(mount string, threshold int) *Classifier {
	rules := config.DefaultRules()
	rules.MountPoint = mount
	rules.DiskThreshold = threshold
	return New(rules)
}

func TestDiskOverThreshold(t *testing.T) {
	c := diskClassifier("/var", 90)

	tests := []struct {
		name    string
		section string
		want    bool
	}{
		{
			name:    "over threshold",
			section: "Filesystem 1024-blocks Used Available Capacity Mounted on\n/dev/sda3 10000 9300 700 93% /var\n",
			want:    true,
		},
		{
			name:    "exactly at threshold",
			section: "/dev/sda3 10000 9000 1000 90% /var\n",
			want:    true,
		},
		{
			name:    "under threshold",
			section: "/dev/sda3 10000 8900 1100 89% /var\n",
			want:    false,
		},
		{
			name:    "mount point must be a whole field",
			section: "/dev/sda4 10000 9500 500 95% /var/log\n",
			want:    false,
		},
		{
			name:    "other mounts ignored",
			section: "/dev/sda1 10000 9900 100 99% /\n/dev/sda3 10000 5000 5000 50% /var\n",
			want:    false,
		},
		{
			name:    "matching line without percentage is no data",
			section: "df: /var: Input/output error\n",
			want:    false,
		},
		{
			name:    "missing mount line is no data",
			section: "/dev/sda1 10000 9900 100 99% /\n",
			want:    false,
		},
		{
			name:    "empty section",
			section: "",
			want:    false,
		},
		{
			name:    "first percentage on the line decides",
			section: "/dev/sda3 10000 9300 700 93% /var 12%\n",
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.diskOverThreshold(tt.section); got != tt.want {
				t.Errorf("diskOverThreshold(%q) = %v, want %v", tt.section, got, tt.want)
			}
		})
	}
}

func TestHasField(t *testing.T) {
	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"/dev/sda3 10000 9300 700 93% /var", "/var", true},
		{"/dev/sda3 10000 9300 700 93% /var/log", "/var", false},
		{"  /var  ", "/var", true},
		{"", "/var", false},
		{"prefix/var", "/var", false},
	}

	for _, tt := range tests {
		if got := hasField(tt.line, tt.want); got != tt.ok {
			t.Errorf("hasField(%q, %q) = %v, want %v", tt.line, tt.want, got, tt.ok)
		}
	}
}
