package classify

import (
	"regexp"
	"strconv"
	"strings"
)

// percentRe finds percentage-formatted numbers like "93%".
var percentRe = regexp.MustCompile(`(\d+)%`)

// diskOverThreshold scans the disk-usage report line by line for the
// monitored mount point and compares the first percentage on a matching
// line against the threshold. The mount point must appear as a whole
// whitespace-separated field so /var does not match /var/log.
//
// Absence of a matching line, or a matching line with no parseable
// percentage, is "no data", not an issue.
func (c *Classifier) diskOverThreshold(section string) bool {
	if section == "" {
		return false
	}

	for _, line := range strings.Split(section, "\n") {
		if !hasField(line, c.rules.MountPoint) {
			continue
		}
		m := percentRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		pct, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if pct >= c.rules.DiskThreshold {
			return true
		}
	}
	return false
}

// hasField reports whether any whitespace-separated field of line equals want.
func hasField(line, want string) bool {
	for _, f := range strings.Fields(line) {
		if f == want {
			return true
		}
	}
	return false
}
