package classify

import "strings"

// StripPromptEchoes removes lines that are privilege-prompt echoes
// (e.g. "[sudo] password for user:") from output. Running a command
// through a PTY echoes the prompt into the captured stream; it is noise,
// not script output, and must not feed the later matching rules.
//
// A line is dropped when its trimmed form starts with one of the
// configured prefixes. All other lines pass through byte-for-byte,
// including their line endings.
func StripPromptEchoes(raw string, prefixes []string) string {
	if raw == "" || len(prefixes) == 0 {
		return raw
	}

	lines := strings.SplitAfter(raw, "\n")
	var b strings.Builder
	b.Grow(len(raw))
	for _, line := range lines {
		if isPromptEcho(line, prefixes) {
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}

func isPromptEcho(line string, prefixes []string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}
