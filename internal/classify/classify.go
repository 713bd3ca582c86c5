// Package classify turns raw remote command output into per-host access
// and pre-check statuses. Classification is a pure function of the output
// text and the timeout flag: no I/O, no side effects, so the decision
// rules are testable without any transport.
package classify

import (
	"regexp"
	"strings"

	"github.com/opsdrift/fleetcheck/internal/config"
)

// AccessStatus reports whether a host could be reached and the remote
// command started.
type AccessStatus string

const (
	AccessYes AccessStatus = "Yes"
	AccessNo  AccessStatus = "No"
)

// PrecheckStatus reports the outcome of the pre-check script on a host.
type PrecheckStatus string

const (
	// PrecheckDone: script ran, nothing flagged.
	PrecheckDone PrecheckStatus = "Done"
	// PrecheckReviewNeeded: script ran but its output needs operator eyes.
	PrecheckReviewNeeded PrecheckStatus = "Review Needed"
	// PrecheckNotDone: unreachable host, or script could not run as intended.
	PrecheckNotDone PrecheckStatus = "Not Done"
)

// Result is the derived record for one host. Invariant: Precheck is
// PrecheckNotDone whenever Access is AccessNo.
type Result struct {
	Access   AccessStatus
	Precheck PrecheckStatus
}

// Reachable reports whether the host answered at all.
func (r Result) Reachable() bool {
	return r.Access == AccessYes
}

// Classifier applies the ordered decision rules to raw output. Build it
// once per run from an immutable rule set and reuse it for every host.
type Classifier struct {
	rules    config.Rules
	keywords []*regexp.Regexp
}

// New compiles the issue keywords into whole-word matchers. Keywords are
// treated as literals: multi-word keywords match as a phrase with word
// boundaries at both ends, so "warning" matches "Warning: disk low" but
// not "forewarning".
func New(rules config.Rules) *Classifier {
	c := &Classifier{rules: rules}
	for _, kw := range rules.IssueKeywords {
		c.keywords = append(c.keywords, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`\b`))
	}
	return c
}

// Classify decides a host's statuses from its raw combined output and
// the transport's unreachable flag (deadline hit, dial failure, or run
// canceled before the host's turn). Rules are evaluated in strict order;
// the first match wins.
//
// The flag is authoritative: a transport failure counts as unreachable
// even when its error text matches no configured marker, so unlisted
// dialer wordings can never pass as a healthy host.
func (c *Classifier) Classify(raw string, unreachable bool) Result {
	// Rule 1: unreachable. Takes priority over everything else, so output
	// that contains both a connection-failure marker and an issue keyword
	// still classifies as No/Not Done.
	if unreachable || containsAny(raw, c.rules.ConnectionFailures) {
		return Result{Access: AccessNo, Precheck: PrecheckNotDone}
	}

	// The host answered. Remove privilege-prompt echoes before looking at
	// what the script actually printed.
	cleaned := StripPromptEchoes(raw, c.rules.PromptEchoes)

	// Rule 2: reachable but the script never ran as intended. No disk
	// read-through on script failure.
	if containsAny(cleaned, c.rules.ScriptFailures) {
		return Result{Access: AccessYes, Precheck: PrecheckNotDone}
	}

	precheckSection, diskSection := c.splitSections(cleaned)

	issue := c.scanKeywords(precheckSection) || c.diskOverThreshold(diskSection)
	if issue {
		return Result{Access: AccessYes, Precheck: PrecheckReviewNeeded}
	}
	return Result{Access: AccessYes, Precheck: PrecheckDone}
}

// splitSections divides cleaned output at the separator token into the
// pre-check script's output and the disk-usage report. A missing
// separator is not an error: the disk section is simply empty.
func (c *Classifier) splitSections(cleaned string) (precheck, disk string) {
	idx := strings.Index(cleaned, c.rules.Separator)
	if idx < 0 {
		return cleaned, ""
	}
	return cleaned[:idx], cleaned[idx+len(c.rules.Separator):]
}

// scanKeywords reports whether any issue keyword appears in the
// pre-check section as a whole word.
func (c *Classifier) scanKeywords(section string) bool {
	for _, re := range c.keywords {
		if re.MatchString(section) {
			return true
		}
	}
	return false
}

// containsAny reports whether text contains any marker as a
// case-sensitive substring.
func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(text, m) {
			return true
		}
	}
	return false
}
