// Package report accumulates per-host classifications and writes the
// run's outputs: two Excel-pasteable column files, a verbose log, and a
// terminal summary.
package report

import (
	"fmt"
	"sync"
	"time"

	"github.com/opsdrift/fleetcheck/internal/classify"
)

// Entry is one host's finished record: the derived statuses plus the
// cleaned output retained for the verbose log.
type Entry struct {
	Host     string
	Access   classify.AccessStatus
	Precheck classify.PrecheckStatus
	Output   string
	Duration time.Duration
}

// RowCountError reports a mismatch between recorded rows and the target
// count. It is a sanity warning, not a run failure: output files are
// still written so the operator sees what was collected.
type RowCountError struct {
	Expected int
	Recorded int
}

func (e *RowCountError) Error() string {
	return fmt.Sprintf("row count mismatch: %d hosts targeted but %d rows recorded", e.Expected, e.Recorded)
}

// Run collects one Entry per host, in record order. The append path is
// mutex-guarded so a concurrent executor can feed it; with the default
// sequential executor the lock is uncontended.
type Run struct {
	mu       sync.Mutex
	expected int
	entries  []Entry
	started  time.Time
}

// NewRun creates an empty report for a run targeting expected hosts.
func NewRun(expected int) *Run {
	return &Run{
		expected: expected,
		entries:  make([]Entry, 0, expected),
		started:  time.Now(),
	}
}

// Record appends one host's classification. Call order defines row order.
func (r *Run) Record(host string, result classify.Result, output string, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{
		Host:     host,
		Access:   result.Access,
		Precheck: result.Precheck,
		Output:   output,
		Duration: duration,
	})
}

// Entries returns the recorded rows in record order.
func (r *Run) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Summary holds the finalized per-status counts for a run.
type Summary struct {
	Targeted     int
	Reachable    int
	Unreachable  int
	Done         int
	ReviewNeeded int
	NotDone      int
	Elapsed      time.Duration

	// Warning is non-nil when the row count does not match the target
	// count. Surfaced to the operator; never blocks output emission.
	Warning *RowCountError
}

// Finalize derives the summary counts and checks the row-count
// invariant. Counting only — safe for an all-failure run with zero
// reachable hosts.
func (r *Run) Finalize() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{
		Targeted: r.expected,
		Elapsed:  time.Since(r.started),
	}

	for _, e := range r.entries {
		switch e.Access {
		case classify.AccessYes:
			s.Reachable++
		case classify.AccessNo:
			s.Unreachable++
		}
		switch e.Precheck {
		case classify.PrecheckDone:
			s.Done++
		case classify.PrecheckReviewNeeded:
			s.ReviewNeeded++
		case classify.PrecheckNotDone:
			s.NotDone++
		}
	}

	if len(r.entries) != r.expected {
		s.Warning = &RowCountError{Expected: r.expected, Recorded: len(r.entries)}
	}

	return s
}
