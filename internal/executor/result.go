package executor

import "time"

// HostResult holds the raw outcome of running the composite command on a
// single host. It is owned by the pipeline only until classification;
// after that just the derived statuses are retained.
type HostResult struct {
	Host     string // display name from the host list
	Output   []byte // combined stdout+stderr; transport error text on dial failure
	TimedOut bool   // per-host deadline hit
	// Unreached is set when the host was never successfully contacted:
	// dial failure, or the run was canceled before this host's turn. It
	// maps straight to unreachable regardless of the output text, so
	// transport errors with unanticipated wording cannot pass as healthy.
	Unreached bool
	ExitCode  int // remote exit status; -1 when the command never ran
	Duration  time.Duration
	Err       error // transport-level error, already reflected in Output
}

// ExitSucceeded reports whether the remote command ran and exited zero.
func (r *HostResult) ExitSucceeded() bool {
	return r.Err == nil && !r.TimedOut && r.ExitCode == 0
}

// Connected reports whether the transport reached the host at all.
// Used for pacing: no point delaying after a host that never answered.
func (r *HostResult) Connected() bool {
	return r.Err == nil && !r.TimedOut && !r.Unreached
}
