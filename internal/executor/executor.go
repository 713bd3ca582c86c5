package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/opsdrift/fleetcheck/internal/config"
)

// Runner is the interface the SSH layer implements to execute one
// command on one host. It must not block past the context deadline and
// must not leak connections on timeout.
type Runner interface {
	Run(ctx context.Context, host config.Host, command string) *HostResult
}

// Executor walks a host list and runs the composite command on each
// target. The default is strict sequential order with optional pacing
// between hosts; bounded concurrency is available for large fleets, in
// which case results are still returned in host-list order.
type Executor struct {
	runner      Runner
	concurrency int64
	timeout     time.Duration
	delay       time.Duration
	progress    func(host string)
}

// Option configures an Executor.
type Option func(*Executor)

// WithConcurrency sets the maximum number of hosts processed at once.
func WithConcurrency(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.concurrency = int64(n)
		}
	}
}

// WithTimeout sets the per-host connect-plus-execute timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithDelay sets the pacing pause after each successfully contacted,
// non-final host. Only applies to sequential (concurrency 1) runs.
func WithDelay(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.delay = d
		}
	}
}

// WithProgress registers a callback invoked as each host completes.
func WithProgress(fn func(host string)) Option {
	return func(e *Executor) {
		e.progress = fn
	}
}

// New creates an Executor with the given Runner and options.
func New(runner Runner, opts ...Option) *Executor {
	e := &Executor{
		runner:      runner,
		concurrency: 1,
		timeout:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs command on every host. One host's failure never aborts
// the rest: transport errors are folded into that host's result. Results
// are returned in host-list order regardless of completion order.
func (e *Executor) Execute(ctx context.Context, hosts []config.Host, command string) []*HostResult {
	if e.concurrency <= 1 {
		return e.executeSequential(ctx, hosts, command)
	}
	return e.executeParallel(ctx, hosts, command)
}

func (e *Executor) executeSequential(ctx context.Context, hosts []config.Host, command string) []*HostResult {
	results := make([]*HostResult, len(hosts))

	for i, host := range hosts {
		if ctx.Err() != nil {
			results[i] = skippedResult(host.Name, ctx.Err())
			continue
		}

		results[i] = e.runOne(ctx, host, command)
		if e.progress != nil {
			e.progress(host.Name)
		}

		// Pacing between hosts. Skipped after the last host and after
		// hosts that never answered.
		if e.delay > 0 && i < len(hosts)-1 && results[i].Connected() {
			select {
			case <-time.After(e.delay):
			case <-ctx.Done():
			}
		}
	}

	return results
}

func (e *Executor) executeParallel(ctx context.Context, hosts []config.Host, command string) []*HostResult {
	results := make([]*HostResult, len(hosts))
	sem := semaphore.NewWeighted(e.concurrency)
	var wg sync.WaitGroup

	for i, host := range hosts {
		wg.Add(1)
		go func(idx int, h config.Host) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				results[idx] = skippedResult(h.Name, err)
				return
			}
			defer sem.Release(1)

			// Acquire can succeed on a canceled context when capacity is
			// free; re-check so canceled runs skip instead of executing.
			if err := ctx.Err(); err != nil {
				results[idx] = skippedResult(h.Name, err)
				return
			}

			results[idx] = e.runOne(ctx, h, command)
			if e.progress != nil {
				e.progress(h.Name)
			}
		}(i, host)
	}

	wg.Wait()
	return results
}

// skippedResult records a host the run never attempted (canceled before
// its turn). Marked unreached so it reports as unreachable, never as a
// healthy host with empty output.
func skippedResult(host string, err error) *HostResult {
	return &HostResult{
		Host:      host,
		Output:    []byte(fmt.Sprintf("fleetcheck: run canceled before host was attempted: %v\n", err)),
		Unreached: true,
		ExitCode:  -1,
		Err:       err,
	}
}

// runOne executes the command on a single host under a per-host timeout
// derived from the parent context.
func (e *Executor) runOne(ctx context.Context, host config.Host, command string) *HostResult {
	timeout := e.timeout
	if host.Timeout > 0 {
		timeout = host.Timeout
	}
	hostCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result := e.runner.Run(hostCtx, host, command)
	result.Duration = time.Since(start)
	result.Host = host.Name

	// Deadline expiry becomes the timedOut flag plus a sentinel message
	// in the blob, so downstream classification needs no transport types.
	if hostCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		if result.Err == nil {
			result.Err = context.DeadlineExceeded
		}
		result.Output = append(result.Output, []byte(fmt.Sprintf("fleetcheck: timed out after %s\n", timeout))...)
	}

	return result
}
