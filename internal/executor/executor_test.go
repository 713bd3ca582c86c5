package executor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/opsdrift/fleetcheck/internal/classify"
	"github.com/opsdrift/fleetcheck/internal/config"
)

// mockRunner returns scripted results keyed by host name and records the
// order hosts were attempted in.
type mockRunner struct {
	mu      sync.Mutex
	results map[string]*HostResult
	order   []string

	// block makes the named host sleep until its context expires.
	block map[string]bool
}

func (m *mockRunner) Run(ctx context.Context, host config.Host, command string) *HostResult {
	m.mu.Lock()
	m.order = append(m.order, host.Name)
	m.mu.Unlock()

	if m.block[host.Name] {
		<-ctx.Done()
		return &HostResult{Host: host.Name, ExitCode: -1, Err: ctx.Err()}
	}

	if r, ok := m.results[host.Name]; ok {
		cp := *r
		return &cp
	}
	return &HostResult{Host: host.Name, Output: []byte("ok\n"), ExitCode: 0}
}

func namedHosts(names ...string) []config.Host {
	hosts := make([]config.Host, len(names))
	for i, n := range names {
		hosts[i] = config.Host{Name: n, Hostname: n, Port: 22}
	}
	return hosts
}

func TestExecuteSequentialOrder(t *testing.T) {
	runner := &mockRunner{}
	exec := New(runner)
	hosts := namedHosts("c", "a", "b")

	results := exec.Execute(context.Background(), hosts, "true")

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, h := range hosts {
		if results[i].Host != h.Name {
			t.Errorf("results[%d].Host = %q, want %q", i, results[i].Host, h.Name)
		}
	}
	// Sequential execution visits hosts in list order.
	for i, h := range hosts {
		if runner.order[i] != h.Name {
			t.Errorf("order[%d] = %q, want %q", i, runner.order[i], h.Name)
		}
	}
}

func TestExecuteFailureContainment(t *testing.T) {
	runner := &mockRunner{
		results: map[string]*HostResult{
			"bad": {Host: "bad", Output: []byte("Connection refused\n"), ExitCode: -1, Err: errors.New("connect: connection refused")},
		},
	}
	exec := New(runner)

	results := exec.Execute(context.Background(), namedHosts("good1", "bad", "good2"), "true")

	if results[1].Err == nil {
		t.Error("results[1].Err = nil, want transport error")
	}
	// Hosts after the failure still run.
	if results[2].Err != nil {
		t.Errorf("results[2].Err = %v, want nil", results[2].Err)
	}
	if results[2].ExitCode != 0 {
		t.Errorf("results[2].ExitCode = %d, want 0", results[2].ExitCode)
	}
}

func TestExecuteTimeout(t *testing.T) {
	runner := &mockRunner{block: map[string]bool{"slow": true}}
	exec := New(runner, WithTimeout(50*time.Millisecond))

	results := exec.Execute(context.Background(), namedHosts("slow", "fast"), "true")

	slow := results[0]
	if !slow.TimedOut {
		t.Error("TimedOut = false, want true")
	}
	if slow.Err == nil {
		t.Error("Err = nil, want deadline error")
	}
	if !strings.Contains(string(slow.Output), "timed out after") {
		t.Errorf("Output = %q, want timeout sentinel", slow.Output)
	}
	if slow.Connected() {
		t.Error("Connected() = true for timed-out host")
	}

	// The deadline is per host, not per run.
	if results[1].TimedOut {
		t.Error("fast host inherited the slow host's timeout")
	}
}

func TestExecutePerHostTimeoutOverride(t *testing.T) {
	runner := &mockRunner{block: map[string]bool{"slow": true}}
	exec := New(runner, WithTimeout(10*time.Second))

	hosts := namedHosts("slow")
	hosts[0].Timeout = 50 * time.Millisecond

	start := time.Now()
	results := exec.Execute(context.Background(), hosts, "true")
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("host override not applied, took %s", elapsed)
	}
	if !results[0].TimedOut {
		t.Error("TimedOut = false, want true")
	}
}

func TestExecuteProgress(t *testing.T) {
	runner := &mockRunner{}
	var mu sync.Mutex
	var seen []string
	exec := New(runner, WithProgress(func(host string) {
		mu.Lock()
		seen = append(seen, host)
		mu.Unlock()
	}))

	exec.Execute(context.Background(), namedHosts("a", "b", "c"), "true")

	if len(seen) != 3 {
		t.Fatalf("progress called %d times, want 3", len(seen))
	}
}

func TestExecuteDelayPacing(t *testing.T) {
	runner := &mockRunner{}
	delay := 60 * time.Millisecond
	exec := New(runner, WithDelay(delay))

	start := time.Now()
	exec.Execute(context.Background(), namedHosts("a", "b", "c"), "true")
	elapsed := time.Since(start)

	// Two pauses: after a and after b, none after the final host.
	if elapsed < 2*delay {
		t.Errorf("elapsed %s, want at least %s", elapsed, 2*delay)
	}
	if elapsed > 10*delay {
		t.Errorf("elapsed %s, pacing ran long", elapsed)
	}
}

func TestExecuteNoDelayAfterUnreachableHost(t *testing.T) {
	runner := &mockRunner{
		results: map[string]*HostResult{
			"down": {Host: "down", ExitCode: -1, Err: errors.New("connect: no route to host")},
		},
	}
	exec := New(runner, WithDelay(500*time.Millisecond))

	start := time.Now()
	exec.Execute(context.Background(), namedHosts("down", "up"), "true")
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Errorf("paced after an unreachable host, elapsed %s", elapsed)
	}
}

func TestExecuteParallelPreservesOrder(t *testing.T) {
	runner := &mockRunner{
		results: map[string]*HostResult{
			"h1": {Host: "h1", Output: []byte("one\n"), ExitCode: 0},
			"h2": {Host: "h2", Output: []byte("two\n"), ExitCode: 0},
			"h3": {Host: "h3", Output: []byte("three\n"), ExitCode: 1},
		},
	}
	exec := New(runner, WithConcurrency(3))

	results := exec.Execute(context.Background(), namedHosts("h1", "h2", "h3"), "true")

	want := []string{"h1", "h2", "h3"}
	for i, name := range want {
		if results[i].Host != name {
			t.Errorf("results[%d].Host = %q, want %q", i, results[i].Host, name)
		}
	}
	if results[2].ExitCode != 1 {
		t.Errorf("results[2].ExitCode = %d, want 1", results[2].ExitCode)
	}
}

func TestExecuteCanceledContext(t *testing.T) {
	runner := &mockRunner{}
	exec := New(runner)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := exec.Execute(ctx, namedHosts("a", "b"), "true")
	classifier := classify.New(config.DefaultRules())
	for i, r := range results {
		if r == nil {
			t.Fatalf("results[%d] is nil", i)
		}
		if r.Err == nil {
			t.Errorf("results[%d].Err = nil, want context error", i)
		}
		if !r.Unreached {
			t.Errorf("results[%d].Unreached = false, want true", i)
		}
		if r.Connected() {
			t.Errorf("results[%d].Connected() = true for a skipped host", i)
		}
		if !strings.Contains(string(r.Output), "canceled before host was attempted") {
			t.Errorf("results[%d].Output = %q, want skip sentinel", i, r.Output)
		}

		// A never-attempted host must never be reported healthy.
		got := classifier.Classify(string(r.Output), r.TimedOut || r.Unreached)
		if got.Access != classify.AccessNo || got.Precheck != classify.PrecheckNotDone {
			t.Errorf("results[%d] classified %+v, want No/Not Done", i, got)
		}
	}
}

func TestExecuteParallelCanceledContext(t *testing.T) {
	runner := &mockRunner{}
	exec := New(runner, WithConcurrency(2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := exec.Execute(ctx, namedHosts("a", "b", "c"), "true")
	for i, r := range results {
		if r == nil {
			t.Fatalf("results[%d] is nil", i)
		}
		if !r.Unreached {
			t.Errorf("results[%d].Unreached = false, want true", i)
		}
	}
}

func TestHostResultPredicates(t *testing.T) {
	ok := &HostResult{ExitCode: 0}
	if !ok.ExitSucceeded() || !ok.Connected() {
		t.Error("clean result should report success and connected")
	}

	failed := &HostResult{ExitCode: 2}
	if failed.ExitSucceeded() {
		t.Error("nonzero exit reported as success")
	}
	if !failed.Connected() {
		t.Error("nonzero exit should still count as connected")
	}

	timedOut := &HostResult{TimedOut: true, Err: context.DeadlineExceeded}
	if timedOut.Connected() {
		t.Error("timed-out result reported as connected")
	}
}
