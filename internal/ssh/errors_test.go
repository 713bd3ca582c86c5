package ssh

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapConnectError_Nil(t *testing.T) {
	if err := WrapConnectError("server1", nil); err != nil {
		t.Errorf("WrapConnectError(nil) = %v, want nil", err)
	}
}

func TestWrapConnectError_ConnectionRefused(t *testing.T) {
	base := errors.New("dial tcp 10.0.0.5:22: connect: connection refused")
	err := WrapConnectError("server1", base)

	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("err = %T, want *ConnectError", err)
	}
	if connErr.Host != "server1" {
		t.Errorf("Host = %q, want server1", connErr.Host)
	}
	if !strings.Contains(connErr.Hint, "SSH daemon") {
		t.Errorf("Hint = %q, want daemon hint", connErr.Hint)
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error lost the cause")
	}
}

func TestWrapConnectError_AuthFailure(t *testing.T) {
	base := errors.New("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none publickey]")
	err := WrapConnectError("server2", base)

	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("err = %T, want *ConnectError", err)
	}
	if !strings.Contains(connErr.Hint, "credential") {
		t.Errorf("Hint = %q, want credential hint", connErr.Hint)
	}
	if !strings.Contains(connErr.Hint, "ssh -v server2") {
		t.Errorf("Hint = %q, want ssh -v suggestion", connErr.Hint)
	}
}

func TestWrapConnectError_DNSFailure(t *testing.T) {
	base := errors.New("dial tcp: lookup server-gone: no such host")
	err := WrapConnectError("server-gone", base)

	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("err = %T, want *ConnectError", err)
	}
	if !strings.Contains(connErr.Hint, "resolvable") {
		t.Errorf("Hint = %q, want resolvable-name hint", connErr.Hint)
	}
}

func TestWrapConnectError_KnownHostsMissing(t *testing.T) {
	base := errors.New("no known_hosts file found at /home/x/.ssh/known_hosts")
	err := WrapConnectError("server3", base)

	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("err = %T, want *ConnectError", err)
	}
	if !strings.Contains(connErr.Hint, "--insecure") {
		t.Errorf("Hint = %q, want --insecure hint", connErr.Hint)
	}
}

func TestWrapConnectError_Unrecognized(t *testing.T) {
	base := errors.New("something entirely else")
	err := WrapConnectError("server4", base)
	if err != base {
		t.Errorf("unrecognized error was wrapped: %v", err)
	}
}

func TestConnectError_Format(t *testing.T) {
	err := &ConnectError{
		Host: "server5",
		Err:  fmt.Errorf("connect: connection refused"),
		Hint: "verify SSH daemon is running on the target host",
	}

	msg := err.Error()
	// The error text itself carries the marker the output classifier scans
	// for; the hint rides along for the run log.
	if !strings.Contains(msg, "connection refused") {
		t.Errorf("Error() = %q, want underlying cause text", msg)
	}
	if !strings.Contains(msg, "hint:") {
		t.Errorf("Error() = %q, want hint", msg)
	}
}
