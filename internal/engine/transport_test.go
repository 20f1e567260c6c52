package engine

import (
	"os/exec"
	"strings"
	"testing"
	"time"
)

// Close while the process is still producing output nobody reads: the
// read loop must drain out and close Lines instead of parking on a full
// line buffer.
func TestProcessTransport_CloseMidStream(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	conn, err := NewProcess("cat")()
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	// Echo back enough lines to overrun the transport's line buffer
	// while nothing reads Lines.
	for i := 0; i < 200; i++ {
		if err := conn.Send(strings.Repeat("x", 16)); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	closed := make(chan error, 1)
	go func() { closed <- conn.Close() }()
	select {
	case err := <-closed:
		if err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close() did not return")
	}

	select {
	case _, ok := <-conn.Lines():
		if ok {
			t.Error("Lines still delivering after Close")
		}
	case <-time.After(time.Second):
		t.Error("Lines not closed after Close")
	}
}

func TestProcessTransport_RoundTrip(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	conn, err := NewProcess("cat")()
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.Send("isready"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case line := <-conn.Lines():
		if line != "isready" {
			t.Errorf("line = %q, want %q", line, "isready")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no line echoed back")
	}
}
