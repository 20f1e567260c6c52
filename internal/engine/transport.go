package engine

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
)

// Transport is a line-oriented connection to a UCI engine.
type Transport interface {
	// Send writes one command line to the engine.
	Send(cmd string) error

	// Lines returns the channel of output lines read from the engine.
	// The channel is closed when the engine exits or the transport closes.
	Lines() <-chan string

	// Close terminates the connection and releases resources.
	Close() error
}

// DialFunc establishes a fresh engine connection. The client redials after
// a transport failure, so the function must be reusable.
type DialFunc func() (Transport, error)

// NewProcess returns a DialFunc that launches the engine binary at path
// with the given arguments and speaks UCI over its stdin/stdout pipes.
func NewProcess(path string, args ...string) DialFunc {
	return func() (Transport, error) {
		cmd := exec.Command(path, args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("stdin pipe: %w", err)
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("stdout pipe: %w", err)
		}
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("starting engine %s: %w", path, err)
		}

		p := &process{
			cmd:   cmd,
			stdin: stdin,
			lines: make(chan string, 64),
		}
		go p.readLoop(stdout)
		return p, nil
	}
}

type process struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string
}

func (p *process) readLoop(stdout io.Reader) {
	defer close(p.lines)
	scanner := bufio.NewScanner(stdout)
	// Long PV lines at high depth can exceed the default token size.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		p.lines <- scanner.Text()
	}
}

func (p *process) Send(cmd string) error {
	_, err := io.WriteString(p.stdin, cmd+"\n")
	return err
}

func (p *process) Lines() <-chan string {
	return p.lines
}

func (p *process) Close() error {
	// Ask the engine to quit; if the pipe is already broken, fall through
	// to reaping the process anyway.
	_ = p.Send("quit")
	_ = p.stdin.Close()
	// After a mid-search teardown no one is reading Lines. Drain until the
	// read loop hits EOF and closes the channel, otherwise it stays parked
	// on a full buffer.
	for range p.lines {
	}
	return p.cmd.Wait()
}
