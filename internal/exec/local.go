package exec

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rileyhilliard/mactop/internal/errors"
)

// WaitDelay is how long a terminated process gets to exit after SIGTERM
// before it is killed and its pipes are closed.
var WaitDelay = 3 * time.Second

// maxStderr caps how much stderr a long-lived process keeps around.
const maxStderr = 64 * 1024

// Process is a running command whose stdout is read as a stream.
type Process struct {
	// Stdout is the command's standard output. It is closed once the process
	// has been waited on.
	Stdout io.Reader

	name   string
	cmd    *exec.Cmd
	ctx    context.Context
	cancel context.CancelFunc
	stderr *tailBuffer

	mu         sync.Mutex
	terminated bool
	waitOnce   sync.Once
	waitErr    error
}

// Start launches name with args and returns a handle streaming its stdout.
// Cancelling ctx has the same effect as Terminate.
func Start(ctx context.Context, name string, args ...string) (*Process, error) {
	ctx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = WaitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't create stdout pipe",
			"This shouldn't happen - please report this bug!")
	}

	p := &Process{
		Stdout: stdout,
		name:   name,
		cmd:    cmd,
		ctx:    ctx,
		cancel: cancel,
		stderr: &tailBuffer{limit: maxStderr},
	}
	cmd.Stderr = p.stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Couldn't start %s", name),
			"Make sure the command exists and is executable.")
	}

	return p, nil
}

// Pid returns the operating system process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Wait blocks until the process exits and reaps it. Safe to call more than
// once. Exits caused by Terminate or by cancelling the context are not errors.
func (p *Process) Wait() error {
	p.waitOnce.Do(func() {
		err := p.cmd.Wait()

		p.mu.Lock()
		terminated := p.terminated || p.ctx.Err() != nil
		p.mu.Unlock()

		if err == nil || terminated {
			return
		}

		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			if diagnosed := HandleExecError(p.name, p.stderr.String(), exitErr.ExitCode(), err); diagnosed != nil {
				p.waitErr = diagnosed
				return
			}
			p.waitErr = errors.WrapWithCode(err, errors.ErrExec,
				fmt.Sprintf("%s exited with code %d", p.name, exitErr.ExitCode()),
				strings.TrimSpace(p.stderr.String()))
			return
		}
		p.waitErr = errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Failed waiting on %s", p.name),
			"")
	})
	return p.waitErr
}

// Terminate sends SIGTERM, escalates to SIGKILL after WaitDelay, and reaps
// the process so no zombie is left behind.
func (p *Process) Terminate() error {
	p.mu.Lock()
	p.terminated = true
	p.mu.Unlock()

	p.cancel()
	return p.Wait()
}

// Exited reports whether the process has been reaped.
func (p *Process) Exited() bool {
	return p.cmd.ProcessState != nil
}

// Stderr returns the most recent stderr output.
func (p *Process) Stderr() string {
	return p.stderr.String()
}

// Capture runs name with args to completion and returns its stdout.
// A non-zero exit is an ErrExec error carrying the command's stderr.
func Capture(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr == nil {
		return stdout.Bytes(), nil
	}

	var exitErr *exec.ExitError
	if stderrors.As(runErr, &exitErr) {
		if diagnosed := HandleExecError(name, stderr.String(), exitErr.ExitCode(), runErr); diagnosed != nil {
			return stdout.Bytes(), diagnosed
		}
		return stdout.Bytes(), errors.WrapWithCode(runErr, errors.ErrExec,
			fmt.Sprintf("%s exited with code %d", name, exitErr.ExitCode()),
			strings.TrimSpace(stderr.String()))
	}
	return nil, errors.WrapWithCode(runErr, errors.ErrExec,
		fmt.Sprintf("Couldn't run %s", name),
		"Make sure the command exists and is executable.")
}

// CaptureFunc matches Capture so callers can substitute a fake in tests.
type CaptureFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// StartFunc matches Start so callers can substitute a fake in tests.
type StartFunc func(ctx context.Context, name string, args ...string) (*Process, error)

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
