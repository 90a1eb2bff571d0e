// Package process runs external tools as child processes.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// stderrLimit caps how much tool stderr is kept in an error message.
const stderrLimit = 4 << 10

// waitDelay bounds how long Run waits for output pipes to close after the
// process group was killed.
const waitDelay = 2 * time.Second

// Request describes one child process.
type Request struct {
	Name   string
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
	// Stderr, if set, also receives the tool's stderr as it is written.
	Stderr io.Writer
}

// Runner starts a child process and waits for it to exit.
type Runner interface {
	Run(ctx context.Context, req Request) error
}

// ExitError reports a child process that failed to start or exited non-zero.
type ExitError struct {
	Cmd    string
	Err    error
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("running %q: %v", e.Cmd, e.Err)
	}
	return fmt.Sprintf("running %q: %v: %s", e.Cmd, e.Err, e.Stderr)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode returns the process exit code, or -1 if it never exited normally.
func (e *ExitError) ExitCode() int {
	var ee *exec.ExitError
	if errors.As(e.Err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

// Exec runs requests with os/exec. When ctx is done the child and every
// process it spawned are killed, and Run returns once they are reaped.
type Exec struct {
	logger *zap.Logger
}

// NewExec creates an Exec runner. A nil logger disables command logging.
func NewExec(logger *zap.Logger) *Exec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exec{logger: logger}
}

// Run implements Runner.
func (x *Exec) Run(ctx context.Context, req Request) error {
	cmd := exec.CommandContext(ctx, req.Name, req.Args...)
	setProcessGroup(cmd)
	cmd.WaitDelay = waitDelay
	cmd.Stdin = req.Stdin
	cmd.Stdout = req.Stdout

	var stderr bytes.Buffer
	if req.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, req.Stderr)
	} else {
		cmd.Stderr = &stderr
	}

	full := strings.Join(cmd.Args, " ")
	x.logger.Debug("exec", zap.String("cmd", full))

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		return &ExitError{Cmd: full, Err: err, Stderr: trimStderr(stderr.String())}
	}
	return nil
}

func trimStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrLimit {
		s = "..." + s[len(s)-stderrLimit:]
	}
	return s
}
