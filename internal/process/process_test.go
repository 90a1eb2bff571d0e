package process

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExec_Stdout(t *testing.T) {
	var out bytes.Buffer
	err := NewExec(nil).Run(context.Background(), Request{
		Name:   "sh",
		Args:   []string{"-c", "cat; echo done"},
		Stdin:  strings.NewReader("hello\n"),
		Stdout: &out,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "hello\ndone\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestExec_NonZeroExit(t *testing.T) {
	var tee bytes.Buffer
	err := NewExec(nil).Run(context.Background(), Request{
		Name:   "sh",
		Args:   []string{"-c", "echo 'BLAST Database error' >&2; exit 2"},
		Stdout: &bytes.Buffer{},
		Stderr: &tee,
	})
	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if ee.ExitCode() != 2 {
		t.Errorf("ExitCode() = %d", ee.ExitCode())
	}
	if ee.Stderr != "BLAST Database error" {
		t.Errorf("Stderr = %q", ee.Stderr)
	}
	if !strings.Contains(tee.String(), "BLAST Database error") {
		t.Errorf("stderr tee = %q", tee.String())
	}
	if !strings.Contains(err.Error(), "sh -c") {
		t.Errorf("error should name the command: %v", err)
	}
}

func TestExec_MissingBinary(t *testing.T) {
	err := NewExec(nil).Run(context.Background(), Request{Name: "blastr-no-such-binary"})
	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if ee.ExitCode() != -1 {
		t.Errorf("ExitCode() = %d, want -1", ee.ExitCode())
	}
}

func TestExec_ContextDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := NewExec(nil).Run(ctx, Request{Name: "sleep", Args: []string{"5"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Error("process was not killed on deadline")
	}
}

func TestTrimStderr(t *testing.T) {
	long := strings.Repeat("x", stderrLimit+10)
	got := trimStderr(long)
	if !strings.HasPrefix(got, "...") || len(got) != stderrLimit+3 {
		t.Errorf("trimStderr length = %d", len(got))
	}
}
