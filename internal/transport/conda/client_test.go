package conda

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/villabioinfo/BLASTr/internal/domain/tool"
	"github.com/villabioinfo/BLASTr/internal/process"
)

type fakeRunner struct {
	mu       sync.Mutex
	requests []process.Request
	stdout   map[string]string
	errs     map[string]error
}

func (f *fakeRunner) Run(_ context.Context, req process.Request) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	key := strings.Join(req.Args, " ")
	for prefix, out := range f.stdout {
		if strings.HasPrefix(key, prefix) && req.Stdout != nil {
			_, _ = io.WriteString(req.Stdout, out)
		}
	}
	for prefix, err := range f.errs {
		if strings.HasPrefix(key, prefix) {
			return err
		}
	}
	return nil
}

func (f *fakeRunner) argLines() []string {
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = strings.Join(r.Args, " ")
	}
	return out
}

const envListJSON = `{"envs": ["/home/u/miniconda3", "/home/u/miniconda3/envs/blast-env", "/home/u/.conda/envs/entrez"]}`

func newTestClient(r *fakeRunner, onPath ...string) *Client {
	return NewClient(&Config{
		Binary: "micromamba",
		Runner: r,
		LookPath: func(name string) (string, error) {
			if slices.Contains(onPath, name) {
				return "/usr/bin/" + name, nil
			}
			return "", exec.ErrNotFound
		},
	})
}

func TestEnvExists(t *testing.T) {
	r := &fakeRunner{stdout: map[string]string{"env list": envListJSON}}
	c := newTestClient(r)

	tests := []struct {
		name string
		want bool
	}{
		{"blast-env", true},
		{"entrez", true},
		{"base", true},
		{"miniconda3", false}, // install prefix, not a named env
		{"u", false},
		{"blast", false},
	}
	for _, tc := range tests {
		got, err := c.EnvExists(context.Background(), tc.name)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tc.want {
			t.Errorf("EnvExists(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
	if r.requests[0].Name != "micromamba" {
		t.Errorf("binary = %q", r.requests[0].Name)
	}
}

func TestEnvExists_Errors(t *testing.T) {
	boom := errors.New("boom")
	c := newTestClient(&fakeRunner{errs: map[string]error{"env list": boom}})
	if _, err := c.EnvExists(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("expected runner error, got %v", err)
	}

	c = newTestClient(&fakeRunner{stdout: map[string]string{"env list": "not json"}})
	if _, err := c.EnvExists(context.Background(), "x"); err == nil {
		t.Error("expected decode error")
	}
}

func TestWhichAndAvailable(t *testing.T) {
	c := newTestClient(&fakeRunner{}, "blastn")
	if !c.Which("blastn") {
		t.Error("Which(blastn) = false")
	}
	if c.Which("efetch") {
		t.Error("Which(efetch) = true")
	}
	if err := c.Available(); err == nil {
		t.Error("expected micromamba to be unavailable")
	}
}

func TestCreate_WithPackage(t *testing.T) {
	r := &fakeRunner{}
	c := newTestClient(r)
	pkg, _ := tool.Lookup("blastn")

	if err := c.Create(context.Background(), "blast-env", []tool.Package{pkg}, false, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"create -y -n blast-env --quiet -c bioconda -c conda-forge blast==2.16.0"}
	if got := r.argLines(); !slices.Equal(got, want) {
		t.Errorf("commands =\n%v\nwant\n%v", got, want)
	}
}

func TestCreate_Empty(t *testing.T) {
	r := &fakeRunner{}
	c := newTestClient(r)
	if err := c.Create(context.Background(), "blast-env", nil, true, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"create -y -n blast-env"}
	if got := r.argLines(); !slices.Equal(got, want) {
		t.Errorf("commands = %v, want %v", got, want)
	}
}

func TestCreate_OverwriteRemovesExisting(t *testing.T) {
	r := &fakeRunner{stdout: map[string]string{"env list": envListJSON}}
	c := newTestClient(r)
	pkg, _ := tool.Lookup("efetch")

	if err := c.Create(context.Background(), "blast-env", []tool.Package{pkg}, false, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := r.argLines()
	want := []string{
		"env list --json",
		"env remove -y -n blast-env",
		"create -y -n blast-env --quiet -c bioconda -c conda-forge entrez-direct==22.4",
	}
	if !slices.Equal(got, want) {
		t.Errorf("commands =\n%v\nwant\n%v", got, want)
	}
}

func TestCreate_OverwriteSkipsRemoveWhenMissing(t *testing.T) {
	r := &fakeRunner{stdout: map[string]string{"env list": envListJSON}}
	c := newTestClient(r)
	if err := c.Create(context.Background(), "fresh", nil, false, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.argLines(); len(got) != 2 || got[1] != "create -y -n fresh --quiet" {
		t.Errorf("commands = %v", got)
	}
}

func TestCreate_ExtraChannelsDeduplicated(t *testing.T) {
	r := &fakeRunner{}
	c := NewClient(&Config{Channels: []string{"conda-forge", "bioconda"}, Runner: r})
	pkg, _ := tool.Lookup("blastn")
	_ = c.Create(context.Background(), "e", []tool.Package{pkg}, false, false)

	want := "create -y -n e --quiet -c conda-forge -c bioconda blast==2.16.0"
	if got := r.argLines()[0]; got != want {
		t.Errorf("command = %q, want %q", got, want)
	}
	if r.requests[0].Name != DefaultBinary {
		t.Errorf("binary = %q", r.requests[0].Name)
	}
}

func TestCreate_Failure(t *testing.T) {
	boom := errors.New("solver failed")
	c := newTestClient(&fakeRunner{errs: map[string]error{"create": boom}})
	err := c.Create(context.Background(), "e", nil, false, false)
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped runner error, got %v", err)
	}
}

func TestRun(t *testing.T) {
	r := &fakeRunner{stdout: map[string]string{"run": "row\n"}}
	c := newTestClient(r)
	var out strings.Builder

	err := c.Run(context.Background(), Invocation{
		Env:    "blast-env",
		Tool:   "blastn",
		Args:   []string{"-query", "q.fa"},
		Stdout: &out,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.argLines()[0]; got != "run -n blast-env blastn -query q.fa" {
		t.Errorf("command = %q", got)
	}
	if out.String() != "row\n" {
		t.Errorf("stdout = %q", out.String())
	}
	if r.requests[0].Stderr != nil {
		t.Error("stderr tee should be nil when not verbose")
	}
}
