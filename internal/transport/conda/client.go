// Package conda drives a conda-compatible package manager (conda, mamba,
// micromamba) as a subprocess.
package conda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/villabioinfo/BLASTr/internal/domain/tool"
	"github.com/villabioinfo/BLASTr/internal/process"
)

// DefaultBinary is used when Config.Binary is empty.
const DefaultBinary = "conda"

// fallbackChannel is always appended after the package channels.
const fallbackChannel = "conda-forge"

// Config holds the package manager settings.
type Config struct {
	// Binary is the package manager executable name or path.
	Binary string
	// Channels are searched before each package's own channel.
	Channels []string
	Runner   process.Runner
	// LookPath resolves executables on PATH. Defaults to exec.LookPath.
	LookPath func(string) (string, error)
	Logger   *zap.Logger
}

// Client runs package manager commands.
type Client struct {
	binary   string
	channels []string
	runner   process.Runner
	lookPath func(string) (string, error)
	logger   *zap.Logger
}

// NewClient creates a package manager client.
func NewClient(cfg *Config) *Client {
	c := &Client{
		binary:   cfg.Binary,
		channels: cfg.Channels,
		runner:   cfg.Runner,
		lookPath: cfg.LookPath,
		logger:   cfg.Logger,
	}
	if c.binary == "" {
		c.binary = DefaultBinary
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.runner == nil {
		c.runner = process.NewExec(c.logger)
	}
	if c.lookPath == nil {
		c.lookPath = exec.LookPath
	}
	return c
}

// baseEnv names the root environment of an installation.
const baseEnv = "base"

type envList struct {
	Envs []string `json:"envs"`
}

// EnvExists reports whether an environment with the given name exists.
// Named environments live under an envs/ directory; install prefixes such as
// /opt/miniconda3 only answer to "base".
func (c *Client) EnvExists(ctx context.Context, name string) (bool, error) {
	var out bytes.Buffer
	if err := c.runner.Run(ctx, process.Request{
		Name:   c.binary,
		Args:   []string{"env", "list", "--json"},
		Stdout: &out,
	}); err != nil {
		return false, fmt.Errorf("list environments: %w", err)
	}
	var list envList
	if err := json.Unmarshal(out.Bytes(), &list); err != nil {
		return false, fmt.Errorf("decode environment list: %w", err)
	}
	if name == baseEnv {
		return len(list.Envs) > 0, nil
	}
	for _, p := range list.Envs {
		if filepath.Base(p) == name && filepath.Base(filepath.Dir(p)) == "envs" {
			return true, nil
		}
	}
	return false, nil
}

// Which reports whether an executable is on PATH.
func (c *Client) Which(name string) bool {
	_, err := c.lookPath(name)
	return err == nil
}

// Available reports whether the package manager itself can be found.
func (c *Client) Available() error {
	if _, err := c.lookPath(c.binary); err != nil {
		return fmt.Errorf("package manager %q: %w", c.binary, err)
	}
	return nil
}

// Create creates environment name with pkgs installed. With overwrite set an
// existing environment of the same name is removed first. An empty pkgs
// creates an empty environment.
func (c *Client) Create(ctx context.Context, name string, pkgs []tool.Package, verbose, overwrite bool) error {
	var tee io.Writer
	if verbose {
		tee = &logWriter{logger: c.logger, env: name}
	}

	if overwrite {
		exists, err := c.EnvExists(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			c.logger.Info("removing environment", zap.String("env", name))
			if err := c.runner.Run(ctx, process.Request{
				Name:   c.binary,
				Args:   []string{"env", "remove", "-y", "-n", name},
				Stdout: io.Discard,
				Stderr: tee,
			}); err != nil {
				return fmt.Errorf("remove environment %s: %w", name, err)
			}
		}
	}

	args := c.createArgs(name, pkgs, verbose)
	c.logger.Info("creating environment",
		zap.String("env", name),
		zap.Int("packages", len(pkgs)),
	)
	stdout := io.Discard
	if tee != nil {
		stdout = tee
	}
	if err := c.runner.Run(ctx, process.Request{
		Name:   c.binary,
		Args:   args,
		Stdout: stdout,
		Stderr: tee,
	}); err != nil {
		return fmt.Errorf("create environment %s: %w", name, err)
	}
	return nil
}

func (c *Client) createArgs(name string, pkgs []tool.Package, verbose bool) []string {
	args := []string{"create", "-y", "-n", name}
	if !verbose {
		args = append(args, "--quiet")
	}
	seen := make(map[string]bool)
	addChannel := func(ch string) {
		if ch == "" || seen[ch] {
			return
		}
		seen[ch] = true
		args = append(args, "-c", ch)
	}
	for _, ch := range c.channels {
		addChannel(ch)
	}
	for _, p := range pkgs {
		addChannel(p.Channel)
	}
	if len(pkgs) > 0 {
		addChannel(fallbackChannel)
	}
	for _, p := range pkgs {
		args = append(args, p.Spec())
	}
	return args
}

// Invocation is a tool run inside an environment.
type Invocation struct {
	Env    string
	Tool   string
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
	// Verbose echoes the tool's stderr into the log.
	Verbose bool
}

// Run executes a tool inside the named environment.
func (c *Client) Run(ctx context.Context, inv Invocation) error {
	args := append([]string{"run", "-n", inv.Env, inv.Tool}, inv.Args...)
	req := process.Request{
		Name:   c.binary,
		Args:   args,
		Stdin:  inv.Stdin,
		Stdout: inv.Stdout,
	}
	if inv.Verbose {
		req.Stderr = &logWriter{logger: c.logger, env: inv.Env}
	}
	return c.runner.Run(ctx, req)
}

// logWriter forwards tool output lines to the logger at debug level.
type logWriter struct {
	logger *zap.Logger
	env    string
}

func (w *logWriter) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		if len(line) > 0 {
			w.logger.Debug("tool output", zap.String("env", w.env), zap.ByteString("line", line))
		}
	}
	return len(p), nil
}
