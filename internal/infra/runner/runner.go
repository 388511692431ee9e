// Package runner provides test command execution for workspaces.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/runoshun/git-pilot/internal/domain"
)

// Client implements domain.TestRunner interface.
// Fields are ordered to minimize memory padding.
type Client struct {
	executor domain.CommandExecutor
	lookPath func(string) (string, error)
	cfg      domain.TestConfig
}

// NewClient creates a new test runner client.
func NewClient(executor domain.CommandExecutor, cfg domain.TestConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = domain.DefaultTestTimeout
	}
	if cfg.TailLength <= 0 {
		cfg.TailLength = domain.DefaultTestTailLength
	}
	return &Client{
		executor: executor,
		lookPath: exec.LookPath,
		cfg:      cfg,
	}
}

// Ensure Client implements domain.TestRunner interface.
var _ domain.TestRunner = (*Client)(nil)

// Command selects the test command for dir: the first wrapper script present
// in dir, otherwise the first tool found on PATH.
func (c *Client) Command(dir string) (*domain.ExecCommand, string, error) {
	args := c.cfg.Args
	for _, name := range c.cfg.Wrappers {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		display := strings.Join(append([]string{"./" + name}, args...), " ")
		if info.Mode().Perm()&0o111 == 0 {
			// Wrapper checked in without the executable bit
			return &domain.ExecCommand{
				Program: "sh",
				Args:    append([]string{path}, args...),
				Dir:     dir,
			}, display, nil
		}
		return &domain.ExecCommand{Program: path, Args: args, Dir: dir}, display, nil
	}
	for _, name := range c.cfg.Tools {
		path, err := c.lookPath(name)
		if err != nil {
			continue
		}
		display := strings.Join(append([]string{name}, args...), " ")
		return &domain.ExecCommand{Program: path, Args: args, Dir: dir}, display, nil
	}
	return nil, "", fmt.Errorf("%w: tried %s", domain.ErrNoTestRunner, strings.Join(c.candidates(), ", "))
}

func (c *Client) candidates() []string {
	names := make([]string, 0, len(c.cfg.Wrappers)+len(c.cfg.Tools))
	for _, w := range c.cfg.Wrappers {
		names = append(names, "./"+w)
	}
	return append(names, c.cfg.Tools...)
}

// Run executes the test command in dir. A non-zero exit is a normal result;
// an error means no exit code could be obtained.
func (c *Client) Run(ctx context.Context, dir string) (*domain.TestResult, error) {
	cmd, display, err := c.Command(dir)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	stdout := newTailBuffer(c.cfg.TailLength)
	stderr := newTailBuffer(c.cfg.TailLength)
	err = c.executor.ExecuteWithContext(runCtx, cmd, stdout, stderr)

	result := &domain.TestResult{
		Command: display,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, fmt.Errorf("%w: %s exceeded %s", domain.ErrTestTimeout, display, c.cfg.Timeout.Round(time.Second))
	}
	if err == nil {
		return result, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	return nil, fmt.Errorf("run %s: %w", display, err)
}

// tailBuffer keeps the last limit characters written to it.
// Bytes are capped at 4*limit so a UTF-8 tail of limit runes always fits.
type tailBuffer struct {
	buf   []byte
	limit int
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if maxBytes := 4 * b.limit; len(b.buf) > maxBytes {
		cut := len(b.buf) - maxBytes
		for cut < len(b.buf) && !utf8.RuneStart(b.buf[cut]) {
			cut++
		}
		b.buf = append(b.buf[:0], b.buf[cut:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return Tail(string(b.buf), b.limit)
}

// Tail returns the last n characters of s.
func Tail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
