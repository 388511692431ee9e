// Package executor provides command execution functionality.
package executor

import (
	"context"
	"io"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/runoshun/git-pilot/internal/domain"
)

// waitDelay bounds how long Wait keeps reading output after the process
// group was killed, in case a grandchild still holds the pipes.
const waitDelay = 5 * time.Second

// Client implements domain.CommandExecutor interface.
type Client struct{}

// NewClient creates a new command executor client.
func NewClient() *Client {
	return &Client{}
}

// Ensure Client implements domain.CommandExecutor interface.
var _ domain.CommandExecutor = (*Client)(nil)

// Execute runs the command and returns its combined output.
func (c *Client) Execute(cmd *domain.ExecCommand) ([]byte, error) {
	// #nosec G204 - cmd.Program and cmd.Args come from configuration
	execCmd := exec.Command(cmd.Program, cmd.Args...)
	if cmd.Dir != "" {
		execCmd.Dir = cmd.Dir
	}
	if cmd.Stdin != "" {
		execCmd.Stdin = strings.NewReader(cmd.Stdin)
	}
	return execCmd.CombinedOutput()
}

// ExecuteWithContext runs a command with context and custom stdout/stderr writers.
// The command runs in its own process group; cancelling ctx kills the whole
// group so build tools that fork (mvnw → java) do not outlive the deadline.
func (c *Client) ExecuteWithContext(ctx context.Context, cmd *domain.ExecCommand, stdout, stderr io.Writer) error {
	// #nosec G204 - cmd.Program and cmd.Args come from configuration
	execCmd := exec.CommandContext(ctx, cmd.Program, cmd.Args...)
	if cmd.Dir != "" {
		execCmd.Dir = cmd.Dir
	}
	if cmd.Stdin != "" {
		execCmd.Stdin = strings.NewReader(cmd.Stdin)
	}
	execCmd.Stdout = stdout
	execCmd.Stderr = stderr
	execCmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	execCmd.Cancel = func() error {
		return syscall.Kill(-execCmd.Process.Pid, syscall.SIGKILL)
	}
	execCmd.WaitDelay = waitDelay
	return execCmd.Run()
}
