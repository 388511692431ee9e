package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/runoshun/git-pilot/internal/domain"
	"github.com/runoshun/git-pilot/internal/usecase/shared"
)

// ShowLogsInput contains the parameters for showing logs.
type ShowLogsInput struct {
	TaskID string // Task ID ("" = global log)
	Lines  int    // Number of lines to display from the end (0 = all)
}

// ShowLogsOutput contains the result of showing logs.
type ShowLogsOutput struct {
	LogPath string // Path to the log file
	Content string // Log file content
}

// ShowLogs is the use case for viewing the operational log of a task or
// of the whole tool.
type ShowLogs struct {
	tasks   domain.TaskRepository
	dataDir string
}

// NewShowLogs creates a new ShowLogs use case.
func NewShowLogs(tasks domain.TaskRepository, dataDir string) *ShowLogs {
	return &ShowLogs{
		tasks:   tasks,
		dataDir: dataDir,
	}
}

// Execute reads and returns the log content.
func (uc *ShowLogs) Execute(_ context.Context, in ShowLogsInput) (*ShowLogsOutput, error) {
	logPath := domain.GlobalLogPath(uc.dataDir)
	if in.TaskID != "" {
		task, err := shared.GetTask(uc.tasks, in.TaskID)
		if err != nil {
			return nil, err
		}
		logPath = domain.TaskLogPath(uc.dataDir, task.ID)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", domain.ErrNoLog, logPath)
		}
		return nil, fmt.Errorf("read log file: %w", err)
	}

	return &ShowLogsOutput{
		LogPath: logPath,
		Content: tailLines(string(content), in.Lines),
	}, nil
}

// tailLines keeps the last n lines of s. n <= 0 keeps everything.
func tailLines(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n") + "\n"
}
