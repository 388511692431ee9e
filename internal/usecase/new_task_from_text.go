package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/git-pilot/internal/domain"
	"github.com/runoshun/git-pilot/internal/usecase/shared"
)

// NewTaskFromTextInput contains the parameters for creating a task from a
// free-text request.
type NewTaskFromTextInput struct {
	Message string // Change request (required)
	Source  string // Source label (optional)
}

// NewTaskFromTextOutput contains the result of creating a task from text.
// Fields are ordered to minimize memory padding.
type NewTaskFromTextOutput struct {
	Task      *domain.Task // The created task
	Requested []string     // Files proposed by the spec generator
	Guessed   bool         // True if no proposed file was tracked and one was guessed
}

// NewTaskFromText is the use case for turning a message into a task with
// the spec generator.
type NewTaskFromText struct {
	tasks     domain.TaskRepository
	git       domain.Git
	specs     domain.SpecGenerator
	opener    *shared.WorkspaceOpener
	ids       domain.IDGenerator
	clock     domain.Clock
	logger    domain.Logger
	defaults  TaskDefaults
	fileLimit int
}

// NewNewTaskFromText creates a new NewTaskFromText use case.
func NewNewTaskFromText(
	tasks domain.TaskRepository,
	git domain.Git,
	specs domain.SpecGenerator,
	opener *shared.WorkspaceOpener,
	ids domain.IDGenerator,
	clock domain.Clock,
	logger domain.Logger,
	defaults TaskDefaults,
) *NewTaskFromText {
	return &NewTaskFromText{
		tasks:     tasks,
		git:       git,
		specs:     specs,
		opener:    opener,
		ids:       ids,
		clock:     clock,
		logger:    logger,
		defaults:  defaults,
		fileLimit: domain.DefaultSpecFileLimit,
	}
}

// Execute synchronizes the workspace, asks the spec generator for a task
// and keeps only the proposed files that are tracked. When none survive,
// a single best-guess file is used and the guess is recorded on the
// timeline.
func (uc *NewTaskFromText) Execute(ctx context.Context, in NewTaskFromTextInput) (*NewTaskFromTextOutput, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, domain.ErrEmptyMessage
	}

	tracked, err := uc.trackedFiles(ctx)
	if err != nil {
		return nil, err
	}

	candidates := tracked
	if len(candidates) > uc.fileLimit {
		candidates = candidates[:uc.fileLimit]
	}
	spec, err := uc.specs.GenerateSpec(ctx, domain.SpecRequest{Message: message, Files: candidates})
	if err != nil {
		return nil, fmt.Errorf("generate task spec: %w", err)
	}

	selection := domain.SelectAffectedFiles(spec.AffectedFiles, tracked)
	files := selection.Files
	if selection.Insufficient {
		files = []string{domain.BestGuessFile(message, tracked)}
	}

	priority, err := domain.NormalizePriority(spec.Priority)
	if err != nil {
		priority = domain.DefaultTaskPriority
	}

	task, err := buildTask(uc.ids, uc.clock, uc.defaults, NewTaskInput{
		Title:              firstNonEmpty(strings.TrimSpace(spec.Title), domain.DefaultTaskTitle),
		Description:        firstNonEmpty(strings.TrimSpace(spec.Description), message),
		Type:               spec.Type,
		Priority:           priority,
		Source:             in.Source,
		AffectedFiles:      files,
		AcceptanceCriteria: spec.AcceptanceCriteria,
	})
	if err != nil {
		return nil, err
	}
	if selection.Insufficient {
		task.AddEvent(domain.EventFilesGuessed, task.CreatedAt, map[string]any{
			"requested": spec.AffectedFiles,
			"files":     files,
		})
	}

	if err := uc.tasks.Create(task); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}

	if uc.logger != nil {
		uc.logger.Info(task.ID, "task", fmt.Sprintf("created from message: %q (files: %s)", task.Title, strings.Join(files, ", ")))
		if selection.Insufficient {
			uc.logger.Warn(task.ID, "task", fmt.Sprintf("no proposed file is tracked %v, guessed %s", spec.AffectedFiles, files[0]))
		}
	}

	return &NewTaskFromTextOutput{
		Task:      task,
		Requested: spec.AffectedFiles,
		Guessed:   selection.Insufficient,
	}, nil
}

// trackedFiles lists the repository's tracked files from a freshly
// synchronized workspace. The lease is held only while listing.
func (uc *NewTaskFromText) trackedFiles(ctx context.Context) ([]string, error) {
	dir, release, err := uc.opener.Open(ctx, uc.defaults.Repo)
	if err != nil {
		return nil, err
	}
	defer release()

	tracked, err := uc.git.TrackedFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("list tracked files: %w", err)
	}
	if len(tracked) == 0 {
		return nil, domain.ErrNoTrackedFiles
	}
	return tracked, nil
}
