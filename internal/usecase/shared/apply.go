package shared

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/runoshun/git-pilot/internal/domain"
)

// ChangeApplier rewrites resolved files with generated content.
type ChangeApplier struct {
	fs        afero.Fs
	generator domain.ContentGenerator
	logger    domain.Logger
}

// NewChangeApplier creates a new ChangeApplier. logger may be nil.
func NewChangeApplier(fs afero.Fs, generator domain.ContentGenerator, logger domain.Logger) *ChangeApplier {
	return &ChangeApplier{fs: fs, generator: generator, logger: logger}
}

// ApplyInput contains the parameters for applying a change.
// Fields are ordered to minimize memory padding.
type ApplyInput struct {
	TaskID      string              // Task ID used for logging
	Instruction string              // Change request passed to the generator
	Language    string              // Language hint; derived from the extension when empty
	Files       []domain.Resolution // Files in the order they are rewritten
}

// ApplyResult lists the repository-relative paths written so far.
type ApplyResult struct {
	Modified []string
}

// Apply generates and writes each file in order. It stops at the first
// failure; files written before it stay modified and are listed in the
// result, which is returned together with the error.
func (a *ChangeApplier) Apply(ctx context.Context, in ApplyInput) (*ApplyResult, error) {
	result := &ApplyResult{Modified: []string{}}
	for _, file := range in.Files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := a.applyFile(ctx, in, file); err != nil {
			return result, err
		}
		result.Modified = append(result.Modified, file.RelPath)
		a.logf(in.TaskID, "wrote %s", file.RelPath)
	}
	return result, nil
}

func (a *ChangeApplier) applyFile(ctx context.Context, in ApplyInput, file domain.Resolution) error {
	var content string
	perm := os.FileMode(0o644)
	if file.Existed {
		data, err := afero.ReadFile(a.fs, file.Path)
		if err != nil {
			return fmt.Errorf("read %s: %w", file.RelPath, err)
		}
		content = string(data)
		if info, err := a.fs.Stat(file.Path); err == nil {
			perm = info.Mode().Perm()
		}
	}

	lang := in.Language
	if lang == "" {
		lang = domain.LanguageForPath(file.RelPath)
	}

	out, err := a.generator.Generate(ctx, domain.GenerateRequest{
		Content:     content,
		Path:        file.RelPath,
		Instruction: in.Instruction,
		Language:    lang,
	})
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) == "" {
		return fmt.Errorf("%w for %s: empty output", domain.ErrGeneration, file.RelPath)
	}

	if err := a.fs.MkdirAll(filepath.Dir(file.Path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", file.RelPath, err)
	}
	if err := afero.WriteFile(a.fs, file.Path, []byte(out), perm); err != nil {
		return fmt.Errorf("write %s: %w", file.RelPath, err)
	}
	return nil
}

func (a *ChangeApplier) logf(taskID, format string, args ...any) {
	if a.logger != nil {
		a.logger.Info(taskID, "apply", fmt.Sprintf(format, args...))
	}
}
