package shared

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sourcegraph/conc/iter"
	"github.com/spf13/afero"

	"github.com/runoshun/git-pilot/internal/domain"
)

// FileResolver maps the paths declared on a task to files in a workspace.
type FileResolver struct {
	fs afero.Fs
}

// NewFileResolver creates a new FileResolver reading from fs.
func NewFileResolver(fs afero.Fs) *FileResolver {
	return &FileResolver{fs: fs}
}

// Resolve finds the file a declared path refers to.
//
// The path is first taken verbatim relative to root. Otherwise the tree is
// searched for files with the same base name: a single hit is used, several
// hits are an AmbiguousPathError. With no hit, PolicyStrict gives a
// MissingTargetError and PolicyCreate resolves to the declared path as a
// new file.
func (r *FileResolver) Resolve(root, declared string, policy domain.ResolvePolicy) (domain.Resolution, error) {
	rel, err := cleanRelPath(declared)
	if err != nil {
		return domain.Resolution{}, err
	}

	full := filepath.Join(root, filepath.FromSlash(rel))
	info, err := r.fs.Stat(full)
	if err == nil {
		if info.IsDir() {
			return domain.Resolution{}, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidPath, declared)
		}
		return domain.Resolution{Declared: declared, RelPath: rel, Path: full, Existed: true}, nil
	}

	matches, err := r.findByName(root, path.Base(rel))
	if err != nil {
		return domain.Resolution{}, err
	}
	switch len(matches) {
	case 1:
		return domain.Resolution{
			Declared: declared,
			RelPath:  matches[0],
			Path:     filepath.Join(root, filepath.FromSlash(matches[0])),
			Existed:  true,
		}, nil
	case 0:
		if policy == domain.PolicyStrict {
			return domain.Resolution{}, &domain.MissingTargetError{Path: declared}
		}
		return domain.Resolution{Declared: declared, RelPath: rel, Path: full}, nil
	default:
		return domain.Resolution{}, &domain.AmbiguousPathError{Path: declared, Candidates: matches}
	}
}

// ResolveAll resolves every declared path concurrently. Results keep the
// declared order; paths resolving to the same file are kept once. The first
// failure in declared order is returned.
func (r *FileResolver) ResolveAll(root string, declared []string, policy domain.ResolvePolicy) ([]domain.Resolution, error) {
	if len(declared) == 0 {
		return nil, domain.ErrNoAffectedFiles
	}

	type outcome struct {
		err error
		res domain.Resolution
	}
	outcomes := iter.Map(declared, func(p *string) outcome {
		res, err := r.Resolve(root, *p, policy)
		return outcome{res: res, err: err}
	})

	seen := make(map[string]struct{}, len(outcomes))
	resolutions := make([]domain.Resolution, 0, len(outcomes))
	for _, o := range outcomes {
		if o.err != nil {
			return nil, o.err
		}
		if _, dup := seen[o.res.RelPath]; dup {
			continue
		}
		seen[o.res.RelPath] = struct{}{}
		resolutions = append(resolutions, o.res)
	}
	return resolutions, nil
}

// findByName returns the slash-separated paths under root of all regular
// files named name, sorted. The .git directory is skipped.
func (r *FileResolver) findByName(root, name string) ([]string, error) {
	var matches []string
	err := afero.Walk(r.fs, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Name() != name {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		matches = append(matches, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search workspace for %s: %w", name, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// cleanRelPath normalizes a declared path and rejects anything that would
// leave the workspace or touch git metadata.
func cleanRelPath(declared string) (string, error) {
	p := strings.TrimSpace(filepath.ToSlash(declared))
	if p == "" {
		return "", fmt.Errorf("%w: empty path", domain.ErrInvalidPath)
	}
	if path.IsAbs(p) || filepath.IsAbs(declared) {
		return "", fmt.Errorf("%w: %s is absolute", domain.ErrInvalidPath, declared)
	}
	p = path.Clean(strings.TrimPrefix(p, "./"))
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("%w: %s escapes the workspace", domain.ErrInvalidPath, declared)
	}
	if p == ".git" || strings.HasPrefix(p, ".git/") {
		return "", fmt.Errorf("%w: %s is inside .git", domain.ErrInvalidPath, declared)
	}
	return p, nil
}
