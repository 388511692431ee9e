package domain

import (
	"path"
	"strings"
	"unicode"
)

// FileSelection is the result of checking generator-proposed files against
// the repository's tracked files. Insufficient is set when none of the
// candidates survived; the caller decides the fallback.
type FileSelection struct {
	Files        []string
	Insufficient bool
}

// SelectAffectedFiles keeps the candidates that are tracked files, in
// candidate order and without duplicates.
func SelectAffectedFiles(candidates, tracked []string) FileSelection {
	known := make(map[string]struct{}, len(tracked))
	for _, f := range tracked {
		known[f] = struct{}{}
	}
	seen := make(map[string]struct{}, len(candidates))
	files := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if _, ok := known[c]; !ok {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		files = append(files, c)
	}
	return FileSelection{Files: files, Insufficient: len(files) == 0}
}

// BestGuessFile picks the tracked file whose name shares the most words with
// the request. Ties go to the earlier file; with no overlap the first tracked
// file is returned. Returns "" when tracked is empty.
func BestGuessFile(message string, tracked []string) string {
	if len(tracked) == 0 {
		return ""
	}
	words := significantWords(message)
	best, bestScore := tracked[0], 0
	for _, f := range tracked {
		name := strings.ToLower(strings.TrimSuffix(path.Base(f), path.Ext(f)))
		score := 0
		for _, w := range words {
			if strings.Contains(name, w) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = f, score
		}
	}
	return best
}

func significantWords(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= 3 {
			words = append(words, f)
		}
	}
	return words
}
