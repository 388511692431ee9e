package domain

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// TaskDraft represents a task to be created from file input.
// Fields are ordered to minimize memory padding.
type TaskDraft struct {
	Title              string   `yaml:"title"`
	Type               string   `yaml:"type"`
	Priority           string   `yaml:"priority"`
	Branch             string   `yaml:"branch"`
	Description        string   `yaml:"-"`
	Files              []string `yaml:"files"`
	AcceptanceCriteria []string `yaml:"acceptance"`
}

var frontmatterKeyPattern = regexp.MustCompile(`^[a-z_]+:`)

// ParseTaskDrafts parses a markdown file containing one or more task definitions.
// Each task starts with a YAML frontmatter block; the text after it is the
// description.
//
// Format:
//
//	---
//	title: Add created date to journal entries
//	files: [src/main/java/app/JournalEntry.java]
//	priority: high
//	acceptance:
//	  - entries expose a createdAt field
//	---
//	Add a createdAt timestamp to JournalEntry and set it on save.
//
//	---
//	title: Second task
//	files: [README.md]
//	---
//	Document the new field.
func ParseTaskDrafts(content string) ([]TaskDraft, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyFile
	}

	blocks := splitDraftBlocks(strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n"))
	if len(blocks) == 0 {
		return nil, ErrNoTasksInFile
	}

	drafts := make([]TaskDraft, 0, len(blocks))
	for i, b := range blocks {
		var d TaskDraft
		if err := yaml.Unmarshal([]byte(b.frontmatter), &d); err != nil {
			return nil, fmt.Errorf("task %d: parse frontmatter: %w", i+1, err)
		}
		d.Title = strings.TrimSpace(d.Title)
		if d.Title == "" {
			return nil, fmt.Errorf("task %d: %w", i+1, ErrEmptyTitle)
		}
		d.Description = strings.TrimSpace(b.body)
		drafts = append(drafts, d)
	}
	return drafts, nil
}

type draftBlock struct {
	frontmatter string
	body        string
}

// splitDraftBlocks splits lines into frontmatter/body pairs. A "---" line
// inside a body only starts a new block when the next line looks like a
// frontmatter key.
func splitDraftBlocks(lines []string) []draftBlock {
	var blocks []draftBlock
	var fm, body []string
	state := 0 // 0: before first block, 1: in frontmatter, 2: in body

	flush := func() {
		blocks = append(blocks, draftBlock{
			frontmatter: strings.Join(fm, "\n"),
			body:        strings.Join(body, "\n"),
		})
		fm, body = nil, nil
	}

	for i, line := range lines {
		isFence := strings.TrimSpace(line) == "---"
		switch state {
		case 0:
			if isFence {
				state = 1
			}
		case 1:
			if isFence {
				state = 2
				continue
			}
			fm = append(fm, line)
		case 2:
			if isFence && i+1 < len(lines) && frontmatterKeyPattern.MatchString(lines[i+1]) {
				flush()
				state = 1
				continue
			}
			body = append(body, line)
		}
	}
	if state == 2 || (state == 1 && len(fm) > 0) {
		flush()
	}
	return blocks
}
