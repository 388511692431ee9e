// Package agent runs an external agent command as the content and spec generator.
// The prompt is written to the command's stdin and its stdout is the answer.
package agent

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/runoshun/git-pilot/internal/domain"
)

//go:embed prompts/code.tmpl
var codePromptTmpl string

//go:embed prompts/spec.tmpl
var specPromptTmpl string

var (
	codePrompt = template.Must(template.New("code").Parse(codePromptTmpl))
	specPrompt = template.Must(template.New("spec").Parse(specPromptTmpl))
)

// DefaultSystemPrompt is prepended to every code generation prompt unless the
// configuration overrides it.
const DefaultSystemPrompt = "You receive a source file and a requested change, and you must return the FULL updated file content. " +
	"Do not explain. Do not add comments unless explicitly asked."

// Client implements domain.ContentGenerator and domain.SpecGenerator.
type Client struct {
	executor domain.CommandExecutor
	cfg      domain.AgentConfig
}

// NewClient creates a new agent client. cfg must have its preset resolved.
func NewClient(executor domain.CommandExecutor, cfg domain.AgentConfig) *Client {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	return &Client{executor: executor, cfg: cfg}
}

// Ensure Client implements the generator interfaces.
var (
	_ domain.ContentGenerator = (*Client)(nil)
	_ domain.SpecGenerator    = (*Client)(nil)
)

// codePromptData holds data for rendering the code prompt.
type codePromptData struct {
	domain.GenerateRequest
	SystemPrompt string
}

// Generate returns the full new content of req.Path.
// Code fences around the answer are removed. A trailing newline is kept when
// the original file had one (or is new), since agents tend to drop it.
func (c *Client) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	var prompt bytes.Buffer
	if err := codePrompt.Execute(&prompt, codePromptData{GenerateRequest: req, SystemPrompt: c.cfg.SystemPrompt}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	out, err := c.run(ctx, prompt.String())
	if err != nil {
		return "", fmt.Errorf("%w for %s: %w", domain.ErrGeneration, req.Path, err)
	}

	content := domain.StripCodeFences(out)
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w for %s: empty output", domain.ErrGeneration, req.Path)
	}
	if req.Content == "" || strings.HasSuffix(req.Content, "\n") {
		content += "\n"
	}
	return content, nil
}

// GenerateSpec asks the agent for a task specification as JSON.
// Missing title and description fall back to a placeholder and the message.
func (c *Client) GenerateSpec(ctx context.Context, req domain.SpecRequest) (*domain.SpecResult, error) {
	var prompt bytes.Buffer
	if err := specPrompt.Execute(&prompt, req); err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	out, err := c.run(ctx, prompt.String())
	if err != nil {
		return nil, fmt.Errorf("%w: spec: %w", domain.ErrGeneration, err)
	}

	spec, err := ParseSpec(out)
	if err != nil {
		return nil, fmt.Errorf("%w: spec: %w", domain.ErrGeneration, err)
	}
	if strings.TrimSpace(spec.Title) == "" {
		spec.Title = domain.DefaultTaskTitle
	}
	if strings.TrimSpace(spec.Description) == "" {
		spec.Description = strings.TrimSpace(req.Message)
	}
	return spec, nil
}

// ParseSpec extracts the JSON object from an agent answer. Fences and any
// text around the outermost braces are ignored.
func ParseSpec(out string) (*domain.SpecResult, error) {
	text := domain.StripCodeFences(out)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in output %q", abbreviate(text, 200))
	}
	var spec domain.SpecResult
	if err := json.Unmarshal([]byte(text[start:end+1]), &spec); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	return &spec, nil
}

func (c *Client) run(ctx context.Context, prompt string) (string, error) {
	cmd := &domain.ExecCommand{
		Program: c.cfg.Command,
		Args:    c.cfg.Args,
		Stdin:   prompt,
	}
	var stdout, stderr bytes.Buffer
	if err := c.executor.ExecuteWithContext(ctx, cmd, &stdout, &stderr); err != nil {
		return "", &domain.CommandError{
			Args:   append([]string{cmd.Program}, cmd.Args...),
			Output: abbreviate(stderr.String(), 2000),
			Err:    err,
		}
	}
	return stdout.String(), nil
}

func abbreviate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
