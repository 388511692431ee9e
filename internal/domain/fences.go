package domain

import "strings"

// StripCodeFences removes a surrounding ``` fence (with optional language tag)
// from generator output. Only the fence lines and trailing line breaks are
// dropped; indentation and leading blank lines of the content are kept.
func StripCodeFences(text string) string {
	text = strings.TrimRight(text, "\r\n")
	body := strings.TrimLeft(text, " \t\r\n")
	if !strings.HasPrefix(body, "```") {
		return text
	}
	lines := strings.Split(body, "\n")[1:]
	if n := len(lines); n > 0 && strings.HasPrefix(strings.TrimSpace(lines[n-1]), "```") {
		lines = lines[:n-1]
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\r\n")
}
