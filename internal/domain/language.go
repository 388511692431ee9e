package domain

import (
	"path/filepath"
	"strings"
)

// languageByExt maps file extensions to the language label given to the
// content generator.
var languageByExt = map[string]string{
	".c":          "c",
	".cc":         "cpp",
	".cpp":        "cpp",
	".cs":         "csharp",
	".css":        "css",
	".go":         "go",
	".gradle":     "groovy",
	".h":          "c",
	".hpp":        "cpp",
	".html":       "html",
	".java":       "java",
	".js":         "javascript",
	".json":       "json",
	".jsx":        "javascript",
	".kt":         "kotlin",
	".md":         "markdown",
	".php":        "php",
	".properties": "properties",
	".py":         "python",
	".rb":         "ruby",
	".rs":         "rust",
	".scala":      "scala",
	".sh":         "bash",
	".sql":        "sql",
	".swift":      "swift",
	".toml":       "toml",
	".ts":         "typescript",
	".tsx":        "typescript",
	".xml":        "xml",
	".yaml":       "yaml",
	".yml":        "yaml",
}

// LanguageForPath returns the language label for a file path, or "" when the
// extension is unknown.
func LanguageForPath(path string) string {
	return languageByExt[strings.ToLower(filepath.Ext(path))]
}
