package model

import (
	"strings"

	"github.com/russross/blackfriday/v2"
)

// IsAffirmative reports whether v is y, yes or true, ignoring case.
func IsAffirmative(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "y", "yes", "true":
		return true
	default:
		return false
	}
}

// IsNegative reports whether v is n, no or false, ignoring case.
func IsNegative(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "n", "no", "false":
		return true
	default:
		return false
	}
}

// Coerce converts yes/no sentinels to booleans and blank strings to nil.
// Anything else is returned unchanged.
func Coerce(v string) any {
	switch {
	case IsAffirmative(v):
		return true
	case IsNegative(v):
		return false
	case strings.TrimSpace(v) == "":
		return nil
	default:
		return v
	}
}

// RenderMarkdown converts Markdown text to HTML. Carriage returns are
// treated as line breaks.
func RenderMarkdown(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return string(blackfriday.Run([]byte(text)))
}
