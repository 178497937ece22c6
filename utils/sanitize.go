package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.UGCPolicy()

// Sanitize cleans user supplied content to prevent stored XSS. Question and
// answer bodies are flattened markdown-like strings, so UGC policy is enough.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
