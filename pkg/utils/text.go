// Package utils provides shared utilities for text handling and logging.
package utils

import (
	"strings"
	"unicode"
)

// Text preprocessing policies. Ingestion and retrieval apply the same one.
const (
	PreprocessLowercase = "lowercase"
	PreprocessNone      = "none"
)

// Preprocess prepares text for embedding under policy. PreprocessLowercase trims,
// collapses runs of whitespace to one space and lowercases; any other policy
// returns text unchanged.
func Preprocess(text, policy string) string {
	if policy != PreprocessLowercase {
		return text
	}
	text = strings.TrimSpace(text)
	var b strings.Builder
	b.Grow(len(text))
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
			continue
		}
		b.WriteRune(unicode.ToLower(r))
		wasSpace = false
	}
	return b.String()
}

// Truncate returns s truncated to maxLen runes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
