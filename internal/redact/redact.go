// Package redact scrubs credentials from captured transcript text before it
// is stored. Interviews routinely have code and terminal output on screen;
// none of the secrets in it belong in the session log.
package redact

import (
	"regexp"
	"strings"
)

const placeholder = "[redacted]"

var secretPatterns = []*regexp.Regexp{
	// OpenAI-style API keys
	regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{20,}\b`),
	// Anthropic API keys
	regexp.MustCompile(`\bsk-ant-[A-Za-z0-9_-]{20,}\b`),
	// GitHub tokens
	regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`),
	// AWS access key IDs
	regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
	// Bearer tokens in pasted headers
	regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/-]{20,}=*`),
	// Private key blocks
	regexp.MustCompile(`(?s)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?-----END [A-Z ]*PRIVATE KEY-----`),
}

// privateTagRegex matches <private>...</private> spans the client marks as
// never-store.
var privateTagRegex = regexp.MustCompile(`(?s)<private>.*?</private>`)

// Secrets replaces credential-shaped substrings with a placeholder.
func Secrets(text string) string {
	for _, re := range secretPatterns {
		text = re.ReplaceAllString(text, placeholder)
	}
	return text
}

// StripPrivateTags removes all <private>...</private> content from text.
func StripPrivateTags(text string) string {
	return privateTagRegex.ReplaceAllString(text, "")
}

// IsEntirelyPrivate checks if the text is entirely within <private> tags.
func IsEntirelyPrivate(text string) bool {
	return strings.TrimSpace(StripPrivateTags(text)) == ""
}

// Clean is the full scrub applied before storing any captured utterance:
// private spans dropped, secrets masked, whitespace trimmed.
func Clean(text string) string {
	text = StripPrivateTags(text)
	text = Secrets(text)
	return strings.TrimSpace(text)
}
