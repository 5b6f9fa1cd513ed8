// Package output prepares task output for the chat transport: stripping
// stale push narration from push-flow replies and splitting long text into
// transport-sized chunks.
package output

import (
	"regexp"
	"strings"
)

// staleNarrationPatterns match lines where the task incorrectly claims it
// cannot or may not push, or asks the user to push manually. Pushing is the
// bridge's own responsibility, so such narration is always stale. The set is
// fixed and heuristic; accuracy is covered by golden-text fixtures rather
// than assumed.
var staleNarrationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(cannot|can't|can not|unable to|not (?:allowed|permitted|able) to)\b.*\bpush`),
	regexp.MustCompile(`(?i)\bpush\b.*\b(yourself|manually|on your (?:own|end))\b`),
	regexp.MustCompile(`(?i)\b(you(?:'ll| will)? (?:need|have) to|please)\b.*\bpush\b`),
	regexp.MustCompile(`(?i)\brun\b.*\bgit push\b`),
	regexp.MustCompile(`(?i)\bpush\b.*\b(?:is |was )?(?:disabled|blocked|restricted|forbidden)\b`),
}

var blankRunRegex = regexp.MustCompile(`\n{3,}`)

// Sanitize removes, line by line, stale push narration, collapses the
// resulting runs of blank lines, and trims surrounding whitespace. It is
// applied only to push-flow output, never to plain-request output.
func Sanitize(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isStaleNarration(line) {
			continue
		}
		kept = append(kept, line)
	}

	result := strings.Join(kept, "\n")
	result = blankRunRegex.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

func isStaleNarration(line string) bool {
	for _, pattern := range staleNarrationPatterns {
		if pattern.MatchString(line) {
			return true
		}
	}
	return false
}
