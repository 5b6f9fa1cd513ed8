package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeRemovesStaleNarration(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"cannot push", "I cannot push the changes from this environment."},
		{"not permitted", "I'm not permitted to push to the remote."},
		{"unable to", "Unfortunately I was unable to push this commit."},
		{"manual request", "Please push the branch manually when you get a chance."},
		{"run git push", "You can run `git push origin main` to publish it."},
		{"push disabled", "Note that push is disabled in this sandbox."},
		{"push yourself", "You will need to push this yourself."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "Committed the fix.\n" + tt.line + "\nAll tests pass."
			got := Sanitize(input)
			assert.Equal(t, "Committed the fix.\nAll tests pass.", got)
		})
	}
}

func TestSanitizeKeepsLegitimateLines(t *testing.T) {
	input := "Pushed a new commit that renames the helper.\nThe push-notification module is untouched."
	assert.Equal(t, input, Sanitize(input))
}

func TestSanitizeInterleavedGolden(t *testing.T) {
	input := strings.Join([]string{
		"",
		"I can't push from here, sorry.",
		"",
		"Refactored the session store as requested.",
		"",
		"",
		"",
	}, "\n")

	got := Sanitize(input)

	assert.Equal(t, "Refactored the session store as requested.", got)
	assert.NotContains(t, got, "\n\n\n")
}

func TestSanitizeCollapsesBlankRuns(t *testing.T) {
	input := "first\n\n\n\n\nsecond"
	assert.Equal(t, "first\n\nsecond", Sanitize(input))
}

func TestSanitizeTrimsWhitespace(t *testing.T) {
	assert.Equal(t, "body", Sanitize("\n\n  body  \n\n"))
}
