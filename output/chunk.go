package output

import "strings"

// DefaultChunkSize stays under Telegram's 4096-character message limit.
const DefaultChunkSize = 4000

// Chunk splits text into pieces no longer than maxLen. Split points are
// chosen in preference order: the last paragraph break at or before maxLen;
// if that falls before roughly the first half of the limit, the last line
// break; then the last space; then a hard cut. Each chunk is trimmed, and no
// chunk is empty for non-empty input.
func Chunk(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultChunkSize
	}

	remaining := strings.TrimSpace(text)
	if remaining == "" {
		return nil
	}

	var chunks []string
	for len(remaining) > maxLen {
		window := remaining[:maxLen]

		cut := strings.LastIndex(window, "\n\n")
		if cut < maxLen/2 {
			cut = strings.LastIndex(window, "\n")
		}
		if cut < maxLen/2 {
			cut = strings.LastIndex(window, " ")
		}
		if cut <= 0 {
			// Hard cut, kept on a rune boundary.
			cut = len(Truncate(remaining, maxLen))
		}

		chunk := strings.TrimSpace(remaining[:cut])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		remaining = strings.TrimSpace(remaining[cut:])
	}

	if remaining != "" {
		chunks = append(chunks, remaining)
	}
	return chunks
}
