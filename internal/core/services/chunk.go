package services

import "strings"

// DefaultChunkMaxChars is the default chunk window size in characters.
const DefaultChunkMaxChars = 3000

// chunkMinAdvance is the minimum distance a newline cut must sit past
// the window start. Cutting closer than this would produce degenerate
// slivers and, at the limit, stall the scan.
const chunkMinAdvance = 40

// SplitText splits text into bounded segments, preferring newline
// boundaries. Each window is at most maxChars long; when the window
// ends before the text does, the cut moves back to the nearest newline
// inside the window, provided that newline sits more than
// chunkMinAdvance characters past the window start. Chunks are
// whitespace-trimmed and empty ones are dropped. The result is
// deterministic and covers the input with no overlap.
func SplitText(text string, maxChars int) []string {
	if text == "" {
		return nil
	}
	if maxChars < 1 {
		maxChars = DefaultChunkMaxChars
	}

	var chunks []string
	start := 0
	length := len(text)

	for start < length {
		end := start + maxChars
		if end > length {
			end = length
		}
		if end < length {
			if nl := strings.LastIndexByte(text[start:end], '\n'); nl > chunkMinAdvance {
				end = start + nl
			}
		}
		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		start = end
	}

	return chunks
}
