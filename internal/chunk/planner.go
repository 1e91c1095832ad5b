// Package chunk groups sentence fragments into synthesis-sized requests.
package chunk

import (
	"fmt"
	"unicode/utf8"
)

// NextChunk accumulates fragments into one chunk, starting at start.
// Fragments are appended while the chunk stays within maxChars (counted in
// runes); the first fragment is always taken whole, even when it alone
// exceeds the bound, so a fragment is never split. It returns the chunk
// text and the index of the first fragment not consumed.
func NextChunk(fragments []string, start, maxChars int) (string, int) {
	if start >= len(fragments) {
		return "", start
	}
	chunk := fragments[start]
	next := start + 1
	for next < len(fragments) {
		frag := fragments[next]
		if utf8.RuneCountInString(chunk)+utf8.RuneCountInString(frag) > maxChars {
			break
		}
		chunk += frag
		next++
	}
	return chunk, next
}

// Plan splits the whole fragment sequence into chunks. Concatenating the
// result in order reproduces the fragment sequence exactly.
func Plan(fragments []string, maxChars int) []string {
	var chunks []string
	for start := 0; start < len(fragments); {
		text, next := NextChunk(fragments, start, maxChars)
		chunks = append(chunks, text)
		start = next
	}
	return chunks
}

// OutputPath names the audio object for chunk num (1-based). Numbers are
// zero-padded to three digits; wider numbers keep their natural width.
func OutputPath(prefix string, num int) string {
	return fmt.Sprintf("%s/output-%03d.mp3", prefix, num)
}
