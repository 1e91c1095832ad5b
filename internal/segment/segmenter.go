// Package segment reconstructs delimiter-terminated sentences from OCR
// word boxes. The provider emits words in block/paragraph order, which
// approximates reading order but carries no reliable sentence punctuation
// for text without word separators, so sentence boundaries are inferred
// from word geometry instead of grammar.
package segment

import (
	"strings"

	"github.com/takitsuba/kindle-audify/internal/ocr"
)

// lastLineBand is the fraction of the page's lowest text baseline above
// which a word is considered not to be on the last line.
const lastLineBand = 0.9

// Sentences turns pages of word boxes into delimiter-terminated fragments.
//
// Within a page, a boundary is inserted after word i when its box lies
// entirely above lastLineBand of the page's maximum y and the next word's
// box overlaps it vertically (the next word's minimum y is above the
// current word's maximum y on the page). The last word of a page never
// receives a synthetic boundary, so a sentence can span pages.
//
// The per-page texts are joined into one stream, split on the delimiter
// and re-terminated, which also normalizes delimiters already present in
// the recognized text. Empty pieces are dropped.
func Sentences(pages []ocr.Page, delimiter string) []string {
	var stream strings.Builder
	for _, page := range pages {
		words := page.Words()
		if len(words) == 0 {
			continue
		}
		ymax := pageMaxY(words)
		band := lastLineBand * ymax
		for i, w := range words {
			stream.WriteString(w.Text())
			if i == len(words)-1 {
				continue
			}
			cur := w.BoundingBox
			next := words[i+1].BoundingBox
			if cur.MaxY() < band && next.MinY() < cur.MaxY() {
				stream.WriteString(delimiter)
			}
		}
	}

	pieces := strings.Split(stream.String(), delimiter)
	fragments := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		fragments = append(fragments, piece+delimiter)
	}
	return fragments
}

func pageMaxY(words []ocr.Word) float64 {
	max := 0.0
	for _, w := range words {
		if y := w.BoundingBox.MaxY(); y > max {
			max = y
		}
	}
	return max
}
