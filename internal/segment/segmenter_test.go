package segment

import (
	"reflect"
	"testing"

	"github.com/takitsuba/kindle-audify/internal/ocr"
)

// word builds a word box spanning [ymin, ymax] vertically.
func word(text string, ymin, ymax float64) ocr.Word {
	return ocr.Word{
		BoundingBox: ocr.BoundingPoly{
			NormalizedVertices: []ocr.Vertex{
				{X: 0.1, Y: ymin},
				{X: 0.3, Y: ymin},
				{X: 0.3, Y: ymax},
				{X: 0.1, Y: ymax},
			},
		},
		Symbols: symbols(text),
	}
}

func symbols(text string) []ocr.Symbol {
	var syms []ocr.Symbol
	for _, r := range text {
		syms = append(syms, ocr.Symbol{Text: string(r)})
	}
	return syms
}

func page(words ...ocr.Word) ocr.Page {
	return ocr.Page{
		Blocks: []ocr.Block{{
			Paragraphs: []ocr.Paragraph{{Words: words}},
		}},
	}
}

func TestSentences_BoundaryOnVerticalOverlap(t *testing.T) {
	// The first two words sit near the top of the page and overlap
	// vertically, so a boundary is inserted between them. The third word
	// sits on a line far below the second, so the second word gets none.
	pages := []ocr.Page{page(
		word("春は", 0.10, 0.14),
		word("あけぼの", 0.10, 0.14),
		word("やうやう", 0.90, 0.95),
	)}

	got := Sentences(pages, "。")
	want := []string{"春は。", "あけぼのやうやう。"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected fragments %v, got %v", want, got)
	}
}

func TestSentences_LastLineBandSuppressesBoundary(t *testing.T) {
	// Both words lie in the last-line band (below 0.9 of the page's
	// maximum y), so no boundary is inserted even though they overlap.
	pages := []ocr.Page{page(
		word("おわりに", 0.90, 0.95),
		word("続く", 0.90, 0.95),
	)}

	got := Sentences(pages, "。")
	want := []string{"おわりに続く。"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected fragments %v, got %v", want, got)
	}
}

func TestSentences_NoBoundaryWithoutOverlap(t *testing.T) {
	// Consecutive lines: the next word starts below the current word's
	// box, which is a line wrap, not a sentence break.
	pages := []ocr.Page{page(
		word("一行目", 0.10, 0.14),
		word("二行目", 0.20, 0.24),
		word("最終行", 0.90, 0.95),
	)}

	got := Sentences(pages, "。")
	want := []string{"一行目二行目最終行。"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected fragments %v, got %v", want, got)
	}
}

func TestSentences_SentenceSpansPages(t *testing.T) {
	// The last word of a page never receives a synthetic boundary, so
	// the sentence continues into the next page: two fragments total,
	// not three.
	pageOne := page(
		word("春は", 0.10, 0.14),
		word("あけぼの", 0.10, 0.14),
		word("やうやう", 0.90, 0.95),
	)
	pageTwo := page(word("しろくなりゆく", 0.10, 0.14))

	got := Sentences([]ocr.Page{pageOne, pageTwo}, "。")
	want := []string{"春は。", "あけぼのやうやうしろくなりゆく。"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected fragments %v, got %v", want, got)
	}
}

func TestSentences_EmptyPageProducesNoFragments(t *testing.T) {
	got := Sentences([]ocr.Page{{}}, "。")
	if len(got) != 0 {
		t.Errorf("expected no fragments for an empty page, got %v", got)
	}
}

func TestSentences_NormalizesRecognizedDelimiters(t *testing.T) {
	// A delimiter recognized inside the text splits the stream the same
	// way an inferred boundary does.
	pages := []ocr.Page{page(word("吾輩は猫である。名前はまだ無い", 0.90, 0.95))}

	got := Sentences(pages, "。")
	want := []string{"吾輩は猫である。", "名前はまだ無い。"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected fragments %v, got %v", want, got)
	}
}

func TestSentences_EveryFragmentEndsWithDelimiter(t *testing.T) {
	pages := []ocr.Page{page(
		word("春は", 0.10, 0.14),
		word("あけぼの。やうやう", 0.10, 0.14),
		word("しろく", 0.90, 0.95),
	)}

	fragments := Sentences(pages, "。")
	if len(fragments) == 0 {
		t.Fatal("expected fragments")
	}
	for i, f := range fragments {
		if f == "" {
			t.Errorf("fragment %d is empty", i)
		}
		if f[len(f)-len("。"):] != "。" {
			t.Errorf("fragment %d does not end with delimiter: %q", i, f)
		}
	}
}

func TestSentences_Idempotent(t *testing.T) {
	pages := []ocr.Page{page(
		word("春は", 0.10, 0.14),
		word("あけぼの", 0.10, 0.14),
		word("やうやう", 0.90, 0.95),
	)}

	first := Sentences(pages, "。")
	second := Sentences(pages, "。")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical fragment sequences, got %v and %v", first, second)
	}
}
