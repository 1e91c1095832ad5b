// Package ocr models the text-detection output consumed by the pipeline:
// a strongly-typed Document tree decoded from the JSON shards the provider
// writes to storage, and the provider that produces them.
package ocr

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MalformedOutputError reports an OCR output shard that does not have the
// expected structure. It is not retryable.
type MalformedOutputError struct {
	Reason string
}

func (e *MalformedOutputError) Error() string {
	return "malformed ocr output: " + e.Reason
}

// Output is one OCR output shard: a list of per-page responses.
type Output struct {
	Responses []Response `json:"responses"`
}

// Response holds the annotation for one source page. FullTextAnnotation is
// absent for pages where no text was detected.
type Response struct {
	FullTextAnnotation *TextAnnotation `json:"fullTextAnnotation"`
}

type TextAnnotation struct {
	Pages []Page `json:"pages"`
	Text  string `json:"text"`
}

type Page struct {
	Blocks []Block `json:"blocks"`
}

type Block struct {
	Paragraphs []Paragraph `json:"paragraphs"`
}

type Paragraph struct {
	Words []Word `json:"words"`
}

type Word struct {
	BoundingBox BoundingPoly `json:"boundingBox"`
	Symbols     []Symbol     `json:"symbols"`
}

type Symbol struct {
	Text string `json:"text"`
}

// BoundingPoly is a polygon of vertices normalized to the page, with y
// increasing downward.
type BoundingPoly struct {
	NormalizedVertices []Vertex `json:"normalizedVertices"`
}

type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ParseOutput decodes one output shard.
func ParseOutput(data []byte) (*Output, error) {
	var out Output
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &MalformedOutputError{Reason: fmt.Sprintf("decode: %v", err)}
	}
	if out.Responses == nil {
		return nil, &MalformedOutputError{Reason: "missing responses"}
	}
	return &out, nil
}

// Pages returns every annotated page across the shard's responses, in
// emission order. Responses without text are skipped.
func (o *Output) Pages() []Page {
	var pages []Page
	for _, r := range o.Responses {
		if r.FullTextAnnotation == nil {
			continue
		}
		pages = append(pages, r.FullTextAnnotation.Pages...)
	}
	return pages
}

// Words returns the page's words flattened in the order the provider
// emitted them: block, then paragraph, then word.
func (p Page) Words() []Word {
	var words []Word
	for _, b := range p.Blocks {
		for _, para := range b.Paragraphs {
			words = append(words, para.Words...)
		}
	}
	return words
}

// Text concatenates the word's symbols.
func (w Word) Text() string {
	var sb strings.Builder
	for _, s := range w.Symbols {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// MinY returns the smallest y vertex of the polygon.
func (b BoundingPoly) MinY() float64 {
	min := 0.0
	for i, v := range b.NormalizedVertices {
		if i == 0 || v.Y < min {
			min = v.Y
		}
	}
	return min
}

// MaxY returns the largest y vertex of the polygon.
func (b BoundingPoly) MaxY() float64 {
	max := 0.0
	for _, v := range b.NormalizedVertices {
		if v.Y > max {
			max = v.Y
		}
	}
	return max
}
