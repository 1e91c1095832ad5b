// Package pipeline orchestrates the book-to-audio run: OCR, sentence
// reconstruction, speech synthesis, and segment merging. Each stage is
// idempotent, so a rerun of a partially completed book resumes where the
// previous run stopped.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/takitsuba/kindle-audify/internal/audio"
	"github.com/takitsuba/kindle-audify/internal/ocr"
	"github.com/takitsuba/kindle-audify/internal/segment"
	"github.com/takitsuba/kindle-audify/internal/speech"
	"github.com/takitsuba/kindle-audify/internal/storage"
)

// Layout is the derived object layout for one book, keyed off the PDF
// base name: OCR shards under json/{base}/, chunk audio under
// mp3s/{base}/, and the final narration at mp3s/{base}.mp3.
type Layout struct {
	OCRPrefix   string
	ChunkPrefix string
	FinalPath   string
}

func LayoutFor(pdfObject string) Layout {
	base := strings.TrimSuffix(path.Base(pdfObject), path.Ext(pdfObject))
	return Layout{
		OCRPrefix:   "json/" + base,
		ChunkPrefix: "mp3s/" + base,
		FinalPath:   "mp3s/" + base + ".mp3",
	}
}

// Pipeline binds the stages to their external collaborators. Collaborators
// are constructed once by the caller and passed in explicitly.
type Pipeline struct {
	store     storage.Gateway
	ocr       ocr.Provider
	speech    *speech.Stage
	merger    *audio.Merger
	log       *slog.Logger
	delimiter string
}

func New(store storage.Gateway, provider ocr.Provider, stage *speech.Stage, merger *audio.Merger, log *slog.Logger, delimiter string) *Pipeline {
	return &Pipeline{
		store:     store,
		ocr:       provider,
		speech:    stage,
		merger:    merger,
		log:       log,
		delimiter: delimiter,
	}
}

// Run narrates the stored PDF and returns the final audio object name.
func (p *Pipeline) Run(ctx context.Context, pdfObject string) (string, error) {
	layout := LayoutFor(pdfObject)
	log := p.log.With("book", pdfObject)

	existing, err := p.store.List(ctx, layout.FinalPath)
	if err != nil {
		return "", fmt.Errorf("check final output: %w", err)
	}
	for _, name := range existing {
		if name == layout.FinalPath {
			log.Info("final narration already exists", "output", layout.FinalPath)
			return layout.FinalPath, nil
		}
	}

	shards, err := p.ocr.ExtractText(ctx, pdfObject, layout.OCRPrefix)
	if err != nil {
		return "", fmt.Errorf("ocr stage: %w", err)
	}
	log.Info("ocr complete", "shards", len(shards))

	var pages []ocr.Page
	for _, shard := range shards {
		data, err := p.store.ReadAll(ctx, shard)
		if err != nil {
			return "", fmt.Errorf("read ocr shard: %w", err)
		}
		out, err := ocr.ParseOutput(data)
		if err != nil {
			return "", fmt.Errorf("shard %s: %w", shard, err)
		}
		pages = append(pages, out.Pages()...)
	}

	fragments := segment.Sentences(pages, p.delimiter)
	if len(fragments) == 0 {
		return "", fmt.Errorf("no text recognized in %s", pdfObject)
	}
	log.Info("sentences reconstructed", "pages", len(pages), "fragments", len(fragments))

	segments, err := p.speech.Run(ctx, fragments, layout.ChunkPrefix)
	if err != nil {
		return "", err
	}
	log.Info("synthesis complete", "segments", len(segments))

	out, err := p.merger.Merge(ctx, segments, layout.FinalPath)
	if err != nil {
		return "", fmt.Errorf("concat stage: %w", err)
	}
	log.Info("narration complete", "output", out)
	return out, nil
}
