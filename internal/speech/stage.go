package speech

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/takitsuba/kindle-audify/internal/chunk"
	"github.com/takitsuba/kindle-audify/internal/runner"
	"github.com/takitsuba/kindle-audify/internal/storage"
)

const audioContentType = "audio/mpeg"

// Stage synthesizes chunk audio into storage with bounded concurrency.
// Output paths are computed up front from the chunk plan, so segment
// order is defined by path numbering rather than completion order, and a
// rerun skips chunks whose output object already exists.
type Stage struct {
	store storage.Gateway
	synth Synthesizer
	log   *slog.Logger

	maxChars    int
	concurrency int
	maxAttempts int
}

func NewStage(store storage.Gateway, synth Synthesizer, log *slog.Logger, maxChars, concurrency, maxAttempts int) *Stage {
	return &Stage{
		store:       store,
		synth:       synth,
		log:         log,
		maxChars:    maxChars,
		concurrency: concurrency,
		maxAttempts: maxAttempts,
	}
}

// Run synthesizes the fragment sequence under outputPrefix and returns
// the ordered segment paths.
func (s *Stage) Run(ctx context.Context, fragments []string, outputPrefix string) ([]string, error) {
	names, err := s.store.List(ctx, outputPrefix+"/")
	if err != nil {
		return nil, fmt.Errorf("list existing segments: %w", err)
	}
	existing := make(map[string]struct{}, len(names))
	for _, name := range names {
		existing[name] = struct{}{}
	}

	var jobs []runner.Job[string]
	num := 0
	for start := 0; start < len(fragments); {
		text, next := chunk.NextChunk(fragments, start, s.maxChars)
		num++
		path := chunk.OutputPath(outputPrefix, num)
		jobs = append(jobs, runner.Job[string]{
			Key:  path,
			Done: path,
			Work: func(ctx context.Context) (string, error) {
				return path, s.synthesizeTo(ctx, path, text)
			},
		})
		start = next
	}

	s.log.Info("synthesizing chunks",
		"chunks", len(jobs), "existing", len(existing), "prefix", outputPrefix)

	paths, err := runner.Run(ctx, jobs, runner.Options{
		Concurrency: s.concurrency,
		MaxAttempts: s.maxAttempts,
	}, existing)
	if err != nil {
		return nil, fmt.Errorf("speech stage: %w", err)
	}
	return paths, nil
}

// synthesizeTo writes one chunk's audio through a scoped write handle,
// closing it on every path so a failed write never finalizes the object.
func (s *Stage) synthesizeTo(ctx context.Context, path, text string) error {
	data, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	w, err := s.store.Write(ctx, path, audioContentType)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return nil
}
