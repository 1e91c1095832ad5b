// Package audio concatenates stored MP3 segments into a single output,
// working around the storage provider's compose arity limit with a
// recursive batched reduction.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/takitsuba/kindle-audify/internal/runner"
	"github.com/takitsuba/kindle-audify/internal/storage"
)

// ErrNoSegments is returned when Merge is called with no input.
var ErrNoSegments = errors.New("no audio segments to merge")

const audioContentType = "audio/mpeg"

// Merger combines ordered audio segments into one object.
type Merger struct {
	store storage.Gateway
	log   *slog.Logger

	maxCombine  int
	concurrency int
	maxAttempts int
}

func NewMerger(store storage.Gateway, log *slog.Logger, maxCombine, concurrency, maxAttempts int) *Merger {
	if maxCombine <= 1 || maxCombine > store.MaxCompose() {
		maxCombine = store.MaxCompose()
	}
	return &Merger{
		store:       store,
		log:         log,
		maxCombine:  maxCombine,
		concurrency: concurrency,
		maxAttempts: maxAttempts,
	}
}

// Merge reduces the ordered segments into outputPath and returns it.
//
// Each level partitions the current segments into consecutive groups of at
// most maxCombine members and combines every group into a deterministic
// intermediate object alongside the sources; levels repeat until one
// segment remains. Groups within a level run with bounded concurrency;
// levels are strictly sequential. A group of one is copied rather than
// composed, so the provider never sees a one-source combine call.
//
// Intermediate levels do not consult an existence listing: a rerun after a
// failure above the first level redoes the intermediate merges. Only the
// leaf synthesis stage resumes from listings.
func (m *Merger) Merge(ctx context.Context, segments []string, outputPath string) (string, error) {
	switch len(segments) {
	case 0:
		return "", ErrNoSegments
	case 1:
		if err := m.store.Copy(ctx, segments[0], outputPath); err != nil {
			return "", fmt.Errorf("copy final segment: %w", err)
		}
		return outputPath, nil
	}

	// Segment order is defined by sequence index, never by the order the
	// caller happened to list them in.
	ordered := append([]string(nil), segments...)
	SortSegments(ordered)

	groups := group(ordered, m.maxCombine)
	if len(groups) == 1 {
		if err := m.store.Compose(ctx, groups[0], outputPath, audioContentType); err != nil {
			return "", fmt.Errorf("final merge: %w", err)
		}
		return outputPath, nil
	}

	m.log.Info("merging segments", "segments", len(segments), "groups", len(groups))

	jobs := make([]runner.Job[string], 0, len(groups))
	for _, g := range groups {
		dst := intermediatePath(g)
		jobs = append(jobs, runner.Job[string]{
			Key:  dst,
			Done: dst,
			Work: func(ctx context.Context) (string, error) {
				if len(g) == 1 {
					return dst, m.store.Copy(ctx, g[0], dst)
				}
				return dst, m.store.Compose(ctx, g, dst, audioContentType)
			},
		})
	}

	next, err := runner.Run(ctx, jobs, runner.Options{
		Concurrency: m.concurrency,
		MaxAttempts: m.maxAttempts,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("merge level: %w", err)
	}
	return m.Merge(ctx, next, outputPath)
}

// group partitions segments into consecutive runs of at most size members.
func group(segments []string, size int) [][]string {
	var groups [][]string
	for len(segments) > size {
		groups = append(groups, segments[:size])
		segments = segments[size:]
	}
	return append(groups, segments)
}

// intermediatePath names a group's merge output after the sequence span it
// covers, alongside the sources: merging output-001..output-032 yields
// merged-001-032.mp3. The name is deterministic so reruns regenerate the
// same objects.
func intermediatePath(group []string) string {
	first := firstIndex(group[0])
	last := lastIndex(group[len(group)-1])
	return fmt.Sprintf("%s/merged-%03d-%03d.mp3", path.Dir(group[0]), first, last)
}
