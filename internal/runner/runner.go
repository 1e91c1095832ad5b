// Package runner executes independent jobs with a concurrency cap,
// bounded retries, and idempotent skip of already-completed work.
package runner

import (
	"context"
	"sync"
)

// Job is one unit of work. Key is the idempotency key (the destination
// path of the job's output); Done is the result to report when the key is
// already present in the existing set and the work is skipped.
type Job[T any] struct {
	Key  string
	Done T
	Work func(ctx context.Context) (T, error)
}

// Options bound a Run call.
type Options struct {
	// Concurrency caps the number of jobs in flight. The cap gates
	// submission only; a running job is never preempted.
	Concurrency int

	// MaxAttempts is the total number of invocations allowed per job
	// before the run fails.
	MaxAttempts int
}

// Run executes the jobs and returns their results in submission order.
// Jobs whose key is in existing are not invoked; their Done value is
// returned as-is, so a rerun of a partially completed stage resumes
// instead of redoing work.
//
// A failed job is re-invoked immediately, up to MaxAttempts total
// attempts. Any job that exhausts its attempts fails the whole run;
// in-flight siblings finish but their results are discarded.
func Run[T any](ctx context.Context, jobs []Job[T], opts Options, existing map[string]struct{}) ([]T, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}

	results := make([]T, len(jobs))
	errs := make([]error, len(jobs))
	sem := make(chan struct{}, opts.Concurrency)
	var wg sync.WaitGroup

	for i, job := range jobs {
		if _, ok := existing[job.Key]; ok {
			results[i] = job.Done
			continue
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, job Job[T]) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i], errs[i] = attempt(ctx, job, opts.MaxAttempts)
		}(i, job)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func attempt[T any](ctx context.Context, job Job[T], maxAttempts int) (T, error) {
	var zero T
	var lastErr error
	for range maxAttempts {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		res, err := job.Work(ctx)
		if err == nil {
			return res, nil
		}
		lastErr = err
	}
	return zero, &RetryExhaustedError{Key: job.Key, Attempts: maxAttempts, Err: lastErr}
}
