package runner

import "fmt"

// RetryExhaustedError reports a job that failed every allowed attempt.
// It identifies the job by its idempotency key and wraps the last error.
type RetryExhaustedError struct {
	Key      string
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("job %s failed after %d attempts: %v", e.Key, e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}
