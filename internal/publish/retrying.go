package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/docship/internal/logfields"
	"git.home.luguber.info/inful/docship/internal/metrics"
	"git.home.luguber.info/inful/docship/internal/retry"
)

// Error reports a publish that failed after exhausting its retries. It is
// surfaced distinctly from build failures: valid artifacts exist but were
// not uploaded.
type Error struct {
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("publish failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retrying wraps a Publisher with bounded retry and backoff.
type Retrying struct {
	inner    Publisher
	policy   retry.Policy
	recorder metrics.Recorder
	sleep    func(time.Duration) // overridable in tests
}

// NewRetrying wraps inner with the given policy. A nil recorder disables
// retry metrics.
func NewRetrying(inner Publisher, policy retry.Policy, recorder metrics.Recorder) *Retrying {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Retrying{inner: inner, policy: policy, recorder: recorder, sleep: time.Sleep}
}

func (r *Retrying) Publish(ctx context.Context, m Manifest) error {
	var lastErr error
	attempts := r.policy.MaxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return &Error{Attempts: attempt - 1, Err: err}
		}
		lastErr = r.inner.Publish(ctx, m)
		if lastErr == nil {
			return nil
		}
		if attempt < attempts {
			delay := r.policy.Delay(attempt)
			slog.Warn("Publish attempt failed, retrying",
				logfields.Attempt(attempt),
				slog.Duration("delay", delay),
				logfields.Error(lastErr))
			r.recorder.IncPublishRetry()
			r.sleep(delay)
		}
	}
	return &Error{Attempts: attempts, Err: lastErr}
}
