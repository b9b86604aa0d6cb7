package resilience

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/scribeworks/meetingd/internal/config"
)

// RetryConfig is the exponential backoff schedule applied to calls against
// external collaborators.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Jitter         bool
}

// NewRetryConfig builds the schedule shared by the transcription and
// sentiment collaborators from the loaded configuration.
func NewRetryConfig(cfg *config.Config) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:    cfg.RetryMaxAttempts,
		InitialBackoff: time.Duration(cfg.RetryInitialBackoff) * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
		Jitter:         true,
	}
}

// Retry runs fn until it succeeds, the attempts are exhausted, retryable
// reports the error as permanent, or ctx ends. Backoff waits are
// interruptible; cancellation during a wait surfaces both the context error
// and the last attempt's error.
func Retry(ctx context.Context, cfg *RetryConfig, retryable func(error) bool, fn func() error) error {
	attempts := 1
	if cfg != nil && cfg.MaxAttempts > 1 {
		attempts = cfg.MaxAttempts
	}

	var backoff time.Duration
	if cfg != nil {
		backoff = cfg.InitialBackoff
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("retry aborted: %w: %w", err, lastErr)
			}
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if retryable != nil && !retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		wait := backoff
		if cfg.Jitter && wait > 0 {
			wait += time.Duration(rand.Int63n(int64(wait)/4 + 1))
		}
		if wait > cfg.MaxBackoff {
			wait = cfg.MaxBackoff
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted: %w: %w", ctx.Err(), lastErr)
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * cfg.Multiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	return lastErr
}

// HTTPStatusError reports a non-success response from an HTTP collaborator
type HTTPStatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.StatusCode, e.Body)
}

// transientMarkers covers transport failures that arrive as plain strings,
// like the errors wrapped inside the Deepgram SDK.
var transientMarkers = []string{
	"connection refused",
	"connection reset",
	"connection closed",
	"no route to host",
	"network is unreachable",
	"unavailable",
	"deadline exceeded",
	"i/o timeout",
	"timeout",
	"rate limit",
	"too many requests",
}

// IsTransientServiceError classifies collaborator errors for retry.
// Throttling and server-side HTTP statuses, timeouts, and connection-level
// transport errors are worth retrying; everything else, including context
// cancellation, is permanent.
func IsTransientServiceError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode >= http.StatusInternalServerError
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
