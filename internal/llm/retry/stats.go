package retry

import (
	"sync/atomic"
	"time"
)

// retryStats backs Policy.Stats with atomic counters.
type retryStats struct {
	totalAttempts           atomic.Int64 // Total attempts across all requests
	successfulRetries       atomic.Int64 // Requests that succeeded after retry
	failedRetries           atomic.Int64 // Requests that failed after all retries
	successfulFirstAttempts atomic.Int64 // Requests that succeeded on first attempt
	maxBackoff              atomic.Int64 // Maximum backoff duration in nanoseconds
}

// RetryStats holds a snapshot of retry middleware activity for
// monitoring and observability.
type RetryStats struct {
	// TotalAttempts is the total number of calls, including initial
	// attempts and all retries.
	TotalAttempts int64 `json:"total_attempts"`
	// SuccessfulRetries is the count of calls that succeeded only after
	// one or more retries.
	SuccessfulRetries int64 `json:"successful_retries"`
	// FailedRetries is the count of calls that failed after exhausting
	// the attempt budget.
	FailedRetries int64 `json:"failed_retries"`
	// SuccessfulFirstAttempts is the count of calls that succeeded
	// without retrying.
	SuccessfulFirstAttempts int64 `json:"successful_first_attempts"`
	// MaxBackoff is the longest backoff duration applied during retries.
	MaxBackoff time.Duration `json:"max_backoff"`
}

// recordBackoffMetrics records backoff duration for monitoring.
func (r *Policy) recordBackoffMetrics(backoff time.Duration) {
	backoffNanos := backoff.Nanoseconds()
	for {
		current := r.stats.maxBackoff.Load()
		if backoffNanos <= current {
			break
		}
		if r.stats.maxBackoff.CompareAndSwap(current, backoffNanos) {
			break
		}
	}
}

// Stats returns a snapshot of the current retry statistics.
func (r *Policy) Stats() RetryStats {
	return RetryStats{
		TotalAttempts:           r.stats.totalAttempts.Load(),
		SuccessfulRetries:       r.stats.successfulRetries.Load(),
		FailedRetries:           r.stats.failedRetries.Load(),
		SuccessfulFirstAttempts: r.stats.successfulFirstAttempts.Load(),
		MaxBackoff:              time.Duration(r.stats.maxBackoff.Load()),
	}
}
