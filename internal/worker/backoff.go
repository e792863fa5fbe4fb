package worker

import "time"

const maxBackoff = 15 * time.Minute

// backoffDelay doubles the base delay for each prior attempt, capped so
// a job stuck behind a long outage still retries at a useful cadence.
func backoffDelay(base time.Duration, attempts int) time.Duration {
	if base <= 0 {
		base = 30 * time.Second
	}
	delay := base
	for i := 0; i < attempts; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
