// Package forward relays a push to the peer that consistent hashing says
// owns it, pacing outbound requests so one overloaded node can't be
// hammered by every other node in the cluster at once.
package forward

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// maxBackoff caps the exponential backoff a string of consecutive 429s
// can build up, so a peer that never recovers doesn't push the delay
// toward minutes.
const maxBackoff = 30 * time.Second

// Limiter combines a local token bucket with backoff triggered by a
// peer's 429 responses. Safe for concurrent use; one Limiter is shared
// across every forward destined for the same peer.
type Limiter struct {
	mu sync.Mutex

	local *rate.Limiter

	backoffUntil   time.Time
	consecutive429 int

	logger *logrus.Entry
}

// NewLimiter creates a Limiter with the given requests-per-second and
// burst. A zero or negative rps disables local pacing.
func NewLimiter(rps int, burst int, logger *logrus.Entry) *Limiter {
	var limiter *rate.Limiter
	if rps <= 0 {
		limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &Limiter{
		local:  limiter,
		logger: logger,
	}
}

// Wait blocks until the limiter allows one more forward, honoring both
// the local token bucket and any 429-triggered backoff. Returns
// ctx.Err() if ctx expires while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	backoff := l.backoffUntil
	l.mu.Unlock()

	if !backoff.IsZero() && time.Now().Before(backoff) {
		delay := time.Until(backoff)
		l.logger.WithField("delay", delay.Round(time.Millisecond)).
			Debug("forward limiter: waiting for 429 backoff")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return l.local.Wait(ctx)
}

// ObserveResponse inspects a peer's response status and headers and
// adjusts the backoff state. A 429 sets a backoff honoring Retry-After
// when the peer sends one, otherwise an exponential delay that grows
// with each consecutive 429; any other status clears the streak.
func (l *Limiter) ObserveResponse(statusCode int, headers http.Header) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if statusCode != http.StatusTooManyRequests {
		l.consecutive429 = 0
		return
	}

	l.consecutive429++

	delay := backoffForAttempt(l.consecutive429)
	if ra := headers.Get("Retry-After"); ra != "" {
		if sec, err := strconv.Atoi(ra); err == nil && sec > 0 {
			delay = time.Duration(sec) * time.Second
		}
	}
	if delay > maxBackoff {
		delay = maxBackoff
	}

	until := time.Now().Add(delay)
	if until.After(l.backoffUntil) {
		l.backoffUntil = until
		l.logger.WithFields(logrus.Fields{
			"consecutive_429s": l.consecutive429,
			"delay":            delay.Round(time.Millisecond),
		}).Warn("forward limiter: peer returned 429, backing off")
	}
}

// backoffForAttempt doubles the delay with each consecutive 429,
// starting at 500ms, independent of any header the peer sends.
func backoffForAttempt(attempt int) time.Duration {
	delay := 500 * time.Millisecond
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
