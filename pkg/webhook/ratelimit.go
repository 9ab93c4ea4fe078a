package webhook

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// senderLimiterIdle is how long an idle sender's limiter is kept before the
// sweep drops it.
const senderLimiterIdle = 10 * time.Minute

// SenderLimiter throttles inbound events per sender identifier. Dropped
// events are still acknowledged at the HTTP boundary; they just never enter
// the pipeline.
type SenderLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	limiters  map[string]*senderEntry
	lastSweep time.Time
}

type senderEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewSenderLimiter allows eventsPerMinute sustained events per sender with
// the given burst.
func NewSenderLimiter(eventsPerMinute int, burst int) *SenderLimiter {
	return &SenderLimiter{
		limit:     rate.Limit(float64(eventsPerMinute) / 60.0),
		burst:     burst,
		limiters:  make(map[string]*senderEntry),
		lastSweep: time.Now(),
	}
}

// Allow reports whether an event from the sender may proceed.
func (l *SenderLimiter) Allow(senderID string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > senderLimiterIdle {
		for id, e := range l.limiters {
			if now.Sub(e.lastSeen) > senderLimiterIdle {
				delete(l.limiters, id)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.limiters[senderID]
	if !ok {
		e = &senderEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[senderID] = e
	}
	e.lastSeen = now
	return e.limiter.Allow()
}
