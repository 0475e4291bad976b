package llm

import (
	"context"
	"sync"
	"time"

	"socialpulse/internal/config"
)

// QuotaLimiter enforces per-minute and daily limits on LLM calls. It is
// in-memory and assumes a single orchestrator instance; counters reset on
// process restart.
type QuotaLimiter struct {
	mu sync.Mutex

	dailyLimit int
	usedToday  int
	dayKey     string

	interval time.Duration
	lastCall time.Time
}

// NewQuotaLimiter builds a limiter from config. Values <= 0 disable the
// corresponding limit.
func NewQuotaLimiter(cfg config.LLMConfig) *QuotaLimiter {
	perDay := cfg.RequestsPerDay
	if perDay < 0 {
		perDay = 0
	}
	perMinute := cfg.RequestsPerMinute
	if perMinute < 0 {
		perMinute = 0
	}

	var interval time.Duration
	if perMinute > 0 {
		interval = time.Minute / time.Duration(perMinute)
	}

	return &QuotaLimiter{
		dailyLimit: perDay,
		interval:   interval,
	}
}

// WaitAndReserve applies the limits before an LLM call.
// Returns (false, nil) when the daily limit is exhausted: the caller must
// skip the call. Returns (false, err) on context cancellation.
func (l *QuotaLimiter) WaitAndReserve(ctx context.Context) (bool, error) {
	for {
		l.mu.Lock()

		now := time.Now().UTC()
		todayKey := now.Format("2006-01-02")
		if l.dayKey != todayKey {
			l.dayKey = todayKey
			l.usedToday = 0
		}

		if l.dailyLimit > 0 && l.usedToday >= l.dailyLimit {
			l.mu.Unlock()
			return false, nil
		}

		var delay time.Duration
		if l.interval > 0 && !l.lastCall.IsZero() {
			delay = time.Until(l.lastCall.Add(l.interval))
		}

		if delay <= 0 {
			l.usedToday++
			l.lastCall = now
			l.mu.Unlock()
			return true, nil
		}

		l.mu.Unlock()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}
