// Package ratelimit bounds the outbound request rate to the map backend.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/transitlabs/wayplan/internal/core/domain"
)

// Limiter combines a per-second token bucket with a per-UTC-day budget.
//
// Acquire blocks on the second bucket (honoring the context) but fails fast
// when the daily budget is exhausted: there is no point queueing a caller
// behind a quota that only resets at the next UTC day boundary.
type Limiter struct {
	perSecond *rate.Limiter

	mu       sync.Mutex
	perDay   int
	dayCount int
	dayKey   string // "2006-01-02" in UTC

	now func() time.Time
}

// New creates a limiter allowing perSecond requests per second and perDay
// requests per UTC day.
func New(perSecond, perDay int) *Limiter {
	if perSecond <= 0 {
		perSecond = 10
	}
	if perDay <= 0 {
		perDay = 25000
	}
	return &Limiter{
		perSecond: rate.NewLimiter(rate.Limit(perSecond), perSecond),
		perDay:    perDay,
		now:       time.Now,
	}
}

// Acquire reserves one outbound call. It returns a provider-quota error
// immediately when the daily budget is gone, and a context error if the
// caller is cancelled while waiting on the per-second bucket.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.takeDayToken(); err != nil {
		return err
	}
	if err := l.perSecond.Wait(ctx); err != nil {
		l.returnDayToken()
		return err
	}
	return nil
}

// Remaining reports how many requests are left in the current UTC day.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDayLocked()
	return l.perDay - l.dayCount
}

func (l *Limiter) takeDayToken() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDayLocked()
	if l.dayCount >= l.perDay {
		return domain.E(domain.KindProviderQuota, "daily request budget of %d exhausted", l.perDay)
	}
	l.dayCount++
	return nil
}

func (l *Limiter) returnDayToken() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.dayCount > 0 {
		l.dayCount--
	}
}

// rollDayLocked resets the counter when the UTC day has changed.
func (l *Limiter) rollDayLocked() {
	key := l.now().UTC().Format("2006-01-02")
	if key != l.dayKey {
		l.dayKey = key
		l.dayCount = 0
	}
}
