package wifitrack

import (
	"time"

	"golang.org/x/time/rate"
)

// ConnectRateLimiter implements the §5 rate-limiting rule for the
// auto-connect initiator: connection initiation must not exceed a
// configured maximum count per configured interval, with breaches
// silently dropped. A user-initiated "forced connection" resets the
// limiter.
//
// Wraps golang.org/x/time/rate, the pack's grounded rate-limiting
// dependency (see DESIGN.md).
type ConnectRateLimiter struct {
	limiter *rate.Limiter
	burst   int
}

// NewConnectRateLimiter builds a limiter allowing at most maxCount
// connection attempts per interval.
func NewConnectRateLimiter(maxCount int, interval time.Duration) *ConnectRateLimiter {
	if maxCount <= 0 {
		maxCount = 1
	}
	r := rate.Every(interval / time.Duration(maxCount))
	return &ConnectRateLimiter{
		limiter: rate.NewLimiter(r, maxCount),
		burst:   maxCount,
	}
}

// Allow reports whether a connection attempt may proceed now. A false
// result means the caller must silently drop the attempt per §5.
func (l *ConnectRateLimiter) Allow() bool {
	return l.limiter.Allow()
}

// ForceAllow resets the limiter's token bucket to full, implementing
// the "forced connection resets the limiter" rule. It moves the
// limiter's last-update time back by the time a full refill takes, so
// the next Allow sees a full bucket.
func (l *ConnectRateLimiter) ForceAllow() bool {
	refill := time.Duration(float64(l.burst) / float64(l.limiter.Limit()) * float64(time.Second))
	l.limiter.SetBurstAt(time.Now().Add(-refill), l.burst)
	return true
}
