package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

const DefaultWindow = time.Minute

type ipBucket struct {
	count     int64
	resetTime time.Time
}

// IPLimiter is a fixed-window per-client-IP request limiter. Lookups fan out
// to every provider of a profile, so they are limited before they reach them.
type IPLimiter struct {
	mu      sync.Mutex
	buckets map[string]*ipBucket
	limit   int64
	window  time.Duration
	now     func() time.Time
}

// NewIPLimiter allows limit requests per window for each client IP.
func NewIPLimiter(limit int, window time.Duration) *IPLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &IPLimiter{
		buckets: make(map[string]*ipBucket),
		limit:   int64(limit),
		window:  window,
		now:     time.Now,
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (l *IPLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, retryAfter := l.allow(c.RealIP())
			if !ok {
				seconds := int(retryAfter.Round(time.Second) / time.Second)
				if seconds < 1 {
					seconds = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
			}
			return next(c)
		}
	}
}

func (l *IPLimiter) allow(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket, exists := l.buckets[ip]
	if !exists || now.After(bucket.resetTime) {
		l.buckets[ip] = &ipBucket{count: 1, resetTime: now.Add(l.window)}
		l.sweep(now)
		return true, 0
	}
	if bucket.count >= l.limit {
		return false, bucket.resetTime.Sub(now)
	}
	bucket.count++
	return true, 0
}

// sweep drops expired buckets. Must be called with the lock held.
func (l *IPLimiter) sweep(now time.Time) {
	for ip, bucket := range l.buckets {
		if now.After(bucket.resetTime) {
			delete(l.buckets, ip)
		}
	}
}
