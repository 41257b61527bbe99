package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/GregMSThompson/ca-portal/internal/response"
	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

const (
	limiterIdle    = 10 * time.Minute
	sweepEvery     = time.Minute
	maxVisitors    = 10000
	retryAfterSecs = "60"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. The table is bounded: when
// it is full the least recently seen client loses its bucket.
type RateLimiter struct {
	mu          sync.Mutex
	visitors    map[string]*visitor
	limit       rate.Limit
	burst       int
	trustedHops int
	maxVisitors int
	lastSweep   time.Time
	resp        response.ResponseHandler
	clockNow    func() time.Time
}

// NewRateLimiter allows perSecond requests per IP with the given burst.
// trustedHops is the number of proxies in front of the service that append to
// X-Forwarded-For (one on Cloud Run); zero keys on the connection address.
func NewRateLimiter(perSecond float64, burst, trustedHops int, resp response.ResponseHandler) *RateLimiter {
	return &RateLimiter{
		visitors:    map[string]*visitor{},
		limit:       rate.Limit(perSecond),
		burst:       burst,
		trustedHops: trustedHops,
		maxVisitors: maxVisitors,
		resp:        resp,
		clockNow:    time.Now,
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clockNow()
	if now.Sub(rl.lastSweep) >= sweepEvery {
		for key, v := range rl.visitors {
			if now.Sub(v.lastSeen) > limiterIdle {
				delete(rl.visitors, key)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[ip]
	if !ok {
		if len(rl.visitors) >= rl.maxVisitors {
			rl.evictOldest()
		}
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, v := range rl.visitors {
		if oldestKey == "" || v.lastSeen.Before(oldest) {
			oldestKey, oldest = key, v.lastSeen
		}
	}
	delete(rl.visitors, oldestKey)
}

// clientIP returns the address the trusted proxy chain saw the request come
// from. Entries left of the trusted hops are client-supplied and ignored.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	if rl.trustedHops > 0 {
		var hops []string
		for _, h := range r.Header.Values("X-Forwarded-For") {
			for _, part := range strings.Split(h, ",") {
				hops = append(hops, strings.TrimSpace(part))
			}
		}
		if i := len(hops) - rl.trustedHops; i >= 0 {
			if ip := net.ParseIP(hops[i]); ip != nil {
				return ip.String()
			}
		}
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.clientIP(r)
		if !rl.allow(ip) {
			logger.FromContext(r.Context()).Warn("rate limited", "ip", ip)
			w.Header().Set("Retry-After", retryAfterSecs)
			rl.resp.WriteError(w, r, http.StatusTooManyRequests, "rate_limited", "too many requests, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
