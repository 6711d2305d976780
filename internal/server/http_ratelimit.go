package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultBucketIdleTTL = 10 * time.Minute

// clientBuckets holds one token bucket per client key. Buckets idle for
// longer than idleTTL are dropped during a sweep, which runs inline at most
// once per idleTTL.
type clientBuckets struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	swept   time.Time
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newClientBuckets(requestsPerMin, burst int, idleTTL time.Duration) *clientBuckets {
	if idleTTL <= 0 {
		idleTTL = defaultBucketIdleTTL
	}
	return &clientBuckets{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(float64(requestsPerMin) / 60),
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// take spends one token from key's bucket. When the bucket is empty it
// reports false and how long until a token is available, or zero when none
// ever will be.
func (c *clientBuckets) take(key string) (bool, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweep(now)

	b, ok := c.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.buckets[key] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return false, wait
	}
	return true, 0
}

func (c *clientBuckets) sweep(now time.Time) {
	if now.Sub(c.swept) < c.idleTTL {
		return
	}
	c.swept = now
	for key, b := range c.buckets {
		if now.Sub(b.lastSeen) > c.idleTTL {
			delete(c.buckets, key)
		}
	}
}

func (c *clientBuckets) stats() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	return map[string]any{
		"active_limiters": len(c.buckets),
		"rate_per_minute": float64(c.limit) * 60,
		"burst_capacity":  c.burst,
		"idle_ttl":        c.idleTTL.String(),
	}
}

// retryAfter renders a wait as whole seconds for the Retry-After header.
// An unknown wait falls back to one minute.
func retryAfter(wait time.Duration) string {
	if wait <= 0 {
		return "60"
	}
	return strconv.Itoa(int(math.Ceil(wait.Seconds())))
}

// rateLimitMiddleware rejects clients whose bucket is empty with 429.
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimit == nil || !s.RateLimit.Enabled || s.limiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			keyType, key := getRateLimitKey(r, s.RateLimit.HeaderKey, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if key == "" {
				next(w, r)
				return
			}

			if ok, wait := s.limiter.take(key); !ok {
				s.Logger.Info("Rate limit exceeded",
					"key_type", keyType,
					"endpoint", r.URL.Path,
					"client_ip", getClientIP(r),
					"retry_after", wait)
				s.Observability.GetMetrics().RecordRateLimitHit(r.Context(), keyType)
				w.Header().Set("Retry-After", retryAfter(wait))
				writeErrorResponse(w, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
				return
			}

			next(w, r)
		}
	}
}

// getRateLimitKey picks the bucket for a request: the API key when asked
// and present, else the client IP.
func getRateLimitKey(r *http.Request, headerKey string, byAPIKey, byIP bool) (keyType, key string) {
	if byAPIKey {
		if apiKey := extractAPIKey(r, headerKey); apiKey != "" {
			return "api_key", "api:" + apiKey
		}
	}
	if byIP {
		return "ip", "ip:" + getClientIP(r)
	}
	return "", ""
}

// extractAPIKey reads the key header, falling back to a Bearer token.
func extractAPIKey(r *http.Request, headerKey string) string {
	if headerKey == "" {
		headerKey = "X-API-Key"
	}
	if apiKey := r.Header.Get(headerKey); apiKey != "" {
		return apiKey
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// getClientIP prefers the first valid X-Forwarded-For hop, then X-Real-IP,
// then the connection's remote address.
func getClientIP(r *http.Request) string {
	for hop := range strings.SplitSeq(r.Header.Get("X-Forwarded-For"), ",") {
		if hop = strings.TrimSpace(hop); net.ParseIP(hop) != nil {
			return hop
		}
	}
	if xri := r.Header.Get("X-Real-IP"); net.ParseIP(xri) != nil {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
