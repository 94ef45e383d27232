package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"redeemr/rewards-service/internal/metrics"

	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	IPPerMinute      int
	IPBurst          int
	AccountPerMinute int
	AccountBurst     int

	// TrustForwardedFor keys the IP limiter on X-Forwarded-For. Enable only
	// behind a proxy that overwrites the header.
	TrustForwardedFor bool
}

// RateLimiter throttles per client IP, and per account email on the
// credential endpoints so one address cannot be brute forced from many IPs.
type RateLimiter struct {
	ipLimiter      *keyedLimiter
	accountLimiter *keyedLimiter
	trustForwarded bool
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		ipLimiter:      newKeyedLimiter(cfg.IPPerMinute, cfg.IPBurst, 60, 20),
		accountLimiter: newKeyedLimiter(cfg.AccountPerMinute, cfg.AccountBurst, 10, 5),
		trustForwarded: cfg.TrustForwardedFor,
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r, l.trustForwarded)
		if ip != "" && !l.ipLimiter.allow(ip) {
			metrics.RecordRateLimited("ip")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		if isCredentialEndpoint(r) {
			if email := extractEmail(r); email != "" && !l.accountLimiter.allow(email) {
				metrics.RecordRateLimited("account")
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type keyedLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*limiterEntry
	lastGC   time.Time
}

type limiterEntry struct {
	limiter *rate.Limiter
	seen    time.Time
}

const limiterIdleTTL = 10 * time.Minute

func newKeyedLimiter(perMinute, burst, defaultPerMinute, defaultBurst int) *keyedLimiter {
	if perMinute <= 0 {
		perMinute = defaultPerMinute
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return &keyedLimiter{
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		limiters: make(map[string]*limiterEntry),
		lastGC:   time.Now(),
	}
}

func (l *keyedLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastGC) > limiterIdleTTL {
		for k, entry := range l.limiters {
			if now.Sub(entry.seen) > limiterIdleTTL {
				delete(l.limiters, k)
			}
		}
		l.lastGC = now
	}

	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.seen = now
	return entry.limiter.AllowN(now, 1)
}

func isCredentialEndpoint(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	switch strings.TrimSuffix(r.URL.Path, "/") {
	case "/auth/login", "/auth/password-reset":
		return true
	default:
		return false
	}
}

func clientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			parts := strings.Split(forwarded, ",")
			if ip := strings.TrimSpace(parts[0]); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func extractEmail(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	body, err := readBody(r)
	if err != nil {
		return ""
	}
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(payload.Email))
}

// readBody reads the body and puts it back for the handler.
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
