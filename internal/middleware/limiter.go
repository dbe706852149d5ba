package middleware

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Rate Limit Tiers
const (
	// Checkout steps and gateway returns (Strict)
	limitStrict = rate.Limit(2)
	burstStrict = 5

	// General (Default)
	limitGeneral = rate.Limit(10)
	burstGeneral = 20

	// Internal / trusted services
	limitInternal = rate.Limit(100)
	burstInternal = 200
)

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	visitors = make(map[string]*visitor)
	mu       sync.Mutex
)

// init starts the background cleanup routine.
func init() {
	go cleanupVisitors()
}

// getVisitor retrieves or creates a rate limiter for the given key.
func getVisitor(key string, r rate.Limit, b int) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	v, exists := visitors[key]
	if !exists {
		limiter := rate.NewLimiter(r, b)
		visitors[key] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// cleanupVisitors removes old entries from the visitors map to prevent memory leaks.
func cleanupVisitors() {
	for {
		time.Sleep(time.Minute)

		mu.Lock()
		for key, v := range visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(visitors, key)
			}
		}
		mu.Unlock()
	}
}

// RateLimitMiddleware checks if the request is allowed by the rate limiter.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, burst, tier := resolveRateTier(r)

		// Prefer the checkout session, fall back to the client IP
		var identity string
		if sid, ok := SessionIDFromContext(r.Context()); ok {
			identity = "session:" + sid
		} else if sid := r.Header.Get("X-Checkout-Session"); sid != "" {
			identity = "session:" + sid
		} else {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			identity = "ip:" + ip
		}

		// e.g. "session:abc:strict"
		key := fmt.Sprintf("%s:%s", identity, tier)

		limiter := getVisitor(key, limit, burst)
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// resolveRateTier determines which rate limit policy applies to the request.
func resolveRateTier(r *http.Request) (rate.Limit, int, string) {
	internalKey := os.Getenv("INTERNAL_SECRET_KEY")
	if internalKey != "" && r.Header.Get("X-Service-Auth") == internalKey {
		return limitInternal, burstInternal, "internal"
	}

	if strings.HasPrefix(r.URL.Path, "/checkout/") || r.URL.Path == "/payment/novalnet/return" {
		return limitStrict, burstStrict, "strict"
	}

	return limitGeneral, burstGeneral, "general"
}
