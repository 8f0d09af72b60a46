package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AnshRaj112/serenify-journal/pkg/clientip"
	"golang.org/x/time/rate"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerXXSSProtection          = "X-XSS-Protection"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"

	globalRateLimitRPS   = 1
	globalRateLimitBurst = 10

	loginRateLimitEvery = 5 * time.Second
	loginRateLimitBurst = 2
)

// LoginPaths are the credential-checking routes given the stricter limit.
var LoginPaths = map[string]bool{
	"/public/login":  true,
	"/public/signup": true,
}

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerXXSSProtection, "1; mode=block")
		w.Header().Set(headerContentSecurityPolicy, "default-src 'self'")
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// HostCheck returns 403 when r.Host does not match allowedHost.
// allowedHost should be the bare hostname without scheme or port.
func HostCheck(allowedHost string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedHost == "" {
				next.ServeHTTP(w, r)
				return
			}
			reqHost := r.Host
			if host, _, err := net.SplitHostPort(reqHost); err == nil {
				reqHost = host
			}
			if !strings.EqualFold(strings.TrimSpace(reqHost), strings.TrimSpace(allowedHost)) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte("Forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit rejects a request with 429 when keyFn's bucket is empty. Requests
// for which keyFn returns "" pass through.
func RateLimit(l *KeyedLimiter, keyFn func(*http.Request) string, message string) func(http.Handler) http.Handler {
	body := []byte(`{"success":false,"message":"` + message + `"}`)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.Burst()))
			if !l.Allow(key) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write(body)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewGlobalLimiter limits each IP to 1 req/s, burst 10.
func NewGlobalLimiter() *KeyedLimiter {
	return NewKeyedLimiter(rate.Limit(globalRateLimitRPS), globalRateLimitBurst)
}

// NewLoginLimiter limits each IP to 1 credential attempt per 5s, burst 2.
func NewLoginLimiter() *KeyedLimiter {
	return NewKeyedLimiter(rate.Every(loginRateLimitEvery), loginRateLimitBurst)
}

func clientIPKey(r *http.Request) string {
	return clientip.RealClientIP(r)
}

func loginIPKey(r *http.Request) string {
	if !LoginPaths[r.URL.Path] {
		return ""
	}
	return clientip.RealClientIP(r)
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → HostCheck → global → login rate limit.
func ProductionSecurity(allowedHost string, global, login *KeyedLimiter) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		HostCheck(allowedHost),
		RateLimit(global, clientIPKey, "Too many requests. Please slow down."),
		RateLimit(login, loginIPKey, "Too many login attempts. Please try again later."),
	}
}
