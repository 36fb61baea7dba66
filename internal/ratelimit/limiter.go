// Package ratelimit throttles write requests per client IP and booking
// attempts per username.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

// realClock implements Clock using the system time.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds rate limit configuration.
type Config struct {
	// Booking attempt limits
	AttemptCooldown   time.Duration // Minimum time between attempts per username (default: 2s)
	AttemptMaxPerHour int           // Max attempts per username per hour (default: 30)

	// Write request limits
	WriteMaxIPPerHour int // Max write requests per IP per hour (default: 300)

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		AttemptCooldown:   2 * time.Second,
		AttemptMaxPerHour: 30,
		WriteMaxIPPerHour: 300,
	}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string // For logging
}

// entry tracks request counts and timestamps.
type entry struct {
	count   int
	firstAt time.Time // First request in window
	lastAt  time.Time // Most recent request (for cooldown)
}

// Limiter implements per-username and per-IP rate limiting.
type Limiter struct {
	config *Config
	clock  Clock
	mu     sync.RWMutex
	// Keyed by hash of username or IP
	attemptsByUser map[string]*entry
	writesByIP     map[string]*entry

	// Cleanup goroutine management
	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

// New creates a new rate limiter with the given config.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:         cfg,
		clock:          clock,
		attemptsByUser: make(map[string]*entry),
		writesByIP:     make(map[string]*entry),
		cleanupCtx:     ctx,
		cleanupCancel:  cancel,
	}
}

// Close stops the cleanup goroutine and releases resources.
func (l *Limiter) Close() {
	l.cleanupCancel()
	l.cleanupWg.Wait()
}

// CheckAttempt checks if a booking attempt by username is allowed.
// Does NOT record the attempt - call RecordAttempt once the attempt is made.
func (l *Limiter) CheckAttempt(username string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()
	key := l.hashKey("attempt:user:", normalizeIdentifier(username))

	l.mu.RLock()
	defer l.mu.RUnlock()

	e := l.attemptsByUser[key]
	if e == nil {
		return LimitResult{Allowed: true}
	}

	elapsed := now.Sub(e.lastAt)
	if elapsed < l.config.AttemptCooldown {
		return LimitResult{
			Allowed:    false,
			RetryAfter: l.config.AttemptCooldown - elapsed,
			Reason:     "cooldown",
		}
	}

	if now.Sub(e.firstAt) < time.Hour && e.count >= l.config.AttemptMaxPerHour {
		return LimitResult{
			Allowed:    false,
			RetryAfter: time.Hour - now.Sub(e.firstAt),
			Reason:     "hourly_limit",
		}
	}

	return LimitResult{Allowed: true}
}

// RecordAttempt records a booking attempt by username.
func (l *Limiter) RecordAttempt(username string) {
	now := l.clock.Now()
	key := l.hashKey("attempt:user:", normalizeIdentifier(username))

	l.mu.Lock()
	defer l.mu.Unlock()

	record(l.attemptsByUser, key, now)
}

// CheckWrite checks if another write request from ip is allowed.
func (l *Limiter) CheckWrite(ip string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()
	key := l.hashKey("write:ip:", ip)

	l.mu.RLock()
	defer l.mu.RUnlock()

	if e := l.writesByIP[key]; e != nil {
		if now.Sub(e.firstAt) < time.Hour && e.count >= l.config.WriteMaxIPPerHour {
			return LimitResult{
				Allowed:    false,
				RetryAfter: time.Hour - now.Sub(e.firstAt),
				Reason:     "ip_hourly_limit",
			}
		}
	}

	return LimitResult{Allowed: true}
}

// RecordWrite records a write request from ip.
func (l *Limiter) RecordWrite(ip string) {
	now := l.clock.Now()
	key := l.hashKey("write:ip:", ip)

	l.mu.Lock()
	defer l.mu.Unlock()

	record(l.writesByIP, key, now)
}

// ResetAttempts clears the attempt counter for username.
func (l *Limiter) ResetAttempts(username string) {
	key := l.hashKey("attempt:user:", normalizeIdentifier(username))
	l.mu.Lock()
	delete(l.attemptsByUser, key)
	l.mu.Unlock()
}

// Middleware rejects write requests (anything but GET, HEAD and OPTIONS) from
// clients over their hourly allowance with 429.
func (l *Limiter) Middleware(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			ip := GetClientIP(r, trustProxy)
			result := l.CheckWrite(ip)
			if !result.Allowed {
				LogRateLimitExceeded(r.Context(), "write", ip, result.Reason)
				WriteRetryAfter(w, result.RetryAfter)
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			l.RecordWrite(ip)
			next.ServeHTTP(w, r)
		})
	}
}

// WriteRetryAfter sets the Retry-After header in whole seconds, rounding up.
func WriteRetryAfter(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int((retryAfter + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
}

func record(entries map[string]*entry, key string, now time.Time) {
	e := entries[key]
	if e == nil || now.Sub(e.firstAt) >= time.Hour {
		entries[key] = &entry{count: 1, firstAt: now, lastAt: now}
		return
	}
	e.count++
	e.lastAt = now
}

func (l *Limiter) hashKey(prefix, value string) string {
	hash := sha256.Sum256([]byte(value))
	return prefix + hex.EncodeToString(hash[:8])
}

// normalizeIdentifier lowercases the identifier to prevent case-based bypass.
func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

func (l *Limiter) startCleanup() {
	l.cleanupOnce.Do(func() {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-l.cleanupCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

func (l *Limiter) cleanup() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, e := range l.attemptsByUser {
		if now.Sub(e.lastAt) > time.Hour {
			delete(l.attemptsByUser, k)
		}
	}
	for k, e := range l.writesByIP {
		if now.Sub(e.lastAt) > time.Hour {
			delete(l.writesByIP, k)
		}
	}
}

// GetClientIP extracts the client IP from a request.
// When trustProxy is true, uses the rightmost IP from X-Forwarded-For (added by your proxy).
// When trustProxy is false, ignores X-Forwarded-For entirely.
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			for i := len(parts) - 1; i >= 0; i-- {
				ip := strings.TrimSpace(parts[i])
				// Skip private/internal IPs to find the real client
				if ip != "" && !isPrivateIP(ip) {
					return ip
				}
			}
			// All IPs are private, use the last one
			return strings.TrimSpace(parts[len(parts)-1])
		}

		// Check X-Real-IP (set by nginx)
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port (e.g., Unix socket or malformed)
		if parsed := net.ParseIP(r.RemoteAddr); parsed != nil {
			return r.RemoteAddr
		}
		if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
			candidate := r.RemoteAddr[:idx]
			if net.ParseIP(candidate) != nil {
				return candidate
			}
		}
		return r.RemoteAddr
	}
	return ip
}

// privateNetworks holds parsed CIDR ranges for private/reserved IPs.
var privateNetworks []*net.IPNet

func init() {
	privateRanges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10", // Link-local
	}
	for _, cidr := range privateRanges {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("invalid private CIDR: " + cidr)
		}
		privateNetworks = append(privateNetworks, network)
	}
}

// isPrivateIP checks if an IP is in a private/reserved range.
// Handles IPv4-mapped IPv6 addresses (e.g., ::ffff:192.168.1.1).
func isPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}

	if ipv4 := ip.To4(); ipv4 != nil {
		ip = ipv4
	}

	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// LogRateLimitExceeded logs a rate limit event.
func LogRateLimitExceeded(ctx context.Context, limitType, key, reason string) {
	log.Ctx(ctx).Warn().
		Str("event", "rate_limit_exceeded").
		Str("type", limitType).
		Str("key", key).
		Str("reason", reason).
		Msg("Rate limit exceeded")
}
