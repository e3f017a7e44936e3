// Package ratelimit limits sign-in attempts per email and per client IP.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
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
	MaxAttemptsPerEmail int           // Failed attempts before lockout (default: 5)
	Lockout             time.Duration // Window for per-email failures (default: 15m)
	MaxAttemptsPerIP    int           // Failed attempts per IP per window (default: 30)
	IPWindow            time.Duration // Window for per-IP failures (default: 1h)
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxAttemptsPerEmail: 5,
		Lockout:             15 * time.Minute,
		MaxAttemptsPerIP:    30,
		IPWindow:            time.Hour,
	}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string // For logging
}

// Counter keeps fixed-window attempt counts.
type Counter interface {
	// Incr adds one to key and returns the new count and the time left in
	// the window. The window starts with the first increment.
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	// Get returns the current count and time left; zero when the key is absent.
	Get(ctx context.Context, key string) (int64, time.Duration, error)
	Reset(ctx context.Context, key string) error
}

// Limiter checks and records failed sign-ins. Counter failures are logged
// and the attempt is allowed.
type Limiter struct {
	config  *Config
	counter Counter
}

func New(cfg *Config, counter Counter) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Limiter{config: cfg, counter: counter}
}

// CheckSignIn reports whether a sign-in for email from ip may proceed.
// Does NOT record the attempt - call RecordFailure when the password is wrong.
func (l *Limiter) CheckSignIn(ctx context.Context, email, ip string) LimitResult {
	count, ttl, err := l.counter.Get(ctx, emailKey(email))
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Rate limit lookup failed")
		return LimitResult{Allowed: true}
	}
	if count >= int64(l.config.MaxAttemptsPerEmail) {
		return LimitResult{Allowed: false, RetryAfter: ttl, Reason: "lockout"}
	}

	count, ttl, err = l.counter.Get(ctx, ipKey(ip))
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Rate limit lookup failed")
		return LimitResult{Allowed: true}
	}
	if count >= int64(l.config.MaxAttemptsPerIP) {
		return LimitResult{Allowed: false, RetryAfter: ttl, Reason: "ip_limit"}
	}
	return LimitResult{Allowed: true}
}

// RecordFailure counts a failed attempt. Returns true when this attempt
// triggered the email lockout.
func (l *Limiter) RecordFailure(ctx context.Context, email, ip string) (lockedOut bool) {
	count, _, err := l.counter.Incr(ctx, emailKey(email), l.config.Lockout)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Rate limit record failed")
	} else if count == int64(l.config.MaxAttemptsPerEmail) {
		lockedOut = true
	}
	if _, _, err := l.counter.Incr(ctx, ipKey(ip), l.config.IPWindow); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Rate limit record failed")
	}
	return lockedOut
}

// Reset clears the email counter after a successful sign-in.
func (l *Limiter) Reset(ctx context.Context, email string) {
	if err := l.counter.Reset(ctx, emailKey(email)); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Rate limit reset failed")
	}
}

func emailKey(email string) string {
	return hashKey("signin:email:", normalizeIdentifier(email))
}

func ipKey(ip string) string {
	return hashKey("signin:ip:", ip)
}

func hashKey(prefix, value string) string {
	hash := sha256.Sum256([]byte(value))
	return prefix + hex.EncodeToString(hash[:8])
}

// normalizeIdentifier lowercases the identifier to prevent case-based bypass.
func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// GetClientIP extracts the client IP from a request.
// When trustProxy is true, uses the rightmost IP from X-Forwarded-For (added by your proxy).
// When trustProxy is false, ignores X-Forwarded-For entirely (prevents spoofing).
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			for i := len(parts) - 1; i >= 0; i-- {
				ip := strings.TrimSpace(parts[i])
				if ip != "" && !isPrivateIP(ip) {
					return ip
				}
			}
			return strings.TrimSpace(parts[len(parts)-1])
		}

		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, or a bare IP followed by junk.
		if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 && net.ParseIP(r.RemoteAddr) == nil {
			if candidate := r.RemoteAddr[:idx]; net.ParseIP(candidate) != nil {
				return candidate
			}
		}
		return r.RemoteAddr
	}
	return ip
}

var privateNetworks []*net.IPNet

func init() {
	for _, cidr := range []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10",
	} {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("invalid private CIDR: " + cidr)
		}
		privateNetworks = append(privateNetworks, network)
	}
}

// isPrivateIP handles IPv4-mapped IPv6 addresses as IPv4.
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

// SanitizeIdentifier masks an email for logging.
func SanitizeIdentifier(identifier string) string {
	identifier = normalizeIdentifier(identifier)
	if at := strings.LastIndex(identifier, "@"); at >= 0 {
		local, domain := identifier[:at], identifier[at+1:]
		if len(local) > 2 {
			return local[:2] + "***@" + domain
		}
		return "***@" + domain
	}
	return "***"
}

// LogRateLimitExceeded logs a rate limit event with sanitized identifier.
func LogRateLimitExceeded(ctx context.Context, email, ip, reason string) {
	log.Ctx(ctx).Warn().
		Str("event", "rate_limit_exceeded").
		Str("identifier", SanitizeIdentifier(email)).
		Str("ip", ip).
		Str("reason", reason).
		Msg("Sign-in rate limit exceeded")
}
