package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/floragems/floragems-backend/api/responses"
	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
	"github.com/floragems/floragems-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// AuthRateLimitPolicy defines the throttling parameters for one auth surface.
// A zero window or all-zero limits disables the middleware entirely.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

// NewAuthRateLimitPolicy builds a policy with the supplied window and limits.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{
		name:       name,
		window:     window,
		ipLimit:    ipLimit,
		emailLimit: emailLimit,
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

type authLimiter struct {
	policy AuthRateLimitPolicy
	store  rateLimiterStore
	logg   *logger.Logger
}

// AuthRateLimit enforces fixed-window per-IP and per-email counters on auth
// endpoints. The email is read non-destructively from the JSON body and only
// its SHA-256 hash ever reaches the store or the logs.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		lim := &authLimiter{policy: policy, store: store, logg: logg}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := clientIP(r)
			if blocked := lim.checkIP(ctx, w, ip); blocked {
				return
			}
			if blocked := lim.checkEmail(ctx, w, r); blocked {
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// checkIP returns true when the request was answered (blocked or errored).
func (l *authLimiter) checkIP(ctx context.Context, w http.ResponseWriter, ip string) bool {
	if l.policy.ipLimit <= 0 || ip == "" {
		return false
	}
	key := fmt.Sprintf("rl:ip:%s:%s", l.policy.name, ip)
	count, err := l.store.IncrWithTTL(ctx, key, l.policy.window)
	if err != nil {
		responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return true
	}
	if count > int64(l.policy.ipLimit) {
		l.block(ctx, w, "ip", ip, count, l.policy.ipLimit)
		return true
	}
	return false
}

func (l *authLimiter) checkEmail(ctx context.Context, w http.ResponseWriter, r *http.Request) bool {
	if l.policy.emailLimit <= 0 {
		return false
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
		return true
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	email := strings.ToLower(strings.TrimSpace(extractEmail(body)))
	if email == "" {
		return false
	}

	hash := sha256Hex(email)
	key := fmt.Sprintf("rl:email:%s:%s", l.policy.name, hash)
	count, err := l.store.IncrWithTTL(ctx, key, l.policy.window)
	if err != nil {
		responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return true
	}
	if count > int64(l.policy.emailLimit) {
		l.block(ctx, w, "email", hash, count, l.policy.emailLimit)
		return true
	}
	return false
}

func (l *authLimiter) block(ctx context.Context, w http.ResponseWriter, scope, subject string, count int64, limit int) {
	if l.logg != nil {
		logCtx := l.logg.WithFields(ctx, map[string]any{
			"scope":          scope,
			"subject":        subject,
			"policy":         l.policy.name,
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(l.policy.window.Seconds()),
		})
		l.logg.Warn(logCtx, "auth.rate_limit.blocked")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Email
}

func sha256Hex(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
