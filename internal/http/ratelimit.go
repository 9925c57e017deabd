package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var errRateLimited = errors.New("rate limit exceeded")

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RateLimiter is a fixed-window limiter shared by every replica through Redis.
type RateLimiter struct {
	client   redis.Scripter
	limit    int
	window   time.Duration
	prefix   string
	failOpen bool
	logger   *slog.Logger
	trusted  []netip.Prefix
}

// NewRateLimiter allows limit requests per client per window. When Redis is
// unreachable, failOpen lets requests through instead of answering 503.
func NewRateLimiter(client redis.Scripter, limit int, window time.Duration, failOpen bool, logger *slog.Logger) *RateLimiter {
	if limit <= 0 {
		limit = 120
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		client:   client,
		limit:    limit,
		window:   window,
		prefix:   "clinic:rl",
		failOpen: failOpen,
		logger:   defaultLogger(logger),
	}
}

// TrustProxies makes the limiter read X-Forwarded-For, but only on requests
// whose peer address falls inside one of prefixes.
func (rl *RateLimiter) TrustProxies(prefixes ...netip.Prefix) *RateLimiter {
	rl.trusted = append(rl.trusted, prefixes...)
	return rl
}

// Middleware enforces the limit.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	responder := newResponder(rl.logger)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count, err := rl.incr(r.Context(), rl.prefix+":"+rl.clientKey(r))
		if err != nil {
			responder.loggerFor(r.Context()).WarnContext(r.Context(), "rate limiter unavailable", "error", err, "fail_open", rl.failOpen)
			if rl.failOpen {
				next.ServeHTTP(w, r)
				return
			}
			responder.writeJSON(r.Context(), w, http.StatusServiceUnavailable, errorResponse{ErrorCode: codeUnavailable, Message: "rate limiter unavailable"})
			return
		}
		if count > int64(rl.limit) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			responder.writeError(r.Context(), w, http.StatusTooManyRequests, codeRateLimited, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) incr(ctx context.Context, key string) (int64, error) {
	res, err := fixedWindowScript.Run(ctx, rl.client, []string{key}, rl.window.Milliseconds()).Result()
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected rate limit script result %T", res)
	}
}

// clientKey is the peer address unless the peer is a trusted proxy. Then it
// is the right-most X-Forwarded-For hop that is not itself trusted.
func (rl *RateLimiter) clientKey(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		peer = host
	}
	if !rl.isTrusted(peer) {
		return peer
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !rl.isTrusted(hop) {
			return hop
		}
	}
	return peer
}

func (rl *RateLimiter) isTrusted(raw string) bool {
	if len(rl.trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range rl.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
