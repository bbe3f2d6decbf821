package middleware

import (
	"encoding/base64"
	"fmt"
	"hash/fnv"
	"math"
	"net/http"
	"storefront/internal/dto"
	"storefront/internal/ratelimit"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const ClientKeyContextKey = "client_key"

// ClientKey identifies the caller: first X-Forwarded-For hop, then
// X-Real-IP, then a hash of headers that are stable per browser.
func ClientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	ua := r.Header.Get("User-Agent")
	if ua == "" {
		ua = "unknown"
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(ua + ":" + r.Header.Get("Accept-Language")))
	return "fallback:" + base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// RateLimit rejects callers over the limiter's budget with 429.
func RateLimit(limiter *ratelimit.Limiter, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := ClientKey(c.Request())
			c.Set(ClientKeyContextKey, key)

			res := limiter.Check(key)
			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			header.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			header.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if res.Allowed {
				return next(c)
			}

			retryAfter := int64(math.Ceil(res.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			header.Set("Retry-After", strconv.FormatInt(retryAfter, 10))

			log.Warn("rate limit exceeded",
				zap.String("client", key),
				zap.String("path", c.Path()),
				zap.Int64("retry_after_seconds", retryAfter),
			)
			return c.JSON(http.StatusTooManyRequests, dto.RateLimitResponse{
				Error:      "Too many requests",
				Code:       "RATE_LIMIT_EXCEEDED",
				Message:    fmt.Sprintf("Too many checkout attempts. Try again in %d seconds.", retryAfter),
				RetryAfter: retryAfter,
			})
		}
	}
}
