package v1

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xiaot623/gogo/exchange/internal/auth"
)

const subjectKey = "auth_subject"

// requireRole rejects requests without a valid bearer token of role and
// stores the token subject on the context.
func (h *Handler) requireRole(role auth.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing or malformed Authorization header"})
			}
			claims, err := h.tokens.Verify(strings.TrimPrefix(header, "Bearer "), role)
			if err != nil {
				h.logger.Debug("token rejected", zap.String("role", string(role)), zap.Error(err))
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
			}
			c.Set(subjectKey, claims.Subject)
			return next(c)
		}
	}
}

func subject(c echo.Context) string {
	s, _ := c.Get(subjectKey).(string)
	return s
}

// RateLimiter limits requests per client IP to perMinute, with bursts of up
// to burst requests. Idle visitors are forgotten; the sweep stops with ctx.
func RateLimiter(ctx context.Context, perMinute, burst int, logger *zap.Logger) echo.MiddlewareFunc {
	type visitor struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}
	var (
		mu       sync.Mutex
		visitors = make(map[string]*visitor)
	)
	limit := rate.Limit(float64(perMinute) / 60)

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				mu.Lock()
				for ip, v := range visitors {
					if time.Since(v.lastSeen) > 3*time.Minute {
						delete(visitors, ip)
					}
				}
				mu.Unlock()
			}
		}
	}()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			mu.Lock()
			v, exists := visitors[ip]
			if !exists {
				v = &visitor{limiter: rate.NewLimiter(limit, burst)}
				visitors[ip] = v
			}
			v.lastSeen = time.Now()
			mu.Unlock()

			if !v.limiter.Allow() {
				logger.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Path()))
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
			}
			return next(c)
		}
	}
}
