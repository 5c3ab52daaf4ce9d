package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dunamismax/batch4k/internal/ratelimit"
)

type RateLimiter interface {
	Allow(ctx context.Context, subject string, cost int) (ratelimit.Decision, error)
}

// allow charges one token per image. Limiter failures fail open.
func (s *Server) allow(w http.ResponseWriter, r *http.Request, images int) bool {
	if s.rateLimiter == nil {
		return true
	}

	subject := strings.TrimSpace(r.Header.Get(s.rateLimitUserIDHeader))
	if subject == "" {
		subject = "anonymous"
	}
	subject = subject + ":" + routeLabel(r.URL.Path)

	decision, err := s.rateLimiter.Allow(r.Context(), subject, images)
	if err != nil {
		s.logger.Printf("rate limiter check failed for subject=%s err=%v", subject, err)
		return true
	}

	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
	if decision.Allowed {
		return true
	}

	retryAfter := int(decision.RetryAfter.Round(time.Second).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	s.metrics.rateLimitRejected.WithLabelValues(routeLabel(r.URL.Path)).Inc()
	writeJSON(w, http.StatusTooManyRequests, map[string]string{
		"error": "rate limit exceeded",
	})
	return false
}
