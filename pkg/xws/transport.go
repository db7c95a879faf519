package xws

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// loggingTransport logs every round trip at debug level.
type loggingTransport struct {
	base   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start)

	if err != nil {
		t.logger.Debug("xws request failed",
			"method", req.Method,
			"url", redactedURL(req),
			"duration", elapsed,
			"error", err,
		)
		return nil, err
	}

	t.logger.Debug("xws request",
		"method", req.Method,
		"url", redactedURL(req),
		"status", resp.StatusCode,
		"duration", elapsed,
	)
	return resp, nil
}

func redactedURL(req *http.Request) string {
	u := *req.URL
	u.User = nil
	return u.String()
}

// rateLimitTransport delays requests to stay within a token bucket.
type rateLimitTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return t.base.RoundTrip(req)
}

func newLimiter(limit rate.Limit, burst int) *rate.Limiter {
	return rate.NewLimiter(limit, burst)
}
