package xws

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultEndpoint is the production XWS endpoint.
const DefaultEndpoint = "https://api.xing.com/"

// Option configures a Client created with New.
type Option func(*options)

type options struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	executor   Executor
	dispatcher DispatcherConfig
	limit      rate.Limit
	burst      int
	userAgent  string

	oauth *Signer
}

// WithOAuth1 signs every request with the given application and user
// credentials. All four values are required. Without this option the client
// is logged out and can only reach public resources.
func WithOAuth1(consumerKey, consumerSecret, accessToken, accessSecret string) Option {
	return func(o *options) {
		o.oauth = &Signer{
			ConsumerKey:    consumerKey,
			ConsumerSecret: consumerSecret,
			Token:          accessToken,
			TokenSecret:    accessSecret,
		}
	}
}

// WithSigner uses a preconfigured signer, e.g. one with a fixed clock in tests.
func WithSigner(s *Signer) Option {
	return func(o *options) {
		o.oauth = s
	}
}

// WithEndpoint overrides DefaultEndpoint, e.g. for a staging system or a mock server.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.endpoint = endpoint
	}
}

// WithHTTPClient sets the HTTP client to build on. Its transport is wrapped,
// the client itself is not modified.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithTimeout bounds every request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithLogger sets the logger. Defaults to a logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithCallbackExecutor sets where Callback and auth error callbacks run.
// Defaults to InlineExecutor.
func WithCallbackExecutor(e Executor) Option {
	return func(o *options) {
		o.executor = e
	}
}

// WithDispatcher sizes the pool running enqueued calls. Zero values keep the defaults.
func WithDispatcher(workers, queueSize uint) Option {
	return func(o *options) {
		o.dispatcher = DispatcherConfig{NumWorkers: workers, QueueSize: queueSize}
	}
}

// WithRateLimit allows at most limit requests per second with bursts of burst.
func WithRateLimit(limit float64, burst int) Option {
	return func(o *options) {
		o.limit = rate.Limit(limit)
		o.burst = burst
	}
}

// WithUserAgent sets the User-Agent header of every request.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}
