package xws

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"runtime/debug"
	"sync"

	"github.com/papercomputeco/xws/pkg/logger"
)

// Client is the access point to XWS. It holds the HTTP stack, the dispatcher
// for enqueued calls, auth error callbacks and cached resources. A Client is
// safe for concurrent use and should be reused.
type Client struct {
	endpoint   *url.URL
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
	executor   Executor
	dispatcher *dispatcher
	loggedIn   bool

	mu            sync.Mutex
	authCallbacks []authCallback
	nextID        uint64
	resources     map[reflect.Type]any
}

// UnauthorizedResponse is handed to auth error callbacks. Raw's body has been
// consumed; its content is in Body.
type UnauthorizedResponse struct {
	Raw  *http.Response
	Body []byte
}

type authCallback struct {
	id uint64
	fn func(*UnauthorizedResponse)
}

// New creates a Client. It is logged out unless WithOAuth1 or WithSigner is given.
func New(opts ...Option) (*Client, error) {
	o := &options{endpoint: DefaultEndpoint}
	for _, opt := range opts {
		opt(o)
	}

	endpoint, err := parseEndpoint(o.endpoint)
	if err != nil {
		return nil, err
	}

	if o.oauth != nil {
		if err := validateSigner(o.oauth); err != nil {
			return nil, err
		}
	}

	if o.logger == nil {
		o.logger = logger.Nop()
	}
	if o.executor == nil {
		o.executor = InlineExecutor
	}

	d, err := newDispatcher(o.dispatcher, o.logger)
	if err != nil {
		return nil, err
	}

	return &Client{
		endpoint:   endpoint,
		httpClient: buildHTTPClient(o),
		userAgent:  o.userAgent,
		logger:     o.logger,
		executor:   o.executor,
		dispatcher: d,
		loggedIn:   o.oauth != nil,
		resources:  make(map[reflect.Type]any),
	}, nil
}

// parseEndpoint parses an absolute endpoint URL such as DefaultEndpoint.
func parseEndpoint(raw string) (*url.URL, error) {
	endpoint, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint %q: %w", raw, err)
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("illegal endpoint URL: %s", raw)
	}
	return endpoint, nil
}

func validateSigner(s *Signer) error {
	var errs []error
	if s.ConsumerKey == "" {
		errs = append(errs, errors.New("consumer key not set"))
	}
	if s.ConsumerSecret == "" {
		errs = append(errs, errors.New("consumer secret not set"))
	}
	if s.Token == "" {
		errs = append(errs, errors.New("access token not set"))
	}
	if s.TokenSecret == "" {
		errs = append(errs, errors.New("access secret not set"))
	}
	return errors.Join(errs...)
}

// buildHTTPClient layers rate limiting, signing and logging over the base
// transport, in that order from the outside in.
func buildHTTPClient(o *options) *http.Client {
	hc := &http.Client{}
	if o.httpClient != nil {
		*hc = *o.httpClient
	}

	rt := hc.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	rt = &loggingTransport{base: rt, logger: o.logger}
	if o.oauth != nil {
		rt = &Transport{Signer: o.oauth, Base: rt}
	}
	if o.limit > 0 {
		burst := max(o.burst, 1)
		rt = &rateLimitTransport{base: rt, limiter: newLimiter(o.limit, burst)}
	}

	hc.Transport = rt
	if o.timeout > 0 {
		hc.Timeout = o.timeout
	}
	return hc
}

// Endpoint returns a copy of the API endpoint.
func (c *Client) Endpoint() *url.URL {
	u := *c.endpoint
	return &u
}

// HTTPClient returns the fully wrapped HTTP client used for every call.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// IsLoggedIn reports whether requests are signed.
func (c *Client) IsLoggedIn() bool {
	return c.loggedIn
}

// AddAuthErrorCallback registers fn to be called, through the callback
// Executor, for every 401 response. The returned func unregisters it.
func (c *Client) AddAuthErrorCallback(fn func(*UnauthorizedResponse)) (remove func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.authCallbacks = append(c.authCallbacks, authCallback{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, cb := range c.authCallbacks {
			if cb.id == id {
				c.authCallbacks = append(c.authCallbacks[:i:i], c.authCallbacks[i+1:]...)
				return
			}
		}
	}
}

func (c *Client) notifyAuthError(resp *UnauthorizedResponse) {
	c.mu.Lock()
	callbacks := make([]authCallback, len(c.authCallbacks))
	copy(callbacks, c.authCallbacks)
	c.mu.Unlock()

	if req := resp.Raw.Request; req != nil {
		c.logger.Warn("xws auth error", "url", req.URL.Redacted(), "callbacks", len(callbacks))
	}
	for _, cb := range callbacks {
		c.deliver("", func() { cb.fn(resp) })
	}
}

// deliver runs fn on the callback executor and recovers its panics.
func (c *Client) deliver(callID string, fn func()) {
	c.executor.Execute(func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("callback panicked",
					"call_id", callID,
					"panic", r,
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn()
	})
}

// Close stops accepting enqueued calls and waits for queued ones to finish.
func (c *Client) Close() {
	c.dispatcher.close()
}

// Me addresses the authorized user in resource paths, e.g. "/v1/users/me".
const Me = "me"

// Resource is embedded by endpoint groups built on top of a Client.
type Resource struct {
	Client *Client
}

// ResourceOf returns the client's instance of T, creating it with create on
// first use.
func ResourceOf[T any](c *Client, create func(*Client) T) T {
	key := reflect.TypeFor[T]()

	c.mu.Lock()
	r, ok := c.resources[key]
	c.mu.Unlock()
	if ok {
		return r.(T)
	}

	created := create(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.resources[key]; ok {
		return r.(T)
	}
	c.resources[key] = created
	return created
}
