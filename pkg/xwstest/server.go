// Package xwstest provides an in-process XWS stand-in for tests. Responses are
// queued up front and served in order; every received request is recorded.
package xwstest

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
)

// DefaultTakeTimeout bounds TakeRequest.
var DefaultTakeTimeout = 5 * time.Second

// ErrNoRequest is returned by TakeRequest when nothing arrived in time.
var ErrNoRequest = errors.New("no request received")

// MockResponse is a canned response.
type MockResponse struct {
	Status int
	Header http.Header
	Body   string

	// Delay holds the response back, e.g. to exercise cancellation.
	Delay time.Duration
}

// JSON is a response with a JSON body.
func JSON(status int, body string) MockResponse {
	h := http.Header{}
	h.Set("Content-Type", "application/json; charset=utf-8")
	return MockResponse{Status: status, Header: h, Body: body}
}

// Empty is a response without body.
func Empty(status int) MockResponse {
	return MockResponse{Status: status}
}

// WithHeader returns a copy of r with an extra header.
func (r MockResponse) WithHeader(name, value string) MockResponse {
	h := r.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(name, value)
	r.Header = h
	return r
}

// RecordedRequest is a request as the server received it.
type RecordedRequest struct {
	Method string

	// Path and RawQuery are exactly what the client sent, still encoded.
	Path     string
	RawQuery string

	Header http.Header
	Body   []byte
}

// Query decodes RawQuery.
func (r *RecordedRequest) Query() url.Values {
	v, _ := url.ParseQuery(r.RawQuery)
	return v
}

// RequestLine renders "METHOD path?query".
func (r *RecordedRequest) RequestLine() string {
	if r.RawQuery == "" {
		return r.Method + " " + r.Path
	}
	return r.Method + " " + r.Path + "?" + r.RawQuery
}

// Server is a mock XWS server.
type Server struct {
	// URL is the base URL with a trailing slash, ready for xws.WithEndpoint.
	URL string

	app  *fiber.App
	http *httptest.Server

	mu       sync.Mutex
	queue    []MockResponse
	count    int
	requests chan RecordedRequest
}

// NewServer starts a server. Requests arriving with an empty queue are
// answered with 404.
func NewServer() *Server {
	s := &Server{
		requests: make(chan RecordedRequest, 256),
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		Immutable:             true,
	})
	s.app.All("/*", s.handle)

	s.http = httptest.NewServer(adaptor.FiberApp(s.app))
	s.URL = s.http.URL + "/"
	return s
}

// Enqueue appends responses to be served in order.
func (s *Server) Enqueue(responses ...MockResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, responses...)
}

// TakeRequest returns the oldest recorded request, waiting up to
// DefaultTakeTimeout for one to arrive.
func (s *Server) TakeRequest() (*RecordedRequest, error) {
	select {
	case r := <-s.requests:
		return &r, nil
	case <-time.After(DefaultTakeTimeout):
		return nil, ErrNoRequest
	}
}

// RequestCount is the number of requests received so far.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Close shuts the server down.
func (s *Server) Close() {
	s.http.Close()
	_ = s.app.Shutdown()
}

func (s *Server) handle(c *fiber.Ctx) error {
	s.record(c)

	resp, ok := s.next()
	if !ok {
		return c.SendStatus(fiber.StatusNotFound)
	}
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	for name, values := range resp.Header {
		for _, v := range values {
			c.Append(name, v)
		}
	}
	c.Status(resp.Status)
	if resp.Body == "" {
		return nil
	}
	return c.SendString(resp.Body)
}

func (s *Server) record(c *fiber.Ctx) {
	path, rawQuery, _ := strings.Cut(c.OriginalURL(), "?")

	header := http.Header{}
	for name, values := range c.GetReqHeaders() {
		for _, v := range values {
			header.Add(name, v)
		}
	}

	r := RecordedRequest{
		Method:   c.Method(),
		Path:     path,
		RawQuery: rawQuery,
		Header:   header,
		Body:     append([]byte(nil), c.Body()...),
	}

	s.mu.Lock()
	s.count++
	s.mu.Unlock()

	select {
	case s.requests <- r:
	default:
	}
}

func (s *Server) next() (MockResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return MockResponse{}, false
	}
	r := s.queue[0]
	s.queue = s.queue[1:]
	return r, true
}
