package xws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
)

// Spec is a built call. Each Spec yields exactly one HTTP request/response
// pair: it may be executed with Execute, Enqueue, Body, or one of the stream
// methods, but only once. Use Clone to repeat a call, for instance when
// polling or retrying.
//
// Cancel may be called at any time and from any goroutine. Parameters may
// be added concurrently as well; a request already built is not affected.
type Spec[RT, ET any] struct {
	builder *Builder[RT, ET]

	mu       sync.Mutex
	executed bool
	cancel   context.CancelFunc
	canceled atomic.Bool
}

// Result is a single value delivered on a stream channel.
type Result[T any] struct {
	Value T
	Err   error
}

// Clone returns an unexecuted copy of s with the same parameters.
func (s *Spec[RT, ET]) Clone() *Spec[RT, ET] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Spec[RT, ET]{builder: s.builder.clone()}
}

// IsExecuted reports whether s has been executed or enqueued.
func (s *Spec[RT, ET]) IsExecuted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executed
}

// IsCanceled reports whether Cancel was called.
func (s *Spec[RT, ET]) IsCanceled() bool {
	return s.canceled.Load()
}

// Cancel aborts an in-flight request. A Spec canceled before execution never
// sends its request.
func (s *Spec[RT, ET]) Cancel() {
	s.canceled.Store(true)

	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// QueryParam appends a query parameter. See Builder.QueryParam.
func (s *Spec[RT, ET]) QueryParam(name string, value any) *Spec[RT, ET] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builder.QueryParam(name, value)
	return s
}

// QueryParams appends a comma separated query parameter.
func (s *Spec[RT, ET]) QueryParams(name string, values ...string) *Spec[RT, ET] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builder.QueryParams(name, values...)
	return s
}

// FormField adds a form field. See Builder.FormField.
func (s *Spec[RT, ET]) FormField(name string, value any) *Spec[RT, ET] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builder.FormField(name, value)
	return s
}

// FormFields adds a comma separated form field.
func (s *Spec[RT, ET]) FormFields(name string, values ...string) *Spec[RT, ET] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builder.FormFields(name, values...)
	return s
}

// JSONBody replaces the request body with v encoded as JSON.
func (s *Spec[RT, ET]) JSONBody(v any) *Spec[RT, ET] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builder.JSONBody(v)
	return s
}

// URL returns the URL the request will be sent to.
func (s *Spec[RT, ET]) URL() (string, error) {
	s.mu.Lock()
	u, err := s.builder.URL()
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Execute sends the request and parses the response. Non-2xx responses other
// than 401 are not errors: inspect Response.IsSuccessful and Response.Error.
func (s *Spec[RT, ET]) Execute(ctx context.Context) (*Response[RT, ET], error) {
	ctx, done, err := s.markExecuted(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	return s.execute(ctx)
}

// Enqueue runs the call on the client dispatcher and reports the outcome to cb
// through the client's callback Executor. Panics raised by cb are recovered.
//
// Enqueue fails with ErrQueueFull or ErrClientClosed without marking the spec
// executed.
func (s *Spec[RT, ET]) Enqueue(ctx context.Context, cb Callback[RT, ET]) error {
	ctx, done, err := s.markExecuted(ctx)
	if err != nil {
		return err
	}

	c := s.builder.client
	err = c.dispatcher.submit(job{
		name: s.builder.method.String() + " " + s.builder.path,
		ctx:  ctx,
		run: func(ctx context.Context, id string) {
			defer done()

			resp, err := s.execute(ctx)
			c.deliver(id, func() {
				if err != nil {
					cb.OnFailure(err)
					return
				}
				cb.OnResponse(resp)
			})
		},
	})
	if err != nil {
		done()
		s.mu.Lock()
		s.executed = false
		s.cancel = nil
		s.mu.Unlock()
		return err
	}
	return nil
}

// Body executes the call and returns the decoded body of a successful
// response. Non-2xx responses are returned as *ResponseError.
func (s *Spec[RT, ET]) Body(ctx context.Context) (RT, error) {
	var zero RT

	resp, err := s.Execute(ctx)
	if err != nil {
		return zero, err
	}
	if !resp.IsSuccessful() {
		return zero, newResponseError(resp)
	}
	return resp.Body, nil
}

// RawStream executes a clone of s in the background and delivers its single
// response (or error) on the returned channel, which is then closed.
func (s *Spec[RT, ET]) RawStream(ctx context.Context) <-chan Result[*Response[RT, ET]] {
	out := make(chan Result[*Response[RT, ET]], 1)
	spec := s.Clone()

	go func() {
		defer close(out)
		resp, err := spec.Execute(ctx)
		out <- Result[*Response[RT, ET]]{Value: resp, Err: err}
	}()
	return out
}

// Stream is RawStream reduced to the body. Non-2xx responses are delivered as
// *ResponseError.
func (s *Spec[RT, ET]) Stream(ctx context.Context) <-chan Result[RT] {
	out := make(chan Result[RT], 1)
	spec := s.Clone()

	go func() {
		defer close(out)
		body, err := spec.Body(ctx)
		out <- Result[RT]{Value: body, Err: err}
	}()
	return out
}

// markExecuted flips the executed flag and derives the cancelable context the
// request runs under.
func (s *Spec[RT, ET]) markExecuted(ctx context.Context) (context.Context, context.CancelFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.executed {
		return nil, nil, ErrAlreadyExecuted
	}
	s.executed = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	if s.canceled.Load() {
		cancel()
	}
	return ctx, cancel, nil
}

func (s *Spec[RT, ET]) execute(ctx context.Context) (*Response[RT, ET], error) {
	if s.canceled.Load() {
		return nil, ErrCanceled
	}

	s.mu.Lock()
	req, err := s.builder.request(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	raw, err := s.builder.client.httpClient.Do(req)
	if err != nil {
		if s.canceled.Load() {
			return nil, fmt.Errorf("%w: %w", ErrCanceled, err)
		}
		return nil, err
	}

	return s.parseResponse(raw)
}

func (s *Spec[RT, ET]) parseResponse(raw *http.Response) (*Response[RT, ET], error) {
	body := raw.Body
	defer body.Close()
	raw.Body = http.NoBody

	resp := &Response[RT, ET]{Raw: raw}
	code := raw.StatusCode

	if code < 200 || code >= 300 {
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("reading error body: %w", err)
		}

		if code == http.StatusUnauthorized {
			s.builder.client.notifyAuthError(&UnauthorizedResponse{Raw: raw, Body: data})
			return nil, ErrUnauthorized
		}

		if len(bytes.TrimSpace(data)) == 0 {
			return resp, nil
		}
		if resp.Error, err = s.builder.errorType.Decode(data); err != nil {
			return nil, fmt.Errorf("decoding error body: %w", err)
		}
		return resp, nil
	}

	if code == http.StatusNoContent || code == http.StatusResetContent {
		return resp, nil
	}
	resp.Range = ParseContentRange(raw.Header.Get(ContentRangeHeader))
	if isBodyless(s.builder.responseType) {
		return resp, nil
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if resp.Body, err = s.builder.responseType.Decode(data); err != nil {
		return nil, fmt.Errorf("decoding body: %w", err)
	}
	return resp, nil
}

func isBodyless(t any) bool {
	b, ok := t.(bodyless)
	return ok && b.skipsBody()
}

// IsCanceled reports whether err was caused by canceling a Spec.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}
