package xws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeForm = "application/x-www-form-urlencoded"
)

var (
	paramName    = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)
	pathTemplate = regexp.MustCompile(`\{([a-zA-Z][a-zA-Z0-9_-]*)\}`)
)

// Builder assembles a call against a resource path such as
// "/v1/users/{id}/contacts". Builder methods never fail immediately: misuse is
// recorded and reported by Build.
//
// Path parameters must be set before the first query parameter.
type Builder[RT, ET any] struct {
	client *Client
	method Method

	// path is the template being expanded. It is frozen once the first query
	// parameter is added.
	path       string
	pathFrozen bool
	unresolved map[string]struct{}

	query  []string
	form   []string
	isForm bool

	body        []byte
	contentType string
	header      http.Header

	responseType Type[RT]
	errorType    Type[ET]

	errs []error
}

// NewGet starts a GET call.
func NewGet[RT, ET any](c *Client, path string) *Builder[RT, ET] {
	return newBuilder[RT, ET](c, GET, path, false)
}

// NewDelete starts a DELETE call.
func NewDelete[RT, ET any](c *Client, path string) *Builder[RT, ET] {
	return newBuilder[RT, ET](c, DELETE, path, false)
}

// NewPost starts a POST call. When formEncoded is true the call accepts form fields.
func NewPost[RT, ET any](c *Client, path string, formEncoded bool) *Builder[RT, ET] {
	return newBuilder[RT, ET](c, POST, path, formEncoded)
}

// NewPut starts a PUT call. When formEncoded is true the call accepts form fields.
func NewPut[RT, ET any](c *Client, path string, formEncoded bool) *Builder[RT, ET] {
	return newBuilder[RT, ET](c, PUT, path, formEncoded)
}

func newBuilder[RT, ET any](c *Client, method Method, path string, formEncoded bool) *Builder[RT, ET] {
	b := &Builder[RT, ET]{
		client:     c,
		method:     method,
		path:       path,
		unresolved: make(map[string]struct{}),
		isForm:     formEncoded,
		header:     http.Header{},
	}
	b.header.Set("Accept", "application/json")

	for _, m := range pathTemplate.FindAllStringSubmatch(path, -1) {
		b.unresolved[m[1]] = struct{}{}
	}
	return b
}

// PathParam replaces the {name} placeholder with the escaped value.
func (b *Builder[RT, ET]) PathParam(name, value string) *Builder[RT, ET] {
	return b.pathParam(name, Escape(value))
}

// PathParams replaces the {name} placeholder with values joined by commas.
// The values are used verbatim and must already be URL safe.
func (b *Builder[RT, ET]) PathParams(name string, values ...string) *Builder[RT, ET] {
	return b.pathParam(name, strings.Join(values, ","))
}

func (b *Builder[RT, ET]) pathParam(name, value string) *Builder[RT, ET] {
	if b.pathFrozen {
		b.errs = append(b.errs, pathError("path params must be set before query params"))
		return b
	}
	if !paramName.MatchString(name) {
		b.errs = append(b.errs, pathError("path parameter name must match %s. Found: %s", pathTemplate, name))
		return b
	}
	if _, ok := b.unresolved[name]; !ok {
		b.errs = append(b.errs, pathError(
			"resource path %q does not contain \"{%s}\" or the path parameter has been already set", b.path, name))
		return b
	}

	b.path = strings.ReplaceAll(b.path, "{"+name+"}", value)
	delete(b.unresolved, name)
	return b
}

// QueryParam appends name=value to the query string. The value is formatted
// with fmt.Sprint and escaped.
func (b *Builder[RT, ET]) QueryParam(name string, value any) *Builder[RT, ET] {
	b.pathFrozen = true
	b.query = append(b.query, name+"="+Escape(fmt.Sprint(value)))
	return b
}

// QueryParams appends name with values joined by commas.
func (b *Builder[RT, ET]) QueryParams(name string, values ...string) *Builder[RT, ET] {
	return b.QueryParam(name, strings.Join(values, ","))
}

// FormField adds a field to the form body. Only calls created form encoded
// accept form fields.
func (b *Builder[RT, ET]) FormField(name string, value any) *Builder[RT, ET] {
	if !b.isForm {
		b.errs = append(b.errs, specError("form fields are not accepted by this request"))
		return b
	}
	b.form = append(b.form, Escape(name)+"="+Escape(fmt.Sprint(value)))
	return b
}

// FormFields adds a field whose value is values joined by commas.
func (b *Builder[RT, ET]) FormFields(name string, values ...string) *Builder[RT, ET] {
	return b.FormField(name, strings.Join(values, ","))
}

// Body sets a raw request body. It takes precedence over form fields.
func (b *Builder[RT, ET]) Body(contentType string, body []byte) *Builder[RT, ET] {
	b.contentType = contentType
	b.body = body
	return b
}

// JSONBody marshals v and uses it as the request body.
func (b *Builder[RT, ET]) JSONBody(v any) *Builder[RT, ET] {
	data, err := json.Marshal(v)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("encoding json body: %w", err))
		return b
	}
	return b.Body(contentTypeJSON, data)
}

// Header sets a request header, replacing earlier values.
func (b *Builder[RT, ET]) Header(name, value string) *Builder[RT, ET] {
	b.header.Set(name, value)
	return b
}

// ResponseAs sets how successful bodies are decoded. It is required; use
// Void to skip the body entirely.
func (b *Builder[RT, ET]) ResponseAs(t Type[RT]) *Builder[RT, ET] {
	b.responseType = t
	return b
}

// ErrorAs sets how error bodies are decoded. Defaults to Single[ET]().
func (b *Builder[RT, ET]) ErrorAs(t Type[ET]) *Builder[RT, ET] {
	b.errorType = t
	return b
}

// Build validates the builder and returns an executable Spec.
func (b *Builder[RT, ET]) Build() (*Spec[RT, ET], error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	b.pathFrozen = true
	if b.errorType == nil {
		b.errorType = Single[ET]()
	}
	return &Spec[RT, ET]{builder: b}, nil
}

func (b *Builder[RT, ET]) validate() error {
	if len(b.errs) > 0 {
		return errors.Join(b.errs...)
	}
	if n := len(b.unresolved); n > 0 {
		return pathError("not all path params were set, found %d unsatisfied parameter(s)", n)
	}
	if b.responseType == nil {
		return specError("response type is not set")
	}
	if b.client == nil {
		return specError("client is not set")
	}
	return nil
}

// URL resolves the expanded path and query against the client endpoint.
func (b *Builder[RT, ET]) URL() (*url.URL, error) {
	ref, err := url.Parse(b.path)
	if err != nil {
		return nil, pathError("parsing %q: %v", b.path, err)
	}

	u := b.client.endpoint.ResolveReference(ref)
	query := slices.Clone(b.query)
	if u.RawQuery != "" {
		query = append([]string{u.RawQuery}, query...)
	}
	u.RawQuery = strings.Join(query, "&")
	return u, nil
}

func (b *Builder[RT, ET]) request(ctx context.Context) (*http.Request, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	u, err := b.URL()
	if err != nil {
		return nil, err
	}

	var (
		body        io.Reader
		contentType = b.contentType
	)
	switch {
	case b.body != nil:
		body = bytes.NewReader(b.body)
	case b.isForm:
		body = strings.NewReader(strings.Join(b.form, "&"))
		contentType = contentTypeForm
	case b.method.HasBody():
		body = http.NoBody
	}

	req, err := http.NewRequestWithContext(ctx, b.method.String(), u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header = b.header.Clone()
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if b.client.userAgent != "" {
		req.Header.Set("User-Agent", b.client.userAgent)
	}
	return req, nil
}

// clone returns an independent copy so that a cloned Spec cannot observe
// parameters added to the original afterwards.
func (b *Builder[RT, ET]) clone() *Builder[RT, ET] {
	c := *b
	c.unresolved = maps.Clone(b.unresolved)
	c.query = slices.Clone(b.query)
	c.form = slices.Clone(b.form)
	c.body = bytes.Clone(b.body)
	c.header = b.header.Clone()
	c.errs = slices.Clone(b.errs)
	return &c
}
