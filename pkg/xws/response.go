package xws

import "net/http"

// Response is the outcome of an executed call. Exactly one of Body and Error
// is meaningful, depending on IsSuccessful.
type Response[RT, ET any] struct {
	// Raw is the underlying HTTP response. Its body has already been consumed.
	Raw *http.Response

	Body  RT
	Error ET

	// Range is parsed from the Xing-Content-Range header of successful
	// responses, nil when absent.
	Range *ContentRange
}

func (r *Response[RT, ET]) StatusCode() int {
	return r.Raw.StatusCode
}

func (r *Response[RT, ET]) Status() string {
	return r.Raw.Status
}

func (r *Response[RT, ET]) Header() http.Header {
	return r.Raw.Header
}

// IsSuccessful reports whether the status code is in [200, 300).
func (r *Response[RT, ET]) IsSuccessful() bool {
	return r.Raw.StatusCode >= 200 && r.Raw.StatusCode < 300
}
