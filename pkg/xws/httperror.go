package xws

import (
	"fmt"
	"net/http"
)

// Reason explains why a single field or parameter was rejected.
type Reason string

const (
	ReasonUnexpected         Reason = "UNEXPECTED"
	ReasonUnexpectedValue    Reason = "UNEXPECTED_VALUE"
	ReasonMissing            Reason = "MISSING"
	ReasonInvalidFormat      Reason = "INVALID_FORMAT"
	ReasonNotUnique          Reason = "NOT_UNIQUE"
	ReasonUnknownValue       Reason = "UNKNOWN_VALUE"
	ReasonTooShort           Reason = "TOO_SHORT"
	ReasonTooLong            Reason = "TOO_LONG"
	ReasonLowerBoundExceeded Reason = "LOWER_BOUND_EXCEEDED"
	ReasonFieldDeprecated    Reason = "FIELD_DEPRECATED"
	ReasonTooManyEntries     Reason = "TOO_MANY_ENTRIES"
)

// HTTPError is the JSON error envelope XWS returns for (almost) every client
// error response. It is the default error body type of a call.
//
// See https://dev.xing.com/docs/error_responses
type HTTPError struct {
	Name    string       `json:"error_name"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError names a rejected form field or query parameter.
type FieldError struct {
	Field  string `json:"field"`
	Reason Reason `json:"reason"`
}

func (e HTTPError) String() string {
	return fmt.Sprintf("HTTPError{name=%q, message=%q, errors=%v}", e.Name, e.Message, e.Errors)
}

// ResponseError is returned by Spec.Body and delivered on Spec.Stream when XWS
// answered with a non-2xx status. The decoded error body is kept in Body.
type ResponseError struct {
	StatusCode int
	Status     string
	Body       any
}

func newResponseError[RT, ET any](resp *Response[RT, ET]) *ResponseError {
	return &ResponseError{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Body:       resp.Error,
	}
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}
