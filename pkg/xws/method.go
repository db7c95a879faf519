package xws

import (
	"fmt"
	"net/http"
	"strings"
)

// Method is an HTTP verb supported by XWS.
type Method string

const (
	GET    Method = http.MethodGet
	POST   Method = http.MethodPost
	PUT    Method = http.MethodPut
	DELETE Method = http.MethodDelete
)

// ParseMethod parses a verb case insensitively.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToUpper(s)); m {
	case GET, POST, PUT, DELETE:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported method %q (expected GET, POST, PUT or DELETE)", s)
	}
}

// HasBody reports whether requests using m always carry a body.
func (m Method) HasBody() bool {
	return m == POST || m == PUT
}

func (m Method) String() string {
	return string(m)
}
