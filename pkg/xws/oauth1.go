package xws

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	oauthConsumerKey     = "oauth_consumer_key"
	oauthNonce           = "oauth_nonce"
	oauthSignature       = "oauth_signature"
	oauthSignatureMethod = "oauth_signature_method"
	oauthTimestamp       = "oauth_timestamp"
	oauthToken           = "oauth_token"
	oauthVersion         = "oauth_version"
	oauthCallback        = "oauth_callback"
	oauthVerifier        = "oauth_verifier"

	signatureMethodHMACSHA1 = "HMAC-SHA1"
	oauthVersion10          = "1.0"

	nonceBytes = 32
)

var nonWord = regexp.MustCompile(`\W`)

// Param is a single name/value pair of an OAuth1 parameter set.
type Param struct {
	Name  string
	Value string
}

// Signer signs requests with OAuth1 HMAC-SHA1.
//
// Token and TokenSecret are empty while a request token is being obtained.
type Signer struct {
	ConsumerKey    string
	ConsumerSecret string
	Token          string
	TokenSecret    string

	// Rand is the nonce source. Defaults to crypto/rand.Reader.
	Rand io.Reader

	// Now is the clock used for oauth_timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Sign sets the Authorization header of req. Extra oauth parameters (for
// instance oauth_callback or oauth_verifier) are signed and sent along.
//
// A form encoded body is read to include its fields in the signature and is
// left readable.
func (s *Signer) Sign(req *http.Request, extra ...Param) error {
	nonce, err := s.nonce()
	if err != nil {
		return err
	}

	oauth := []Param{
		{oauthConsumerKey, Escape(s.ConsumerKey)},
		{oauthNonce, nonce},
		{oauthSignatureMethod, signatureMethodHMACSHA1},
		{oauthTimestamp, strconv.FormatInt(s.now().Unix(), 10)},
		{oauthVersion, oauthVersion10},
	}
	if s.Token != "" {
		oauth = append(oauth, Param{oauthToken, Escape(s.Token)})
	}
	for _, p := range extra {
		oauth = append(oauth, Param{p.Name, Escape(p.Value)})
	}

	params := slices.Clone(oauth)

	query, err := queryParams(req.URL.RawQuery)
	if err != nil {
		return err
	}
	params = append(params, query...)

	form, err := formParams(req)
	if err != nil {
		return err
	}
	params = append(params, form...)

	signature := s.signature(BaseString(req.Method, req.URL, params))

	oauth = append(oauth, Param{oauthSignature, Escape(signature)})
	sortParams(oauth)

	parts := make([]string, len(oauth))
	for i, p := range oauth {
		parts[i] = p.Name + `="` + p.Value + `"`
	}
	req.Header.Set("Authorization", "OAuth "+strings.Join(parts, ", "))
	return nil
}

// BaseString builds the OAuth1 signature base string. params must already be
// percent-encoded. Each name is signed once with its last value, so a query
// parameter overrides an oauth parameter and a form field overrides both.
func BaseString(method string, u *url.URL, params []Param) string {
	params = lastByName(params)
	sortParams(params)

	pairs := make([]string, len(params))
	for i, p := range params {
		pairs[i] = p.Name + "=" + p.Value
	}

	return strings.ToUpper(method) + "&" + Escape(baseURL(u)) + "&" + Escape(strings.Join(pairs, "&"))
}

func (s *Signer) signature(base string) string {
	key := Escape(s.ConsumerSecret) + "&" + Escape(s.TokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (s *Signer) nonce() (string, error) {
	r := s.Rand
	if r == nil {
		r = rand.Reader
	}

	b := make([]byte, nonceBytes)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("generating oauth nonce: %w", err)
	}
	return nonWord.ReplaceAllString(base64.StdEncoding.EncodeToString(b), ""), nil
}

func (s *Signer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// baseURL drops query and fragment and normalizes an empty path to "/".
func baseURL(u *url.URL) string {
	c := *u
	c.RawQuery = ""
	c.ForceQuery = false
	c.Fragment = ""
	c.RawFragment = ""
	if c.Path == "" {
		c.Path = "/"
		c.RawPath = ""
	}
	return c.String()
}

// queryParams decodes every query pair and re-encodes it with Escape.
// Repeated names are all returned; BaseString keeps the last one.
func queryParams(rawQuery string) ([]Param, error) {
	var params []Param
	for pair := range strings.SplitSeq(rawQuery, "&") {
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")

		n, err := url.QueryUnescape(name)
		if err != nil {
			return nil, fmt.Errorf("decoding query parameter %q: %w", name, err)
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("decoding query parameter %q: %w", name, err)
		}
		params = append(params, Param{Escape(n), Escape(v)})
	}
	return params, nil
}

// formParams returns the still encoded fields of a form body. Bodies of any
// other content type are not part of the signature.
func formParams(req *http.Request) ([]Param, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mediaType != contentTypeForm {
		return nil, nil
	}

	data, err := readBody(req)
	if err != nil {
		return nil, err
	}

	var params []Param
	for pair := range strings.SplitSeq(string(data), "&") {
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("form field with no value: %s", pair)
		}
		params = append(params, Param{name, value})
	}
	return params, nil
}

// readBody returns the request body and makes it readable again.
func readBody(req *http.Request) ([]byte, error) {
	if req.GetBody != nil {
		rc, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	data, err := io.ReadAll(req.Body)
	closeErr := req.Body.Close()
	if err = errors.Join(err, closeErr); err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}

	req.Body = io.NopCloser(bytes.NewReader(data))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return data, nil
}

// lastByName keeps the last value of every name, in order of first appearance.
func lastByName(params []Param) []Param {
	index := make(map[string]int, len(params))
	out := make([]Param, 0, len(params))
	for _, p := range params {
		if i, ok := index[p.Name]; ok {
			out[i].Value = p.Value
			continue
		}
		index[p.Name] = len(out)
		out = append(out, p)
	}
	return out
}

func sortParams(params []Param) {
	slices.SortFunc(params, func(a, b Param) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Value, b.Value)
	})
}

// Transport is an http.RoundTripper that signs every request with Signer.
type Transport struct {
	Signer *Signer

	// Base is the underlying transport. Defaults to http.DefaultTransport.
	Base http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	signed := req.Clone(req.Context())
	if err := t.Signer.Sign(signed); err != nil {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, err
	}
	return t.base().RoundTrip(signed)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
