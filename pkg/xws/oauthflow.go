package xws

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/xws/pkg/logger"
)

// OutOfBand is the oauth_callback used when the user copies the verifier
// by hand instead of being redirected.
const OutOfBand = "oob"

const (
	requestTokenPath = "v1/request_token"
	authorizePath    = "v1/authorize"
	accessTokenPath  = "v1/access_token"
)

// Token is an OAuth1 token and its secret, as handed out by the token
// endpoints. Extra holds the remaining response fields, e.g.
// oauth_callback_confirmed or user_id.
type Token struct {
	Token  string
	Secret string
	Extra  url.Values
}

// OAuthFlow runs the three-legged OAuth1 authorization against XWS:
// RequestToken, then the user visits AuthorizationURL, then AccessToken
// exchanges the verifier for the access token used with WithOAuth1.
type OAuthFlow struct {
	consumerKey    string
	consumerSecret string
	endpoint       *url.URL
	httpClient     *http.Client
	userAgent      string

	// Rand and Now are forwarded to every Signer.
	Rand io.Reader
	Now  func() time.Time
}

// NewOAuthFlow creates a flow for the given application credentials. Client
// options for the endpoint, HTTP client, timeout, logger and user agent apply.
func NewOAuthFlow(consumerKey, consumerSecret string, opts ...Option) (*OAuthFlow, error) {
	if consumerKey == "" || consumerSecret == "" {
		return nil, fmt.Errorf("%w: consumer key and secret are required", ErrInvalidSpec)
	}

	o := &options{endpoint: DefaultEndpoint}
	for _, opt := range opts {
		opt(o)
	}
	o.oauth = nil
	o.limit = 0

	endpoint, err := parseEndpoint(o.endpoint)
	if err != nil {
		return nil, err
	}
	if o.logger == nil {
		o.logger = logger.Nop()
	}

	return &OAuthFlow{
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		endpoint:       endpoint,
		httpClient:     buildHTTPClient(o),
		userAgent:      o.userAgent,
	}, nil
}

// RequestToken obtains an unauthorized request token. callback is the URL
// XWS redirects to after authorization, or OutOfBand.
func (f *OAuthFlow) RequestToken(ctx context.Context, callback string) (*Token, error) {
	if callback == "" {
		callback = OutOfBand
	}
	s := f.signer("", "")
	return f.post(ctx, requestTokenPath, s, Param{oauthCallback, callback})
}

// AuthorizationURL is where the user grants access to the request token.
func (f *OAuthFlow) AuthorizationURL(requestToken *Token) string {
	u := f.endpoint.ResolveReference(&url.URL{Path: authorizePath})
	u.RawQuery = "oauth_token=" + Escape(requestToken.Token)
	return u.String()
}

// AccessToken exchanges an authorized request token and its verifier for an
// access token.
func (f *OAuthFlow) AccessToken(ctx context.Context, requestToken *Token, verifier string) (*Token, error) {
	if requestToken == nil || requestToken.Token == "" {
		return nil, fmt.Errorf("%w: request token is required", ErrInvalidSpec)
	}
	if verifier == "" {
		return nil, fmt.Errorf("%w: oauth verifier is required", ErrInvalidSpec)
	}
	s := f.signer(requestToken.Token, requestToken.Secret)
	return f.post(ctx, accessTokenPath, s, Param{oauthVerifier, verifier})
}

func (f *OAuthFlow) signer(token, secret string) *Signer {
	return &Signer{
		ConsumerKey:    f.consumerKey,
		ConsumerSecret: f.consumerSecret,
		Token:          token,
		TokenSecret:    secret,
		Rand:           f.Rand,
		Now:            f.Now,
	}
}

func (f *OAuthFlow) post(ctx context.Context, path string, s *Signer, extra Param) (*Token, error) {
	u := f.endpoint.ResolveReference(&url.URL{Path: path})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeForm)
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if err := s.Sign(req, extra); err != nil {
		return nil, err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ResponseError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	return parseToken(string(data))
}

func parseToken(body string) (*Token, error) {
	values, err := url.ParseQuery(strings.TrimSpace(body))
	if err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}

	t := &Token{
		Token:  values.Get(oauthToken),
		Secret: values.Get("oauth_token_secret"),
	}
	if t.Token == "" || t.Secret == "" {
		return nil, fmt.Errorf("%w: token response lacks oauth_token or oauth_token_secret", ErrStructure)
	}

	values.Del(oauthToken)
	values.Del("oauth_token_secret")
	t.Extra = values
	return t, nil
}
