// Package tokencache provides the SSO bearer token to downstream service calls.
//
// A TokenCache performs the oauth2 client-credentials exchange against the SSO
// authority and keeps the resulting token until shortly before the authority
// would consider it expired.
package tokencache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	cc "github.com/udhos/oauth2clientcredentials/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/udhos/backoffice/token"
)

// ExpiryMargin is subtracted from the authority's expires_in so that a token
// handed out is still accepted by the request that immediately follows.
const ExpiryMargin = 300 * time.Second

// DefaultExchangeTimeout bounds a single token exchange.
const DefaultExchangeTimeout = 10 * time.Second

// TokenPath is appended to AuthorityURL to build the token endpoint.
const TokenPath = "connect/token"

// HTTPDoer is interface for http client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options define cache options.
type Options struct {
	// AuthorityURL is the SSO base URL. The token endpoint is
	// {AuthorityURL}/connect/token.
	AuthorityURL string

	// TokenURL overrides the endpoint derived from AuthorityURL.
	TokenURL string

	ClientID     string
	ClientSecret string
	Scope        string

	// HTTPClient is the HTTP client to use to make requests.
	// If nil, http.DefaultClient is used.
	HTTPClient HTTPDoer

	// Store holds the cached token.
	// If nil, a new memory store private to this cache is used.
	Store token.Store

	// Time source used to check token expiration.
	// If unspecified, defaults to time.Now().
	TimeSource func() time.Time

	// ExchangeTimeout bounds each token exchange.
	// 0 defaults to DefaultExchangeTimeout.
	ExchangeTimeout time.Duration

	// DisableSingleFlight lets concurrent callers in the stale window
	// issue independent exchanges. The last write wins.
	DisableSingleFlight bool

	// IsBadTokenStatus defines custom function to check whether the
	// server response status is bad token.
	// If undefined, defaults to DefaultIsBadTokenStatus that just checks
	// for status 401.
	IsBadTokenStatus func(status int) bool

	// Logging function, if undefined defaults to the zerolog global logger.
	Logf func(format string, v ...any)

	// Enable debug logging.
	Debug bool
}

// DefaultIsBadTokenStatus is used as default function when option IsBadTokenStatus
// is left undefined. DefaultIsBadTokenStatus just checks for status 401.
func DefaultIsBadTokenStatus(status int) bool {
	return status == http.StatusUnauthorized
}

// TokenCache serves one bearer token to every caller sharing it.
type TokenCache struct {
	options  Options
	tokenURL string
	group    singleflight.Group
}

// New creates a token cache.
func New(options Options) (*TokenCache, error) {
	tokenURL := options.TokenURL
	if tokenURL == "" {
		if options.AuthorityURL == "" {
			return nil, fmt.Errorf("tokencache: either AuthorityURL or TokenURL is required")
		}
		u, errJoin := url.JoinPath(options.AuthorityURL, TokenPath)
		if errJoin != nil {
			return nil, fmt.Errorf("tokencache: bad authority url: %w", errJoin)
		}
		tokenURL = u
	}
	if options.HTTPClient == nil {
		options.HTTPClient = http.DefaultClient
	}
	if options.Store == nil {
		options.Store = token.NewMemoryStore()
	}
	if options.TimeSource == nil {
		options.TimeSource = time.Now
	}
	if options.ExchangeTimeout == 0 {
		options.ExchangeTimeout = DefaultExchangeTimeout
	}
	if options.IsBadTokenStatus == nil {
		options.IsBadTokenStatus = DefaultIsBadTokenStatus
	}
	return &TokenCache{
		options:  options,
		tokenURL: tokenURL,
	}, nil
}

// TokenURL reports the token endpoint in use.
func (c *TokenCache) TokenURL() string {
	return c.tokenURL
}

func (c *TokenCache) errorf(format string, v ...any) {
	if c.options.Logf != nil {
		c.options.Logf("ERROR: "+format, v...)
		return
	}
	log.Error().Msgf(format, v...)
}

func (c *TokenCache) debugf(format string, v ...any) {
	if !c.options.Debug {
		return
	}
	if c.options.Logf != nil {
		c.options.Logf("DEBUG: "+format, v...)
		return
	}
	log.Debug().Msgf(format, v...)
}

// Do sends an HTTP request carrying the bearer token.
// A bad-token status from the server invalidates the cached token.
func (c *TokenCache) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	accessToken, errToken := c.GetToken(ctx)
	if errToken != nil {
		return nil, errToken
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, errResp := c.options.HTTPClient.Do(req)
	if errResp != nil {
		return resp, errResp
	}

	if c.options.IsBadTokenStatus(resp.StatusCode) {
		//
		// the server refused our token, so we expire it in order to
		// renew it at the next invokation. a newer token already in the
		// slot was not refused and is kept.
		//
		c.debugf("server refused token: status=%d url=%s", resp.StatusCode, req.URL)
		if err := c.options.Store.ExpireIf(ctx, accessToken); err != nil {
			c.errorf("cache expire error: %v", err)
		}
	}

	return resp, nil
}

// Invalidate drops the cached token so the next GetToken refreshes it.
func (c *TokenCache) Invalidate(ctx context.Context) error {
	return c.options.Store.Expire(ctx)
}

// GetToken returns a token valid at the moment of return, performing a
// token exchange when the cached one is missing or stale.
func (c *TokenCache) GetToken(ctx context.Context) (string, error) {
	if value, found := c.cachedToken(ctx); found {
		c.debugf("found valid cached token")
		return value, nil
	}
	c.debugf("NO valid cached token")
	return c.fetchToken(ctx)
}

func (c *TokenCache) cachedToken(ctx context.Context) (string, bool) {
	t, errCache := c.options.Store.Get(ctx)
	if errCache != nil {
		c.errorf("cache get error: %v", errCache)
		return "", false
	}
	now := c.options.TimeSource()
	if !t.IsValid(now) {
		return "", false
	}
	c.debugf("token remain=%v", t.Remaining(now))
	return t.Value, true
}

// fetchToken retrieves new token and saves into cache, guarded with singleflight.
func (c *TokenCache) fetchToken(ctx context.Context) (string, error) {

	if c.options.DisableSingleFlight {
		return c.fetchTokenRaw(ctx)
	}

	// the flight is shared, so it must not die with the caller that started it
	shared := context.WithoutCancel(ctx)

	f := func() (any, error) {
		// a flight that finished after our cache check already refreshed the slot
		if value, found := c.cachedToken(shared); found {
			return value, nil
		}
		return c.fetchTokenRaw(shared)
	}

	ch := c.group.DoChan("", f)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case result := <-ch:
		if result.Err != nil {
			return "", result.Err
		}
		str, isStr := result.Val.(string)
		if !isStr {
			return "", fmt.Errorf("non-string result: type:%[1]T value:%[1]v", result.Val)
		}
		return str, nil
	}
}

// fetchTokenRaw retrieves new token and saves into cache.
func (c *TokenCache) fetchTokenRaw(ctx context.Context) (string, error) {

	ctx, cancel := context.WithTimeout(ctx, c.options.ExchangeTimeout)
	defer cancel()

	start := time.Now()
	begin := c.options.TimeSource()

	rec := &exchangeRecorder{ctx: ctx, doer: c.options.HTTPClient}

	reqOptions := cc.RequestOptions{
		TokenURL:     c.tokenURL,
		ClientID:     c.options.ClientID,
		ClientSecret: c.options.ClientSecret,
		Scope:        c.options.Scope,
		HTTPClient:   rec,
	}

	resp, errSend := cc.SendRequest(ctx, reqOptions)

	switch {
	case rec.errTransport != nil:
		return "", &TransportError{Err: rec.errTransport}
	case rec.status == 0:
		// the request never reached the authority
		return "", &TransportError{Err: errSend}
	case rec.status < 200 || rec.status > 299:
		return "", &AuthenticationFailure{Status: rec.status}
	case errSend != nil:
		return "", &ProtocolError{Reason: "bad response body", Err: errSend}
	case resp.AccessToken == "":
		return "", &ProtocolError{Reason: "no access_token in response"}
	case resp.ExpiresIn <= 0:
		return "", &ProtocolError{Reason: "no expires_in in response"}
	}

	c.debugf("fetchToken: elapsed:%v expires_in:%v", time.Since(start), resp.ExpiresIn)

	newToken := token.Token{
		Value: resp.AccessToken,
	}
	lifetime := time.Duration(resp.ExpiresIn) * time.Second
	newToken.SetExpiration(begin.Add(lifetime - ExpiryMargin))

	c.debugf("saving new token")
	if err := c.options.Store.Put(ctx, newToken); err != nil {
		c.errorf("cache put error: %v", err)
	}

	return newToken.Value, nil
}

// exchangeRecorder observes the token exchange round-trip so its failure can
// be classified independently of how the response body was decoded.
// It also binds the exchange context to the outgoing request.
type exchangeRecorder struct {
	ctx          context.Context
	doer         HTTPDoer
	status       int
	errTransport error
}

func (r *exchangeRecorder) Do(req *http.Request) (*http.Response, error) {
	resp, err := r.doer.Do(req.WithContext(r.ctx))
	if err != nil {
		r.errTransport = err
		return resp, err
	}
	r.status = resp.StatusCode
	if resp.Body != nil {
		resp.Body = &recordedBody{ReadCloser: resp.Body, rec: r}
	}
	return resp, nil
}

// recordedBody reports a connection lost while the body is read as a
// transport failure of the exchange.
type recordedBody struct {
	io.ReadCloser
	rec *exchangeRecorder
}

func (b *recordedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil && err != io.EOF && b.rec.errTransport == nil {
		b.rec.errTransport = err
	}
	return n, err
}
