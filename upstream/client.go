// Package upstream queries the back-office domain services (profile,
// payment, account and transaction) on behalf of the gateway.
//
// Every request goes through a Doer that attaches the SSO bearer token,
// normally a *tokencache.TokenCache shared by all domain clients.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/udhos/backoffice/paging"
)

// Record is an opaque upstream entity passed through unchanged.
type Record = paging.Record

// Doer sends authorized requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError reports a non-2xx answer from a domain service.
type StatusError struct {
	Status int
	URL    string
	Body   string
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s: status=%d body=%q", e.URL, e.Status, e.Body)
}

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 1024

// Client talks to one domain service.
type Client struct {
	baseURL *url.URL
	doer    Doer
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, doer Doer) (*Client, error) {
	if doer == nil {
		return nil, fmt.Errorf("upstream: nil doer")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("upstream: bad base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream: base url must be absolute: %q", baseURL)
	}
	return &Client{baseURL: u, doer: doer}, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// List fetches a collection. The service may answer with a bare JSON array or
// with an object wrapping the array under "data" or "items".
func (c *Client) List(ctx context.Context, path string, query url.Values) ([]Record, error) {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var list []Record
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("upstream %s: decode list: %w", path, err)
		}
		return list, nil
	}

	var envelope struct {
		Data  []Record `json:"data"`
		Items []Record `json:"items"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("upstream %s: decode list: %w", path, err)
	}
	if envelope.Data != nil {
		return envelope.Data, nil
	}
	if envelope.Items != nil {
		return envelope.Items, nil
	}
	return []Record{}, nil
}

// Get fetches a single entity.
func (c *Client) Get(ctx context.Context, path string) (Record, error) {
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("upstream %s: decode: %w", path, err)
	}
	return r, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("upstream %s: request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		buf, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Status: resp.StatusCode, URL: u.String(), Body: string(buf)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("upstream %s: read body: %w", path, err)
	}
	return body, nil
}
