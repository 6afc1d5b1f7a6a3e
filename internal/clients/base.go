package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

type Client struct {
	Name    string
	BaseURL *url.URL
	HTTP    *http.Client
}

func NewClient(name string, baseURL string, httpClient *http.Client) *Client {
	u, err := url.Parse(baseURL)
	if err != nil {
		// Fail fast: config error
		panic(fmt.Sprintf("invalid %s base url %q: %v", name, baseURL, err))
	}
	return &Client{Name: name, BaseURL: u, HTTP: httpClient}
}

// Do sends a single request to the API. The viewer's credentials and the
// correlation id found in ctx are attached, and any cookies the API issues
// are handed back to the same credentials so they reach the browser.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	u := c.BaseURL.ResolveReference(&url.URL{Path: path})

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if cid := middleware.GetCorrelationID(ctx); cid != "" {
		req.Header.Set(middleware.HeaderCorrelationID, cid)
	}

	creds := middleware.GetCredentials(ctx)
	if creds != nil {
		for _, ck := range creds.Cookies() {
			req.AddCookie(ck)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	if creds != nil {
		creds.Issue(resp.Cookies())
	}
	return resp, nil
}

// Call performs one JSON exchange. in is encoded as the request body when
// non-nil; on a 2xx response the body is decoded into out when non-nil.
// There are no retries: a call resolves or fails exactly once.
func (c *Client) Call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", c.Name, err)
		}
		body = bytes.NewReader(b)
	}

	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		return &TransportError{Service: c.Name, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &TransportError{Service: c.Name, Method: method, Path: path, Status: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Service: c.Name, Method: method, Path: path, Status: resp.StatusCode, Err: err}
	}
	if out == nil {
		if len(bytes.TrimSpace(raw)) > 0 && !json.Valid(raw) {
			return &ParseError{Service: c.Name, Path: path, Err: fmt.Errorf("invalid json")}
		}
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ParseError{Service: c.Name, Path: path, Err: err}
	}
	return nil
}
