package httpx

import (
    "context"
    "errors"
    "fmt"
    "io"
    "net"
    "net/http"
    "time"

    "lsequote/internal/provider"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=httpx_test -destination=mock_http_client_test.go -source=httpx.go HTTPClient
type HTTPClient interface {
    Do(req *http.Request) (*http.Response, error)
}

// DefaultMaxBodyBytes caps how much of a quote page is read.
const DefaultMaxBodyBytes = 8 << 20

var ErrBodyTooLarge = errors.New("response body too large")

// Client is a small wrapper around http.Client with sane defaults. It also
// serves as a provider.PageLoader for pages that render server side.
type Client struct {
    HTTP         HTTPClient
    UserAgent    string
    Headers      map[string]string
    MaxBodyBytes int64
}

func New(timeout time.Duration) *Client {
    transport := &http.Transport{
        Proxy: http.ProxyFromEnvironment,
        DialContext: (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
        MaxIdleConns:          10,
        MaxIdleConnsPerHost:   2,
        ForceAttemptHTTP2:     true,
        IdleConnTimeout:       90 * time.Second,
        TLSHandshakeTimeout:   5 * time.Second,
        ExpectContinueTimeout: 1 * time.Second,
        ResponseHeaderTimeout: timeout,
    }
    return &Client{
        HTTP:         &http.Client{Timeout: timeout, Transport: transport},
        UserAgent:    "lsequote/1.0",
        MaxBodyBytes: DefaultMaxBodyBytes,
    }
}

func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
    if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
        req.Header.Set("User-Agent", c.UserAgent)
    }
    for k, v := range c.Headers {
        if req.Header.Get(k) == "" {
            req.Header.Set(k, v)
        }
    }
    return c.HTTP.Do(req.WithContext(ctx))
}

// Load fetches url and returns the raw document. Non-2xx responses are
// returned as a Page with their status so callers can decide; only
// transport failures are errors.
func (c *Client) Load(ctx context.Context, url string) (provider.Page, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
    if err != nil {
        return provider.Page{}, &provider.NavigationError{URL: url, Err: err}
    }
    req.Header.Set("Accept", "text/html,application/xhtml+xml")
    resp, err := c.Do(ctx, req)
    if err != nil {
        return provider.Page{}, &provider.NavigationError{URL: url, Err: err}
    }
    defer resp.Body.Close()

    limit := c.MaxBodyBytes
    if limit <= 0 { limit = DefaultMaxBodyBytes }
    b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
    if err != nil {
        return provider.Page{}, &provider.NavigationError{URL: url, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
    }
    if int64(len(b)) > limit {
        return provider.Page{}, &provider.NavigationError{URL: url, Status: resp.StatusCode, Err: fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, limit)}
    }
    return provider.Page{URL: url, Status: resp.StatusCode, HTML: string(b)}, nil
}
