package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// DefaultTimeout bounds a single request when Options.Timeout is unset.
const DefaultTimeout = 10 * time.Second

// Options configure a Client.
type Options struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client issues requests against one API base URL and keeps session state
// (cookies and an optional bearer token) between calls.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  *zap.Logger
	token   string
	ownJar  bool
}

// New creates a client rooted at baseURL.
func New(baseURL string, opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	hc := opts.HTTPClient
	ownJar := false
	if hc == nil {
		jar, err := newJar()
		if err != nil {
			return nil, err
		}
		hc = &http.Client{Jar: jar}
		ownJar = true
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		timeout: opts.Timeout,
		logger:  opts.Logger,
		ownJar:  ownJar,
	}, nil
}

func newJar() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return jar, nil
}

// BaseURL returns the root all relative paths are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken attaches a bearer token to subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// ClearToken drops the bearer token.
func (c *Client) ClearToken() {
	c.token = ""
}

// ResetSession drops the bearer token and, when the client created its own
// cookie jar, every stored cookie. Callers pass an *http.Client to keep
// control of its jar.
func (c *Client) ResetSession() error {
	c.token = ""
	if !c.ownJar {
		return nil
	}
	jar, err := newJar()
	if err != nil {
		return err
	}
	c.http.Jar = jar
	return nil
}

// Token returns the current bearer token, if any.
func (c *Client) Token() string {
	return c.token
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Do sends a request. path is joined to the base URL unless it is absolute.
// Any failure to obtain a response is returned as a *TransportError.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	url := c.resolve(path)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body for %s %s: %w", method, url, err)
		}
		reader = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, url, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", zap.String("method", method), zap.String("url", url), zap.Error(err))
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Response{
		Method: method,
		URL:    url,
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   data,
	}, nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}
