package httputil

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/matzehuels/mftypes/pkg/errors"
	"github.com/matzehuels/mftypes/pkg/observability"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// DefaultRetryDelay is the initial backoff between retried requests.
const DefaultRetryDelay = 500 * time.Millisecond

// NewHTTPClient creates an HTTP client with the given request timeout.
// insecureTLS disables certificate verification and must only be enabled
// on explicit request (self-signed development servers).
func NewHTTPClient(timeout time.Duration, insecureTLS bool) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// Client performs GET requests against remote applications.
type Client struct {
	http    *http.Client
	headers map[string]string
	retries int
	delay   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithRetries sets the number of additional attempts for transient
// failures. Zero (the default) disables retrying.
func WithRetries(n int) Option {
	return func(c *Client) { c.retries = max(n, 0) }
}

// WithRetryDelay sets the initial backoff between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

// WithHeaders sets headers applied to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) { c.headers = headers }
}

// NewClient creates a Client. A nil httpClient uses NewHTTPClient(0, false).
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(0, false)
	}
	c := &Client{http: httpClient, delay: DefaultRetryDelay}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the body of a GET request to rawURL.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	var data []byte
	err := c.retry(ctx, func() error {
		body, err := c.doRequest(ctx, rawURL)
		if err != nil {
			return err
		}
		defer body.Close()
		data, err = io.ReadAll(body)
		if err != nil {
			return Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read %s", rawURL))
		}
		return nil
	})
	return data, err
}

// FetchJSON performs a GET request and JSON-decodes the response into v.
func (c *Client) FetchJSON(ctx context.Context, rawURL string, v any) error {
	data, err := c.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(errors.ErrCodeSerialization, err, "decode %s", rawURL)
	}
	return nil
}

// Download fetches rawURL into dir, naming the file after the last segment
// of the URL path. dir is created if needed. It returns the written path.
func (c *Client) Download(ctx context.Context, rawURL, dir string) (string, error) {
	name, err := FileName(rawURL)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeFileSystem, err, "create %s", dir)
	}
	target := filepath.Join(dir, name)

	err = c.retry(ctx, func() error {
		body, err := c.doRequest(ctx, rawURL)
		if err != nil {
			return err
		}
		defer body.Close()
		return writeAtomic(target, body)
	})
	if err != nil {
		return "", err
	}
	return target, nil
}

// FileName returns the last path segment of rawURL.
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidSpecifier, err, "parse %s", rawURL)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", errors.New(errors.ErrCodeInvalidSpecifier, "no file name in %s", rawURL)
	}
	return name, nil
}

// WriteFileAtomic writes data to a temporary file next to target and
// renames it into place, so concurrent writers never interleave bytes.
func WriteFileAtomic(target string, data []byte) error {
	return writeAtomic(target, bytes.NewReader(data))
}

func writeAtomic(target string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileSystem, err, "create temp file in %s", filepath.Dir(target))
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeFileSystem, err, "write %s", target)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "download %s", filepath.Base(target)))
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeFileSystem, err, "write %s", target)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return errors.Wrap(errors.ErrCodeFileSystem, err, "write %s", target)
	}
	return nil
}

func (c *Client) retry(ctx context.Context, fn func() error) error {
	return Retry(ctx, c.retries+1, c.delay, fn)
}

func (c *Client) doRequest(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSpecifier, err, "request %s", rawURL)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, p := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, p)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, p, err)
		if ctx.Err() != nil || isTimeout(err) {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "GET %s", rawURL)
		}
		return nil, Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", rawURL))
	}
	hooks.OnResponse(ctx, req.Method, host, p, resp.StatusCode, time.Since(start))

	if err := checkStatus(rawURL, resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(rawURL string, code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "GET %s: status %d", rawURL, code)
	case code >= 500:
		return Retryable(errors.New(errors.ErrCodeNetwork, "GET %s: status %d", rawURL, code))
	default:
		return errors.New(errors.ErrCodeNetwork, "GET %s: status %d", rawURL, code)
	}
}

func isTimeout(err error) bool {
	var ue *url.Error
	return stderrors.As(err, &ue) && ue.Timeout()
}
