package httpx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	httpClient *http.Client

	// base is the normalized BaseURL (no trailing slash); baseURL is the parsed
	// form with a trailing slash so relative paths resolve under its path prefix.
	base    string
	baseURL *url.URL

	timeout        time.Duration
	defaultHeaders http.Header
	userAgent      string

	retry      RetryConfig
	maxErrBody int64
	redact     []string

	before []BeforeHook
	after  []AfterHook
}

// New constructs a Client from DefaultConfig() plus the provided options.
func New(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		if o != nil {
			o.apply(&cfg)
		}
	}
	return NewWithConfig(cfg)
}

func NewWithConfig(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	var bu *url.URL
	if base != "" {
		u, err := url.Parse(base)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, &url.Error{Op: "parse", URL: cfg.BaseURL, Err: errors.New("base url must be absolute")}
		}
		u.Path += "/"
		u.RawPath = ""
		bu = u
	}

	rt := cfg.Transport
	if rt == nil {
		rt = DefaultTransport()
	}

	maxErrBody := cfg.MaxErrorBodyBytes
	if maxErrBody == 0 {
		maxErrBody = DefaultMaxErrorBodyBytes
	}

	c := &Client{
		httpClient:     &http.Client{Transport: rt},
		base:           base,
		baseURL:        bu,
		timeout:        cfg.Timeout,
		defaultHeaders: cfg.DefaultHeaders.Clone(),
		userAgent:      cfg.UserAgent,
		retry:          cfg.Retry,
		maxErrBody:     maxErrBody,
		redact:         append([]string(nil), cfg.RedactQuery...),
	}
	if c.defaultHeaders == nil {
		c.defaultHeaders = make(http.Header)
	}
	if c.retry.Backoff == nil {
		c.retry.Backoff = DefaultBackoff()
	}
	return c, nil
}

// BaseURL returns the normalized base URL (trailing slash removed).
func (c *Client) BaseURL() string { return c.base }

// WithHooks adds hooks (executed for every attempt).
// Call this during initialization, before the client is used concurrently.
func (c *Client) WithHooks(before []BeforeHook, after []AfterHook) *Client {
	c.before = append(c.before, before...)
	c.after = append(c.after, after...)
	return c
}

func (c *Client) resolveURL(path string, q url.Values) (*url.URL, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty url/path")
	}
	u, err := url.Parse(p)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		if c.baseURL == nil {
			return nil, errors.New("relative path requires BaseURL")
		}
		// A leading "/" is relative to the base path prefix, not the host root.
		rel := *u
		rel.Path = strings.TrimPrefix(rel.Path, "/")
		u = c.baseURL.ResolveReference(&rel)
	}
	if len(q) > 0 {
		qq := u.Query()
		for k, vv := range q {
			for _, v := range vv {
				qq.Add(k, v)
			}
		}
		u.RawQuery = qq.Encode()
	}
	return u, nil
}

// Do executes the request with retries (if configured). It mirrors net/http semantics:
// - transport errors are returned as *Error with StatusCode 0
// - non-2xx responses are returned as resp with nil error
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.do(req, false)
}

// DoStatus is like Do but converts non-2xx responses into *Error.
// It reads up to MaxErrorBodyBytes of the error body and then closes it.
func (c *Client) DoStatus(req *http.Request) (*http.Response, error) {
	return c.do(req, true)
}

func (c *Client) do(req *http.Request, statusAsError bool) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	ctx := req.Context()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
		req = req.Clone(ctx)
	}

	attempts := c.retry.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var (
		resp *http.Response
		err  error
	)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, c.transportError(req, err, false)
		}
		for _, h := range c.before {
			if h == nil {
				continue
			}
			if err := h(req, attempt); err != nil {
				return nil, err
			}
		}

		t0 := time.Now()
		resp, err = c.httpClient.Do(req)
		dur := time.Since(t0)
		if err != nil {
			err = c.redactErr(err)
		}
		for _, h := range c.after {
			if h != nil {
				h(req, resp, err, dur, attempt)
			}
		}

		if err == nil && resp.StatusCode < 300 {
			return c.finish(resp), nil
		}
		if attempt >= attempts || !c.shouldRetry(req, resp, err) {
			break
		}

		wait := c.retry.Backoff.Next(attempt)
		if resp != nil {
			if ra, ok := c.retry.retryAfter(resp); ok {
				wait = ra
			}
			// Drain so the connection can be reused.
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
			_ = resp.Body.Close()
		}
		if err := sleep(ctx, wait); err != nil {
			return nil, c.transportError(req, err, false)
		}
	}

	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, c.transportError(req, err, c.retry.canRetryMethod(req.Method) && shouldRetryNetErr(err))
	}
	if !statusAsError {
		return c.finish(resp), nil
	}
	retryable := c.retry.canRetryMethod(req.Method) && c.retry.canRetryStatus(resp.StatusCode)
	return c.responseToError(req, resp, retryable)
}

func (c *Client) shouldRetry(req *http.Request, resp *http.Response, err error) bool {
	if !c.retry.canRetryMethod(req.Method) {
		return false
	}
	if req.Body != nil && req.Body != http.NoBody {
		return false
	}
	if err != nil {
		return shouldRetryNetErr(err)
	}
	return c.retry.canRetryStatus(resp.StatusCode)
}

// finish buffers the body when the client owns a timeout context, since that
// context is canceled as soon as do returns.
func (c *Client) finish(resp *http.Response) *http.Response {
	if c.timeout <= 0 || resp.Body == nil {
		return resp
	}
	b, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		resp.Body = io.NopCloser(errReader{err: err})
		return resp
	}
	resp.Body = io.NopCloser(bytes.NewReader(b))
	return resp
}

func (c *Client) transportError(req *http.Request, cause error, retryable bool) *Error {
	return &Error{
		Method:    req.Method,
		URL:       RedactURL(req.URL, c.redact...),
		Cause:     c.redactErr(cause),
		Retryable: retryable,
	}
}

func (c *Client) responseToError(req *http.Request, resp *http.Response, retryable bool) (*http.Response, error) {
	if resp.Body != nil {
		defer resp.Body.Close()
	}

	var raw []byte
	if resp.Body != nil && c.maxErrBody > 0 {
		raw, _ = io.ReadAll(io.LimitReader(resp.Body, c.maxErrBody))
	}

	// Expose the captured bytes to the caller but do not hold the socket open.
	resp.Body = io.NopCloser(bytes.NewReader(raw))

	ra, _ := parseRetryAfter(resp, time.Now())

	return resp, &Error{
		Method:      req.Method,
		URL:         RedactURL(req.URL, c.redact...),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		RetryAfter:  ra,
		RawBody:     raw,
		Retryable:   retryable,
		Cause:       errors.New(http.StatusText(resp.StatusCode)),
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
