package httpx

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

type RequestOption interface{ apply(*requestConfig) }

type requestOptionFunc func(*requestConfig)

func (f requestOptionFunc) apply(c *requestConfig) { f(c) }

type requestConfig struct {
	query      url.Values
	noDefaults bool
}

// WithQueryParam adds a query parameter. Empty values are kept ("k=").
func WithQueryParam(key, value string) RequestOption {
	return requestOptionFunc(func(c *requestConfig) {
		if c.query == nil {
			c.query = make(url.Values)
		}
		c.query.Add(key, value)
	})
}

// WithoutDefaultHeaders skips the client's DefaultHeaders for this request.
func WithoutDefaultHeaders() RequestOption {
	return requestOptionFunc(func(c *requestConfig) { c.noDefaults = true })
}

func (c *Client) NewRequest(ctx context.Context, method, path string, opts ...RequestOption) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rc := requestConfig{}
	for _, o := range opts {
		if o != nil {
			o.apply(&rc)
		}
	}

	u, err := c.resolveURL(path, rc.query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), u.String(), nil)
	if err != nil {
		return nil, err
	}

	if !rc.noDefaults {
		for k, vv := range c.defaultHeaders {
			for _, v := range vv {
				req.Header.Add(k, v)
			}
		}
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// Get is NewRequest with GET.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*http.Request, error) {
	return c.NewRequest(ctx, http.MethodGet, path, opts...)
}
