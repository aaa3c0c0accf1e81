package httpx

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// RetryConfig is opt-in: the zero value performs a single attempt.
type RetryConfig struct {
	// MaxAttempts includes the initial attempt. If <= 1, retries are disabled.
	MaxAttempts int

	// Methods lists HTTP methods eligible for retries. Empty means GET and HEAD.
	Methods map[string]bool

	// StatusCodes lists response codes eligible for retries. Empty means 408, 429, 502, 503, 504.
	StatusCodes map[int]bool

	// Backoff computes the sleep before the next attempt. Nil means DefaultBackoff().
	Backoff Backoff

	// RespectRetryAfter uses the Retry-After header for 429/503 when present,
	// capped by MaxRetryAfter if that is set.
	RespectRetryAfter bool
	MaxRetryAfter     time.Duration
}

// DefaultRetryConfig is a reasonable policy for callers that opt into retries.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		Backoff:           DefaultBackoff(),
		RespectRetryAfter: true,
		MaxRetryAfter:     30 * time.Second,
	}
}

type Backoff interface {
	// Next returns how long to sleep before retrying. attempt is 1 after the first failure.
	Next(attempt int) time.Duration
}

type ExponentialBackoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64 // 0..1
}

func DefaultBackoff() Backoff {
	return ExponentialBackoff{
		Base:   200 * time.Millisecond,
		Max:    3 * time.Second,
		Jitter: 0.2,
	}
}

func (b ExponentialBackoff) Next(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base, ceil := b.Base, b.Max
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	if ceil <= 0 {
		ceil = 3 * time.Second
	}

	// base * 2^(attempt-1)
	d := base
	for i := 1; i < attempt && d < ceil; i++ {
		d *= 2
	}
	d = min(d, ceil)

	j := min(b.Jitter, 1)
	if j <= 0 {
		return d
	}
	f := 1 + (rand.Float64()*2-1)*j
	return time.Duration(float64(d) * max(f, 0))
}

func (c RetryConfig) canRetryMethod(method string) bool {
	if c.MaxAttempts <= 1 {
		return false
	}
	m := strings.ToUpper(strings.TrimSpace(method))
	if len(c.Methods) == 0 {
		return m == http.MethodGet || m == http.MethodHead
	}
	return c.Methods[m]
}

func (c RetryConfig) canRetryStatus(code int) bool {
	if len(c.StatusCodes) == 0 {
		switch code {
		case http.StatusRequestTimeout, http.StatusTooManyRequests,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	return c.StatusCodes[code]
}

func (c RetryConfig) retryAfter(resp *http.Response) (time.Duration, bool) {
	if !c.RespectRetryAfter {
		return 0, false
	}
	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
		return 0, false
	}
	d, ok := parseRetryAfter(resp, time.Now())
	if ok && c.MaxRetryAfter > 0 && d > c.MaxRetryAfter {
		d = c.MaxRetryAfter
	}
	return d, ok
}

func shouldRetryNetErr(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func parseRetryAfter(resp *http.Response, now time.Time) (time.Duration, bool) {
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		return max(t.Sub(now), 0), true
	}
	return 0, false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
