package httpx

import (
	"net/http"
	"time"
)

// Config configures a Client. Use DefaultConfig() as a baseline.
type Config struct {
	// BaseURL is required for relative paths. A trailing slash is ignored.
	BaseURL string

	// Timeout bounds the whole call including retries. Zero means no timeout;
	// the request context still applies.
	Timeout time.Duration

	// Transport is the underlying RoundTripper. If nil, DefaultTransport() is used.
	Transport http.RoundTripper

	// DefaultHeaders are copied into every request (request headers win).
	DefaultHeaders http.Header

	// UserAgent is set when the request does not already carry one.
	UserAgent string

	// Retry configures automatic retries. The zero value performs one attempt.
	Retry RetryConfig

	// MaxErrorBodyBytes limits how much of a non-2xx body is kept in Error.RawBody.
	// Zero selects DefaultMaxErrorBodyBytes; a negative value disables capture.
	MaxErrorBodyBytes int64

	// RedactQuery names query parameters whose values are replaced by
	// RedactedValue in Error.URL and in wrapped *url.Error values.
	RedactQuery []string
}

const DefaultMaxErrorBodyBytes int64 = 64 << 10 // 64KiB

// DefaultConfig returns a single-attempt, no-timeout baseline.
func DefaultConfig() Config {
	return Config{
		Transport:         DefaultTransport(),
		DefaultHeaders:    make(http.Header),
		Retry:             RetryConfig{MaxAttempts: 1},
		MaxErrorBodyBytes: DefaultMaxErrorBodyBytes,
	}
}
