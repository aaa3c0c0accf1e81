package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"
)

// Error is returned for transport failures and, from DoStatus, for non-2xx responses.
type Error struct {
	Method string
	URL    string

	// StatusCode is 0 when the request failed before a response arrived.
	StatusCode int

	// ContentType is the Content-Type of the error response, if any.
	ContentType string

	// RetryAfter is parsed from Retry-After when present.
	RetryAfter time.Duration

	// RawBody is a truncated copy of the non-2xx response body.
	RawBody []byte

	// Cause is the underlying error (transport error, context cancellation, status text).
	Cause error

	// Retryable reports whether the retry policy considered this failure retryable.
	Retryable bool
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if m := strings.TrimSpace(e.Method); m != "" {
		b.WriteString(strings.ToUpper(m))
		b.WriteString(" ")
	}
	if u := strings.TrimSpace(e.URL); u != "" {
		b.WriteString(u)
		b.WriteString(": ")
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, "http %d", e.StatusCode)
	} else {
		b.WriteString("request failed")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// IsTransport reports whether no HTTP response was received.
func (e *Error) IsTransport() bool { return e != nil && e.StatusCode == 0 }

// JSONBody decodes RawBody when it holds a single JSON value. It returns false
// for empty or non-JSON bodies, or when a non-JSON Content-Type was declared.
func (e *Error) JSONBody() (any, bool) {
	if e == nil {
		return nil, false
	}
	raw := bytes.TrimSpace(e.RawBody)
	if len(raw) == 0 {
		return nil, false
	}
	if ct := strings.TrimSpace(e.ContentType); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err == nil && mt != "application/json" && !strings.HasSuffix(mt, "+json") && mt != "text/plain" {
			return nil, false
		}
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return v, true
}

// AsError extracts *Error.
func AsError(err error) (*Error, bool) {
	var he *Error
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}
