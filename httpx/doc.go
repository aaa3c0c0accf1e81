// Package httpx is the transport layer under the star-history client:
// - request building against a base URL, with default and per-request headers
// - a single error type that separates transport failures from non-2xx statuses
// - bounded capture of error bodies so callers can surface the service's message
// - optional whole-call timeout and retry (off unless configured)
// - per-attempt hooks for logging without a hard logger dependency
package httpx
