package httpx

import "net/http"

// RoundTripperFunc adapts a function to an http.RoundTripper, e.g. to stub
// the service in tests or to wrap DefaultTransport.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
