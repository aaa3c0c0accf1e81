package httpx

import (
	"net/http"
	"time"
)

// BeforeHook runs before every attempt. A non-nil error aborts the call.
type BeforeHook func(req *http.Request, attempt int) error

// AfterHook runs after every attempt; resp is nil when err is non-nil.
type AfterHook func(req *http.Request, resp *http.Response, err error, dur time.Duration, attempt int)
