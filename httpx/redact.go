package httpx

import "net/url"

// RedactedValue replaces the value of a redacted query parameter.
const RedactedValue = "REDACTED"

// RedactURL returns u as a string with the non-empty values of keys replaced
// by RedactedValue. u itself is not modified.
func RedactURL(u *url.URL, keys ...string) string {
	if u == nil {
		return ""
	}
	if len(keys) == 0 || u.RawQuery == "" {
		return u.String()
	}
	q := u.Query()
	changed := false
	for _, k := range keys {
		for i, v := range q[k] {
			if v != "" {
				q[k][i] = RedactedValue
				changed = true
			}
		}
	}
	if !changed {
		return u.String()
	}
	u2 := *u
	u2.RawQuery = q.Encode()
	return u2.String()
}

// redactErr rewrites the URL carried by a *url.Error from net/http.
func (c *Client) redactErr(err error) error {
	ue, ok := err.(*url.Error)
	if !ok || len(c.redact) == 0 {
		return err
	}
	u, perr := url.Parse(ue.URL)
	if perr != nil {
		return &url.Error{Op: ue.Op, URL: "", Err: ue.Err}
	}
	return &url.Error{Op: ue.Op, URL: RedactURL(u, c.redact...), Err: ue.Err}
}
