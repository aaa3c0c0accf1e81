package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DecodeError reports a 2xx response whose body could not be decoded.
type DecodeError struct {
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	if e.ContentType != "" {
		return fmt.Sprintf("decode %s response: %v", e.ContentType, e.Err)
	}
	return fmt.Sprintf("decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DoJSONInto performs the request, treats non-2xx as error, and decodes a JSON response into dst.
// The response body is always closed.
func (c *Client) DoJSONInto(req *http.Request, dst any) (*http.Response, error) {
	resp, err := c.DoStatus(req)
	if err != nil {
		return resp, err
	}
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(dst); err != nil {
		if isBodyReadErr(err) {
			return resp, c.transportError(req, err, false)
		}
		return resp, &DecodeError{ContentType: ct, Err: err}
	}
	// Ensure there's no extra non-whitespace payload.
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected extra JSON value in response body")
		}
		return resp, &DecodeError{ContentType: ct, Err: err}
	}
	return resp, nil
}

// DoBytes performs the request, treats non-2xx as error, and returns the whole body.
// A failure while reading the body is reported as a transport *Error.
func (c *Client) DoBytes(req *http.Request) ([]byte, *http.Response, error) {
	resp, err := c.DoStatus(req)
	if err != nil {
		return nil, resp, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, c.transportError(req, err, false)
	}
	return b, resp, nil
}

// isBodyReadErr separates I/O failures from syntax errors while decoding.
func isBodyReadErr(err error) bool {
	var se *json.SyntaxError
	var te *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &te) {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return false
	}
	return true
}
