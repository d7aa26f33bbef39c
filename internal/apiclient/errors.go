package apiclient

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// TransportError is a failure to obtain any response: connection refused,
// timeout, DNS failure.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError is a response that does not match the documented contract.
type ProtocolError struct {
	Reason string
	Status int
	Body   string
}

func (e *ProtocolError) Error() string {
	return e.Reason
}

// Details returns the actual status and body for inclusion in a result.
func (e *ProtocolError) Details() map[string]any {
	d := map[string]any{"status_code": e.Status}
	if e.Body != "" {
		d["response"] = e.Body
	}
	return d
}

// IsTransport reports whether err is, or wraps, a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ExpectStatus returns a ProtocolError unless resp has one of codes.
func ExpectStatus(resp *Response, codes ...int) error {
	if slices.Contains(codes, resp.Status) {
		return nil
	}
	want := make([]string, 0, len(codes))
	for _, c := range codes {
		want = append(want, strconv.Itoa(c))
	}
	return &ProtocolError{
		Reason: fmt.Sprintf("HTTP %d (expected %s)", resp.Status, strings.Join(want, " or ")),
		Status: resp.Status,
		Body:   resp.Text(DefaultSnippet),
	}
}

// ExpectJSON returns a ProtocolError naming the first gjson path missing from resp.
func ExpectJSON(resp *Response, paths ...string) error {
	if !resp.IsJSON() {
		return &ProtocolError{
			Reason: "response body is not JSON",
			Status: resp.Status,
			Body:   resp.Text(DefaultSnippet),
		}
	}
	for _, p := range paths {
		if !resp.JSON(p).Exists() {
			return &ProtocolError{
				Reason: fmt.Sprintf("missing field %q in response", p),
				Status: resp.Status,
				Body:   resp.Text(DefaultSnippet),
			}
		}
	}
	return nil
}
