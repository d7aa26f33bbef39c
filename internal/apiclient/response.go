package apiclient

import (
	"net/http"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// DefaultSnippet is how much of a body is kept when it is echoed into a result.
const DefaultSnippet = 200

// Response is a fully read HTTP response.
type Response struct {
	Method string
	URL    string
	Status int
	Header http.Header
	Body   []byte
}

// JSON queries the body with a gjson path.
func (r *Response) JSON(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

// IsJSON reports whether the body is valid JSON.
func (r *Response) IsJSON() bool {
	return gjson.ValidBytes(r.Body)
}

// Value decodes the whole body into generic JSON values. Non-JSON bodies are
// returned as text.
func (r *Response) Value() any {
	if len(r.Body) == 0 {
		return nil
	}
	if !r.IsJSON() {
		return string(r.Body)
	}
	return gjson.ParseBytes(r.Body).Value()
}

// Text returns the body as a string of at most limit bytes (0 means no
// limit). A multi-byte character that would be split is dropped whole.
func (r *Response) Text(limit int) string {
	return truncate(string(r.Body), limit)
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Count returns the length of the array at path, or 0 when it is absent.
func (r *Response) Count(path string) int {
	res := r.JSON(path)
	if !res.IsArray() {
		return 0
	}
	return len(res.Array())
}
