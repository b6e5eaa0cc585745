package httpwire

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// statusText maps the status codes this service emits to their reason
// phrases. Anything else falls back to a generic phrase.
var statusText = map[int]string{
	200: "OK",
	400: "Bad Request",
	404: "Not Found",
	405: "Method Not Allowed",
	409: "Conflict",
	422: "Unprocessable Entity",
	500: "Internal Server Error",
}

// StatusText returns the reason phrase for code.
func StatusText(code int) string {
	if text, ok := statusText[code]; ok {
		return text
	}
	return "Status"
}

// WriteResponse encodes payload as JSON and writes a complete HTTP/1.1
// response to w. A nil payload produces an empty body (used for OPTIONS
// preflight). Every response carries permissive cross-origin headers and
// Connection: close; extra headers are appended sorted for a stable wire form.
func WriteResponse(w io.Writer, status int, payload any, extra map[string]string) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			status = 500
			body = []byte(`{"error":"response encoding failed"}`)
		}
	}

	var b []byte
	b = fmt.Appendf(b, "HTTP/1.1 %d %s\r\n", status, StatusText(status))
	b = fmt.Appendf(b, "Content-Type: application/json; charset=utf-8\r\n")
	b = fmt.Appendf(b, "Content-Length: %d\r\n", len(body))
	b = fmt.Appendf(b, "Access-Control-Allow-Origin: *\r\n")
	b = fmt.Appendf(b, "Access-Control-Allow-Methods: GET, POST, OPTIONS\r\n")
	b = fmt.Appendf(b, "Access-Control-Allow-Headers: Content-Type\r\n")
	b = fmt.Appendf(b, "Connection: close\r\n")

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b = fmt.Appendf(b, "%s: %s\r\n", k, extra[k])
	}

	b = append(b, "\r\n"...)
	b = append(b, body...)
	_, err := w.Write(b)
	return err
}
