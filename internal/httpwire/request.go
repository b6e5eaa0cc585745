package httpwire

import (
	"errors"
	"strings"
)

// ErrMalformedRequest is returned when the request line cannot be parsed.
var ErrMalformedRequest = errors.New("malformed request line")

// Request is one parsed HTTP request. Constructed once per connection and
// immutable afterwards.
type Request struct {
	Method  string
	Path    string
	headers map[string]string
	Body    []byte
}

// Header returns the value of the named header, matched case-insensitively.
func (r *Request) Header(name string) (string, bool) {
	v, ok := r.headers[strings.ToLower(name)]
	return v, ok
}

// ParseRequest turns a raw frame into a Request. The request line must carry
// at least a method and a path; the path is lower-cased and truncated at the
// first '?'. Header keys are trimmed and stored lower-cased, last write wins
// on duplicates; lines without a colon are skipped.
func ParseRequest(header, body []byte) (*Request, error) {
	lines := strings.Split(string(header), "\r\n")
	if len(lines) == 0 {
		return nil, ErrMalformedRequest
	}
	tokens := strings.Fields(lines[0])
	if len(tokens) < 2 {
		return nil, ErrMalformedRequest
	}

	path := strings.ToLower(tokens[1])
	if q := strings.IndexByte(path, '?'); q >= 0 {
		path = path[:q]
	}

	req := &Request{
		Method:  strings.ToUpper(tokens[0]),
		Path:    path,
		headers: make(map[string]string),
		Body:    body,
	}
	for _, line := range lines[1:] {
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:colon]))
		if key == "" {
			continue
		}
		req.headers[key] = strings.TrimSpace(line[colon+1:])
	}
	return req, nil
}
