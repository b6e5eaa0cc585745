package httpwire

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestWriteResponseShape(t *testing.T) {
	var buf bytes.Buffer
	err := WriteResponse(&buf, 200, map[string]string{"status": "ok"}, nil)
	if err != nil {
		t.Fatalf("WriteResponse returned error: %v", err)
	}
	raw := buf.String()

	if !strings.HasPrefix(raw, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("unexpected status line: %q", raw[:strings.Index(raw, "\r\n")])
	}
	for _, want := range []string{
		"Content-Type: application/json; charset=utf-8\r\n",
		"Access-Control-Allow-Origin: *\r\n",
		"Access-Control-Allow-Methods: GET, POST, OPTIONS\r\n",
		"Access-Control-Allow-Headers: Content-Type\r\n",
		"Connection: close\r\n",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("response missing header %q", strings.TrimSpace(want))
		}
	}

	body := raw[strings.Index(raw, "\r\n\r\n")+4:]
	if body != `{"status":"ok"}` {
		t.Errorf("body = %q", body)
	}
	if !strings.Contains(raw, fmt.Sprintf("Content-Length: %d\r\n", len(body))) {
		t.Errorf("Content-Length does not match body length %d: %q", len(body), raw)
	}
}

func TestWriteResponseNilPayloadEmptyBody(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResponse(&buf, 200, nil, nil); err != nil {
		t.Fatalf("WriteResponse returned error: %v", err)
	}
	raw := buf.String()
	if !strings.Contains(raw, "Content-Length: 0\r\n") {
		t.Errorf("expected Content-Length: 0, got %q", raw)
	}
	if !strings.HasSuffix(raw, "\r\n\r\n") {
		t.Errorf("expected empty body, got %q", raw)
	}
}

func TestWriteResponseExtraHeaders(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResponse(&buf, 405, map[string]string{"error": "x"}, map[string]string{"Allow": "POST"}); err != nil {
		t.Fatalf("WriteResponse returned error: %v", err)
	}
	raw := buf.String()
	if !strings.HasPrefix(raw, "HTTP/1.1 405 Method Not Allowed\r\n") {
		t.Errorf("unexpected status line in %q", raw)
	}
	if !strings.Contains(raw, "Allow: POST\r\n") {
		t.Errorf("missing Allow header in %q", raw)
	}
}

func TestStatusTextTable(t *testing.T) {
	cases := map[int]string{
		200: "OK",
		400: "Bad Request",
		404: "Not Found",
		405: "Method Not Allowed",
		409: "Conflict",
		422: "Unprocessable Entity",
		500: "Internal Server Error",
		418: "Status",
	}
	for code, want := range cases {
		if got := StatusText(code); got != want {
			t.Errorf("StatusText(%d) = %q, want %q", code, got, want)
		}
	}
}
