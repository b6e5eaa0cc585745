package httpwire

import "testing"

func TestParseRequestBasics(t *testing.T) {
	header := []byte("POST /Rapid/Upload?t=1 HTTP/1.1\r\nContent-Type: application/json\r\nHost: localhost")
	req, err := ParseRequest(header, []byte(`{"code":"x"}`))
	if err != nil {
		t.Fatalf("ParseRequest returned error: %v", err)
	}
	if req.Method != "POST" {
		t.Errorf("Method = %q, want POST", req.Method)
	}
	if req.Path != "/rapid/upload" {
		t.Errorf("Path = %q, want lower-cased query-stripped /rapid/upload", req.Path)
	}
	if ct, ok := req.Header("content-type"); !ok || ct != "application/json" {
		t.Errorf("Content-Type = %q, %v", ct, ok)
	}
	if string(req.Body) != `{"code":"x"}` {
		t.Errorf("Body = %q", req.Body)
	}
}

func TestParseRequestHeaderCaseAndDuplicates(t *testing.T) {
	header := []byte("GET / HTTP/1.1\r\nX-Thing: first\r\nx-thing: second")
	req, err := ParseRequest(header, nil)
	if err != nil {
		t.Fatalf("ParseRequest returned error: %v", err)
	}
	if v, _ := req.Header("X-THING"); v != "second" {
		t.Errorf("duplicate header = %q, want last-write-wins 'second'", v)
	}
}

func TestParseRequestSkipsMalformedHeaderLines(t *testing.T) {
	header := []byte("GET / HTTP/1.1\r\nthis line has no colon\r\nGood: yes")
	req, err := ParseRequest(header, nil)
	if err != nil {
		t.Fatalf("ParseRequest returned error: %v", err)
	}
	if v, ok := req.Header("good"); !ok || v != "yes" {
		t.Errorf("Good header = %q, %v", v, ok)
	}
}

func TestParseRequestShortRequestLine(t *testing.T) {
	if _, err := ParseRequest([]byte("GET"), nil); err == nil {
		t.Fatal("expected error for request line with one token")
	}
	if _, err := ParseRequest([]byte(""), nil); err == nil {
		t.Fatal("expected error for empty request line")
	}
}
