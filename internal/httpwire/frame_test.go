package httpwire

import (
	"testing"
)

func TestFrameReaderHeaderOnlyRequest(t *testing.T) {
	fr := NewFrameReader()
	if fr.Feed([]byte("GET /health HTTP/1.1\r\nHost: localhost\r\n\r\n")) != true {
		t.Fatal("expected frame to be complete after header terminator")
	}
	header, body, err := fr.Frame()
	if err != nil {
		t.Fatalf("Frame returned error: %v", err)
	}
	if string(header) != "GET /health HTTP/1.1\r\nHost: localhost" {
		t.Errorf("unexpected header section: %q", header)
	}
	if len(body) != 0 {
		t.Errorf("expected empty body, got %q", body)
	}
}

func TestFrameReaderIncrementalFeeding(t *testing.T) {
	raw := "POST /simulation HTTP/1.1\r\nContent-Length: 18\r\n\r\n{\"action\":\"start\"}"
	fr := NewFrameReader()
	for i := 0; i < len(raw); i++ {
		complete := fr.Feed([]byte{raw[i]})
		if i < len(raw)-1 && complete {
			t.Fatalf("frame reported complete after %d of %d bytes", i+1, len(raw))
		}
		if i == len(raw)-1 && !complete {
			t.Fatal("frame not complete after final byte")
		}
	}
	_, body, err := fr.Frame()
	if err != nil {
		t.Fatalf("Frame returned error: %v", err)
	}
	if string(body) != `{"action":"start"}` {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestFrameReaderWaitsForDeclaredBody(t *testing.T) {
	fr := NewFrameReader()
	if fr.Feed([]byte("POST /x HTTP/1.1\r\nContent-Length: 5\r\n\r\nab")) {
		t.Fatal("frame complete with only 2 of 5 body bytes")
	}
	if !fr.Feed([]byte("cde")) {
		t.Fatal("frame not complete after declared body length reached")
	}
	_, body, _ := fr.Frame()
	if string(body) != "abcde" {
		t.Errorf("body = %q, want abcde", body)
	}
}

func TestFrameReaderNoTerminator(t *testing.T) {
	fr := NewFrameReader()
	fr.Feed([]byte("GET /health HTTP/1.1\r\nHost: x"))
	if fr.Complete() {
		t.Fatal("frame complete without header terminator")
	}
	if _, _, err := fr.Frame(); err != ErrIncompleteFrame {
		t.Fatalf("Frame error = %v, want ErrIncompleteFrame", err)
	}
}

func TestFrameReaderIgnoresPipelinedBytes(t *testing.T) {
	fr := NewFrameReader()
	fr.Feed([]byte("GET /a HTTP/1.1\r\n\r\nGET /b HTTP/1.1\r\n\r\n"))
	header, body, err := fr.Frame()
	if err != nil {
		t.Fatalf("Frame returned error: %v", err)
	}
	if string(header) != "GET /a HTTP/1.1" {
		t.Errorf("header = %q, want first request only", header)
	}
	if len(body) != 0 {
		t.Errorf("body = %q, want empty", body)
	}
}

func TestFrameReaderMalformedContentLength(t *testing.T) {
	fr := NewFrameReader()
	if !fr.Feed([]byte("POST /x HTTP/1.1\r\nContent-Length: banana\r\n\r\n")) {
		t.Fatal("malformed Content-Length should mean no body")
	}
}

func TestFrameReaderCaseInsensitiveContentLength(t *testing.T) {
	fr := NewFrameReader()
	if fr.Feed([]byte("POST /x HTTP/1.1\r\ncontent-length: 3\r\n\r\n")) {
		t.Fatal("frame complete before body arrived")
	}
	if !fr.Feed([]byte("abc")) {
		t.Fatal("frame not complete after body arrived")
	}
}
