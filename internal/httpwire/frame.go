// Package httpwire implements the minimal HTTP/1.1 wire handling the control
// plane needs: framing one request off a raw connection, parsing it into a
// structured form, and encoding one JSON response back. It deliberately does
// not use net/http; the server speaks to exactly one kind of client over
// loopback and owns the full byte-level contract.
package httpwire

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
)

// ErrIncompleteFrame is returned by Frame when the connection ended before a
// complete request was accumulated.
var ErrIncompleteFrame = errors.New("connection closed before complete request")

var headerTerminator = []byte("\r\n\r\n")

type frameState int

const (
	frameReadingHeaders frameState = iota
	frameReadingBody
	frameComplete
)

// FrameReader accumulates bytes fed from a connection until exactly one HTTP
// request (header section plus declared body length) is buffered. It consumes
// no more than one request; pipelined bytes after the frame are ignored.
type FrameReader struct {
	state     frameState
	buf       bytes.Buffer
	headerEnd int
	bodyLen   int
}

// NewFrameReader returns a reader waiting for the header terminator.
func NewFrameReader() *FrameReader {
	return &FrameReader{}
}

// Feed appends data and reports whether a complete request is now buffered.
// Once complete, further Feed calls are no-ops.
func (fr *FrameReader) Feed(data []byte) bool {
	if fr.state == frameComplete {
		return true
	}
	fr.buf.Write(data)

	if fr.state == frameReadingHeaders {
		idx := bytes.Index(fr.buf.Bytes(), headerTerminator)
		if idx < 0 {
			return false
		}
		fr.headerEnd = idx + len(headerTerminator)
		fr.bodyLen = declaredLength(fr.buf.Bytes()[:idx])
		fr.state = frameReadingBody
	}

	if fr.buf.Len()-fr.headerEnd >= fr.bodyLen {
		fr.state = frameComplete
		return true
	}
	return false
}

// Complete reports whether a full request frame has been accumulated.
func (fr *FrameReader) Complete() bool { return fr.state == frameComplete }

// Frame returns the raw header section and the body bytes of the buffered
// request. It fails with ErrIncompleteFrame until Feed has returned true.
func (fr *FrameReader) Frame() (header, body []byte, err error) {
	if fr.state != frameComplete {
		return nil, nil, ErrIncompleteFrame
	}
	raw := fr.buf.Bytes()
	header = raw[:fr.headerEnd-len(headerTerminator)]
	body = raw[fr.headerEnd : fr.headerEnd+fr.bodyLen]
	return header, body, nil
}

// declaredLength scans the raw header section for Content-Length. A missing or
// malformed value means no body.
func declaredLength(header []byte) int {
	for _, line := range bytes.Split(header, []byte("\r\n")) {
		colon := bytes.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		key := string(bytes.TrimSpace(line[:colon]))
		if !strings.EqualFold(key, "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(string(bytes.TrimSpace(line[colon+1:])))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	return 0
}
