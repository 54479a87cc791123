package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DefaultMaxRequestBytes bounds a single framed request.
const DefaultMaxRequestBytes = 64 * 1024

// ErrRequestTooLarge is returned when a request exceeds the framing limit.
var ErrRequestTooLarge = errors.New("protocol: request too large")

const readChunk = 4096

// ReadRequest reads one request from r. It stops once the header terminator
// has been seen and Content-Length body bytes are buffered, when the peer
// closes the stream, or when maxBytes is reached. A stream closed before any
// byte arrives returns io.EOF.
func ReadRequest(r io.Reader, maxBytes int) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestBytes
	}

	buf := make([]byte, 0, readChunk)
	chunk := make([]byte, readChunk)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if len(buf)+n > maxBytes {
				return nil, ErrRequestTooLarge
			}
			buf = append(buf, chunk[:n]...)
			if complete(buf) {
				return buf, nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(buf) == 0 {
					return nil, io.EOF
				}
				return buf, nil
			}
			if len(buf) > 0 {
				return buf, nil
			}
			return nil, fmt.Errorf("read request: %w", err)
		}
	}
}

// complete reports whether buf holds the whole head and the declared body.
func complete(buf []byte) bool {
	idx := bytes.Index(buf, headerTerminator)
	if idx < 0 {
		return false
	}
	bodyLen := len(buf) - idx - len(headerTerminator)
	return bodyLen >= contentLength(buf[:idx])
}

func contentLength(head []byte) int {
	for _, line := range strings.Split(string(head), "\r\n")[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	return 0
}
