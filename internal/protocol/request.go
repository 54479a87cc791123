// Package protocol implements the line-oriented request/response framing spoken
// by court clients over raw TCP. The format mirrors HTTP/1.1 closely enough for
// simple clients, but only the subset below is understood:
//
//	METHOD SP PATH[?QUERY] SP VERSION CRLF
//	Header-Name: value CRLF
//	CRLF
//	body
//
// Responses always carry a JSON envelope and ask the peer to close the connection.
package protocol

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrMalformedRequest is returned when a request cannot be parsed.
var ErrMalformedRequest = errors.New("protocol: malformed request")

var headerTerminator = []byte("\r\n\r\n")

// Request is a parsed client request.
type Request struct {
	Method  string
	Path    string
	Version string
	Query   map[string]string
	Header  Header
	Body    []byte
}

// Header holds request headers keyed by the name as sent.
type Header map[string]string

// Get returns the value for name, matching case-insensitively when no exact key exists.
func (h Header) Get(name string) string {
	if v, ok := h[name]; ok {
		return v
	}
	for key, value := range h {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	return ""
}

// QueryValue returns the query parameter or "".
func (r *Request) QueryValue(key string) string {
	if r == nil || r.Query == nil {
		return ""
	}
	return r.Query[key]
}

// ParseRequest parses a complete request buffer.
func ParseRequest(raw []byte) (*Request, error) {
	if !utf8.Valid(raw) {
		return nil, ErrMalformedRequest
	}

	head, body, _ := bytes.Cut(raw, headerTerminator)
	lines := strings.Split(string(head), "\r\n")

	parts := strings.Split(lines[0], " ")
	if len(parts) != 3 {
		return nil, ErrMalformedRequest
	}

	req := &Request{
		Method:  strings.ToUpper(parts[0]),
		Version: parts[2],
		Query:   make(map[string]string),
		Header:  make(Header),
		Body:    body,
	}

	target := parts[1]
	if path, rawQuery, found := strings.Cut(target, "?"); found {
		req.Path = path
		for _, pair := range strings.Split(rawQuery, "&") {
			if key, value, ok := strings.Cut(pair, "="); ok {
				req.Query[key] = value
			}
		}
	} else {
		req.Path = target
	}

	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		req.Header[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	return req, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func (r *Request) BearerToken() string {
	if r == nil {
		return ""
	}
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
