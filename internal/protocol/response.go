package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Version is the protocol version written on every status line.
const Version = "HTTP/1.1"

// Status codes produced by the server.
const (
	StatusOK                  = 200
	StatusCreated             = 201
	StatusBadRequest          = 400
	StatusUnauthorized        = 401
	StatusForbidden           = 403
	StatusNotFound            = 404
	StatusConflict            = 409
	StatusInternalServerError = 500
)

var reasons = map[int]string{
	StatusOK:                  "OK",
	StatusCreated:             "Created",
	StatusBadRequest:          "Bad Request",
	StatusUnauthorized:        "Unauthorized",
	StatusForbidden:           "Forbidden",
	StatusNotFound:            "Not Found",
	StatusConflict:            "Conflict",
	StatusInternalServerError: "Internal Server Error",
}

// ReasonPhrase returns the reason for code, or "Unknown".
func ReasonPhrase(code int) string {
	if reason, ok := reasons[code]; ok {
		return reason
	}
	return "Unknown"
}

// Envelope is the JSON body of every response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// HeaderField is a single response header. Responses keep headers ordered.
type HeaderField struct {
	Name  string
	Value string
}

// Response is a fully built reply ready to be written.
type Response struct {
	Status  int
	Reason  string
	Headers []HeaderField
	Body    []byte
}

// NewResponse builds a JSON envelope response. Success is derived from status.
func NewResponse(status int, message string, data any) (*Response, error) {
	body, err := encodeEnvelope(Envelope{
		Success: status >= 200 && status < 300,
		Message: message,
		Data:    data,
	})
	if err != nil {
		return nil, fmt.Errorf("encode response body: %w", err)
	}
	return &Response{
		Status: status,
		Reason: ReasonPhrase(status),
		Headers: []HeaderField{
			{Name: "Content-Type", Value: "application/json"},
			{Name: "Connection", Value: "close"},
			{Name: "Content-Length", Value: strconv.Itoa(len(body))},
		},
		Body: body,
	}, nil
}

// Error builds a response that carries only a message.
func Error(status int, message string) *Response {
	resp, err := NewResponse(status, message, nil)
	if err != nil {
		panic(err)
	}
	return resp
}

func encodeEnvelope(env Envelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Success reports whether the status is in the 2xx range.
func (r *Response) Success() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Header returns the first header value with the given name.
func (r *Response) Header(name string) string {
	for _, h := range r.Headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

// Bytes serializes the response for the wire.
func (r *Response) Bytes() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %d %s\r\n", Version, r.Status, r.Reason)
	for _, h := range r.Headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.Name, h.Value)
	}
	buf.WriteString("\r\n")
	buf.Write(r.Body)
	return buf.Bytes()
}
