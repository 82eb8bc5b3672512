package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
)

// Request is one outbound API call. The unexported attempted flag marks a
// resend after a credential refresh; a request carrying it never triggers
// another refresh.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
	Header      http.Header

	attempted bool
}

// NewRequest creates a request with no body.
func NewRequest(method, path string) *Request {
	return &Request{Method: method, Path: path}
}

// NewJSONRequest creates a request whose body is v encoded as JSON.
func NewJSONRequest(method, path string, v any) (*Request, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
	}
	return &Request{Method: method, Path: path, Body: body, ContentType: "application/json"}, nil
}

// NewMultipartRequest creates a POST whose multipart body is written by build.
// The body is buffered so the request can be resent after a refresh.
func NewMultipartRequest(path string, build func(w *multipart.Writer) error) (*Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := build(w); err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}
	return &Request{Method: http.MethodPost, Path: path, Body: buf.Bytes(), ContentType: w.FormDataContentType()}, nil
}

// Attempted reports whether this request is already the post-refresh resend.
func (r *Request) Attempted() bool { return r.attempted }

// retry returns a copy of r marked as attempted.
func (r *Request) retry() *Request {
	c := *r
	c.Header = r.Header.Clone()
	c.attempted = true
	return &c
}

// Response is a fully read API response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("decode response: empty body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
