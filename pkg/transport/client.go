// Package transport sends form submissions and decodes the responses.
package transport

import (
	"context"
	"fmt"
	"net/http"
)

// Request is one outbound submission.
type Request struct {
	Method      string
	URL         string
	ContentType string
	Header      http.Header
	Body        []byte
}

// Response is a received reply. Data holds the decoded JSON body when the
// body was JSON, nil otherwise.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Data       any
}

// Client performs a submission. Failed submissions that still produced a
// response return a *ResponseError carrying it.
type Client interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req Request) (*Response, error)

// Send implements Client.
func (fn ClientFunc) Send(ctx context.Context, req Request) (*Response, error) {
	return fn(ctx, req)
}

// ResponseError is returned when the server replied with a status the client
// treats as a failure.
type ResponseError struct {
	Response *Response
	Err      error
}

func (e *ResponseError) Error() string {
	if e.Response == nil {
		return fmt.Sprintf("transport: %v", e.Err)
	}
	if e.Err == nil {
		return fmt.Sprintf("transport: status %d", e.Response.StatusCode)
	}
	return fmt.Sprintf("transport: status %d: %v", e.Response.StatusCode, e.Err)
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

// ResponseOf returns the response attached to err, if any.
func ResponseOf(err error) *Response {
	if re, ok := asResponseError(err); ok {
		return re.Response
	}
	return nil
}
