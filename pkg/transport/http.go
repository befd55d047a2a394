package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnexpectedStatus wraps non-accepted status codes.
var ErrUnexpectedStatus = errors.New("transport: unexpected status")

const maxBodyBytes = 10 << 20

// Option configures the HTTP client.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		c.timeout = timeout
	}
}

// WithBaseURL resolves relative form actions against base.
func WithBaseURL(base string) Option {
	return func(c *HTTPClient) {
		c.baseURL = strings.TrimSpace(base)
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *HTTPClient) {
		if key != "" {
			c.header.Add(key, value)
		}
	}
}

// WithValidateStatus decides which status codes count as success. The
// default accepts 2xx.
func WithValidateStatus(fn func(int) bool) Option {
	return func(c *HTTPClient) {
		if fn != nil {
			c.validateStatus = fn
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *log.Logger) Option {
	return func(c *HTTPClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// HTTPClient is the default Client over net/http.
type HTTPClient struct {
	client         *http.Client
	timeout        time.Duration
	baseURL        string
	header         http.Header
	validateStatus func(int) bool
	logger         *log.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client with defaults: http.DefaultClient, 2xx
// success, JSON accept header.
func NewHTTPClient(options ...Option) *HTTPClient {
	c := &HTTPClient{
		client:         http.DefaultClient,
		header:         http.Header{},
		validateStatus: func(code int) bool { return code >= 200 && code < 300 },
		logger:         log.New(io.Discard, "", 0),
	}
	c.header.Set("Accept", "application/json, text/plain, */*")
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Send implements Client.
func (c *HTTPClient) Send(ctx context.Context, req Request) (*Response, error) {
	target, err := c.resolve(req.URL)
	if err != nil {
		return nil, err
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodPost
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	for key, values := range c.header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	for key, values := range req.Header {
		httpReq.Header.Del(key)
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	c.logger.Printf("send method=%s url=%s bytes=%d", method, target, len(req.Body))
	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transport: %s %s: %w", method, target, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("transport: read body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		Data:       decodeBody(httpResp.Header.Get("Content-Type"), body),
	}
	c.logger.Printf("received status=%d bytes=%d", resp.StatusCode, len(body))

	if !c.validateStatus(resp.StatusCode) {
		return nil, &ResponseError{
			Response: resp,
			Err:      fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode),
		}
	}
	return resp, nil
}

func (c *HTTPClient) resolve(raw string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("transport: parse url %q: %w", raw, err)
	}
	if c.baseURL == "" || ref.IsAbs() {
		return ref.String(), nil
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("transport: parse base url %q: %w", c.baseURL, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// decodeBody mirrors what browser HTTP clients do with replies: JSON bodies
// are decoded, anything else is left raw.
func decodeBody(contentType string, body []byte) any {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	looksJSON := trimmed[0] == '{' || trimmed[0] == '['
	if !strings.HasSuffix(mediaType, "json") && !looksJSON {
		return nil
	}
	var out any
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil
	}
	return out
}

func asResponseError(err error) (*ResponseError, bool) {
	var re *ResponseError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
