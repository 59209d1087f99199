package tool

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

// Compile-time interface checks.
var (
	_ Invoker = (*HTTPInvoker)(nil)
	_ Invoker = (*ProcessInvoker)(nil)
	_ Invoker = InvokerFunc(nil)
)

// HTTPInvoker posts the request line to a tool endpoint and reads the
// response line from the body. Framing is identical to the process
// protocol.
type HTTPInvoker struct {
	endpoint string
	http     *http.Client
	timeout  time.Duration
}

// HTTPOption configures an HTTPInvoker.
type HTTPOption func(*HTTPInvoker)

// WithHTTPTimeout sets the per-call timeout.
func WithHTTPTimeout(d time.Duration) HTTPOption {
	return func(h *HTTPInvoker) {
		h.timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(h *HTTPInvoker) {
		h.http = hc
	}
}

// NewHTTPInvoker creates an invoker for a single endpoint.
func NewHTTPInvoker(endpoint string, opts ...HTTPOption) *HTTPInvoker {
	h := &HTTPInvoker{
		endpoint: endpoint,
		http:     &http.Client{},
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Invoke performs one POST exchange.
func (h *HTTPInvoker) Invoke(ctx context.Context, req Request) Response {
	line, err := EncodeRequest(req)
	if err != nil {
		return Failed("%v", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, h.endpoint, bytes.NewReader(append(line, '\n')))
	if err != nil {
		return Failed("create request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := h.http.Do(httpReq)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return Failed("cancelled")
		case errors.Is(callCtx.Err(), context.DeadlineExceeded):
			return Failed("timeout")
		}
		return Failed("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStreamBytes))
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return Failed("timeout")
		}
		return Failed("read response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Failed("HTTP %d: %s", resp.StatusCode, truncate(string(bytes.TrimSpace(body)), maxRawInDiagnostic))
	}
	return ParseOutput(body)
}
