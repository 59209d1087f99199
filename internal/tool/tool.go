// Package tool reaches external capabilities through a one-request,
// one-response JSON line protocol. Invokers never return errors: every
// spawn, transport, protocol or timeout failure is folded into a Response
// with OK set to false so stage logic can decide how to degrade.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
)

// Request is the single line written to a tool.
type Request struct {
	Tool      string         `json:"toolName"`
	Arguments map[string]any `json:"arguments"`
}

// Response is the single line read back from a tool.
type Response struct {
	OK         bool            `json:"ok"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Diagnostic string          `json:"diagnostic,omitempty"`
}

// Failed builds a failed Response.
func Failed(format string, args ...any) Response {
	return Response{Diagnostic: fmt.Sprintf(format, args...)}
}

// Succeeded builds a successful Response carrying v as payload.
func Succeeded(v any) Response {
	data, err := json.Marshal(v)
	if err != nil {
		return Failed("encode payload: %v", err)
	}
	return Response{OK: true, Payload: data}
}

// Decode unmarshals the payload into v.
func (r Response) Decode(v any) error {
	if !r.OK {
		return fmt.Errorf("tool: decode failed response: %s", r.Diagnostic)
	}
	if len(r.Payload) == 0 {
		return fmt.Errorf("tool: empty payload")
	}
	return json.Unmarshal(r.Payload, v)
}

// Object returns the payload as a decoded JSON object.
func (r Response) Object() (map[string]any, bool) {
	var obj map[string]any
	if err := r.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// Err converts a failed Response into an Error attributed to toolName. It
// returns nil for successful responses.
func (r Response) Err(toolName string) *Error {
	if r.OK {
		return nil
	}
	return &Error{Tool: toolName, Diagnostic: r.Diagnostic}
}

// Error is a tool failure surfaced by stage logic. It is recorded, never
// propagated as a Go error out of a stage.
type Error struct {
	Tool       string `json:"tool"`
	Diagnostic string `json:"diagnostic"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("tool %s: %s", e.Tool, e.Diagnostic)
}

// Invoker is the single capability stage logic uses to reach tools.
type Invoker interface {
	Invoke(ctx context.Context, req Request) Response
}

// InvokerFunc adapts an in-process function to Invoker.
type InvokerFunc func(ctx context.Context, req Request) Response

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, req Request) Response {
	return f(ctx, req)
}
