package tool

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxRawInDiagnostic bounds how much unparseable output is echoed back.
const maxRawInDiagnostic = 256

// EncodeRequest serializes req as one JSON line without the terminator.
func EncodeRequest(req Request) ([]byte, error) {
	if req.Tool == "" {
		return nil, errors.New("tool: request has no tool name")
	}
	if req.Arguments == nil {
		req.Arguments = map[string]any{}
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("tool: encode request: %w", err)
	}
	return data, nil
}

// DecodeRequest parses one request line.
func DecodeRequest(line []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(bytes.TrimSpace(line), &req); err != nil {
		return Request{}, fmt.Errorf("tool: decode request: %w", err)
	}
	if req.Tool == "" {
		return Request{}, errors.New("tool: request has no tool name")
	}
	return req, nil
}

// EncodeResponse serializes resp as one JSON line without the terminator.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("tool: encode response: %w", err)
	}
	return data, nil
}

// ParseOutput maps raw tool output to a Response. The first non-empty line
// that is well-formed JSON is the answer. An object carrying a boolean "ok"
// key is read as a response envelope; an object carrying only an "error"
// key is read as a failure; any other JSON value becomes the payload of a
// successful response. Output with no JSON line is a protocol failure.
func ParseOutput(out []byte) Response {
	var raw bytes.Buffer
	for _, line := range bytes.Split(out, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if json.Valid(line) {
			return parseLine(line)
		}
		if raw.Len() > 0 {
			raw.WriteByte('\n')
		}
		raw.Write(line)
	}
	if raw.Len() == 0 {
		return Failed("no output")
	}
	return Failed("invalid JSON response: %s", truncate(raw.String(), maxRawInDiagnostic))
}

func parseLine(line []byte) Response {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(line, &envelope); err != nil {
		// Not an object: the whole value is the payload.
		return Response{OK: true, Payload: append(json.RawMessage(nil), line...)}
	}

	if okRaw, has := envelope["ok"]; has {
		var ok bool
		if err := json.Unmarshal(okRaw, &ok); err == nil {
			var resp Response
			if err := json.Unmarshal(line, &resp); err != nil {
				return Failed("invalid response envelope: %v", err)
			}
			if !resp.OK && resp.Diagnostic == "" {
				resp.Diagnostic = "tool reported failure"
			}
			return resp
		}
	}

	if msg, ok := errorObject(envelope); ok {
		return Failed("%s", msg)
	}

	return Response{OK: true, Payload: append(json.RawMessage(nil), line...)}
}

// errorObject recognizes {"error": "...", "details": "..."} shaped output,
// with details optional.
func errorObject(envelope map[string]json.RawMessage) (string, bool) {
	var msg string
	if err := json.Unmarshal(envelope["error"], &msg); err != nil || msg == "" {
		return "", false
	}
	for k := range envelope {
		if k != "error" && k != "details" {
			return "", false
		}
	}
	var details string
	if raw, ok := envelope["details"]; ok && json.Unmarshal(raw, &details) == nil && details != "" {
		msg += ": " + details
	}
	return msg, true
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

func joinLines(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
