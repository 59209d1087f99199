package tool

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_RoundTrip(t *testing.T) {
	req := Request{
		Tool: "get-price",
		Arguments: map[string]any{
			"coins":      "bitcoin",
			"currencies": "usd",
			"days":       30.0,
			"flag":       true,
			"nested":     map[string]any{"list": []any{"a", 1.5, nil}},
		},
	}

	line, err := EncodeRequest(req)
	require.NoError(t, err)
	assert.NotContains(t, string(line), "\n", "request must be a single line")

	got, err := DecodeRequest(line)
	require.NoError(t, err)
	assert.Equal(t, req.Tool, got.Tool)
	assert.Equal(t, req.Arguments, got.Arguments)
}

func TestEncodeRequest_WireShape(t *testing.T) {
	line, err := EncodeRequest(Request{Tool: "fng-current"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"toolName":"fng-current","arguments":{}}`, string(line))
}

func TestEncodeRequest_RequiresToolName(t *testing.T) {
	_, err := EncodeRequest(Request{})
	require.Error(t, err)
}

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		ok      bool
		payload string
		diag    string
	}{
		{
			name:    "envelope success",
			out:     `{"ok":true,"payload":{"value":42}}`,
			ok:      true,
			payload: `{"value":42}`,
		},
		{
			name: "envelope failure",
			out:  `{"ok":false,"diagnostic":"rate limited"}`,
			diag: "rate limited",
		},
		{
			name: "envelope failure without diagnostic",
			out:  `{"ok":false}`,
			diag: "tool reported failure",
		},
		{
			name:    "bare object becomes payload",
			out:     `{"bitcoin":{"usd":50000}}`,
			ok:      true,
			payload: `{"bitcoin":{"usd":50000}}`,
		},
		{
			name:    "non-object JSON becomes payload",
			out:     `[1,2,3]`,
			ok:      true,
			payload: `[1,2,3]`,
		},
		{
			name: "error object",
			out:  `{"error":"MCP process error","details":"missing key"}`,
			diag: "MCP process error: missing key",
		},
		{
			name:    "banner before JSON",
			out:     "starting server\n{\"ok\":true,\"payload\":1}\n",
			ok:      true,
			payload: `1`,
		},
		{
			name: "not JSON",
			out:  "hello world",
			diag: "invalid JSON response: hello world",
		},
		{
			name: "blank",
			out:  "\n\n",
			diag: "no output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ParseOutput([]byte(tt.out))
			assert.Equal(t, tt.ok, resp.OK)
			assert.Equal(t, tt.diag, resp.Diagnostic)
			if tt.payload != "" {
				assert.JSONEq(t, tt.payload, string(resp.Payload))
			}
		})
	}
}

func TestParseOutput_TruncatesRaw(t *testing.T) {
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	resp := ParseOutput(long)
	require.False(t, resp.OK)
	assert.Less(t, len(resp.Diagnostic), 400)
	assert.Contains(t, resp.Diagnostic, "...")
}

func TestParseOutput_TruncatesOnRuneBoundary(t *testing.T) {
	// "x" then two-byte runes puts a continuation byte at the cut.
	raw := "x" + strings.Repeat("é", 1000)
	resp := ParseOutput([]byte(raw))
	require.False(t, resp.OK)
	assert.True(t, utf8.ValidString(resp.Diagnostic), "diagnostic must stay valid UTF-8")
	assert.Contains(t, resp.Diagnostic, "...")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
	assert.Equal(t, "a...", truncate("aé", 2))
	assert.Equal(t, "aé...", truncate("aéz", 3))
}

func TestResponse_Helpers(t *testing.T) {
	ok := Succeeded(map[string]any{"value": 42})
	obj, has := ok.Object()
	require.True(t, has)
	assert.Equal(t, 42.0, obj["value"])
	assert.Nil(t, ok.Err("x"))

	bad := Failed("timeout")
	_, has = bad.Object()
	assert.False(t, has)
	terr := bad.Err("get-price")
	require.NotNil(t, terr)
	assert.Equal(t, "tool get-price: timeout", terr.Error())

	line, err := EncodeResponse(ok)
	require.NoError(t, err)
	var decoded Response
	require.NoError(t, json.Unmarshal(line, &decoded))
	assert.True(t, decoded.OK)
}
