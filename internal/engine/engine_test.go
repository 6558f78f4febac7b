package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"testing"

	"github.com/calcmcp/calc-server-go/calcservice"
	"github.com/calcmcp/calc-server-go/internal/jsonrpc"
	"github.com/calcmcp/calc-server-go/mcp"
)

func newTestEngine(t *testing.T) (*Engine, *LocalSession) {
	t.Helper()
	log := slog.Default()
	return New(calcservice.NewCalculatorToolSet(log), log), &LocalSession{}
}

func handle(t *testing.T, e *Engine, sess Session, raw string) *jsonrpc.Response {
	t.Helper()
	return e.HandleMessage(context.Background(), sess, []byte(raw))
}

func decodeResult[T any](t *testing.T, resp *jsonrpc.Response) T {
	t.Helper()
	if resp == nil {
		t.Fatal("expected a response")
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error response: %+v", resp.Error)
	}
	var v T
	if err := json.Unmarshal(resp.Result, &v); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return v
}

func TestInitializeHandshake(t *testing.T) {
	e, sess := newTestEngine(t)
	resp := handle(t, e, sess, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"0.1.0"}}}`)
	res := decodeResult[mcp.InitializeResult](t, resp)

	if res.ProtocolVersion != "2024-11-05" {
		t.Fatalf("protocolVersion = %q", res.ProtocolVersion)
	}
	if res.ServerInfo.Name != "calculator-mcp-server" {
		t.Fatalf("serverInfo.name = %q", res.ServerInfo.Name)
	}
	if res.Capabilities.Tools == nil || !res.Capabilities.Tools.ListChanged {
		t.Fatalf("capabilities = %+v", res.Capabilities)
	}
	if !sess.Initialized() {
		t.Fatal("session not marked initialized")
	}
}

func TestInitializeEchoesClientProtocolVersion(t *testing.T) {
	e, sess := newTestEngine(t)
	resp := handle(t, e, sess, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-06-18"}}`)
	res := decodeResult[mcp.InitializeResult](t, resp)
	if res.ProtocolVersion != "2025-06-18" {
		t.Fatalf("protocolVersion = %q, want echo of client version", res.ProtocolVersion)
	}
}

func TestInitializeDefaultsProtocolVersion(t *testing.T) {
	e, sess := newTestEngine(t)
	resp := handle(t, e, sess, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	res := decodeResult[mcp.InitializeResult](t, resp)
	if res.ProtocolVersion != mcp.DefaultProtocolVersion {
		t.Fatalf("protocolVersion = %q, want default", res.ProtocolVersion)
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	e, sess := newTestEngine(t)
	first := decodeResult[mcp.InitializeResult](t, handle(t, e, sess, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`))
	second := decodeResult[mcp.InitializeResult](t, handle(t, e, sess, `{"jsonrpc":"2.0","id":2,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("re-initialize diverged: %+v != %+v", first, second)
	}
	if !sess.Initialized() {
		t.Fatal("session lost initialized state")
	}
}

func TestInitializedNotificationGetsNoResponse(t *testing.T) {
	e, sess := newTestEngine(t)
	if resp := handle(t, e, sess, `{"jsonrpc":"2.0","method":"notifications/initialized"}`); resp != nil {
		t.Fatalf("notification answered: %+v", resp)
	}
}

func TestToolsListServedBeforeInitialize(t *testing.T) {
	// Gating is permissive: clients that skip the handshake still get the
	// tool table.
	e, sess := newTestEngine(t)
	res := decodeResult[mcp.ListToolsResult](t, handle(t, e, sess, `{"jsonrpc":"2.0","id":7,"method":"tools/list"}`))
	if len(res.Tools) != 4 {
		t.Fatalf("got %d tools, want 4", len(res.Tools))
	}
	if res.Tools[0].Name != "add" || res.Tools[3].Name != "divide" {
		t.Fatalf("tool order = %v", res.Tools)
	}
}

func TestToolsCallScenario(t *testing.T) {
	e, sess := newTestEngine(t)
	resp := handle(t, e, sess, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"calls":[{"name":"add","arguments":{"a":5,"b":3}}]}}`)

	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	var want map[string]any
	wantRaw := `{"jsonrpc":"2.0","id":1,"result":{"content":[{"name":"add","content":[{"type":"text","text":"8"}]}]}}`
	if err := json.Unmarshal([]byte(wantRaw), &want); err != nil {
		t.Fatalf("unmarshal want: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("wire shape mismatch:\n got: %s\nwant: %s", b, wantRaw)
	}
}

func TestToolsCallMixedBatch(t *testing.T) {
	e, sess := newTestEngine(t)
	resp := handle(t, e, sess, `{"jsonrpc":"2.0","id":9,"method":"tools/call","params":{"calls":[{"name":"add","arguments":{"a":5,"b":3}},{"name":"divide","arguments":{"a":1,"b":0}}]}}`)
	res := decodeResult[mcp.CallToolResult](t, resp)
	if len(res.Content) != 2 {
		t.Fatalf("got %d entries, want 2", len(res.Content))
	}
	if res.Content[0].Content[0].Text != "8" {
		t.Fatalf("entry 0 = %+v", res.Content[0])
	}
	if res.Content[1].Error == "" {
		t.Fatalf("entry 1 should carry an inline error: %+v", res.Content[1])
	}
}

func TestToolsCallDirectSingleForm(t *testing.T) {
	e, sess := newTestEngine(t)
	resp := handle(t, e, sess, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"multiply","arguments":{"a":6,"b":7}}}`)
	res := decodeResult[mcp.CallToolResult](t, resp)
	if len(res.Content) != 1 || res.Content[0].Content[0].Text != "42" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestToolsCallEmptyBatchIsEmptySuccess(t *testing.T) {
	// An explicit empty calls list is a valid request that evaluates
	// nothing; only a missing invocation list is an error.
	e, sess := newTestEngine(t)
	resp := handle(t, e, sess, `{"jsonrpc":"2.0","id":8,"method":"tools/call","params":{"calls":[]}}`)
	if resp == nil || resp.Error != nil {
		t.Fatalf("empty batch rejected: %+v", resp)
	}
	var got map[string]any
	if err := json.Unmarshal(resp.Result, &got); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	content, ok := got["content"].([]any)
	if !ok {
		t.Fatalf("result missing content array: %s", resp.Result)
	}
	if len(content) != 0 {
		t.Fatalf("content = %v, want empty", content)
	}
}

func TestToolsCallWithoutInvocationsIsInvalidParams(t *testing.T) {
	e, sess := newTestEngine(t)
	resp := handle(t, e, sess, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{}}`)
	if resp == nil || resp.Error == nil {
		t.Fatal("expected a top-level error")
	}
	if resp.Error.Code != jsonrpc.ErrorCodeInvalidParams {
		t.Fatalf("code = %d, want %d", resp.Error.Code, jsonrpc.ErrorCodeInvalidParams)
	}
}

func TestUnknownMethod(t *testing.T) {
	e, sess := newTestEngine(t)
	resp := handle(t, e, sess, `{"jsonrpc":"2.0","id":42,"method":"resources/list"}`)
	if resp == nil || resp.Error == nil {
		t.Fatal("expected an error response")
	}
	if resp.Error.Code != jsonrpc.ErrorCodeMethodNotFound {
		t.Fatalf("code = %d, want %d", resp.Error.Code, jsonrpc.ErrorCodeMethodNotFound)
	}
	b, _ := json.Marshal(resp)
	var decoded struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil || decoded.ID != 42 {
		t.Fatalf("id not preserved: %s", b)
	}
}

func TestParseErrorHasNullID(t *testing.T) {
	e, sess := newTestEngine(t)
	resp := handle(t, e, sess, `{"jsonrpc":"2.0","id":1,`)
	if resp == nil || resp.Error == nil {
		t.Fatal("expected an error response")
	}
	if resp.Error.Code != jsonrpc.ErrorCodeParseError {
		t.Fatalf("code = %d, want %d", resp.Error.Code, jsonrpc.ErrorCodeParseError)
	}
	b, _ := json.Marshal(resp)
	var decoded map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := decoded["id"]; !ok || v != nil {
		t.Fatalf("id = %v, want null", v)
	}
}

func TestNonObjectDocumentIsInvalidRequest(t *testing.T) {
	// Well-formed JSON that is not a request object is structurally
	// invalid, not unparseable: -32600 with a null id.
	e, sess := newTestEngine(t)
	for _, raw := range []string{`[1,2,3]`, `123`, `"ping"`, `true`} {
		resp := handle(t, e, sess, raw)
		if resp == nil || resp.Error == nil {
			t.Fatalf("%s: expected an error response", raw)
		}
		if resp.Error.Code != jsonrpc.ErrorCodeInvalidRequest {
			t.Fatalf("%s: code = %d, want %d", raw, resp.Error.Code, jsonrpc.ErrorCodeInvalidRequest)
		}
		b, _ := json.Marshal(resp)
		var decoded map[string]any
		if err := json.Unmarshal(b, &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if v, ok := decoded["id"]; !ok || v != nil {
			t.Fatalf("%s: id = %v, want null", raw, v)
		}
	}
}

func TestInvalidRequestVersion(t *testing.T) {
	e, sess := newTestEngine(t)
	resp := handle(t, e, sess, `{"jsonrpc":"1.0","id":5,"method":"tools/list"}`)
	if resp == nil || resp.Error == nil {
		t.Fatal("expected an error response")
	}
	if resp.Error.Code != jsonrpc.ErrorCodeInvalidRequest {
		t.Fatalf("code = %d, want %d", resp.Error.Code, jsonrpc.ErrorCodeInvalidRequest)
	}
}

func TestPing(t *testing.T) {
	e, sess := newTestEngine(t)
	resp := handle(t, e, sess, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	if resp == nil || resp.Error != nil {
		t.Fatalf("ping failed: %+v", resp)
	}
}
