package mcp

import "encoding/json"

// Method is an MCP method identifier used in JSON-RPC messages.
type Method string

// MCP method names and notifications.
const (
	// Initialization
	InitializeMethod              Method = "initialize"
	InitializedNotificationMethod Method = "notifications/initialized"

	// Tools
	ToolsListMethod Method = "tools/list"
	ToolsCallMethod Method = "tools/call"

	// General
	PingMethod Method = "ping"
)

// InitializeRequest starts the MCP initialization handshake.
type InitializeRequest struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      ImplementationInfo `json:"clientInfo"`
}

// InitializeResult returns negotiated capabilities and server info.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ImplementationInfo `json:"serverInfo"`
}

// InitializedNotification signals that initialization completed.
type InitializedNotification struct{}

// PingRequest is a no-op request used to test connectivity.
type PingRequest struct{}

// ListToolsRequest requests the set of available tools.
type ListToolsRequest struct{}

// ListToolsResult returns the available tools in declaration order.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// ToolCallSpec is a single invocation within a tools/call batch.
type ToolCallSpec struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CallToolParams carries the invocation batch for tools/call. Clients that
// follow the batched dialect send Calls; some send a single invocation
// directly in params instead, so both shapes are accepted and normalized by
// Invocations. Calls is a pointer so an empty list is distinguishable from
// an absent key: an empty batch is a valid request that evaluates nothing.
type CallToolParams struct {
	Calls *[]ToolCallSpec `json:"calls"`

	// Direct single-call form.
	Name      string          `json:"name,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Invocations normalizes the params into an ordered invocation list. The
// second return value is false only when the params carry no invocation list
// at all, which callers must answer with an Invalid Params error. A present
// empty list returns an empty slice and true.
func (p *CallToolParams) Invocations() ([]ToolCallSpec, bool) {
	if p.Calls != nil {
		return *p.Calls, true
	}
	if p.Name != "" {
		return []ToolCallSpec{{Name: p.Name, Arguments: p.Arguments}}, true
	}
	return nil, false
}

// CallResultEntry is the per-invocation outcome inside a tools/call result.
// Exactly one of Content or Error is populated: tool-level failures are
// reported inline rather than as top-level JSON-RPC errors.
type CallResultEntry struct {
	Name    string         `json:"name"`
	Content []ContentBlock `json:"content,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// CallToolResult is the tools/call result. Entries appear in the same order
// as the invocation specs; the result is a success even when individual
// entries failed.
type CallToolResult struct {
	Content []CallResultEntry `json:"content"`
}

// EmptyResult is returned for operations that do not return data.
type EmptyResult struct{}
