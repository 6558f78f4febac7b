package calcservice

import (
	"context"
	"errors"
	"log/slog"

	"github.com/calcmcp/calc-server-go/internal/logctx"
	"github.com/calcmcp/calc-server-go/mcp"
)

// ErrUnknownTool is reported inline for invocations naming a tool that is
// not in the table.
var ErrUnknownTool = errors.New("unknown tool")

// ToolSet is an immutable, ordered collection of tools. It is built once at
// process start and read concurrently without locking thereafter.
type ToolSet struct {
	tools    []mcp.Tool
	handlers map[string]ToolHandler
	log      *slog.Logger
}

// NewToolSet constructs a ToolSet from the given tool definitions. Listing
// order follows definition order; duplicate names keep the first definition.
func NewToolSet(log *slog.Logger, defs ...StaticTool) *ToolSet {
	if log == nil {
		log = slog.Default()
	}
	ts := &ToolSet{
		tools:    make([]mcp.Tool, 0, len(defs)),
		handlers: make(map[string]ToolHandler, len(defs)),
		log:      log,
	}
	for _, d := range defs {
		if _, exists := ts.handlers[d.Descriptor.Name]; exists {
			continue
		}
		ts.tools = append(ts.tools, d.Descriptor)
		if d.Handler != nil {
			ts.handlers[d.Descriptor.Name] = d.Handler
		}
	}
	return ts
}

// Descriptors returns a copy of the tool descriptors in declaration order.
func (ts *ToolSet) Descriptors() []mcp.Tool {
	out := make([]mcp.Tool, len(ts.tools))
	copy(out, ts.tools)
	return out
}

// Call dispatches a single invocation and returns its inline result entry.
func (ts *ToolSet) Call(ctx context.Context, spec mcp.ToolCallSpec) mcp.CallResultEntry {
	ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: spec.Name})

	h, ok := ts.handlers[spec.Name]
	if !ok {
		ts.log.WarnContext(ctx, "tool call for unknown tool")
		return mcp.CallResultEntry{Name: spec.Name, Error: ErrUnknownTool.Error()}
	}

	text, err := h(ctx, spec.Arguments)
	if err != nil {
		ts.log.InfoContext(ctx, "tool call failed", slog.String("err", err.Error()))
		return mcp.CallResultEntry{Name: spec.Name, Error: err.Error()}
	}

	ts.log.DebugContext(ctx, "tool call succeeded", slog.String("result", text))
	return mcp.CallResultEntry{
		Name:    spec.Name,
		Content: []mcp.ContentBlock{{Type: "text", Text: text}},
	}
}

// CallBatch evaluates every invocation in order. Individual failures are
// captured per entry; the batch itself always succeeds.
func (ts *ToolSet) CallBatch(ctx context.Context, specs []mcp.ToolCallSpec) *mcp.CallToolResult {
	res := &mcp.CallToolResult{Content: make([]mcp.CallResultEntry, 0, len(specs))}
	for _, spec := range specs {
		res.Content = append(res.Content, ts.Call(ctx, spec))
	}
	return res
}
