package calcservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/calcmcp/calc-server-go/mcp"
	"github.com/invopop/jsonschema"
)

// ToolHandler executes a tool invocation against raw JSON arguments and
// returns the rendered text result. Errors are reported inline per call and
// never escalate to top-level JSON-RPC errors.
type ToolHandler func(ctx context.Context, arguments json.RawMessage) (string, error)

// StaticTool pairs an MCP tool descriptor with its handler.
type StaticTool struct {
	Descriptor mcp.Tool
	Handler    ToolHandler
}

// ToolOption configures NewTool behavior.
type ToolOption func(*toolConfig)

type toolConfig struct {
	description string
}

// WithToolDescription sets the tool description used in listings.
func WithToolDescription(desc string) ToolOption {
	return func(c *toolConfig) { c.description = desc }
}

// NewTool constructs a StaticTool from a typed args struct A. It:
//   - Reflects a JSON Schema from A using invopop/jsonschema
//   - Down-converts it to the simplified ToolInputSchema
//   - Wraps the handler with strict runtime JSON decoding (unknown fields
//     are rejected)
func NewTool[A any](name string, fn func(ctx context.Context, args A) (string, error), opts ...ToolOption) StaticTool {
	cfg := toolConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	desc := mcp.Tool{
		Name:        name,
		Description: cfg.description,
		InputSchema: reflectToInputSchema[A](),
	}

	handler := func(ctx context.Context, arguments json.RawMessage) (string, error) {
		var a A
		if len(arguments) > 0 {
			dec := json.NewDecoder(bytes.NewReader(arguments))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&a); err != nil {
				return "", fmt.Errorf("invalid arguments: %v", err)
			}
		}
		return fn(ctx, a)
	}

	return StaticTool{Descriptor: desc, Handler: handler}
}

// reflectToInputSchema reflects a Go type A into a jsonschema.Schema and
// converts it to the simplified mcp.ToolInputSchema.
func reflectToInputSchema[A any]() mcp.ToolInputSchema {
	r := &jsonschema.Reflector{
		DoNotReference: true, // inline defs
		ExpandedStruct: true, // put struct at root
	}
	// Reflect from a zero value pointer to capture struct tags consistently
	s := r.Reflect(new(A))

	// Only object schemas map cleanly to ToolInputSchema. If not an object,
	// expose an empty strict object.
	if s == nil || s.Type != "object" {
		return mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]mcp.SchemaProperty{},
		}
	}

	props := make(map[string]mcp.SchemaProperty)
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			props[el.Key] = toSchemaProperty(el.Value)
		}
	}
	var required []string
	if len(s.Required) > 0 {
		required = append(required, s.Required...)
	}

	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// toSchemaProperty recursively maps a jsonschema.Schema to the simplified
// SchemaProperty shape.
func toSchemaProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	p := mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}
	if s.Type == "array" && s.Items != nil {
		item := toSchemaProperty(s.Items)
		p.Items = &item
	}
	if s.Type == "object" && s.Properties != nil {
		m := make(map[string]mcp.SchemaProperty, s.Properties.Len())
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			m[el.Key] = toSchemaProperty(el.Value)
		}
		p.Properties = m
	}
	return p
}
