package calcservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/calcmcp/calc-server-go/calc"
	"github.com/calcmcp/calc-server-go/mcp"
)

// ServerInfo identifies this implementation in initialize responses.
var ServerInfo = mcp.ImplementationInfo{
	Name:    "calculator-mcp-server",
	Version: "1.0.0",
}

// Capabilities is the tools capability surface advertised on initialize.
var Capabilities = mcp.ServerCapabilities{
	Tools: &mcp.ToolsCapability{
		ListChanged:  true,
		ListRequired: false,
	},
}

// BinaryArgs are the arguments shared by every calculator tool. Pointers
// distinguish a missing argument from an explicit zero.
type BinaryArgs struct {
	A *float64 `json:"a" jsonschema:"description=First number"`
	B *float64 `json:"b" jsonschema:"description=Second number"`
}

// operands validates presence and unwraps the argument values.
func (args BinaryArgs) operands() (a, b float64, err error) {
	if args.A == nil {
		return 0, 0, fmt.Errorf("invalid arguments: missing required argument %q", "a")
	}
	if args.B == nil {
		return 0, 0, fmt.Errorf("invalid arguments: missing required argument %q", "b")
	}
	return *args.A, *args.B, nil
}

// binaryTool adapts a calc.Op into a StaticTool with the shared argument
// schema and result formatting.
func binaryTool(op calc.Op, description string) StaticTool {
	return NewTool[BinaryArgs](op.String(), func(ctx context.Context, args BinaryArgs) (string, error) {
		a, b, err := args.operands()
		if err != nil {
			return "", err
		}
		v, err := op.Apply(a, b)
		if err != nil {
			return "", err
		}
		return calc.FormatResult(v), nil
	}, WithToolDescription(description))
}

// NewCalculatorToolSet builds the fixed calculator tool table. Declaration
// order here is the order tools/list reports.
func NewCalculatorToolSet(log *slog.Logger) *ToolSet {
	return NewToolSet(log,
		binaryTool(calc.OpAdd, "Add two numbers"),
		binaryTool(calc.OpSubtract, "Subtract second number from first"),
		binaryTool(calc.OpMultiply, "Multiply two numbers"),
		binaryTool(calc.OpDivide, "Divide first number by second"),
	)
}
