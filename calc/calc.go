// Package calc implements the arithmetic operations exposed as MCP tools.
// Operations are pure two-operand functions over float64; validation and
// error reporting happen here so every transport shares the same semantics.
package calc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrDivisionByZero is returned by Divide when the denominator is zero.
	ErrDivisionByZero = errors.New("division by zero")
)

// Op identifies one of the supported arithmetic operations.
type Op int

const (
	OpAdd Op = iota
	OpSubtract
	OpMultiply
	OpDivide
)

// String returns the tool name for the operation.
func (op Op) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSubtract:
		return "subtract"
	case OpMultiply:
		return "multiply"
	case OpDivide:
		return "divide"
	default:
		return fmt.Sprintf("calc.Op(%d)", int(op))
	}
}

// Apply executes the operation on the given operands.
func (op Op) Apply(a, b float64) (float64, error) {
	if err := ValidateOperands(a, b); err != nil {
		return 0, err
	}
	switch op {
	case OpAdd:
		return a + b, nil
	case OpSubtract:
		return a - b, nil
	case OpMultiply:
		return a * b, nil
	case OpDivide:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	default:
		return 0, fmt.Errorf("unknown operation %d", int(op))
	}
}

// ValidateOperands rejects operands that have no meaningful arithmetic
// result. NaN and infinities cannot arrive via JSON but the engine is also
// called directly.
func ValidateOperands(a, b float64) error {
	if math.IsNaN(a) || math.IsNaN(b) {
		return errors.New("inputs cannot be NaN")
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return errors.New("inputs cannot be infinite")
	}
	return nil
}

// Add returns a + b.
func Add(a, b float64) (float64, error) { return OpAdd.Apply(a, b) }

// Subtract returns a - b.
func Subtract(a, b float64) (float64, error) { return OpSubtract.Apply(a, b) }

// Multiply returns a * b.
func Multiply(a, b float64) (float64, error) { return OpMultiply.Apply(a, b) }

// Divide returns a / b, or ErrDivisionByZero when b is zero.
func Divide(a, b float64) (float64, error) { return OpDivide.Apply(a, b) }

// FormatResult renders a result using the shortest decimal representation
// that round-trips. Whole numbers render without a fractional suffix: 8 not
// 8.0, and no exponent notation is used.
func FormatResult(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
