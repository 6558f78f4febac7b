package calc

import (
	"errors"
	"math"
	"testing"
)

func TestAdd(t *testing.T) {
	cases := []struct {
		name string
		a, b float64
		want float64
	}{
		{"positive", 5, 3, 8},
		{"negative", -5, -3, -8},
		{"mixed", 5, -3, 2},
		{"zero", 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Add(tc.a, tc.b)
			if err != nil {
				t.Fatalf("Add(%v, %v): %v", tc.a, tc.b, err)
			}
			if got != tc.want {
				t.Fatalf("Add(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestSubtract(t *testing.T) {
	got, err := Subtract(10, 4)
	if err != nil {
		t.Fatalf("Subtract: %v", err)
	}
	if got != 6 {
		t.Fatalf("Subtract(10, 4) = %v, want 6", got)
	}
}

func TestMultiply(t *testing.T) {
	got, err := Multiply(6, 7)
	if err != nil {
		t.Fatalf("Multiply: %v", err)
	}
	if got != 42 {
		t.Fatalf("Multiply(6, 7) = %v, want 42", got)
	}

	got, err = Multiply(5, 0)
	if err != nil {
		t.Fatalf("Multiply: %v", err)
	}
	if got != 0 {
		t.Fatalf("Multiply(5, 0) = %v, want 0", got)
	}
}

func TestDivide(t *testing.T) {
	got, err := Divide(15, 3)
	if err != nil {
		t.Fatalf("Divide: %v", err)
	}
	if got != 5 {
		t.Fatalf("Divide(15, 3) = %v, want 5", got)
	}
}

func TestDivideByZero(t *testing.T) {
	_, err := Divide(5, 0)
	if !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("Divide(5, 0) err = %v, want ErrDivisionByZero", err)
	}
}

func TestValidateOperandsRejectsNonFinite(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if err := ValidateOperands(bad, 1); err == nil {
			t.Fatalf("ValidateOperands(%v, 1): expected error", bad)
		}
		if err := ValidateOperands(1, bad); err == nil {
			t.Fatalf("ValidateOperands(1, %v): expected error", bad)
		}
	}
	if err := ValidateOperands(1, 2); err != nil {
		t.Fatalf("ValidateOperands(1, 2): %v", err)
	}
}

func TestCommutativity(t *testing.T) {
	pairs := [][2]float64{{1, 2}, {-4, 9}, {0.5, 0.25}, {1e6, -3}}
	for _, p := range pairs {
		ab, _ := Add(p[0], p[1])
		ba, _ := Add(p[1], p[0])
		if ab != ba {
			t.Fatalf("Add not commutative for %v: %v != %v", p, ab, ba)
		}
		mab, _ := Multiply(p[0], p[1])
		mba, _ := Multiply(p[1], p[0])
		if mab != mba {
			t.Fatalf("Multiply not commutative for %v: %v != %v", p, mab, mba)
		}
	}
}

func TestIdentityOperands(t *testing.T) {
	for _, a := range []float64{0, 1, -7, 3.25, 1e9} {
		if got, _ := Subtract(a, 0); got != a {
			t.Fatalf("Subtract(%v, 0) = %v", a, got)
		}
		if got, _ := Divide(a, 1); got != a {
			t.Fatalf("Divide(%v, 1) = %v", a, got)
		}
	}
}

func TestDivideMultiplyRoundTrip(t *testing.T) {
	pairs := [][2]float64{{10, 3}, {-42, 7}, {1, 8}, {123.456, 0.5}}
	for _, p := range pairs {
		q, err := Divide(p[0], p[1])
		if err != nil {
			t.Fatalf("Divide(%v, %v): %v", p[0], p[1], err)
		}
		back, err := Multiply(q, p[1])
		if err != nil {
			t.Fatalf("Multiply(%v, %v): %v", q, p[1], err)
		}
		if math.Abs(back-p[0]) > 1e-9*math.Max(1, math.Abs(p[0])) {
			t.Fatalf("divide/multiply round trip for %v: got %v", p, back)
		}
	}
}

func TestFormatResult(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{8, "8"},
		{6, "6"},
		{-3, "-3"},
		{0, "0"},
		{2.5, "2.5"},
		{1000000, "1000000"},
		{10.0 / 3.0, "3.3333333333333335"},
	}
	for _, tc := range cases {
		if got := FormatResult(tc.in); got != tc.want {
			t.Fatalf("FormatResult(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestOpString(t *testing.T) {
	want := map[Op]string{OpAdd: "add", OpSubtract: "subtract", OpMultiply: "multiply", OpDivide: "divide"}
	for op, name := range want {
		if op.String() != name {
			t.Fatalf("Op(%d).String() = %q, want %q", int(op), op.String(), name)
		}
	}
}
