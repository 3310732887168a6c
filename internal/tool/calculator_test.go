package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	"toolchat/internal/domain"
)

func TestCalculator_Evaluates(t *testing.T) {
	calc := NewCalculatorTool()
	tests := []struct {
		expr string
		want string
	}{
		{"2+2", "= 4"},
		{"2 * (3 + 4)", "= 14"},
		{"2^10", "= 1024"},
		{"7/2", "= 3.5"},
		{"sqrt(16) + abs(-2)", "= 6"},
		{"pow(2, 3)", "= 8"},
		{"cos(0)", "= 1"},
	}
	for _, tt := range tests {
		out, err := calc.Execute(context.Background(), map[string]string{"expression": tt.expr})
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.expr, err)
			continue
		}
		if !strings.Contains(out, tt.want) {
			t.Errorf("%s: expected %q in %q", tt.expr, tt.want, out)
		}
	}
}

func TestCalculator_LargeIntegersDoNotWrap(t *testing.T) {
	calc := NewCalculatorTool()
	tests := []struct {
		expr string
		want string
	}{
		{"99999999999 * 99999999999", "= 9.9999999998e+21"},
		{"9223372036854775807 + 1", "= 9.22337203685e+18"},
		{"2^62 * 4", "= 1.84467440737e+19"},
	}
	for _, tt := range tests {
		out, err := calc.Execute(context.Background(), map[string]string{"expression": tt.expr})
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.expr, err)
			continue
		}
		if !strings.HasSuffix(out, tt.want) {
			t.Errorf("%s: expected suffix %q, got %q", tt.expr, tt.want, out)
		}
	}
}

func TestCalculator_RejectsDisallowedCharacters(t *testing.T) {
	calc := NewCalculatorTool()
	for _, in := range []string{"2+2; import os", "2*pi > 6", "__import__('os')", "len('abc')", "2 % 3"} {
		_, err := calc.Execute(context.Background(), map[string]string{"expression": in})
		if !errors.Is(err, domain.ErrInputRejected) {
			t.Errorf("%q: expected input_rejected, got %v", in, err)
			continue
		}
		if !strings.Contains(err.Error(), "disallowed characters") {
			t.Errorf("%q: expected disallowed characters message, got %v", in, err)
		}
	}
}

func TestCalculator_ThroughRegistry(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.Register(NewCalculatorTool())

	ok := reg.Invoke(context.Background(), "calculator", map[string]string{"expression": "2+2"})
	if ok.Failed() || !strings.Contains(ok.Result, "4") {
		t.Fatalf("expected result containing 4, got %+v", ok)
	}
	bad := reg.Invoke(context.Background(), "calculator", map[string]string{"expression": "1/0"})
	if !bad.Failed() {
		t.Fatalf("division by zero should fail, got %q", bad.Result)
	}
}
