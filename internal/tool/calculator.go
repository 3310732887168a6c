package tool

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"toolchat/internal/domain"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
)

// calcFuncs is the complete set of identifiers an expression may use.
var calcFuncs = map[string]func(...float64) (float64, error){
	"sin":  unary(math.Sin),
	"cos":  unary(math.Cos),
	"tan":  unary(math.Tan),
	"sqrt": unary(math.Sqrt),
	"abs":  unary(math.Abs),
	"log": func(a ...float64) (float64, error) {
		switch len(a) {
		case 1:
			return math.Log(a[0]), nil
		case 2:
			return math.Log(a[0]) / math.Log(a[1]), nil
		}
		return 0, fmt.Errorf("log takes 1 or 2 arguments, got %d", len(a))
	},
	"pow": func(a ...float64) (float64, error) {
		if len(a) != 2 {
			return 0, fmt.Errorf("pow takes 2 arguments, got %d", len(a))
		}
		return math.Pow(a[0], a[1]), nil
	},
}

var calcConsts = map[string]any{
	"pi": math.Pi,
	"e":  math.E,
}

// floatLiterals rewrites integer literals to floats so arithmetic never
// wraps around in int.
type floatLiterals struct{}

func (floatLiterals) Visit(node *ast.Node) {
	if n, ok := (*node).(*ast.IntegerNode); ok {
		ast.Patch(node, &ast.FloatNode{Value: float64(n.Value)})
	}
}

func unary(f func(float64) float64) func(...float64) (float64, error) {
	return func(a ...float64) (float64, error) {
		if len(a) != 1 {
			return 0, fmt.Errorf("function takes 1 argument, got %d", len(a))
		}
		return f(a[0]), nil
	}
}

// CalculatorTool evaluates arithmetic over a restricted grammar: digits,
// + - * / ( ) ^ . , whitespace and the identifiers in calcFuncs/calcConsts.
// Anything else is rejected before evaluation.
type CalculatorTool struct {
	options []expr.Option
}

func NewCalculatorTool() *CalculatorTool {
	opts := []expr.Option{expr.Env(calcConsts), expr.Patch(floatLiterals{})}
	for name, fn := range calcFuncs {
		fn := fn
		opts = append(opts, expr.Function(name, func(params ...any) (any, error) {
			args := make([]float64, len(params))
			for i, p := range params {
				f, err := toFloat(p)
				if err != nil {
					return nil, err
				}
				args[i] = f
			}
			return fn(args...)
		}))
	}
	return &CalculatorTool{options: opts}
}

func (t *CalculatorTool) Name() string { return "calculator" }
func (t *CalculatorTool) Description() string {
	return "Evaluate a math expression (+ - * / ^, parentheses, sin cos tan sqrt log abs pow, pi e). Args: expression"
}
func (t *CalculatorTool) Parameters() map[string]any {
	return ToolParameters(
		map[string]Param{
			"expression": {Type: "string", Description: "Arithmetic expression, e.g. 2*(3+4)^2"},
		},
		[]string{"expression"},
	)
}

func (t *CalculatorTool) Execute(ctx context.Context, args map[string]string) (string, error) {
	expression, err := requireArg(args, "expression")
	if err != nil {
		return "", err
	}
	if err := checkExpression(expression); err != nil {
		return "", err
	}

	normalized := strings.ReplaceAll(expression, "^", "**")
	program, err := expr.Compile(normalized, t.options...)
	if err != nil {
		return "", fmt.Errorf("invalid expression: %w", err)
	}
	out, err := expr.Run(program, calcConsts)
	if err != nil {
		return "", fmt.Errorf("evaluate: %w", err)
	}
	value, err := toFloat(out)
	if err != nil {
		return "", err
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return "", fmt.Errorf("result is not a finite number")
	}
	return fmt.Sprintf("%s = %s", expression, formatNumber(value)), nil
}

// checkExpression enforces the character and identifier whitelist.
func checkExpression(s string) error {
	var bad []string
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case unicode.IsDigit(r) && r < unicode.MaxASCII, unicode.IsSpace(r):
		case strings.ContainsRune("+-*/()^.,", r):
		case r >= 'a' && r <= 'z':
			j := i
			for j < len(runes) && runes[j] >= 'a' && runes[j] <= 'z' {
				j++
			}
			word := string(runes[i:j])
			_, isFunc := calcFuncs[word]
			_, isConst := calcConsts[word]
			if !isFunc && !isConst {
				bad = append(bad, word)
			}
			i = j - 1
		default:
			bad = append(bad, string(r))
		}
	}
	if len(bad) > 0 {
		return domain.Rejected("disallowed characters in expression: %s", strings.Join(bad, " "))
	}
	return nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	}
	return 0, fmt.Errorf("non-numeric value %v", v)
}

// formatNumber prints integral values without a fractional part.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', 12, 64)
}

var _ domain.Tool = (*CalculatorTool)(nil)
