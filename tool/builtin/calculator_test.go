package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnwise/turnwise/tool"
)

func newCalculatorRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	r := tool.NewRegistry()
	require.NoError(t, registerCalculator(r, &Options{}))
	return r
}

func TestCalculatorEvaluates(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"10 % 3", 1},
		{"2 ^ 10", 1024},
		{"-5 + 3", -2},
		{"abs(-7)", 7},
		{"round(2.6)", 3},
		{"pow(16, 0.5)", 4},
		{"min(3, 1, 2)", 1},
		{"max(3, 1, 2)", 3},
		{"1.5e2 + 0.5", 150.5},
	}

	for _, tt := range tests {
		got, err := evalExpression(tt.expr)
		require.NoError(t, err, tt.expr)
		assert.InDelta(t, tt.want, got, 1e-9, tt.expr)
	}
}

func TestCalculatorRejectsBadExpressions(t *testing.T) {
	bad := []string{
		"",
		"2 +",
		"(1 + 2",
		"1 / 0",
		"5 % 0",
		"foo(1)",
		"x + 1",
		"1 @ 2",
	}
	for _, expr := range bad {
		_, err := evalExpression(expr)
		assert.Error(t, err, expr)
	}
}

func TestCalculatorToolResult(t *testing.T) {
	r := newCalculatorRegistry(t)

	res := r.Invoke(context.Background(), "calculator", map[string]any{"expression": "6 * 7"})
	require.True(t, res.Success)

	data, ok := res.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(42), data["result"])
	assert.Equal(t, "6 * 7 = 42", data["summary"])
}

func TestCalculatorToolFailure(t *testing.T) {
	r := newCalculatorRegistry(t)

	res := r.Invoke(context.Background(), "calculator", map[string]any{"expression": "1 / 0"})
	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorText, "division by zero")
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "42", formatNumber(42))
	assert.Equal(t, "2.5", formatNumber(2.5))
	assert.Equal(t, "-3", formatNumber(-3))
}
