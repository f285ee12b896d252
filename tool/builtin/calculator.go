package builtin

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/turnwise/turnwise/internal/util"
	"github.com/turnwise/turnwise/tool"
)

type calculatorArgs struct {
	Expression string `json:"expression" description:"A mathematical expression to evaluate, e.g. '2 + 3 * 4' or 'pow(16, 0.5)'"`
}

func registerCalculator(r *tool.Registry, _ *Options) error {
	return r.Register(
		"calculator",
		"Evaluate a safe mathematical expression. Supports +, -, *, /, %, ^, parentheses, abs, round, min, max, pow. No variables or imports.",
		util.CreateSchema(calculatorArgs{}),
		func(_ context.Context, args map[string]any) (*tool.Result, error) {
			expression, _ := args["expression"].(string)
			value, err := evalExpression(expression)
			if err != nil {
				return nil, err
			}
			res := tool.Success(map[string]any{
				"expression": expression,
				"result":     value,
				"summary":    fmt.Sprintf("%s = %v", expression, formatNumber(value)),
			})
			return &res, nil
		},
	)
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// evalExpression evaluates a pure arithmetic expression. There is no
// variable binding and no I/O, so model-supplied input cannot escape the
// evaluator.
func evalExpression(input string) (float64, error) {
	p := &exprParser{src: input}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return 0, fmt.Errorf("unexpected character %q at position %d", p.src[p.pos], p.pos)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("expression result is not a finite number")
	}
	return v, nil
}

// exprParser is a tiny recursive descent parser:
//
//	expr   := term (('+'|'-') term)*
//	term   := unary (('*'|'/'|'%') unary)*
//	unary  := '-' unary | power
//	power  := primary ('^' unary)?
//	primary:= number | '(' expr ')' | ident '(' expr (',' expr)* ')'
type exprParser struct {
	src string
	pos int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case '-':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case '/':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		case '%':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("modulo by zero")
			}
			left = math.Mod(left, right)
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	if p.peek() == '-' {
		p.pos++
		v, err := p.parseUnary()
		return -v, err
	}
	return p.parsePower()
}

func (p *exprParser) parsePower() (float64, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	if p.peek() == '^' {
		p.pos++
		exp, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

func (p *exprParser) parsePrimary() (float64, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()
	case unicode.IsLetter(rune(c)):
		return p.parseCall()
	case c == 0:
		return 0, fmt.Errorf("unexpected end of expression")
	default:
		return 0, fmt.Errorf("unexpected character %q at position %d", c, p.pos)
	}
}

func (p *exprParser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' || c == '.' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		break
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.src[start:p.pos])
	}
	return v, nil
}

func (p *exprParser) parseCall() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) && unicode.IsLetter(rune(p.src[p.pos])) {
		p.pos++
	}
	name := strings.ToLower(p.src[start:p.pos])

	if p.peek() != '(' {
		return 0, fmt.Errorf("unknown token %q", name)
	}
	p.pos++

	var argv []float64
	for {
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		argv = append(argv, v)
		if p.peek() == ',' {
			p.pos++
			continue
		}
		break
	}
	if p.peek() != ')' {
		return 0, fmt.Errorf("missing closing parenthesis in call to %s", name)
	}
	p.pos++

	return applyFunc(name, argv)
}

func applyFunc(name string, argv []float64) (float64, error) {
	switch name {
	case "abs":
		if len(argv) != 1 {
			return 0, fmt.Errorf("abs expects 1 argument")
		}
		return math.Abs(argv[0]), nil
	case "round":
		if len(argv) != 1 {
			return 0, fmt.Errorf("round expects 1 argument")
		}
		return math.Round(argv[0]), nil
	case "pow":
		if len(argv) != 2 {
			return 0, fmt.Errorf("pow expects 2 arguments")
		}
		return math.Pow(argv[0], argv[1]), nil
	case "min":
		if len(argv) == 0 {
			return 0, fmt.Errorf("min expects at least 1 argument")
		}
		out := argv[0]
		for _, v := range argv[1:] {
			out = math.Min(out, v)
		}
		return out, nil
	case "max":
		if len(argv) == 0 {
			return 0, fmt.Errorf("max expects at least 1 argument")
		}
		out := argv[0]
		for _, v := range argv[1:] {
			out = math.Max(out, v)
		}
		return out, nil
	default:
		return 0, fmt.Errorf("unknown function %q", name)
	}
}
