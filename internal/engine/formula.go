package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"

	"safari_quote/internal/domain"
)

// ErrFormula tags every fee formula that cannot be evaluated.
var ErrFormula = errors.New("formula evaluation failed")

type EvalError struct {
	Formula string
	Pos     int
	Msg     string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("formula %q at offset %d: %s", e.Formula, e.Pos, e.Msg)
}

func (e *EvalError) Unwrap() error { return ErrFormula }

const (
	varAdults = "adults"
	varKids   = "kids"

	feePlaces = 2
	maxDepth  = 64
)

var (
	serviceCodeRe     = regexp.MustCompile(`^[A-Z][A-Z0-9]*$`)
	serviceCodeScanRe = regexp.MustCompile(`\b[A-Z][A-Z0-9]*\b`)
)

// ServiceCodes lists the distinct service codes a formula references, in
// order of first appearance.
func ServiceCodes(formula string) []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range serviceCodeScanRe.FindAllString(formula, -1) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// MissingCodes lists referenced service codes absent from fees.
func MissingCodes(formula string, fees domain.ServiceFeeCatalog) []string {
	var out []string
	for _, c := range ServiceCodes(formula) {
		if _, ok := fees[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// EvaluateFee substitutes service fees and the adult/kid counts into formula
// and evaluates it, rounded to two decimal places. Only numbers, + - * /
// and parentheses are allowed. A service code missing from fees counts as
// zero. Any other failure returns an *EvalError.
func EvaluateFee(formula string, fees domain.ServiceFeeCatalog, adults, kids int) (decimal.Decimal, error) {
	toks, err := lex(formula)
	if err != nil {
		return decimal.Zero, err
	}
	vars := map[string]decimal.Decimal{
		varAdults: decimal.NewFromInt(int64(adults)),
		varKids:   decimal.NewFromInt(int64(kids)),
	}
	for i, t := range toks {
		if t.kind != tokIdent {
			continue
		}
		v, ok := vars[t.text]
		if !ok {
			if !serviceCodeRe.MatchString(t.text) {
				return decimal.Zero, &EvalError{Formula: formula, Pos: t.pos, Msg: "unknown identifier " + strconv.Quote(t.text)}
			}
			v = fees[t.text]
		}
		toks[i] = token{kind: tokNumber, pos: t.pos, num: v}
	}

	p := &evaluator{formula: formula, toks: toks}
	v, err := p.expr(0)
	if err != nil {
		return decimal.Zero, err
	}
	if p.peek().kind != tokEOF {
		return decimal.Zero, p.fail("unexpected " + p.peek().describe())
	}
	return v.Round(feePlaces), nil
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokNumber
	tokIdent
	tokOp
)

type token struct {
	kind tokKind
	pos  int
	text string
	num  decimal.Decimal
}

func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of formula"
	case tokNumber:
		return "number " + t.num.String()
	}
	return strconv.Quote(t.text)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func lex(formula string) ([]token, error) {
	var toks []token
	for i := 0; i < len(formula); {
		c := formula[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c) || c == '.':
			j := i
			for j < len(formula) && (isDigit(formula[j]) || formula[j] == '.') {
				j++
			}
			n, err := decimal.NewFromString(formula[i:j])
			if err != nil {
				return nil, &EvalError{Formula: formula, Pos: i, Msg: "bad number " + strconv.Quote(formula[i:j])}
			}
			toks = append(toks, token{kind: tokNumber, pos: i, text: formula[i:j], num: n})
			i = j
		case isLetter(c):
			j := i
			for j < len(formula) && (isLetter(formula[j]) || isDigit(formula[j])) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, pos: i, text: formula[i:j]})
			i = j
		case c == '+' || c == '-' || c == '*' || c == '/' || c == '(' || c == ')':
			toks = append(toks, token{kind: tokOp, pos: i, text: string(c)})
			i++
		default:
			return nil, &EvalError{Formula: formula, Pos: i, Msg: "unexpected character " + strconv.QuoteRune(rune(c))}
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(formula)}), nil
}

// evaluator is a recursive-descent parser that computes as it parses:
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = ("+" | "-") unary | primary
//	primary = number | "(" expr ")"
type evaluator struct {
	formula string
	toks    []token
	i       int
}

func (p *evaluator) peek() token { return p.toks[p.i] }

func (p *evaluator) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *evaluator) isOp(ops ...string) bool {
	t := p.peek()
	if t.kind != tokOp {
		return false
	}
	for _, o := range ops {
		if t.text == o {
			return true
		}
	}
	return false
}

func (p *evaluator) fail(msg string) error {
	return &EvalError{Formula: p.formula, Pos: p.peek().pos, Msg: msg}
}

func (p *evaluator) expr(depth int) (decimal.Decimal, error) {
	if depth > maxDepth {
		return decimal.Zero, p.fail("nesting too deep")
	}
	left, err := p.term(depth)
	if err != nil {
		return decimal.Zero, err
	}
	for p.isOp("+", "-") {
		op := p.next().text
		right, err := p.term(depth)
		if err != nil {
			return decimal.Zero, err
		}
		if op == "+" {
			left = left.Add(right)
		} else {
			left = left.Sub(right)
		}
	}
	return left, nil
}

func (p *evaluator) term(depth int) (decimal.Decimal, error) {
	left, err := p.unary(depth)
	if err != nil {
		return decimal.Zero, err
	}
	for p.isOp("*", "/") {
		op := p.next()
		right, err := p.unary(depth)
		if err != nil {
			return decimal.Zero, err
		}
		if op.text == "*" {
			left = left.Mul(right)
			continue
		}
		if right.IsZero() {
			return decimal.Zero, &EvalError{Formula: p.formula, Pos: op.pos, Msg: "division by zero"}
		}
		left = left.Div(right)
	}
	return left, nil
}

func (p *evaluator) unary(depth int) (decimal.Decimal, error) {
	if depth > maxDepth {
		return decimal.Zero, p.fail("nesting too deep")
	}
	if p.isOp("-", "+") {
		neg := p.next().text == "-"
		v, err := p.unary(depth + 1)
		if err != nil || !neg {
			return v, err
		}
		return v.Neg(), nil
	}
	return p.primary(depth)
}

func (p *evaluator) primary(depth int) (decimal.Decimal, error) {
	t := p.peek()
	switch {
	case t.kind == tokNumber:
		p.next()
		return t.num, nil
	case p.isOp("("):
		p.next()
		v, err := p.expr(depth + 1)
		if err != nil {
			return decimal.Zero, err
		}
		if !p.isOp(")") {
			return decimal.Zero, p.fail("expected ')' but found " + p.peek().describe())
		}
		p.next()
		return v, nil
	}
	return decimal.Zero, p.fail("expected a number but found " + t.describe())
}
