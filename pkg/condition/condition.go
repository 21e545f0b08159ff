// Package condition implements the single-operator expression language used
// by condition tasks and conditional connections.
//
// Grammar:
//
//	expression = "${" identifier "}" operator literal
//	operator   = "==" | "contains" | ">"
//	literal    = quoted string | bare token
//
// Exactly one variable reference appears on the left; boolean composition
// (AND/OR) is not part of the language.
package condition

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Operator is a recognized comparison token.
type Operator string

const (
	OpEquals      Operator = "=="
	OpContains    Operator = "contains"
	OpGreaterThan Operator = ">"
)

// successSentinel is the literal that triggers the domain-aware shortcut on
// status-style variables.
const successSentinel = "success"

var (
	// ErrEmptyExpression indicates a blank condition string.
	ErrEmptyExpression = errors.New("empty condition expression")

	// ErrMalformedExpression indicates the expression does not follow the
	// variable-operator-literal grammar.
	ErrMalformedExpression = errors.New("malformed condition expression")
)

// Expr is the parsed form of a condition expression.
type Expr struct {
	Variable string
	Op       Operator
	Literal  string
}

// Parse tokenizes an expression into its AST. The literal is scanned after
// the operator token, so literals containing operator text do not confuse
// the parser.
func Parse(expression string) (*Expr, error) {
	trimmed := strings.TrimSpace(expression)
	if trimmed == "" {
		return nil, ErrEmptyExpression
	}

	if !strings.HasPrefix(trimmed, "${") {
		return nil, fmt.Errorf("%w: expected ${variable} reference in %q", ErrMalformedExpression, expression)
	}

	closing := strings.Index(trimmed, "}")
	if closing < 0 {
		return nil, fmt.Errorf("%w: unterminated variable reference in %q", ErrMalformedExpression, expression)
	}

	variable := strings.TrimSpace(trimmed[2:closing])
	if variable == "" {
		return nil, fmt.Errorf("%w: empty variable name in %q", ErrMalformedExpression, expression)
	}

	rest := strings.TrimSpace(trimmed[closing+1:])

	var op Operator

	switch {
	case strings.HasPrefix(rest, string(OpEquals)):
		op = OpEquals
		rest = rest[len(OpEquals):]
	case strings.HasPrefix(rest, string(OpContains)):
		op = OpContains
		rest = rest[len(OpContains):]
	case strings.HasPrefix(rest, string(OpGreaterThan)):
		op = OpGreaterThan
		rest = rest[len(OpGreaterThan):]
	default:
		return nil, fmt.Errorf("%w: no operator in %q", ErrMalformedExpression, expression)
	}

	literal := strings.TrimSpace(rest)
	if unquoted, err := strconv.Unquote(literal); err == nil {
		literal = unquoted
	}

	return &Expr{Variable: variable, Op: op, Literal: literal}, nil
}

// StatusJudge is the classifier capability the evaluator delegates to for
// the domain-aware equality shortcut.
type StatusJudge interface {
	JudgeStatusVariable(name, rawText string) bool
}

// Variables is the read surface the evaluator needs from an execution's
// variable context. A missing variable resolves to the empty string.
type Variables interface {
	VariableString(name string) string
}

// Evaluator evaluates parsed expressions against a variable context.
type Evaluator struct {
	judge          StatusJudge
	statusVariable func(name string) bool
}

// NewEvaluator creates an evaluator. judge may be nil, in which case the
// domain shortcut is disabled and equality is always a literal compare.
func NewEvaluator(judge StatusJudge, statusVariable func(name string) bool) *Evaluator {
	return &Evaluator{judge: judge, statusVariable: statusVariable}
}

// Evaluate parses and evaluates an expression. A missing variable is an
// empty value, not an error; an unparseable numeric comparison is false.
func (e *Evaluator) Evaluate(expression string, vars Variables) (bool, error) {
	expr, err := Parse(expression)
	if err != nil {
		return false, err
	}

	return e.EvaluateExpr(expr, vars), nil
}

// EvaluateExpr evaluates an already-parsed expression.
func (e *Evaluator) EvaluateExpr(expr *Expr, vars Variables) bool {
	value := vars.VariableString(expr.Variable)

	switch expr.Op {
	case OpEquals:
		if e.judge != nil && e.statusVariable != nil &&
			e.statusVariable(expr.Variable) && strings.EqualFold(expr.Literal, successSentinel) {
			return e.judge.JudgeStatusVariable(expr.Variable, value)
		}

		return value == expr.Literal
	case OpContains:
		return strings.Contains(strings.ToLower(value), strings.ToLower(expr.Literal))
	case OpGreaterThan:
		left, errLeft := strconv.ParseFloat(strings.TrimSpace(value), 64)
		right, errRight := strconv.ParseFloat(expr.Literal, 64)

		// Fails closed on unparseable operands.
		if errLeft != nil || errRight != nil {
			return false
		}

		return left > right
	default:
		return false
	}
}
