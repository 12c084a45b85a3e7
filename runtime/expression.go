// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package runtime

import (
	"fmt"

	"github.com/seedwing/policy-engine/value"
)

// ExprKind tags Expression's variants (§3: "Self | Value(v) | Function(name,
// e) | +|−|·|/ | <|≤|>|≥|=|≠ | ¬ | ∧ | ∨").
type ExprKind int

const (
	ExprSelf ExprKind = iota
	ExprLiteral
	ExprFunction
	ExprAdd
	ExprSub
	ExprMul
	ExprDiv
	ExprLt
	ExprLe
	ExprGt
	ExprGe
	ExprEq
	ExprNe
	ExprNot
	ExprAnd
	ExprOr
)

// Expression is the LIR's pure, synchronous predicate tree (§3, §4.6),
// built by HIR/MIR lowering from a dsl.Expression.
type Expression struct {
	Kind ExprKind

	Literal *value.Value

	FunctionName string
	Args         []*Expression

	Left  *Expression
	Right *Expression

	Operand *Expression // unary Not
}

// ExprFunc is a scalar function usable inside `$(...)` expressions via
// `Function(name, e)` (§4.6).
type ExprFunc func(args []*value.Value) (*value.Value, error)

var exprFunctions = map[string]ExprFunc{
	"length": exprLength,
}

// RegisterExprFunction adds or overrides a scalar expression function. The
// standard library's `length` is registered by default; embedders may
// extend the registry for their own `$(...)` helpers.
func RegisterExprFunction(name string, fn ExprFunc) {
	exprFunctions[name] = fn
}

func exprLength(args []*value.Value) (*value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("length: expected 1 argument, got %d", len(args))
	}
	switch args[0].Kind() {
	case value.KindString:
		s, _ := args[0].String()
		return value.NewInteger(int64(len(s))), nil
	case value.KindList:
		l, _ := args[0].List()
		return value.NewInteger(int64(len(l))), nil
	case value.KindOctets:
		o, _ := args[0].Octets()
		return value.NewInteger(int64(len(o))), nil
	case value.KindObject:
		o, _ := args[0].Object()
		return value.NewInteger(int64(o.Len())), nil
	default:
		return nil, fmt.Errorf("length: unsupported input kind %s", args[0].Kind())
	}
}

// exprError is returned by Expression.Evaluate to signal an
// authoring-mistake (division by zero, mixed-type comparison, unknown
// function) — the evaluator turns this into a Severity-Error
// RationaleInvalidArgument result, never a RuntimeError (§4.4's Expr case;
// §9 Open Question (c)).
type exprError struct{ msg string }

func (e *exprError) Error() string { return e.msg }

func invalidExpr(format string, args ...any) error {
	return &exprError{msg: fmt.Sprintf(format, args...)}
}

// Evaluate computes e against self, the value bound to `self` within the
// enclosing pattern (§4.6). The error returned is always an *exprError;
// callers translate it to a policy-failure rationale rather than
// propagating it as a RuntimeError.
func (e *Expression) Evaluate(self *value.Value) (*value.Value, error) {
	switch e.Kind {
	case ExprSelf:
		return self, nil
	case ExprLiteral:
		return e.Literal, nil
	case ExprFunction:
		fn, ok := exprFunctions[e.FunctionName]
		if !ok {
			return nil, invalidExpr("unknown expression function %q", e.FunctionName)
		}
		args := make([]*value.Value, len(e.Args))
		for i, a := range e.Args {
			v, err := a.Evaluate(self)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		r, err := fn(args)
		if err != nil {
			return nil, invalidExpr("%s", err.Error())
		}
		return r, nil
	case ExprNot:
		v, err := e.Operand.Evaluate(self)
		if err != nil {
			return nil, err
		}
		b, ok := v.Boolean()
		if !ok {
			return nil, invalidExpr("! requires a boolean operand")
		}
		return value.NewBoolean(!b), nil
	case ExprAnd, ExprOr:
		l, err := e.Left.Evaluate(self)
		if err != nil {
			return nil, err
		}
		r, err := e.Right.Evaluate(self)
		if err != nil {
			return nil, err
		}
		lb, lok := l.Boolean()
		rb, rok := r.Boolean()
		if !lok || !rok {
			return nil, invalidExpr("%s requires boolean operands", exprOpSymbol(e.Kind))
		}
		if e.Kind == ExprAnd {
			return value.NewBoolean(lb && rb), nil
		}
		return value.NewBoolean(lb || rb), nil
	case ExprAdd, ExprSub, ExprMul, ExprDiv:
		return e.evalArithmetic(self)
	case ExprLt, ExprLe, ExprGt, ExprGe:
		return e.evalRelational(self)
	case ExprEq, ExprNe:
		return e.evalEquality(self)
	default:
		return nil, invalidExpr("unknown expression kind %d", e.Kind)
	}
}

func exprOpSymbol(k ExprKind) string {
	switch k {
	case ExprAnd:
		return "&&"
	case ExprOr:
		return "||"
	default:
		return "?"
	}
}

// evalArithmetic implements +|−|·|/, promoting Integer to Decimal when
// operands' kinds differ (§3: "integer promotes to decimal").
func (e *Expression) evalArithmetic(self *value.Value) (*value.Value, error) {
	l, err := e.Left.Evaluate(self)
	if err != nil {
		return nil, err
	}
	r, err := e.Right.Evaluate(self)
	if err != nil {
		return nil, err
	}
	lf, lok := l.AsNumber()
	rf, rok := r.AsNumber()
	if !lok || !rok {
		return nil, invalidExpr("arithmetic requires numeric operands")
	}

	bothInteger := l.Kind() == value.KindInteger && r.Kind() == value.KindInteger
	switch e.Kind {
	case ExprAdd:
		if bothInteger {
			li, _ := l.Integer()
			ri, _ := r.Integer()
			return value.NewInteger(li + ri), nil
		}
		return value.NewDecimal(lf + rf), nil
	case ExprSub:
		if bothInteger {
			li, _ := l.Integer()
			ri, _ := r.Integer()
			return value.NewInteger(li - ri), nil
		}
		return value.NewDecimal(lf - rf), nil
	case ExprMul:
		if bothInteger {
			li, _ := l.Integer()
			ri, _ := r.Integer()
			return value.NewInteger(li * ri), nil
		}
		return value.NewDecimal(lf * rf), nil
	case ExprDiv:
		if rf == 0 {
			// §9 Open Question (c): division by zero is InvalidArgument.
			return nil, invalidExpr("division by zero")
		}
		if bothInteger {
			li, _ := l.Integer()
			ri, _ := r.Integer()
			if li%ri == 0 {
				return value.NewInteger(li / ri), nil
			}
		}
		return value.NewDecimal(lf / rf), nil
	default:
		return nil, invalidExpr("not an arithmetic operator")
	}
}

// evalRelational implements <|≤|>|≥. Per §3, only numeric operands
// interconvert (integer promotes to decimal); string/boolean/null compare
// only for equality, so a relational comparison on them is a mixed-type
// authoring mistake.
func (e *Expression) evalRelational(self *value.Value) (*value.Value, error) {
	l, err := e.Left.Evaluate(self)
	if err != nil {
		return nil, err
	}
	r, err := e.Right.Evaluate(self)
	if err != nil {
		return nil, err
	}
	lf, lok := l.AsNumber()
	rf, rok := r.AsNumber()
	if !lok || !rok {
		return nil, invalidExpr("relational comparison requires numeric operands")
	}
	var result bool
	switch e.Kind {
	case ExprLt:
		result = lf < rf
	case ExprLe:
		result = lf <= rf
	case ExprGt:
		result = lf > rf
	case ExprGe:
		result = lf >= rf
	}
	return value.NewBoolean(result), nil
}

// evalEquality implements =|≠, which (unlike relational comparisons) is
// defined for every value kind via structural equality (§3).
func (e *Expression) evalEquality(self *value.Value) (*value.Value, error) {
	l, err := e.Left.Evaluate(self)
	if err != nil {
		return nil, err
	}
	r, err := e.Right.Evaluate(self)
	if err != nil {
		return nil, err
	}
	eq := l.Equal(r)
	if e.Kind == ExprNe {
		eq = !eq
	}
	return value.NewBoolean(eq), nil
}
