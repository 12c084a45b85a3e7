// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package runtime

// RationaleKind tags Rationale's variants (§4.7).
type RationaleKind int

const (
	RationaleAnything RationaleKind = iota
	RationaleNothing
	RationaleNotAnObject
	RationaleNotAList
	RationaleMissingField
	RationaleInvalidArgument
	RationaleConst
	RationalePrimordial
	RationaleExpression
	RationaleObject
	RationaleList
	RationaleChain
	RationaleFunction
	RationaleBound
	RationaleAnd
	RationaleOr
	RationaleNot
)

// FieldRationale is one (name, optional child result) entry of an
// Object rationale (§4.7). Absent-and-optional fields have Result == nil.
type FieldRationale struct {
	Name   string
	Result *EvaluationResult
}

// Rationale is the structured explanation attached to every
// EvaluationResult (§4.7). Exactly the fields relevant to Kind are set.
type Rationale struct {
	Kind RationaleKind

	// MissingField / InvalidArgument
	Message string

	// Const / Primordial / Expression
	Bool bool

	// Object
	ObjectFields []FieldRationale

	// List / Chain
	Children []*EvaluationResult

	// Function
	FunctionSeverity  Severity
	FunctionRationale *Rationale
	Supporting        []*EvaluationResult

	// Bound
	Inner    *Rationale
	Bindings Bindings
}

// Satisfied computes satisfaction as a pure function of the rationale's
// shape, without re-evaluating (§4.7). severity is the threshold below
// which a node counts as satisfied — almost always SeverityError, but the
// Collector accepts an override (§4.8).
func (r *Rationale) Satisfied(threshold Severity) bool {
	if r == nil {
		return true
	}
	switch r.Kind {
	case RationaleAnything:
		return true
	case RationaleNothing, RationaleNotAnObject, RationaleNotAList, RationaleMissingField, RationaleInvalidArgument:
		return SeverityError < threshold
	case RationaleConst, RationalePrimordial, RationaleExpression:
		if r.Bool {
			return true
		}
		return SeverityError < threshold
	case RationaleObject:
		for _, f := range r.ObjectFields {
			if f.Result != nil && !f.Result.Satisfied(threshold) {
				return false
			}
		}
		return true
	case RationaleList, RationaleChain:
		for _, c := range r.Children {
			if !c.Satisfied(threshold) {
				return false
			}
		}
		return true
	case RationaleFunction:
		return r.FunctionSeverity < threshold
	case RationaleBound:
		return r.Inner.Satisfied(threshold)
	case RationaleAnd, RationaleOr, RationaleNot:
		return r.Severity() < threshold
	default:
		return false
	}
}

// Severity derives the node's own severity from its shape, independent of
// the EvaluationResult that wraps it (used when composing parent severity
// from raw rationale, e.g. inside Object/List construction).
func (r *Rationale) Severity() Severity {
	if r == nil {
		return SeverityNone
	}
	switch r.Kind {
	case RationaleAnything:
		return SeverityNone
	case RationaleNothing, RationaleNotAnObject, RationaleNotAList, RationaleMissingField, RationaleInvalidArgument:
		return SeverityError
	case RationaleConst, RationalePrimordial, RationaleExpression:
		if r.Bool {
			return SeverityNone
		}
		return SeverityError
	case RationaleObject:
		sev := SeverityNone
		for _, f := range r.ObjectFields {
			if f.Result != nil {
				sev = MaxSeverity(sev, f.Result.Severity)
			}
		}
		return sev
	case RationaleList, RationaleChain:
		sev := SeverityNone
		for _, c := range r.Children {
			sev = MaxSeverity(sev, c.Severity)
		}
		return sev
	case RationaleFunction:
		return r.FunctionSeverity
	case RationaleBound:
		return r.Inner.Severity()
	case RationaleAnd:
		sev := SeverityNone
		for _, c := range r.Children {
			sev = MaxSeverity(sev, c.Severity)
		}
		return sev
	case RationaleOr:
		// §9 Open Question (a): Or's severity is the minimum across its
		// children, so a Warning disjunct beats an Error one even when
		// neither is the first satisfied.
		if len(r.Children) == 0 {
			return SeverityError
		}
		sev := r.Children[0].Severity
		for _, c := range r.Children[1:] {
			sev = MinSeverity(sev, c.Severity)
		}
		return sev
	case RationaleNot:
		if r.Inner.Satisfied(SeverityError) {
			return SeverityError
		}
		return SeverityNone
	default:
		return SeverityError
	}
}

// DefaultReason computes the rationale-kind-derived reason string
// (§4.8), carried over verbatim from the upstream engine's
// runtime/response/mod.rs wording so downstream consumers see identical
// text.
func (r *Rationale) DefaultReason() string {
	switch r.Kind {
	case RationaleAnything:
		return "Anything is satisfied by any input"
	case RationaleNothing:
		return "Nothing is satisfied by no input"
	case RationaleNotAnObject:
		return "The input is not an object"
	case RationaleNotAList:
		return "The input is not a list"
	case RationaleMissingField:
		return "The input is missing a required field: " + r.Message
	case RationaleInvalidArgument:
		return "invalid argument: " + r.Message
	case RationaleConst:
		if r.Bool {
			return "The input matches the constant value expected in the pattern"
		}
		return "The input does not match the constant value expected in the pattern"
	case RationalePrimordial:
		if r.Bool {
			return "The primordial type defined in the pattern is satisfied"
		}
		return "The primordial type defined in the pattern is not satisfied"
	case RationaleExpression:
		if r.Bool {
			return "The expression was satisfied"
		}
		return "The expression was not satisfied"
	case RationaleObject:
		if r.Satisfied(SeverityError) {
			return "Because all fields were satisfied"
		}
		return "Because not all fields were satisfied"
	case RationaleList:
		if r.Satisfied(SeverityError) {
			return "Because all elements were satisfied"
		}
		return "Because not all elements were satisfied"
	case RationaleChain:
		if r.Satisfied(SeverityError) {
			return "Because the chain was satisfied"
		}
		return "Because the chain was not satisfied"
	case RationaleFunction:
		if r.FunctionRationale != nil {
			return r.FunctionRationale.DefaultReason()
		}
		if r.FunctionSeverity.Satisfied() {
			return "The input satisfies the function"
		}
		return "The input does not satisfy the function"
	case RationaleBound:
		return r.Inner.DefaultReason()
	case RationaleAnd:
		if r.Satisfied(SeverityError) {
			return "Because all of the patterns were satisfied"
		}
		return "Because not all of the patterns were satisfied"
	case RationaleOr:
		if r.Satisfied(SeverityError) {
			return "Because at least one of the patterns was satisfied"
		}
		return "Because none of the patterns were satisfied"
	case RationaleNot:
		if r.Satisfied(SeverityError) {
			return "Because the negated pattern was not satisfied"
		}
		return "Because the negated pattern was satisfied"
	default:
		return ""
	}
}
