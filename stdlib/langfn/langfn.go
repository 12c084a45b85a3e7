// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package langfn provides explicit, callable equivalents of the Ref
// sugar forms (§4.3, §4.4): `lang::and`, `lang::or`, `lang::not`. Surface
// syntax like `A && B` desugars directly in the evaluator (the Ref-sugar
// cases of runtime.Pattern.Evaluate) without routing through this package,
// but Dogma authors can also name these patterns directly (`lang::and<A,
// B>`), so the standard library carries real bodies for them. n-ary
// `A && B && C` nests two binary applications rather than needing a
// variadic function, matching how the grammar's `ty ("&&" ty)*` repetition
// associates.
package langfn

import (
	"context"

	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

// Package builds the `lang` standard-library package.
func Package() *runtime.Package {
	pkg := runtime.NewPackage("lang")
	pkg.WithFunction("and", &runtime.SimpleFunction{
		Input:  runtime.InputAnything,
		Cost:   runtime.OrderTrivialMax,
		Meta:   runtime.Metadata{Doc: "Satisfied iff both bound patterns are satisfied against the input."},
		Params: []string{"left", "right"},
		Fn:     binaryCombinator(false),
	})
	pkg.WithFunction("or", &runtime.SimpleFunction{
		Input:  runtime.InputAnything,
		Cost:   runtime.OrderTrivialMax,
		Meta:   runtime.Metadata{Doc: "Satisfied iff at least one bound pattern is satisfied against the input."},
		Params: []string{"left", "right"},
		Fn:     binaryCombinator(true),
	})
	pkg.WithFunction("not", &runtime.SimpleFunction{
		Input:  runtime.InputAnything,
		Cost:   runtime.OrderTrivialMax,
		Meta:   runtime.Metadata{Doc: "Inverts the satisfaction of the bound pattern."},
		Params: []string{"pattern"},
		Fn:     callNot,
	})
	return pkg
}

func binaryCombinator(isOr bool) runtime.SimpleCallFunc {
	return func(ctx context.Context, input *value.Value, bindings runtime.Bindings, world *runtime.World) (runtime.FunctionEvaluationResult, error) {
		left, ok := bindings.Get("left")
		if !ok {
			return runtime.InvalidArgument("lang::and/or requires a \"left\" binding"), nil
		}
		right, ok := bindings.Get("right")
		if !ok {
			return runtime.InvalidArgument("lang::and/or requires a \"right\" binding"), nil
		}
		econtext := runtime.ContextFromFunction(ctx)
		lr, err := left.Evaluate(econtext, world, input, runtime.EmptyScope())
		if err != nil {
			return runtime.FunctionEvaluationResult{}, err
		}
		if isOr && lr.IsSatisfied() {
			return runtime.FunctionEvaluationResult{Severity: lr.Severity, Output: runtime.Identity, Supporting: []*runtime.EvaluationResult{lr}}, nil
		}
		rr, err := right.Evaluate(econtext, world, input, runtime.EmptyScope())
		if err != nil {
			return runtime.FunctionEvaluationResult{}, err
		}
		sev := runtime.MaxSeverity(lr.Severity, rr.Severity)
		if isOr {
			sev = runtime.MinSeverity(lr.Severity, rr.Severity)
		}
		return runtime.FunctionEvaluationResult{Severity: sev, Output: runtime.Identity, Supporting: []*runtime.EvaluationResult{lr, rr}}, nil
	}
}

func callNot(ctx context.Context, input *value.Value, bindings runtime.Bindings, world *runtime.World) (runtime.FunctionEvaluationResult, error) {
	p, ok := bindings.Get("pattern")
	if !ok {
		return runtime.InvalidArgument("lang::not requires a \"pattern\" binding"), nil
	}
	econtext := runtime.ContextFromFunction(ctx)
	result, err := p.Evaluate(econtext, world, input, runtime.EmptyScope())
	if err != nil {
		return runtime.FunctionEvaluationResult{}, err
	}
	sev := runtime.SeverityError
	if !result.IsSatisfied() {
		sev = runtime.SeverityNone
	}
	return runtime.FunctionEvaluationResult{Severity: sev, Output: runtime.Identity, Supporting: []*runtime.EvaluationResult{result}}, nil
}
