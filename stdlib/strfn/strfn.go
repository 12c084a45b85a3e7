// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package strfn implements the `string` standard-library family: regexp
// matching, split, contains, concat, and glob matching via `like` (§4.3).
package strfn

import (
	"context"
	"regexp"
	"strings"

	"github.com/gobwas/glob"

	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

// Package builds the `string` standard-library package.
func Package() *runtime.Package {
	pkg := runtime.NewPackage("string")
	pkg.WithFunction("regexp", &runtime.SimpleFunction{
		Input:  runtime.InputString,
		Cost:   20,
		Meta:   runtime.Metadata{Doc: "Satisfied iff the input string matches the bound regular expression pattern."},
		Params: []string{"pattern"},
		Fn:     callRegexp,
	})
	pkg.WithFunction("contains", &runtime.SimpleFunction{
		Input:  runtime.InputString,
		Cost:   runtime.OrderTrivialMax,
		Meta:   runtime.Metadata{Doc: "Satisfied iff the input string contains the bound substring."},
		Params: []string{"substring"},
		Fn:     callContains,
	})
	pkg.WithFunction("split", &runtime.SimpleFunction{
		Input:  runtime.InputString,
		Cost:   runtime.OrderTrivialMax,
		Meta:   runtime.Metadata{Doc: "Transforms the input string into a list of substrings, split on the bound separator."},
		Params: []string{"separator"},
		Fn:     callSplit,
	})
	pkg.WithFunction("concat", &runtime.SimpleFunction{
		Input:  runtime.InputString,
		Cost:   runtime.OrderTrivialMax,
		Meta:   runtime.Metadata{Doc: "Transforms the input string by appending the bound suffix."},
		Params: []string{"suffix"},
		Fn:     callConcat,
	})
	pkg.WithFunction("like", &runtime.SimpleFunction{
		Input:  runtime.InputString,
		Cost:   20,
		Meta:   runtime.Metadata{Doc: "Satisfied iff the input string matches the bound glob pattern (*, ?, [..])."},
		Params: []string{"pattern"},
		Fn:     callLike,
	})
	return pkg
}

// constString reads a literal string generic-parameter argument, e.g. the
// "foo" bound to "pattern" in `string::regexp<"foo">`.
func constString(bindings runtime.Bindings, name string) (string, bool) {
	p, ok := bindings.Get(name)
	if !ok {
		return "", false
	}
	v, ok := p.ConstValue()
	if !ok {
		return "", false
	}
	return v.String()
}

func callRegexp(_ context.Context, input *value.Value, bindings runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	s, ok := input.String()
	if !ok {
		return runtime.InvalidArgument("string::regexp requires a string input"), nil
	}
	pattern, ok := constString(bindings, "pattern")
	if !ok {
		return runtime.InvalidArgument("string::regexp requires a \"pattern\" binding"), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return runtime.InvalidArgument("string::regexp: invalid pattern %q: %v", pattern, err), nil
	}
	return runtime.Satisfied(re.MatchString(s), runtime.Identity), nil
}

func callContains(_ context.Context, input *value.Value, bindings runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	s, ok := input.String()
	if !ok {
		return runtime.InvalidArgument("string::contains requires a string input"), nil
	}
	sub, ok := constString(bindings, "substring")
	if !ok {
		return runtime.InvalidArgument("string::contains requires a \"substring\" binding"), nil
	}
	return runtime.Satisfied(strings.Contains(s, sub), runtime.Identity), nil
}

func callSplit(_ context.Context, input *value.Value, bindings runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	s, ok := input.String()
	if !ok {
		return runtime.InvalidArgument("string::split requires a string input"), nil
	}
	sep, ok := constString(bindings, "separator")
	if !ok {
		return runtime.InvalidArgument("string::split requires a \"separator\" binding"), nil
	}
	parts := strings.Split(s, sep)
	items := make([]*value.Value, len(parts))
	for i, p := range parts {
		items[i] = value.NewString(p)
	}
	return runtime.FunctionEvaluationResult{Severity: runtime.SeverityNone, Output: runtime.NewTransform(value.NewList(items))}, nil
}

func callConcat(_ context.Context, input *value.Value, bindings runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	s, ok := input.String()
	if !ok {
		return runtime.InvalidArgument("string::concat requires a string input"), nil
	}
	suffix, ok := constString(bindings, "suffix")
	if !ok {
		return runtime.InvalidArgument("string::concat requires a \"suffix\" binding"), nil
	}
	return runtime.FunctionEvaluationResult{Severity: runtime.SeverityNone, Output: runtime.NewTransform(value.NewString(s + suffix))}, nil
}

func callLike(_ context.Context, input *value.Value, bindings runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	s, ok := input.String()
	if !ok {
		return runtime.InvalidArgument("string::like requires a string input"), nil
	}
	pattern, ok := constString(bindings, "pattern")
	if !ok {
		return runtime.InvalidArgument("string::like requires a \"pattern\" binding"), nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return runtime.InvalidArgument("string::like: invalid glob %q: %v", pattern, err), nil
	}
	return runtime.Satisfied(g.Match(s), runtime.Identity), nil
}

// MatchGlob exposes the same glob-matching semantics as `string::like` to
// Go callers, without going through the Function contract.
func MatchGlob(pattern, s string) (bool, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return false, err
	}
	return g.Match(s), nil
}
