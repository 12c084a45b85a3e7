// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package semverfn implements the `semver` standard-library family: real
// semantic-version parsing and constraint matching via
// github.com/Masterminds/semver/v3 (§4.3 — "real version constraint
// matching, not a stub").
package semverfn

import (
	"context"

	"github.com/Masterminds/semver/v3"

	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

// Package builds the `semver` standard-library package.
func Package() *runtime.Package {
	pkg := runtime.NewPackage("semver")
	pkg.WithFunction("semver", &runtime.SimpleFunction{
		Input: runtime.InputString, Cost: 15,
		Meta: runtime.Metadata{Doc: "Satisfied iff the input string parses as a semantic version."},
		Fn:   callSemver,
	})
	pkg.WithFunction("range", &runtime.SimpleFunction{
		Input: runtime.InputString, Cost: 15,
		Meta:   runtime.Metadata{Doc: "Satisfied iff the input string, parsed as a semantic version, satisfies the bound constraint range (e.g. \">= 1.2.0, < 2.0.0\")."},
		Params: []string{"constraint"}, Fn: callRange,
	})
	return pkg
}

func callSemver(_ context.Context, input *value.Value, _ runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	s, ok := input.String()
	if !ok {
		return runtime.InvalidArgument("semver::semver requires a string input"), nil
	}
	_, err := semver.NewVersion(s)
	return runtime.Satisfied(err == nil, runtime.Identity), nil
}

func callRange(_ context.Context, input *value.Value, bindings runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	s, ok := input.String()
	if !ok {
		return runtime.InvalidArgument("semver::range requires a string input"), nil
	}
	constraintPattern, ok := bindings.Get("constraint")
	if !ok {
		return runtime.InvalidArgument("semver::range requires a \"constraint\" binding"), nil
	}
	cv, ok := constraintPattern.ConstValue()
	if !ok {
		return runtime.InvalidArgument("semver::range requires a literal \"constraint\" string"), nil
	}
	constraintStr, ok := cv.String()
	if !ok {
		return runtime.InvalidArgument("semver::range requires a literal \"constraint\" string"), nil
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return runtime.Satisfied(false, runtime.Identity), nil
	}
	c, err := semver.NewConstraint(constraintStr)
	if err != nil {
		return runtime.InvalidArgument("semver::range: invalid constraint %q: %v", constraintStr, err), nil
	}
	return runtime.Satisfied(c.Check(v), runtime.Identity), nil
}
