// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package mavenfn implements the `maven` standard-library family: GAV
// (groupId:artifactId:version) coordinate validation via regexp (§4.3).
package mavenfn

import (
	"context"
	"regexp"

	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

var gavPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+:[a-zA-Z0-9_.-]+:[a-zA-Z0-9_.+-]+$`)

// Package builds the `maven` standard-library package.
func Package() *runtime.Package {
	pkg := runtime.NewPackage("maven")
	pkg.WithFunction("gav", &runtime.SimpleFunction{
		Input: runtime.InputString, Cost: runtime.OrderTrivialMax,
		Meta: runtime.Metadata{Doc: "Satisfied iff the input string is a well-formed Maven groupId:artifactId:version coordinate."},
		Fn:   callGAV,
	})
	return pkg
}

func callGAV(_ context.Context, input *value.Value, _ runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	s, ok := input.String()
	if !ok {
		return runtime.InvalidArgument("maven::gav requires a string input"), nil
	}
	return runtime.Satisfied(gavPattern.MatchString(s), runtime.Identity), nil
}
