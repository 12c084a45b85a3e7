// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package timestampfn implements the `timestamp` standard-library family:
// RFC3339 parsing/validation atop the time package (§4.3).
package timestampfn

import (
	"context"
	"time"

	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

// Package builds the `timestamp` standard-library package.
func Package() *runtime.Package {
	pkg := runtime.NewPackage("timestamp")
	pkg.WithFunction("rfc3339", &runtime.SimpleFunction{
		Input: runtime.InputString, Cost: runtime.OrderTrivialMax,
		Meta: runtime.Metadata{Doc: "Satisfied iff the input string parses as an RFC3339 timestamp."},
		Fn:   callRFC3339,
	})
	return pkg
}

func callRFC3339(_ context.Context, input *value.Value, _ runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	s, ok := input.String()
	if !ok {
		return runtime.InvalidArgument("timestamp::rfc3339 requires a string input"), nil
	}
	_, err := time.Parse(time.RFC3339, s)
	return runtime.Satisfied(err == nil, runtime.Identity), nil
}
