// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package datafn implements the `data` standard-library family: explicit
// data-source lookup via `data::from<"path">`, the same world-attached
// data.Sources consulted implicitly by Deref evaluation (§4.4, §4.10).
package datafn

import (
	"context"

	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

// Package builds the `data` standard-library package.
func Package() *runtime.Package {
	pkg := runtime.NewPackage("data")
	pkg.WithFunction("from", &runtime.SimpleFunction{
		Input: runtime.InputString, Cost: runtime.OrderAsyncLocalMax,
		Meta:   runtime.Metadata{Doc: "Looks up the bound path against the world's attached data sources, transforming to whatever value the first matching source yields."},
		Params: []string{"path"}, Fn: callFrom,
	})
	return pkg
}

func callFrom(_ context.Context, _ *value.Value, bindings runtime.Bindings, world *runtime.World) (runtime.FunctionEvaluationResult, error) {
	pathPattern, ok := bindings.Get("path")
	if !ok {
		return runtime.InvalidArgument("data::from requires a \"path\" binding"), nil
	}
	pv, ok := pathPattern.ConstValue()
	if !ok {
		return runtime.InvalidArgument("data::from requires a literal \"path\" string"), nil
	}
	path, ok := pv.String()
	if !ok {
		return runtime.InvalidArgument("data::from requires a literal \"path\" string"), nil
	}
	v, ok, err := world.DataSources().Lookup(path)
	if err != nil {
		return runtime.FunctionEvaluationResult{}, err
	}
	if !ok {
		return runtime.FunctionEvaluationResult{
			Severity:  runtime.SeverityError,
			Output:    runtime.None,
			Rationale: &runtime.Rationale{Kind: runtime.RationaleMissingField, Message: "data source has no value for " + path},
		}, nil
	}
	return runtime.FunctionEvaluationResult{Severity: runtime.SeverityNone, Output: runtime.NewTransform(v)}, nil
}
