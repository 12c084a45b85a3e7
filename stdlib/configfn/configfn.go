// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package configfn implements the `config` standard-library family:
// `config::of<"key">` lookup against the world's per-evaluation
// configuration map (§4.10).
package configfn

import (
	"context"

	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

// Package builds the `config` standard-library package.
func Package() *runtime.Package {
	pkg := runtime.NewPackage("config")
	pkg.WithFunction("of", &runtime.SimpleFunction{
		Input: runtime.InputAnything, Cost: runtime.OrderTrivialMax,
		Meta:   runtime.Metadata{Doc: "Transforms to the configuration value bound under the given key, or fails if the key is unconfigured."},
		Params: []string{"key"}, Fn: callOf,
	})
	return pkg
}

func callOf(_ context.Context, _ *value.Value, bindings runtime.Bindings, world *runtime.World) (runtime.FunctionEvaluationResult, error) {
	keyPattern, ok := bindings.Get("key")
	if !ok {
		return runtime.InvalidArgument("config::of requires a \"key\" binding"), nil
	}
	kv, ok := keyPattern.ConstValue()
	if !ok {
		return runtime.InvalidArgument("config::of requires a literal \"key\" string"), nil
	}
	key, ok := kv.String()
	if !ok {
		return runtime.InvalidArgument("config::of requires a literal \"key\" string"), nil
	}
	v, ok := world.Config().Get(key)
	if !ok {
		return runtime.FunctionEvaluationResult{
			Severity:  runtime.SeverityError,
			Output:    runtime.None,
			Rationale: &runtime.Rationale{Kind: runtime.RationaleMissingField, Message: "configuration has no value for " + key},
		}, nil
	}
	return runtime.FunctionEvaluationResult{Severity: runtime.SeverityNone, Output: runtime.NewTransform(v)}, nil
}
