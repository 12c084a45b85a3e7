// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package jsonfn implements the `json` standard-library family: parsing a
// String into a structured Value and rendering a Value back to a JSON
// String (§4.3), built directly atop the value package's own JSON
// conversions.
package jsonfn

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

// Package builds the `json` standard-library package.
func Package() *runtime.Package {
	pkg := runtime.NewPackage("json")
	pkg.WithFunction("json", &runtime.SimpleFunction{
		Input: runtime.InputString, Cost: 15,
		Meta: runtime.Metadata{Doc: "Parses a JSON string input into its structured Value."},
		Fn:   callParse,
	})
	pkg.WithFunction("stringify", &runtime.SimpleFunction{
		Input: runtime.InputAnything, Cost: 15,
		Meta: runtime.Metadata{Doc: "Renders the input value as a compact JSON string."},
		Fn:   callStringify,
	})
	return pkg
}

func callParse(_ context.Context, input *value.Value, _ runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	s, ok := input.String()
	if !ok {
		return runtime.InvalidArgument("json::json requires a string input"), nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return runtime.Satisfied(false, runtime.None), nil
	}
	v, err := value.FromJSON(generic)
	if err != nil {
		return runtime.Satisfied(false, runtime.None), nil
	}
	return runtime.FunctionEvaluationResult{Severity: runtime.SeverityNone, Output: runtime.NewTransform(v)}, nil
}

func callStringify(_ context.Context, input *value.Value, _ runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	raw, err := json.Marshal(input.ToJSON())
	if err != nil {
		return runtime.InvalidArgument("json::stringify: %v", err), nil
	}
	return runtime.FunctionEvaluationResult{Severity: runtime.SeverityNone, Output: runtime.NewTransform(value.NewString(string(raw)))}, nil
}
