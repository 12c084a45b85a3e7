// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package base64fn implements the `base64` standard-library family:
// encode/decode between String and Octets (§4.3).
package base64fn

import (
	"context"
	"encoding/base64"

	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

// Package builds the `base64` standard-library package.
func Package() *runtime.Package {
	pkg := runtime.NewPackage("base64")
	pkg.WithFunction("base64", &runtime.SimpleFunction{
		Input: runtime.InputString, Cost: runtime.OrderTrivialMax,
		Meta: runtime.Metadata{Doc: "Decodes a standard base64 string into Octets."},
		Fn:   callDecode,
	})
	pkg.WithFunction("base64-encode", &runtime.SimpleFunction{
		Input: runtime.InputAnything, Cost: runtime.OrderTrivialMax,
		Meta: runtime.Metadata{Doc: "Encodes the input Octets as a standard base64 String."},
		Fn:   callEncode,
	})
	return pkg
}

func callDecode(_ context.Context, input *value.Value, _ runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	s, ok := input.String()
	if !ok {
		return runtime.InvalidArgument("base64::base64 requires a string input"), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return runtime.Satisfied(false, runtime.None), nil
	}
	return runtime.FunctionEvaluationResult{Severity: runtime.SeverityNone, Output: runtime.NewTransform(value.NewOctets(decoded))}, nil
}

func callEncode(_ context.Context, input *value.Value, _ runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	b, ok := input.Octets()
	if !ok {
		return runtime.InvalidArgument("base64::base64-encode requires an octets input"), nil
	}
	return runtime.FunctionEvaluationResult{Severity: runtime.SeverityNone, Output: runtime.NewTransform(value.NewString(base64.StdEncoding.EncodeToString(b)))}, nil
}
