// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package pemfn implements the `pem` standard-library family: PEM block
// parsing atop encoding/pem (§4.3).
package pemfn

import (
	"context"
	"encoding/pem"

	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

// Package builds the `pem` standard-library package.
func Package() *runtime.Package {
	pkg := runtime.NewPackage("pem")
	pkg.WithFunction("pem", &runtime.SimpleFunction{
		Input: runtime.InputAnything, Cost: 15,
		Meta: runtime.Metadata{Doc: "Decodes a PEM-encoded Octets or String input into its first block's Octets payload."},
		Fn:   callDecode,
	})
	return pkg
}

func callDecode(_ context.Context, input *value.Value, _ runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	raw, ok := rawBytes(input)
	if !ok {
		return runtime.InvalidArgument("pem::pem requires a string or octets input"), nil
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return runtime.Satisfied(false, runtime.None), nil
	}
	return runtime.FunctionEvaluationResult{Severity: runtime.SeverityNone, Output: runtime.NewTransform(value.NewOctets(block.Bytes))}, nil
}

func rawBytes(v *value.Value) ([]byte, bool) {
	if s, ok := v.String(); ok {
		return []byte(s), true
	}
	return v.Octets()
}
