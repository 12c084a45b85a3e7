// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package netfn implements the `net` standard-library family:
// inet4addr/inet6addr validation atop net/netip (§4.3).
package netfn

import (
	"context"
	"net/netip"

	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

// Package builds the `net` standard-library package.
func Package() *runtime.Package {
	pkg := runtime.NewPackage("net")
	pkg.WithFunction("inet4addr", &runtime.SimpleFunction{
		Input: runtime.InputString, Cost: runtime.OrderTrivialMax,
		Meta: runtime.Metadata{Doc: "Satisfied iff the input string is a valid IPv4 address."},
		Fn:   callAddr(false),
	})
	pkg.WithFunction("inet6addr", &runtime.SimpleFunction{
		Input: runtime.InputString, Cost: runtime.OrderTrivialMax,
		Meta: runtime.Metadata{Doc: "Satisfied iff the input string is a valid IPv6 address."},
		Fn:   callAddr(true),
	})
	return pkg
}

func callAddr(wantV6 bool) runtime.SimpleCallFunc {
	return func(_ context.Context, input *value.Value, _ runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
		s, ok := input.String()
		if !ok {
			return runtime.InvalidArgument("net: address check requires a string input"), nil
		}
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return runtime.Satisfied(false, runtime.Identity), nil
		}
		ok = addr.Is4()
		if wantV6 {
			ok = addr.Is6() && !addr.Is4In6()
		}
		return runtime.Satisfied(ok, runtime.Identity), nil
	}
}
