// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package debugfn implements the `debug` standard-library family: a
// `delay<ms>` function exercising the network/disk order bucket (§4.5) by
// sleeping for the bound duration. The sleep runs inside go-retry's Do,
// but its callback never returns a retryable error, so it runs exactly
// once; a cancelled context ends the sleep early with the context's error
// rather than blocking past its deadline.
package debugfn

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

// Package builds the `debug` standard-library package.
func Package() *runtime.Package {
	pkg := runtime.NewPackage("debug")
	pkg.WithFunction("delay", &runtime.SimpleFunction{
		Input: runtime.InputAnything, Cost: runtime.OrderNetworkMax,
		Meta:   runtime.Metadata{Doc: "Sleeps for the bound number of milliseconds, then is trivially satisfied. For exercising timeouts and tracing in test policies."},
		Params: []string{"ms"}, Fn: callDelay,
	})
	return pkg
}

func callDelay(ctx context.Context, _ *value.Value, bindings runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	msPattern, ok := bindings.Get("ms")
	if !ok {
		return runtime.InvalidArgument("debug::delay requires an \"ms\" binding"), nil
	}
	mv, ok := msPattern.ConstValue()
	if !ok {
		return runtime.InvalidArgument("debug::delay requires a literal \"ms\" integer"), nil
	}
	ms, ok := mv.Integer()
	if !ok {
		return runtime.InvalidArgument("debug::delay requires a literal \"ms\" integer"), nil
	}

	remaining := time.Duration(ms) * time.Millisecond
	backoff := retry.WithMaxRetries(1, retry.NewConstant(remaining))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		select {
		case <-time.After(remaining):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}); err != nil {
		return runtime.FunctionEvaluationResult{}, err
	}
	return runtime.Satisfied(true, runtime.Identity), nil
}
