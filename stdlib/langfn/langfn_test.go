// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package langfn

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedwing/policy-engine/data"
	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

func constPattern(v *value.Value) *runtime.Pattern {
	return runtime.NewPattern(nil, runtime.Metadata{}, nil, nil, runtime.Const(v))
}

func boundFunction(fn runtime.SimpleCallFunc, params []string, args ...*runtime.Pattern) *runtime.Pattern {
	body := runtime.NewPattern(nil, runtime.Metadata{}, nil, nil, runtime.PrimordialFn(&runtime.SimpleFunction{
		Input: runtime.InputAnything, Params: params, Fn: fn,
	}))
	bindings := runtime.NewBindings(params, args)
	return runtime.NewPattern(nil, runtime.Metadata{}, nil, nil, runtime.Bound(body, bindings))
}

func TestLangAnd(t *testing.T) {
	w := runtime.NewWorld(nil, nil, runtime.TraceConfig{}, nil, data.NewConfig(nil), runtime.NewRegistry())
	input := value.NewInteger(42)
	ctx := runtime.NewEvalContext(context.Background(), nil)

	both := boundFunction(binaryCombinator(false), []string{"left", "right"},
		constPattern(value.NewInteger(42)), runtime.NewPattern(nil, runtime.Metadata{}, nil, nil, runtime.Anything()))
	result, err := both.Evaluate(ctx, w, input, runtime.EmptyScope())
	require.NoError(t, err)
	assert.True(t, result.IsSatisfied())

	oneFails := boundFunction(binaryCombinator(false), []string{"left", "right"},
		constPattern(value.NewInteger(42)), constPattern(value.NewInteger(13)))
	result, err = oneFails.Evaluate(ctx, w, input, runtime.EmptyScope())
	require.NoError(t, err)
	assert.False(t, result.IsSatisfied())
}

func TestLangOrShortCircuits(t *testing.T) {
	w := runtime.NewWorld(nil, nil, runtime.TraceConfig{}, nil, data.NewConfig(nil), runtime.NewRegistry())
	input := value.NewInteger(42)
	ctx := runtime.NewEvalContext(context.Background(), nil)

	or := boundFunction(binaryCombinator(true), []string{"left", "right"},
		constPattern(value.NewInteger(42)), constPattern(value.NewInteger(13)))
	result, err := or.Evaluate(ctx, w, input, runtime.EmptyScope())
	require.NoError(t, err)
	assert.True(t, result.IsSatisfied())
	// left alone satisfies, so right is never evaluated: Supporting only
	// carries the left result.
	require.Len(t, result.Rationale.Inner.Supporting, 1)

	neither := boundFunction(binaryCombinator(true), []string{"left", "right"},
		constPattern(value.NewInteger(1)), constPattern(value.NewInteger(2)))
	result, err = neither.Evaluate(ctx, w, input, runtime.EmptyScope())
	require.NoError(t, err)
	assert.False(t, result.IsSatisfied())
}

func TestLangNot(t *testing.T) {
	w := runtime.NewWorld(nil, nil, runtime.TraceConfig{}, nil, data.NewConfig(nil), runtime.NewRegistry())
	ctx := runtime.NewEvalContext(context.Background(), nil)

	not := boundFunction(callNot, []string{"pattern"}, constPattern(value.NewInteger(42)))
	result, err := not.Evaluate(ctx, w, value.NewInteger(13), runtime.EmptyScope())
	require.NoError(t, err)
	assert.True(t, result.IsSatisfied())

	result, err = not.Evaluate(ctx, w, value.NewInteger(42), runtime.EmptyScope())
	require.NoError(t, err)
	assert.False(t, result.IsSatisfied())
}

// lang::not bound to a pattern that recurses back through the same slot
// must continue the ambient depth counter across callNot's recursive
// Pattern.Evaluate call, tripping the depth guard rather than
// stack-overflowing on a fresh, zero-depth context (§4.10, §8 property 8) —
// the regression test for the runtime.ContextFromFunction wiring in
// callNot.
func TestLangNotDepthGuardSurvivesRecursion(t *testing.T) {
	fnBody := runtime.NewPattern(nil, runtime.Metadata{}, nil, nil, runtime.PrimordialFn(&runtime.SimpleFunction{
		Input: runtime.InputAnything, Params: []string{"pattern"}, Fn: callNot,
	}))

	slots := make([]*runtime.Pattern, 1)
	selfRef := runtime.NewPattern(nil, runtime.Metadata{}, nil, nil, runtime.PlainRef(0, runtime.Bindings{}))
	bindings := runtime.NewBindings([]string{"pattern"}, []*runtime.Pattern{selfRef})
	slots[0] = runtime.NewPattern(nil, runtime.Metadata{}, nil, nil, runtime.Bound(fnBody, bindings))

	w := runtime.NewWorld(slots, map[string]int{"cycle": 0}, runtime.TraceConfig{}, nil, data.NewConfig(nil), runtime.NewRegistry())

	ctx := runtime.NewEvalContext(context.Background(), nil).WithMaxDepth(30)
	_, err := slots[0].Evaluate(ctx, w, value.NewInteger(1), runtime.EmptyScope())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recursion depth")
}
