// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package listfn

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedwing/policy-engine/data"
	"github.com/seedwing/policy-engine/monitor"
	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

func constPattern(v *value.Value) *runtime.Pattern {
	return runtime.NewPattern(nil, runtime.Metadata{}, nil, nil, runtime.Const(v))
}

func boundFunction(fn runtime.SimpleCallFunc, paramName string, param *runtime.Pattern) *runtime.Pattern {
	body := runtime.NewPattern(nil, runtime.Metadata{}, nil, nil, runtime.PrimordialFn(&runtime.SimpleFunction{
		Input: runtime.InputPattern, Params: []string{paramName}, Fn: fn,
	}))
	bindings := runtime.NewBindings([]string{paramName}, []*runtime.Pattern{param})
	return runtime.NewPattern(nil, runtime.Metadata{}, nil, nil, runtime.Bound(body, bindings))
}

func TestListAny(t *testing.T) {
	w := runtime.NewWorld(nil, nil, runtime.TraceConfig{}, nil, data.NewConfig(nil), runtime.NewRegistry())
	input := value.NewList([]*value.Value{value.NewInteger(1), value.NewInteger(42)})

	p := boundFunction(callAny, "pattern", constPattern(value.NewInteger(42)))
	ctx := runtime.NewEvalContext(context.Background(), nil)
	result, err := p.Evaluate(ctx, w, input, runtime.EmptyScope())
	require.NoError(t, err)
	assert.True(t, result.IsSatisfied())

	p = boundFunction(callAny, "pattern", constPattern(value.NewInteger(7)))
	result, err = p.Evaluate(ctx, w, input, runtime.EmptyScope())
	require.NoError(t, err)
	assert.False(t, result.IsSatisfied())
}

func TestListContainsAll(t *testing.T) {
	w := runtime.NewWorld(nil, nil, runtime.TraceConfig{}, nil, data.NewConfig(nil), runtime.NewRegistry())
	input := value.NewList([]*value.Value{value.NewInteger(1), value.NewInteger(2), value.NewInteger(3)})

	wanted := runtime.NewPattern(nil, runtime.Metadata{}, nil, nil, runtime.List([]*runtime.Pattern{
		constPattern(value.NewInteger(1)),
		constPattern(value.NewInteger(3)),
	}))
	p := boundFunction(callContainsAll, "patterns", wanted)
	ctx := runtime.NewEvalContext(context.Background(), nil)
	result, err := p.Evaluate(ctx, w, input, runtime.EmptyScope())
	require.NoError(t, err)
	assert.True(t, result.IsSatisfied())

	missing := runtime.NewPattern(nil, runtime.Metadata{}, nil, nil, runtime.List([]*runtime.Pattern{
		constPattern(value.NewInteger(1)),
		constPattern(value.NewInteger(9)),
	}))
	p = boundFunction(callContainsAll, "patterns", missing)
	result, err = p.Evaluate(ctx, w, input, runtime.EmptyScope())
	require.NoError(t, err)
	assert.False(t, result.IsSatisfied())
}

// A list::any bound to a pattern that recurses back into the same slot must
// continue the ambient depth counter through evalEach's recursive
// Pattern.Evaluate call, tripping the depth guard (§4.10, §8 property 8)
// rather than reconstructing a fresh, zero-depth EvalContext and stack-
// overflowing. This is the regression test for the
// runtime.ContextFromFunction wiring in evalEach.
func TestListAnyDepthGuardSurvivesRecursion(t *testing.T) {
	fnBody := runtime.NewPattern(nil, runtime.Metadata{}, nil, nil, runtime.PrimordialFn(&runtime.SimpleFunction{
		Input: runtime.InputPattern, Params: []string{"pattern"}, Fn: callAny,
	}))

	slots := make([]*runtime.Pattern, 1)
	selfRef := runtime.NewPattern(nil, runtime.Metadata{}, nil, nil, runtime.PlainRef(0, runtime.Bindings{}))
	bindings := runtime.NewBindings([]string{"pattern"}, []*runtime.Pattern{selfRef})
	slots[0] = runtime.NewPattern(nil, runtime.Metadata{}, nil, nil, runtime.Bound(fnBody, bindings))

	w := runtime.NewWorld(slots, map[string]int{"cycle": 0}, runtime.TraceConfig{}, nil, data.NewConfig(nil), runtime.NewRegistry())
	input := value.NewList([]*value.Value{value.NewInteger(1)})

	ctx := runtime.NewEvalContext(context.Background(), nil).WithMaxDepth(30)
	_, err := slots[0].Evaluate(ctx, w, input, runtime.EmptyScope())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recursion depth")
}

// The monitor attached to the outer evaluation must be visible to the
// nested Pattern.Evaluate call list::any makes against each element,
// proving evalEach recovers the real EvalContext (monitor included) rather
// than dropping it, as runtime.ContextFromFunction's fallback would if the
// exported context were never wired through the Function boundary.
func TestListAnyPropagatesMonitor(t *testing.T) {
	mon := monitor.New()
	events, unsubscribe := mon.Subscribe("", 16)
	defer unsubscribe()

	w := runtime.NewWorld(nil, nil, runtime.TraceConfig{Enabled: true}, nil, data.NewConfig(nil), runtime.NewRegistry())
	input := value.NewList([]*value.Value{value.NewInteger(42)})
	p := boundFunction(callAny, "pattern", constPattern(value.NewInteger(42)))

	ctx := runtime.NewEvalContext(context.Background(), mon)
	result, err := p.Evaluate(ctx, w, input, runtime.EmptyScope())
	require.NoError(t, err)
	assert.True(t, result.IsSatisfied())

	matching := 0
	for {
		select {
		case ev := <-events:
			if ev.Correlation == ctx.Correlation() {
				matching++
			}
		default:
			// The outer Bound pattern and the list::any function body account
			// for four events (a start and a completion each); the nested
			// const-pattern evaluation adds the other two.
			assert.Equal(t, 6, matching, "expected trace events from the nested const-pattern evaluation, sharing the outer correlation id")
			return
		}
	}
}
