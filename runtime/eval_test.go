// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedwing/policy-engine/data"
	"github.com/seedwing/policy-engine/value"
)

func testWorld(slots []*Pattern, names map[string]int) *World {
	return NewWorld(slots, names, TraceConfig{}, nil, data.NewConfig(nil), NewRegistry())
}

func namedConst(name string, v *value.Value) *Pattern {
	n := ParsePatternName(name)
	return NewPattern(&n, Metadata{}, nil, nil, Const(v))
}

func anonConst(v *value.Value) *Pattern {
	return NewPattern(nil, Metadata{}, nil, nil, Const(v))
}

func evalTop(t *testing.T, w *World, p *Pattern, input *value.Value) *EvaluationResult {
	t.Helper()
	ctx := NewEvalContext(context.Background(), nil)
	result, err := p.Evaluate(ctx, w, input, EmptyScope())
	require.NoError(t, err)
	return result
}

// evalAnd: satisfied iff every term is satisfied, severity is the max.
func TestEvalAnd(t *testing.T) {
	w := testWorld(nil, nil)
	forty2 := value.NewInteger(42)

	satisfied := NewPattern(nil, Metadata{}, nil, nil, AndRef([]*Pattern{
		anonConst(forty2),
		anonConst(forty2),
	}))
	result := evalTop(t, w, satisfied, forty2)
	assert.True(t, result.IsSatisfied())
	assert.Equal(t, SeverityNone, result.Severity)
	assert.Equal(t, RationaleAnd, result.Rationale.Kind)
	require.Len(t, result.Rationale.Children, 2)

	unsatisfied := NewPattern(nil, Metadata{}, nil, nil, AndRef([]*Pattern{
		anonConst(forty2),
		anonConst(value.NewInteger(13)),
	}))
	result = evalTop(t, w, unsatisfied, forty2)
	assert.False(t, result.IsSatisfied())
	assert.Equal(t, SeverityError, result.Severity)
}

// evalOr: short-circuits on the first satisfied disjunct; an all-unsatisfied
// Or reports the minimum severity across its children (§9 Open Question a).
func TestEvalOr(t *testing.T) {
	w := testWorld(nil, nil)
	input := value.NewInteger(42)

	or := NewPattern(nil, Metadata{}, nil, nil, OrRef([]*Pattern{
		anonConst(value.NewInteger(13)),
		anonConst(value.NewInteger(42)),
	}))
	result := evalTop(t, w, or, input)
	assert.True(t, result.IsSatisfied())
	assert.Equal(t, RationaleOr, result.Rationale.Kind)
	// the first (unsatisfied) disjunct is still tried before the second
	// satisfies and short-circuits evaluation.
	require.Len(t, result.Rationale.Children, 2)

	allFail := NewPattern(nil, Metadata{}, nil, nil, OrRef([]*Pattern{
		anonConst(value.NewInteger(1)),
		anonConst(value.NewInteger(2)),
	}))
	result = evalTop(t, w, allFail, input)
	assert.False(t, result.IsSatisfied())
	assert.Equal(t, SeverityError, result.Severity)
}

// evalChain: threads output into the next stage's input and stops at the
// first Error severity rather than running every stage regardless.
func TestEvalChain(t *testing.T) {
	w := testWorld(nil, nil)
	input := value.NewInteger(42)

	chain := NewPattern(nil, Metadata{}, nil, nil, ChainRef([]*Pattern{
		anonConst(value.NewInteger(42)),
		primordialTypePattern(PrimordialInteger),
	}))
	result := evalTop(t, w, chain, input)
	assert.True(t, result.IsSatisfied())
	assert.Equal(t, RationaleChain, result.Rationale.Kind)
	require.Len(t, result.Rationale.Children, 2)

	stopsAtFirstError := NewPattern(nil, Metadata{}, nil, nil, ChainRef([]*Pattern{
		anonConst(value.NewInteger(13)), // fails against 42
		anonConst(value.NewInteger(13)), // would also fail, but must not run
	}))
	result = evalTop(t, w, stopsAtFirstError, input)
	assert.False(t, result.IsSatisfied())
	require.Len(t, result.Rationale.Children, 1)
}

func primordialTypePattern(k PrimordialKind) *Pattern {
	return NewPattern(nil, Metadata{}, nil, nil, PrimordialType(k))
}

// evalRefine: an unsatisfied primary short-circuits before the refinement is
// evaluated at all; a satisfied primary's output feeds the refinement.
func TestEvalRefine(t *testing.T) {
	slots := []*Pattern{primordialTypePattern(PrimordialInteger)}
	names := map[string]int{"int": 0}
	w := testWorld(slots, names)

	refine := NewPattern(nil, Metadata{}, nil, nil, RefineRef(0, Bindings{}, anonConst(value.NewInteger(42))))
	result := evalTop(t, w, refine, value.NewInteger(42))
	assert.True(t, result.IsSatisfied())
	require.Len(t, result.Rationale.Children, 2)

	result = evalTop(t, w, refine, value.NewString("not an int"))
	assert.False(t, result.IsSatisfied())
	// the refinement never ran: only the primary's (failed) result is present.
	require.Len(t, result.Rationale.Children, 1)
}

// evalTraverse: follows a field of the primary's output, reporting
// RationaleMissingField when absent rather than a generic failure.
func TestEvalTraverse(t *testing.T) {
	slots := []*Pattern{NewPattern(nil, Metadata{}, nil, nil, Anything())}
	names := map[string]int{"anything": 0}
	w := testWorld(slots, names)

	obj := value.NewObject()
	obj.Set("name", value.NewString("alice"))
	input := value.NewObjectValue(obj)

	traverse := NewPattern(nil, Metadata{}, nil, nil, TraverseRef(0, Bindings{}, "name"))
	result := evalTop(t, w, traverse, input)
	assert.True(t, result.IsSatisfied())
	resolved := result.Output.Resolve(input)
	s, ok := resolved.String()
	require.True(t, ok)
	assert.Equal(t, "alice", s)

	missing := NewPattern(nil, Metadata{}, nil, nil, TraverseRef(0, Bindings{}, "age"))
	result = evalTop(t, w, missing, input)
	assert.False(t, result.IsSatisfied())
	require.Len(t, result.Rationale.Children, 2)
	assert.Equal(t, RationaleMissingField, result.Rationale.Children[1].Rationale.Kind)
}

// evalNot: inverts satisfaction; the inner rationale is kept for
// presentation rather than discarded.
func TestEvalNot(t *testing.T) {
	slots := []*Pattern{anonConst(value.NewInteger(42))}
	names := map[string]int{"forty2": 0}
	w := testWorld(slots, names)

	not := NewPattern(nil, Metadata{}, nil, nil, NotRef(0, Bindings{}))
	result := evalTop(t, w, not, value.NewInteger(13))
	assert.True(t, result.IsSatisfied())
	assert.Equal(t, RationaleNot, result.Rationale.Kind)
	require.NotNil(t, result.Rationale.Inner)

	result = evalTop(t, w, not, value.NewInteger(42))
	assert.False(t, result.IsSatisfied())
}

// The recursion-depth guard (§4.10, §8 property 8) trips on a self-
// referencing Ref cycle, reporting InvalidState rather than overflowing the
// Go call stack.
func TestEvalDepthGuard(t *testing.T) {
	names := map[string]int{"cycle": 0}
	// slot 0 refers back to itself: every evaluation of "cycle" evaluates
	// "cycle" again, an infinite loop bounded only by the depth guard.
	slots := []*Pattern{nil}
	cyclic := NewPattern(nil, Metadata{}, nil, nil, PlainRef(0, Bindings{}))
	slots[0] = cyclic
	w := testWorld(slots, names)

	ctx := NewEvalContext(context.Background(), nil).WithMaxDepth(50)
	_, err := cyclic.Evaluate(ctx, w, value.NewInteger(1), EmptyScope())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recursion depth")
}

// A named pattern's name survives into its result for presentation, and
// DisplayName falls back to the anonymous placeholder when unnamed.
func TestPatternDisplayName(t *testing.T) {
	named := namedConst("test::answer", value.NewInteger(1))
	assert.Equal(t, "test::answer", named.DisplayName())

	anon := anonConst(value.NewInteger(1))
	assert.Equal(t, "<anonymous>", anon.DisplayName())
}
