// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

func namedPattern(name string, inner runtime.Inner) *runtime.Pattern {
	n := runtime.ParsePatternName(name)
	return runtime.NewPattern(&n, runtime.Metadata{}, nil, nil, inner)
}

func constResult(name string, v *value.Value, input *value.Value, satisfied bool) *runtime.EvaluationResult {
	p := namedPattern(name, runtime.Const(v))
	sev := runtime.SeverityNone
	if !satisfied {
		sev = runtime.SeverityError
	}
	out := runtime.Identity
	if !satisfied {
		out = runtime.None
	}
	rat := &runtime.Rationale{Kind: runtime.RationaleConst, Bool: satisfied}
	r := &runtime.EvaluationResult{Input: input, Pattern: p, Rationale: rat, Output: out, Severity: sev}
	return r
}

func TestResponseNewSatisfied(t *testing.T) {
	result := constResult("test::answer", value.NewInteger(42), value.NewInteger(42), true)

	resp := New(result)
	name, ok := resp.Name()
	require.True(t, ok)
	assert.Equal(t, "test::answer", name.String())
	sev, ok := resp.Severity()
	require.True(t, ok)
	assert.Equal(t, runtime.SeverityNone, sev)
	assert.True(t, resp.satisfied(runtime.SeverityError))

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":{"pattern":"test::answer"},"input":42,"output":42,"severity":"none","reason":"The input matches the constant value expected in the pattern"}`, string(raw))
}

func TestResponseNewUnsatisfied(t *testing.T) {
	result := constResult("test::answer", value.NewInteger(42), value.NewInteger(13), false)

	resp := New(result)
	sev, _ := resp.Severity()
	assert.Equal(t, runtime.SeverityError, sev)
	assert.False(t, resp.satisfied(runtime.SeverityError))

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":{"pattern":"test::answer"},"input":13,"severity":"error","reason":"The input does not match the constant value expected in the pattern"}`, string(raw))
}

func TestResponseFilter(t *testing.T) {
	result := constResult("test::answer", value.NewInteger(42), value.NewInteger(42), true)
	resp := New(result).Filter("name,severity")

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":{"pattern":"test::answer"},"severity":"none"}`, string(raw))
}

func TestResponseExplainOverride(t *testing.T) {
	n := runtime.ParsePatternName("test::inner")
	p := runtime.NewPattern(&n, runtime.Metadata{Doc: "", Reason: "find me", HasReason: true, Authoritative: true}, nil, nil, runtime.Nothing())
	rat := &runtime.Rationale{Kind: runtime.RationaleNothing}
	result := &runtime.EvaluationResult{Input: value.NewString("x"), Pattern: p, Rationale: rat, Output: runtime.None, Severity: runtime.SeverityError}

	resp := New(result)
	assert.True(t, resp.Authoritative())
	raw, err := json.Marshal(resp.Filter("name,reason,authoritative"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":{"pattern":"test::inner"},"reason":"find me","authoritative":true}`, string(raw))
}

func TestCollectorStopsAtAuthoritative(t *testing.T) {
	leafName := runtime.ParsePatternName("test::find")
	leaf := runtime.NewPattern(&leafName, runtime.Metadata{}, nil, nil, runtime.Nothing())
	leafResult := &runtime.EvaluationResult{
		Input:     value.NewString("foo"),
		Pattern:   leaf,
		Rationale: &runtime.Rationale{Kind: runtime.RationaleNothing},
		Output:    runtime.None,
		Severity:  runtime.SeverityError,
	}

	outerName := runtime.ParsePatternName("test::inner")
	outer := runtime.NewPattern(&outerName, runtime.Metadata{Reason: "find me", HasReason: true, Authoritative: true}, nil, nil, runtime.Nothing())
	outerRationale := &runtime.Rationale{Kind: runtime.RationaleObject, ObjectFields: []runtime.FieldRationale{{Name: "values", Result: leafResult}}}
	outerResult := &runtime.EvaluationResult{
		Input:     value.NewString("x"),
		Pattern:   outer,
		Rationale: outerRationale,
		Output:    runtime.None,
		Severity:  runtime.SeverityError,
	}

	resp := New(outerResult)
	collected := NewCollector(resp).Collect()
	require.Len(t, collected, 1)
	name, ok := collected[0].Name()
	require.True(t, ok)
	assert.Equal(t, "test::inner", name.String())
	assert.Empty(t, collected[0].Rationale())
}
