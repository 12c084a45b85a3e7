// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

// An empty-parens postfix, `q()`, is a refinement whose inner type_expr is
// absent; participle's optional capture leaves Postfix.Refine nil exactly
// the same way it does for a bare `q` with no postfix at all, so lowering
// must not mistake "no refinement" for "no postfix" (§4.6's `postfix :=
// "(" type_expr? ")" | "." field_name`).
func TestApplyPostfix_EmptyParens(t *testing.T) {
	b := NewBuilder(DefaultRegistry())
	require.NoError(t, b.Add(Unit{Name: "p.dog", Text: `
pattern q = "foo"
pattern p = q()
`}))
	w, err := b.Build(nil, nil)
	require.NoError(t, err)

	matched, err := w.Evaluate(context.Background(), "p", value.NewString("foo"))
	require.NoError(t, err)
	assert.True(t, matched.IsSatisfied())
	// The empty refinement still wraps q in a RefineOf chain rather than
	// collapsing to q's own bare rationale, so the rationale tree records
	// both the primary match and the (trivially satisfied) refinement.
	assert.Equal(t, runtime.RationaleChain, matched.Rationale.Kind)
	require.Len(t, matched.Rationale.Children, 2)

	unmatched, err := w.Evaluate(context.Background(), "p", value.NewString("bar"))
	require.NoError(t, err)
	assert.False(t, unmatched.IsSatisfied())
}
