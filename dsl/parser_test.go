// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedwing/policy-engine/source"
)

func parse(t *testing.T, text string) *CompilationUnit {
	t.Helper()
	cache := source.NewCache()
	loc := source.Location{Name: "test.dog"}
	unit, errs := Parse(cache, loc, text)
	require.Empty(t, errs)
	require.NotNil(t, unit)
	return unit
}

func TestParseUseStatement(t *testing.T) {
	unit := parse(t, `use lang::and as both`)
	require.Len(t, unit.Uses, 1)
	assert.Equal(t, []string{"lang", "and"}, unit.Uses[0].Path)
	require.NotNil(t, unit.Uses[0].Alias)
	assert.Equal(t, "both", *unit.Uses[0].Alias)
}

func TestParseObjectPattern(t *testing.T) {
	unit := parse(t, `
pattern named = {
	name: string,
	age?: integer,
}
`)
	require.Len(t, unit.Patterns, 1)
	p := unit.Patterns[0]
	assert.Equal(t, "named", p.Name)
	require.NotNil(t, p.Body)
	require.Len(t, p.Body.Terms, 1)
	require.Len(t, p.Body.Terms[0].Terms, 1)
	require.Len(t, p.Body.Terms[0].Terms[0].Terms, 1)
	obj := p.Body.Terms[0].Terms[0].Terms[0].Object
	require.NotNil(t, obj)
	require.Len(t, obj.Fields, 2)
	assert.Equal(t, "name", obj.Fields[0].Name)
	assert.False(t, obj.Fields[0].Optional)
	assert.Equal(t, "age", obj.Fields[1].Name)
	assert.True(t, obj.Fields[1].Optional)
}

func TestParseGenericParams(t *testing.T) {
	unit := parse(t, `pattern named<P> = { name: P }`)
	require.Len(t, unit.Patterns, 1)
	assert.Equal(t, []string{"P"}, unit.Patterns[0].Params)
}

func TestParseAndOrChain(t *testing.T) {
	unit := parse(t, `pattern combo = integer && string || boolean | decimal`)
	body := unit.Patterns[0].Body
	// `&&` binds tighter than `||`, both bind looser than `|`: the top-level
	// TypeExpr has two TypeAnd terms (the && and || operands split at the
	// Or level).
	require.Len(t, body.Terms, 2)
	assert.Len(t, body.Terms[0].Terms, 2) // "integer && string": two Chain operands under one And
	assert.Len(t, body.Terms[1].Terms, 1) // "boolean | decimal": one Chain with two Pipe terms
	require.Len(t, body.Terms[1].Terms[0].Terms, 2)
}

func TestParseRefinementAndTraversal(t *testing.T) {
	unit := parse(t, `
pattern q = "foo"
pattern p = q("foo").name
`)
	p := unit.Patterns[1]
	ref := p.Body.Terms[0].Terms[0].Terms[0].Ref
	require.NotNil(t, ref)
	assert.Equal(t, []string{"q"}, ref.Path)
	require.Len(t, ref.Postfix, 2)
	require.NotNil(t, ref.Postfix[0].Refine)
	require.NotNil(t, ref.Postfix[1].Traversal)
	assert.Equal(t, "name", *ref.Postfix[1].Traversal)
}

// participle's optional capture leaves Postfix.Refine nil for `q()` just as
// it does for a bare `q` with no postfix at all — only the presence of a
// Postfix entry distinguishes them. lower.go's applyPostfix relies on this
// (see lower_test.go in the root engine package).
func TestParseEmptyParensRefinement(t *testing.T) {
	unit := parse(t, `pattern p = q()`)
	ref := unit.Patterns[0].Body.Terms[0].Terms[0].Terms[0].Ref
	require.Len(t, ref.Postfix, 1)
	assert.Nil(t, ref.Postfix[0].Refine)
	assert.Nil(t, ref.Postfix[0].Traversal)
}

func TestParseConstLiterals(t *testing.T) {
	unit := parse(t, `pattern answer = 42`)
	c := unit.Patterns[0].Body.Terms[0].Terms[0].Terms[0].Const
	require.NotNil(t, c)
	require.NotNil(t, c.Number)
	assert.Equal(t, 42.0, *c.Number)
}

func TestParseDollarExpression(t *testing.T) {
	unit := parse(t, `pattern positive = $(self > 0)`)
	expr := unit.Patterns[0].Body.Terms[0].Terms[0].Terms[0].Expr
	require.NotNil(t, expr)
}

func TestParseAnnotations(t *testing.T) {
	unit := parse(t, `
#[authoritative]
#[explain("a useful reason")]
pattern strict = string
`)
	p := unit.Patterns[0]
	require.True(t, p.Metadata().Authoritative())
	reason, ok := p.Metadata().Explain()
	require.True(t, ok)
	assert.Equal(t, "a useful reason", reason)
}

func TestParseBodylessPatternIsNothing(t *testing.T) {
	unit := parse(t, `pattern todo`)
	require.Nil(t, unit.Patterns[0].Body)
}

// A reserved word used as a pattern name is a build error, not a parser
// panic (§4.1/§7: recovered errors are still reported).
func TestParseReservedWordRejected(t *testing.T) {
	cache := source.NewCache()
	loc := source.Location{Name: "test.dog"}
	_, errs := Parse(cache, loc, `pattern self = string`)
	require.NotEmpty(t, errs)
	assert.Equal(t, ErrParser, errs[0].Kind)
}

// Two fields with the same name in one object pattern is a build error.
func TestParseDuplicateFieldNameRejected(t *testing.T) {
	cache := source.NewCache()
	loc := source.Location{Name: "test.dog"}
	_, errs := Parse(cache, loc, `pattern p = { a: string, a: integer }`)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, "duplicate field name")
}

// Malformed Dogma text surfaces exactly one best-effort ErrParser, not a
// parser panic (§4.1).
func TestParseSyntaxErrorRecovery(t *testing.T) {
	cache := source.NewCache()
	loc := source.Location{Name: "test.dog"}
	unit, errs := Parse(cache, loc, `pattern p = {{{`)
	assert.Nil(t, unit)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrParser, errs[0].Kind)
}
