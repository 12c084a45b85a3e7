// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package dsl defines the lexer, AST, and parser for Dogma, the policy
// pattern language. The grammar and AST shapes mirror the teacher's ABAC
// policy DSL (participle-based, struct-tag-driven), generalized to Dogma's
// pattern/type-expression grammar instead of permit/forbid statements.
package dsl

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// dogmaLexer defines Dogma's token set. Order matters: longer operators
// must precede shorter ones that share a prefix.
var dogmaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "PackageDoc", Pattern: `//![^\n]*`},
	{Name: "DocComment", Pattern: `///[^\n]*`},
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?[0-9]+(\.[0-9]+)?`},
	{Name: "PathSep", Pattern: `::`},
	{Name: "OpAnd", Pattern: `&&`},
	{Name: "OpOr", Pattern: `\|\|`},
	{Name: "OpEq", Pattern: `==`},
	{Name: "OpNe", Pattern: `!=`},
	{Name: "OpGe", Pattern: `>=`},
	{Name: "OpLe", Pattern: `<=`},
	{Name: "OpGt", Pattern: `>`},
	{Name: "OpLt", Pattern: `<`},
	{Name: "Bang", Pattern: `!`},
	{Name: "Pipe", Pattern: `\|`},
	{Name: "Dollar", Pattern: `\$`},
	{Name: "Hash", Pattern: `#`},
	{Name: "Question", Pattern: `\?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_-]*`},
	{Name: "Punct", Pattern: `[(){}\[\],:;.=+\-*/]`},
	{Name: "whitespace", Pattern: `\s+`},
})

// GrammarVersion is included in compiled build artifacts for
// forward-compatible evolution of the Dogma grammar.
const GrammarVersion = 1

// reservedWords must not be used as pattern or parameter names.
var reservedWords = map[string]bool{
	"pattern": true, "use": true, "as": true, "self": true,
	"true": true, "false": true, "null": true,
}

// IsReservedWord reports whether word is a Dogma reserved word.
func IsReservedWord(word string) bool { return reservedWords[word] }

// --- Top-level structure ---

// CompilationUnit is the parsed contents of a single .dog source file:
// optional package documentation, `use` aliasing statements, and an
// ordered list of pattern definitions (§4.1, §6).
type CompilationUnit struct {
	Pos        lexer.Position `parser:"" json:"-"`
	PackageDoc *string        `parser:"@PackageDoc?" json:"package_doc,omitempty"`
	Uses       []*UseStatement `parser:"@@*" json:"uses,omitempty"`
	Patterns   []*PatternDef  `parser:"@@*" json:"patterns"`
}

// UseStatement aliases a fully qualified package path, optionally renaming
// it: `use pkg::path [as alias]`.
type UseStatement struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Kw    string         `parser:"'use'" json:"-"`
	Path  []string       `parser:"@Ident (PathSep @Ident)*" json:"path"`
	Alias *string        `parser:"('as' @Ident)?" json:"alias,omitempty"`
}

func (u *UseStatement) String() string {
	s := "use " + strings.Join(u.Path, "::")
	if u.Alias != nil {
		s += " as " + *u.Alias
	}
	return s
}

// Annotation is a single meta-annotation: `#[name(arg, key=value, ...)]`.
// Bare annotations like `#[authoritative]` and `#[unstable]` carry no args.
type Annotation struct {
	Pos  lexer.Position   `parser:"" json:"-"`
	Name string           `parser:"Hash '[' @Ident" json:"name"`
	Args []*AnnotationArg `parser:"('(' (@@ (',' @@)*)? ')')?" json:"args,omitempty"`
	End  string           `parser:"']'" json:"-"`
}

// AnnotationArg is a bare string literal or a `key="value"` pair, covering
// both `#[explain("...")]` and `#[deprecated(since="1", reason="...")]`.
type AnnotationArg struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   *string        `parser:"(@Ident '=')?" json:"key,omitempty"`
	Value string         `parser:"@String" json:"value"`
}

// Metadata groups the doc comment and annotations that precede a pattern
// definition or object field.
type Metadata struct {
	Annotations []*Annotation
	Doc         *string
}

// Explain returns the first explain/reason annotation's argument, if any.
func (m *Metadata) Explain() (string, bool) {
	for _, a := range m.Annotations {
		if (a.Name == "explain" || a.Name == "reason") && len(a.Args) == 1 {
			return a.Args[0].Value, true
		}
	}
	return "", false
}

// SeverityOverride returns the explicit severity annotation name
// ("advice"/"warning"/"error") and message, if present.
func (m *Metadata) SeverityOverride() (kind, msg string, ok bool) {
	for _, a := range m.Annotations {
		switch a.Name {
		case "advice", "warning", "error":
			if len(a.Args) == 1 {
				return a.Name, a.Args[0].Value, true
			}
			return a.Name, "", true
		}
	}
	return "", "", false
}

// Authoritative reports whether `#[authoritative]` is present.
func (m *Metadata) Authoritative() bool {
	for _, a := range m.Annotations {
		if a.Name == "authoritative" {
			return true
		}
	}
	return false
}

// Unstable reports whether `#[unstable]` is present.
func (m *Metadata) Unstable() bool {
	for _, a := range m.Annotations {
		if a.Name == "unstable" {
			return true
		}
	}
	return false
}

// Deprecated returns the since/reason pair from `#[deprecated(...)]`.
func (m *Metadata) Deprecated() (since, reason string, ok bool) {
	for _, a := range m.Annotations {
		if a.Name != "deprecated" {
			continue
		}
		ok = true
		for _, arg := range a.Args {
			if arg.Key == nil {
				continue
			}
			switch *arg.Key {
			case "since":
				since = arg.Value
			case "reason":
				reason = arg.Value
			}
		}
		return since, reason, ok
	}
	return "", "", false
}

// PatternDef is a single pattern definition, optionally parameterized and
// documented: `#[explain("...")] pattern name<P, Q> = type_expr`. A
// bodyless `pattern name` denotes `Nothing` (§6).
type PatternDef struct {
	Pos         lexer.Position `parser:"" json:"-"`
	Doc         *string        `parser:"@DocComment?" json:"doc,omitempty"`
	Annotations []*Annotation  `parser:"@@*" json:"annotations,omitempty"`
	Kw          string         `parser:"'pattern'" json:"-"`
	Name        string         `parser:"@Ident" json:"name"`
	Params      []string       `parser:"('<' @Ident (',' @Ident)* '>')?" json:"params,omitempty"`
	Body        *TypeExpr      `parser:"('=' @@)?" json:"body,omitempty"`
}

// Metadata collects the pattern's doc comment and annotations.
func (p *PatternDef) Metadata() *Metadata {
	return &Metadata{Annotations: p.Annotations, Doc: p.Doc}
}

// --- Type-expression grammar (§4.1) ---

// TypeExpr is `logical_or`: a disjunction of conjunctions.
type TypeExpr struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Terms []*TypeAnd     `parser:"@@ (OpOr @@)*" json:"terms"`
}

// TypeAnd is `logical_and`: a conjunction of chains.
type TypeAnd struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Terms []*TypeChain   `parser:"@@ (OpAnd @@)*" json:"terms"`
}

// TypeChain is a pipe-separated sequence of primaries: `P | Q | …`,
// desugaring to `lang::chain` (§4.4).
type TypeChain struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Terms []*TypePrimary `parser:"@@ (Pipe @@)*" json:"terms"`
}

// TypePrimary is `ty`: one alternative of expr/list/object/const/type-ref.
// Exactly one field is non-nil.
type TypePrimary struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Expr   *ExprType      `parser:"  @@" json:"expr,omitempty"`
	List   *ListType      `parser:"| @@" json:"list,omitempty"`
	Object *ObjectType    `parser:"| @@" json:"object,omitempty"`
	Const  *ConstType     `parser:"| @@" json:"const,omitempty"`
	Ref    *TypeRef       `parser:"| @@" json:"ref,omitempty"`
}

// ExprType is `$( expression )`, a pure predicate over `self`.
type ExprType struct {
	Pos  lexer.Position `parser:"" json:"-"`
	Expr *Expression    `parser:"Dollar '(' @@ ')'" json:"expr"`
}

// ListType is `[ type_expr ]`. It lowers to a one-element List pattern,
// which matches only a list of exactly one element satisfying type_expr.
type ListType struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Element *TypeExpr      `parser:"'[' @@ ']'" json:"element"`
}

// ObjectType is `{ field, field, ... }`.
type ObjectType struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Fields []*FieldDef    `parser:"'{' (@@ (',' @@)* ','?)? '}'" json:"fields,omitempty"`
}

// FieldDef is `name[?]: type_expr`, with optional per-field metadata.
type FieldDef struct {
	Pos         lexer.Position `parser:"" json:"-"`
	Annotations []*Annotation  `parser:"@@*" json:"annotations,omitempty"`
	Name        string         `parser:"@Ident" json:"name"`
	Optional    bool           `parser:"@Question?" json:"optional,omitempty"`
	Pattern     *TypeExpr      `parser:"':' @@" json:"pattern"`
}

// ConstType is a literal value pattern: string, number, boolean, or null.
type ConstType struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Str    *string        `parser:"  @String" json:"str,omitempty"`
	Number *float64       `parser:"| @Number" json:"number,omitempty"`
	Bool   *bool          `parser:"| @('true' | 'false')" json:"bool,omitempty"`
	Null   bool           `parser:"| @'null'" json:"null,omitempty"`
}

// TypeRef is a (possibly dereferenced, possibly generic, possibly
// postfixed) reference to a named pattern: `*pkg::name<A, B>(R).f`.
type TypeRef struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Deref   bool           `parser:"@'*'?" json:"deref,omitempty"`
	Path    []string       `parser:"@Ident (PathSep @Ident)*" json:"path"`
	Args    []*TypeExpr    `parser:"('<' @@ (',' @@)* '>')?" json:"args,omitempty"`
	Postfix []*Postfix     `parser:"@@*" json:"postfix,omitempty"`
}

// Postfix is either a refinement `(R)` or a traversal `.field`.
type Postfix struct {
	Pos       lexer.Position `parser:"" json:"-"`
	Refine    *TypeExpr      `parser:"  '(' @@? ')'" json:"refine,omitempty"`
	Traversal *string        `parser:"| '.' @Ident" json:"traversal,omitempty"`
}

// --- Expression grammar (§4.6) ---

// Expression is the root of a `$(...)` predicate tree.
type Expression struct {
	Pos lexer.Position `parser:"" json:"-"`
	Or  *ExprOr        `parser:"@@" json:"or"`
}

// ExprOr is a disjunction of conjunctions (`∨`).
type ExprOr struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Terms []*ExprAnd     `parser:"@@ (OpOr @@)*" json:"terms"`
}

// ExprAnd is a conjunction of equalities (`∧`).
type ExprAnd struct {
	Pos   lexer.Position   `parser:"" json:"-"`
	Terms []*ExprEquality `parser:"@@ (OpAnd @@)*" json:"terms"`
}

// ExprEquality is a single optional equality comparison (`=`/`≠`).
type ExprEquality struct {
	Pos   lexer.Position    `parser:"" json:"-"`
	Left  *ExprRelational   `parser:"@@" json:"left"`
	Op    *string           `parser:"(@(OpEq | OpNe)" json:"op,omitempty"`
	Right *ExprRelational   `parser:"@@)?" json:"right,omitempty"`
}

// ExprRelational is a single optional ordering comparison
// (`<`/`≤`/`>`/`≥`).
type ExprRelational struct {
	Pos   lexer.Position  `parser:"" json:"-"`
	Left  *ExprAdditive   `parser:"@@" json:"left"`
	Op    *string         `parser:"(@(OpLe | OpGe | OpLt | OpGt)" json:"op,omitempty"`
	Right *ExprAdditive   `parser:"@@)?" json:"right,omitempty"`
}

// ExprAdditive is a left-associative chain of `+`/`-` terms.
type ExprAdditive struct {
	Pos  lexer.Position        `parser:"" json:"-"`
	Left *ExprMultiplicative   `parser:"@@" json:"left"`
	Rest []*ExprAdditiveTerm   `parser:"@@*" json:"rest,omitempty"`
}

// ExprAdditiveTerm is one `(op, term)` step in an additive chain.
type ExprAdditiveTerm struct {
	Pos  lexer.Position      `parser:"" json:"-"`
	Op   string              `parser:"@('+' | '-')" json:"op"`
	Term *ExprMultiplicative `parser:"@@" json:"term"`
}

// ExprMultiplicative is a left-associative chain of `*`/`/` terms.
type ExprMultiplicative struct {
	Pos  lexer.Position           `parser:"" json:"-"`
	Left *ExprUnary               `parser:"@@" json:"left"`
	Rest []*ExprMultiplicativeTerm `parser:"@@*" json:"rest,omitempty"`
}

// ExprMultiplicativeTerm is one `(op, term)` step in a multiplicative chain.
type ExprMultiplicativeTerm struct {
	Pos  lexer.Position `parser:"" json:"-"`
	Op   string         `parser:"@('*' | '/')" json:"op"`
	Term *ExprUnary     `parser:"@@" json:"term"`
}

// ExprUnary is an optionally negated atom (`¬`).
type ExprUnary struct {
	Pos  lexer.Position `parser:"" json:"-"`
	Not  bool           `parser:"@Bang?" json:"not,omitempty"`
	Atom *ExprAtom      `parser:"@@" json:"atom"`
}

// ExprAtom is a leaf of the expression tree: `self`, a literal, a function
// call, or a parenthesized sub-expression.
type ExprAtom struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Self   bool           `parser:"  @'self'" json:"self,omitempty"`
	Str    *string        `parser:"| @String" json:"str,omitempty"`
	Number *float64       `parser:"| @Number" json:"number,omitempty"`
	Bool   *bool          `parser:"| @('true' | 'false')" json:"bool,omitempty"`
	Null   bool           `parser:"| @'null'" json:"null,omitempty"`
	Call   *FunctionCall  `parser:"| @@" json:"call,omitempty"`
	Group  *Expression    `parser:"| '(' @@ ')'" json:"group,omitempty"`
}

// FunctionCall is `name(arg, arg, ...)` within an expression (§4.6's
// `Function(name, e)`), e.g. `length(self)`.
type FunctionCall struct {
	Pos  lexer.Position `parser:"" json:"-"`
	Name string         `parser:"@Ident" json:"name"`
	Args []*Expression  `parser:"'(' (@@ (',' @@)*)? ')'" json:"args,omitempty"`
}

// --- rendering ---

func (u *CompilationUnit) String() string {
	var b strings.Builder
	if u.PackageDoc != nil {
		b.WriteString(*u.PackageDoc)
		b.WriteByte('\n')
	}
	for _, use := range u.Uses {
		b.WriteString(use.String())
		b.WriteByte('\n')
	}
	for _, p := range u.Patterns {
		b.WriteString(p.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func (p *PatternDef) String() string {
	var b strings.Builder
	b.WriteString("pattern ")
	b.WriteString(p.Name)
	if len(p.Params) > 0 {
		b.WriteByte('<')
		b.WriteString(strings.Join(p.Params, ", "))
		b.WriteByte('>')
	}
	if p.Body != nil {
		b.WriteString(" = ")
		b.WriteString(p.Body.String())
	}
	return b.String()
}

func (t *TypeExpr) String() string {
	parts := make([]string, len(t.Terms))
	for i, term := range t.Terms {
		parts[i] = term.String()
	}
	return strings.Join(parts, " || ")
}

func (t *TypeAnd) String() string {
	parts := make([]string, len(t.Terms))
	for i, term := range t.Terms {
		parts[i] = term.String()
	}
	return strings.Join(parts, " && ")
}

func (t *TypeChain) String() string {
	parts := make([]string, len(t.Terms))
	for i, term := range t.Terms {
		parts[i] = term.String()
	}
	return strings.Join(parts, " | ")
}

func (t *TypePrimary) String() string {
	switch {
	case t.Expr != nil:
		return "$(" + t.Expr.String() + ")"
	case t.List != nil:
		return "[" + t.List.Element.String() + "]"
	case t.Object != nil:
		return t.Object.String()
	case t.Const != nil:
		return t.Const.String()
	case t.Ref != nil:
		return t.Ref.String()
	default:
		return "<empty>"
	}
}

func (o *ObjectType) String() string {
	parts := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		opt := ""
		if f.Optional {
			opt = "?"
		}
		parts[i] = f.Name + opt + ": " + f.Pattern.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (c *ConstType) String() string {
	switch {
	case c.Str != nil:
		return `"` + *c.Str + `"`
	case c.Number != nil:
		return trimFloat(*c.Number)
	case c.Bool != nil:
		if *c.Bool {
			return "true"
		}
		return "false"
	case c.Null:
		return "null"
	default:
		return "<empty>"
	}
}

func (r *TypeRef) String() string {
	var b strings.Builder
	if r.Deref {
		b.WriteByte('*')
	}
	b.WriteString(strings.Join(r.Path, "::"))
	if len(r.Args) > 0 {
		parts := make([]string, len(r.Args))
		for i, a := range r.Args {
			parts[i] = a.String()
		}
		b.WriteByte('<')
		b.WriteString(strings.Join(parts, ", "))
		b.WriteByte('>')
	}
	for _, p := range r.Postfix {
		if p.Refine != nil {
			b.WriteByte('(')
			b.WriteString(p.Refine.String())
			b.WriteByte(')')
		} else if p.Traversal != nil {
			b.WriteByte('.')
			b.WriteString(*p.Traversal)
		}
	}
	return b.String()
}

func (e *Expression) String() string { return e.Or.String() }

func (e *ExprOr) String() string {
	parts := make([]string, len(e.Terms))
	for i, t := range e.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " || ")
}

func (e *ExprAnd) String() string {
	parts := make([]string, len(e.Terms))
	for i, t := range e.Terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " && ")
}

func (e *ExprEquality) String() string {
	if e.Op == nil {
		return e.Left.String()
	}
	return e.Left.String() + " " + *e.Op + " " + e.Right.String()
}

func (e *ExprRelational) String() string {
	if e.Op == nil {
		return e.Left.String()
	}
	return e.Left.String() + " " + *e.Op + " " + e.Right.String()
}

func (e *ExprAdditive) String() string {
	s := e.Left.String()
	for _, r := range e.Rest {
		s += " " + r.Op + " " + r.Term.String()
	}
	return s
}

func (e *ExprMultiplicative) String() string {
	s := e.Left.String()
	for _, r := range e.Rest {
		s += " " + r.Op + " " + r.Term.String()
	}
	return s
}

func (e *ExprUnary) String() string {
	if e.Not {
		return "!" + e.Atom.String()
	}
	return e.Atom.String()
}

func (e *ExprAtom) String() string {
	switch {
	case e.Self:
		return "self"
	case e.Str != nil:
		return `"` + *e.Str + `"`
	case e.Number != nil:
		return trimFloat(*e.Number)
	case e.Bool != nil:
		if *e.Bool {
			return "true"
		}
		return "false"
	case e.Null:
		return "null"
	case e.Call != nil:
		return e.Call.String()
	case e.Group != nil:
		return "(" + e.Group.String() + ")"
	default:
		return "<empty>"
	}
}

func (c *FunctionCall) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
