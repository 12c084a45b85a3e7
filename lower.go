// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package engine

import (
	"fmt"

	"github.com/seedwing/policy-engine/data"
	"github.com/seedwing/policy-engine/dsl"
	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

// lowerCtx is the per-Build scratch state threaded through lowering: the
// name->slot table (complete before any body is lowered, so forward
// references resolve), the use-aliases in scope for the current Unit, and
// the dense slot table being filled in.
type lowerCtx struct {
	registry   *runtime.Registry
	names      map[string]int
	slots      []*runtime.Pattern
	slotParams [][]string // declared parameter names per slot, fixed in pass 1

	aliases map[string][]string // alias -> full package path, current unit only
	params  map[string]bool     // generic parameter names in scope for the current pattern body
}

// build lowers every queued Unit into a single runtime.World, registering
// data sources and a configuration map alongside the compiled patterns;
// Build (engine.go) wraps this with the monitor-aware World facade.
func (b *Builder) build(sources data.Sources, cfg *data.Config) (*runtime.World, error) {
	lc := &lowerCtx{registry: b.registry, names: map[string]int{}}

	// Pass 1: reserve a slot for every pattern definition across every unit,
	// so any TypeRef anywhere can resolve regardless of declaration order.
	type pending struct {
		pkg []string
		def *dsl.PatternDef
	}
	var defs []pending
	for _, u := range b.units {
		for _, def := range u.unit.Patterns {
			name := runtime.PatternName{Package: u.pkg, Name: def.Name}
			slot := len(lc.slots)
			lc.names[name.String()] = slot
			lc.slots = append(lc.slots, nil) // placeholder, filled in pass 2
			lc.slotParams = append(lc.slotParams, def.Params)
			defs = append(defs, pending{pkg: u.pkg, def: def})
		}
	}

	// Pass 2: lower each body now that every name resolves.
	i := 0
	for _, u := range b.units {
		lc.aliases = aliasTable(u.unit.Uses)
		for range u.unit.Patterns {
			p := defs[i]
			name := runtime.PatternName{Package: p.pkg, Name: p.def.Name}
			slot := lc.names[name.String()]
			lc.params = paramSet(p.def.Params)
			pat, err := lc.lowerPatternDef(&name, p.def)
			if err != nil {
				return nil, err
			}
			lc.slots[slot] = pat
			i++
		}
	}

	return runtime.NewWorld(lc.slots, lc.names, b.trace, sources, cfg, b.registry), nil
}

func paramSet(params []string) map[string]bool {
	m := make(map[string]bool, len(params))
	for _, p := range params {
		m[p] = true
	}
	return m
}

func aliasTable(uses []*dsl.UseStatement) map[string][]string {
	m := map[string][]string{}
	for _, u := range uses {
		alias := u.Path[len(u.Path)-1]
		if u.Alias != nil {
			alias = *u.Alias
		}
		m[alias] = append([]string(nil), u.Path...)
	}
	return m
}

func (lc *lowerCtx) lowerPatternDef(name *runtime.PatternName, def *dsl.PatternDef) (*runtime.Pattern, error) {
	meta := lowerMetadata(def.Metadata())
	if def.Body == nil {
		return runtime.NewPattern(name, meta, def.Params, nil, runtime.Nothing()), nil
	}
	inner, err := lc.lowerTypeExpr(def.Body)
	if err != nil {
		return nil, err
	}
	return runtime.NewPattern(name, meta, def.Params, nil, inner), nil
}

func lowerMetadata(m *dsl.Metadata) runtime.Metadata {
	out := runtime.Metadata{}
	if m.Doc != nil {
		out.Doc = *m.Doc
	}
	if reason, ok := m.Explain(); ok {
		out.Reason = reason
		out.HasReason = true
	}
	if kind, msg, ok := m.SeverityOverride(); ok {
		out.HasSeverityOverride = true
		out.SeverityOverride = severityFromAnnotation(kind)
		if msg != "" && !out.HasReason {
			out.Reason = msg
			out.HasReason = true
		}
	}
	out.Authoritative = m.Authoritative()
	out.Unstable = m.Unstable()
	if since, reason, ok := m.Deprecated(); ok {
		out.Deprecated = true
		out.DeprecatedSince = since
		out.DeprecatedReason = reason
	}
	return out
}

func severityFromAnnotation(kind string) runtime.Severity {
	switch kind {
	case "advice":
		return runtime.SeverityAdvice
	case "warning":
		return runtime.SeverityWarning
	default:
		return runtime.SeverityError
	}
}

// lowerTypeExpr lowers `logical_or`, producing an Or Ref when there is more
// than one disjunct (§4.4).
func (lc *lowerCtx) lowerTypeExpr(t *dsl.TypeExpr) (runtime.Inner, error) {
	terms := make([]*runtime.Pattern, len(t.Terms))
	for i, and := range t.Terms {
		p, err := lc.lowerTypeAnd(and)
		if err != nil {
			return runtime.Inner{}, err
		}
		terms[i] = p
	}
	if len(terms) == 1 {
		return terms[0].Inner, nil
	}
	return runtime.OrRef(terms), nil
}

func (lc *lowerCtx) lowerTypeAnd(t *dsl.TypeAnd) (*runtime.Pattern, error) {
	terms := make([]*runtime.Pattern, len(t.Terms))
	for i, chain := range t.Terms {
		p, err := lc.lowerTypeChain(chain)
		if err != nil {
			return nil, err
		}
		terms[i] = p
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return anon(runtime.AndRef(terms)), nil
}

func (lc *lowerCtx) lowerTypeChain(t *dsl.TypeChain) (*runtime.Pattern, error) {
	terms := make([]*runtime.Pattern, len(t.Terms))
	for i, prim := range t.Terms {
		p, err := lc.lowerTypePrimary(prim)
		if err != nil {
			return nil, err
		}
		terms[i] = p
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return anon(runtime.ChainRef(terms)), nil
}

func anon(inner runtime.Inner) *runtime.Pattern {
	return runtime.NewPattern(nil, runtime.Metadata{}, nil, nil, inner)
}

func (lc *lowerCtx) lowerTypePrimary(p *dsl.TypePrimary) (*runtime.Pattern, error) {
	switch {
	case p.Expr != nil:
		e, err := lc.lowerExpression(p.Expr.Expr)
		if err != nil {
			return nil, err
		}
		return anon(runtime.Expr(e)), nil
	case p.List != nil:
		elemInner, err := lc.lowerTypeExpr(p.List.Element)
		if err != nil {
			return nil, err
		}
		return anon(runtime.List([]*runtime.Pattern{anon(elemInner)})), nil
	case p.Object != nil:
		fields := make([]runtime.Field, len(p.Object.Fields))
		for i, f := range p.Object.Fields {
			fInner, err := lc.lowerTypeExpr(f.Pattern)
			if err != nil {
				return nil, err
			}
			fields[i] = runtime.Field{Name: f.Name, Optional: f.Optional, Pattern: anon(fInner)}
		}
		return anon(runtime.Object(fields)), nil
	case p.Const != nil:
		return anon(runtime.Const(lowerConst(p.Const))), nil
	case p.Ref != nil:
		return lc.lowerTypeRef(p.Ref)
	default:
		return anon(runtime.Anything()), nil
	}
}

func lowerConst(c *dsl.ConstType) *value.Value {
	switch {
	case c.Str != nil:
		return value.NewString(*c.Str)
	case c.Number != nil:
		if *c.Number == float64(int64(*c.Number)) {
			return value.NewInteger(int64(*c.Number))
		}
		return value.NewDecimal(*c.Number)
	case c.Bool != nil:
		return value.NewBoolean(*c.Bool)
	default:
		return value.Null
	}
}

// lowerTypeRef resolves a (possibly generic, possibly postfixed,
// possibly dereferenced) TypeRef to a Pattern. A bare identifier that
// names an in-scope generic parameter lowers to Argument(name) instead of
// a Ref (§4.4: "a pattern's own parameters are resolved via the ambient
// scope, not a slot").
func (lc *lowerCtx) lowerTypeRef(r *dsl.TypeRef) (*runtime.Pattern, error) {
	if len(r.Path) == 1 && !r.Deref && len(r.Args) == 0 && lc.params[r.Path[0]] {
		base := anon(runtime.Argument(r.Path[0]))
		return lc.applyPostfix(base, r.Postfix)
	}

	slot, name, err := lc.resolveSlot(r.Path)
	if err != nil {
		return nil, err
	}

	var bindings runtime.Bindings
	if len(r.Args) > 0 {
		names, err := lc.paramNamesFor(slot)
		if err != nil {
			return nil, err
		}
		patterns := make([]*runtime.Pattern, len(r.Args))
		for i, arg := range r.Args {
			p, err := lc.lowerTypeExpr(arg)
			if err != nil {
				return nil, err
			}
			patterns[i] = anon(p)
		}
		if len(names) != len(patterns) {
			return nil, fmt.Errorf("engine: %s expects %d argument(s), got %d", name, len(names), len(patterns))
		}
		bindings = runtime.NewBindings(names, patterns)
	}

	var primary *runtime.Pattern
	if r.Deref {
		primary = anon(runtime.Deref(anon(runtime.PlainRef(slot, bindings))))
	} else {
		primary = anon(runtime.PlainRef(slot, bindings))
	}
	return lc.applyPostfix(primary, r.Postfix)
}

// paramNamesFor looks up the declared parameter names of the pattern
// occupying slot, fixed during pass 1 before any body is lowered so
// forward and mutually-recursive generic references resolve correctly.
func (lc *lowerCtx) paramNamesFor(slot int) ([]string, error) {
	if slot < 0 || slot >= len(lc.slotParams) {
		return nil, fmt.Errorf("engine: slot %d out of range", slot)
	}
	return lc.slotParams[slot], nil
}

func (lc *lowerCtx) resolveSlot(path []string) (int, runtime.PatternName, error) {
	candidates := lc.candidateNames(path)
	for _, name := range candidates {
		if slot, ok := lc.names[name.String()]; ok {
			return slot, name, nil
		}
	}
	return 0, runtime.PatternName{}, fmt.Errorf("engine: no such pattern %q", runtime.PatternName{Package: path[:len(path)-1], Name: path[len(path)-1]}.String())
}

// candidateNames expands path against the current unit's use-aliases:
// an aliased first segment substitutes the alias's full package path;
// otherwise path is tried as given (absolute from the registry/global
// namespace).
func (lc *lowerCtx) candidateNames(path []string) []runtime.PatternName {
	name := runtime.PatternName{Package: path[:len(path)-1], Name: path[len(path)-1]}
	if len(path) == 1 {
		return []runtime.PatternName{name}
	}
	if full, ok := lc.aliases[path[0]]; ok {
		expanded := append(append([]string(nil), full...), path[1:]...)
		return []runtime.PatternName{
			{Package: expanded[:len(expanded)-1], Name: expanded[len(expanded)-1]},
			name,
		}
	}
	return []runtime.PatternName{name}
}

// applyPostfix chains `.field` and `(refinement)` postfixes onto an
// already-lowered primary, in source order: `P(R).field` refines first,
// then traverses the refined result (§4.1's postfix grammar).
func (lc *lowerCtx) applyPostfix(base *runtime.Pattern, postfix []*dsl.Postfix) (*runtime.Pattern, error) {
	cur := base
	for _, pf := range postfix {
		if pf.Traversal != nil {
			cur = anon(runtime.TraverseOf(cur, *pf.Traversal))
			continue
		}
		// Every Postfix is either a traversal or a refinement (possibly
		// empty, `()`, which participle leaves as a nil TypeExpr).
		var ref *runtime.Pattern
		if pf.Refine == nil {
			ref = anon(runtime.Anything())
		} else {
			inner, err := lc.lowerTypeExpr(pf.Refine)
			if err != nil {
				return nil, err
			}
			ref = anon(inner)
		}
		cur = anon(runtime.RefineOf(cur, ref))
	}
	return cur, nil
}

func (lc *lowerCtx) lowerExpression(e *dsl.Expression) (*runtime.Expression, error) {
	return lc.lowerExprOr(e.Or)
}

func (lc *lowerCtx) lowerExprOr(e *dsl.ExprOr) (*runtime.Expression, error) {
	return foldExpr(e.Terms, runtime.ExprOr, lc.lowerExprAnd)
}

func (lc *lowerCtx) lowerExprAnd(e *dsl.ExprAnd) (*runtime.Expression, error) {
	return foldExpr(e.Terms, runtime.ExprAnd, lc.lowerExprEquality)
}

func foldExpr[T any](terms []T, kind runtime.ExprKind, lower func(T) (*runtime.Expression, error)) (*runtime.Expression, error) {
	exprs := make([]*runtime.Expression, len(terms))
	for i, t := range terms {
		e, err := lower(t)
		if err != nil {
			return nil, err
		}
		exprs[i] = e
	}
	acc := exprs[0]
	for _, e := range exprs[1:] {
		acc = &runtime.Expression{Kind: kind, Left: acc, Right: e}
	}
	return acc, nil
}

func (lc *lowerCtx) lowerExprEquality(e *dsl.ExprEquality) (*runtime.Expression, error) {
	left, err := lc.lowerExprRelational(e.Left)
	if err != nil {
		return nil, err
	}
	if e.Op == nil {
		return left, nil
	}
	right, err := lc.lowerExprRelational(e.Right)
	if err != nil {
		return nil, err
	}
	kind := runtime.ExprEq
	if *e.Op == "!=" {
		kind = runtime.ExprNe
	}
	return &runtime.Expression{Kind: kind, Left: left, Right: right}, nil
}

func (lc *lowerCtx) lowerExprRelational(e *dsl.ExprRelational) (*runtime.Expression, error) {
	left, err := lc.lowerExprAdditive(e.Left)
	if err != nil {
		return nil, err
	}
	if e.Op == nil {
		return left, nil
	}
	right, err := lc.lowerExprAdditive(e.Right)
	if err != nil {
		return nil, err
	}
	var kind runtime.ExprKind
	switch *e.Op {
	case "<":
		kind = runtime.ExprLt
	case "<=":
		kind = runtime.ExprLe
	case ">":
		kind = runtime.ExprGt
	default:
		kind = runtime.ExprGe
	}
	return &runtime.Expression{Kind: kind, Left: left, Right: right}, nil
}

func (lc *lowerCtx) lowerExprAdditive(e *dsl.ExprAdditive) (*runtime.Expression, error) {
	acc, err := lc.lowerExprMultiplicative(e.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range e.Rest {
		term, err := lc.lowerExprMultiplicative(r.Term)
		if err != nil {
			return nil, err
		}
		kind := runtime.ExprAdd
		if r.Op == "-" {
			kind = runtime.ExprSub
		}
		acc = &runtime.Expression{Kind: kind, Left: acc, Right: term}
	}
	return acc, nil
}

func (lc *lowerCtx) lowerExprMultiplicative(e *dsl.ExprMultiplicative) (*runtime.Expression, error) {
	acc, err := lc.lowerExprUnary(e.Left)
	if err != nil {
		return nil, err
	}
	for _, r := range e.Rest {
		term, err := lc.lowerExprUnary(r.Term)
		if err != nil {
			return nil, err
		}
		kind := runtime.ExprMul
		if r.Op == "/" {
			kind = runtime.ExprDiv
		}
		acc = &runtime.Expression{Kind: kind, Left: acc, Right: term}
	}
	return acc, nil
}

func (lc *lowerCtx) lowerExprUnary(e *dsl.ExprUnary) (*runtime.Expression, error) {
	atom, err := lc.lowerExprAtom(e.Atom)
	if err != nil {
		return nil, err
	}
	if e.Not {
		return &runtime.Expression{Kind: runtime.ExprNot, Operand: atom}, nil
	}
	return atom, nil
}

func (lc *lowerCtx) lowerExprAtom(e *dsl.ExprAtom) (*runtime.Expression, error) {
	switch {
	case e.Self:
		return &runtime.Expression{Kind: runtime.ExprSelf}, nil
	case e.Str != nil:
		return &runtime.Expression{Kind: runtime.ExprLiteral, Literal: value.NewString(*e.Str)}, nil
	case e.Number != nil:
		return &runtime.Expression{Kind: runtime.ExprLiteral, Literal: numberLiteral(*e.Number)}, nil
	case e.Bool != nil:
		return &runtime.Expression{Kind: runtime.ExprLiteral, Literal: value.NewBoolean(*e.Bool)}, nil
	case e.Null:
		return &runtime.Expression{Kind: runtime.ExprLiteral, Literal: value.Null}, nil
	case e.Call != nil:
		args := make([]*runtime.Expression, len(e.Call.Args))
		for i, a := range e.Call.Args {
			ae, err := lc.lowerExpression(a)
			if err != nil {
				return nil, err
			}
			args[i] = ae
		}
		return &runtime.Expression{Kind: runtime.ExprFunction, FunctionName: e.Call.Name, Args: args}, nil
	case e.Group != nil:
		return lc.lowerExpression(e.Group)
	default:
		return &runtime.Expression{Kind: runtime.ExprLiteral, Literal: value.Null}, nil
	}
}

func numberLiteral(f float64) *value.Value {
	if f == float64(int64(f)) {
		return value.NewInteger(int64(f))
	}
	return value.NewDecimal(f)
}
