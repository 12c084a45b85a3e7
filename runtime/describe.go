// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package runtime

import "github.com/seedwing/policy-engine/value"

// Describe renders p as a JSON-friendly value.Value for display in a
// response's bindings map (§4.8's "bindings" field), a simplified
// adaptation of the upstream engine's response-rendering `display`
// helper (original_source engine/src/runtime/response/mod.rs): a named
// reference renders as its name, a literal as its value, an object/list as
// the recursive rendering of its members, and a Bound pattern as a
// [name, bindings] pair.
func (p *Pattern) Describe() *value.Value {
	switch p.Inner.kind {
	case innerConst:
		return p.Inner.constValue
	case innerObject:
		obj := value.NewObject()
		for _, f := range p.Inner.fields {
			obj.Set(f.Name, f.Pattern.Describe())
		}
		return value.NewObjectValue(obj)
	case innerList:
		items := make([]*value.Value, len(p.Inner.elements))
		for i, e := range p.Inner.elements {
			items[i] = e.Describe()
		}
		return value.NewList(items)
	case innerRef:
		switch p.Inner.sugar {
		case SugarAnd, SugarOr, SugarChain:
			items := make([]*value.Value, len(p.Inner.terms))
			for i, t := range p.Inner.terms {
				items[i] = t.Describe()
			}
			return value.NewList(items)
		}
		if p.Name != nil {
			return value.NewString(p.Name.String())
		}
		return value.NewString(p.DisplayName())
	case innerBound:
		bound := value.NewObject()
		for _, name := range p.Inner.boundBindings.Names() {
			bp, ok := p.Inner.boundBindings.Get(name)
			if !ok {
				continue
			}
			bound.Set(name, bp.Describe())
		}
		return value.NewList([]*value.Value{
			value.NewString(p.Inner.boundPrimary.DisplayName()),
			value.NewObjectValue(bound),
		})
	case innerDeref:
		return p.Inner.derefPattern.Describe()
	case innerArgument:
		return value.NewString(p.Inner.argumentName)
	case innerPrimordial:
		if p.Inner.primordialKind == PrimordialFunction {
			return value.NewString("function")
		}
		return value.NewString(primordialKindName(p.Inner.primordialKind))
	default:
		return value.NewString(p.DisplayName())
	}
}

func primordialKindName(k PrimordialKind) string {
	switch k {
	case PrimordialInteger:
		return "integer"
	case PrimordialDecimal:
		return "decimal"
	case PrimordialBoolean:
		return "boolean"
	case PrimordialString:
		return "string"
	default:
		return "function"
	}
}
