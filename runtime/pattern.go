// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package runtime

import "github.com/seedwing/policy-engine/value"

// Sugar records which surface syntax, if any, produced a Ref node, so
// rendering and rationale presentation can reconstruct the original form
// (§3: "sugar records the surface form that produced a Ref").
type Sugar int

const (
	SugarNone Sugar = iota
	SugarAnd
	SugarOr
	SugarRefine
	SugarTraverse
	SugarChain
	SugarNot
)

func (s Sugar) String() string {
	switch s {
	case SugarAnd:
		return "and"
	case SugarOr:
		return "or"
	case SugarRefine:
		return "refine"
	case SugarTraverse:
		return "traverse"
	case SugarChain:
		return "chain"
	case SugarNot:
		return "not"
	default:
		return "none"
	}
}

// PrimordialKind names Primordial's base-type alternatives (§3).
type PrimordialKind int

const (
	PrimordialInteger PrimordialKind = iota
	PrimordialDecimal
	PrimordialBoolean
	PrimordialString
	PrimordialFunction
)

// Metadata is the documentation and behavioral annotations attached to a
// Pattern (§3): documentation, severity override, deprecation, the
// authoritative flag consulted by the rationale Collector, the unstable
// flag (informational only, §9), and an explicit reason override.
type Metadata struct {
	Doc               string
	Reason            string
	HasReason         bool
	SeverityOverride  Severity
	HasSeverityOverride bool
	Authoritative     bool
	Unstable          bool
	DeprecatedSince   string
	DeprecatedReason  string
	Deprecated        bool
}

// Field is one declared member of an Object pattern (§3).
type Field struct {
	Name     string
	Optional bool
	Pattern  *Pattern
}

// Bindings is an ordered mapping from parameter name to pattern (§3). A
// Bound node replaces Argument(name) subtrees of its primary with the
// bound pattern during evaluation.
type Bindings struct {
	names    []string
	patterns map[string]*Pattern
}

// NewBindings builds a Bindings from parallel name/pattern slices,
// preserving declaration order.
func NewBindings(names []string, patterns []*Pattern) Bindings {
	b := Bindings{names: append([]string(nil), names...), patterns: make(map[string]*Pattern, len(names))}
	for i, n := range names {
		if i < len(patterns) {
			b.patterns[n] = patterns[i]
		}
	}
	return b
}

// Len reports the number of bound parameters.
func (b Bindings) Len() int { return len(b.names) }

// Get resolves a parameter name to its bound pattern.
func (b Bindings) Get(name string) (*Pattern, bool) {
	p, ok := b.patterns[name]
	return p, ok
}

// Names returns the bound parameter names in declaration order.
func (b Bindings) Names() []string { return b.names }

// bindingScope is a small stack of Bindings shadowing outer scopes, pushed
// on Bound evaluation and popped on exit (§9: "a small stack-allocated map
// that shadows outer scopes").
type bindingScope struct {
	frames []Bindings
}

// EmptyScope returns a fresh, empty binding scope, for stdlib functions that
// need to recursively evaluate a bound Pattern argument outside of any
// enclosing Bound frame.
func EmptyScope() *bindingScope { return &bindingScope{} }

func (s *bindingScope) push(b Bindings) *bindingScope {
	return &bindingScope{frames: append(append([]Bindings(nil), s.frames...), b)}
}

func (s *bindingScope) resolve(name string) (*Pattern, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if p, ok := s.frames[i].Get(name); ok {
			return p, true
		}
	}
	return nil, false
}

// flatten merges every frame into one Bindings, innermost frame winning on
// name collision, for handing to a Function.Call (§4.5: "the current
// bindings").
func (s *bindingScope) flatten() Bindings {
	merged := map[string]*Pattern{}
	var order []string
	for _, frame := range s.frames {
		for _, name := range frame.Names() {
			if _, seen := merged[name]; !seen {
				order = append(order, name)
			}
			p, _ := frame.Get(name)
			merged[name] = p
		}
	}
	patterns := make([]*Pattern, len(order))
	for i, name := range order {
		patterns[i] = merged[name]
	}
	return NewBindings(order, patterns)
}

// Inner is the tagged sum of pattern shapes (§3). kind selects the shape;
// the constructor functions below (Anything, Const, Object, PlainRef,
// AndRef, Bound, …) set kind and only the fields that shape uses.
type Inner struct {
	kind innerKind

	// Primordial
	primordialKind PrimordialKind
	function       Function

	// Const
	constValue *value.Value

	// Object
	fields []Field

	// List
	elements []*Pattern

	// Ref. slot resolves to a valid World slot for SugarNone/SugarRefine/
	// SugarTraverse/SugarNot (the reference always has a single primary);
	// SugarAnd/SugarOr/SugarChain instead carry their flat operand list in
	// terms and leave slot at -1, since "A && B && C" has no single
	// primary pattern being referenced (a deliberate generalization of the
	// upstream model, recorded in DESIGN.md).
	sugar    Sugar
	slot     int
	bindings Bindings
	terms    []*Pattern // operands for And/Or/Chain; the refinement for Refine
	field    string     // target field name for Traverse

	// primaryPattern overrides slot-based primary resolution for a
	// Refine/Traverse/Not node chained directly onto another postfix's
	// result rather than a bare world-slot reference (slot stays -1 when
	// this is set); see RefineOf/TraverseOf/NotOf.
	primaryPattern *Pattern

	// Bound
	boundPrimary  *Pattern
	boundBindings Bindings

	// Deref
	derefPattern *Pattern

	// Argument
	argumentName string

	// Expr
	expr *Expression
}

type innerKind int

const (
	innerAnything innerKind = iota
	innerNothing
	innerPrimordial
	innerConst
	innerObject
	innerList
	innerRef
	innerBound
	innerDeref
	innerArgument
	innerExpr
)

func Anything() Inner { return Inner{kind: innerAnything} }
func Nothing() Inner  { return Inner{kind: innerNothing} }

func PrimordialType(k PrimordialKind) Inner {
	return Inner{kind: innerPrimordial, primordialKind: k}
}

func PrimordialFn(fn Function) Inner {
	return Inner{kind: innerPrimordial, primordialKind: PrimordialFunction, function: fn}
}

func Const(v *value.Value) Inner { return Inner{kind: innerConst, constValue: v} }

func Object(fields []Field) Inner { return Inner{kind: innerObject, fields: fields} }

func List(elements []*Pattern) Inner { return Inner{kind: innerList, elements: elements} }

// PlainRef constructs an ordinary (non-sugar) reference to the pattern at
// slot, optionally with generic-parameter bindings (e.g. `named<"Jim">`).
func PlainRef(slot int, bindings Bindings) Inner {
	return Inner{kind: innerRef, sugar: SugarNone, slot: slot, bindings: bindings}
}

// AndRef constructs the desugared form of `A && B && …`.
func AndRef(terms []*Pattern) Inner {
	return Inner{kind: innerRef, sugar: SugarAnd, slot: -1, terms: terms}
}

// OrRef constructs the desugared form of `A || B || …`.
func OrRef(terms []*Pattern) Inner {
	return Inner{kind: innerRef, sugar: SugarOr, slot: -1, terms: terms}
}

// ChainRef constructs the desugared form of `A | B | …`.
func ChainRef(terms []*Pattern) Inner {
	return Inner{kind: innerRef, sugar: SugarChain, slot: -1, terms: terms}
}

// RefineRef constructs the desugared form of `P(R)`: a reference to P at
// slot, refined by R.
func RefineRef(slot int, bindings Bindings, refinement *Pattern) Inner {
	return Inner{kind: innerRef, sugar: SugarRefine, slot: slot, bindings: bindings, terms: []*Pattern{refinement}}
}

// TraverseRef constructs the desugared form of `P.field`.
func TraverseRef(slot int, bindings Bindings, field string) Inner {
	return Inner{kind: innerRef, sugar: SugarTraverse, slot: slot, bindings: bindings, field: field}
}

// NotRef constructs the desugared form of `!P`.
func NotRef(slot int, bindings Bindings) Inner {
	return Inner{kind: innerRef, sugar: SugarNot, slot: slot, bindings: bindings}
}

// RefineOf, TraverseOf, and NotOf are RefineRef/TraverseRef/NotRef's
// counterparts for a primary that is not itself a bare world-slot
// reference — e.g. `P(R).field`, where `.field` chains onto the already-
// built refinement rather than onto a fresh TypeRef. slot stays -1;
// resolveSlot prefers primaryPattern over a slot lookup when set.
func RefineOf(primary *Pattern, refinement *Pattern) Inner {
	return Inner{kind: innerRef, sugar: SugarRefine, slot: -1, primaryPattern: primary, terms: []*Pattern{refinement}}
}

func TraverseOf(primary *Pattern, field string) Inner {
	return Inner{kind: innerRef, sugar: SugarTraverse, slot: -1, primaryPattern: primary, field: field}
}

func NotOf(primary *Pattern) Inner {
	return Inner{kind: innerRef, sugar: SugarNot, slot: -1, primaryPattern: primary}
}

func Bound(primary *Pattern, bindings Bindings) Inner {
	return Inner{kind: innerBound, boundPrimary: primary, boundBindings: bindings}
}

func Deref(p *Pattern) Inner { return Inner{kind: innerDeref, derefPattern: p} }

func Argument(name string) Inner { return Inner{kind: innerArgument, argumentName: name} }

func Expr(e *Expression) Inner { return Inner{kind: innerExpr, expr: e} }

// Pattern is the immutable LIR record (§3): an optional name, metadata,
// ordered parameter names, ordered examples, and an Inner shape.
type Pattern struct {
	Name     *PatternName
	Metadata Metadata
	Params   []string
	Examples []*value.Value
	Inner    Inner
}

// NewPattern constructs an immutable Pattern. Builders own filling in
// Name/Metadata/Params/Examples; Inner is fixed at construction.
func NewPattern(name *PatternName, meta Metadata, params []string, examples []*value.Value, inner Inner) *Pattern {
	return &Pattern{Name: name, Metadata: meta, Params: params, Examples: examples, Inner: inner}
}

// DisplayName renders the pattern's name, or "<anonymous>" if unnamed.
func (p *Pattern) DisplayName() string {
	if p.Name == nil {
		return "<anonymous>"
	}
	return p.Name.String()
}

// ConstValue returns the literal value of a Const pattern, and whether p is
// one. Standard-library functions use this to read literal generic-parameter
// arguments (e.g. the "foo" in `string::regexp<"foo">`) without evaluating
// them, since a bound parameter's literal shape, not its satisfaction
// against some arbitrary input, is what the function needs.
func (p *Pattern) ConstValue() (*value.Value, bool) {
	if p.Inner.kind != innerConst {
		return nil, false
	}
	return p.Inner.constValue, true
}

// ListElements returns a List pattern's element sub-patterns, and whether p
// is one.
func (p *Pattern) ListElements() ([]*Pattern, bool) {
	if p.Inner.kind != innerList {
		return nil, false
	}
	return p.Inner.elements, true
}
