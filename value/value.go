// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package value defines the canonical runtime representation of JSON-like
// data evaluated by the policy engine: a tagged sum of null, boolean,
// integer, decimal, string, octet string, list, and object, all immutable
// after construction and shared by reference.
package value

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind identifies the tag of a Value.
type Kind int

// Kind constants name every variant of the Value sum type.
const (
	KindNull Kind = iota
	KindBoolean
	KindInteger
	KindDecimal
	KindString
	KindOctets
	KindList
	KindObject
)

var kindNames = [...]string{
	"null", "boolean", "integer", "decimal", "string", "octets", "list", "object",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Value is the immutable, structurally-equal runtime value. The zero Value
// is Null. Values are constructed through the New* helpers and never
// mutated afterward; List and Object share their backing storage by
// reference, which is safe only because nothing ever writes through it.
type Value struct {
	kind    Kind
	boolean bool
	integer int64
	decimal float64
	str     string
	octets  []byte
	list    []*Value
	object  *Object
}

// Object is an insertion-order-preserving string-keyed mapping. Keys are
// looked up in O(1) via the index map; Keys() preserves declaration order
// for rendering and rationale construction.
type Object struct {
	keys   []string
	lookup map[string]*Value
}

// NewObject creates an empty, ready-to-populate Object.
func NewObject() *Object {
	return &Object{lookup: make(map[string]*Value)}
}

// Set inserts or replaces the value at key, preserving first-insertion order.
func (o *Object) Set(key string, v *Value) {
	if _, exists := o.lookup[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.lookup[key] = v
}

// Get returns the value at key and whether it was present.
func (o *Object) Get(key string) (*Value, bool) {
	v, ok := o.lookup[key]
	return v, ok
}

// Keys returns the object's keys in insertion order. The returned slice
// must not be mutated by callers.
func (o *Object) Keys() []string { return o.keys }

// Len returns the number of fields.
func (o *Object) Len() int { return len(o.keys) }

// Null is the shared Null value.
var Null = &Value{kind: KindNull}

// NewBoolean constructs a Boolean value.
func NewBoolean(b bool) *Value { return &Value{kind: KindBoolean, boolean: b} }

// NewInteger constructs an Integer value.
func NewInteger(i int64) *Value { return &Value{kind: KindInteger, integer: i} }

// NewDecimal constructs a Decimal value.
func NewDecimal(d float64) *Value { return &Value{kind: KindDecimal, decimal: d} }

// NewString constructs a String value.
func NewString(s string) *Value { return &Value{kind: KindString, str: s} }

// NewOctets constructs an Octets value. The byte slice is not copied; callers
// must not mutate it after handing it to NewOctets.
func NewOctets(b []byte) *Value { return &Value{kind: KindOctets, octets: b} }

// NewList constructs a List value from an ordered sequence of elements. The
// slice is not copied; callers must not mutate it afterward.
func NewList(items []*Value) *Value { return &Value{kind: KindList, list: items} }

// NewObjectValue wraps an Object as a Value.
func NewObjectValue(o *Object) *Value { return &Value{kind: KindObject, object: o} }

// Kind returns the value's tag.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether v is the Null variant.
func (v *Value) IsNull() bool { return v.Kind() == KindNull }

// Boolean returns the boolean payload and whether v is a Boolean.
func (v *Value) Boolean() (bool, bool) {
	if v == nil || v.kind != KindBoolean {
		return false, false
	}
	return v.boolean, true
}

// Integer returns the integer payload and whether v is an Integer.
func (v *Value) Integer() (int64, bool) {
	if v == nil || v.kind != KindInteger {
		return 0, false
	}
	return v.integer, true
}

// Decimal returns the decimal payload and whether v is a Decimal.
func (v *Value) Decimal() (float64, bool) {
	if v == nil || v.kind != KindDecimal {
		return 0, false
	}
	return v.decimal, true
}

// AsNumber returns v's numeric payload as a float64 for either Integer or
// Decimal, promoting Integer to Decimal, matching the expression evaluator's
// numeric-comparison rule (§4.6 / §3 Expression).
func (v *Value) AsNumber() (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch v.kind {
	case KindInteger:
		return float64(v.integer), true
	case KindDecimal:
		return v.decimal, true
	default:
		return 0, false
	}
}

// String returns the string payload and whether v is a String.
func (v *Value) String() (string, bool) {
	if v == nil || v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Octets returns the octet payload and whether v is Octets.
func (v *Value) Octets() ([]byte, bool) {
	if v == nil || v.kind != KindOctets {
		return nil, false
	}
	return v.octets, true
}

// List returns the element slice and whether v is a List. The returned
// slice must not be mutated.
func (v *Value) List() ([]*Value, bool) {
	if v == nil || v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// Object returns the Object payload and whether v is an Object.
func (v *Value) Object() (*Object, bool) {
	if v == nil || v.kind != KindObject {
		return nil, false
	}
	return v.object, true
}

// Equal reports structural equality between two values, per §3's "equality
// is structural" rule. Integer/Decimal do not interconvert for equality —
// that promotion is an expression-evaluator-only rule (§3 Expression).
func (v *Value) Equal(other *Value) bool {
	if v == nil {
		v = Null
	}
	if other == nil {
		other = Null
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBoolean:
		return v.boolean == other.boolean
	case KindInteger:
		return v.integer == other.integer
	case KindDecimal:
		return v.decimal == other.decimal
	case KindString:
		return v.str == other.str
	case KindOctets:
		if len(v.octets) != len(other.octets) {
			return false
		}
		for i := range v.octets {
			if v.octets[i] != other.octets[i] {
				return false
			}
		}
		return true
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if v.object.Len() != other.object.Len() {
			return false
		}
		for _, k := range v.object.Keys() {
			ov, ok := other.object.Get(k)
			if !ok {
				return false
			}
			vv, _ := v.object.Get(k)
			if !vv.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// FromJSON converts a decoded JSON value (as produced by encoding/json's
// UseNumber-enabled Decoder, or plain map[string]any/[]any/etc.) into a
// Value. JSON numbers that are integer-valued become Integer; all others
// become Decimal, per §3.
func FromJSON(raw any) (*Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null, nil
	case bool:
		return NewBoolean(t), nil
	case string:
		return NewString(t), nil
	case json.Number:
		return numberFromJSONNumber(t)
	case float64:
		if t == float64(int64(t)) {
			return NewInteger(int64(t)), nil
		}
		return NewDecimal(t), nil
	case int:
		return NewInteger(int64(t)), nil
	case int64:
		return NewInteger(t), nil
	case []any:
		items := make([]*Value, 0, len(t))
		for _, e := range t {
			ev, err := FromJSON(e)
			if err != nil {
				return nil, err
			}
			items = append(items, ev)
		}
		return NewList(items), nil
	case map[string]any:
		obj := NewObject()
		// A Go map has no key order, so keys are sorted for a deterministic
		// result; the key order of the original JSON text is not preserved.
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fv, err := FromJSON(t[k])
			if err != nil {
				return nil, err
			}
			obj.Set(k, fv)
		}
		return NewObjectValue(obj), nil
	default:
		return nil, fmt.Errorf("value: unsupported JSON representation %T", raw)
	}
}

func numberFromJSONNumber(n json.Number) (*Value, error) {
	if i, err := n.Int64(); err == nil {
		return NewInteger(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("value: invalid JSON number %q: %w", n.String(), err)
	}
	if f == float64(int64(f)) {
		return NewInteger(int64(f)), nil
	}
	return NewDecimal(f), nil
}

// ToJSON converts v back into a plain json.Marshal-able Go value, for
// Response serialization and test assertions.
func (v *Value) ToJSON() any {
	if v == nil {
		return nil
	}
	switch v.kind {
	case KindNull:
		return nil
	case KindBoolean:
		return v.boolean
	case KindInteger:
		return v.integer
	case KindDecimal:
		return v.decimal
	case KindString:
		return v.str
	case KindOctets:
		return v.octets
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.ToJSON()
		}
		return out
	case KindObject:
		out := make(map[string]any, v.object.Len())
		for _, k := range v.object.Keys() {
			fv, _ := v.object.Get(k)
			out[k] = fv.ToJSON()
		}
		return out
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v *Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToJSON())
}
