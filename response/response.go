// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package response renders an EvaluationResult into a presentation-facing
// tree, grounded on the upstream engine's runtime/response module
// (original_source engine/src/runtime/response/{mod.rs,collector.rs}): a
// JSON-serializable Response carrying only the fields a caller asked to see
// (Filter), with a child Rationale tree that can be flattened to just the
// failing leaves (Collapse/Collector).
package response

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/seedwing/policy-engine/runtime"
)

// Name is a Response's externally tagged identity: either the pattern that
// produced it, or the object field name it was nested under (§4.8).
type Name struct {
	field   string
	pattern *runtime.PatternName
}

// PatternNameOf builds a Name from the pattern that produced a Response, or
// the zero Name if p is nil (an anonymous pattern has no reportable name).
func PatternNameOf(p *runtime.PatternName) Name {
	if p == nil || p.String() == "" {
		return Name{}
	}
	return Name{pattern: p}
}

// FieldNameOf builds a Name for a Response nested under an object field.
func FieldNameOf(field string) Name { return Name{field: field} }

func (n Name) isEmpty() bool { return n.field == "" && n.pattern == nil }

// String renders the name for sorting/display: the field name, the pattern
// name, or "" for an empty Name — matching the upstream Display impl used
// to order sibling field rationales.
func (n Name) String() string {
	if n.field != "" {
		return n.field
	}
	if n.pattern != nil {
		return n.pattern.String()
	}
	return ""
}

func (n Name) MarshalJSON() ([]byte, error) {
	if n.field != "" {
		return json.Marshal(map[string]string{"field": n.field})
	}
	if n.pattern != nil {
		return json.Marshal(map[string]string{"pattern": n.pattern.String()})
	}
	return json.Marshal(map[string]any{"pattern": nil})
}

// fieldOrder fixes Filter's accepted field names and Response's own JSON
// encoding order (§4.8).
var fieldOrder = []string{"name", "bindings", "input", "output", "severity", "reason", "authoritative", "rationale"}

// Response is one node of the rendered evaluation tree (§4.8). Every field
// is optional: New populates all of them, Filter narrows to a requested
// subset, and the zero Response serializes as `{}`.
type Response struct {
	name          *Name
	hasName       bool
	bindings      map[string]any
	hasBindings   bool
	input         any
	hasInput      bool
	output        any
	hasOutput     bool
	severity      runtime.Severity
	hasSeverity   bool
	reason        string
	hasReason     bool
	authoritative bool
	hasAuth       bool
	rationale     []*Response
	hasRationale  bool
}

// New renders result into a Response carrying every field (§4.8), mirroring
// Response::new in the upstream engine.
func New(result *runtime.EvaluationResult) *Response {
	rationale := result.Rationale
	bindings := runtime.Bindings{}
	if rationale != nil && rationale.Kind == runtime.RationaleBound {
		bindings = rationale.Bindings
		rationale = rationale.Inner
	}

	var pname *runtime.PatternName
	if result.Pattern != nil {
		pname = result.Pattern.Name
	}
	r := &Response{}
	r.setName(PatternNameOf(pname))
	r.setBindings(renderBindings(bindings))
	r.setInput(result.Input.ToJSON())
	if result.Severity != runtime.SeverityError {
		if out := result.Output.Resolve(result.Input); out != nil {
			r.setOutput(out.ToJSON())
		}
	}
	r.setSeverity(result.Severity)
	r.setReason(reasonFor(result.Pattern, rationale))
	r.setAuthoritative(result.Pattern != nil && result.Pattern.Metadata.Authoritative)
	r.setRationale(support(rationale))
	return r
}

func reasonFor(p *runtime.Pattern, rationale *runtime.Rationale) string {
	if p != nil && p.Metadata.HasReason {
		return p.Metadata.Reason
	}
	return rationale.DefaultReason()
}

func renderBindings(b runtime.Bindings) map[string]any {
	if b.Len() == 0 {
		return nil
	}
	out := make(map[string]any, b.Len())
	for _, name := range b.Names() {
		p, ok := b.Get(name)
		if !ok {
			continue
		}
		out[name] = p.Describe().ToJSON()
	}
	return out
}

// support renders a Rationale's sub-results into child Responses (§4.8): an
// Object's fields (a field result with no rationale children of its own is
// wrapped in a node carrying the field Name, with the result nested one
// level deeper; any other field result is appended as it is), a
// List/Chain/Function's supporting terms, and Bound's inner
// rationale transparently (Bound itself was already unwrapped by New).
func support(rationale *runtime.Rationale) []*Response {
	if rationale == nil {
		return nil
	}
	switch rationale.Kind {
	case runtime.RationaleObject:
		var out []*Response
		for _, f := range rationale.ObjectFields {
			if f.Result == nil {
				continue
			}
			v := New(f.Result)
			if len(v.rationale) == 0 {
				x := *v
				x.setName(FieldNameOf(f.Name))
				x.setSeverity(f.Result.Severity)
				x.setReason(reasonFor(f.Result.Pattern, ratOf(f.Result)))
				x.setRationale([]*Response{v})
				out = append(out, &x)
			} else {
				out = append(out, v)
			}
		}
		sort.Slice(out, func(i, j int) bool { return nameOf(out[i]).String() < nameOf(out[j]).String() })
		return out
	case runtime.RationaleList, runtime.RationaleChain:
		out := make([]*Response, len(rationale.Children))
		for i, c := range rationale.Children {
			out[i] = New(c)
		}
		return out
	case runtime.RationaleFunction:
		out := make([]*Response, len(rationale.Supporting))
		for i, c := range rationale.Supporting {
			out[i] = New(c)
		}
		return out
	default:
		return nil
	}
}

func ratOf(r *runtime.EvaluationResult) *runtime.Rationale {
	if r.Rationale != nil && r.Rationale.Kind == runtime.RationaleBound {
		return r.Rationale.Inner
	}
	return r.Rationale
}

func nameOf(r *Response) Name {
	if r.name == nil {
		return Name{}
	}
	return *r.name
}

func (r *Response) setName(n Name) {
	if n.isEmpty() {
		return
	}
	r.name, r.hasName = &n, true
}

func (r *Response) setBindings(v map[string]any) {
	if len(v) == 0 {
		return
	}
	r.bindings, r.hasBindings = v, true
}

func (r *Response) setInput(v any) { r.input, r.hasInput = v, true }

func (r *Response) setOutput(v any) {
	if v == nil {
		return
	}
	r.output, r.hasOutput = v, true
}

func (r *Response) setSeverity(v runtime.Severity) { r.severity, r.hasSeverity = v, true }

func (r *Response) setReason(v string) {
	if v == "" {
		return
	}
	r.reason, r.hasReason = v, true
}

func (r *Response) setAuthoritative(v bool) {
	if !v {
		return
	}
	r.authoritative, r.hasAuth = v, true
}

func (r *Response) setRationale(v []*Response) {
	if len(v) == 0 {
		return
	}
	r.rationale, r.hasRationale = v, true
}

// Name returns the response's name, and whether one was set.
func (r *Response) Name() (Name, bool) {
	if r.name == nil {
		return Name{}, false
	}
	return *r.name, true
}

// Severity returns the response's recorded severity, and whether it was set.
func (r *Response) Severity() (runtime.Severity, bool) { return r.severity, r.hasSeverity }

// Authoritative reports whether the producing pattern was marked
// authoritative (§4.8's Collector stopping condition).
func (r *Response) Authoritative() bool { return r.authoritative }

// Rationale returns the response's child rationale tree.
func (r *Response) Rationale() []*Response { return r.rationale }

// satisfied reports whether r counts as satisfied relative to threshold: its
// own recorded severity must be strictly below threshold (§4.8's Collector;
// mirrors the upstream Response::satisfied).
func (r *Response) satisfied(threshold runtime.Severity) bool {
	return !r.hasSeverity || r.severity < threshold
}

// WalkTree visits r and, while f returns true, recurses into its rationale
// children in order (§4.8).
func (r *Response) WalkTree(f func(*Response) bool) {
	if f(r) {
		for _, child := range r.rationale {
			child.WalkTree(f)
		}
	}
}

// Collapse replaces r's rationale tree with Collector's flattened result at
// severity, the shorthand for `Collector(r).WithSeverity(severity).Collect()`
// (§4.8).
func (r *Response) Collapse(severity runtime.Severity) *Response {
	x := *r
	collected := NewCollector(&x).WithSeverity(severity).Collect()
	x.rationale, x.hasRationale = collected, len(collected) > 0
	return &x
}

// Filter returns a copy of r containing only the comma-separated field
// names listed in fields (case-insensitive), recursively applied to any
// retained rationale children (§4.8).
func (r *Response) Filter(fields string) *Response {
	wanted := map[string]bool{}
	for _, f := range strings.Split(strings.ToLower(strings.TrimSpace(fields)), ",") {
		wanted[strings.TrimSpace(f)] = true
	}
	return r.filter(wanted)
}

func (r *Response) filter(wanted map[string]bool) *Response {
	out := &Response{}
	if wanted["name"] && r.hasName {
		out.name, out.hasName = r.name, true
	}
	if wanted["bindings"] && r.hasBindings {
		out.bindings, out.hasBindings = r.bindings, true
	}
	if wanted["input"] && r.hasInput {
		out.input, out.hasInput = r.input, true
	}
	if wanted["output"] && r.hasOutput {
		out.output, out.hasOutput = r.output, true
	}
	if wanted["severity"] && r.hasSeverity {
		out.severity, out.hasSeverity = r.severity, true
	}
	if wanted["reason"] && r.hasReason {
		out.reason, out.hasReason = r.reason, true
	}
	if wanted["authoritative"] && r.hasAuth {
		out.authoritative, out.hasAuth = r.authoritative, true
	}
	if wanted["rationale"] && r.hasRationale {
		filtered := make([]*Response, len(r.rationale))
		for i, c := range r.rationale {
			filtered[i] = c.filter(wanted)
		}
		out.rationale, out.hasRationale = filtered, true
	}
	return out
}

// MarshalJSON renders exactly the fields that were set, in fieldOrder, as a
// flat JSON object (§4.8: the upstream engine's `#[serde(flatten)]` map).
func (r *Response) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	write := func(key string, v any) error {
		if !first {
			b.WriteByte(',')
		}
		first = false
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		b.WriteByte('"')
		b.WriteString(key)
		b.WriteString(`":`)
		b.Write(raw)
		return nil
	}
	for _, f := range fieldOrder {
		var err error
		switch f {
		case "name":
			if r.hasName {
				err = write(f, r.name)
			}
		case "bindings":
			if r.hasBindings {
				err = write(f, r.bindings)
			}
		case "input":
			if r.hasInput {
				err = write(f, r.input)
			}
		case "output":
			if r.hasOutput {
				err = write(f, r.output)
			}
		case "severity":
			if r.hasSeverity {
				err = write(f, r.severity.String())
			}
		case "reason":
			if r.hasReason {
				err = write(f, r.reason)
			}
		case "authoritative":
			if r.hasAuth {
				err = write(f, r.authoritative)
			}
		case "rationale":
			if r.hasRationale {
				err = write(f, r.rationale)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}
