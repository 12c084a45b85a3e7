// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package engine is the root facade: it lowers parsed Dogma
// (dsl.CompilationUnit) across one or more packages into a runtime.World,
// and wires the default standard-library registry (§4.2, §6). This is the
// MIR/LIR builder the rest of the module's packages (dsl, runtime, data,
// stdlib/*) exist to serve.
package engine

import (
	"github.com/seedwing/policy-engine/dsl"
	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/source"
)

// Unit is one source file handed to a Builder: the package path it
// belongs to (e.g. "my::policies"), a diagnostic name, and its Dogma text.
type Unit struct {
	Package string
	Name    string
	Text    string
}

// Builder accumulates Units and lowers them into a World in two passes:
// first every PatternDef across every Unit is assigned a dense slot (so
// forward and mutually-recursive references resolve), then each
// PatternDef's body is lowered into the Pattern occupying that slot
// (§4.2: "monotonic and deterministic").
type Builder struct {
	registry *runtime.Registry
	cache    *source.Cache
	trace    runtime.TraceConfig

	units []*parsedUnit
}

type parsedUnit struct {
	pkg  []string
	loc  source.Location
	unit *dsl.CompilationUnit
}

// NewBuilder creates a Builder backed by registry (typically
// DefaultRegistry()).
func NewBuilder(registry *runtime.Registry) *Builder {
	return &Builder{registry: registry, cache: source.NewCache()}
}

// WithTrace enables the evaluator's tracing envelope on the built World.
func (b *Builder) WithTrace(enabled bool) *Builder {
	b.trace.Enabled = enabled
	return b
}

// Add parses u.Text and queues it for lowering. Parse errors are returned
// immediately as a single wrapped error (§7).
func (b *Builder) Add(u Unit) error {
	var pkg []string
	if u.Package != "" {
		pkg = splitPath(u.Package)
	}
	loc := source.Location{Name: u.Name}
	unit, errs := dsl.Parse(b.cache, loc, u.Text)
	if len(errs) > 0 {
		return dsl.Build(errs)
	}
	b.units = append(b.units, &parsedUnit{pkg: pkg, loc: loc, unit: unit})
	return nil
}

func splitPath(s string) []string {
	var parts []string
	start := 0
	for i := 0; i+1 < len(s); i++ {
		if s[i] == ':' && s[i+1] == ':' {
			parts = append(parts, s[start:i])
			start = i + 2
			i++
		}
	}
	parts = append(parts, s[start:])
	return parts
}
