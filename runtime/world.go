// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package runtime

import (
	"sort"
	"strings"

	"github.com/seedwing/policy-engine/data"
	"github.com/seedwing/policy-engine/value"
)

// PatternName is a fully qualified `package::name`, where package is an
// optional ::-separated path (§3). Root patterns have an empty Package.
type PatternName struct {
	Package []string
	Name    string
}

// ParsePatternName splits a `pkg::sub::name` string into a PatternName.
func ParsePatternName(s string) PatternName {
	parts := strings.Split(s, "::")
	if len(parts) == 1 {
		return PatternName{Name: parts[0]}
	}
	return PatternName{Package: parts[:len(parts)-1], Name: parts[len(parts)-1]}
}

func (n PatternName) String() string {
	if len(n.Package) == 0 {
		return n.Name
	}
	return strings.Join(n.Package, "::") + "::" + n.Name
}

// PackagePath is a ::-separated sequence of path segments addressing a
// package (as opposed to a single pattern within one).
type PackagePath []string

func (p PackagePath) String() string { return strings.Join(p, "::") }

// Component is what World.Get resolves a path to: either a single pattern
// slot or a module handle listing what's nested beneath that path prefix
// (§9 / original_source engine/src/runtime/mod.rs).
type Component struct {
	Pattern *ComponentPattern
	Module  *ModuleHandle
}

// ComponentPattern is the Pattern-resolution half of Component.
type ComponentPattern struct {
	Name PatternName
	Slot int
}

// ModuleHandle lists the immediate child packages and patterns nested
// under a package-path prefix, for module-browsing consumers (the HTTP
// module endpoint is out of scope, but this data shape is carried per
// SPEC_FULL.md's supplemental-features section).
type ModuleHandle struct {
	Path     PackagePath
	Modules  []string      // immediate child package segments
	Patterns []PatternName // patterns directly in this package
}

// World is the immutable, slot-indexed universe of compiled patterns
// (§3). It is built once via a Builder (the root `engine` package) and
// never mutated afterward.
type World struct {
	names    map[string]int // PatternName.String() -> slot
	slots    []*Pattern
	trace    TraceConfig
	data     data.Sources
	config   *data.Config
	registry *Registry
}

// TraceConfig toggles the evaluator's tracing envelope (§4.4).
type TraceConfig struct {
	Enabled bool
}

// NewWorld assembles a World from a dense, already-slot-ordered pattern
// table and a name-to-slot index. Builders are responsible for ensuring
// every Ref's slot index is valid (§3 invariant) before calling NewWorld;
// World itself does not re-validate on construction, matching the
// upstream engine's "monotonic and deterministic" build pipeline (§4.2).
func NewWorld(slots []*Pattern, names map[string]int, trace TraceConfig, sources data.Sources, cfg *data.Config, registry *Registry) *World {
	if cfg == nil {
		cfg = data.NewConfig(nil)
	}
	return &World{names: names, slots: slots, trace: trace, data: sources, config: cfg, registry: registry}
}

// Slot returns the pattern at the given dense slot index.
func (w *World) Slot(slot int) (*Pattern, error) {
	if slot < 0 || slot >= len(w.slots) {
		return nil, NoSuchPatternSlot(slot)
	}
	return w.slots[slot], nil
}

// Lookup resolves a fully qualified PatternName to its pattern and slot.
func (w *World) Lookup(name PatternName) (*Pattern, int, error) {
	slot, ok := w.names[name.String()]
	if !ok {
		return nil, 0, NoSuchPattern(name)
	}
	p, err := w.Slot(slot)
	return p, slot, err
}

// Get resolves a path string (as used by the policy HTTP API's
// GET /api/policy/v1alpha1/<path>, §6) to either a pattern or a module
// handle, matching the upstream engine's prefix-based Component
// resolution: an exact PatternName match wins; otherwise every registered
// name with path as a package prefix contributes to a synthesized
// ModuleHandle.
func (w *World) Get(path string) (*Component, bool) {
	if slot, ok := w.names[path]; ok {
		return &Component{Pattern: &ComponentPattern{Name: ParsePatternName(path), Slot: slot}}, true
	}

	prefix := path
	if prefix != "" {
		prefix += "::"
	}
	modulesSeen := map[string]bool{}
	var patterns []PatternName
	for full := range w.names {
		if !strings.HasPrefix(full, prefix) {
			continue
		}
		rest := strings.TrimPrefix(full, prefix)
		segs := strings.SplitN(rest, "::", 2)
		if len(segs) == 1 {
			patterns = append(patterns, ParsePatternName(full))
		} else {
			modulesSeen[segs[0]] = true
		}
	}
	if len(modulesSeen) == 0 && len(patterns) == 0 {
		return nil, false
	}

	modules := make([]string, 0, len(modulesSeen))
	for m := range modulesSeen {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].String() < patterns[j].String() })

	var pkgPath PackagePath
	if path != "" {
		pkgPath = strings.Split(path, "::")
	}
	return &Component{Module: &ModuleHandle{Path: pkgPath, Modules: modules, Patterns: patterns}}, true
}

// Evaluate resolves path to a pattern and evaluates it against input under
// ctx, the evaluator's public entry point (§4.4).
func (w *World) Evaluate(ctx *EvalContext, path string, input *value.Value) (*EvaluationResult, error) {
	name := ParsePatternName(path)
	p, _, err := w.Lookup(name)
	if err != nil {
		return nil, err
	}
	return p.Evaluate(ctx, w, input, &bindingScope{})
}

// DataSources returns the world's attached data sources, consulted by
// Deref evaluation (§4.4).
func (w *World) DataSources() data.Sources { return w.data }

// Config returns the world's per-evaluation configuration map, consulted
// by `config::of` (§4.10).
func (w *World) Config() *data.Config { return w.config }

// Registry returns the world's function registry.
func (w *World) Registry() *Registry { return w.registry }

// TraceEnabled reports whether the world's trace configuration is on.
func (w *World) TraceEnabled() bool { return w.trace.Enabled }
