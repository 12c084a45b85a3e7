// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/seedwing/policy-engine/value"
)

// InputKind hints at a function's expected input shape, used to generate
// JSON-Schema and to sort Or disjunctions (§4.3).
type InputKind int

const (
	InputAnything InputKind = iota
	InputString
	InputBoolean
	InputInteger
	InputDecimal
	InputPattern // constrained by an associated Pattern, see Function.InputPattern
)

// Order buckets name the evaluation-order guidance from §4.5: "non-async
// pure conversions 0-11; non-trivial pure code 12-40; async local 40-120;
// network or disk 120-255."
const (
	OrderTrivialMax    = 11
	OrderPureMax       = 40
	OrderAsyncLocalMax = 120
	OrderNetworkMax    = 255
)

// FunctionEvaluationResult is what a Function.Call returns: severity, an
// Output, an optional rationale override, and supporting child results
// (§4.3).
type FunctionEvaluationResult struct {
	Severity   Severity
	Output     Output
	Rationale  *Rationale // optional override of the default Function rationale
	Supporting []*EvaluationResult
}

// Satisfied reports the result's severity is satisfied.
func (r FunctionEvaluationResult) Satisfied() bool { return r.Severity.Satisfied() }

// Function is the host-provided pattern implementation contract used by
// the Dogma standard library and user-registered packages (§4.3, §4.5). A
// function must not block the scheduler (wrap blocking work in
// BlockingFunction) and must not mutate its inputs.
type Function interface {
	// InputKind hints the expected input shape.
	InputKind() InputKind
	// Order is this function's relative evaluation cost in 0..=255, used
	// to reorder Or's branches so cheap ones run first (§4.5).
	Order() int
	// Metadata describes the function for documentation/JSON-Schema
	// purposes.
	Metadata() Metadata
	// Parameters lists the function's declared parameter names, in order.
	Parameters() []string
	// Examples lists representative inputs for documentation.
	Examples() []*value.Value
	// Call evaluates the function against input. ctx carries cancellation
	// and the recursion-depth guard; bindings resolves any Argument(name)
	// the function's own sub-patterns reference; world is the shared,
	// read-only compiled universe.
	Call(ctx context.Context, input *value.Value, bindings Bindings, world *World) (FunctionEvaluationResult, error)
}

// BlockingFunction is a synchronous capability set the registry wraps with
// a blocking-to-async bridge (§9: "a blocking function is a separate
// capability set that the registry wraps with a blocking-to-async
// bridge"). Go has no async/await, so "bridging" means running the call on
// a bounded worker pool so a slow built-in cannot starve the caller's
// goroutine scheduler under heavy concurrent evaluation.
type BlockingFunction interface {
	InputKind() InputKind
	Order() int
	Metadata() Metadata
	Parameters() []string
	Examples() []*value.Value
	CallBlocking(input *value.Value, bindings Bindings, world *World) (FunctionEvaluationResult, error)
}

// blockingBridge adapts a BlockingFunction to Function by running the call
// on a small fixed-size worker pool, so at most maxInFlight blocking calls
// run concurrently regardless of how many goroutines are evaluating.
type blockingBridge struct {
	inner BlockingFunction
	sem   chan struct{}
}

// WrapBlocking adapts fn to the async Function contract. maxInFlight
// bounds concurrent blocking calls across all evaluations sharing this
// bridge; 0 means unbounded.
func WrapBlocking(fn BlockingFunction, maxInFlight int) Function {
	b := &blockingBridge{inner: fn}
	if maxInFlight > 0 {
		b.sem = make(chan struct{}, maxInFlight)
	}
	return b
}

func (b *blockingBridge) InputKind() InputKind          { return b.inner.InputKind() }
func (b *blockingBridge) Order() int                    { return b.inner.Order() }
func (b *blockingBridge) Metadata() Metadata             { return b.inner.Metadata() }
func (b *blockingBridge) Parameters() []string           { return b.inner.Parameters() }
func (b *blockingBridge) Examples() []*value.Value       { return b.inner.Examples() }

func (b *blockingBridge) Call(ctx context.Context, input *value.Value, bindings Bindings, world *World) (FunctionEvaluationResult, error) {
	if b.sem != nil {
		select {
		case b.sem <- struct{}{}:
		case <-ctx.Done():
			return FunctionEvaluationResult{}, ctx.Err()
		}
	}

	type result struct {
		r   FunctionEvaluationResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		r, err := b.inner.CallBlocking(input, bindings, world)
		if b.sem != nil {
			<-b.sem
		}
		done <- result{r, err}
	}()

	select {
	case res := <-done:
		return res.r, res.err
	case <-ctx.Done():
		return FunctionEvaluationResult{}, ctx.Err()
	}
}

// SimpleCallFunc is the body of a SimpleFunction: compute a
// FunctionEvaluationResult directly from input and the resolved bindings.
// Most standard-library functions are stateless enough to need nothing else
// from the Function contract.
type SimpleCallFunc func(ctx context.Context, input *value.Value, bindings Bindings, world *World) (FunctionEvaluationResult, error)

// SimpleFunction is a reusable Function implementation for the common case
// of a stateless host function with fixed metadata — the shape shared by
// nearly every stdlib/* function (§4.3: "their bodies are external
// collaborators", i.e. concrete Go code, not further DSL).
type SimpleFunction struct {
	Input  InputKind
	Cost   int
	Meta   Metadata
	Params []string
	Ex     []*value.Value
	Fn     SimpleCallFunc
}

func (f *SimpleFunction) InputKind() InputKind    { return f.Input }
func (f *SimpleFunction) Order() int              { return f.Cost }
func (f *SimpleFunction) Metadata() Metadata      { return f.Meta }
func (f *SimpleFunction) Parameters() []string    { return f.Params }
func (f *SimpleFunction) Examples() []*value.Value { return f.Ex }

func (f *SimpleFunction) Call(ctx context.Context, input *value.Value, bindings Bindings, world *World) (FunctionEvaluationResult, error) {
	return f.Fn(ctx, input, bindings, world)
}

// Satisfied builds a trivial FunctionEvaluationResult for the common
// boolean-predicate case: Output is the given output, severity is derived
// from ok.
func Satisfied(ok bool, output Output) FunctionEvaluationResult {
	sev := SeverityNone
	if !ok {
		sev = SeverityError
	}
	return FunctionEvaluationResult{Severity: sev, Output: output}
}

// InvalidArgument builds the FunctionEvaluationResult for an
// authoring-mistake failure (§4.5: "missing parameter, wrong type").
func InvalidArgument(format string, args ...any) FunctionEvaluationResult {
	return FunctionEvaluationResult{
		Severity:  SeverityError,
		Output:    None,
		Rationale: &Rationale{Kind: RationaleInvalidArgument, Message: fmt.Sprintf(format, args...)},
	}
}

// Package is a self-contained bundle of functions and, optionally,
// embedded Dogma source text, addressed by a package path (§4.3).
type Package struct {
	Path      []string
	Functions map[string]Function
	Sources   map[string]string // source name -> Dogma text, registered alongside user sources
}

// NewPackage creates an empty Package at path.
func NewPackage(path ...string) *Package {
	return &Package{Path: path, Functions: map[string]Function{}, Sources: map[string]string{}}
}

// WithFunction registers fn under name, returning the same Package for
// chaining.
func (p *Package) WithFunction(name string, fn Function) *Package {
	p.Functions[name] = fn
	return p
}

// WithSource embeds a Dogma source file under name, returning the same
// Package for chaining.
func (p *Package) WithSource(name, dogmaText string) *Package {
	p.Sources[name] = dogmaText
	return p
}

// PathString renders the package's path as a `::`-joined string.
func (p *Package) PathString() string {
	s := ""
	for i, seg := range p.Path {
		if i > 0 {
			s += "::"
		}
		s += seg
	}
	return s
}

// Registry is the set of registered Packages consulted while building a
// World; building ingests every registered package before parsing user
// sources (§4.3).
type Registry struct {
	mu       sync.RWMutex
	packages map[string]*Package
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{packages: map[string]*Package{}}
}

// Register adds pkg to the registry, keyed by its path.
func (r *Registry) Register(pkg *Package) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packages[pkg.PathString()] = pkg
}

// Lookup resolves a fully qualified function name (`pkg::path::fn`) to its
// Function implementation.
func (r *Registry) Lookup(name PatternName) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pkg, ok := r.packages[PackagePath(name.Package).String()]
	if !ok {
		return nil, false
	}
	fn, ok := pkg.Functions[name.Name]
	return fn, ok
}

// Packages returns every registered package, for world-building iteration.
func (r *Registry) Packages() []*Package {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Package, 0, len(r.packages))
	for _, p := range r.packages {
		out = append(out, p)
	}
	return out
}
