// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package runtime

import (
	"context"

	"github.com/seedwing/policy-engine/monitor"
)

// MaxDepth is the default recursion bound enforced by EvalContext (§4.10:
// "bounded by a fixed maximum (implementation-defined; at least 500)").
const MaxDepth = 500

// EvalContext is the per-evaluation state threaded through every
// Pattern.Evaluate call: a recursion-depth counter and its bound, a monitor
// reference, and the evaluation's correlation id (§4.10). The config map
// consulted by `config::of` is not carried here; it is held by the World
// (World.Config). It also carries a context.Context for cancellation and
// otel span propagation, per the ambient tracing stack (SPEC_FULL.md §2).
type EvalContext struct {
	ctx         context.Context
	depth       int
	maxDepth    int
	mon         *monitor.Monitor
	correlation uint64
}

// NewEvalContext creates a fresh, zero-depth EvalContext for one top-level
// evaluation. If mon is non-nil, it is issued a correlation id shared by
// every Start/CompleteOk/CompleteErr event dispatched during this
// evaluation (§4.9: "happens-before: Start precedes Complete* for the same
// correlation").
func NewEvalContext(ctx context.Context, mon *monitor.Monitor) *EvalContext {
	var correlation uint64
	if mon != nil {
		correlation = mon.NextCorrelation()
	}
	return &EvalContext{ctx: ctx, maxDepth: MaxDepth, mon: mon, correlation: correlation}
}

// WithMaxDepth overrides the default depth bound, returning the same
// EvalContext for chaining.
func (c *EvalContext) WithMaxDepth(n int) *EvalContext {
	if n > 0 {
		c.maxDepth = n
	}
	return c
}

// Context returns the underlying context.Context for cancellation checks
// and otel span extraction.
func (c *EvalContext) Context() context.Context { return c.ctx }

// withContext returns a copy of c carrying a replacement context.Context,
// used to thread an opened span's context through the remainder of one
// evaluation call without mutating the caller's EvalContext.
func (c *EvalContext) withContext(ctx context.Context) *EvalContext {
	child := *c
	child.ctx = ctx
	return &child
}

// Monitor returns the attached monitor, or nil if tracing is disabled.
func (c *EvalContext) Monitor() *monitor.Monitor { return c.mon }

// Correlation returns this evaluation's correlation id.
func (c *EvalContext) Correlation() uint64 { return c.correlation }

// evalContextKey is the context.Context key exportContext stores c under.
type evalContextKey struct{}

// exportContext embeds c behind the plain context.Context passed to a
// Function's Call (§4.5), so a Function that recurses back into pattern
// evaluation (list::any/all/none/some/filter/map/contains-all,
// lang::and/or/not) can recover the real ambient depth counter and monitor
// via ContextFromFunction instead of starting a fresh EvalContext at depth
// zero with no monitor — the recursion-depth guard (§4.10, §8 property 8)
// and the tracing envelope (§4.9) both depend on this surviving the
// Function-contract boundary.
func (c *EvalContext) exportContext() context.Context {
	ctx := context.WithValue(c.ctx, evalContextKey{}, c)
	if c.mon != nil {
		ctx = monitor.WithMonitor(ctx, c.mon)
	}
	return ctx
}

// ContextFromFunction recovers the EvalContext a Function's Call was
// invoked under, continuing its depth budget and monitor rather than
// resetting both. Functions that evaluate a bound sub-pattern must use
// this (not NewEvalContext) to build the EvalContext they pass to
// Pattern.Evaluate. Falls back to a fresh top-level EvalContext — reading
// any monitor attached via monitor.WithMonitor — if ctx carries no
// exported EvalContext, which only happens when a Function is invoked
// directly (e.g. a unit test) rather than through Pattern.Evaluate.
func ContextFromFunction(ctx context.Context) *EvalContext {
	if c, ok := ctx.Value(evalContextKey{}).(*EvalContext); ok {
		return c
	}
	return NewEvalContext(ctx, monitor.FromContext(ctx))
}

// descend returns a child EvalContext one level deeper, or an error if the
// depth bound would be exceeded (§4.10, §8 property 8).
func (c *EvalContext) descend() (*EvalContext, error) {
	if c.depth+1 > c.maxDepth {
		return nil, InvalidState("recursion depth exceeded MAX_DEPTH")
	}
	child := *c
	child.depth++
	return &child, nil
}
