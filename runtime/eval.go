// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package runtime

import (
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/seedwing/policy-engine/monitor"
	"github.com/seedwing/policy-engine/value"
)

var tracer = otel.Tracer("seedwing/policy-engine")

// Evaluate is the evaluator entry point for a single Pattern (§4.4): it
// enforces the recursion-depth guard, then dispatches on Inner's shape,
// optionally wrapped in a tracing envelope. scope carries the ambient Bound
// bindings visible to any Argument(name) the pattern body references;
// World.Evaluate starts every top-level call with an empty scope.
func (p *Pattern) Evaluate(ctx *EvalContext, world *World, input *value.Value, scope *bindingScope) (*EvaluationResult, error) {
	child, err := ctx.descend()
	if err != nil {
		return nil, err
	}
	if !world.TraceEnabled() || child.Monitor() == nil {
		return p.evalInner(child, world, input, scope)
	}
	return p.evalTraced(child, world, input, scope)
}

// evalTraced wraps evalInner with the start/elapsed/dispatch envelope (§4.9),
// and, since the world's trace configuration is enabled, an otel span
// covering the same call.
func (p *Pattern) evalTraced(ctx *EvalContext, world *World, input *value.Value, scope *bindingScope) (*EvaluationResult, error) {
	mon := ctx.Monitor()
	name := p.DisplayName()
	mon.Dispatch(monitor.Event{Kind: monitor.EventStart, Correlation: ctx.Correlation(), Pattern: name})

	spanCtx, span := tracer.Start(ctx.Context(), "pattern.evaluate",
		trace.WithAttributes(attribute.String("pattern.name", name)))
	ctx = ctx.withContext(spanCtx)
	defer span.End()

	start := time.Now()
	result, err := p.evalInner(ctx, world, input, scope)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx.Context(), "pattern evaluation aborted",
			slog.String("pattern", name),
			slog.Any("error", err),
		)
		mon.Dispatch(monitor.Event{Kind: monitor.EventCompleteErr, Correlation: ctx.Correlation(), Pattern: name, Err: err, Elapsed: elapsed})
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("pattern.severity", int(result.Severity)),
		attribute.Bool("pattern.satisfied", result.IsSatisfied()),
	)
	result.WithTrace(elapsed)
	mon.Dispatch(monitor.Event{
		Kind:        monitor.EventCompleteOk,
		Correlation: ctx.Correlation(),
		Pattern:     name,
		Severity:    int(result.Severity),
		Satisfied:   result.IsSatisfied(),
		Elapsed:     elapsed,
	})
	return result, nil
}

func (p *Pattern) evalInner(ctx *EvalContext, world *World, input *value.Value, scope *bindingScope) (*EvaluationResult, error) {
	switch p.Inner.kind {
	case innerAnything:
		return newResult(p, input, &Rationale{Kind: RationaleAnything}, Identity, SeverityNone), nil

	case innerNothing:
		return newResult(p, input, &Rationale{Kind: RationaleNothing}, None, SeverityError), nil

	case innerPrimordial:
		return p.evalPrimordial(ctx, world, input, scope)

	case innerConst:
		ok := input.Equal(p.Inner.constValue)
		sev := SeverityNone
		if !ok {
			sev = SeverityError
		}
		return newResult(p, input, &Rationale{Kind: RationaleConst, Bool: ok}, Identity, sev), nil

	case innerObject:
		return p.evalObject(ctx, world, input, scope)

	case innerList:
		return p.evalList(ctx, world, input, scope)

	case innerRef:
		return p.evalRef(ctx, world, input, scope)

	case innerBound:
		return p.evalBound(ctx, world, input, scope)

	case innerDeref:
		return p.evalDeref(ctx, world, input, scope)

	case innerArgument:
		return p.evalArgument(ctx, world, input, scope)

	case innerExpr:
		return p.evalExpr(ctx, world, input, scope)

	default:
		return nil, InvalidState("unknown pattern shape")
	}
}

func (p *Pattern) evalPrimordial(ctx *EvalContext, world *World, input *value.Value, scope *bindingScope) (*EvaluationResult, error) {
	k := p.Inner.primordialKind
	if k == PrimordialFunction {
		return p.evalFunction(ctx, world, input, scope)
	}

	var ok bool
	switch k {
	case PrimordialInteger:
		ok = input.Kind() == value.KindInteger
	case PrimordialDecimal:
		ok = input.Kind() == value.KindDecimal
	case PrimordialBoolean:
		ok = input.Kind() == value.KindBoolean
	case PrimordialString:
		ok = input.Kind() == value.KindString
	}
	sev := SeverityNone
	if !ok {
		sev = SeverityError
	}
	return newResult(p, input, &Rationale{Kind: RationalePrimordial, Bool: ok}, Identity, sev), nil
}

// evalFunction invokes a host Function per §4.5, resolving bindings-scope
// Argument(name) lookups into a flat Bindings the Function contract expects.
func (p *Pattern) evalFunction(ctx *EvalContext, world *World, input *value.Value, scope *bindingScope) (*EvaluationResult, error) {
	result, err := p.Inner.function.Call(ctx.exportContext(), input, scope.flatten(), world)
	if err != nil {
		return nil, err
	}
	rationale := result.Rationale
	if rationale == nil {
		rationale = &Rationale{Kind: RationaleFunction, FunctionSeverity: result.Severity, Supporting: result.Supporting}
	} else {
		rationale = &Rationale{
			Kind:              RationaleFunction,
			FunctionSeverity:  result.Severity,
			FunctionRationale: rationale,
			Supporting:        result.Supporting,
		}
	}
	return newResult(p, input, rationale, result.Output, result.Severity), nil
}

func (p *Pattern) evalObject(ctx *EvalContext, world *World, input *value.Value, scope *bindingScope) (*EvaluationResult, error) {
	obj, ok := input.Object()
	if !ok {
		return newResult(p, input, &Rationale{Kind: RationaleNotAnObject}, None, SeverityError), nil
	}

	fields := make([]FieldRationale, 0, len(p.Inner.fields))
	sev := SeverityNone
	for _, f := range p.Inner.fields {
		fv, present := obj.Get(f.Name)
		if !present {
			if f.Optional {
				fields = append(fields, FieldRationale{Name: f.Name})
				continue
			}
			missing := newResult(f.Pattern, value.Null, &Rationale{Kind: RationaleMissingField, Message: f.Name}, None, SeverityError)
			fields = append(fields, FieldRationale{Name: f.Name, Result: missing})
			sev = SeverityError
			continue
		}
		child, err := f.Pattern.Evaluate(ctx, world, fv, scope)
		if err != nil {
			return nil, err
		}
		fields = append(fields, FieldRationale{Name: f.Name, Result: child})
		sev = MaxSeverity(sev, child.Severity)
	}
	return newResult(p, input, &Rationale{Kind: RationaleObject, ObjectFields: fields}, Identity, sev), nil
}

func (p *Pattern) evalList(ctx *EvalContext, world *World, input *value.Value, scope *bindingScope) (*EvaluationResult, error) {
	items, ok := input.List()
	if !ok {
		return newResult(p, input, &Rationale{Kind: RationaleNotAList}, None, SeverityError), nil
	}
	if len(items) != len(p.Inner.elements) {
		return newResult(p, input, &Rationale{Kind: RationaleNotAList}, None, SeverityError), nil
	}

	children := make([]*EvaluationResult, len(items))
	sev := SeverityNone
	for i, elemPattern := range p.Inner.elements {
		child, err := elemPattern.Evaluate(ctx, world, items[i], scope)
		if err != nil {
			return nil, err
		}
		children[i] = child
		sev = MaxSeverity(sev, child.Severity)
	}
	return newResult(p, input, &Rationale{Kind: RationaleList, Children: children}, Identity, sev), nil
}

// evalRef dispatches every sugar form of Ref (§4.4's "syntactic-sugar
// forms"). SugarNone/SugarRefine/SugarTraverse/SugarNot resolve a single
// primary pattern at slot; SugarAnd/SugarOr/SugarChain instead hold their
// flat operand list directly in terms (the Ref field-layout generalization
// recorded in DESIGN.md).
func (p *Pattern) evalRef(ctx *EvalContext, world *World, input *value.Value, scope *bindingScope) (*EvaluationResult, error) {
	switch p.Inner.sugar {
	case SugarAnd:
		return p.evalAnd(ctx, world, input, scope)
	case SugarOr:
		return p.evalOr(ctx, world, input, scope)
	case SugarChain:
		return p.evalChain(ctx, world, input, scope)
	case SugarNot:
		return p.evalNot(ctx, world, input, scope)
	case SugarRefine:
		return p.evalRefine(ctx, world, input, scope)
	case SugarTraverse:
		return p.evalTraverse(ctx, world, input, scope)
	default:
		return p.evalPlainRef(ctx, world, input, scope)
	}
}

func (p *Pattern) resolveSlot(world *World) (*Pattern, error) {
	if p.Inner.primaryPattern != nil {
		return p.Inner.primaryPattern, nil
	}
	return world.Slot(p.Inner.slot)
}

func (p *Pattern) evalPlainRef(ctx *EvalContext, world *World, input *value.Value, scope *bindingScope) (*EvaluationResult, error) {
	primary, err := p.resolveSlot(world)
	if err != nil {
		return nil, err
	}
	if p.Inner.bindings.Len() == 0 {
		return primary.Evaluate(ctx, world, input, scope)
	}
	inner, err := primary.Evaluate(ctx, world, input, scope.push(p.Inner.bindings))
	if err != nil {
		return nil, err
	}
	return newResult(p, input, &Rationale{Kind: RationaleBound, Inner: inner.Rationale, Bindings: p.Inner.bindings}, inner.Output, inner.Severity), nil
}

// evalAnd implements `A && B …`: every term evaluated against the same
// input; severity = max; satisfied iff every term satisfied.
func (p *Pattern) evalAnd(ctx *EvalContext, world *World, input *value.Value, scope *bindingScope) (*EvaluationResult, error) {
	children := make([]*EvaluationResult, len(p.Inner.terms))
	sev := SeverityNone
	for i, term := range p.Inner.terms {
		child, err := term.Evaluate(ctx, world, input, scope)
		if err != nil {
			return nil, err
		}
		children[i] = child
		sev = MaxSeverity(sev, child.Severity)
	}
	return newResult(p, input, &Rationale{Kind: RationaleAnd, Children: children}, Identity, sev), nil
}

// evalOr implements `A || B …`: terms are tried in ascending function-order
// estimate, short-circuiting on the first satisfied term; if none is
// satisfied, severity is the minimum across all children (§9 Open Question
// (a): a Warning disjunct beats an Error one).
func (p *Pattern) evalOr(ctx *EvalContext, world *World, input *value.Value, scope *bindingScope) (*EvaluationResult, error) {
	ordered := append([]*Pattern(nil), p.Inner.terms...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return patternOrder(ordered[i]) < patternOrder(ordered[j])
	})

	children := make([]*EvaluationResult, 0, len(ordered))
	for _, term := range ordered {
		child, err := term.Evaluate(ctx, world, input, scope)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
		if child.IsSatisfied() {
			break
		}
	}
	rationale := &Rationale{Kind: RationaleOr, Children: children}
	return newResult(p, input, rationale, Identity, rationale.Severity()), nil
}

// patternOrder estimates a pattern's evaluation cost for Or-branch
// reordering (§4.5): a Primordial(Function) contributes its declared
// Order(); every other shape counts as 0. Only the disjunct's own top node
// is inspected: its sub-patterns, the slots it refers to, and its bound
// arguments are not.
func patternOrder(p *Pattern) int {
	if p.Inner.kind == innerPrimordial && p.Inner.primordialKind == PrimordialFunction && p.Inner.function != nil {
		return p.Inner.function.Order()
	}
	return 0
}

// evalChain implements `P | Q | …`: threads each term's output into the
// next term's input; stops at the first Error severity; final severity is
// the max seen across stages actually evaluated.
func (p *Pattern) evalChain(ctx *EvalContext, world *World, input *value.Value, scope *bindingScope) (*EvaluationResult, error) {
	children := make([]*EvaluationResult, 0, len(p.Inner.terms))
	current := input
	sev := SeverityNone
	for _, term := range p.Inner.terms {
		child, err := term.Evaluate(ctx, world, current, scope)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
		sev = MaxSeverity(sev, child.Severity)
		if sev == SeverityError {
			break
		}
		current = child.Output.Resolve(current)
	}
	outputs := make([]Output, len(children))
	for i, c := range children {
		outputs[i] = c.Output
	}
	return newResult(p, input, &Rationale{Kind: RationaleChain, Children: children}, ComposeChain(outputs), sev), nil
}

// evalNot implements `!P`: inverts satisfaction, preserves the child
// rationale for presentation, output is always Identity.
func (p *Pattern) evalNot(ctx *EvalContext, world *World, input *value.Value, scope *bindingScope) (*EvaluationResult, error) {
	primary, err := p.resolveSlot(world)
	if err != nil {
		return nil, err
	}
	var inner *EvaluationResult
	if p.Inner.bindings.Len() > 0 {
		inner, err = primary.Evaluate(ctx, world, input, scope.push(p.Inner.bindings))
	} else {
		inner, err = primary.Evaluate(ctx, world, input, scope)
	}
	if err != nil {
		return nil, err
	}
	rationale := &Rationale{Kind: RationaleNot, Inner: inner.Rationale}
	return newResult(p, input, rationale, Identity, rationale.Severity()), nil
}

// evalRefine implements `P(R)`: evaluate P; if unsatisfied, propagate;
// otherwise evaluate R against P's output.
func (p *Pattern) evalRefine(ctx *EvalContext, world *World, input *value.Value, scope *bindingScope) (*EvaluationResult, error) {
	primary, err := p.resolveSlot(world)
	if err != nil {
		return nil, err
	}
	primaryScope := scope
	if p.Inner.bindings.Len() > 0 {
		primaryScope = scope.push(p.Inner.bindings)
	}
	primaryResult, err := primary.Evaluate(ctx, world, input, primaryScope)
	if err != nil {
		return nil, err
	}
	if !primaryResult.IsSatisfied() {
		rationale := &Rationale{Kind: RationaleChain, Children: []*EvaluationResult{primaryResult}}
		return newResult(p, input, rationale, None, primaryResult.Severity), nil
	}

	refinement := p.Inner.terms[0]
	refinedInput := primaryResult.Output.Resolve(input)
	refinementResult, err := refinement.Evaluate(ctx, world, refinedInput, scope)
	if err != nil {
		return nil, err
	}
	children := []*EvaluationResult{primaryResult, refinementResult}
	sev := MaxSeverity(primaryResult.Severity, refinementResult.Severity)
	return newResult(p, input, &Rationale{Kind: RationaleChain, Children: children}, refinementResult.Output, sev), nil
}

// evalTraverse implements `P.f`: evaluate P, then follow field f of P's
// output, which becomes the traversal's own Output::Transform.
func (p *Pattern) evalTraverse(ctx *EvalContext, world *World, input *value.Value, scope *bindingScope) (*EvaluationResult, error) {
	primary, err := p.resolveSlot(world)
	if err != nil {
		return nil, err
	}
	primaryScope := scope
	if p.Inner.bindings.Len() > 0 {
		primaryScope = scope.push(p.Inner.bindings)
	}
	primaryResult, err := primary.Evaluate(ctx, world, input, primaryScope)
	if err != nil {
		return nil, err
	}
	if !primaryResult.IsSatisfied() {
		rationale := &Rationale{Kind: RationaleChain, Children: []*EvaluationResult{primaryResult}}
		return newResult(p, input, rationale, None, primaryResult.Severity), nil
	}

	resolved := primaryResult.Output.Resolve(input)
	obj, ok := resolved.Object()
	if !ok {
		rationale := &Rationale{Kind: RationaleNotAnObject}
		children := []*EvaluationResult{primaryResult, newResult(p, resolved, rationale, None, SeverityError)}
		return newResult(p, input, &Rationale{Kind: RationaleChain, Children: children}, None, SeverityError), nil
	}
	fv, present := obj.Get(p.Inner.field)
	if !present {
		missing := newResult(p, resolved, &Rationale{Kind: RationaleMissingField, Message: p.Inner.field}, None, SeverityError)
		children := []*EvaluationResult{primaryResult, missing}
		return newResult(p, input, &Rationale{Kind: RationaleChain, Children: children}, None, SeverityError), nil
	}
	fieldResult := newResult(p, resolved, &Rationale{Kind: RationaleAnything}, NewTransform(fv), SeverityNone)
	children := []*EvaluationResult{primaryResult, fieldResult}
	return newResult(p, input, &Rationale{Kind: RationaleChain, Children: children}, NewTransform(fv), primaryResult.Severity), nil
}

// evalBound implements Bound(p, bindings): push bindings onto the ambient
// scope and evaluate p; on exit the pushed frame is simply not referenced
// further, since bindingScope.push returns a new immutable scope.
func (p *Pattern) evalBound(ctx *EvalContext, world *World, input *value.Value, scope *bindingScope) (*EvaluationResult, error) {
	inner, err := p.Inner.boundPrimary.Evaluate(ctx, world, input, scope.push(p.Inner.boundBindings))
	if err != nil {
		return nil, err
	}
	rationale := &Rationale{Kind: RationaleBound, Inner: inner.Rationale, Bindings: p.Inner.boundBindings}
	return newResult(p, input, rationale, inner.Output, inner.Severity), nil
}

// evalDeref implements Deref(p): evaluate p against the input; if it
// produces a string value, look it up through the attached data sources.
func (p *Pattern) evalDeref(ctx *EvalContext, world *World, input *value.Value, scope *bindingScope) (*EvaluationResult, error) {
	inner, err := p.Inner.derefPattern.Evaluate(ctx, world, input, scope)
	if err != nil {
		return nil, err
	}
	if !inner.IsSatisfied() {
		rationale := &Rationale{Kind: RationaleChain, Children: []*EvaluationResult{inner}}
		return newResult(p, input, rationale, None, inner.Severity), nil
	}
	resolved := inner.Output.Resolve(input)
	path, ok := resolved.String()
	if !ok {
		rationale := &Rationale{Kind: RationaleInvalidArgument, Message: "dereference target is not a string"}
		return newResult(p, input, rationale, None, SeverityError), nil
	}
	looked, found, err := world.DataSources().Lookup(path)
	if err != nil {
		return nil, err
	}
	if !found {
		rationale := &Rationale{Kind: RationaleMissingField, Message: path}
		return newResult(p, input, rationale, None, SeverityError), nil
	}
	return newResult(p, input, &Rationale{Kind: RationaleAnything}, NewTransform(looked), SeverityNone), nil
}

// evalArgument implements Argument(name): resolve via the ambient bindings
// and evaluate. An unresolved Argument indicates a builder bug, not a
// policy-authoring mistake, so it surfaces as InvalidState (§4.4).
func (p *Pattern) evalArgument(ctx *EvalContext, world *World, input *value.Value, scope *bindingScope) (*EvaluationResult, error) {
	bound, ok := scope.resolve(p.Inner.argumentName)
	if !ok {
		return nil, InvalidState("unresolved argument reference: " + p.Inner.argumentName)
	}
	return bound.Evaluate(ctx, world, input, scope)
}

// evalExpr implements Expr(e): evaluate the expression with self bound to
// the input; require a boolean result. Division-by-zero and mixed-type
// comparisons arrive as *exprError (§9 Open Question (c)), never as a
// RuntimeError, and become a Severity-Error InvalidArgument rationale.
func (p *Pattern) evalExpr(ctx *EvalContext, world *World, input *value.Value, scope *bindingScope) (*EvaluationResult, error) {
	result, err := p.Inner.expr.Evaluate(input)
	if err != nil {
		if _, isExprErr := err.(*exprError); isExprErr {
			rationale := &Rationale{Kind: RationaleInvalidArgument, Message: err.Error()}
			return newResult(p, input, rationale, None, SeverityError), nil
		}
		return nil, err
	}
	b, ok := result.Boolean()
	if !ok {
		rationale := &Rationale{Kind: RationaleInvalidArgument, Message: "expression did not evaluate to a boolean"}
		return newResult(p, input, rationale, None, SeverityError), nil
	}
	sev := SeverityNone
	if !b {
		sev = SeverityError
	}
	return newResult(p, input, &Rationale{Kind: RationaleExpression, Bool: b}, Identity, sev), nil
}
