// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package listfn implements the `list` standard-library family (§4.3,
// §4.4's "List combinators"): any/all/none/some/head/tail/slice/count/
// filter/map/contains-all/concat.
package listfn

import (
	"context"

	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

// Package builds the `list` standard-library package.
func Package() *runtime.Package {
	pkg := runtime.NewPackage("list")
	pkg.WithFunction("any", &runtime.SimpleFunction{
		Input: runtime.InputPattern, Cost: 15,
		Meta:   runtime.Metadata{Doc: "Satisfied iff at least one element of the input list satisfies the bound pattern."},
		Params: []string{"pattern"}, Fn: callAny,
	})
	pkg.WithFunction("all", &runtime.SimpleFunction{
		Input: runtime.InputPattern, Cost: 15,
		Meta:   runtime.Metadata{Doc: "Satisfied iff every element of the input list satisfies the bound pattern (vacuously true for an empty list)."},
		Params: []string{"pattern"}, Fn: callAll,
	})
	pkg.WithFunction("none", &runtime.SimpleFunction{
		Input: runtime.InputPattern, Cost: 15,
		Meta:   runtime.Metadata{Doc: "Satisfied iff no element of the input list satisfies the bound pattern."},
		Params: []string{"pattern"}, Fn: callNone,
	})
	pkg.WithFunction("some", &runtime.SimpleFunction{
		Input: runtime.InputPattern, Cost: 15,
		Meta:   runtime.Metadata{Doc: "Satisfied iff the count of elements satisfying the bound pattern falls in [min, max] inclusive."},
		Params: []string{"pattern", "min", "max"}, Fn: callSome,
	})
	pkg.WithFunction("head", &runtime.SimpleFunction{
		Input: runtime.InputAnything, Cost: runtime.OrderTrivialMax,
		Meta:   runtime.Metadata{Doc: "Transforms the input list into its first n elements."},
		Params: []string{"count"}, Fn: callHead,
	})
	pkg.WithFunction("tail", &runtime.SimpleFunction{
		Input: runtime.InputAnything, Cost: runtime.OrderTrivialMax,
		Meta:   runtime.Metadata{Doc: "Transforms the input list into its last n elements."},
		Params: []string{"count"}, Fn: callTail,
	})
	pkg.WithFunction("slice", &runtime.SimpleFunction{
		Input: runtime.InputAnything, Cost: runtime.OrderTrivialMax,
		Meta:   runtime.Metadata{Doc: "Transforms the input list into the sub-list [from, to)."},
		Params: []string{"from", "to"}, Fn: callSlice,
	})
	pkg.WithFunction("count", &runtime.SimpleFunction{
		Input: runtime.InputAnything, Cost: runtime.OrderTrivialMax,
		Meta: runtime.Metadata{Doc: "Transforms the input list into its length, as an Integer."},
		Fn:   callCount,
	})
	pkg.WithFunction("filter", &runtime.SimpleFunction{
		Input: runtime.InputPattern, Cost: 20,
		Meta:   runtime.Metadata{Doc: "Transforms the input list into the sub-list of elements satisfying the bound pattern."},
		Params: []string{"pattern"}, Fn: callFilter,
	})
	pkg.WithFunction("map", &runtime.SimpleFunction{
		Input: runtime.InputPattern, Cost: 20,
		Meta:   runtime.Metadata{Doc: "Transforms the input list by replacing each element with the bound pattern's output against it."},
		Params: []string{"pattern"}, Fn: callMap,
	})
	pkg.WithFunction("contains-all", &runtime.SimpleFunction{
		Input: runtime.InputPattern, Cost: 20,
		Meta:   runtime.Metadata{Doc: "Satisfied iff every pattern in the bound list matches at least one element of the input list (first-match-wins, no distinct-match requirement)."},
		Params: []string{"patterns"}, Fn: callContainsAll,
	})
	pkg.WithFunction("concat", &runtime.SimpleFunction{
		Input: runtime.InputAnything, Cost: runtime.OrderTrivialMax,
		Meta:   runtime.Metadata{Doc: "Transforms the input list by appending the bound list's elements."},
		Params: []string{"other"}, Fn: callConcat,
	})
	return pkg
}

func evalEach(ctx context.Context, pattern *runtime.Pattern, items []*value.Value, world *runtime.World) ([]*runtime.EvaluationResult, error) {
	econtext := runtime.ContextFromFunction(ctx)
	results := make([]*runtime.EvaluationResult, len(items))
	for i, item := range items {
		r, err := pattern.Evaluate(econtext, world, item, runtime.EmptyScope())
		if err != nil {
			return nil, err
		}
		results[i] = r
	}
	return results, nil
}

func requireList(input *value.Value) ([]*value.Value, bool) {
	return input.List()
}

func requireIntParam(bindings runtime.Bindings, name string) (int64, bool) {
	p, ok := bindings.Get(name)
	if !ok {
		return 0, false
	}
	v, ok := p.ConstValue()
	if !ok {
		return 0, false
	}
	return v.Integer()
}

func callAny(ctx context.Context, input *value.Value, bindings runtime.Bindings, world *runtime.World) (runtime.FunctionEvaluationResult, error) {
	items, ok := requireList(input)
	if !ok {
		return runtime.InvalidArgument("list::any requires a list input"), nil
	}
	pattern, ok := bindings.Get("pattern")
	if !ok {
		return runtime.InvalidArgument("list::any requires a \"pattern\" binding"), nil
	}
	results, err := evalEach(ctx, pattern, items, world)
	if err != nil {
		return runtime.FunctionEvaluationResult{}, err
	}
	satisfied := false
	for _, r := range results {
		if r.IsSatisfied() {
			satisfied = true
			break
		}
	}
	return runtime.FunctionEvaluationResult{Severity: severityFor(satisfied), Output: runtime.Identity, Supporting: results}, nil
}

func callAll(ctx context.Context, input *value.Value, bindings runtime.Bindings, world *runtime.World) (runtime.FunctionEvaluationResult, error) {
	items, ok := requireList(input)
	if !ok {
		return runtime.InvalidArgument("list::all requires a list input"), nil
	}
	pattern, ok := bindings.Get("pattern")
	if !ok {
		return runtime.InvalidArgument("list::all requires a \"pattern\" binding"), nil
	}
	results, err := evalEach(ctx, pattern, items, world)
	if err != nil {
		return runtime.FunctionEvaluationResult{}, err
	}
	satisfied := true
	for _, r := range results {
		if !r.IsSatisfied() {
			satisfied = false
			break
		}
	}
	return runtime.FunctionEvaluationResult{Severity: severityFor(satisfied), Output: runtime.Identity, Supporting: results}, nil
}

func callNone(ctx context.Context, input *value.Value, bindings runtime.Bindings, world *runtime.World) (runtime.FunctionEvaluationResult, error) {
	items, ok := requireList(input)
	if !ok {
		return runtime.InvalidArgument("list::none requires a list input"), nil
	}
	pattern, ok := bindings.Get("pattern")
	if !ok {
		return runtime.InvalidArgument("list::none requires a \"pattern\" binding"), nil
	}
	results, err := evalEach(ctx, pattern, items, world)
	if err != nil {
		return runtime.FunctionEvaluationResult{}, err
	}
	satisfied := true
	for _, r := range results {
		if r.IsSatisfied() {
			satisfied = false
			break
		}
	}
	return runtime.FunctionEvaluationResult{Severity: severityFor(satisfied), Output: runtime.Identity, Supporting: results}, nil
}

func callSome(ctx context.Context, input *value.Value, bindings runtime.Bindings, world *runtime.World) (runtime.FunctionEvaluationResult, error) {
	items, ok := requireList(input)
	if !ok {
		return runtime.InvalidArgument("list::some requires a list input"), nil
	}
	pattern, ok := bindings.Get("pattern")
	if !ok {
		return runtime.InvalidArgument("list::some requires a \"pattern\" binding"), nil
	}
	min, ok := requireIntParam(bindings, "min")
	if !ok {
		return runtime.InvalidArgument("list::some requires a \"min\" binding"), nil
	}
	max, ok := requireIntParam(bindings, "max")
	if !ok {
		return runtime.InvalidArgument("list::some requires a \"max\" binding"), nil
	}
	results, err := evalEach(ctx, pattern, items, world)
	if err != nil {
		return runtime.FunctionEvaluationResult{}, err
	}
	count := int64(0)
	for _, r := range results {
		if r.IsSatisfied() {
			count++
		}
	}
	return runtime.FunctionEvaluationResult{Severity: severityFor(count >= min && count <= max), Output: runtime.Identity, Supporting: results}, nil
}

func callHead(_ context.Context, input *value.Value, bindings runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	items, ok := requireList(input)
	if !ok {
		return runtime.InvalidArgument("list::head requires a list input"), nil
	}
	n, ok := requireIntParam(bindings, "count")
	if !ok {
		return runtime.InvalidArgument("list::head requires a \"count\" binding"), nil
	}
	if n < 0 {
		n = 0
	}
	if n > int64(len(items)) {
		n = int64(len(items))
	}
	return runtime.FunctionEvaluationResult{Severity: runtime.SeverityNone, Output: runtime.NewTransform(value.NewList(items[:n]))}, nil
}

func callTail(_ context.Context, input *value.Value, bindings runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	items, ok := requireList(input)
	if !ok {
		return runtime.InvalidArgument("list::tail requires a list input"), nil
	}
	n, ok := requireIntParam(bindings, "count")
	if !ok {
		return runtime.InvalidArgument("list::tail requires a \"count\" binding"), nil
	}
	if n < 0 {
		n = 0
	}
	if n > int64(len(items)) {
		n = int64(len(items))
	}
	return runtime.FunctionEvaluationResult{Severity: runtime.SeverityNone, Output: runtime.NewTransform(value.NewList(items[int64(len(items))-n:]))}, nil
}

func callSlice(_ context.Context, input *value.Value, bindings runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	items, ok := requireList(input)
	if !ok {
		return runtime.InvalidArgument("list::slice requires a list input"), nil
	}
	from, ok := requireIntParam(bindings, "from")
	if !ok {
		return runtime.InvalidArgument("list::slice requires a \"from\" binding"), nil
	}
	to, ok := requireIntParam(bindings, "to")
	if !ok {
		return runtime.InvalidArgument("list::slice requires a \"to\" binding"), nil
	}
	if from < 0 {
		from = 0
	}
	if to > int64(len(items)) {
		to = int64(len(items))
	}
	if from > to {
		from = to
	}
	return runtime.FunctionEvaluationResult{Severity: runtime.SeverityNone, Output: runtime.NewTransform(value.NewList(items[from:to]))}, nil
}

func callCount(_ context.Context, input *value.Value, _ runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	items, ok := requireList(input)
	if !ok {
		return runtime.InvalidArgument("list::count requires a list input"), nil
	}
	return runtime.FunctionEvaluationResult{Severity: runtime.SeverityNone, Output: runtime.NewTransform(value.NewInteger(int64(len(items))))}, nil
}

func callFilter(ctx context.Context, input *value.Value, bindings runtime.Bindings, world *runtime.World) (runtime.FunctionEvaluationResult, error) {
	items, ok := requireList(input)
	if !ok {
		return runtime.InvalidArgument("list::filter requires a list input"), nil
	}
	pattern, ok := bindings.Get("pattern")
	if !ok {
		return runtime.InvalidArgument("list::filter requires a \"pattern\" binding"), nil
	}
	results, err := evalEach(ctx, pattern, items, world)
	if err != nil {
		return runtime.FunctionEvaluationResult{}, err
	}
	kept := make([]*value.Value, 0, len(items))
	for i, r := range results {
		if r.IsSatisfied() {
			kept = append(kept, items[i])
		}
	}
	return runtime.FunctionEvaluationResult{Severity: runtime.SeverityNone, Output: runtime.NewTransform(value.NewList(kept)), Supporting: results}, nil
}

func callMap(ctx context.Context, input *value.Value, bindings runtime.Bindings, world *runtime.World) (runtime.FunctionEvaluationResult, error) {
	items, ok := requireList(input)
	if !ok {
		return runtime.InvalidArgument("list::map requires a list input"), nil
	}
	pattern, ok := bindings.Get("pattern")
	if !ok {
		return runtime.InvalidArgument("list::map requires a \"pattern\" binding"), nil
	}
	results, err := evalEach(ctx, pattern, items, world)
	if err != nil {
		return runtime.FunctionEvaluationResult{}, err
	}
	mapped := make([]*value.Value, len(items))
	sev := runtime.SeverityNone
	for i, r := range results {
		mapped[i] = r.Output.Resolve(items[i])
		sev = runtime.MaxSeverity(sev, r.Severity)
	}
	return runtime.FunctionEvaluationResult{Severity: sev, Output: runtime.NewTransform(value.NewList(mapped)), Supporting: results}, nil
}

func callContainsAll(ctx context.Context, input *value.Value, bindings runtime.Bindings, world *runtime.World) (runtime.FunctionEvaluationResult, error) {
	items, ok := requireList(input)
	if !ok {
		return runtime.InvalidArgument("list::contains-all requires a list input"), nil
	}
	needle, ok := bindings.Get("patterns")
	if !ok {
		return runtime.InvalidArgument("list::contains-all requires a \"patterns\" binding"), nil
	}
	wanted, ok := needle.ListElements()
	if !ok {
		return runtime.InvalidArgument("list::contains-all requires \"patterns\" to be a list of patterns"), nil
	}
	econtext := runtime.ContextFromFunction(ctx)
	for _, want := range wanted {
		found := false
		for _, item := range items {
			r, err := want.Evaluate(econtext, world, item, runtime.EmptyScope())
			if err != nil {
				return runtime.FunctionEvaluationResult{}, err
			}
			if r.IsSatisfied() {
				found = true
				break
			}
		}
		if !found {
			return runtime.Satisfied(false, runtime.Identity), nil
		}
	}
	return runtime.Satisfied(true, runtime.Identity), nil
}

func callConcat(_ context.Context, input *value.Value, bindings runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	items, ok := requireList(input)
	if !ok {
		return runtime.InvalidArgument("list::concat requires a list input"), nil
	}
	other, ok := bindings.Get("other")
	if !ok {
		return runtime.InvalidArgument("list::concat requires an \"other\" binding"), nil
	}
	otherItems, ok := other.ListElements()
	if !ok {
		return runtime.InvalidArgument("list::concat requires \"other\" to be a literal list"), nil
	}
	otherValues := make([]*value.Value, 0, len(otherItems))
	for _, p := range otherItems {
		cv, ok := p.ConstValue()
		if !ok {
			return runtime.InvalidArgument("list::concat requires \"other\" elements to be literal values"), nil
		}
		otherValues = append(otherValues, cv)
	}
	out := append(append([]*value.Value(nil), items...), otherValues...)
	return runtime.FunctionEvaluationResult{Severity: runtime.SeverityNone, Output: runtime.NewTransform(value.NewList(out))}, nil
}

func severityFor(ok bool) runtime.Severity {
	if ok {
		return runtime.SeverityNone
	}
	return runtime.SeverityError
}
