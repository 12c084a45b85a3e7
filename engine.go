// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package engine

import (
	"context"

	"github.com/seedwing/policy-engine/data"
	"github.com/seedwing/policy-engine/monitor"
	"github.com/seedwing/policy-engine/response"
	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

// World wraps a built runtime.World with the monitor it was built to report
// to, so callers get one object to hold onto for both evaluation and trace
// subscription.
type World struct {
	inner *runtime.World
	mon   *monitor.Monitor
}

// Build lowers every Unit added via Add into a World backed by sources and
// cfg. cfg may be nil (an empty configuration map is used).
func (b *Builder) Build(sources data.Sources, cfg *data.Config) (*World, error) {
	w, err := b.build(sources, cfg)
	if err != nil {
		return nil, err
	}
	return &World{inner: w}, nil
}

// WithMonitor attaches a monitor.Monitor to w for every subsequent Evaluate
// call. The evaluator's tracing envelope (otel spans, structured logs, and
// Subscribe-able trace events) runs only when a monitor is attached and the
// world was built with tracing enabled (Builder.WithTrace(true)). Pass a
// fresh monitor.New() to start collecting; w is returned for chaining.
func (w *World) WithMonitor(mon *monitor.Monitor) *World {
	w.mon = mon
	return w
}

// Monitor returns the world's attached monitor, or nil if none was set.
func (w *World) Monitor() *monitor.Monitor { return w.mon }

// Runtime exposes the underlying runtime.World for callers that need direct
// access (e.g. Get for module browsing, or DataSources/Config inspection).
func (w *World) Runtime() *runtime.World { return w.inner }

// Evaluate resolves path (`pkg::sub::name`) and evaluates it against input
// under ctx, opening a fresh correlation id on the attached monitor (if any)
// for this call (§4.4, §4.9).
func (w *World) Evaluate(ctx context.Context, path string, input *value.Value) (*runtime.EvaluationResult, error) {
	ec := runtime.NewEvalContext(ctx, w.mon)
	return w.inner.Evaluate(ec, path, input)
}

// Respond is Evaluate followed by response.New, the shape the policy HTTP
// API's decision endpoint renders to callers (§6).
func (w *World) Respond(ctx context.Context, path string, input *value.Value) (*response.Response, error) {
	result, err := w.Evaluate(ctx, path, input)
	if err != nil {
		return nil, err
	}
	return response.New(result), nil
}
