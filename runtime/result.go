// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package runtime

import (
	"time"

	"github.com/seedwing/policy-engine/value"
)

// EvaluationResult is the outcome of evaluating a Pattern against a value
// (§3): the input, the pattern that produced the result, a Rationale, an
// Output, and an optional trace record.
type EvaluationResult struct {
	Input    *value.Value
	Pattern  *Pattern
	Rationale *Rationale
	Output   Output
	Severity Severity
	Trace    *TraceRecord
}

// TraceRecord captures per-evaluation timing when the world's trace
// configuration is enabled and a monitor is attached to the evaluation
// (§4.4).
type TraceRecord struct {
	Elapsed time.Duration
}

// newResult builds an EvaluationResult from a computed rationale with the
// given severity. sev is always the caller's; it is never derived here from
// the rationale shape (functions may report a severity independent of
// their rationale's natural derivation, e.g. Warning on a technically-true
// check).
func newResult(p *Pattern, input *value.Value, rationale *Rationale, output Output, sev Severity) *EvaluationResult {
	return &EvaluationResult{Input: input, Pattern: p, Rationale: rationale, Output: output, Severity: sev}
}

// Satisfied reports whether the result's severity is below threshold (§3:
// "satisfied iff severity is strictly less than Error" — threshold is
// SeverityError for ordinary satisfaction; the Collector parameterizes it,
// §4.8).
func (r *EvaluationResult) Satisfied(threshold Severity) bool {
	return r.Severity < threshold
}

// IsSatisfied is Satisfied(SeverityError), the default/ordinary notion of
// satisfaction (§3, §8 property 3).
func (r *EvaluationResult) IsSatisfied() bool { return r.Satisfied(SeverityError) }

// WithTrace attaches an elapsed-time trace record, returning the same
// result for chaining.
func (r *EvaluationResult) WithTrace(elapsed time.Duration) *EvaluationResult {
	r.Trace = &TraceRecord{Elapsed: elapsed}
	return r
}
