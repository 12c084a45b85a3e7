// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package runtime implements the LIR pattern model, the immutable World,
// the recursive evaluator, the function extension point, and the
// rationale produced by evaluation (§3, §4.3–§4.7, §4.10). Pattern,
// Function, and EvaluationResult are mutually referential in the source
// specification (a Primordial pattern embeds a Function, and a Function's
// result embeds EvaluationResult, which embeds Pattern) so they are kept
// in one package to avoid an import cycle that the upstream Rust crate
// does not have to contend with.
package runtime

// Severity is the totally ordered outcome scale `None < Advice < Warning <
// Error` (§3). A result is satisfied iff its severity is strictly less
// than Error.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityAdvice
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityAdvice:
		return "advice"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Satisfied reports whether s is below Error.
func (s Severity) Satisfied() bool { return s < SeverityError }

// MaxSeverity returns the highest of a and b, used for and/object/list
// composition (§8 property 2).
func MaxSeverity(a, b Severity) Severity {
	if a > b {
		return a
	}
	return b
}

// MinSeverity returns the lowest of a and b, used for Or's
// satisfied-children composition (§9 Open Question (a)).
func MinSeverity(a, b Severity) Severity {
	if a < b {
		return a
	}
	return b
}
