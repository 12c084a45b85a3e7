// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package runtime

import (
	"github.com/samber/oops"
)

// RuntimeError codes name the six shapes in §7 that are surfaced to the
// caller of World.Evaluate, strictly distinct from policy failures (which
// are ordinary EvaluationResults with severity Error).
const (
	ErrInvalidState      = "INVALID_STATE"
	ErrNoSuchPattern     = "NO_SUCH_PATTERN"
	ErrNoSuchPatternSlot = "NO_SUCH_PATTERN_SLOT"
	ErrJSON              = "JSON_ERROR"
	ErrYAML              = "YAML_ERROR"
	ErrFileUnreadable    = "FILE_UNREADABLE"
)

// NoSuchPattern builds the oops-coded error for a PatternName with no
// registered slot.
func NoSuchPattern(name PatternName) error {
	return oops.Code(ErrNoSuchPattern).With("pattern", name.String()).
		Errorf("runtime: no such pattern %q", name)
}

// NoSuchPatternSlot builds the oops-coded error for an out-of-range slot
// index; this indicates a compiler bug, never a user-facing input error.
func NoSuchPatternSlot(slot int) error {
	return oops.Code(ErrNoSuchPatternSlot).With("slot", slot).
		Errorf("runtime: no such pattern slot %d", slot)
}

// InvalidState builds the oops-coded error for depth-guard exhaustion and
// unresolved Argument references (§4.4, §4.10).
func InvalidState(reason string) error {
	return oops.Code(ErrInvalidState).Errorf("runtime: invalid state: %s", reason)
}
