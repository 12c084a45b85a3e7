// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package runtime

import "github.com/seedwing/policy-engine/value"

// OutputKind distinguishes Output's three shapes (§3).
type OutputKind int

const (
	// OutputNone is reserved for severity-Error failures (§4.5).
	OutputNone OutputKind = iota
	// OutputIdentity means the successor sees the same value as the input.
	OutputIdentity
	// OutputTransform means the successor sees a new, function-produced
	// value.
	OutputTransform
)

// Output is the (optional) value a pattern passes to its successor in a
// chain (§3, glossary).
type Output struct {
	Kind      OutputKind
	Transform *value.Value
}

// Identity is the shared Output::Identity value.
var Identity = Output{Kind: OutputIdentity}

// None is the shared Output::None value.
var None = Output{Kind: OutputNone}

// NewTransform wraps v as an Output::Transform.
func NewTransform(v *value.Value) Output { return Output{Kind: OutputTransform, Transform: v} }

// Resolve returns the value an Output carries forward given the input that
// produced it: Identity passes input through; Transform overrides it; None
// has no value (callers must not reach this case on a satisfied result).
func (o Output) Resolve(input *value.Value) *value.Value {
	switch o.Kind {
	case OutputTransform:
		return o.Transform
	case OutputIdentity:
		return input
	default:
		return nil
	}
}

// ComposeChain folds a sequence of per-term outputs into the final chain
// output per §8 property 4: "the final output equals the rightmost
// non-Identity transform; if all are Identity, the output is Identity."
func ComposeChain(outputs []Output) Output {
	for i := len(outputs) - 1; i >= 0; i-- {
		if outputs[i].Kind == OutputTransform {
			return outputs[i]
		}
	}
	return Identity
}
