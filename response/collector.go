// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package response

import "github.com/seedwing/policy-engine/runtime"

// Collector walks a Response tree and gathers the outermost failing nodes:
// a response reachable from the root through only failed ancestors, with no
// more failures underneath it (its children, if any, are all satisfied), or
// a response explicitly marked authoritative (§4.8), grounded on the
// upstream engine's runtime/response/collector.rs.
type Collector struct {
	response            *Response
	severity            runtime.Severity
	ignoreAuthoritative bool
}

// NewCollector creates a Collector over response with the default
// threshold, SeverityError.
func NewCollector(response *Response) *Collector {
	return &Collector{response: response, severity: runtime.SeverityError}
}

// WithSeverity overrides the threshold a node's severity must reach to
// count as failed (a node is failed iff its severity is not strictly below
// severity).
func (c *Collector) WithSeverity(severity runtime.Severity) *Collector {
	c.severity = severity
	return c
}

// HighestSeverity uses the root response's own recorded severity as the
// threshold, so the collected leaves are exactly those at the worst
// severity actually produced.
func (c *Collector) HighestSeverity() *Collector {
	if sev, ok := c.response.Severity(); ok {
		c.severity = sev
	}
	return c
}

// IgnoreAuthoritative is shorthand for WithIgnoreAuthoritative(true).
func (c *Collector) IgnoreAuthoritative() *Collector {
	return c.WithIgnoreAuthoritative(true)
}

// WithIgnoreAuthoritative controls whether a node marked authoritative
// still stops descent even when some of its children are also failed.
func (c *Collector) WithIgnoreAuthoritative(ignore bool) *Collector {
	c.ignoreAuthoritative = ignore
	return c
}

// Collect performs the walk and returns the flattened list of failing
// leaves, each with its own rationale cleared (the point of collapsing is
// to present one flat list, not the original tree beneath each leaf).
func (c *Collector) Collect() []*Response {
	var out []*Response
	c.response.WalkTree(func(r *Response) bool {
		if r.satisfied(c.severity) {
			return false
		}
		allChildrenSatisfied := true
		for _, child := range r.Rationale() {
			if !child.satisfied(c.severity) {
				allChildrenSatisfied = false
				break
			}
		}
		if (r.Authoritative() && !c.ignoreAuthoritative) || allChildrenSatisfied {
			leaf := *r
			leaf.rationale, leaf.hasRationale = nil, false
			out = append(out, &leaf)
			return false
		}
		return true
	})
	return out
}
