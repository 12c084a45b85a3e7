// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package urifn implements the `uri` standard-library family: url, purl,
// and iri validation/parsing (§4.3), atop net/url. A purl (package URL,
// pkg:type/namespace/name@version) is not itself a URL scheme net/url
// understands natively, so it gets its own light parser.
package urifn

import (
	"context"
	"net/url"
	"regexp"

	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

var purlPattern = regexp.MustCompile(`^pkg:[a-zA-Z0-9.+-]+/.+$`)

// Package builds the `uri` standard-library package.
func Package() *runtime.Package {
	pkg := runtime.NewPackage("uri")
	pkg.WithFunction("url", &runtime.SimpleFunction{
		Input: runtime.InputString, Cost: 15,
		Meta: runtime.Metadata{Doc: "Satisfied iff the input string parses as an absolute URL."},
		Fn:   callURL,
	})
	pkg.WithFunction("purl", &runtime.SimpleFunction{
		Input: runtime.InputString, Cost: 15,
		Meta: runtime.Metadata{Doc: "Satisfied iff the input string is a well-formed Package URL (pkg:type/name@version)."},
		Fn:   callPurl,
	})
	pkg.WithFunction("iri", &runtime.SimpleFunction{
		Input: runtime.InputString, Cost: 15,
		Meta: runtime.Metadata{Doc: "Satisfied iff the input string parses as an Internationalized Resource Identifier."},
		Fn:   callIRI,
	})
	return pkg
}

func callURL(_ context.Context, input *value.Value, _ runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	s, ok := input.String()
	if !ok {
		return runtime.InvalidArgument("uri::url requires a string input"), nil
	}
	u, err := url.ParseRequestURI(s)
	return runtime.Satisfied(err == nil && u.Scheme != "" && u.Host != "", runtime.Identity), nil
}

func callPurl(_ context.Context, input *value.Value, _ runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	s, ok := input.String()
	if !ok {
		return runtime.InvalidArgument("uri::purl requires a string input"), nil
	}
	return runtime.Satisfied(purlPattern.MatchString(s), runtime.Identity), nil
}

func callIRI(_ context.Context, input *value.Value, _ runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	s, ok := input.String()
	if !ok {
		return runtime.InvalidArgument("uri::iri requires a string input"), nil
	}
	// net/url.Parse is permissive enough to cover IRIs (unicode host/path
	// segments); a strict IRI grammar is out of scope, matching the
	// "shape only" boundary for this stdlib family.
	_, err := url.Parse(s)
	return runtime.Satisfied(err == nil, runtime.Identity), nil
}
