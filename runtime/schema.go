// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package runtime

import (
	"github.com/invopop/jsonschema"
)

// inputKindSchema is the fixed JSON-Schema fragment for each InputKind,
// shared by every Function that declares it (§4.3: function metadata
// feeds JSON-Schema generation for tooling/docs).
var inputKindSchema = map[InputKind]*jsonschema.Schema{
	InputAnything: {},
	InputString:   {Type: "string"},
	InputBoolean:  {Type: "boolean"},
	InputInteger:  {Type: "integer"},
	InputDecimal:  {Type: "number"},
	InputPattern:  {},
}

// FunctionSchema renders fn's declared input shape and documentation as a
// JSON-Schema fragment, for the playground/tooling surfaces that describe
// available stdlib functions without needing a Dogma evaluator to do it.
func FunctionSchema(fn Function) *jsonschema.Schema {
	base, ok := inputKindSchema[fn.InputKind()]
	if !ok {
		base = &jsonschema.Schema{}
	}
	s := *base
	s.Title = fn.Metadata().Doc
	for _, ex := range fn.Examples() {
		s.Examples = append(s.Examples, ex.ToJSON())
	}
	return &s
}

// PackageSchema renders every function in pkg keyed by its unqualified
// name, suitable for serializing as a single JSON-Schema "properties"-style
// document describing the whole package's surface.
func PackageSchema(pkg *Package) map[string]*jsonschema.Schema {
	out := make(map[string]*jsonschema.Schema, len(pkg.Functions))
	for name, fn := range pkg.Functions {
		out[name] = FunctionSchema(fn)
	}
	return out
}
