// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package x509fn implements the `x509` standard-library family: certificate
// parsing atop crypto/x509, with PEM unwrapping delegated to encoding/pem
// (§4.3).
package x509fn

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"time"

	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/value"
)

// Package builds the `x509` standard-library package.
func Package() *runtime.Package {
	pkg := runtime.NewPackage("x509")
	pkg.WithFunction("pem", &runtime.SimpleFunction{
		Input: runtime.InputAnything, Cost: runtime.OrderPureMax,
		Meta: runtime.Metadata{Doc: "Parses a PEM- or DER-encoded certificate into its decoded subject/issuer/validity fields."},
		Fn:   callParse,
	})
	pkg.WithFunction("expired", &runtime.SimpleFunction{
		Input: runtime.InputAnything, Cost: runtime.OrderPureMax,
		Meta: runtime.Metadata{Doc: "Satisfied iff the given PEM- or DER-encoded certificate's NotAfter has already passed."},
		Fn:   callExpired,
	})
	return pkg
}

func parseCert(v *value.Value) (*x509.Certificate, error) {
	raw, ok := rawBytes(v)
	if !ok {
		return nil, errNotBytes
	}
	if block, _ := pem.Decode(raw); block != nil {
		raw = block.Bytes
	}
	return x509.ParseCertificate(raw)
}

func rawBytes(v *value.Value) ([]byte, bool) {
	if s, ok := v.String(); ok {
		return []byte(s), true
	}
	return v.Octets()
}

var errNotBytes = x509Err("x509: requires a string or octets input")

type x509Err string

func (e x509Err) Error() string { return string(e) }

func callParse(_ context.Context, input *value.Value, _ runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	cert, err := parseCert(input)
	if err != nil {
		return runtime.InvalidArgument("x509::pem: %v", err), nil
	}
	obj := value.NewObject()
	obj.Set("subject", value.NewString(cert.Subject.String()))
	obj.Set("issuer", value.NewString(cert.Issuer.String()))
	obj.Set("notBefore", value.NewString(cert.NotBefore.Format(time.RFC3339)))
	obj.Set("notAfter", value.NewString(cert.NotAfter.Format(time.RFC3339)))
	obj.Set("serial", value.NewString(cert.SerialNumber.String()))
	return runtime.FunctionEvaluationResult{Severity: runtime.SeverityNone, Output: runtime.NewTransform(value.NewObjectValue(obj))}, nil
}

func callExpired(_ context.Context, input *value.Value, _ runtime.Bindings, _ *runtime.World) (runtime.FunctionEvaluationResult, error) {
	cert, err := parseCert(input)
	if err != nil {
		return runtime.InvalidArgument("x509::expired: %v", err), nil
	}
	return runtime.Satisfied(time.Now().After(cert.NotAfter), runtime.Identity), nil
}
