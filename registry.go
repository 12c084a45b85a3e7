// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package engine

import (
	"github.com/seedwing/policy-engine/runtime"
	"github.com/seedwing/policy-engine/stdlib/base64fn"
	"github.com/seedwing/policy-engine/stdlib/configfn"
	"github.com/seedwing/policy-engine/stdlib/datafn"
	"github.com/seedwing/policy-engine/stdlib/debugfn"
	"github.com/seedwing/policy-engine/stdlib/jsonfn"
	"github.com/seedwing/policy-engine/stdlib/langfn"
	"github.com/seedwing/policy-engine/stdlib/listfn"
	"github.com/seedwing/policy-engine/stdlib/mavenfn"
	"github.com/seedwing/policy-engine/stdlib/netfn"
	"github.com/seedwing/policy-engine/stdlib/pemfn"
	"github.com/seedwing/policy-engine/stdlib/semverfn"
	"github.com/seedwing/policy-engine/stdlib/strfn"
	"github.com/seedwing/policy-engine/stdlib/timestampfn"
	"github.com/seedwing/policy-engine/stdlib/urifn"
	"github.com/seedwing/policy-engine/stdlib/x509fn"
)

// DefaultRegistry builds a Registry with every standard-library package
// registered under its conventional path (§6). Callers needing a plugin
// function or a custom package register additional Packages on top of this
// before building a World.
func DefaultRegistry() *runtime.Registry {
	r := runtime.NewRegistry()
	r.Register(langfn.Package())
	r.Register(strfn.Package())
	r.Register(listfn.Package())
	r.Register(base64fn.Package())
	r.Register(jsonfn.Package())
	r.Register(urifn.Package())
	r.Register(netfn.Package())
	r.Register(mavenfn.Package())
	r.Register(semverfn.Package())
	r.Register(timestampfn.Package())
	r.Register(pemfn.Package())
	r.Register(x509fn.Package())
	r.Register(datafn.Package())
	r.Register(debugfn.Package())
	r.Register(configfn.Package())
	return r
}
