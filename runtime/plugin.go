// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package runtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/rpc"
	"os/exec"

	goplugin "github.com/hashicorp/go-plugin"
	"github.com/samber/oops"

	"github.com/seedwing/policy-engine/value"
)

// PluginHandshake is the handshake both host and out-of-process function
// plugins must agree on (§4.3: "a Function's body is an external
// collaborator" — a binary plugin is the most external collaborator
// possible). Mirrored verbatim on the plugin side; a cookie mismatch is
// go-plugin's defense against accidentally executing an unrelated binary
// as a plugin.
var PluginHandshake = goplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "SEEDWING_PLUGIN",
	MagicCookieValue: "policy-engine-function",
}

// pluginArgs is the net/rpc request for a single Function.Call: the input
// value and the resolved literal bindings, both JSON-encoded since go-plugin
// RPC arguments must be gob-encodable and value.Value is not exported
// field-for-field.
type pluginArgs struct {
	Input    []byte
	Bindings map[string][]byte
}

// pluginReply is the net/rpc response mirroring FunctionEvaluationResult,
// with Output and an optional Rationale flattened to wire-friendly fields.
type pluginReply struct {
	Severity         Severity
	Output           []byte // JSON-encoded value.Value, or nil for Output::None/Identity
	OutputIsIdentity bool
	RationaleMessage string // empty unless the call failed with InvalidArgument
}

// pluginMetaReply mirrors Metadata plus the function's declared InputKind,
// Order, and Parameters, fetched once when the plugin is loaded.
type pluginMetaReply struct {
	Input      InputKind
	Cost       int
	Doc        string
	Params     []string
}

// FunctionRPC is the net/rpc service interface a function plugin binary
// must expose. Plugins implement this directly (no protobuf generation
// required, unlike the teacher's event-streaming gRPC plugins) since a
// Function's wire contract is a single synchronous request/response.
type FunctionRPC interface {
	Describe(args struct{}, reply *pluginMetaReply) error
	Call(args pluginArgs, reply *pluginReply) error
}

// FunctionPlugin adapts a FunctionRPC implementation to go-plugin's
// net/rpc Plugin contract.
type FunctionPlugin struct {
	Impl FunctionRPC
}

func (p *FunctionPlugin) Server(*goplugin.MuxBroker) (interface{}, error) {
	return p.Impl, nil
}

func (p *FunctionPlugin) Client(_ *goplugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &rpcFunctionClient{client: c}, nil
}

// rpcFunctionClient is the host-side stub: it satisfies FunctionRPC by
// forwarding to the net/rpc client, and is wrapped again by pluginFunction
// to satisfy the ordinary Function interface.
type rpcFunctionClient struct{ client *rpc.Client }

func (c *rpcFunctionClient) Describe(args struct{}, reply *pluginMetaReply) error {
	return c.client.Call("Plugin.Describe", args, reply)
}

func (c *rpcFunctionClient) Call(args pluginArgs, reply *pluginReply) error {
	return c.client.Call("Plugin.Call", args, reply)
}

// pluginFunction adapts a loaded FunctionRPC client to the ordinary
// Function interface, so a PluginPackage's functions are indistinguishable
// from in-process stdlib functions to the rest of the evaluator.
type pluginFunction struct {
	rpc  FunctionRPC
	meta pluginMetaReply
}

func (f *pluginFunction) InputKind() InputKind { return f.meta.Input }
func (f *pluginFunction) Order() int           { return f.meta.Cost }
func (f *pluginFunction) Metadata() Metadata   { return Metadata{Doc: f.meta.Doc} }
func (f *pluginFunction) Parameters() []string { return f.meta.Params }
func (f *pluginFunction) Examples() []*value.Value { return nil }

func (f *pluginFunction) Call(ctx context.Context, input *value.Value, bindings Bindings, _ *World) (FunctionEvaluationResult, error) {
	inputJSON, err := json.Marshal(input.ToJSON())
	if err != nil {
		return FunctionEvaluationResult{}, oops.Code("PLUGIN_ENCODE_ERROR").Wrap(err)
	}
	wireBindings := make(map[string][]byte, len(f.meta.Params))
	for _, name := range f.meta.Params {
		p, ok := bindings.Get(name)
		if !ok {
			continue
		}
		cv, ok := p.ConstValue()
		if !ok {
			continue
		}
		raw, err := json.Marshal(cv.ToJSON())
		if err != nil {
			return FunctionEvaluationResult{}, oops.Code("PLUGIN_ENCODE_ERROR").Wrap(err)
		}
		wireBindings[name] = raw
	}

	var reply pluginReply
	done := make(chan error, 1)
	go func() {
		done <- f.rpc.Call(pluginArgs{Input: inputJSON, Bindings: wireBindings}, &reply)
	}()
	select {
	case err := <-done:
		if err != nil {
			return FunctionEvaluationResult{}, oops.Code("PLUGIN_CALL_ERROR").Wrap(err)
		}
	case <-ctx.Done():
		return FunctionEvaluationResult{}, ctx.Err()
	}

	if reply.RationaleMessage != "" {
		return InvalidArgument("%s", reply.RationaleMessage), nil
	}
	out := Identity
	if !reply.OutputIsIdentity {
		var generic any
		if len(reply.Output) > 0 {
			if err := json.Unmarshal(reply.Output, &generic); err != nil {
				return FunctionEvaluationResult{}, oops.Code("PLUGIN_DECODE_ERROR").Wrap(err)
			}
			v, err := value.FromJSON(generic)
			if err != nil {
				return FunctionEvaluationResult{}, oops.Code("PLUGIN_DECODE_ERROR").Wrap(err)
			}
			out = NewTransform(v)
		} else {
			out = None
		}
	}
	return FunctionEvaluationResult{Severity: reply.Severity, Output: out}, nil
}

// LoadPluginPackage launches the function-plugin binary at path, dispenses
// its single "function" plugin, and wraps it as an ordinary Package under
// pkgPath so it can be registered into a Registry like any in-process
// stdlib package (§4.3, the out-of-process extension point called out in
// SPEC_FULL.md's domain stack). The returned io.Closer-like cleanup is the
// client's Kill method; callers should defer it for the lifetime of the
// World built from this registration.
func LoadPluginPackage(path string, pkgPath ...string) (*Package, func(), error) {
	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig: PluginHandshake,
		Plugins:         map[string]goplugin.Plugin{"function": &FunctionPlugin{}},
		Cmd:             exec.Command(path),
		AllowedProtocols: []goplugin.Protocol{goplugin.ProtocolNetRPC},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		slog.Warn("plugin launch failed", slog.String("path", path), slog.Any("error", err))
		return nil, nil, oops.Code("PLUGIN_LAUNCH_ERROR").With("path", path).Wrap(err)
	}
	raw, err := rpcClient.Dispense("function")
	if err != nil {
		client.Kill()
		slog.Warn("plugin dispense failed", slog.String("path", path), slog.Any("error", err))
		return nil, nil, oops.Code("PLUGIN_DISPENSE_ERROR").With("path", path).Wrap(err)
	}
	fnRPC, ok := raw.(FunctionRPC)
	if !ok {
		client.Kill()
		return nil, nil, oops.Code("PLUGIN_SHAPE_ERROR").With("path", path).Errorf("plugin does not implement FunctionRPC")
	}

	var meta pluginMetaReply
	if err := fnRPC.Describe(struct{}{}, &meta); err != nil {
		client.Kill()
		slog.Warn("plugin describe failed", slog.String("path", path), slog.Any("error", err))
		return nil, nil, oops.Code("PLUGIN_DESCRIBE_ERROR").With("path", path).Wrap(err)
	}
	slog.Info("plugin loaded", slog.String("path", path), slog.String("package", PackagePath(pkgPath).String()))

	pkg := NewPackage(pkgPath...)
	pkg.WithFunction("call", &pluginFunction{rpc: fnRPC, meta: meta})
	return pkg, client.Kill, nil
}
