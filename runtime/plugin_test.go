// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/seedwing/policy-engine/value"
)

// blockingRPC never returns from Call, so the only way pluginFunction.Call
// can return is by observing ctx.Done().
type blockingRPC struct{ unblock chan struct{} }

func (b *blockingRPC) Describe(struct{}, *pluginMetaReply) error { return nil }
func (b *blockingRPC) Call(pluginArgs, *pluginReply) error {
	<-b.unblock
	return nil
}

func TestPluginFunctionCall_ContextCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	unblock := make(chan struct{})
	defer close(unblock)

	f := &pluginFunction{rpc: &blockingRPC{unblock: unblock}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Call(ctx, value.NewInteger(1), Bindings{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPluginFunctionCall_ContextTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	unblock := make(chan struct{})
	defer close(unblock)

	f := &pluginFunction{rpc: &blockingRPC{unblock: unblock}}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Call(ctx, value.NewInteger(1), Bindings{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
