package main

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vnykmshr/goshape/internal/config"
	"github.com/vnykmshr/goshape/pkg/queue"
	"github.com/vnykmshr/goshape/pkg/ratelimit/leakybucket"
	"github.com/vnykmshr/goshape/pkg/shaper"
)

func TestOpenRegistry_Memory(t *testing.T) {
	cfg, err := config.Load(config.Flags("test"), nil)
	require.NoError(t, err)
	cfg.Registry.Items = map[string]float64{"a": 1, "b": 2}

	reg, closeReg, err := openRegistry(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer func() { assert.NoError(t, closeReg()) }()

	rec, err := reg.Lookup(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, 2.0, rec.Rate())
	assert.NotNil(t, rec.Locker())
}

func TestOpenRegistry_RedisKeepsExistingAccounting(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	cfg, err := config.Load(config.Flags("test"), []string{
		"--registry-backend", "redis", "--redis-addr", server.Addr(),
	})
	require.NoError(t, err)
	cfg.Registry.Items = map[string]float64{"a": 4}
	ctx := context.Background()

	reg, closeReg, err := openRegistry(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	rec, err := reg.Lookup(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, rec.Store(ctx, leakybucket.State{Credit: 123, LastTick: 9}))
	require.NoError(t, closeReg())

	reg, closeReg, err = openRegistry(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer func() { assert.NoError(t, closeReg()) }()

	snap, err := reg.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]leakybucket.State{"a": {Credit: 123, LastTick: 9}}, snap)
}

func TestOpenRegistry_RedisUnreachable(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	addr := server.Addr()
	server.Close()

	cfg, err := config.Load(config.Flags("test"), []string{"--registry-backend", "redis", "--redis-addr", addr})
	require.NoError(t, err)

	_, _, err = openRegistry(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestProducerConsumer(t *testing.T) {
	in := queue.NewRing[shaper.Request](4)
	prod := newProducer(in, 1000, 20, []string{"a", "b"}, zap.NewNop())
	cons := newConsumer(in, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	g := shaper.NewGroup(ctx, nil)
	g.Go("producer", prod.run)
	g.Go("consumer", cons.run)
	require.NoError(t, g.Wait())

	assert.Positive(t, prod.produced.Load())
	assert.Equal(t, prod.produced.Load(), cons.delivered.Load()+uint64(in.Len()))
}

func TestItemIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, itemIDs(map[string]float64{"c": 1, "a": 1, "b": 1}))
	assert.Empty(t, itemIDs(nil))
}
