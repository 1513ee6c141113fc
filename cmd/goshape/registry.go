package main

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vnykmshr/goshape/internal/config"
	"github.com/vnykmshr/goshape/pkg/ratelimit/leakybucket"
	"github.com/vnykmshr/goshape/pkg/registry"
	"github.com/vnykmshr/goshape/pkg/registry/redisreg"
)

// sharedRegistry is what the command needs from either backend.
type sharedRegistry interface {
	registry.Registry
	registry.Snapshotter
}

// openRegistry builds the configured backend and makes sure every
// configured item exists in it. The returned func releases the backend.
func openRegistry(ctx context.Context, cfg *config.Config, logger *zap.Logger) (sharedRegistry, func() error, error) {
	if cfg.Registry.Backend == config.BackendRedis {
		return openRedis(ctx, cfg, logger)
	}

	entries := make(map[string]registry.Entry, len(cfg.Registry.Items))
	for id, rate := range cfg.Registry.Items {
		entries[id] = registry.Entry{Rate: rate, Lock: registry.NewMutexLocker()}
	}
	reg, err := registry.NewMemory(entries)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("memory registry ready", zap.Int("items", reg.Len()))
	return reg, func() error { return nil }, nil
}

func openRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) (sharedRegistry, func() error, error) {
	rc := cfg.Registry.Redis
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", rc.Addr, err)
	}

	reg, err := redisreg.New(redisreg.Config{
		Client:    client,
		KeyPrefix: rc.KeyPrefix,
		LockTTL:   rc.LockTTL,
		LockWait:  rc.LockWait,
	})
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	// Items already present keep their accounting, so restarts and other
	// processes sharing the prefix are not reset.
	created := 0
	for _, id := range itemIDs(cfg.Registry.Items) {
		_, err := reg.Lookup(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, registry.ErrNotFound) {
			_ = client.Close()
			return nil, nil, err
		}
		if err := reg.Put(ctx, id, cfg.Registry.Items[id], leakybucket.State{}); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		created++
	}

	logger.Info("redis registry ready",
		zap.String("addr", rc.Addr),
		zap.String("prefix", rc.KeyPrefix),
		zap.Int("items", len(cfg.Registry.Items)),
		zap.Int("created", created))
	return reg, client.Close, nil
}

func itemIDs(items map[string]float64) []string {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
