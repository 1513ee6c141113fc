package redisreg

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	gferrors "github.com/vnykmshr/goshape/pkg/common/errors"
	"github.com/vnykmshr/goshape/pkg/common/validation"
	"github.com/vnykmshr/goshape/pkg/ratelimit/leakybucket"
	"github.com/vnykmshr/goshape/pkg/registry"
)

const (
	fieldRate     = "rate"
	fieldCredit   = "credit"
	fieldLastTick = "last_tick"

	scanCount = 100
)

// Registry keeps per-item bucket records in Redis hashes so that drain loops
// in several processes can share them.
type Registry struct {
	config Config
}

var (
	_ registry.Registry    = (*Registry)(nil)
	_ registry.Snapshotter = (*Registry)(nil)
)

// New creates a Redis registry.
func New(config Config) (*Registry, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return &Registry{config: applyConfigDefaults(config)}, nil
}

func (r *Registry) itemKey(id string) string {
	return r.config.KeyPrefix + ":item:" + id
}

func (r *Registry) lockKey(id string) string {
	return r.config.KeyPrefix + ":lock:" + id
}

func (r *Registry) idFromKey(key string) string {
	return strings.TrimPrefix(key, r.config.KeyPrefix+":item:")
}

// Put creates or replaces the record for id.
func (r *Registry) Put(ctx context.Context, id string, rate float64, s leakybucket.State) error {
	if err := validation.ValidateNotEmpty("redisreg", "id", id); err != nil {
		return err
	}
	if err := validation.ValidatePositiveFloat("redisreg", "rate", rate); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	err := r.config.Client.HSet(ctx, r.itemKey(id),
		fieldRate, formatFloat(rate),
		fieldCredit, formatFloat(s.Credit),
		fieldLastTick, strconv.FormatInt(int64(s.LastTick), 10),
	).Err()
	if err != nil {
		return gferrors.NewOperationError("redisreg", "Put", err).WithContext("id=" + id)
	}
	return nil
}

// Remove deletes the record for id along with any lock lease on it.
func (r *Registry) Remove(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	if err := r.config.Client.Del(ctx, r.itemKey(id), r.lockKey(id)).Err(); err != nil {
		return gferrors.NewOperationError("redisreg", "Remove", err).WithContext("id=" + id)
	}
	return nil
}

// Lookup implements registry.Registry.
func (r *Registry) Lookup(ctx context.Context, id string) (registry.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	raw, err := r.config.Client.HGet(ctx, r.itemKey(id), fieldRate).Result()
	if err == redis.Nil {
		return nil, registry.ErrNotFound
	}
	if err != nil {
		return nil, gferrors.NewOperationError("redisreg", "Lookup", err).WithContext("id=" + id)
	}

	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil || !(rate > 0) || math.IsInf(rate, 1) {
		return nil, fmt.Errorf("%w: %s rate=%q", registry.ErrMalformed, id, raw)
	}

	return &record{
		reg:  r,
		id:   id,
		rate: rate,
		lock: newLease(r.config, r.lockKey(id)),
	}, nil
}

// Snapshot implements registry.Snapshotter by scanning every item key under the prefix.
func (r *Registry) Snapshot(ctx context.Context) (map[string]leakybucket.State, error) {
	out := make(map[string]leakybucket.State)
	iter := r.config.Client.Scan(ctx, 0, r.config.KeyPrefix+":item:*", scanCount).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		s, err := r.load(ctx, key)
		if err == registry.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[r.idFromKey(key)] = s
	}
	if err := iter.Err(); err != nil {
		return nil, gferrors.NewOperationError("redisreg", "Snapshot", err)
	}
	return out, nil
}

func (r *Registry) load(ctx context.Context, key string) (leakybucket.State, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	vals, err := r.config.Client.HMGet(ctx, key, fieldCredit, fieldLastTick).Result()
	if err != nil {
		return leakybucket.State{}, gferrors.NewOperationError("redisreg", "Load", err).WithContext("key=" + key)
	}
	if vals[0] == nil && vals[1] == nil {
		return leakybucket.State{}, registry.ErrNotFound
	}

	var s leakybucket.State
	if str, ok := vals[0].(string); ok {
		if s.Credit, err = strconv.ParseFloat(str, 64); err != nil {
			return leakybucket.State{}, fmt.Errorf("%w: %s credit=%q", registry.ErrMalformed, key, str)
		}
	}
	if str, ok := vals[1].(string); ok {
		tick, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return leakybucket.State{}, fmt.Errorf("%w: %s last_tick=%q", registry.ErrMalformed, key, str)
		}
		s.LastTick = leakybucket.Tick(tick)
	}
	return s, nil
}

func (r *Registry) store(ctx context.Context, key string, s leakybucket.State) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	err := r.config.Client.HSet(ctx, key,
		fieldCredit, formatFloat(s.Credit),
		fieldLastTick, strconv.FormatInt(int64(s.LastTick), 10),
	).Err()
	if err != nil {
		return gferrors.NewOperationError("redisreg", "Store", err).WithContext("key=" + key)
	}
	return nil
}

type record struct {
	reg  *Registry
	id   string
	rate float64
	lock *lease
}

func (rec *record) ID() string              { return rec.id }
func (rec *record) Rate() float64           { return rec.rate }
func (rec *record) Locker() registry.Locker { return rec.lock }

func (rec *record) Load(ctx context.Context) (leakybucket.State, error) {
	return rec.reg.load(ctx, rec.reg.itemKey(rec.id))
}

func (rec *record) Store(ctx context.Context, s leakybucket.State) error {
	return rec.reg.store(ctx, rec.reg.itemKey(rec.id), s)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
