// Package cache keeps per-day availability listings in Redis. Every
// operation is best effort: the database stays the source of truth.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"coachslot/internal/availability"
	"coachslot/internal/logger"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "availability:"

// Version counters outlive every listing stored under them.
const minVersionTTL = 24 * time.Hour

type Redis struct {
	client     *redis.Client
	ttl        time.Duration
	versionTTL time.Duration
}

func NewRedis(addr string, ttl time.Duration) *Redis {
	return New(redis.NewClient(&redis.Options{Addr: addr}), ttl)
}

func New(client *redis.Client, ttl time.Duration) *Redis {
	versionTTL := minVersionTTL
	if 2*ttl > versionTTL {
		versionTTL = 2 * ttl
	}
	return &Redis{client: client, ttl: ttl, versionTTL: versionTTL}
}

// Key names a day listing, optionally scoped to one trainer.
func Key(date, trainerID string) string {
	if trainerID == "" {
		trainerID = "all"
	}
	return keyPrefix + date + ":" + trainerID
}

func versionKey(date, trainerID string) string {
	return Key(date, trainerID) + ":version"
}

func dataKey(date, trainerID string, version int64) string {
	return Key(date, trainerID) + ":v" + strconv.FormatInt(version, 10)
}

func (r *Redis) version(ctx context.Context, date, trainerID string) (int64, error) {
	v, err := r.client.Get(ctx, versionKey(date, trainerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (r *Redis) GetDay(ctx context.Context, date, trainerID string) ([]availability.Slot, int64, bool) {
	version, err := r.version(ctx, date, trainerID)
	if err != nil {
		logger.Warn("availability cache read failed", "key", versionKey(date, trainerID), "error", err)
		return nil, -1, false
	}

	key := dataKey(date, trainerID, version)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("availability cache read failed", "key", key, "error", err)
		}
		return nil, version, false
	}

	var slots []availability.Slot
	if err := json.Unmarshal(data, &slots); err != nil {
		logger.Warn("availability cache entry corrupt", "key", key, "error", err)
		return nil, version, false
	}
	return slots, version, true
}

func (r *Redis) SetDay(ctx context.Context, date, trainerID string, version int64, slots []availability.Slot) {
	if version < 0 {
		return
	}
	data, err := json.Marshal(slots)
	if err != nil {
		logger.Warn("availability cache encode failed", "error", err)
		return
	}

	key := dataKey(date, trainerID, version)
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		logger.Warn("availability cache write failed", "key", key, "error", err)
	}
}

// InvalidateDay advances the day's version so earlier listings, including
// ones still being written, are no longer read.
func (r *Redis) InvalidateDay(ctx context.Context, date, trainerID string) {
	key := versionKey(date, trainerID)
	if err := r.client.Incr(ctx, key).Err(); err != nil {
		logger.Warn("availability cache invalidate failed", "key", key, "error", err)
		return
	}
	if err := r.client.Expire(ctx, key, r.versionTTL).Err(); err != nil {
		logger.Warn("availability cache version expiry failed", "key", key, "error", err)
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
