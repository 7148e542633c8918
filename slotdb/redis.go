// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package slotdb

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const redisScanCount = 256

// Redis keeps slots in a redis server under prefix + hex(key). The context
// bounds every request the store makes.
type Redis struct {
	ctx    context.Context
	client redis.UniversalClient
	prefix string
}

func NewRedis(ctx context.Context, client redis.UniversalClient, prefix string) *Redis {
	return &Redis{ctx: ctx, client: client, prefix: prefix}
}

// RedisFromURL connects to the server at a redis:// URL.
func RedisFromURL(ctx context.Context, url string, prefix string) (*Redis, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis url")
	}
	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "connecting to redis")
	}
	return NewRedis(ctx, client, prefix), nil
}

func (r *Redis) redisKey(key common.Hash) string {
	return r.prefix + hex.EncodeToString(key[:])
}

func (r *Redis) ReadSlot(key common.Hash) (common.Hash, bool, error) {
	value, err := r.client.Get(r.ctx, r.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return common.Hash{}, false, nil
	}
	if err != nil {
		return common.Hash{}, false, err
	}
	if len(value) != common.HashLength {
		return common.Hash{}, false, errors.Errorf("slot %v holds %d bytes", key, len(value))
	}
	return common.BytesToHash(value), true, nil
}

func (r *Redis) WriteSlot(key common.Hash, value common.Hash) error {
	return r.client.Set(r.ctx, r.redisKey(key), value.Bytes(), 0).Err()
}

func (r *Redis) ForEachSlot(fn func(key, value common.Hash) error) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(r.ctx, cursor, r.prefix+"*", redisScanCount).Result()
		if err != nil {
			return err
		}
		for _, k := range keys {
			raw, err := hex.DecodeString(strings.TrimPrefix(k, r.prefix))
			if err != nil || len(raw) != common.HashLength {
				continue
			}
			key := common.BytesToHash(raw)
			value, present, err := r.ReadSlot(key)
			if err != nil {
				return err
			}
			if !present {
				continue
			}
			if err := fn(key, value); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
