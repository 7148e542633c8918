// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package slotdb

import (
	"context"
	"io"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
)

const (
	BackendDatabase = "database"
	BackendBadger   = "badger"
	BackendRedis    = "redis"
)

type BadgerConfig struct {
	Directory string `koanf:"directory"`
	Prefix    string `koanf:"prefix"`
}

var BadgerConfigDefault = BadgerConfig{
	Directory: "",
	Prefix:    "",
}

func BadgerConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".directory", BadgerConfigDefault.Directory, "badger directory (empty = in memory)")
	f.String(prefix+".prefix", BadgerConfigDefault.Prefix, "key prefix of the slots within badger")
}

type RedisConfig struct {
	URL    string `koanf:"url"`
	Prefix string `koanf:"prefix"`
}

var RedisConfigDefault = RedisConfig{
	URL:    "",
	Prefix: "slot:",
}

func RedisConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".url", RedisConfigDefault.URL, "redis url, e.g. redis://localhost:6379/0")
	f.String(prefix+".prefix", RedisConfigDefault.Prefix, "key prefix of the slots within redis")
}

// BackendConfig selects and configures the slot store a command works on.
type BackendConfig struct {
	Kind      string         `koanf:"kind"`
	Database  DatabaseConfig `koanf:"database"`
	Badger    BadgerConfig   `koanf:"badger"`
	Redis     RedisConfig    `koanf:"redis"`
	CacheSize int            `koanf:"cache-size"`
	Metrics   string         `koanf:"metrics"`
}

var BackendConfigDefault = BackendConfig{
	Kind:      BackendDatabase,
	Database:  DatabaseConfigDefault,
	Badger:    BadgerConfigDefault,
	Redis:     RedisConfigDefault,
	CacheSize: 0,
	Metrics:   "",
}

func BackendConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".kind", BackendConfigDefault.Kind, "slot store to use: database, badger or redis")
	DatabaseConfigAddOptions(prefix+".database", f)
	BadgerConfigAddOptions(prefix+".badger", f)
	RedisConfigAddOptions(prefix+".redis", f)
	f.Int(prefix+".cache-size", BackendConfigDefault.CacheSize, "number of slots to keep in an in-process cache (0 = no cache)")
	f.String(prefix+".metrics", BackendConfigDefault.Metrics, "name to record slot store metrics under (empty = no metrics)")
}

func (c *BackendConfig) Validate() error {
	switch c.Kind {
	case BackendDatabase:
		return c.Database.Validate()
	case BackendBadger:
		return nil
	case BackendRedis:
		if c.Redis.URL == "" {
			return errors.New("redis backend needs a url")
		}
		return nil
	}
	return errors.Errorf("unknown slot store %q, valid values are database, badger and redis", c.Kind)
}

// OpenBackend opens the configured slot store. The returned closer releases
// the underlying backend.
func OpenBackend(ctx context.Context, config *BackendConfig) (Store, io.Closer, error) {
	if err := config.Validate(); err != nil {
		return nil, nil, err
	}
	var store Store
	var closer io.Closer
	switch config.Kind {
	case BackendDatabase:
		db, err := OpenDatabase(&config.Database)
		if err != nil {
			return nil, nil, err
		}
		store, closer = db, db
	case BackendBadger:
		db, err := OpenBadger(config.Badger.Directory, []byte(config.Badger.Prefix))
		if err != nil {
			return nil, nil, err
		}
		store, closer = db, db
	case BackendRedis:
		client, err := RedisFromURL(ctx, config.Redis.URL, config.Redis.Prefix)
		if err != nil {
			return nil, nil, err
		}
		store, closer = client, client
	}
	if config.CacheSize > 0 {
		cached, err := NewCached(store, config.CacheSize)
		if err != nil {
			_ = closer.Close()
			return nil, nil, err
		}
		store = cached
	}
	if config.Metrics != "" {
		store = NewMetered(store, config.Metrics)
	}
	log.Debug("opened slot store", "kind", config.Kind, "cache", config.CacheSize)
	return store, closer, nil
}
