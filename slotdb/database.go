// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package slotdb

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
)

// Database keeps slots in a go-ethereum key-value database, each under
// prefix ++ key.
type Database struct {
	db     ethdb.KeyValueStore
	prefix []byte
}

func NewDatabase(db ethdb.KeyValueStore, prefix []byte) *Database {
	return &Database{db: db, prefix: common.CopyBytes(prefix)}
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Database {
	return NewDatabase(memorydb.New(), nil)
}

func (d *Database) dbKey(key common.Hash) []byte {
	return append(common.CopyBytes(d.prefix), key.Bytes()...)
}

func (d *Database) ReadSlot(key common.Hash) (common.Hash, bool, error) {
	dbKey := d.dbKey(key)
	// not every backend reports a missing key with the same error
	has, err := d.db.Has(dbKey)
	if err != nil || !has {
		return common.Hash{}, false, err
	}
	value, err := d.db.Get(dbKey)
	if err != nil {
		return common.Hash{}, false, err
	}
	if len(value) != common.HashLength {
		return common.Hash{}, false, errors.Errorf("slot %v holds %d bytes", key, len(value))
	}
	return common.BytesToHash(value), true, nil
}

func (d *Database) WriteSlot(key common.Hash, value common.Hash) error {
	return d.db.Put(d.dbKey(key), value.Bytes())
}

func (d *Database) ForEachSlot(fn func(key, value common.Hash) error) error {
	it := d.db.NewIterator(d.prefix, nil)
	defer it.Release()
	for it.Next() {
		rest := bytes.TrimPrefix(it.Key(), d.prefix)
		if len(rest) != common.HashLength || len(it.Value()) != common.HashLength {
			continue
		}
		if err := fn(common.BytesToHash(rest), common.BytesToHash(it.Value())); err != nil {
			return err
		}
	}
	return it.Error()
}

func (d *Database) Close() error {
	return d.db.Close()
}

// Database engines. The on-disk names match the ones rawdb.Open accepts.
const (
	EnginePebble  = "pebble"
	EngineLeveldb = "leveldb"
	EngineMemory  = "memory"
)

type DatabaseConfig struct {
	Engine    string `koanf:"engine"`
	Directory string `koanf:"directory"`
	Namespace string `koanf:"namespace"`
	Prefix    string `koanf:"prefix"`
	Cache     int    `koanf:"cache"`
	Handles   int    `koanf:"handles"`
	ReadOnly  bool   `koanf:"read-only"`
}

var DatabaseConfigDefault = DatabaseConfig{
	Engine:    EnginePebble,
	Directory: "",
	Namespace: "slotdb/",
	Prefix:    "",
	Cache:     16,
	Handles:   16,
	ReadOnly:  false,
}

func DatabaseConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".engine", DatabaseConfigDefault.Engine, "database engine to use: pebble, leveldb or memory")
	f.String(prefix+".directory", DatabaseConfigDefault.Directory, "directory of the database")
	f.String(prefix+".namespace", DatabaseConfigDefault.Namespace, "namespace of the database metrics")
	f.String(prefix+".prefix", DatabaseConfigDefault.Prefix, "key prefix of the slots within the database")
	f.Int(prefix+".cache", DatabaseConfigDefault.Cache, "database cache in megabytes")
	f.Int(prefix+".handles", DatabaseConfigDefault.Handles, "number of open file handles")
	f.Bool(prefix+".read-only", DatabaseConfigDefault.ReadOnly, "open the database read only")
}

func (c *DatabaseConfig) Validate() error {
	switch c.Engine {
	case EngineMemory:
		return nil
	case EnginePebble, EngineLeveldb:
		if c.Directory == "" {
			return errors.Errorf("%s database needs a directory", c.Engine)
		}
		return nil
	}
	return errors.Errorf("unknown database engine %q", c.Engine)
}

// OpenDatabase opens the database described by config.
func OpenDatabase(config *DatabaseConfig) (*Database, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Engine == EngineMemory {
		return NewDatabase(memorydb.New(), []byte(config.Prefix)), nil
	}
	db, err := rawdb.Open(rawdb.OpenOptions{
		Type:      config.Engine,
		Directory: config.Directory,
		Namespace: config.Namespace,
		Cache:     config.Cache,
		Handles:   config.Handles,
		ReadOnly:  config.ReadOnly,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s database at %s", config.Engine, config.Directory)
	}
	log.Info("opened slot database", "engine", config.Engine, "directory", config.Directory)
	return NewDatabase(db, []byte(config.Prefix)), nil
}
