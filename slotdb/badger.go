// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package slotdb

import (
	"errors"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/ethereum/go-ethereum/common"
)

// Badger keeps slots in a badger database under prefix ++ key.
type Badger struct {
	db     *badger.DB
	prefix []byte
}

func NewBadger(db *badger.DB, prefix []byte) *Badger {
	return &Badger{db: db, prefix: common.CopyBytes(prefix)}
}

// OpenBadger opens a badger database in dir, or in memory when dir is empty.
func OpenBadger(dir string, prefix []byte) (*Badger, error) {
	options := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		options = options.WithInMemory(true)
	}
	db, err := badger.Open(options)
	if err != nil {
		return nil, err
	}
	return NewBadger(db, prefix), nil
}

func (b *Badger) dbKey(key common.Hash) []byte {
	return append(common.CopyBytes(b.prefix), key.Bytes()...)
}

func (b *Badger) ReadSlot(key common.Hash) (common.Hash, bool, error) {
	var ret common.Hash
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.dbKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			ret = common.BytesToHash(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return common.Hash{}, false, nil
	}
	if err != nil {
		return common.Hash{}, false, err
	}
	return ret, true, nil
}

func (b *Badger) WriteSlot(key common.Hash, value common.Hash) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(b.dbKey(key), value.Bytes()))
	})
}

func (b *Badger) ForEachSlot(fn func(key, value common.Hash) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = b.prefix
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			rest := item.Key()[len(b.prefix):]
			if len(rest) != common.HashLength {
				continue
			}
			key := common.BytesToHash(rest)
			err := item.Value(func(val []byte) error {
				return fn(key, common.BytesToHash(val))
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Badger) Close() error {
	return b.db.Close()
}
