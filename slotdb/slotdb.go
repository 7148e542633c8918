// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package slotdb provides the slot stores a storage.Root can be opened on.
package slotdb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/offchainlabs/slotcodec/storage"
)

var ErrNotIterable = errors.New("slot store cannot be iterated")

// Store is a slot store whose contents can be listed.
type Store interface {
	storage.KVStore
	ForEachSlot(fn func(key, value common.Hash) error) error
}

// Export lists every slot of a store in key order.
func Export(store Store) ([]storage.Slot, error) {
	var out []storage.Slot
	err := store.ForEachSlot(func(key, value common.Hash) error {
		out = append(out, storage.Slot{Key: key, Value: value})
		return nil
	})
	if err != nil {
		return nil, err
	}
	storage.SortSlots(out)
	return out, nil
}

// Import writes slots into a store.
func Import(store storage.KVStore, slots []storage.Slot) error {
	for _, slot := range slots {
		if err := store.WriteSlot(slot.Key, slot.Value); err != nil {
			return err
		}
	}
	return nil
}

// Iterable returns the store as a Store, or ErrNotIterable when it cannot
// list its slots.
func Iterable(store storage.KVStore) (Store, error) {
	iterable, ok := store.(Store)
	if !ok {
		return nil, ErrNotIterable
	}
	return iterable, nil
}
