// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package slotdb

import (
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/offchainlabs/slotcodec/storage"
)

type cachedSlot struct {
	value   common.Hash
	present bool
}

// Cached keeps recently read and written slots of an underlying store in
// memory. Writes go through to the underlying store before the cache is
// updated, so the cache never holds a value the store does not.
type Cached struct {
	inner storage.KVStore
	cache *lru.Cache[common.Hash, cachedSlot]
}

func NewCached(inner storage.KVStore, size int) (*Cached, error) {
	cache, err := lru.New[common.Hash, cachedSlot](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: cache}, nil
}

func (c *Cached) ReadSlot(key common.Hash) (common.Hash, bool, error) {
	if entry, ok := c.cache.Get(key); ok {
		return entry.value, entry.present, nil
	}
	value, present, err := c.inner.ReadSlot(key)
	if err != nil {
		return common.Hash{}, false, err
	}
	c.cache.Add(key, cachedSlot{value: value, present: present})
	return value, present, nil
}

func (c *Cached) WriteSlot(key common.Hash, value common.Hash) error {
	if err := c.inner.WriteSlot(key, value); err != nil {
		c.cache.Remove(key)
		return err
	}
	c.cache.Add(key, cachedSlot{value: value, present: true})
	return nil
}

// ForEachSlot iterates the underlying store when it supports iteration.
func (c *Cached) ForEachSlot(fn func(key, value common.Hash) error) error {
	iterable, err := Iterable(c.inner)
	if err != nil {
		return err
	}
	return iterable.ForEachSlot(fn)
}

func (c *Cached) Len() int {
	return c.cache.Len()
}

func (c *Cached) Purge() {
	c.cache.Purge()
}
