// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package slotdb

import (
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/metrics"

	"github.com/offchainlabs/slotcodec/storage"
)

// Metered counts the slot reads and writes made through it. The counts are
// reported as metrics under slotdb/<name>/ and kept locally as well.
type Metered struct {
	inner storage.KVStore

	readCounter   metrics.Counter
	missCounter   metrics.Counter
	writeCounter  metrics.Counter
	errorCounter  metrics.Counter
	reads, writes atomic.Uint64
	misses        atomic.Uint64
}

func NewMetered(inner storage.KVStore, name string) *Metered {
	prefix := "slotdb/" + name + "/"
	return &Metered{
		inner:        inner,
		readCounter:  metrics.GetOrRegisterCounter(prefix+"reads", nil),
		missCounter:  metrics.GetOrRegisterCounter(prefix+"misses", nil),
		writeCounter: metrics.GetOrRegisterCounter(prefix+"writes", nil),
		errorCounter: metrics.GetOrRegisterCounter(prefix+"errors", nil),
	}
}

func (m *Metered) ReadSlot(key common.Hash) (common.Hash, bool, error) {
	m.reads.Add(1)
	m.readCounter.Inc(1)
	value, present, err := m.inner.ReadSlot(key)
	if err != nil {
		m.errorCounter.Inc(1)
		return value, present, err
	}
	if !present {
		m.misses.Add(1)
		m.missCounter.Inc(1)
	}
	return value, present, nil
}

func (m *Metered) WriteSlot(key common.Hash, value common.Hash) error {
	m.writes.Add(1)
	m.writeCounter.Inc(1)
	err := m.inner.WriteSlot(key, value)
	if err != nil {
		m.errorCounter.Inc(1)
	}
	return err
}

func (m *Metered) ForEachSlot(fn func(key, value common.Hash) error) error {
	iterable, err := Iterable(m.inner)
	if err != nil {
		return err
	}
	return iterable.ForEachSlot(fn)
}

func (m *Metered) Reads() uint64  { return m.reads.Load() }
func (m *Metered) Writes() uint64 { return m.writes.Load() }
func (m *Metered) Misses() uint64 { return m.misses.Load() }
