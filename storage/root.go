// Copyright 2021-2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package storage reads and writes structured values in a flat store of
// 32 byte slots addressed by 32 byte keys.
//
// A Root binds a backend to a slot hasher and a burner. Every field declared
// at a path has its base slot derived from the path; its value occupies the
// consecutive slots the field's layout requires, and the contents of any
// collection inside it live at slots derived from the field id. Slots that
// were never written read as zero, consistent with Ethereum account storage.
//
// Every operation goes straight to the backend. Nothing is buffered between
// operations, so reverting a failed call is up to whoever owns the backend.
package storage

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
	"github.com/pkg/errors"

	"github.com/offchainlabs/slotcodec/burn"
	"github.com/offchainlabs/slotcodec/layout"
	"github.com/offchainlabs/slotcodec/slots"
)

const (
	StorageReadCost      = params.SloadGasEIP2200
	StorageWriteCost     = params.SstoreSetGasEIP2200
	StorageWriteZeroCost = params.SstoreResetGasEIP2200
)

// KVStore is the slot store a Root is handed. A slot that was never written
// is reported as not present.
type KVStore interface {
	ReadSlot(key common.Hash) (common.Hash, bool, error)
	WriteSlot(key common.Hash, value common.Hash) error
}

type Root struct {
	backend KVStore
	deriver *slots.Deriver
	burner  burn.Burner
	planner *layout.Planner
	layouts map[*layout.Shape]*layout.Layout
}

// NewRoot opens the storage held by backend. A nil hasher selects the default
// slot hash, and a nil burner an unlimited writable one.
func NewRoot(backend KVStore, hasher slots.Hasher, burner burn.Burner) *Root {
	if burner == nil {
		burner = burn.NewSystemBurner(false)
	}
	return &Root{
		backend: backend,
		deriver: slots.NewDeriver(hasher),
		burner:  burner,
		planner: layout.NewPlanner(),
		layouts: make(map[*layout.Shape]*layout.Layout),
	}
}

func (r *Root) Backend() KVStore {
	return r.backend
}

func (r *Root) Deriver() *slots.Deriver {
	return r.deriver
}

func (r *Root) Burner() burn.Burner {
	return r.burner
}

func writeCost(value common.Hash) uint64 {
	if value == (common.Hash{}) {
		return StorageWriteZeroCost
	}
	return StorageWriteCost
}

// Get reads a slot, charging the burner.
func (r *Root) Get(slot common.Hash) (common.Hash, error) {
	if err := r.burner.Burn(StorageReadCost); err != nil {
		return common.Hash{}, err
	}
	value, _, err := r.backend.ReadSlot(slot)
	if err != nil {
		return common.Hash{}, errors.Wrapf(err, "reading slot %v", slot)
	}
	return value, nil
}

// Has reports whether a slot was ever written, charging a read.
func (r *Root) Has(slot common.Hash) (bool, error) {
	if err := r.burner.Burn(StorageReadCost); err != nil {
		return false, err
	}
	_, present, err := r.backend.ReadSlot(slot)
	if err != nil {
		return false, errors.Wrapf(err, "reading slot %v", slot)
	}
	return present, nil
}

// Set writes a slot, charging the burner.
func (r *Root) Set(slot common.Hash, value common.Hash) error {
	if r.burner.ReadOnly() {
		log.Error("Read-only burner attempted to mutate state", "slot", slot, "value", value)
		return vm.ErrWriteProtection
	}
	if err := r.burner.Burn(writeCost(value)); err != nil {
		return err
	}
	if err := r.backend.WriteSlot(slot, value); err != nil {
		return errors.Wrapf(err, "writing slot %v", slot)
	}
	return nil
}

// Layout plans a shape once per root.
func (r *Root) Layout(shape *layout.Shape) (*layout.Layout, error) {
	if l, ok := r.layouts[shape]; ok {
		return l, nil
	}
	l, err := r.planner.Plan(shape)
	if err != nil {
		return nil, err
	}
	r.layouts[shape] = l
	return l, nil
}

// Field opens the top-level field at path holding values of the given shape.
// The shape is planned here, so layout errors surface before any I/O.
func (r *Root) Field(path slots.FieldPath, shape *layout.Shape) (*Storage, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	return r.Open(r.deriver.Field(path), shape)
}

// Open returns a handle for a value of the given shape at key.
func (r *Root) Open(key slots.StorageKey, shape *layout.Shape) (*Storage, error) {
	l, err := r.Layout(shape)
	if err != nil {
		return nil, err
	}
	return &Storage{root: r, key: key, layout: l}, nil
}
