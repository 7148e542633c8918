// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package slots derives the 256-bit storage locations of contract fields.
//
// A top-level field declared at path P has base slot H(P), where H is the
// versioned hash of the Deriver and P is the canonical path string. Every
// location reachable from the field is a pure function of its field id: a child
// (vector element, map entry, struct member holding a collection) has field id
// H(parent_field_id || suffix), where the suffix is the big-endian index or the
// encoded map key. Values wider than one slot occupy consecutive slots starting
// at their key's slot, and narrow values are packed at a word offset inside a slot.
//
// Two locations cannot coincide unless H has a collision.
package slots

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	WordSize     = 8
	SlotSize     = common.HashLength
	WordsPerSlot = SlotSize / WordSize
)

// StorageKey is where a value lives: the slot its first word is in, the word
// offset inside that slot, and the field id children are derived from.
type StorageKey struct {
	Slot    common.Hash
	Offset  uint64
	FieldID common.Hash
}

func (k StorageKey) String() string {
	return fmt.Sprintf("{slot: %v, offset: %d, field_id: %v}", k.Slot, k.Offset, k.FieldID)
}

// AtWord returns the key of the word n words past k, keeping the field id.
// The result is normalized so that Offset < WordsPerSlot.
func (k StorageKey) AtWord(n uint64) StorageKey {
	pos := k.Offset + n
	return StorageKey{
		Slot:    SlotAdd(k.Slot, pos/WordsPerSlot),
		Offset:  pos % WordsPerSlot,
		FieldID: k.FieldID,
	}
}

// WithFieldID replaces the field id, keeping the physical location.
func (k StorageKey) WithFieldID(id common.Hash) StorageKey {
	k.FieldID = id
	return k
}

type Deriver struct {
	hasher Hasher
}

func NewDeriver(hasher Hasher) *Deriver {
	if hasher == nil {
		hasher = Sha256()
	}
	return &Deriver{hasher: hasher}
}

func (d *Deriver) Hasher() Hasher {
	return d.hasher
}

func (d *Deriver) BaseSlot(path FieldPath) common.Hash {
	return d.hasher.Hash([]byte(path.String()))
}

func (d *Deriver) DeriveChild(parent common.Hash, suffix []byte) common.Hash {
	return d.hasher.Hash(parent.Bytes(), suffix)
}

// Field returns the key of a top-level field. Its slot and field id coincide.
func (d *Deriver) Field(path FieldPath) StorageKey {
	base := d.BaseSlot(path)
	return StorageKey{Slot: base, FieldID: base}
}

// Child returns the key of the child of parent identified by suffix.
func (d *Deriver) Child(parent StorageKey, suffix []byte) StorageKey {
	id := d.DeriveChild(parent.FieldID, suffix)
	return StorageKey{Slot: id, FieldID: id}
}

func (d *Deriver) Element(parent StorageKey, index uint64) StorageKey {
	return d.Child(parent, IndexBytes(index))
}

func IndexBytes(index uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, index)
}

// SlotAdd treats slot as a big-endian 256-bit integer and adds n, wrapping.
func SlotAdd(slot common.Hash, n uint64) common.Hash {
	if n == 0 {
		return slot
	}
	x := new(uint256.Int).SetBytes32(slot[:])
	x.AddUint64(x, n)
	return common.Hash(x.Bytes32())
}
