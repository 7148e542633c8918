// Copyright 2021-2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package storage

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/offchainlabs/slotcodec/slots"
)

// StorageBackedUint64 is a single word, such as the length counter in the
// anchor slot of a collection.
type StorageBackedUint64 struct {
	root *Root
	key  slots.StorageKey
}

// OpenStorageBackedUint64 opens the word at the given offset from the start
// of the value.
func (s *Storage) OpenStorageBackedUint64(word uint64) StorageBackedUint64 {
	return StorageBackedUint64{root: s.root, key: s.key.AtWord(word)}
}

func (sbu *StorageBackedUint64) Get() (uint64, error) {
	image, err := sbu.root.Get(sbu.key.Slot)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(image[sbu.key.Offset*slots.WordSize:]), nil
}

func (sbu *StorageBackedUint64) Set(value uint64) error {
	image, err := sbu.root.Get(sbu.key.Slot)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint64(image[sbu.key.Offset*slots.WordSize:], value)
	return sbu.root.Set(sbu.key.Slot, image)
}

func (sbu *StorageBackedUint64) Increment() (uint64, error) {
	old, err := sbu.Get()
	if err != nil {
		return 0, err
	}
	if old+1 < old {
		return 0, errors.New("overflow in StorageBackedUint64::Increment")
	}
	return old + 1, sbu.Set(old + 1)
}

func (sbu *StorageBackedUint64) Decrement() (uint64, error) {
	old, err := sbu.Get()
	if err != nil {
		return 0, err
	}
	if old == 0 {
		return 0, errors.New("underflow in StorageBackedUint64::Decrement")
	}
	return old - 1, sbu.Set(old - 1)
}

// Byte strings keep their length in the first word of the anchor and their
// contents in the consecutive slots starting at the child of the field id with
// an empty suffix, left aligned and zero padded.

func (s *Storage) bytesBase() common.Hash {
	return s.root.deriver.DeriveChild(s.key.FieldID, nil)
}

func (s *Storage) GetBytesSize() (uint64, error) {
	length := s.OpenStorageBackedUint64(0)
	return length.Get()
}

func (s *Storage) GetBytes() ([]byte, error) {
	size, err := s.GetBytesSize()
	if err != nil {
		return nil, err
	}
	base := s.bytesBase()
	ret := []byte{}
	for offset := uint64(0); uint64(len(ret)) < size; offset++ {
		chunk, err := s.root.Get(slots.SlotAdd(base, offset))
		if err != nil {
			return nil, err
		}
		ret = append(ret, chunk[:min(size-uint64(len(ret)), slots.SlotSize)]...)
	}
	return ret, nil
}

func (s *Storage) SetBytes(b []byte) error {
	if err := s.ClearBytes(); err != nil {
		return err
	}
	length := s.OpenStorageBackedUint64(0)
	if err := length.Set(uint64(len(b))); err != nil {
		return err
	}
	base := s.bytesBase()
	for offset := uint64(0); len(b) > 0; offset++ {
		var chunk common.Hash
		n := copy(chunk[:], b)
		b = b[n:]
		if err := s.root.Set(slots.SlotAdd(base, offset), chunk); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) ClearBytes() error {
	bytesLeft, err := s.GetBytesSize()
	if err != nil {
		return err
	}
	base := s.bytesBase()
	for offset := uint64(0); bytesLeft > 0; offset++ {
		if err := s.root.Set(slots.SlotAdd(base, offset), common.Hash{}); err != nil {
			return err
		}
		bytesLeft -= min(bytesLeft, slots.SlotSize)
	}
	length := s.OpenStorageBackedUint64(0)
	return length.Set(0)
}
