// Copyright 2021-2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package storage

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/offchainlabs/slotcodec/codec"
	"github.com/offchainlabs/slotcodec/layout"
	"github.com/offchainlabs/slotcodec/slots"
)

// Storage is a handle on a value of a known shape at a known key. Handles are
// cheap and hold no data; two handles with the same key see the same value.
type Storage struct {
	root   *Root
	key    slots.StorageKey
	layout *layout.Layout
}

func (s *Storage) Root() *Root {
	return s.root
}

func (s *Storage) Key() slots.StorageKey {
	return s.key
}

func (s *Storage) Layout() *layout.Layout {
	return s.layout
}

func (s *Storage) Shape() *layout.Shape {
	return s.layout.Shape
}

// slotCount is the number of slots the value touches, counting from the slot
// of its first word.
func (s *Storage) slotCount() uint64 {
	return layout.SlotsFor(s.key.Offset + s.layout.Words)
}

func (s *Storage) slot(i uint64) common.Hash {
	return slots.SlotAdd(s.key.Slot, i)
}

// Slots lists the slots the value touches.
func (s *Storage) Slots() []common.Hash {
	out := make([]common.Hash, s.slotCount())
	for i := range out {
		out[i] = s.slot(uint64(i))
	}
	return out
}

func (s *Storage) readImages() ([]common.Hash, error) {
	images := make([]common.Hash, s.slotCount())
	for i := range images {
		var err error
		images[i], err = s.root.Get(s.slot(uint64(i)))
		if err != nil {
			return nil, err
		}
	}
	return images, nil
}

// RawSlots returns the images of the slots the value touches.
func (s *Storage) RawSlots() ([]common.Hash, error) {
	return s.readImages()
}

// SetRawSlots overwrites the slots the value touches with images taken from
// RawSlots of a value of the same shape. Both values must start at a slot
// boundary, as collection elements do.
func (s *Storage) SetRawSlots(images []common.Hash) error {
	if s.key.Offset != 0 || uint64(len(images)) != s.slotCount() {
		return errors.Errorf("cannot copy %d slots to %v", len(images), s.key)
	}
	for i, image := range images {
		if err := s.root.Set(s.slot(uint64(i)), image); err != nil {
			return err
		}
	}
	return nil
}

// Read decodes the value. Collections inside it decode as anchors; use Load
// to read their contents as well.
func (s *Storage) Read() (codec.Value, error) {
	images, err := s.readImages()
	if err != nil {
		return codec.Value{}, err
	}
	return codec.Decode(s.layout, codec.WordsFromSlots(images)[s.key.Offset:])
}

// Write stores the value's inline words. Words outside the value and the
// anchors of collections inside it are preserved.
func (s *Storage) Write(v codec.Value) error {
	img, err := codec.Encode(s.layout, v)
	if err != nil {
		return err
	}
	return s.writeImage(img)
}

// Clear zeroes every word of the value, which empties the collections inside
// it as well. Maps held inline move on to a fresh generation.
func (s *Storage) Clear() error {
	img := &codec.Image{
		Words: make([]uint64, s.layout.Words),
		Owned: make([]bool, s.layout.Words),
	}
	for i := range img.Owned {
		img.Owned[i] = true
	}
	if err := s.writeImage(img); err != nil {
		return err
	}
	if !layout.ContainsMap(s.Shape()) {
		return nil
	}
	v, err := s.Read()
	if err != nil {
		return err
	}
	return s.renewMaps(v)
}

func (s *Storage) writeImage(img *codec.Image) error {
	count := s.slotCount()
	words := make([]uint64, count*slots.WordsPerSlot)
	touched := make([]bool, count)
	complete := make([]bool, count)
	for i := range complete {
		complete[i] = true
	}
	for i := uint64(0); i < count*slots.WordsPerSlot; i++ {
		slot := i / slots.WordsPerSlot
		if i < s.key.Offset || i >= s.key.Offset+s.layout.Words || !img.Owned[i-s.key.Offset] {
			complete[slot] = false
		} else {
			touched[slot] = true
		}
	}
	for i := uint64(0); i < count; i++ {
		if !touched[i] || complete[i] {
			continue
		}
		// the slot is shared with words we must not change
		image, err := s.root.Get(s.slot(i))
		if err != nil {
			return err
		}
		copy(words[i*slots.WordsPerSlot:], codec.WordsFromSlots([]common.Hash{image}))
	}
	img.Overlay(words, s.key.Offset)
	for i, image := range codec.SlotsFromWords(words) {
		if !touched[i] {
			continue
		}
		if err := s.root.Set(s.slot(uint64(i)), image); err != nil {
			return err
		}
	}
	return nil
}

// Member opens a member of the value, as resolved by layout.Lookup. The
// member's field id is derived from this value's through the member path, so
// collections nested in structs, arrays and enums each get their own space.
func (s *Storage) Member(path string) (*Storage, error) {
	loc, err := s.layout.Lookup(path)
	if err != nil {
		return nil, err
	}
	id := s.key.FieldID
	for _, suffix := range loc.Suffixes {
		id = s.root.deriver.DeriveChild(id, suffix)
	}
	return s.root.Open(s.key.AtWord(loc.Offset).WithFieldID(id), loc.Shape)
}

// Child opens the value of the given shape whose key is derived from this
// value's field id and suffix.
func (s *Storage) Child(suffix []byte, shape *layout.Shape) (*Storage, error) {
	return s.root.Open(s.root.deriver.Child(s.key, suffix), shape)
}

// Element opens the child at a big-endian index.
func (s *Storage) Element(index uint64, shape *layout.Shape) (*Storage, error) {
	return s.Child(slots.IndexBytes(index), shape)
}
