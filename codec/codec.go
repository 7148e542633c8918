// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package codec

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/offchainlabs/slotcodec/layout"
	"github.com/offchainlabs/slotcodec/slots"
)

// Image is the encoding of a value as words. Owned marks the words the value
// determines; the anchors of dynamic members are not owned, so writing a
// value back leaves the counters of nested collections intact.
type Image struct {
	Words []uint64
	Owned []bool
}

// Overlay copies the owned words of the image into words, starting at offset.
func (img *Image) Overlay(words []uint64, offset uint64) {
	for i, w := range img.Words {
		if img.Owned[i] {
			words[offset+uint64(i)] = w
		}
	}
}

// Slots returns full slot images, with unowned words zero.
func (img *Image) Slots() []common.Hash {
	return SlotsFromWords(img.Words)
}

// SlotsFromWords packs words into slots, zero-filling the last slot.
func SlotsFromWords(words []uint64) []common.Hash {
	out := make([]common.Hash, layout.SlotsFor(uint64(len(words))))
	for i, w := range words {
		binary.BigEndian.PutUint64(out[i/slots.WordsPerSlot][i%slots.WordsPerSlot*slots.WordSize:], w)
	}
	return out
}

func WordsFromSlots(in []common.Hash) []uint64 {
	words := make([]uint64, 0, len(in)*slots.WordsPerSlot)
	for _, slot := range in {
		for i := 0; i < slots.WordsPerSlot; i++ {
			words = append(words, binary.BigEndian.Uint64(slot[i*slots.WordSize:]))
		}
	}
	return words
}

// Encode lays v out according to l.
func Encode(l *layout.Layout, v Value) (*Image, error) {
	e := &encoder{
		planner: l.Planner(),
		img: &Image{
			Words: make([]uint64, l.Words),
			Owned: make([]bool, l.Words),
		},
	}
	if err := e.encode("", l.Shape, 0, v); err != nil {
		return nil, err
	}
	return e.img, nil
}

// Write produces the images of the slots that hold v.
func Write(l *layout.Layout, v Value) ([]common.Hash, error) {
	img, err := Encode(l, v)
	if err != nil {
		return nil, err
	}
	return img.Slots(), nil
}

type encoder struct {
	planner *layout.Planner
	img     *Image
}

func (e *encoder) put(offset uint64, w uint64) {
	e.img.Words[offset] = w
	e.img.Owned[offset] = true
}

func (e *encoder) encode(path string, shape *layout.Shape, offset uint64, v Value) error {
	if v.kind != shape.Kind {
		return mismatch(path, shape, v, "wrong kind")
	}
	switch shape.Kind {
	case layout.KindUnit:
	case layout.KindBool, layout.KindU8, layout.KindU16, layout.KindU32, layout.KindU64:
		limit, narrow := narrowLimits[shape.Kind]
		if !v.num.IsUint64() || (narrow && v.num.Uint64() > limit) {
			return mismatch(path, shape, v, "out of range")
		}
		e.put(offset, v.num.Uint64())
	case layout.KindU256:
		limbs := U256Limbs(&v.num)
		for i, limb := range limbs {
			e.put(offset+uint64(i), limb)
		}
	case layout.KindB256:
		if len(v.data) != common.HashLength {
			return mismatch(path, shape, v, "length %d", len(v.data))
		}
		for i := 0; i < slots.WordsPerSlot; i++ {
			e.put(offset+uint64(i), binary.BigEndian.Uint64(v.data[i*slots.WordSize:]))
		}
	case layout.KindStrArray:
		if uint64(len(v.data)) != shape.Len {
			return mismatch(path, shape, v, "length %d", len(v.data))
		}
		for i := 0; i < len(v.data); i += slots.WordSize {
			var word [slots.WordSize]byte
			copy(word[:], v.data[i:])
			e.put(offset+uint64(i/slots.WordSize), binary.BigEndian.Uint64(word[:]))
		}
	case layout.KindArray, layout.KindTuple, layout.KindStruct:
		offsets, err := e.planner.MemberOffsets(shape)
		if err != nil {
			return err
		}
		if len(v.items) != len(offsets) {
			return mismatch(path, shape, v, "%d members", len(v.items))
		}
		for i, item := range v.items {
			member, name := shape.Elem, indexPath(path, i)
			if shape.Kind != layout.KindArray {
				member, name = shape.Fields[i].Shape, memberPath(path, shape.Fields[i].Name, i)
			}
			if err := e.encode(name, member, offset+offsets[i], item); err != nil {
				return err
			}
		}
	case layout.KindEnum:
		if v.tag >= uint64(len(shape.Fields)) {
			return mismatch(path, shape, v, "tag %d of %d variants", v.tag, len(shape.Fields))
		}
		size, err := e.planner.Size(shape)
		if err != nil {
			return err
		}
		payload, err := e.planner.PayloadOffset(shape)
		if err != nil {
			return err
		}
		// the unused part of the payload region is cleared
		for i := uint64(1); i < size; i++ {
			e.put(offset+i, 0)
		}
		e.put(offset, v.tag)
		variant := shape.Fields[v.tag]
		return e.encode(joinPath(path, variant.Name), variant.Shape, offset+payload, v.Payload())
	case layout.KindVector, layout.KindMap, layout.KindBytes, layout.KindString:
		for i := uint64(0); i < slots.WordsPerSlot; i++ {
			e.img.Words[offset+i] = 0
			e.img.Owned[offset+i] = false
		}
	default:
		return errors.Wrapf(layout.ErrInvalidShape, "unknown kind %v", shape.Kind)
	}
	return nil
}

// Decode is the inverse of Encode. Dynamic members decode to anchors.
func Decode(l *layout.Layout, words []uint64) (Value, error) {
	if uint64(len(words)) < l.Words {
		return Value{}, NewDecodeError("", uint64(len(words)), ErrShortInput)
	}
	d := &decoder{planner: l.Planner(), words: words}
	return d.decode("", l.Shape, 0)
}

// Read decodes a value from the images of the slots that hold it.
func Read(l *layout.Layout, in []common.Hash) (Value, error) {
	return Decode(l, WordsFromSlots(in))
}

type decoder struct {
	planner *layout.Planner
	words   []uint64
}

var narrowLimits = map[layout.Kind]uint64{
	layout.KindBool: 1,
	layout.KindU8:   0xff,
	layout.KindU16:  0xffff,
	layout.KindU32:  0xffffffff,
}

func (d *decoder) decode(path string, shape *layout.Shape, offset uint64) (Value, error) {
	switch shape.Kind {
	case layout.KindUnit:
		return Unit(), nil
	case layout.KindBool, layout.KindU8, layout.KindU16, layout.KindU32, layout.KindU64:
		w := d.words[offset]
		if limit, ok := narrowLimits[shape.Kind]; ok && w > limit {
			if shape.Kind == layout.KindBool {
				return Value{}, NewDecodeError(path, offset, ErrInvalidBool)
			}
			return Value{}, NewDecodeError(path, offset, ErrIntegerOverflow)
		}
		return uintValue(shape.Kind, w), nil
	case layout.KindU256:
		var limbs [4]uint64
		copy(limbs[:], d.words[offset:])
		return U256(U256FromLimbs(limbs)), nil
	case layout.KindB256:
		var h common.Hash
		for i := 0; i < slots.WordsPerSlot; i++ {
			binary.BigEndian.PutUint64(h[i*slots.WordSize:], d.words[offset+uint64(i)])
		}
		return B256(h), nil
	case layout.KindStrArray:
		words := (shape.Len + slots.WordSize - 1) / slots.WordSize
		buf := make([]byte, words*slots.WordSize)
		for i := uint64(0); i < words; i++ {
			binary.BigEndian.PutUint64(buf[i*slots.WordSize:], d.words[offset+i])
		}
		for _, b := range buf[shape.Len:] {
			if b != 0 {
				return Value{}, NewDecodeError(path, offset, ErrNonZeroPadding)
			}
		}
		return Value{kind: layout.KindStrArray, data: buf[:shape.Len]}, nil
	case layout.KindArray, layout.KindTuple, layout.KindStruct:
		offsets, err := d.planner.MemberOffsets(shape)
		if err != nil {
			return Value{}, err
		}
		items := make([]Value, len(offsets))
		for i := range offsets {
			member, name := shape.Elem, indexPath(path, i)
			if shape.Kind != layout.KindArray {
				member, name = shape.Fields[i].Shape, memberPath(path, shape.Fields[i].Name, i)
			}
			items[i], err = d.decode(name, member, offset+offsets[i])
			if err != nil {
				return Value{}, err
			}
		}
		return Value{kind: shape.Kind, items: items}, nil
	case layout.KindEnum:
		tag := d.words[offset]
		if tag >= uint64(len(shape.Fields)) {
			return Value{}, NewDecodeError(path, offset, ErrUnknownVariant)
		}
		payload, err := d.planner.PayloadOffset(shape)
		if err != nil {
			return Value{}, err
		}
		variant := shape.Fields[tag]
		inner, err := d.decode(joinPath(path, variant.Name), variant.Shape, offset+payload)
		if err != nil {
			return Value{}, err
		}
		return Enum(tag, inner), nil
	case layout.KindVector, layout.KindMap, layout.KindBytes, layout.KindString:
		return Anchor(shape.Kind), nil
	}
	return Value{}, errors.Wrapf(layout.ErrInvalidShape, "unknown kind %v", shape.Kind)
}
