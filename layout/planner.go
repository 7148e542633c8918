// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package layout decides where the parts of a value live within the words of
// its storage slots.
//
// Storage is addressed in 32 byte slots of four 8 byte words. Members are
// placed in declaration order, one word for every scalar up to u64, four for
// u256 and b256 and ceil(N/8) for str[N]. A member that does not fit in the
// words remaining in the current slot starts at the next slot boundary, so no
// member up to a slot in size ever straddles two slots. Dynamically sized
// members (vectors, maps, bytes and strings) occupy exactly one slot aligned
// anchor slot; their contents live at keys derived from the member's field id.
package layout

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/offchainlabs/slotcodec/slots"
)

var (
	ErrUnresolvableSize = errors.New("unresolvable storage size")
	ErrInvalidShape     = errors.New("invalid shape")
)

const (
	WordsPerSlot = slots.WordsPerSlot

	// MaxWords bounds the inline size of a single value.
	MaxWords = uint64(1) << 24
)

// Place returns the word offset at which a member of the given size starts
// when the next free word is cursor.
func Place(cursor, words uint64) uint64 {
	used := cursor % WordsPerSlot
	if used != 0 && words > WordsPerSlot-used {
		return cursor + WordsPerSlot - used
	}
	return cursor
}

// Stride is the distance in words between consecutive array elements of the
// given size.
func Stride(words uint64) uint64 {
	if words == 0 || words%WordsPerSlot == 0 || WordsPerSlot%words == 0 {
		return words
	}
	return (words + WordsPerSlot - 1) / WordsPerSlot * WordsPerSlot
}

// SlotsFor is the number of whole slots needed to hold the given words.
func SlotsFor(words uint64) uint64 {
	return (words + WordsPerSlot - 1) / WordsPerSlot
}

// Planner computes layouts and memoizes the sizes of the shapes it has seen.
// Shapes are identified by pointer, so a Planner must not outlive mutations
// of the shapes handed to it.
type Planner struct {
	sizes  map[*Shape]uint64
	active map[*Shape]bool
}

func NewPlanner() *Planner {
	return &Planner{
		sizes:  make(map[*Shape]uint64),
		active: make(map[*Shape]bool),
	}
}

// Plan computes the layout of a value of the given shape using a fresh Planner.
func Plan(shape *Shape) (*Layout, error) {
	return NewPlanner().Plan(shape)
}

// Plan computes the layout of shape. Shapes reachable through dynamic members
// are validated as well, so every size error surfaces before storage is used.
func (p *Planner) Plan(shape *Shape) (*Layout, error) {
	words, err := p.Size(shape)
	if err != nil {
		return nil, err
	}
	if err := p.validateReachable(shape, make(map[*Shape]bool)); err != nil {
		return nil, err
	}
	members, err := p.members(shape)
	if err != nil {
		return nil, err
	}
	return &Layout{
		Shape:   shape,
		Words:   words,
		Members: members,
		planner: p,
	}, nil
}

// Size returns the number of words a value of the given shape occupies inline.
func (p *Planner) Size(shape *Shape) (uint64, error) {
	if shape == nil {
		return 0, errors.Wrap(ErrInvalidShape, "missing shape")
	}
	if words, ok := p.sizes[shape]; ok {
		return words, nil
	}
	if p.active[shape] {
		return 0, errors.Wrapf(ErrUnresolvableSize, "%v contains itself without an intervening dynamic member", shape)
	}
	p.active[shape] = true
	defer delete(p.active, shape)

	words, err := p.size(shape)
	if err != nil {
		return 0, err
	}
	if words > MaxWords {
		return 0, errors.Wrapf(ErrUnresolvableSize, "%v needs %d words", shape, words)
	}
	p.sizes[shape] = words
	return words, nil
}

func (p *Planner) size(shape *Shape) (uint64, error) {
	switch shape.Kind {
	case KindUnit:
		return 0, nil
	case KindBool, KindU8, KindU16, KindU32, KindU64:
		return 1, nil
	case KindU256, KindB256:
		return WordsPerSlot, nil
	case KindStrArray:
		return (shape.Len + slots.WordSize - 1) / slots.WordSize, nil
	case KindVector, KindMap, KindBytes, KindString:
		return WordsPerSlot, nil
	case KindArray:
		elem, err := p.Size(shape.Elem)
		if err != nil {
			return 0, err
		}
		if shape.Len == 0 {
			return 0, nil
		}
		if shape.Len > MaxWords {
			return 0, errors.Wrapf(ErrUnresolvableSize, "array of %d elements", shape.Len)
		}
		stride := Stride(elem)
		if stride != 0 && shape.Len-1 > (MaxWords-elem)/stride {
			return 0, errors.Wrapf(ErrUnresolvableSize, "array of %d elements of %d words", shape.Len, elem)
		}
		return stride*(shape.Len-1) + elem, nil
	case KindTuple, KindStruct:
		if err := uniqueNames(shape); err != nil {
			return 0, err
		}
		var cursor uint64
		for _, f := range shape.Fields {
			words, err := p.Size(f.Shape)
			if err != nil {
				return 0, err
			}
			cursor = Place(cursor, words) + words
		}
		return cursor, nil
	case KindEnum:
		if len(shape.Fields) == 0 {
			return 0, errors.Wrapf(ErrInvalidShape, "enum %s has no variants", shape.Name)
		}
		if err := uniqueNames(shape); err != nil {
			return 0, err
		}
		payload, err := p.payloadWords(shape)
		if err != nil {
			return 0, err
		}
		return Place(1, payload) + payload, nil
	default:
		return 0, errors.Wrapf(ErrInvalidShape, "unknown kind %v", shape.Kind)
	}
}

// uniqueNames rejects structs and enums with two members of the same name,
// which would derive the same field id.
func uniqueNames(shape *Shape) error {
	if shape.Kind != KindStruct && shape.Kind != KindEnum {
		return nil
	}
	seen := make(map[string]bool, len(shape.Fields))
	for _, f := range shape.Fields {
		if seen[f.Name] {
			return errors.Wrapf(ErrInvalidShape, "%v has two members named %q", shape, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

func (p *Planner) payloadWords(shape *Shape) (uint64, error) {
	var largest uint64
	for _, v := range shape.Fields {
		words, err := p.Size(v.Shape)
		if err != nil {
			return 0, err
		}
		largest = max(largest, words)
	}
	return largest, nil
}

// PayloadOffset returns the word offset of the variant payloads of an enum.
func (p *Planner) PayloadOffset(shape *Shape) (uint64, error) {
	payload, err := p.payloadWords(shape)
	if err != nil {
		return 0, err
	}
	return Place(1, payload), nil
}

func (p *Planner) validateReachable(shape *Shape, seen map[*Shape]bool) error {
	if shape == nil || seen[shape] {
		return nil
	}
	seen[shape] = true
	switch shape.Kind {
	case KindArray:
		return p.validateReachable(shape.Elem, seen)
	case KindTuple, KindStruct, KindEnum:
		for _, f := range shape.Fields {
			if err := p.validateReachable(f.Shape, seen); err != nil {
				return err
			}
		}
	case KindVector:
		if _, err := p.Size(shape.Elem); err != nil {
			return err
		}
		return p.validateReachable(shape.Elem, seen)
	case KindMap:
		if err := CheckMapKey(shape.Key); err != nil {
			return err
		}
		if _, err := p.Size(shape.Elem); err != nil {
			return err
		}
		return p.validateReachable(shape.Elem, seen)
	}
	return nil
}

// CheckMapKey verifies that values of the shape have a fixed call boundary
// encoding, which map keys need to derive their slots.
func CheckMapKey(key *Shape) error {
	return checkMapKey(key, make(map[*Shape]bool))
}

func checkMapKey(key *Shape, seen map[*Shape]bool) error {
	if key == nil {
		return errors.Wrap(ErrInvalidShape, "map without key shape")
	}
	if seen[key] {
		return nil
	}
	seen[key] = true
	switch key.Kind {
	case KindMap:
		return errors.Wrapf(ErrInvalidShape, "%v cannot be a map key", key)
	case KindArray, KindVector:
		return checkMapKey(key.Elem, seen)
	case KindTuple, KindStruct, KindEnum:
		for _, f := range key.Fields {
			if err := checkMapKey(f.Shape, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Planner) members(shape *Shape) ([]Member, error) {
	var members []Member
	switch shape.Kind {
	case KindTuple, KindStruct:
		var cursor uint64
		for i, f := range shape.Fields {
			words, err := p.Size(f.Shape)
			if err != nil {
				return nil, err
			}
			offset := Place(cursor, words)
			name := f.Name
			suffix := []byte(f.Name)
			if shape.Kind == KindTuple {
				name = fmt.Sprint(i)
				suffix = slots.IndexBytes(uint64(i))
			}
			members = append(members, Member{Name: name, Offset: offset, Words: words, Shape: f.Shape, Suffix: suffix})
			cursor = offset + words
		}
	case KindArray:
		words, err := p.Size(shape.Elem)
		if err != nil {
			return nil, err
		}
		stride := Stride(words)
		for i := uint64(0); i < shape.Len; i++ {
			members = append(members, Member{
				Name:   fmt.Sprintf("[%d]", i),
				Offset: i * stride,
				Words:  words,
				Shape:  shape.Elem,
				Suffix: slots.IndexBytes(i),
			})
		}
	case KindEnum:
		payload, err := p.PayloadOffset(shape)
		if err != nil {
			return nil, err
		}
		members = append(members, Member{Name: TagMember, Offset: 0, Words: 1, Shape: U64()})
		for _, v := range shape.Fields {
			words, err := p.Size(v.Shape)
			if err != nil {
				return nil, err
			}
			members = append(members, Member{Name: v.Name, Offset: payload, Words: words, Shape: v.Shape, Suffix: []byte(v.Name)})
		}
	}
	return members, nil
}

// MemberOffsets returns the word offset of each member of a tuple or struct,
// or of each element of an array, relative to the start of the value.
func (p *Planner) MemberOffsets(shape *Shape) ([]uint64, error) {
	switch shape.Kind {
	case KindArray:
		words, err := p.Size(shape.Elem)
		if err != nil {
			return nil, err
		}
		stride := Stride(words)
		offsets := make([]uint64, shape.Len)
		for i := range offsets {
			offsets[i] = uint64(i) * stride
		}
		return offsets, nil
	case KindTuple, KindStruct:
		offsets := make([]uint64, len(shape.Fields))
		var cursor uint64
		for i, f := range shape.Fields {
			words, err := p.Size(f.Shape)
			if err != nil {
				return nil, err
			}
			offsets[i] = Place(cursor, words)
			cursor = offsets[i] + words
		}
		return offsets, nil
	}
	return nil, errors.Wrapf(ErrInvalidShape, "%v has no members", shape)
}
