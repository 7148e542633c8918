// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package storage

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/offchainlabs/slotcodec/codec"
	"github.com/offchainlabs/slotcodec/layout"
)

// A vector keeps its length in the first word of its anchor and element i at
// the child of its field id with suffix be_u64(i).

func (s *Storage) VectorLength() StorageBackedUint64 {
	return s.OpenStorageBackedUint64(0)
}

// A map derives its children from its field id and a one byte tag, so entries,
// presence flags and the generation counter never share a suffix. Entry and
// flag suffixes also carry the map's generation; advancing the generation
// leaves every earlier entry unreachable.
const (
	mapEntryTag      byte = 0x00
	mapPresenceTag   byte = 0x01
	mapGenerationTag byte = 0x02
)

func mapSuffix(tag byte, generation uint64, key []byte) []byte {
	suffix := make([]byte, 1+8+len(key))
	suffix[0] = tag
	binary.BigEndian.PutUint64(suffix[1:], generation)
	copy(suffix[9:], key)
	return suffix
}

// MapEntrySuffix is the suffix of the value slot of an encoded key.
func MapEntrySuffix(generation uint64, key []byte) []byte {
	return mapSuffix(mapEntryTag, generation, key)
}

// MapPresenceSuffix is the suffix of the presence flag of an encoded key.
func MapPresenceSuffix(generation uint64, key []byte) []byte {
	return mapSuffix(mapPresenceTag, generation, key)
}

// MapGeneration opens the generation counter of a map. It lives in its own
// slot, so rewriting or clearing the map's anchor never rewinds it.
func (s *Storage) MapGeneration() StorageBackedUint64 {
	key := s.root.deriver.Child(s.key, []byte{mapGenerationTag})
	return StorageBackedUint64{root: s.root, key: key}
}

// RenewMap empties a map by advancing its generation.
func (s *Storage) RenewMap() error {
	if s.Shape().Kind != layout.KindMap {
		return errors.Errorf("%v is not a map", s.Shape())
	}
	generation := s.MapGeneration()
	_, err := generation.Increment()
	return err
}

func memberName(shape *layout.Shape, i int) string {
	switch shape.Kind {
	case layout.KindArray:
		return fmt.Sprintf("[%d]", i)
	case layout.KindTuple:
		return strconv.Itoa(i)
	}
	return shape.Fields[i].Name
}

// Store writes a value together with the contents of the vectors, bytes and
// strings inside it, replacing whatever they held. Maps inside the value are
// emptied.
func (s *Storage) Store(v codec.Value) error {
	if err := codec.Check(s.Shape(), v); err != nil {
		return err
	}
	if err := s.Write(v); err != nil {
		return err
	}
	return s.storeContents(v)
}

func (s *Storage) storeContents(v codec.Value) error {
	shape := s.Shape()
	if !layout.ContainsDynamic(shape) {
		return nil
	}
	switch shape.Kind {
	case layout.KindVector:
		length := s.VectorLength()
		if err := length.Set(uint64(v.Len())); err != nil {
			return err
		}
		for i, item := range v.Items() {
			elem, err := s.Element(uint64(i), shape.Elem)
			if err != nil {
				return err
			}
			if err := elem.Store(item); err != nil {
				return err
			}
		}
	case layout.KindBytes, layout.KindString:
		return s.SetBytes(v.Bytes())
	case layout.KindMap:
		return s.RenewMap()
	case layout.KindArray, layout.KindTuple, layout.KindStruct:
		for i, item := range v.Items() {
			member, err := s.Member(memberName(shape, i))
			if err != nil {
				return err
			}
			if err := member.storeContents(item); err != nil {
				return err
			}
		}
	case layout.KindEnum:
		member, err := s.Member(shape.Fields[v.Tag()].Name)
		if err != nil {
			return err
		}
		return member.storeContents(v.Payload())
	}
	return nil
}

// renewMaps empties the maps held inline by v. Maps inside vectors are not
// visited; they become unreachable with the vector's elements.
func (s *Storage) renewMaps(v codec.Value) error {
	shape := s.Shape()
	if !layout.ContainsMap(shape) {
		return nil
	}
	switch shape.Kind {
	case layout.KindMap:
		return s.RenewMap()
	case layout.KindArray, layout.KindTuple, layout.KindStruct:
		for i, item := range v.Items() {
			member, err := s.Member(memberName(shape, i))
			if err != nil {
				return err
			}
			if err := member.renewMaps(item); err != nil {
				return err
			}
		}
	case layout.KindEnum:
		member, err := s.Member(shape.Fields[v.Tag()].Name)
		if err != nil {
			return err
		}
		return member.renewMaps(v.Payload())
	}
	return nil
}

// Load reads a value together with the contents of the vectors, bytes and
// strings inside it. Maps load as anchors.
func (s *Storage) Load() (codec.Value, error) {
	v, err := s.Read()
	if err != nil {
		return codec.Value{}, err
	}
	return s.loadContents(v)
}

func (s *Storage) loadContents(v codec.Value) (codec.Value, error) {
	shape := s.Shape()
	if !layout.ContainsDynamic(shape) {
		return v, nil
	}
	switch shape.Kind {
	case layout.KindVector:
		length := s.VectorLength()
		n, err := length.Get()
		if err != nil {
			return codec.Value{}, err
		}
		var items []codec.Value
		for i := uint64(0); i < n; i++ {
			elem, err := s.Element(i, shape.Elem)
			if err != nil {
				return codec.Value{}, err
			}
			item, err := elem.Load()
			if err != nil {
				return codec.Value{}, err
			}
			items = append(items, item)
		}
		return codec.Vector(items...), nil
	case layout.KindBytes, layout.KindString:
		b, err := s.GetBytes()
		if err != nil {
			return codec.Value{}, err
		}
		if shape.Kind == layout.KindString {
			return codec.String(string(b)), nil
		}
		return codec.Bytes(b), nil
	case layout.KindArray, layout.KindTuple, layout.KindStruct:
		items := make([]codec.Value, v.Len())
		for i, item := range v.Items() {
			member, err := s.Member(memberName(shape, i))
			if err != nil {
				return codec.Value{}, err
			}
			items[i], err = member.loadContents(item)
			if err != nil {
				return codec.Value{}, err
			}
		}
		switch shape.Kind {
		case layout.KindArray:
			return codec.Array(items...), nil
		case layout.KindTuple:
			return codec.Tuple(items...), nil
		}
		return codec.Struct(items...), nil
	case layout.KindEnum:
		member, err := s.Member(shape.Fields[v.Tag()].Name)
		if err != nil {
			return codec.Value{}, err
		}
		payload, err := member.loadContents(v.Payload())
		if err != nil {
			return codec.Value{}, err
		}
		return codec.Enum(v.Tag(), payload), nil
	}
	return v, nil
}
