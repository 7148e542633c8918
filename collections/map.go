// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package collections

import (
	"github.com/pkg/errors"

	"github.com/offchainlabs/slotcodec/abi"
	"github.com/offchainlabs/slotcodec/codec"
	"github.com/offchainlabs/slotcodec/layout"
	"github.com/offchainlabs/slotcodec/slots"
	"github.com/offchainlabs/slotcodec/storage"
)

var ErrOccupied = errors.New("key already present")

// Map is a handle on a StorageMap. No list of keys is stored, so a map can
// only be iterated over candidate keys supplied by the caller.
type Map struct {
	storage *storage.Storage
	key     *layout.Shape
	value   *layout.Shape
}

func OpenMap(s *storage.Storage) (*Map, error) {
	shape := s.Shape()
	if shape.Kind != layout.KindMap {
		return nil, errors.Wrapf(ErrNotCollection, "%v is not a StorageMap", shape)
	}
	return &Map{storage: s, key: shape.Key, value: shape.Elem}, nil
}

// NewMap opens the top-level map at path.
func NewMap(root *storage.Root, path slots.FieldPath, key, value *layout.Shape) (*Map, error) {
	s, err := root.Field(path, layout.Map(key, value))
	if err != nil {
		return nil, err
	}
	return OpenMap(s)
}

func (m *Map) Storage() *storage.Storage {
	return m.storage
}

// encodeKey returns the encoding of k and the map's current generation.
func (m *Map) encodeKey(k codec.Value) ([]byte, uint64, error) {
	encoded, err := abi.Encode(m.key, k)
	if err != nil {
		return nil, 0, errors.Wrap(err, "map key")
	}
	generation := m.storage.MapGeneration()
	gen, err := generation.Get()
	if err != nil {
		return nil, 0, err
	}
	return encoded, gen, nil
}

// Entry opens the value slot of key k, whether or not k is present.
func (m *Map) Entry(k codec.Value) (*storage.Storage, error) {
	encoded, gen, err := m.encodeKey(k)
	if err != nil {
		return nil, err
	}
	return m.storage.Child(storage.MapEntrySuffix(gen, encoded), m.value)
}

// presence opens the presence flag of key k. The flag hangs off the map's
// field id under its own tag, so no entry or nested key can reach it.
func (m *Map) presence(k codec.Value) (*storage.Storage, error) {
	encoded, gen, err := m.encodeKey(k)
	if err != nil {
		return nil, err
	}
	return m.storage.Child(storage.MapPresenceSuffix(gen, encoded), layout.Bool())
}

func (m *Map) present(k codec.Value) (bool, error) {
	flag, err := m.presence(k)
	if err != nil {
		return false, err
	}
	v, err := flag.Read()
	if err != nil {
		return false, err
	}
	return v.Bool(), nil
}

func (m *Map) setPresent(k codec.Value, present bool) error {
	flag, err := m.presence(k)
	if err != nil {
		return err
	}
	return flag.Write(codec.Bool(present))
}

// Insert stores value under k, replacing any previous value.
func (m *Map) Insert(k codec.Value, value codec.Value) error {
	entry, err := m.Entry(k)
	if err != nil {
		return err
	}
	if err := entry.Store(value); err != nil {
		return err
	}
	return m.setPresent(k, true)
}

// TryInsert stores value under k unless k is already present.
func (m *Map) TryInsert(k codec.Value, value codec.Value) error {
	entry, err := m.Entry(k)
	if err != nil {
		return err
	}
	present, err := m.present(k)
	if err != nil {
		return err
	}
	if present {
		return errors.Wrapf(ErrOccupied, "key %v", k)
	}
	if err := entry.Store(value); err != nil {
		return err
	}
	return m.setPresent(k, true)
}

// Get returns the value under k, or false when k was never inserted or has
// been removed.
func (m *Map) Get(k codec.Value) (codec.Value, bool, error) {
	entry, err := m.Entry(k)
	if err != nil {
		return codec.Value{}, false, err
	}
	present, err := m.present(k)
	if err != nil || !present {
		return codec.Value{}, false, err
	}
	value, err := entry.Load()
	if err != nil {
		return codec.Value{}, false, err
	}
	return value, true, nil
}

func (m *Map) Contains(k codec.Value) (bool, error) {
	return m.present(k)
}

// Remove clears the presence flag of k and reports whether k was present.
// The entry's value slots keep their contents.
func (m *Map) Remove(k codec.Value) (bool, error) {
	present, err := m.present(k)
	if err != nil || !present {
		return false, err
	}
	return true, m.setPresent(k, false)
}

func (m *Map) nestedEntry(k codec.Value, kind layout.Kind) (*storage.Storage, bool, error) {
	if m.value.Kind != kind {
		return nil, false, errors.Wrapf(ErrNotCollection, "values of %v are not %v", m.storage.Shape(), kind)
	}
	entry, err := m.Entry(k)
	if err != nil {
		return nil, false, err
	}
	present, err := m.present(k)
	return entry, present, err
}

// Nested returns the vector stored under k in a map of vectors.
func (m *Map) Nested(k codec.Value) (*Vec, bool, error) {
	entry, present, err := m.nestedEntry(k, layout.KindVector)
	if err != nil || !present {
		return nil, false, err
	}
	vec, err := OpenVec(entry)
	return vec, err == nil, err
}

// NestedMap returns the map stored under k in a map of maps.
func (m *Map) NestedMap(k codec.Value) (*Map, bool, error) {
	entry, present, err := m.nestedEntry(k, layout.KindMap)
	if err != nil || !present {
		return nil, false, err
	}
	nested, err := OpenMap(entry)
	return nested, err == nil, err
}

// InsertNested stores an empty vector under k, replacing any previous one,
// and returns it.
func (m *Map) InsertNested(k codec.Value) (*Vec, error) {
	entry, _, err := m.nestedEntry(k, layout.KindVector)
	if err != nil {
		return nil, err
	}
	if err := entry.Store(codec.Vector()); err != nil {
		return nil, err
	}
	if err := m.setPresent(k, true); err != nil {
		return nil, err
	}
	return OpenVec(entry)
}

// InsertNestedMap stores an empty map under k, replacing any previous one,
// and returns it.
func (m *Map) InsertNestedMap(k codec.Value) (*Map, error) {
	entry, _, err := m.nestedEntry(k, layout.KindMap)
	if err != nil {
		return nil, err
	}
	if err := entry.RenewMap(); err != nil {
		return nil, err
	}
	if err := m.setPresent(k, true); err != nil {
		return nil, err
	}
	return OpenMap(entry)
}

// IterKeys returns an iterator over those of the candidate keys that are
// present. Keys are checked lazily as the iterator advances, so changes made
// to the map while iterating are visible to it.
func (m *Map) IterKeys(candidates []codec.Value) *MapIter {
	return &MapIter{m: m, candidates: candidates}
}

// MapIter visits the present keys among a list of candidates.
type MapIter struct {
	m          *Map
	candidates []codec.Value
	next       int
	key        codec.Value
	entry      *storage.Storage
	err        error
}

func (it *MapIter) Next() bool {
	for it.err == nil && it.next < len(it.candidates) {
		k := it.candidates[it.next]
		it.next++
		entry, err := it.m.Entry(k)
		if err != nil {
			it.err = err
			return false
		}
		present, err := it.m.present(k)
		if err != nil {
			it.err = err
			return false
		}
		if present {
			it.key, it.entry = k, entry
			return true
		}
	}
	it.entry = nil
	return false
}

func (it *MapIter) Key() codec.Value {
	return it.key
}

// Entry opens the value of the current key.
func (it *MapIter) Entry() *storage.Storage {
	return it.entry
}

// Value loads the value of the current key.
func (it *MapIter) Value() (codec.Value, error) {
	if it.entry == nil {
		return codec.Value{}, errors.New("iterator is not positioned on a key")
	}
	return it.entry.Load()
}

func (it *MapIter) Err() error {
	return it.err
}

func (it *MapIter) Reset() {
	*it = MapIter{m: it.m, candidates: it.candidates}
}
