// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package collections implements StorageVec and StorageMap on top of a
// storage.Root.
//
// A vector keeps its length in the first word of its anchor slot and element
// i at the key derived from the vector's field id and be_u64(i). A map keeps
// the value for key k at the key derived from the map's field id and
// 0x00 || be_u64(generation) || abi(k), and marks present entries with a flag
// word at 0x01 || be_u64(generation) || abi(k). The generation counter sits at
// the map's field id and 0x02; storing or clearing a map advances it, which
// leaves the old entries unreachable. Elements and entries that are
// collections themselves get their own field ids this way, so collections nest
// to any depth.
package collections

import (
	"github.com/pkg/errors"

	"github.com/offchainlabs/slotcodec/codec"
	"github.com/offchainlabs/slotcodec/layout"
	"github.com/offchainlabs/slotcodec/slots"
	"github.com/offchainlabs/slotcodec/storage"
)

var (
	ErrIndexOutOfBounds = errors.New("index out of bounds")
	ErrNotCollection    = errors.New("value is not a collection of this kind")
	ErrImmovable        = errors.New("elements containing maps cannot be moved")
)

// Vec is a handle on a StorageVec.
type Vec struct {
	storage *storage.Storage
	elem    *layout.Shape
}

// OpenVec returns a handle on the vector stored at s.
func OpenVec(s *storage.Storage) (*Vec, error) {
	if s.Shape().Kind != layout.KindVector {
		return nil, errors.Wrapf(ErrNotCollection, "%v is not a StorageVec", s.Shape())
	}
	return &Vec{storage: s, elem: s.Shape().Elem}, nil
}

// NewVec opens the top-level vector at path.
func NewVec(root *storage.Root, path slots.FieldPath, elem *layout.Shape) (*Vec, error) {
	s, err := root.Field(path, layout.Vector(elem))
	if err != nil {
		return nil, err
	}
	return OpenVec(s)
}

func (v *Vec) Storage() *storage.Storage {
	return v.storage
}

func (v *Vec) ElementShape() *layout.Shape {
	return v.elem
}

func (v *Vec) Len() (uint64, error) {
	length := v.storage.VectorLength()
	return length.Get()
}

func (v *Vec) setLen(n uint64) error {
	length := v.storage.VectorLength()
	return length.Set(n)
}

func (v *Vec) IsEmpty() (bool, error) {
	n, err := v.Len()
	return n == 0, err
}

// Element opens element i without checking it against the length.
func (v *Vec) Element(i uint64) (*storage.Storage, error) {
	return v.storage.Element(i, v.elem)
}

func (v *Vec) checkIndex(i, n uint64) error {
	if i >= n {
		return errors.Wrapf(ErrIndexOutOfBounds, "index %d, length %d", i, n)
	}
	return nil
}

func (v *Vec) Push(value codec.Value) error {
	n, err := v.Len()
	if err != nil {
		return err
	}
	elem, err := v.Element(n)
	if err != nil {
		return err
	}
	if err := elem.Store(value); err != nil {
		return err
	}
	return v.setLen(n + 1)
}

// Pop removes and returns the last element. The element's slots keep their
// contents but are no longer reachable.
func (v *Vec) Pop() (codec.Value, bool, error) {
	n, err := v.Len()
	if err != nil || n == 0 {
		return codec.Value{}, false, err
	}
	value, _, err := v.Get(n - 1)
	if err != nil {
		return codec.Value{}, false, err
	}
	if err := v.setLen(n - 1); err != nil {
		return codec.Value{}, false, err
	}
	return value, true, nil
}

// Get returns element i, or false when i is out of range.
func (v *Vec) Get(i uint64) (codec.Value, bool, error) {
	n, err := v.Len()
	if err != nil || i >= n {
		return codec.Value{}, false, err
	}
	elem, err := v.Element(i)
	if err != nil {
		return codec.Value{}, false, err
	}
	value, err := elem.Load()
	if err != nil {
		return codec.Value{}, false, err
	}
	return value, true, nil
}

func (v *Vec) First() (codec.Value, bool, error) {
	return v.Get(0)
}

func (v *Vec) Last() (codec.Value, bool, error) {
	n, err := v.Len()
	if err != nil || n == 0 {
		return codec.Value{}, false, err
	}
	return v.Get(n - 1)
}

func (v *Vec) Set(i uint64, value codec.Value) error {
	n, err := v.Len()
	if err != nil {
		return err
	}
	if err := v.checkIndex(i, n); err != nil {
		return err
	}
	elem, err := v.Element(i)
	if err != nil {
		return err
	}
	return elem.Store(value)
}

func (v *Vec) movable() error {
	if layout.ContainsMap(v.elem) {
		return errors.Wrapf(ErrImmovable, "%v", v.elem)
	}
	return nil
}

// move copies element from over element to. Elements without collections are
// copied slot by slot; others are copied with their contents.
func (v *Vec) move(from, to uint64) error {
	src, err := v.Element(from)
	if err != nil {
		return err
	}
	dst, err := v.Element(to)
	if err != nil {
		return err
	}
	if layout.ContainsDynamic(v.elem) {
		value, err := src.Load()
		if err != nil {
			return err
		}
		return dst.Store(value)
	}
	images, err := src.RawSlots()
	if err != nil {
		return err
	}
	return dst.SetRawSlots(images)
}

// Swap exchanges elements i and j. Swapping an element with itself changes
// nothing.
func (v *Vec) Swap(i, j uint64) error {
	n, err := v.Len()
	if err != nil {
		return err
	}
	if err := v.checkIndex(i, n); err != nil {
		return err
	}
	if err := v.checkIndex(j, n); err != nil {
		return err
	}
	if i == j {
		return nil
	}
	if err := v.movable(); err != nil {
		return err
	}
	a, err := v.Element(i)
	if err != nil {
		return err
	}
	b, err := v.Element(j)
	if err != nil {
		return err
	}
	if layout.ContainsDynamic(v.elem) {
		av, err := a.Load()
		if err != nil {
			return err
		}
		bv, err := b.Load()
		if err != nil {
			return err
		}
		if err := a.Store(bv); err != nil {
			return err
		}
		return b.Store(av)
	}
	aImages, err := a.RawSlots()
	if err != nil {
		return err
	}
	bImages, err := b.RawSlots()
	if err != nil {
		return err
	}
	if err := a.SetRawSlots(bImages); err != nil {
		return err
	}
	return b.SetRawSlots(aImages)
}

// SwapRemove removes element i by moving the last element into its place.
func (v *Vec) SwapRemove(i uint64) (codec.Value, error) {
	n, err := v.Len()
	if err != nil {
		return codec.Value{}, err
	}
	if err := v.checkIndex(i, n); err != nil {
		return codec.Value{}, err
	}
	if err := v.movable(); err != nil && i != n-1 {
		return codec.Value{}, err
	}
	removed, _, err := v.Get(i)
	if err != nil {
		return codec.Value{}, err
	}
	if i != n-1 {
		if err := v.move(n-1, i); err != nil {
			return codec.Value{}, err
		}
	}
	return removed, v.setLen(n - 1)
}

// InsertAt inserts value at index i, shifting the elements from i on up by
// one. i may equal the length.
func (v *Vec) InsertAt(i uint64, value codec.Value) error {
	n, err := v.Len()
	if err != nil {
		return err
	}
	if i > n {
		return errors.Wrapf(ErrIndexOutOfBounds, "insert at %d, length %d", i, n)
	}
	if i < n {
		if err := v.movable(); err != nil {
			return err
		}
	}
	for k := n; k > i; k-- {
		if err := v.move(k-1, k); err != nil {
			return err
		}
	}
	elem, err := v.Element(i)
	if err != nil {
		return err
	}
	if err := elem.Store(value); err != nil {
		return err
	}
	return v.setLen(n + 1)
}

// RemoveAt removes element i, shifting the elements after it down by one.
func (v *Vec) RemoveAt(i uint64) (codec.Value, error) {
	n, err := v.Len()
	if err != nil {
		return codec.Value{}, err
	}
	if err := v.checkIndex(i, n); err != nil {
		return codec.Value{}, err
	}
	if i != n-1 {
		if err := v.movable(); err != nil {
			return codec.Value{}, err
		}
	}
	removed, _, err := v.Get(i)
	if err != nil {
		return codec.Value{}, err
	}
	for k := i; k+1 < n; k++ {
		if err := v.move(k+1, k); err != nil {
			return codec.Value{}, err
		}
	}
	return removed, v.setLen(n - 1)
}

// Clear sets the length to zero. Element slots keep their contents.
func (v *Vec) Clear() error {
	return v.setLen(0)
}

// Truncate shortens the vector to n elements. It does nothing when the vector
// is not longer than n.
func (v *Vec) Truncate(n uint64) error {
	length, err := v.Len()
	if err != nil || length <= n {
		return err
	}
	return v.setLen(n)
}

// Resize grows the vector to n elements by pushing value, or truncates it.
func (v *Vec) Resize(n uint64, value codec.Value) error {
	length, err := v.Len()
	if err != nil {
		return err
	}
	if n <= length {
		return v.Truncate(n)
	}
	if err := codec.Check(v.elem, value); err != nil {
		return err
	}
	for i := length; i < n; i++ {
		elem, err := v.Element(i)
		if err != nil {
			return err
		}
		if err := elem.Store(value); err != nil {
			return err
		}
	}
	return v.setLen(n)
}

// Fill sets every element to value.
func (v *Vec) Fill(value codec.Value) error {
	n, err := v.Len()
	if err != nil {
		return err
	}
	for i := uint64(0); i < n; i++ {
		elem, err := v.Element(i)
		if err != nil {
			return err
		}
		if err := elem.Store(value); err != nil {
			return err
		}
	}
	return nil
}

// Reverse reverses the order of the elements in place.
func (v *Vec) Reverse() error {
	n, err := v.Len()
	if err != nil {
		return err
	}
	for i := uint64(0); i < n/2; i++ {
		if err := v.Swap(i, n-1-i); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the whole vector.
func (v *Vec) Load() (codec.Value, error) {
	return v.storage.Load()
}

// Store replaces the contents of the vector with the items of a vector value.
func (v *Vec) Store(value codec.Value) error {
	return v.storage.Store(value)
}

// Nested returns the vector held by element i of a vector of vectors.
func (v *Vec) Nested(i uint64) (*Vec, bool, error) {
	n, err := v.Len()
	if err != nil || i >= n {
		return nil, false, err
	}
	elem, err := v.Element(i)
	if err != nil {
		return nil, false, err
	}
	nested, err := OpenVec(elem)
	return nested, err == nil, err
}

// NestedMap returns the map held by element i of a vector of maps.
func (v *Vec) NestedMap(i uint64) (*Map, bool, error) {
	n, err := v.Len()
	if err != nil || i >= n {
		return nil, false, err
	}
	elem, err := v.Element(i)
	if err != nil {
		return nil, false, err
	}
	nested, err := OpenMap(elem)
	return nested, err == nil, err
}

// PushNested appends an empty vector to a vector of vectors and returns it.
func (v *Vec) PushNested() (*Vec, error) {
	if v.elem.Kind != layout.KindVector {
		return nil, errors.Wrapf(ErrNotCollection, "elements of %v are not vectors", v.storage.Shape())
	}
	n, err := v.Len()
	if err != nil {
		return nil, err
	}
	if err := v.Push(codec.Vector()); err != nil {
		return nil, err
	}
	elem, err := v.Element(n)
	if err != nil {
		return nil, err
	}
	return OpenVec(elem)
}

// Iter returns an iterator over the elements. The length is read when
// iteration starts; pushing, popping or reordering elements while iterating
// is not supported and may yield stale or skipped elements.
func (v *Vec) Iter() *VecIter {
	return &VecIter{vec: v}
}

// VecIter visits the elements of a vector in order.
type VecIter struct {
	vec     *Vec
	started bool
	length  uint64
	next    uint64
	current *storage.Storage
	err     error
}

// Next advances to the next element and reports whether there is one.
func (it *VecIter) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.started {
		it.started = true
		it.length, it.err = it.vec.Len()
		if it.err != nil {
			return false
		}
	}
	if it.next >= it.length {
		it.current = nil
		return false
	}
	it.current, it.err = it.vec.Element(it.next)
	if it.err != nil {
		return false
	}
	it.next++
	return true
}

// Index is the index of the current element.
func (it *VecIter) Index() uint64 {
	return it.next - 1
}

// Element opens the current element.
func (it *VecIter) Element() *storage.Storage {
	return it.current
}

// Value loads the current element.
func (it *VecIter) Value() (codec.Value, error) {
	if it.current == nil {
		return codec.Value{}, errors.New("iterator is not positioned on an element")
	}
	return it.current.Load()
}

func (it *VecIter) Err() error {
	return it.err
}

// Reset restarts the iteration, rereading the length.
func (it *VecIter) Reset() {
	*it = VecIter{vec: it.vec}
}
