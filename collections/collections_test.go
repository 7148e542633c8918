// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package collections

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/offchainlabs/slotcodec/codec"
	"github.com/offchainlabs/slotcodec/layout"
	"github.com/offchainlabs/slotcodec/slotdb"
	"github.com/offchainlabs/slotcodec/slots"
	"github.com/offchainlabs/slotcodec/storage"
	"github.com/offchainlabs/slotcodec/util/testhelpers"
)

func Require(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	testhelpers.RequireImpl(t, err, printables...)
}

func newTestRoot() (*storage.Root, *slotdb.Database) {
	backend := slotdb.NewMemory()
	return storage.NewRoot(backend, nil, nil), backend
}

func newU64Vec(t *testing.T, root *storage.Root, name string) *Vec {
	t.Helper()
	vec, err := NewVec(root, slots.NewFieldPath(name), layout.U64())
	Require(t, err)
	return vec
}

func u64s(t *testing.T, vec *Vec) []uint64 {
	t.Helper()
	var out []uint64
	it := vec.Iter()
	for it.Next() {
		v, err := it.Value()
		Require(t, err)
		out = append(out, v.Uint64())
	}
	Require(t, it.Err())
	return out
}

func requireGet(t *testing.T, vec *Vec, i uint64, expected uint64) {
	t.Helper()
	v, ok, err := vec.Get(i)
	Require(t, err)
	require.True(t, ok, "element %d", i)
	require.Equal(t, expected, v.Uint64())
}

func TestVecPushGetSwap(t *testing.T) {
	root, _ := newTestRoot()
	vec := newU64Vec(t, root, "vec")
	empty, err := vec.IsEmpty()
	Require(t, err)
	require.True(t, empty)

	for i := uint64(0); i < 3; i++ {
		Require(t, vec.Push(codec.U64(i)))
	}
	n, err := vec.Len()
	Require(t, err)
	require.Equal(t, uint64(3), n)
	for i := uint64(0); i < 3; i++ {
		requireGet(t, vec, i, i)
	}
	_, ok, err := vec.Get(3)
	Require(t, err)
	require.False(t, ok)

	Require(t, vec.Swap(0, 2))
	require.Equal(t, []uint64{2, 1, 0}, u64s(t, vec))

	Require(t, vec.Swap(1, 1))
	require.Equal(t, []uint64{2, 1, 0}, u64s(t, vec))

	require.ErrorIs(t, vec.Swap(0, 3), ErrIndexOutOfBounds)
	require.ErrorIs(t, vec.Set(3, codec.U64(1)), ErrIndexOutOfBounds)
	require.Equal(t, []uint64{2, 1, 0}, u64s(t, vec))
}

func TestVecPushPopInverse(t *testing.T) {
	root, backend := newTestRoot()
	vec := newU64Vec(t, root, "vec")
	Require(t, vec.Push(codec.U64(5)))
	before, err := slotdb.Export(backend)
	Require(t, err)

	for i := 0; i < 20; i++ {
		x := testhelpers.RandomUint64(0, 1<<63)
		Require(t, vec.Push(codec.U64(x)))
		v, ok, err := vec.Pop()
		Require(t, err)
		require.True(t, ok)
		require.Equal(t, x, v.Uint64())
		require.Equal(t, []uint64{5}, u64s(t, vec))
	}
	after, err := vec.Load()
	Require(t, err)
	require.True(t, codec.Vector(codec.U64(5)).Equal(after))
	exported, err := slotdb.Export(backend)
	Require(t, err)
	current := make(map[common.Hash]common.Hash)
	for _, slot := range exported {
		current[slot.Key] = slot.Value
	}
	for _, slot := range before {
		require.Equal(t, slot.Value, current[slot.Key])
	}

	_, ok, err := vec.Pop()
	Require(t, err)
	require.True(t, ok)
	_, ok, err = vec.Pop()
	Require(t, err)
	require.False(t, ok)
	_, ok, err = vec.First()
	Require(t, err)
	require.False(t, ok)
	_, ok, err = vec.Last()
	Require(t, err)
	require.False(t, ok)
}

func TestVecOrderedOperations(t *testing.T) {
	root, _ := newTestRoot()
	vec := newU64Vec(t, root, "vec")
	for _, x := range []uint64{10, 20, 30, 40} {
		Require(t, vec.Push(codec.U64(x)))
	}

	Require(t, vec.InsertAt(1, codec.U64(15)))
	require.Equal(t, []uint64{10, 15, 20, 30, 40}, u64s(t, vec))
	Require(t, vec.InsertAt(5, codec.U64(50)))
	require.Equal(t, []uint64{10, 15, 20, 30, 40, 50}, u64s(t, vec))
	require.ErrorIs(t, vec.InsertAt(7, codec.U64(0)), ErrIndexOutOfBounds)

	removed, err := vec.RemoveAt(2)
	Require(t, err)
	require.Equal(t, uint64(20), removed.Uint64())
	require.Equal(t, []uint64{10, 15, 30, 40, 50}, u64s(t, vec))
	_, err = vec.RemoveAt(5)
	require.ErrorIs(t, err, ErrIndexOutOfBounds)

	removed, err = vec.SwapRemove(0)
	Require(t, err)
	require.Equal(t, uint64(10), removed.Uint64())
	require.Equal(t, []uint64{50, 15, 30, 40}, u64s(t, vec))

	removed, err = vec.SwapRemove(3)
	Require(t, err)
	require.Equal(t, uint64(40), removed.Uint64())
	require.Equal(t, []uint64{50, 15, 30}, u64s(t, vec))

	Require(t, vec.Reverse())
	require.Equal(t, []uint64{30, 15, 50}, u64s(t, vec))

	first, ok, err := vec.First()
	Require(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(30), first.Uint64())
	last, ok, err := vec.Last()
	Require(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(50), last.Uint64())

	Require(t, vec.Resize(5, codec.U64(7)))
	require.Equal(t, []uint64{30, 15, 50, 7, 7}, u64s(t, vec))
	Require(t, vec.Resize(2, codec.U64(7)))
	require.Equal(t, []uint64{30, 15}, u64s(t, vec))
	Require(t, vec.Fill(codec.U64(9)))
	require.Equal(t, []uint64{9, 9}, u64s(t, vec))
	Require(t, vec.Truncate(5))
	require.Equal(t, []uint64{9, 9}, u64s(t, vec))
	Require(t, vec.Truncate(1))
	require.Equal(t, []uint64{9}, u64s(t, vec))
	require.ErrorIs(t, vec.Resize(3, codec.Bool(true)), codec.ErrShapeMismatch)

	Require(t, vec.Clear())
	require.Empty(t, u64s(t, vec))

	Require(t, vec.Store(codec.Vector(codec.U64(1), codec.U64(2))))
	require.Equal(t, []uint64{1, 2}, u64s(t, vec))
}

func TestVecIterRestarts(t *testing.T) {
	root, _ := newTestRoot()
	vec := newU64Vec(t, root, "vec")
	for _, x := range []uint64{3, 1, 4} {
		Require(t, vec.Push(codec.U64(x)))
	}
	it := vec.Iter()
	var indices []uint64
	for it.Next() {
		indices = append(indices, it.Index())
		require.NotNil(t, it.Element())
	}
	require.Equal(t, []uint64{0, 1, 2}, indices)
	require.False(t, it.Next())
	_, err := it.Value()
	require.Error(t, err)

	it.Reset()
	require.True(t, it.Next())
	v, err := it.Value()
	Require(t, err)
	require.Equal(t, uint64(3), v.Uint64())
}

func TestVecOfWideElements(t *testing.T) {
	record := layout.Struct("Record",
		layout.F("balance", layout.U256()),
		layout.F("nonce", layout.U64()),
		layout.F("active", layout.Bool()),
	)
	root, _ := newTestRoot()
	vec, err := NewVec(root, slots.NewFieldPath("records"), record)
	Require(t, err)
	var values []codec.Value
	for i := 0; i < 4; i++ {
		v := codec.Struct(
			codec.U256(testhelpers.RandomUint256()),
			codec.U64(uint64(i)),
			codec.Bool(i%2 == 0),
		)
		values = append(values, v)
		Require(t, vec.Push(v))
	}
	Require(t, vec.Swap(0, 3))
	Require(t, vec.InsertAt(0, values[1]))
	_, err = vec.RemoveAt(2)
	Require(t, err)
	expected := codec.Vector(values[1], values[3], values[2], values[0])
	loaded, err := vec.Load()
	Require(t, err)
	require.True(t, expected.Equal(loaded), "loaded %v", loaded)
}

func TestNestedVectors(t *testing.T) {
	root, backend := newTestRoot()
	path := slots.NewFieldPath("matrix")
	outer, err := NewVec(root, path, layout.Vector(layout.U64()))
	Require(t, err)
	for _, row := range [][]uint64{{10, 20, 30}, {40, 50, 60}} {
		inner, err := outer.PushNested()
		Require(t, err)
		for _, x := range row {
			Require(t, inner.Push(codec.U64(x)))
		}
	}

	reloaded, err := NewVec(storage.NewRoot(backend, nil, nil), path, layout.Vector(layout.U64()))
	Require(t, err)
	first, ok, err := reloaded.Nested(0)
	Require(t, err)
	require.True(t, ok)
	requireGet(t, first, 1, 20)
	second, ok, err := reloaded.Nested(1)
	Require(t, err)
	require.True(t, ok)
	requireGet(t, second, 2, 60)
	_, ok, err = reloaded.Nested(2)
	Require(t, err)
	require.False(t, ok)

	Require(t, reloaded.Swap(0, 1))
	first, _, err = reloaded.Nested(0)
	Require(t, err)
	require.Equal(t, []uint64{40, 50, 60}, u64s(t, first))
	second, _, err = reloaded.Nested(1)
	Require(t, err)
	require.Equal(t, []uint64{10, 20, 30}, u64s(t, second))

	// a popped row must not leak into the next pushed one
	_, _, err = reloaded.Pop()
	Require(t, err)
	fresh, err := reloaded.PushNested()
	Require(t, err)
	require.Empty(t, u64s(t, fresh))

	_, err = newU64Vec(t, root, "flat").PushNested()
	require.ErrorIs(t, err, ErrNotCollection)
}

func TestMapPresence(t *testing.T) {
	root, _ := newTestRoot()
	m, err := NewMap(root, slots.NewFieldPath("balances"), layout.B256(), layout.U64())
	Require(t, err)
	alice := codec.B256(testhelpers.RandomHash())
	bob := codec.B256(testhelpers.RandomHash())

	_, ok, err := m.Get(alice)
	Require(t, err)
	require.False(t, ok)

	Require(t, m.Insert(alice, codec.U64(0)))
	v, ok, err := m.Get(alice)
	Require(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(0), v.Uint64())
	contains, err := m.Contains(bob)
	Require(t, err)
	require.False(t, contains)

	Require(t, m.Insert(alice, codec.U64(12)))
	require.ErrorIs(t, m.TryInsert(alice, codec.U64(1)), ErrOccupied)
	Require(t, m.TryInsert(bob, codec.U64(7)))

	removed, err := m.Remove(alice)
	Require(t, err)
	require.True(t, removed)
	removed, err = m.Remove(alice)
	Require(t, err)
	require.False(t, removed)
	_, ok, err = m.Get(alice)
	Require(t, err)
	require.False(t, ok)

	it := m.IterKeys([]codec.Value{alice, bob, codec.B256(testhelpers.RandomHash())})
	var found []codec.Value
	for it.Next() {
		found = append(found, it.Key())
		v, err := it.Value()
		Require(t, err)
		require.Equal(t, uint64(7), v.Uint64())
	}
	Require(t, it.Err())
	require.Len(t, found, 1)
	require.True(t, bob.Equal(found[0]))
	it.Reset()
	require.True(t, it.Next())

	require.ErrorIs(t, m.Insert(codec.U64(1), codec.U64(1)), codec.ErrShapeMismatch)
}

func TestMapKeysOfEveryShape(t *testing.T) {
	key := layout.Struct("Key",
		layout.F("owner", layout.B256()),
		layout.F("id", layout.U256()),
		layout.F("tags", layout.Vector(layout.U8())),
	)
	root, _ := newTestRoot()
	m, err := NewMap(root, slots.NewFieldPath("registry"), key, layout.String())
	Require(t, err)
	owner := testhelpers.RandomHash()
	k1 := codec.Struct(codec.B256(owner), codec.U256(uint256.NewInt(1)), codec.Vector(codec.U8(1)))
	k2 := codec.Struct(codec.B256(owner), codec.U256(uint256.NewInt(1)), codec.Vector(codec.U8(1), codec.U8(0)))
	Require(t, m.Insert(k1, codec.String("first")))
	Require(t, m.Insert(k2, codec.String("second")))
	v, ok, err := m.Get(k1)
	Require(t, err)
	require.True(t, ok)
	require.Equal(t, "first", string(v.Bytes()))
	v, _, err = m.Get(k2)
	Require(t, err)
	require.Equal(t, "second", string(v.Bytes()))
}

func TestMapOfVectors(t *testing.T) {
	root, backend := newTestRoot()
	path := slots.NewFieldPath("history", "ledger")
	m, err := NewMap(root, path, layout.U64(), layout.Vector(layout.U64()))
	Require(t, err)
	_, ok, err := m.Nested(codec.U64(1))
	Require(t, err)
	require.False(t, ok)

	vec, err := m.InsertNested(codec.U64(1))
	Require(t, err)
	Require(t, vec.Push(codec.U64(100)))
	Require(t, vec.Push(codec.U64(200)))
	other, err := m.InsertNested(codec.U64(2))
	Require(t, err)
	Require(t, other.Push(codec.U64(300)))

	reopened, err := NewMap(storage.NewRoot(backend, nil, nil), path, layout.U64(), layout.Vector(layout.U64()))
	Require(t, err)
	vec, ok, err = reopened.Nested(codec.U64(1))
	Require(t, err)
	require.True(t, ok)
	require.Equal(t, []uint64{100, 200}, u64s(t, vec))
	v, ok, err := reopened.Get(codec.U64(2))
	Require(t, err)
	require.True(t, ok)
	require.True(t, codec.Vector(codec.U64(300)).Equal(v))

	_, _, err = reopened.NestedMap(codec.U64(1))
	require.ErrorIs(t, err, ErrNotCollection)
}

func TestVecOfMaps(t *testing.T) {
	root, _ := newTestRoot()
	vec, err := NewVec(root, slots.NewFieldPath("tables"), layout.Map(layout.U8(), layout.Bool()))
	Require(t, err)
	Require(t, vec.Push(codec.Anchor(layout.KindMap)))
	Require(t, vec.Push(codec.Anchor(layout.KindMap)))
	table, ok, err := vec.NestedMap(1)
	Require(t, err)
	require.True(t, ok)
	Require(t, table.Insert(codec.U8(3), codec.Bool(true)))
	other, _, err := vec.NestedMap(0)
	Require(t, err)
	contains, err := other.Contains(codec.U8(3))
	Require(t, err)
	require.False(t, contains)

	require.ErrorIs(t, vec.Swap(0, 1), ErrImmovable)
	_, err = vec.SwapRemove(1)
	Require(t, err)
}

func TestMapOfMaps(t *testing.T) {
	root, _ := newTestRoot()
	m, err := NewMap(root, slots.NewFieldPath("allowances"), layout.B256(), layout.Map(layout.B256(), layout.U256()))
	Require(t, err)
	owner := codec.B256(testhelpers.RandomHash())
	spender := codec.B256(testhelpers.RandomHash())
	inner, err := m.InsertNestedMap(owner)
	Require(t, err)
	Require(t, inner.Insert(spender, codec.U256(uint256.NewInt(500))))

	again, ok, err := m.NestedMap(owner)
	Require(t, err)
	require.True(t, ok)
	v, ok, err := again.Get(spender)
	Require(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(500), v.Uint64())
	_, ok, err = again.Get(owner)
	Require(t, err)
	require.False(t, ok)
}

func TestNestedKeysDoNotReachPresenceFlags(t *testing.T) {
	root, _ := newTestRoot()
	m, err := NewMap(root, slots.NewFieldPath("grid"), layout.U8(), layout.Map(layout.U8(), layout.U64()))
	Require(t, err)
	inner, err := m.InsertNestedMap(codec.U8(1))
	Require(t, err)
	for _, value := range []uint64{0, 7} {
		Require(t, inner.Insert(codec.U8(255), codec.U64(value)))
		contains, err := m.Contains(codec.U8(1))
		Require(t, err)
		require.True(t, contains, "after writing %d under 255", value)
		v, ok, err := inner.Get(codec.U8(255))
		Require(t, err)
		require.True(t, ok)
		require.Equal(t, value, v.Uint64())
	}
	contains, err := m.Contains(codec.U8(255))
	Require(t, err)
	require.False(t, contains)
}

func TestReusedMapsStartEmpty(t *testing.T) {
	root, _ := newTestRoot()
	vec, err := NewVec(root, slots.NewFieldPath("tables"), layout.Map(layout.U8(), layout.Bool()))
	Require(t, err)
	Require(t, vec.Push(codec.Anchor(layout.KindMap)))
	table, _, err := vec.NestedMap(0)
	Require(t, err)
	Require(t, table.Insert(codec.U8(3), codec.Bool(true)))
	_, ok, err := vec.Pop()
	Require(t, err)
	require.True(t, ok)
	Require(t, vec.Push(codec.Anchor(layout.KindMap)))
	table, _, err = vec.NestedMap(0)
	Require(t, err)
	contains, err := table.Contains(codec.U8(3))
	Require(t, err)
	require.False(t, contains, "popped entries came back")

	Require(t, table.Insert(codec.U8(4), codec.Bool(true)))
	Require(t, vec.Clear())
	Require(t, vec.Push(codec.Anchor(layout.KindMap)))
	contains, err = table.Contains(codec.U8(4))
	Require(t, err)
	require.False(t, contains, "cleared entries came back")

	m, err := NewMap(root, slots.NewFieldPath("nested"), layout.U8(), layout.Map(layout.U8(), layout.Bool()))
	Require(t, err)
	inner, err := m.InsertNestedMap(codec.U8(1))
	Require(t, err)
	Require(t, inner.Insert(codec.U8(9), codec.Bool(true)))
	removed, err := m.Remove(codec.U8(1))
	Require(t, err)
	require.True(t, removed)
	inner, err = m.InsertNestedMap(codec.U8(1))
	Require(t, err)
	contains, err = inner.Contains(codec.U8(9))
	Require(t, err)
	require.False(t, contains, "removed nested map came back")
}

func TestClearEmptiesInlineMaps(t *testing.T) {
	root, _ := newTestRoot()
	shape := layout.Struct("Registry",
		layout.F("count", layout.U64()),
		layout.F("owners", layout.Map(layout.U64(), layout.B256())),
	)
	field, err := root.Field(slots.NewFieldPath("registry"), shape)
	Require(t, err)
	Require(t, field.Store(codec.Struct(codec.U64(1), codec.Anchor(layout.KindMap))))
	member, err := field.Member("owners")
	Require(t, err)
	owners, err := OpenMap(member)
	Require(t, err)
	owner := codec.B256(testhelpers.RandomHash())
	Require(t, owners.Insert(codec.U64(5), owner))
	Require(t, field.Clear())
	_, ok, err := owners.Get(codec.U64(5))
	Require(t, err)
	require.False(t, ok)

	Require(t, owners.Insert(codec.U64(6), owner))
	Require(t, field.Store(codec.Struct(codec.U64(2), codec.Anchor(layout.KindMap))))
	_, ok, err = owners.Get(codec.U64(6))
	Require(t, err)
	require.False(t, ok)
}

func TestStorageBytesAndStrings(t *testing.T) {
	root, _ := newTestRoot()
	b, err := NewBytes(root, slots.NewFieldPath("blob"))
	Require(t, err)
	empty, err := b.IsEmpty()
	Require(t, err)
	require.True(t, empty)
	data := testhelpers.RandomSlice(70)
	Require(t, b.Set(data[:40]))
	Require(t, b.Append(data[40:]))
	got, err := b.Get()
	Require(t, err)
	require.Equal(t, data, got)
	n, err := b.Len()
	Require(t, err)
	require.Equal(t, uint64(70), n)
	Require(t, b.Clear())
	got, err = b.Get()
	Require(t, err)
	require.Empty(t, got)

	s, err := NewString(root, slots.NewFieldPath("name"))
	Require(t, err)
	Require(t, s.Set("slot codec"))
	text, err := s.Get()
	Require(t, err)
	require.Equal(t, "slot codec", text)
	n, err = s.Len()
	Require(t, err)
	require.Equal(t, uint64(10), n)
	Require(t, s.Clear())

	field, err := root.Field(slots.NewFieldPath("number"), layout.U64())
	Require(t, err)
	_, err = OpenString(field)
	require.ErrorIs(t, err, ErrNotCollection)
	_, err = OpenVec(field)
	require.ErrorIs(t, err, ErrNotCollection)
	_, err = OpenMap(field)
	require.ErrorIs(t, err, ErrNotCollection)
}

func TestVecMatchesSliceModel(t *testing.T) {
	root, _ := newTestRoot()
	vec := newU64Vec(t, root, "model")
	source := testhelpers.NewPseudoRandomDataSource(t, 1)
	var model []uint64
	for step := 0; step < 400; step++ {
		n := uint64(len(model))
		switch op := source.GetUint64Below(6); {
		case op == 0 || n == 0:
			x := source.GetUint64()
			Require(t, vec.Push(codec.U64(x)))
			model = append(model, x)
		case op == 1:
			v, ok, err := vec.Pop()
			Require(t, err)
			require.True(t, ok)
			require.Equal(t, model[n-1], v.Uint64())
			model = model[:n-1]
		case op == 2:
			i, j := source.GetUint64Below(n), source.GetUint64Below(n)
			Require(t, vec.Swap(i, j))
			model[i], model[j] = model[j], model[i]
		case op == 3:
			i := source.GetUint64Below(n)
			v, err := vec.SwapRemove(i)
			Require(t, err)
			require.Equal(t, model[i], v.Uint64())
			model[i] = model[n-1]
			model = model[:n-1]
		case op == 4:
			i := source.GetUint64Below(n + 1)
			x := source.GetUint64()
			Require(t, vec.InsertAt(i, codec.U64(x)))
			model = append(model[:i], append([]uint64{x}, model[i:]...)...)
		default:
			i := source.GetUint64Below(n)
			v, err := vec.RemoveAt(i)
			Require(t, err)
			require.Equal(t, model[i], v.Uint64())
			model = append(model[:i], model[i+1:]...)
		}
		got := u64s(t, vec)
		if len(model) == 0 {
			require.Empty(t, got, "step %d", step)
		} else {
			require.Equal(t, model, got, "step %d", step)
		}
	}
}
