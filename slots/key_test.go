// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package slots

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/offchainlabs/slotcodec/util/testhelpers"
)

func TestBaseSlotKnownValues(t *testing.T) {
	d := NewDeriver(Sha256())
	counter := MustParseFieldPath("storage.counter")
	require.Equal(t, common.HexToHash("0x6e3c7b4f69bbff7132c3c3a62883a6868f47b0bc2a7f21605f29038cd9a5e05f"), d.BaseSlot(counter))

	owners := NewFieldPath("owners", "admin", "roles")
	require.Equal(t, "storage::admin::roles.owners", owners.String())
	require.Equal(t, common.HexToHash("0xaef45f9ea149148a59b552191e9cd12b5bc16376b36925db84398410a6968f02"), d.BaseSlot(owners))

	child := d.DeriveChild(d.BaseSlot(counter), IndexBytes(5))
	require.Equal(t, common.HexToHash("0x0f30e507eda3a6b57a96edb8551d64a5f6a024ace6e140002597bedc8591ea48"), child)
}

func TestBaseSlotDeterministic(t *testing.T) {
	for _, hasher := range []Hasher{Sha256(), Keccak256()} {
		d := NewDeriver(hasher)
		path := NewFieldPath("balances", "token")
		first := d.BaseSlot(path)
		second := NewDeriver(hasher).BaseSlot(path)
		if first != second {
			testhelpers.FailImpl(t, "base slot changed between calls", hasher.Version(), first, second)
		}
		if first == d.BaseSlot(NewFieldPath("balances")) {
			testhelpers.FailImpl(t, "namespaced and top-level fields share a slot", hasher.Version())
		}
	}
}

func TestKeccakMatchesGeth(t *testing.T) {
	d := NewDeriver(Keccak256())
	parent := testhelpers.RandomHash()
	suffix := testhelpers.RandomSlice(13)
	require.Equal(t, crypto.Keccak256Hash(parent.Bytes(), suffix), d.DeriveChild(parent, suffix))
}

func TestDeriveChildOrderSensitive(t *testing.T) {
	d := NewDeriver(nil)
	parent := d.BaseSlot(NewFieldPath("v"))
	if d.DeriveChild(parent, []byte("1")) == d.DeriveChild(parent, []byte("01")) {
		t.Fatal("derive_child ignores leading bytes")
	}
	if d.DeriveChild(parent, []byte{1, 2}) == d.DeriveChild(parent, []byte{2, 1}) {
		t.Fatal("derive_child ignores byte order")
	}
}

func TestDeriveChildNoCollisions(t *testing.T) {
	d := NewDeriver(nil)
	key := d.Field(NewFieldPath("items"))
	seen := make(map[common.Hash]uint64)
	seen[key.Slot] = ^uint64(0)
	seen[d.BaseSlot(NewFieldPath("other"))] = ^uint64(0) - 1
	for i := uint64(0); i < 4096; i++ {
		child := d.Element(key, i)
		if child.Slot != child.FieldID {
			t.Fatal("element slot and field id differ", i)
		}
		if prev, ok := seen[child.Slot]; ok {
			t.Fatal("collision between index", i, "and", prev)
		}
		seen[child.Slot] = i
	}
}

func TestSlotAdd(t *testing.T) {
	require.Equal(t, common.HexToHash("0x01"), SlotAdd(common.Hash{}, 1))
	max := common.HexToHash("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	require.Equal(t, common.Hash{}, SlotAdd(max, 1))
	require.Equal(t, common.HexToHash("0x0100000000000000000000000000000000000000000000000000000000000000"),
		SlotAdd(common.HexToHash("0x00ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"), 1))
	h := testhelpers.RandomHash()
	require.Equal(t, h, SlotAdd(h, 0))
}

func TestAtWord(t *testing.T) {
	base := StorageKey{Slot: common.HexToHash("0x10"), Offset: 3, FieldID: common.HexToHash("0xff")}
	require.Equal(t, base, base.AtWord(0))
	next := base.AtWord(1)
	require.Equal(t, common.HexToHash("0x11"), next.Slot)
	require.Equal(t, uint64(0), next.Offset)
	require.Equal(t, base.FieldID, next.FieldID)
	far := base.AtWord(9)
	require.Equal(t, common.HexToHash("0x13"), far.Slot)
	require.Equal(t, uint64(0), far.Offset)
}

func TestParseFieldPath(t *testing.T) {
	cases := map[string]string{
		"counter":                      "storage.counter",
		"storage.counter":              "storage.counter",
		"admin::roles.owners":          "storage::admin::roles.owners",
		"storage::admin::roles.owners": "storage::admin::roles.owners",
	}
	for in, want := range cases {
		p, err := ParseFieldPath(in)
		require.NoError(t, err, in)
		require.Equal(t, want, p.String())
	}
	for _, bad := range []string{"", "storage.", "a::.b", "a::b", "storage::a..b"} {
		_, err := ParseFieldPath(bad)
		require.ErrorIs(t, err, ErrInvalidFieldPath, bad)
	}
}

func TestFieldPathSegmentsAreUnambiguous(t *testing.T) {
	require.Panics(t, func() { NewFieldPath("b", "x.y") })
	require.Panics(t, func() { NewFieldPath("y.b", "x") })
	require.Panics(t, func() { NewFieldPath("a::b") })
	require.Panics(t, func() { NewFieldPath("") })
	require.Panics(t, func() { NewFieldPath("b", "") })

	literal := FieldPath{Namespaces: []string{"x.y"}, Field: "b"}
	require.ErrorIs(t, literal.Validate(), ErrInvalidFieldPath)
	require.NoError(t, NewFieldPath("b", "x", "y").Validate())
}

func TestHasherByName(t *testing.T) {
	h, err := HasherByName("keccak256")
	require.NoError(t, err)
	require.Equal(t, Keccak256Version, h.Version())
	h, err = HasherByName("")
	require.NoError(t, err)
	require.Equal(t, Sha256Version, h.Version())
	_, err = HasherByName("md5")
	require.Error(t, err)
	_, err = HasherForVersion(7)
	require.Error(t, err)
}

func TestSlotAddComposes(t *testing.T) {
	source := testhelpers.NewPseudoRandomDataSource(t, 2)
	for i := 0; i < 256; i++ {
		slot := source.GetHash()
		a, b := source.GetUint64Below(1<<32), source.GetUint64Below(1<<32)
		require.Equal(t, SlotAdd(slot, a+b), SlotAdd(SlotAdd(slot, a), b))
	}
}

func TestDeriveChildRandomSuffixes(t *testing.T) {
	d := NewDeriver(nil)
	source := testhelpers.NewPseudoRandomDataSource(t, 3)
	parent := source.GetHash()
	seen := make(map[common.Hash]string)
	for i := 0; i < 2048; i++ {
		suffix := source.GetData(int(source.GetUint64Below(41)))
		child := d.DeriveChild(parent, suffix)
		if prev, ok := seen[child]; ok && prev != string(suffix) {
			t.Fatal("suffixes", common.Bytes2Hex([]byte(prev)), "and", common.Bytes2Hex(suffix), "derive the same child")
		}
		seen[child] = string(suffix)
	}
}
