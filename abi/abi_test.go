// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package abi

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/go-cmp/cmp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/offchainlabs/slotcodec/codec"
	"github.com/offchainlabs/slotcodec/layout"
	"github.com/offchainlabs/slotcodec/storage"
	"github.com/offchainlabs/slotcodec/util/testhelpers"
)

func Require(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	testhelpers.RequireImpl(t, err, printables...)
}

func loadTestABI(t *testing.T) *ProgramABI {
	t.Helper()
	abi, err := LoadProgramABI("testdata/program-abi.json")
	Require(t, err)
	return abi
}

var pointShape = layout.Struct("Point", layout.F("x", layout.U64()), layout.F("y", layout.U64()))

func TestEncodePrimitives(t *testing.T) {
	max256 := new(uint256.Int).SetAllOne()
	cases := []struct {
		shape    *layout.Shape
		value    codec.Value
		expected string
	}{
		{layout.Unit(), codec.Unit(), "0x"},
		{layout.Bool(), codec.Bool(true), "0x01"},
		{layout.Bool(), codec.Bool(false), "0x00"},
		{layout.U8(), codec.U8(0xab), "0xab"},
		{layout.U16(), codec.U16(0x0102), "0x0102"},
		{layout.U32(), codec.U32(0x01020304), "0x01020304"},
		{layout.U64(), codec.U64(1), "0x0000000000000001"},
		{layout.U256(), codec.U256(uint256.NewInt(1)), "0x" + strings.Repeat("0", 62) + "01"},
		{layout.U256(), codec.U256(max256), hexutil.Encode(bytes.Repeat([]byte{0xff}, 32))},
		{layout.B256(), codec.B256(common.HexToHash("0xbeef")), common.HexToHash("0xbeef").Hex()},
		{layout.StrArray(4), codec.Str("abcd"), "0x61626364"},
	}
	for _, c := range cases {
		encoded, err := Encode(c.shape, c.value)
		Require(t, err, c.shape)
		require.Equal(t, c.expected, hexutil.Encode(encoded), "%v", c.shape)
		decoded, err := Decode(c.shape, encoded)
		Require(t, err, c.shape)
		require.True(t, c.value.Equal(decoded), "%v decoded to %v", c.shape, decoded)
	}
}

func TestEncodeComposites(t *testing.T) {
	cases := []struct {
		shape    *layout.Shape
		value    codec.Value
		expected string
	}{
		{pointShape, codec.Struct(codec.U64(1), codec.U64(2)), "0x00000000000000010000000000000002"},
		{layout.Tuple(layout.Bool(), layout.U16()), codec.Tuple(codec.Bool(true), codec.U16(7)), "0x010007"},
		{layout.Array(layout.U8(), 3), codec.Array(codec.U8(1), codec.U8(2), codec.U8(3)), "0x010203"},
		{layout.Option(layout.U64()), codec.Some(codec.U64(5)), "0x00000000000000010000000000000005"},
		{layout.Option(layout.U64()), codec.None(), "0x0000000000000000"},
		{layout.Vector(layout.U8()), codec.Vector(codec.U8(1), codec.U8(2), codec.U8(3)), "0x0000000000000003010203"},
		{layout.Vector(layout.U16()), codec.Vector(), "0x0000000000000000"},
		{layout.Bytes(), codec.Bytes([]byte{0xca, 0xfe}), "0x0000000000000002cafe"},
		{layout.String(), codec.String("hi"), "0x00000000000000026869"},
	}
	for _, c := range cases {
		encoded, err := Encode(c.shape, c.value)
		Require(t, err, c.shape)
		require.Equal(t, c.expected, hexutil.Encode(encoded), "%v", c.shape)
		decoded, err := Decode(c.shape, encoded)
		Require(t, err, c.shape)
		require.True(t, c.value.Equal(decoded), "%v decoded to %v", c.shape, decoded)
	}

	_, err := Encode(layout.Map(layout.U64(), layout.U64()), codec.Anchor(layout.KindMap))
	require.ErrorIs(t, err, ErrNotEncodable)
	_, err = Decode(layout.Map(layout.U64(), layout.U64()), nil)
	require.ErrorIs(t, err, ErrNotEncodable)
	_, err = Encode(layout.U8(), codec.U64(1))
	require.ErrorIs(t, err, codec.ErrShapeMismatch)
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		shape    *layout.Shape
		data     []byte
		expected error
		offset   uint64
	}{
		{layout.U64(), []byte{1, 2, 3}, codec.ErrShortInput, 0},
		{pointShape, make([]byte, 12), codec.ErrShortInput, 8},
		{layout.Bool(), []byte{2}, codec.ErrInvalidBool, 0},
		{layout.Tuple(layout.U8(), layout.Bool()), []byte{0, 7}, codec.ErrInvalidBool, 1},
		{layout.Option(layout.U8()), []byte{0, 0, 0, 0, 0, 0, 0, 2, 1}, codec.ErrUnknownVariant, 0},
		{layout.U8(), []byte{1, 2}, codec.ErrTrailingBytes, 1},
		{layout.Vector(layout.U64()), []byte{0, 0, 0, 0, 0, 0, 0, 2, 1}, codec.ErrShortInput, 0},
		{layout.Vector(layout.Bool()), []byte{0, 0, 0, 0, 0, 0, 0, 2, 1, 3}, codec.ErrInvalidBool, 9},
		{layout.Bytes(), []byte{0xff, 0, 0, 0, 0, 0, 0, 0}, codec.ErrShortInput, 0},
		{layout.Array(layout.U256(), 1 << 40), nil, codec.ErrShortInput, 0},
	}
	for _, c := range cases {
		_, err := Decode(c.shape, c.data)
		require.ErrorIs(t, err, c.expected, "%v", c.shape)
		require.True(t, codec.IsDecodeError(err))
		var decodeErr *codec.DecodeError
		require.ErrorAs(t, err, &decodeErr)
		require.Equal(t, c.offset, decodeErr.Offset, "%v: %v", c.shape, err)
	}
}

func TestEncodedSize(t *testing.T) {
	size, ok := EncodedSize(pointShape)
	require.True(t, ok)
	require.Equal(t, 16, size)
	_, ok = EncodedSize(layout.Option(layout.U8()))
	require.False(t, ok)
	size, ok = EncodedSize(layout.Enum("E", layout.F("A", layout.U8()), layout.F("B", layout.Bool())))
	require.True(t, ok)
	require.Equal(t, 9, size)
	_, ok = EncodedSize(layout.Tuple(layout.U8(), layout.String()))
	require.False(t, ok)
}

func TestRandomRoundTrips(t *testing.T) {
	shape := layout.Struct("Record",
		layout.F("id", layout.B256()),
		layout.F("amount", layout.U256()),
		layout.F("flags", layout.Array(layout.Bool(), 4)),
		layout.F("memo", layout.Bytes()),
		layout.F("owner", layout.Option(layout.U64())),
	)
	for i := 0; i < 50; i++ {
		flags := make([]codec.Value, 4)
		for j := range flags {
			flags[j] = codec.Bool(testhelpers.RandomBool())
		}
		owner := codec.None()
		if testhelpers.RandomBool() {
			owner = codec.Some(codec.U64(testhelpers.RandomUint64(0, 1<<62)))
		}
		v := codec.Struct(
			codec.B256(testhelpers.RandomHash()),
			codec.U256(testhelpers.RandomUint256()),
			codec.Array(flags...),
			codec.Bytes(testhelpers.RandomSlice(testhelpers.RandomUint64(0, 70))),
			owner,
		)
		encoded, err := Encode(shape, v)
		Require(t, err)
		decoded, err := Decode(shape, encoded)
		Require(t, err)
		if d := cmp.Diff(v, decoded); d != "" {
			t.Fatal("round trip:", d)
		}
	}
}

func TestResolveTypes(t *testing.T) {
	abi := loadTestABI(t)
	require.Equal(t, "contract", abi.ProgramType)

	maybe, err := abi.Function("maybe")
	Require(t, err)
	inputs, err := abi.InputShapes(maybe)
	Require(t, err)
	if d := cmp.Diff(layout.Option(layout.U64()), inputs[0]); d != "" {
		t.Fatal("Option<u64>:", d)
	}
	output, err := abi.Resolve(maybe.Output)
	Require(t, err)
	if d := cmp.Diff(layout.Vector(layout.U8()), output); d != "" {
		t.Fatal("Vec<u8>:", d)
	}

	name, err := abi.Function("name")
	Require(t, err)
	output, err = abi.Resolve(name.Output)
	Require(t, err)
	require.Equal(t, layout.KindString, output.Kind)

	figure, err := abi.ResolveID(14)
	Require(t, err)
	expected := layout.Enum("Figure",
		layout.F("Dot", pointShape),
		layout.F("Circle", layout.Tuple(layout.Bool(), layout.U64())),
		layout.F("Colors", layout.Array(layout.U8(), 3)),
	)
	if d := cmp.Diff(expected, figure); d != "" {
		t.Fatal("enum Figure:", d)
	}

	_, err = abi.ResolveID(7)
	require.ErrorIs(t, err, ErrNotEncodable)
	_, err = abi.ResolveID(99)
	require.ErrorIs(t, err, ErrUnknownType)
	_, err = abi.Function("missing")
	require.ErrorIs(t, err, ErrUnknownFunction)

	_, err = ParseProgramABI([]byte(`{"types": [{"typeId": 0, "type": "struct A", "components": [{"name": "a", "type": 1}]}]}`))
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestStorageAccess(t *testing.T) {
	abi := loadTestABI(t)
	cases := map[string][3]bool{
		"move_point": {true, true, false},
		"maybe":      {false, false, false},
		"name":       {true, false, true},
	}
	for name, expected := range cases {
		f, err := abi.Function(name)
		Require(t, err)
		read, write := f.StorageAccess()
		require.Equal(t, expected, [3]bool{read, write, f.IsPayable()}, name)
	}
}

func TestCalls(t *testing.T) {
	abi := loadTestABI(t)
	move, err := abi.Function("move_point")
	Require(t, err)
	args := []codec.Value{codec.Struct(codec.U64(1), codec.U64(2)), codec.U64(3)}
	encoded, err := abi.EncodeArgs(move, args...)
	Require(t, err)
	require.Equal(t, "0x000000000000000100000000000000020000000000000003", hexutil.Encode(encoded))

	decoded, err := abi.DecodeArgs(move, encoded)
	Require(t, err)
	require.Len(t, decoded, 2)
	for i := range args {
		require.True(t, args[i].Equal(decoded[i]))
	}
	_, err = abi.DecodeArgs(move, append(encoded, 0))
	require.ErrorIs(t, err, codec.ErrTrailingBytes)
	_, err = abi.EncodeArgs(move, args[0])
	require.ErrorIs(t, err, ErrArgumentCount)

	fromJSON, err := abi.ArgsFromJSON(move, []byte(`[{"x": 1, "y": "0x2"}, "3"]`))
	Require(t, err)
	for i := range args {
		require.True(t, args[i].Equal(fromJSON[i]))
	}

	classify, err := abi.Function("classify")
	Require(t, err)
	figureArgs, err := abi.ArgsFromJSON(classify, []byte(`[{"Circle": [true, 9]}]`))
	Require(t, err)
	encoded, err = abi.EncodeArgs(classify, figureArgs...)
	Require(t, err)
	require.Equal(t, "0x0000000000000001"+"01"+"0000000000000009", hexutil.Encode(encoded))

	out, err := abi.DecodeOutput(classify, []byte("dots"))
	Require(t, err)
	require.Equal(t, "dots", out.Str())
	_, err = abi.DecodeOutput(classify, []byte("dot"))
	require.ErrorIs(t, err, codec.ErrShortInput)
}

func TestLogs(t *testing.T) {
	abi := loadTestABI(t)
	data, err := Encode(pointShape, codec.Struct(codec.U64(4), codec.U64(5)))
	Require(t, err)
	v, shape, err := abi.DecodeLog("1234", data)
	Require(t, err)
	require.Equal(t, "Point", shape.Name)
	require.Equal(t, uint64(5), v.Item(1).Uint64())

	v, _, err = abi.DecodeLog("0", append([]byte{0, 0, 0, 0, 0, 0, 0, 0}, data...))
	Require(t, err)
	require.Equal(t, uint64(0), v.Tag())
	_, _, err = abi.DecodeLog("7", data)
	require.ErrorIs(t, err, ErrUnknownName)
	require.Equal(t, ID("0"), abi.MessagesTypes[0].MessageID)
}

func TestConfigurables(t *testing.T) {
	abi := loadTestABI(t)
	admin := testhelpers.RandomHash()
	binary := make([]byte, 60)
	copy(binary[8:], []byte{0, 0, 0, 0, 0, 0, 0, 42})
	copy(binary[16:], "gold")
	copy(binary[20:], admin[:])

	values, err := abi.ReadConfigurables(binary)
	Require(t, err)
	require.Len(t, values, 3)
	require.Equal(t, "FEE", values[0].Name)
	require.Equal(t, uint64(42), values[0].Value.Uint64())
	require.Equal(t, "gold", values[1].Value.Str())
	require.Equal(t, admin, values[2].Value.Hash())

	updated, err := abi.WriteConfigurable(binary, "FEE", codec.U64(99))
	Require(t, err)
	require.Equal(t, uint64(42), values[0].Value.Uint64())
	values, err = abi.ReadConfigurables(updated)
	Require(t, err)
	require.Equal(t, uint64(99), values[0].Value.Uint64())
	require.Equal(t, binary[16:], updated[16:])

	_, err = abi.WriteConfigurable(binary, "TAG", codec.Str("silver"))
	require.ErrorIs(t, err, codec.ErrShapeMismatch)
	_, err = abi.WriteConfigurable(binary, "NOPE", codec.U64(1))
	require.ErrorIs(t, err, ErrUnknownName)
	_, err = abi.ReadConfigurables(binary[:30])
	require.ErrorIs(t, err, codec.ErrShortInput)
}

func TestParseType(t *testing.T) {
	named := map[string]*layout.Shape{"Point": pointShape}
	entry := layout.Vector(layout.Tuple(layout.U64(), layout.Bool()))
	cases := map[string]*layout.Shape{
		"u64":                         layout.U64(),
		"()":                          layout.Unit(),
		"str[4]":                      layout.StrArray(4),
		"[u8; 32]":                    layout.Array(layout.U8(), 32),
		"(u64, bool)":                 layout.Tuple(layout.U64(), layout.Bool()),
		"Option<Point>":               layout.Option(pointShape),
		"Vec<b256>":                   layout.Vector(layout.B256()),
		"StorageString":               layout.String(),
		"std::bytes::Bytes":           layout.Bytes(),
		"StorageVec<StorageVec<u64>>": layout.Vector(layout.Vector(layout.U64())),
		"StorageMap<b256, StorageVec<(u64, bool)>>": layout.Map(layout.B256(), entry),
	}
	for expr, expected := range cases {
		shape, err := ParseType(expr, named)
		Require(t, err, expr)
		if d := cmp.Diff(expected, shape); d != "" {
			t.Fatal(expr, d)
		}
	}
	for _, expr := range []string{"f32", "Vec<u8", "[u8; x]", "u64 u64", "Point<u8>", "", "(u8,"} {
		_, err := ParseType(expr, named)
		require.ErrorIs(t, err, layout.ErrInvalidShape, expr)
	}
}

func TestTypeResolverReadsSchemas(t *testing.T) {
	abi := loadTestABI(t)
	resolve, err := abi.TypeResolver()
	Require(t, err)
	schema, err := storage.ParseSchema([]byte(`{"fields": [
		{"path": "storage.origin", "type": "Point", "value": {"x": 1, "y": 2}},
		{"path": "storage.figures", "type": "StorageMap<u64, Figure>"}
	]}`), resolve)
	Require(t, err)
	require.Len(t, schema.Declarations, 2)
	slots, err := storage.InitialSlots(schema)
	Require(t, err)
	require.Len(t, slots, 1)
}
