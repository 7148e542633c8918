// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package codec converts structured values to and from the words of their
// storage slots.
//
// Every word is stored big-endian, so a slot image is the concatenation of its
// four words and a u256 spans a whole slot most significant byte first. This
// matches the byte order used at the call boundary.
package codec

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/offchainlabs/slotcodec/layout"
)

// Value is a concrete value of some shape. The zero Value is the unit value.
//
// Integers and bool keep their number in num. b256, str[N], bytes and string
// keep their contents in data. Arrays, tuples, structs and vectors keep their
// members in items, and an enum keeps its payload as the only item.
type Value struct {
	kind  layout.Kind
	num   uint256.Int
	data  []byte
	items []Value
	tag   uint64
}

func Unit() Value { return Value{} }

func Bool(b bool) Value {
	v := Value{kind: layout.KindBool}
	if b {
		v.num.SetOne()
	}
	return v
}

func uintValue(kind layout.Kind, x uint64) Value {
	v := Value{kind: kind}
	v.num.SetUint64(x)
	return v
}

func U8(x uint8) Value   { return uintValue(layout.KindU8, uint64(x)) }
func U16(x uint16) Value { return uintValue(layout.KindU16, uint64(x)) }
func U32(x uint32) Value { return uintValue(layout.KindU32, uint64(x)) }
func U64(x uint64) Value { return uintValue(layout.KindU64, x) }

func U256(x *uint256.Int) Value {
	v := Value{kind: layout.KindU256}
	v.num.Set(x)
	return v
}

func B256(h common.Hash) Value {
	return Value{kind: layout.KindB256, data: h.Bytes()}
}

// Str is a fixed length str[N] value.
func Str(s string) Value {
	return Value{kind: layout.KindStrArray, data: []byte(s)}
}

func Array(items ...Value) Value  { return Value{kind: layout.KindArray, items: items} }
func Tuple(items ...Value) Value  { return Value{kind: layout.KindTuple, items: items} }
func Struct(items ...Value) Value { return Value{kind: layout.KindStruct, items: items} }
func Vector(items ...Value) Value { return Value{kind: layout.KindVector, items: items} }

func Enum(tag uint64, payload Value) Value {
	return Value{kind: layout.KindEnum, tag: tag, items: []Value{payload}}
}

func None() Value { return Enum(0, Unit()) }
func Some(payload Value) Value { return Enum(1, payload) }

func Bytes(b []byte) Value {
	return Value{kind: layout.KindBytes, data: common.CopyBytes(b)}
}

func String(s string) Value {
	return Value{kind: layout.KindString, data: []byte(s)}
}

// Anchor stands in for a dynamic member read back from storage, whose
// contents are reached through the collections package rather than inline.
func Anchor(kind layout.Kind) Value {
	return Value{kind: kind}
}

func (v Value) Kind() layout.Kind { return v.kind }

func (v Value) Bool() bool { return !v.num.IsZero() }

// Uint64 returns the value of an integer up to 64 bits wide, and the low 64
// bits of a u256.
func (v Value) Uint64() uint64 { return v.num.Uint64() }

func (v Value) U256() *uint256.Int { return new(uint256.Int).Set(&v.num) }

func (v Value) Hash() common.Hash { return common.BytesToHash(v.data) }

func (v Value) Bytes() []byte { return common.CopyBytes(v.data) }

func (v Value) Str() string { return string(v.data) }

func (v Value) Items() []Value { return v.items }

func (v Value) Len() int {
	switch v.kind {
	case layout.KindBytes, layout.KindString, layout.KindStrArray:
		return len(v.data)
	}
	return len(v.items)
}

// Item returns the i-th member of an array, tuple, struct or vector.
func (v Value) Item(i int) Value { return v.items[i] }

func (v Value) Tag() uint64 { return v.tag }

func (v Value) Payload() Value {
	if len(v.items) == 0 {
		return Unit()
	}
	return v.items[0]
}

func (v Value) Equal(other Value) bool {
	if v.kind != other.kind || v.tag != other.tag || !v.num.Eq(&other.num) {
		return false
	}
	if !bytes.Equal(v.data, other.data) || len(v.items) != len(other.items) {
		return false
	}
	for i := range v.items {
		if !v.items[i].Equal(other.items[i]) {
			return false
		}
	}
	return true
}

func (v Value) String() string {
	switch v.kind {
	case layout.KindUnit:
		return "()"
	case layout.KindBool:
		return fmt.Sprint(v.Bool())
	case layout.KindU8, layout.KindU16, layout.KindU32, layout.KindU64, layout.KindU256:
		return v.num.Dec()
	case layout.KindB256:
		return v.Hash().Hex()
	case layout.KindStrArray, layout.KindString:
		return fmt.Sprintf("%q", v.data)
	case layout.KindBytes:
		return fmt.Sprintf("0x%x", v.data)
	case layout.KindEnum:
		return fmt.Sprintf("#%d(%v)", v.tag, v.Payload())
	case layout.KindMap:
		return "map"
	}
	parts := make([]string, len(v.items))
	for i, item := range v.items {
		parts[i] = item.String()
	}
	open, end := "[", "]"
	switch v.kind {
	case layout.KindTuple:
		open, end = "(", ")"
	case layout.KindStruct:
		open, end = "{", "}"
	}
	return open + strings.Join(parts, ", ") + end
}
