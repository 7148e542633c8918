// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package abi encodes values at the contract call boundary and reads the JSON
// ABI that describes a program's types, functions, logs and configurables.
//
// The encoding has no padding and no offsets. Integers are big-endian in their
// natural width (bool and u8 take one byte), str[N] is its N raw bytes,
// composites are the concatenation of their members, an enum is its u64
// discriminant followed by the selected variant's payload, and vectors, bytes
// and strings are a u64 length followed by their contents.
package abi

import (
	"encoding/binary"
	"fmt"

	"github.com/ccoveille/go-safecast"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/offchainlabs/slotcodec/codec"
	"github.com/offchainlabs/slotcodec/layout"
)

var ErrNotEncodable = errors.New("type has no call boundary encoding")

const LengthSize = 8

var widths = map[layout.Kind]int{
	layout.KindBool: 1,
	layout.KindU8:   1,
	layout.KindU16:  2,
	layout.KindU32:  4,
	layout.KindU64:  8,
	layout.KindU256: 32,
	layout.KindB256: 32,
}

// Encode returns the call boundary encoding of v.
func Encode(shape *layout.Shape, v codec.Value) ([]byte, error) {
	return AppendEncoded(nil, shape, v)
}

// AppendEncoded appends the encoding of v to out.
func AppendEncoded(out []byte, shape *layout.Shape, v codec.Value) ([]byte, error) {
	if err := codec.Check(shape, v); err != nil {
		return nil, err
	}
	return appendValue(out, "", shape, v)
}

func appendValue(out []byte, path string, shape *layout.Shape, v codec.Value) ([]byte, error) {
	switch shape.Kind {
	case layout.KindUnit:
		return out, nil
	case layout.KindBool, layout.KindU8, layout.KindU16, layout.KindU32, layout.KindU64, layout.KindU256:
		width := widths[shape.Kind]
		x := v.U256()
		if x.BitLen() > 8*width {
			return nil, errors.Wrapf(codec.ErrIntegerOverflow, "%s: %v does not fit %v", describe(path), x.Dec(), shape)
		}
		be := x.Bytes32()
		return append(out, be[32-width:]...), nil
	case layout.KindB256:
		h := v.Hash()
		return append(out, h[:]...), nil
	case layout.KindStrArray:
		return append(out, v.Str()...), nil
	case layout.KindArray, layout.KindTuple, layout.KindStruct:
		var err error
		for i, item := range v.Items() {
			out, err = appendValue(out, memberPath(path, shape, i), memberShape(shape, i), item)
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	case layout.KindEnum:
		out = binary.BigEndian.AppendUint64(out, v.Tag())
		variant := shape.Fields[v.Tag()]
		return appendValue(out, joinPath(path, variant.Name), variant.Shape, v.Payload())
	case layout.KindVector:
		out = binary.BigEndian.AppendUint64(out, uint64(v.Len()))
		var err error
		for i, item := range v.Items() {
			out, err = appendValue(out, fmt.Sprintf("%s[%d]", path, i), shape.Elem, item)
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	case layout.KindBytes, layout.KindString:
		data := v.Bytes()
		out = binary.BigEndian.AppendUint64(out, uint64(len(data)))
		return append(out, data...), nil
	}
	return nil, errors.Wrapf(ErrNotEncodable, "%s: %v", describe(path), shape)
}

// Decode reads a value that must span all of data.
func Decode(shape *layout.Shape, data []byte) (codec.Value, error) {
	v, n, err := DecodePrefix(shape, data)
	if err != nil {
		return codec.Value{}, err
	}
	if n != len(data) {
		return codec.Value{}, codec.NewDecodeError("", uint64(n), errors.Wrapf(codec.ErrTrailingBytes, "%d bytes left", len(data)-n))
	}
	return v, nil
}

// DecodePrefix reads a value from the start of data and returns how many bytes
// it took.
func DecodePrefix(shape *layout.Shape, data []byte) (codec.Value, int, error) {
	d := &decoder{data: data}
	v, err := d.value("", shape)
	if err != nil {
		return codec.Value{}, 0, err
	}
	return v, d.pos, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) fail(path string, err error) error {
	return codec.NewDecodeError(path, uint64(d.pos), err)
}

func (d *decoder) take(path string, n int) ([]byte, error) {
	if n < 0 || n > len(d.data)-d.pos {
		return nil, d.fail(path, errors.Wrapf(codec.ErrShortInput, "need %d bytes, have %d", n, len(d.data)-d.pos))
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) length(path string) (int, error) {
	b, err := d.take(path, LengthSize)
	if err != nil {
		return 0, err
	}
	n, err := safecast.ToInt(binary.BigEndian.Uint64(b))
	if err != nil {
		d.pos -= LengthSize
		return 0, d.fail(path, errors.Wrapf(codec.ErrShortInput, "length %d exceeds the input", binary.BigEndian.Uint64(b)))
	}
	return n, nil
}

func (d *decoder) value(path string, shape *layout.Shape) (codec.Value, error) {
	switch shape.Kind {
	case layout.KindUnit:
		return codec.Unit(), nil
	case layout.KindBool:
		b, err := d.take(path, 1)
		if err != nil {
			return codec.Value{}, err
		}
		if b[0] > 1 {
			d.pos--
			return codec.Value{}, d.fail(path, errors.Wrapf(codec.ErrInvalidBool, "byte %d", b[0]))
		}
		return codec.Bool(b[0] == 1), nil
	case layout.KindU8, layout.KindU16, layout.KindU32, layout.KindU64:
		b, err := d.take(path, widths[shape.Kind])
		if err != nil {
			return codec.Value{}, err
		}
		var x uint64
		for _, c := range b {
			x = x<<8 | uint64(c)
		}
		switch shape.Kind {
		case layout.KindU8:
			return codec.U8(uint8(x)), nil
		case layout.KindU16:
			return codec.U16(uint16(x)), nil
		case layout.KindU32:
			return codec.U32(uint32(x)), nil
		}
		return codec.U64(x), nil
	case layout.KindU256:
		b, err := d.take(path, 32)
		if err != nil {
			return codec.Value{}, err
		}
		return codec.U256(new(uint256.Int).SetBytes32(b)), nil
	case layout.KindB256:
		b, err := d.take(path, 32)
		if err != nil {
			return codec.Value{}, err
		}
		return codec.B256(common.BytesToHash(b)), nil
	case layout.KindStrArray:
		n, err := safecast.ToInt(shape.Len)
		if err != nil {
			return codec.Value{}, d.fail(path, errors.Wrapf(codec.ErrShortInput, "str[%d]", shape.Len))
		}
		b, err := d.take(path, n)
		if err != nil {
			return codec.Value{}, err
		}
		return codec.Str(string(b)), nil
	case layout.KindArray, layout.KindTuple, layout.KindStruct:
		count := len(shape.Fields)
		if shape.Kind == layout.KindArray {
			n, err := safecast.ToInt(shape.Len)
			if err != nil {
				return codec.Value{}, d.fail(path, errors.Wrapf(codec.ErrShortInput, "array of %d elements", shape.Len))
			}
			count = n
			if size, ok := EncodedSize(shape); ok && size > len(d.data)-d.pos {
				return codec.Value{}, d.fail(path, errors.Wrapf(codec.ErrShortInput, "need %d bytes, have %d", size, len(d.data)-d.pos))
			}
		}
		items := make([]codec.Value, 0, min(count, len(d.data)-d.pos+1))
		for i := 0; i < count; i++ {
			item, err := d.value(memberPath(path, shape, i), memberShape(shape, i))
			if err != nil {
				return codec.Value{}, err
			}
			items = append(items, item)
		}
		switch shape.Kind {
		case layout.KindArray:
			return codec.Array(items...), nil
		case layout.KindTuple:
			return codec.Tuple(items...), nil
		}
		return codec.Struct(items...), nil
	case layout.KindEnum:
		b, err := d.take(path, 8)
		if err != nil {
			return codec.Value{}, err
		}
		tag := binary.BigEndian.Uint64(b)
		if tag >= uint64(len(shape.Fields)) {
			d.pos -= 8
			return codec.Value{}, d.fail(path, errors.Wrapf(codec.ErrUnknownVariant, "tag %d of %d variants of %v", tag, len(shape.Fields), shape))
		}
		variant := shape.Fields[tag]
		payload, err := d.value(joinPath(path, variant.Name), variant.Shape)
		if err != nil {
			return codec.Value{}, err
		}
		return codec.Enum(tag, payload), nil
	case layout.KindVector:
		n, err := d.length(path)
		if err != nil {
			return codec.Value{}, err
		}
		remaining := len(d.data) - d.pos
		size, fixed := EncodedSize(shape.Elem)
		if (fixed && size > 0 && n > remaining/size) || (size == 0 && uint64(n) > layout.MaxWords) {
			d.pos -= LengthSize
			return codec.Value{}, d.fail(path, errors.Wrapf(codec.ErrShortInput, "%d elements exceed the input", n))
		}
		items := make([]codec.Value, 0, min(n, remaining+1))
		for i := 0; i < n; i++ {
			item, err := d.value(fmt.Sprintf("%s[%d]", path, i), shape.Elem)
			if err != nil {
				return codec.Value{}, err
			}
			items = append(items, item)
		}
		return codec.Vector(items...), nil
	case layout.KindBytes, layout.KindString:
		n, err := d.length(path)
		if err != nil {
			return codec.Value{}, err
		}
		b, err := d.take(path, n)
		if err != nil {
			return codec.Value{}, err
		}
		if shape.Kind == layout.KindString {
			return codec.String(string(b)), nil
		}
		return codec.Bytes(common.CopyBytes(b)), nil
	}
	return codec.Value{}, errors.Wrapf(ErrNotEncodable, "%s: %v", describe(path), shape)
}

func memberShape(shape *layout.Shape, i int) *layout.Shape {
	if shape.Kind == layout.KindArray {
		return shape.Elem
	}
	return shape.Fields[i].Shape
}

func memberPath(path string, shape *layout.Shape, i int) string {
	switch shape.Kind {
	case layout.KindArray:
		return fmt.Sprintf("%s[%d]", path, i)
	case layout.KindTuple:
		return joinPath(path, fmt.Sprint(i))
	}
	return joinPath(path, shape.Fields[i].Name)
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func describe(path string) string {
	if path == "" {
		return "value"
	}
	return path
}

// EncodedSize returns the size of the encoding of every value of a shape, or
// false when the size depends on the value.
func EncodedSize(shape *layout.Shape) (int, bool) {
	switch shape.Kind {
	case layout.KindUnit:
		return 0, true
	case layout.KindBool, layout.KindU8, layout.KindU16, layout.KindU32, layout.KindU64, layout.KindU256, layout.KindB256:
		return widths[shape.Kind], true
	case layout.KindStrArray:
		n, err := safecast.ToInt(shape.Len)
		return n, err == nil
	case layout.KindArray:
		elem, ok := EncodedSize(shape.Elem)
		n, err := safecast.ToInt(shape.Len)
		if !ok || err != nil || (elem != 0 && n > (1<<31)/elem) {
			return 0, false
		}
		return elem * n, true
	case layout.KindTuple, layout.KindStruct:
		total := 0
		for _, f := range shape.Fields {
			size, ok := EncodedSize(f.Shape)
			if !ok {
				return 0, false
			}
			total += size
		}
		return total, true
	case layout.KindEnum:
		var payload int
		for i, f := range shape.Fields {
			size, ok := EncodedSize(f.Shape)
			if !ok || (i > 0 && size != payload) {
				return 0, false
			}
			payload = size
		}
		return 8 + payload, true
	}
	return 0, false
}
