// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package codec

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/offchainlabs/slotcodec/layout"
)

// FromJSON parses the tooling representation of a value: JSON booleans,
// numbers or decimal or 0x-prefixed strings for integers, hex strings for
// b256 and bytes, arrays for arrays, tuples and vectors, objects keyed by
// member name for structs, and {"Variant": payload} or "Variant" for enums.
// Maps have no inline contents and are written as null.
func FromJSON(shape *layout.Shape, raw []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree interface{}
	if err := dec.Decode(&tree); err != nil {
		return Value{}, errors.Wrap(err, "parsing value")
	}
	return fromTree("", shape, tree)
}

func badJSON(path string, shape *layout.Shape, tree interface{}) error {
	if path == "" {
		path = "value"
	}
	return errors.Wrapf(ErrShapeMismatch, "%s: cannot read %v from %T", path, shape, tree)
}

func parseUint(tree interface{}) (*uint256.Int, bool) {
	var text string
	switch t := tree.(type) {
	case json.Number:
		text = t.String()
	case string:
		text = t
	default:
		return nil, false
	}
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		b, ok := new(big.Int).SetString(text[2:], 16)
		if !ok || b.Sign() < 0 {
			return nil, false
		}
		x, overflow := uint256.FromBig(b)
		return x, !overflow
	}
	x, err := uint256.FromDecimal(text)
	return x, err == nil
}

func fromTree(path string, shape *layout.Shape, tree interface{}) (Value, error) {
	switch shape.Kind {
	case layout.KindUnit:
		return Unit(), nil
	case layout.KindBool:
		b, ok := tree.(bool)
		if !ok {
			return Value{}, badJSON(path, shape, tree)
		}
		return Bool(b), nil
	case layout.KindU8, layout.KindU16, layout.KindU32, layout.KindU64, layout.KindU256:
		x, ok := parseUint(tree)
		if !ok {
			return Value{}, badJSON(path, shape, tree)
		}
		v := Value{kind: shape.Kind}
		v.num.Set(x)
		if limit, narrow := narrowLimits[shape.Kind]; shape.Kind != layout.KindU256 && (!x.IsUint64() || (narrow && x.Uint64() > limit)) {
			return Value{}, errors.Wrapf(ErrShapeMismatch, "%s: %v does not fit %v", path, x, shape)
		}
		return v, nil
	case layout.KindB256, layout.KindBytes:
		s, ok := tree.(string)
		if !ok {
			return Value{}, badJSON(path, shape, tree)
		}
		b, err := hexutil.Decode(s)
		if err != nil {
			return Value{}, errors.Wrapf(err, "%s", path)
		}
		if shape.Kind == layout.KindBytes {
			return Bytes(b), nil
		}
		if len(b) != common.HashLength {
			return Value{}, errors.Wrapf(ErrShapeMismatch, "%s: %d bytes for b256", path, len(b))
		}
		return B256(common.BytesToHash(b)), nil
	case layout.KindStrArray, layout.KindString:
		s, ok := tree.(string)
		if !ok {
			return Value{}, badJSON(path, shape, tree)
		}
		if shape.Kind == layout.KindString {
			return String(s), nil
		}
		v := Str(s)
		return v, Check(shape, v)
	case layout.KindArray, layout.KindTuple, layout.KindVector:
		list, ok := tree.([]interface{})
		if !ok {
			return Value{}, badJSON(path, shape, tree)
		}
		items := make([]Value, len(list))
		for i, elem := range list {
			member := shape.Elem
			if shape.Kind == layout.KindTuple {
				if i >= len(shape.Fields) {
					return Value{}, errors.Wrapf(ErrShapeMismatch, "%s: too many tuple elements", path)
				}
				member = shape.Fields[i].Shape
			}
			var err error
			items[i], err = fromTree(indexPath(path, i), member, elem)
			if err != nil {
				return Value{}, err
			}
		}
		v := Value{kind: shape.Kind, items: items}
		return v, Check(shape, v)
	case layout.KindStruct:
		obj, ok := tree.(map[string]interface{})
		if !ok {
			return Value{}, badJSON(path, shape, tree)
		}
		if len(obj) != len(shape.Fields) {
			return Value{}, errors.Wrapf(ErrShapeMismatch, "%s: %d members for %v", path, len(obj), shape)
		}
		items := make([]Value, len(shape.Fields))
		for i, f := range shape.Fields {
			member, ok := obj[f.Name]
			if !ok {
				return Value{}, errors.Wrapf(ErrShapeMismatch, "%s: missing member %s", path, f.Name)
			}
			var err error
			items[i], err = fromTree(joinPath(path, f.Name), f.Shape, member)
			if err != nil {
				return Value{}, err
			}
		}
		return Struct(items...), nil
	case layout.KindEnum:
		var name string
		var payload interface{}
		switch t := tree.(type) {
		case string:
			name = t
		case map[string]interface{}:
			if len(t) != 1 {
				return Value{}, errors.Wrapf(ErrShapeMismatch, "%s: enum needs exactly one variant", path)
			}
			for k, p := range t {
				name, payload = k, p
			}
		default:
			return Value{}, badJSON(path, shape, tree)
		}
		tag, ok := shape.VariantIndex(name)
		if !ok {
			return Value{}, errors.Wrapf(ErrUnknownVariant, "%s: %s", path, name)
		}
		inner, err := fromTree(joinPath(path, name), shape.Fields[tag].Shape, payload)
		if err != nil {
			return Value{}, err
		}
		return Enum(uint64(tag), inner), nil
	case layout.KindMap:
		if tree != nil {
			return Value{}, errors.Wrapf(ErrShapeMismatch, "%s: maps have no inline contents", path)
		}
		return Anchor(layout.KindMap), nil
	}
	return Value{}, errors.Wrapf(ErrShapeMismatch, "%s: %v has no JSON form", path, shape)
}

// ToJSON renders v in the form FromJSON reads. Struct members keep their
// declaration order and u256 values are written as decimal strings.
func ToJSON(shape *layout.Shape, v Value) ([]byte, error) {
	if err := Check(shape, v); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeJSON(&buf, shape, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeLeaf(buf *bytes.Buffer, leaf interface{}) error {
	enc, err := json.Marshal(leaf)
	if err != nil {
		return err
	}
	buf.Write(enc)
	return nil
}

func writeJSON(buf *bytes.Buffer, shape *layout.Shape, v Value) error {
	switch shape.Kind {
	case layout.KindUnit, layout.KindMap:
		buf.WriteString("null")
		return nil
	case layout.KindBool:
		return writeLeaf(buf, v.Bool())
	case layout.KindU8, layout.KindU16, layout.KindU32, layout.KindU64:
		return writeLeaf(buf, v.Uint64())
	case layout.KindU256:
		return writeLeaf(buf, v.num.Dec())
	case layout.KindB256, layout.KindBytes:
		return writeLeaf(buf, hexutil.Encode(v.data))
	case layout.KindStrArray, layout.KindString:
		return writeLeaf(buf, string(v.data))
	case layout.KindArray, layout.KindTuple, layout.KindVector:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			member := shape.Elem
			if shape.Kind == layout.KindTuple {
				member = shape.Fields[i].Shape
			}
			if err := writeJSON(buf, member, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case layout.KindStruct:
		buf.WriteByte('{')
		for i, f := range shape.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeLeaf(buf, f.Name); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, f.Shape, v.items[i]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case layout.KindEnum:
		variant := shape.Fields[v.tag]
		if variant.Shape.Kind == layout.KindUnit {
			return writeLeaf(buf, variant.Name)
		}
		buf.WriteByte('{')
		if err := writeLeaf(buf, variant.Name); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeJSON(buf, variant.Shape, v.Payload()); err != nil {
			return err
		}
		buf.WriteByte('}')
		return nil
	}
	return errors.Wrapf(ErrShapeMismatch, "%v has no JSON form", shape)
}
