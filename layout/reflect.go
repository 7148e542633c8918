// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package layout

import (
	"reflect"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/structtag"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// SlotTag is the struct tag consulted by ShapeOf. `slot:"name"` renames a
// field, `slot:"-"` skips it and `slot:"name,str"` stores a byte array as
// str[N] rather than [u8; N].
const SlotTag = "slot"

var (
	hashType    = reflect.TypeOf(common.Hash{})
	addressType = reflect.TypeOf(common.Address{})
	u256Type    = reflect.TypeOf(uint256.Int{})
)

// ShapeOf derives a shape from a Go type. Pointers become Option, slices
// become vectors and maps become storage maps. Recursive types produce
// recursive shapes; whether those are plannable is up to Plan.
func ShapeOf(t reflect.Type) (*Shape, error) {
	return shapeOf(t, make(map[reflect.Type]*Shape))
}

func shapeOf(t reflect.Type, seen map[reflect.Type]*Shape) (*Shape, error) {
	if s, ok := seen[t]; ok {
		return s, nil
	}
	switch t {
	case hashType:
		return B256(), nil
	case u256Type:
		return U256(), nil
	case addressType:
		return Array(U8(), common.AddressLength), nil
	}
	switch t.Kind() {
	case reflect.Bool:
		return Bool(), nil
	case reflect.Uint8:
		return U8(), nil
	case reflect.Uint16:
		return U16(), nil
	case reflect.Uint32:
		return U32(), nil
	case reflect.Uint64, reflect.Uint:
		return U64(), nil
	case reflect.String:
		return String(), nil
	case reflect.Array:
		elem, err := shapeOf(t.Elem(), seen)
		if err != nil {
			return nil, err
		}
		return Array(elem, uint64(t.Len())), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return Bytes(), nil
		}
		elem, err := shapeOf(t.Elem(), seen)
		if err != nil {
			return nil, err
		}
		return Vector(elem), nil
	case reflect.Map:
		key, err := shapeOf(t.Key(), seen)
		if err != nil {
			return nil, err
		}
		value, err := shapeOf(t.Elem(), seen)
		if err != nil {
			return nil, err
		}
		return Map(key, value), nil
	case reflect.Pointer:
		if t.Elem() == u256Type {
			return U256(), nil
		}
		option := &Shape{Kind: KindEnum, Name: "Option"}
		seen[t] = option
		inner, err := shapeOf(t.Elem(), seen)
		if err != nil {
			return nil, err
		}
		option.Fields = []Field{F("None", Unit()), F("Some", inner)}
		return option, nil
	case reflect.Struct:
		return structShape(t, seen)
	}
	return nil, errors.Wrapf(ErrInvalidShape, "no storage shape for %v", t)
}

func structShape(t reflect.Type, seen map[reflect.Type]*Shape) (*Shape, error) {
	shape := &Shape{Kind: KindStruct, Name: t.Name()}
	seen[t] = shape
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		str := false
		tags, err := structtag.Parse(string(f.Tag))
		if err != nil {
			return nil, errors.Wrapf(err, "field %s of %v", f.Name, t)
		}
		if tags == nil {
			return nil, errors.Wrapf(ErrInvalidShape, "field %s of %v: malformed tag", f.Name, t)
		}
		if tag, err := tags.Get(SlotTag); err == nil {
			if tag.Name == "-" {
				continue
			}
			if tag.Name != "" {
				name = tag.Name
			}
			str = tag.HasOption("str")
		}
		var fieldShape *Shape
		if str {
			if f.Type.Kind() != reflect.Array || f.Type.Elem().Kind() != reflect.Uint8 {
				return nil, errors.Wrapf(ErrInvalidShape, "field %s of %v: str option needs a byte array", f.Name, t)
			}
			fieldShape = StrArray(uint64(f.Type.Len()))
		} else {
			fieldShape, err = shapeOf(f.Type, seen)
			if err != nil {
				return nil, err
			}
		}
		shape.Fields = append(shape.Fields, F(name, fieldShape))
	}
	return shape, nil
}
