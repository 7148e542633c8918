// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package layout

import (
	"fmt"
	"strings"
)

type Kind uint8

const (
	KindUnit Kind = iota
	KindBool
	KindU8
	KindU16
	KindU32
	KindU64
	KindU256
	KindB256
	KindStrArray
	KindArray
	KindTuple
	KindStruct
	KindEnum
	KindVector
	KindMap
	KindBytes
	KindString
)

var kindNames = map[Kind]string{
	KindUnit:     "()",
	KindBool:     "bool",
	KindU8:       "u8",
	KindU16:      "u16",
	KindU32:      "u32",
	KindU64:      "u64",
	KindU256:     "u256",
	KindB256:     "b256",
	KindStrArray: "str[]",
	KindArray:    "array",
	KindTuple:    "tuple",
	KindStruct:   "struct",
	KindEnum:     "enum",
	KindVector:   "vector",
	KindMap:      "map",
	KindBytes:    "bytes",
	KindString:   "string",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsDynamic reports whether values of this kind have no fixed size. Dynamic
// values never live inline: in storage they get an anchor slot and derived
// element slots, at the call boundary a length prefix.
func (k Kind) IsDynamic() bool {
	return k == KindVector || k == KindMap || k == KindBytes || k == KindString
}

// IsWordScalar reports whether a value of this kind fits in one word.
func (k Kind) IsWordScalar() bool {
	switch k {
	case KindBool, KindU8, KindU16, KindU32, KindU64:
		return true
	}
	return false
}

// Field is a named member of a struct, a variant of an enum, or a positional
// element of a tuple (with an empty name).
type Field struct {
	Name  string
	Shape *Shape
}

// Shape is the static type of a value. It is a closed sum over Kind; which of
// the other members are meaningful depends on the kind:
//
//	StrArray: Len
//	Array:    Elem, Len
//	Tuple:    Fields (unnamed)
//	Struct:   Name, Fields
//	Enum:     Name, Fields (one per variant, Unit shape for no payload)
//	Vector:   Elem
//	Map:      Key, Elem
//
// Shapes may be recursive through pointers, as long as the recursion passes
// through a dynamic kind.
type Shape struct {
	Kind   Kind
	Name   string
	Len    uint64
	Elem   *Shape
	Key    *Shape
	Fields []Field
}

var (
	unitShape = &Shape{Kind: KindUnit}
	boolShape = &Shape{Kind: KindBool}
	u8Shape   = &Shape{Kind: KindU8}
	u16Shape  = &Shape{Kind: KindU16}
	u32Shape  = &Shape{Kind: KindU32}
	u64Shape  = &Shape{Kind: KindU64}
	u256Shape = &Shape{Kind: KindU256}
	b256Shape = &Shape{Kind: KindB256}
)

func Unit() *Shape { return unitShape }
func Bool() *Shape { return boolShape }
func U8() *Shape   { return u8Shape }
func U16() *Shape  { return u16Shape }
func U32() *Shape  { return u32Shape }
func U64() *Shape  { return u64Shape }
func U256() *Shape { return u256Shape }
func B256() *Shape { return b256Shape }

func StrArray(n uint64) *Shape { return &Shape{Kind: KindStrArray, Len: n} }
func Bytes() *Shape            { return &Shape{Kind: KindBytes} }
func String() *Shape           { return &Shape{Kind: KindString} }

func Array(elem *Shape, n uint64) *Shape {
	return &Shape{Kind: KindArray, Elem: elem, Len: n}
}

func Tuple(elems ...*Shape) *Shape {
	fields := make([]Field, len(elems))
	for i, e := range elems {
		fields[i] = Field{Shape: e}
	}
	return &Shape{Kind: KindTuple, Fields: fields}
}

func Struct(name string, fields ...Field) *Shape {
	return &Shape{Kind: KindStruct, Name: name, Fields: fields}
}

func Enum(name string, variants ...Field) *Shape {
	return &Shape{Kind: KindEnum, Name: name, Fields: variants}
}

func Vector(elem *Shape) *Shape {
	return &Shape{Kind: KindVector, Elem: elem}
}

func Map(key, value *Shape) *Shape {
	return &Shape{Kind: KindMap, Key: key, Elem: value}
}

func F(name string, shape *Shape) Field {
	return Field{Name: name, Shape: shape}
}

// Option is the conventional two-variant enum None | Some(T).
func Option(inner *Shape) *Shape {
	return Enum("Option", F("None", Unit()), F("Some", inner))
}

func (s *Shape) IsDynamic() bool {
	return s.Kind.IsDynamic()
}

// VariantIndex returns the discriminant of the named variant of an enum.
func (s *Shape) VariantIndex(name string) (int, bool) {
	if s.Kind != KindEnum {
		return 0, false
	}
	for i, f := range s.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

// FieldIndex returns the position of the named struct member.
func (s *Shape) FieldIndex(name string) (int, bool) {
	for i, f := range s.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

// String renders the shape the way it is spelled in contract sources and ABI
// type names. Named types render by name only, so recursive shapes terminate.
func (s *Shape) String() string {
	if s == nil {
		return "<nil>"
	}
	switch s.Kind {
	case KindStrArray:
		return fmt.Sprintf("str[%d]", s.Len)
	case KindArray:
		return fmt.Sprintf("[%v; %d]", s.Elem, s.Len)
	case KindTuple:
		parts := make([]string, len(s.Fields))
		for i, f := range s.Fields {
			parts[i] = f.Shape.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindStruct:
		return "struct " + s.Name
	case KindEnum:
		return "enum " + s.Name
	case KindVector:
		return fmt.Sprintf("StorageVec<%v>", s.Elem)
	case KindMap:
		return fmt.Sprintf("StorageMap<%v, %v>", s.Key, s.Elem)
	case KindBytes:
		return "StorageBytes"
	case KindString:
		return "StorageString"
	default:
		return s.Kind.String()
	}
}

// ContainsDynamic reports whether a value of the shape has contents outside
// its inline words.
func ContainsDynamic(shape *Shape) bool {
	return contains(shape, make(map[*Shape]bool), func(s *Shape) bool { return s.IsDynamic() })
}

// ContainsMap reports whether a map is reachable from the shape.
func ContainsMap(shape *Shape) bool {
	return contains(shape, make(map[*Shape]bool), func(s *Shape) bool { return s.Kind == KindMap })
}

func contains(shape *Shape, seen map[*Shape]bool, match func(*Shape) bool) bool {
	if shape == nil || seen[shape] {
		return false
	}
	if match(shape) {
		return true
	}
	seen[shape] = true
	switch shape.Kind {
	case KindArray, KindVector:
		return contains(shape.Elem, seen, match)
	case KindTuple, KindStruct, KindEnum:
		for _, f := range shape.Fields {
			if contains(f.Shape, seen, match) {
				return true
			}
		}
	}
	return false
}
