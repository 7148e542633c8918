// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package abi

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/offchainlabs/slotcodec/layout"
)

// ParseType parses a type as written in contract sources, for example
// "StorageMap<b256, StorageVec<(u64, bool)>>", "[u8; 32]", "str[4]" or
// "Option<Point>". Names other than the built in ones are looked up in named.
func ParseType(expr string, named map[string]*layout.Shape) (*layout.Shape, error) {
	p := &typeParser{input: expr, named: named}
	shape, err := p.parse()
	if err != nil {
		return nil, errors.Wrapf(err, "type %q", expr)
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, errors.Wrapf(layout.ErrInvalidShape, "type %q: unexpected %q", expr, p.input[p.pos:])
	}
	return shape, nil
}

type typeParser struct {
	input string
	pos   int
	named map[string]*layout.Shape
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *typeParser) expect(c byte) error {
	if p.peek() != c {
		return errors.Wrapf(layout.ErrInvalidShape, "expected %q at offset %d", c, p.pos)
	}
	p.pos++
	return nil
}

func isIdentChar(c byte) bool {
	return c == '_' || c == ':' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) && isIdentChar(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *typeParser) number() (uint64, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
	}
	n, err := strconv.ParseUint(p.input[start:p.pos], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(layout.ErrInvalidShape, "expected a length at offset %d", start)
	}
	return n, nil
}

// list parses types separated by commas up to the closing byte.
func (p *typeParser) list(end byte) ([]*layout.Shape, error) {
	var shapes []*layout.Shape
	if p.peek() == end {
		p.pos++
		return shapes, nil
	}
	for {
		shape, err := p.parse()
		if err != nil {
			return nil, err
		}
		shapes = append(shapes, shape)
		switch p.peek() {
		case ',':
			p.pos++
		case end:
			p.pos++
			return shapes, nil
		default:
			return nil, errors.Wrapf(layout.ErrInvalidShape, "expected ',' or %q at offset %d", end, p.pos)
		}
	}
}

func (p *typeParser) parse() (*layout.Shape, error) {
	switch p.peek() {
	case '(':
		p.pos++
		elems, err := p.list(')')
		if err != nil {
			return nil, err
		}
		if len(elems) == 0 {
			return layout.Unit(), nil
		}
		return layout.Tuple(elems...), nil
	case '[':
		p.pos++
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		if err := p.expect(';'); err != nil {
			return nil, err
		}
		n, err := p.number()
		if err != nil {
			return nil, err
		}
		if err := p.expect(']'); err != nil {
			return nil, err
		}
		return layout.Array(elem, n), nil
	}
	start := p.pos
	name := p.ident()
	if name == "" {
		return nil, errors.Wrapf(layout.ErrInvalidShape, "expected a type at offset %d", start)
	}
	name = typeName(name)
	if name == "str" && p.peek() == '[' {
		p.pos++
		n, err := p.number()
		if err != nil {
			return nil, err
		}
		if err := p.expect(']'); err != nil {
			return nil, err
		}
		return layout.StrArray(n), nil
	}
	var args []*layout.Shape
	if p.peek() == '<' {
		p.pos++
		var err error
		if args, err = p.list('>'); err != nil {
			return nil, err
		}
	}
	return p.resolveName(name, args)
}

func (p *typeParser) resolveName(name string, args []*layout.Shape) (*layout.Shape, error) {
	if scalar, ok := scalarShapes[name]; ok && len(args) == 0 {
		return scalar(), nil
	}
	if name == "str" && len(args) == 0 {
		return layout.String(), nil
	}
	if name == "Option" && len(args) == 1 {
		return layout.Option(args[0]), nil
	}
	if shape, ok := builtinStruct(name, args); ok {
		return shape, nil
	}
	if shape, ok := p.named[name]; ok && len(args) == 0 {
		return shape, nil
	}
	spelled := name
	if len(args) > 0 {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}
		spelled += "<" + strings.Join(parts, ", ") + ">"
	}
	return nil, errors.Wrapf(layout.ErrInvalidShape, "unknown type %s", spelled)
}
