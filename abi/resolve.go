// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package abi

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/offchainlabs/slotcodec/layout"
)

var (
	strArrayPattern = regexp.MustCompile(`^str\[(\d+)\]$`)
	arrayPattern    = regexp.MustCompile(`^\[_; (\d+)\]$`)
)

var scalarShapes = map[string]func() *layout.Shape{
	"()":   layout.Unit,
	"bool": layout.Bool,
	"u8":   layout.U8,
	"u16":  layout.U16,
	"u32":  layout.U32,
	"u64":  layout.U64,
	"u256": layout.U256,
	"b256": layout.B256,
}

// resolver turns type applications into shapes. Each declaration applied to
// the same argument shapes resolves to a single *layout.Shape, so recursive
// declarations produce cyclic shapes rather than endless expansion.
type resolver struct {
	abi   *ProgramABI
	cache map[string]*layout.Shape
}

// Resolve returns the shape of a type application.
func (p *ProgramABI) Resolve(app TypeApplication) (*layout.Shape, error) {
	if p.byID == nil {
		if err := p.index(); err != nil {
			return nil, err
		}
	}
	r := &resolver{abi: p, cache: make(map[string]*layout.Shape)}
	return r.apply(app, nil)
}

// ResolveID returns the shape of a declared type without type arguments.
func (p *ProgramABI) ResolveID(id uint64) (*layout.Shape, error) {
	return p.Resolve(TypeApplication{Type: id})
}

func (r *resolver) apply(app TypeApplication, env map[uint64]*layout.Shape) (*layout.Shape, error) {
	decl, err := r.abi.Type(app.Type)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(decl.Type, "generic ") {
		shape, ok := env[decl.TypeID]
		if !ok {
			return nil, errors.Errorf("unbound %s (type %d)", decl.Type, decl.TypeID)
		}
		return shape, nil
	}
	args := make([]*layout.Shape, len(app.TypeArguments))
	for i, arg := range app.TypeArguments {
		if args[i], err = r.apply(arg, env); err != nil {
			return nil, err
		}
	}
	if len(args) == 0 && len(decl.TypeParameters) > 0 {
		// a component of a generic declaration may name the parameters directly
		for _, param := range decl.TypeParameters {
			shape, ok := env[param]
			if !ok {
				return nil, errors.Errorf("%s needs %d type arguments", decl.Type, len(decl.TypeParameters))
			}
			args = append(args, shape)
		}
	}
	if len(args) != len(decl.TypeParameters) {
		return nil, errors.Errorf("%s takes %d type arguments, got %d", decl.Type, len(decl.TypeParameters), len(args))
	}
	return r.declaration(decl, args)
}

func cacheKey(decl *TypeDeclaration, args []*layout.Shape) string {
	var b strings.Builder
	fmt.Fprint(&b, decl.TypeID)
	for _, a := range args {
		fmt.Fprintf(&b, "/%p", a)
	}
	return b.String()
}

func typeName(spelling string) string {
	name := spelling
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	return name
}

func (r *resolver) declaration(decl *TypeDeclaration, args []*layout.Shape) (*layout.Shape, error) {
	key := cacheKey(decl, args)
	if shape, ok := r.cache[key]; ok {
		return shape, nil
	}
	env := make(map[uint64]*layout.Shape, len(args))
	for i, param := range decl.TypeParameters {
		env[param] = args[i]
	}
	components := func() ([]layout.Field, error) {
		fields := make([]layout.Field, len(decl.Components))
		for i, c := range decl.Components {
			shape, err := r.apply(c, env)
			if err != nil {
				return nil, errors.Wrapf(err, "component %q of %s", c.Name, decl.Type)
			}
			fields[i] = layout.F(c.Name, shape)
		}
		return fields, nil
	}

	spelling := decl.Type
	if scalar, ok := scalarShapes[spelling]; ok {
		return scalar(), nil
	}
	if m := strArrayPattern.FindStringSubmatch(spelling); m != nil {
		n, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(layout.ErrInvalidShape, "%s", spelling)
		}
		return layout.StrArray(n), nil
	}
	if spelling == "str" {
		return layout.String(), nil
	}
	if m := arrayPattern.FindStringSubmatch(spelling); m != nil {
		n, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil || len(decl.Components) != 1 {
			return nil, errors.Wrapf(layout.ErrInvalidShape, "%s", spelling)
		}
		shape := &layout.Shape{Kind: layout.KindArray, Len: n}
		r.cache[key] = shape
		if shape.Elem, err = r.apply(decl.Components[0], env); err != nil {
			return nil, err
		}
		return shape, nil
	}
	if strings.HasPrefix(spelling, "(") {
		shape := &layout.Shape{Kind: layout.KindTuple}
		r.cache[key] = shape
		fields, err := components()
		if err != nil {
			return nil, err
		}
		for i := range fields {
			fields[i].Name = ""
		}
		shape.Fields = fields
		return shape, nil
	}
	if name, ok := strings.CutPrefix(spelling, "struct "); ok {
		name = typeName(name)
		if builtin, ok := builtinStruct(name, args); ok {
			r.cache[key] = builtin
			return builtin, nil
		}
		shape := &layout.Shape{Kind: layout.KindStruct, Name: name}
		r.cache[key] = shape
		fields, err := components()
		if err != nil {
			return nil, err
		}
		shape.Fields = fields
		return shape, nil
	}
	if name, ok := strings.CutPrefix(spelling, "enum "); ok {
		shape := &layout.Shape{Kind: layout.KindEnum, Name: typeName(name)}
		r.cache[key] = shape
		fields, err := components()
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			return nil, errors.Wrapf(layout.ErrInvalidShape, "%s has no variants", spelling)
		}
		shape.Fields = fields
		return shape, nil
	}
	return nil, errors.Wrapf(ErrNotEncodable, "%s", spelling)
}

// builtinStruct maps the library collection types to their shapes. Their
// declared components describe heap pointers rather than contents.
func builtinStruct(name string, args []*layout.Shape) (*layout.Shape, bool) {
	switch {
	case (name == "Vec" || name == "StorageVec") && len(args) == 1:
		return layout.Vector(args[0]), true
	case name == "StorageMap" && len(args) == 2:
		return layout.Map(args[0], args[1]), true
	case (name == "Bytes" || name == "StorageBytes") && len(args) == 0:
		return layout.Bytes(), true
	case (name == "String" || name == "StorageString") && len(args) == 0:
		return layout.String(), true
	}
	return nil, false
}

// NamedTypes lists the non-generic structs and enums of the ABI by name.
func (p *ProgramABI) NamedTypes() (map[string]*layout.Shape, error) {
	named := make(map[string]*layout.Shape)
	for _, decl := range p.Types {
		if len(decl.TypeParameters) > 0 {
			continue
		}
		var name string
		if rest, ok := strings.CutPrefix(decl.Type, "struct "); ok {
			name = typeName(rest)
		} else if rest, ok := strings.CutPrefix(decl.Type, "enum "); ok {
			name = typeName(rest)
		} else {
			continue
		}
		if _, builtin := builtinStruct(name, nil); builtin {
			continue
		}
		shape, err := p.ResolveID(decl.TypeID)
		if errors.Is(err, ErrNotEncodable) {
			// library internals such as RawVec hold raw pointers
			continue
		}
		if err != nil {
			return nil, err
		}
		named[name] = shape
	}
	return named, nil
}

// TypeResolver parses type expressions, resolving bare names against the
// ABI's structs and enums.
func (p *ProgramABI) TypeResolver() (func(expr string) (*layout.Shape, error), error) {
	named, err := p.NamedTypes()
	if err != nil {
		return nil, err
	}
	return func(expr string) (*layout.Shape, error) {
		return ParseType(expr, named)
	}, nil
}
