// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package abi

import (
	"encoding/json"

	"github.com/ccoveille/go-safecast"
	"github.com/pkg/errors"

	"github.com/offchainlabs/slotcodec/codec"
	"github.com/offchainlabs/slotcodec/layout"
)

var ErrArgumentCount = errors.New("wrong number of arguments")

// InputShapes resolves the shapes of a function's inputs.
func (p *ProgramABI) InputShapes(f *Function) ([]*layout.Shape, error) {
	shapes := make([]*layout.Shape, len(f.Inputs))
	for i, in := range f.Inputs {
		shape, err := p.Resolve(in)
		if err != nil {
			return nil, errors.Wrapf(err, "input %q of %s", in.Name, f.Name)
		}
		shapes[i] = shape
	}
	return shapes, nil
}

// EncodeArgs encodes the arguments of a call, one after another.
func (p *ProgramABI) EncodeArgs(f *Function, args ...codec.Value) ([]byte, error) {
	shapes, err := p.InputShapes(f)
	if err != nil {
		return nil, err
	}
	if len(args) != len(shapes) {
		return nil, errors.Wrapf(ErrArgumentCount, "%s takes %d arguments, got %d", f.Name, len(shapes), len(args))
	}
	var out []byte
	for i, arg := range args {
		out, err = AppendEncoded(out, shapes[i], arg)
		if err != nil {
			return nil, errors.Wrapf(err, "argument %q of %s", f.Inputs[i].Name, f.Name)
		}
	}
	return out, nil
}

// DecodeArgs is the inverse of EncodeArgs.
func (p *ProgramABI) DecodeArgs(f *Function, data []byte) ([]codec.Value, error) {
	shapes, err := p.InputShapes(f)
	if err != nil {
		return nil, err
	}
	args := make([]codec.Value, len(shapes))
	pos := 0
	for i, shape := range shapes {
		v, n, err := DecodePrefix(shape, data[pos:])
		if err != nil {
			return nil, errors.Wrapf(err, "argument %q of %s", f.Inputs[i].Name, f.Name)
		}
		args[i] = v
		pos += n
	}
	if pos != len(data) {
		return nil, codec.NewDecodeError("", uint64(pos), errors.Wrapf(codec.ErrTrailingBytes, "%d bytes after the arguments of %s", len(data)-pos, f.Name))
	}
	return args, nil
}

// ArgsFromJSON reads call arguments from a JSON array in the forms accepted
// by codec.FromJSON.
func (p *ProgramABI) ArgsFromJSON(f *Function, raw []byte) ([]codec.Value, error) {
	shapes, err := p.InputShapes(f)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.Wrap(err, "arguments must be a JSON array")
	}
	if len(items) != len(shapes) {
		return nil, errors.Wrapf(ErrArgumentCount, "%s takes %d arguments, got %d", f.Name, len(shapes), len(items))
	}
	args := make([]codec.Value, len(items))
	for i, item := range items {
		if args[i], err = codec.FromJSON(shapes[i], item); err != nil {
			return nil, errors.Wrapf(err, "argument %q of %s", f.Inputs[i].Name, f.Name)
		}
	}
	return args, nil
}

// DecodeOutput decodes the value a function returned.
func (p *ProgramABI) DecodeOutput(f *Function, data []byte) (codec.Value, error) {
	shape, err := p.Resolve(f.Output)
	if err != nil {
		return codec.Value{}, errors.Wrapf(err, "output of %s", f.Name)
	}
	return Decode(shape, data)
}

// DecodeLog decodes the data of a log with the given id.
func (p *ProgramABI) DecodeLog(id string, data []byte) (codec.Value, *layout.Shape, error) {
	logged, err := p.LoggedType(id)
	if err != nil {
		return codec.Value{}, nil, err
	}
	shape, err := p.Resolve(logged.LoggedType)
	if err != nil {
		return codec.Value{}, nil, err
	}
	v, err := Decode(shape, data)
	return v, shape, err
}

// ConfigurableValue is a configurable read from a program binary.
type ConfigurableValue struct {
	Name  string
	Shape *layout.Shape
	Value codec.Value
}

func configurableOffset(binary []byte, c *Configurable) (int, error) {
	offset, err := safecast.ToInt(c.Offset)
	if err != nil || offset > len(binary) {
		return 0, codec.NewDecodeError(c.Name, c.Offset, errors.Wrapf(codec.ErrShortInput, "offset beyond the %d byte binary", len(binary)))
	}
	return offset, nil
}

// ReadConfigurables decodes every configurable from a program binary.
func (p *ProgramABI) ReadConfigurables(binary []byte) ([]ConfigurableValue, error) {
	values := make([]ConfigurableValue, 0, len(p.Configurables))
	for i := range p.Configurables {
		c := &p.Configurables[i]
		shape, err := p.Resolve(c.ConfigurableType)
		if err != nil {
			return nil, errors.Wrapf(err, "configurable %s", c.Name)
		}
		offset, err := configurableOffset(binary, c)
		if err != nil {
			return nil, err
		}
		v, _, err := DecodePrefix(shape, binary[offset:])
		if err != nil {
			return nil, errors.Wrapf(err, "configurable %s", c.Name)
		}
		values = append(values, ConfigurableValue{Name: c.Name, Shape: shape, Value: v})
	}
	return values, nil
}

// WriteConfigurable returns a copy of binary with the named configurable set
// to value. The encoding must keep the size of the one it replaces.
func (p *ProgramABI) WriteConfigurable(binary []byte, name string, value codec.Value) ([]byte, error) {
	c, err := p.Configurable(name)
	if err != nil {
		return nil, err
	}
	shape, err := p.Resolve(c.ConfigurableType)
	if err != nil {
		return nil, err
	}
	offset, err := configurableOffset(binary, c)
	if err != nil {
		return nil, err
	}
	_, size, err := DecodePrefix(shape, binary[offset:])
	if err != nil {
		return nil, errors.Wrapf(err, "configurable %s", name)
	}
	encoded, err := Encode(shape, value)
	if err != nil {
		return nil, errors.Wrapf(err, "configurable %s", name)
	}
	if len(encoded) != size {
		return nil, errors.Errorf("configurable %s: new value takes %d bytes where the old one took %d", name, len(encoded), size)
	}
	out := make([]byte, len(binary))
	copy(out, binary)
	copy(out[offset:], encoded)
	return out, nil
}
