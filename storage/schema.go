// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package storage

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/offchainlabs/slotcodec/codec"
	"github.com/offchainlabs/slotcodec/layout"
	"github.com/offchainlabs/slotcodec/slots"
)

// Declaration is one top-level field of a contract's storage block, with an
// optional initial value.
type Declaration struct {
	Path    slots.FieldPath
	Shape   *layout.Shape
	Initial *codec.Value
}

// Schema is the set of top-level fields of a contract. Hasher selects the
// slot hash; nil means the default.
type Schema struct {
	Hasher       slots.Hasher
	Declarations []Declaration
}

func (s *Schema) Declare(path slots.FieldPath, shape *layout.Shape, initial *codec.Value) {
	s.Declarations = append(s.Declarations, Declaration{Path: path, Shape: shape, Initial: initial})
}

// Validate plans every field and checks every initial value, so a schema that
// validates can be initialized without configuration errors.
func (s *Schema) Validate() error {
	planner := layout.NewPlanner()
	seen := make(map[string]bool)
	for _, decl := range s.Declarations {
		name := decl.Path.String()
		if seen[name] {
			return errors.Errorf("field %s declared twice", name)
		}
		seen[name] = true
		if _, err := planner.Plan(decl.Shape); err != nil {
			return errors.Wrapf(err, "field %s", name)
		}
		if decl.Initial != nil {
			if err := codec.Check(decl.Shape, *decl.Initial); err != nil {
				return errors.Wrapf(err, "initial value of %s", name)
			}
		}
	}
	return nil
}

// Initialize writes the initial value of every field that has one.
func (s *Schema) Initialize(root *Root) error {
	if err := s.Validate(); err != nil {
		return err
	}
	for _, decl := range s.Declarations {
		if decl.Initial == nil {
			continue
		}
		field, err := root.Field(decl.Path, decl.Shape)
		if err != nil {
			return err
		}
		log.Debug("initializing storage field", "field", decl.Path, "slot", field.Key().Slot)
		if err := field.Store(*decl.Initial); err != nil {
			return errors.Wrapf(err, "initializing %s", decl.Path)
		}
	}
	return nil
}

// InitialSlots computes the slots a freshly deployed contract starts with.
func InitialSlots(s *Schema) ([]Slot, error) {
	rec := newRecorder()
	if err := s.Initialize(NewRoot(rec, s.Hasher, nil)); err != nil {
		return nil, err
	}
	return rec.sorted(), nil
}

// TypeResolver turns a type expression such as "StorageVec<u64>" into a shape.
type TypeResolver func(expr string) (*layout.Shape, error)

type schemaFile struct {
	Hash   string        `json:"hash"`
	Fields []schemaField `json:"fields"`
}

type schemaField struct {
	Path  string          `json:"path"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// ParseSchema reads a schema file:
//
//	{"hash": "sha256", "fields": [{"path": "storage.counter", "type": "u64", "value": 1}]}
//
// Values use the JSON forms of codec.FromJSON.
func ParseSchema(data []byte, resolve TypeResolver) (*Schema, error) {
	var file schemaFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "parsing schema")
	}
	hasher, err := slots.HasherByName(file.Hash)
	if err != nil {
		return nil, err
	}
	schema := &Schema{Hasher: hasher}
	for _, f := range file.Fields {
		path, err := slots.ParseFieldPath(f.Path)
		if err != nil {
			return nil, err
		}
		shape, err := resolve(f.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "type of %s", f.Path)
		}
		var initial *codec.Value
		if len(f.Value) > 0 {
			v, err := codec.FromJSON(shape, f.Value)
			if err != nil {
				return nil, errors.Wrapf(err, "value of %s", f.Path)
			}
			initial = &v
		}
		schema.Declare(path, shape, initial)
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}
