// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package abi

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

var (
	ErrUnknownType     = errors.New("unknown type id")
	ErrUnknownFunction = errors.New("unknown function")
	ErrUnknownName     = errors.New("unknown name")
)

// ProgramABI is the JSON ABI of a compiled program.
type ProgramABI struct {
	ProgramType     string            `json:"programType,omitempty"`
	SpecVersion     string            `json:"specVersion,omitempty"`
	EncodingVersion string            `json:"encodingVersion,omitempty"`
	Types           []TypeDeclaration `json:"types"`
	Functions       []Function        `json:"functions"`
	LoggedTypes     []LoggedType      `json:"loggedTypes"`
	MessagesTypes   []MessageType     `json:"messagesTypes"`
	Configurables   []Configurable    `json:"configurables"`

	byID map[uint64]*TypeDeclaration
}

// TypeDeclaration is one entry of the type table. Type holds the type's
// spelling, e.g. "u64", "struct Foo", "enum Option", "[_; 3]", "(_, _)",
// "str[5]" or "generic T".
type TypeDeclaration struct {
	TypeID         uint64            `json:"typeId"`
	Type           string            `json:"type"`
	Components     []TypeApplication `json:"components"`
	TypeParameters []uint64          `json:"typeParameters"`
}

// TypeApplication refers to a declared type, binding its type parameters.
type TypeApplication struct {
	Name          string            `json:"name"`
	Type          uint64            `json:"type"`
	TypeArguments []TypeApplication `json:"typeArguments"`
}

type Attribute struct {
	Name      string   `json:"name"`
	Arguments []string `json:"arguments"`
}

type Function struct {
	Name       string            `json:"name"`
	Inputs     []TypeApplication `json:"inputs"`
	Output     TypeApplication   `json:"output"`
	Attributes []Attribute       `json:"attributes"`
}

// ID is a log or message id. Older ABIs write ids as numbers and newer ones
// as decimal strings; both are accepted.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrap(err, "id must be a number or a string")
	}
	*id = ID(n.String())
	return nil
}

type LoggedType struct {
	LogID      ID              `json:"logId"`
	LoggedType TypeApplication `json:"loggedType"`
}

type MessageType struct {
	MessageID       ID              `json:"messageId"`
	MessageDataType TypeApplication `json:"messageDataType"`
}

// Configurable is a constant stored in the program binary at a byte offset.
type Configurable struct {
	Name             string          `json:"name"`
	ConfigurableType TypeApplication `json:"configurableType"`
	Offset           uint64          `json:"offset"`
}

// StorageAccess reports whether the function is declared to read or write
// storage, as in #[storage(read, write)].
func (f *Function) StorageAccess() (read bool, write bool) {
	for _, attr := range f.Attributes {
		if attr.Name != "storage" {
			continue
		}
		for _, arg := range attr.Arguments {
			switch arg {
			case "read":
				read = true
			case "write":
				write = true
			}
		}
	}
	return read, write
}

// IsPayable reports whether the function carries the payable attribute.
func (f *Function) IsPayable() bool {
	for _, attr := range f.Attributes {
		if attr.Name == "payable" {
			return true
		}
	}
	return false
}

// ParseProgramABI reads a JSON ABI and checks that every type it refers to is
// declared.
func ParseProgramABI(data []byte) (*ProgramABI, error) {
	var abi ProgramABI
	if err := json.Unmarshal(data, &abi); err != nil {
		return nil, errors.Wrap(err, "parsing program abi")
	}
	if err := abi.index(); err != nil {
		return nil, err
	}
	return &abi, nil
}

func LoadProgramABI(path string) (*ProgramABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	abi, err := ParseProgramABI(data)
	if err != nil {
		return nil, errors.Wrapf(err, "abi file %s", path)
	}
	return abi, nil
}

func (p *ProgramABI) index() error {
	p.byID = make(map[uint64]*TypeDeclaration, len(p.Types))
	for i := range p.Types {
		decl := &p.Types[i]
		if _, dup := p.byID[decl.TypeID]; dup {
			return errors.Errorf("type id %d declared twice", decl.TypeID)
		}
		p.byID[decl.TypeID] = decl
	}
	check := func(app TypeApplication) error { return p.checkApplication(app) }
	for _, decl := range p.Types {
		for _, c := range decl.Components {
			if err := check(c); err != nil {
				return errors.Wrapf(err, "component %q of type %d", c.Name, decl.TypeID)
			}
		}
		for _, param := range decl.TypeParameters {
			if _, ok := p.byID[param]; !ok {
				return errors.Wrapf(ErrUnknownType, "type parameter %d of type %d", param, decl.TypeID)
			}
		}
	}
	for _, f := range p.Functions {
		for _, in := range f.Inputs {
			if err := check(in); err != nil {
				return errors.Wrapf(err, "input %q of %s", in.Name, f.Name)
			}
		}
		if err := check(f.Output); err != nil {
			return errors.Wrapf(err, "output of %s", f.Name)
		}
	}
	for _, l := range p.LoggedTypes {
		if err := check(l.LoggedType); err != nil {
			return errors.Wrapf(err, "log %s", l.LogID)
		}
	}
	for _, m := range p.MessagesTypes {
		if err := check(m.MessageDataType); err != nil {
			return errors.Wrapf(err, "message %s", m.MessageID)
		}
	}
	for _, c := range p.Configurables {
		if err := check(c.ConfigurableType); err != nil {
			return errors.Wrapf(err, "configurable %s", c.Name)
		}
	}
	return nil
}

func (p *ProgramABI) checkApplication(app TypeApplication) error {
	if _, ok := p.byID[app.Type]; !ok {
		return errors.Wrapf(ErrUnknownType, "%d", app.Type)
	}
	for _, arg := range app.TypeArguments {
		if err := p.checkApplication(arg); err != nil {
			return err
		}
	}
	return nil
}

// Type returns the declaration with the given id.
func (p *ProgramABI) Type(id uint64) (*TypeDeclaration, error) {
	if p.byID == nil {
		if err := p.index(); err != nil {
			return nil, err
		}
	}
	decl, ok := p.byID[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownType, "%d", id)
	}
	return decl, nil
}

func (p *ProgramABI) Function(name string) (*Function, error) {
	for i := range p.Functions {
		if p.Functions[i].Name == name {
			return &p.Functions[i], nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownFunction, "%q", name)
}

func (p *ProgramABI) LoggedType(id string) (*LoggedType, error) {
	for i := range p.LoggedTypes {
		if string(p.LoggedTypes[i].LogID) == id {
			return &p.LoggedTypes[i], nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownName, "log id %s", id)
}

func (p *ProgramABI) Configurable(name string) (*Configurable, error) {
	for i := range p.Configurables {
		if p.Configurables[i].Name == name {
			return &p.Configurables[i], nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownName, "configurable %q", name)
}
