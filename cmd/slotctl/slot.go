// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"context"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/slotcodec/layout"
	"github.com/offchainlabs/slotcodec/slotdb"
	"github.com/offchainlabs/slotcodec/slots"
	"github.com/offchainlabs/slotcodec/storage"
)

// slotctl slot

type SlotConfig struct {
	CommonConfig `koanf:",squash"`
	Types        TypesConfig `koanf:"types"`
	Hash         string      `koanf:"hash"`
	Field        string      `koanf:"field"`
	Type         string      `koanf:"type"`
	Member       string      `koanf:"member"`
	Children     []string    `koanf:"children"`
}

var SlotConfigDefault = SlotConfig{
	CommonConfig: CommonConfigDefault,
	Types:        TypesConfigDefault,
	Hash:         "sha256",
	Field:        "",
	Type:         "",
	Member:       "",
	Children:     nil,
}

func SlotConfigAddOptions(f *flag.FlagSet) {
	TypesConfigAddOptions("types", f)
	f.String("hash", SlotConfigDefault.Hash, "slot hash: sha256 or keccak256")
	f.String("field", SlotConfigDefault.Field, "field path, e.g. storage.counter or storage::admin.owners")
	f.String("type", SlotConfigDefault.Type, "type of the field, needed to locate a member")
	f.String("member", SlotConfigDefault.Member, "member path within the field, e.g. limits[2].max")
	f.StringSlice("children", SlotConfigDefault.Children, "hex suffixes to derive child ids from, applied in order")
}

func parseSlotConfig(args []string) (*SlotConfig, error) {
	f := flag.NewFlagSet("slot", flag.ContinueOnError)
	SlotConfigAddOptions(f)
	config := SlotConfigDefault
	if err := parseConfig(f, args, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

type slotOutput struct {
	Field    string        `json:"field"`
	Slot     common.Hash   `json:"slot"`
	Offset   uint64        `json:"offset"`
	FieldID  common.Hash   `json:"fieldId"`
	Children []common.Hash `json:"children,omitempty"`
}

func startSlot(_ context.Context, args []string, out io.Writer) error {
	config, err := parseSlotConfig(args)
	if err != nil {
		return err
	}
	result, err := runSlot(config)
	if err != nil {
		return err
	}
	return printJSON(out, result)
}

func runSlot(config *SlotConfig) (*slotOutput, error) {
	hasher, err := slots.HasherByName(config.Hash)
	if err != nil {
		return nil, err
	}
	path, err := slots.ParseFieldPath(config.Field)
	if err != nil {
		return nil, err
	}
	deriver := slots.NewDeriver(hasher)
	key := deriver.Field(path)
	if config.Member != "" {
		shape, err := config.Types.Resolve(config.Type)
		if err != nil {
			return nil, errors.Wrap(err, "a member can only be located in a typed field")
		}
		// locating a member does no I/O, so any store will do
		field, err := storage.NewRoot(slotdb.NewMemory(), hasher, nil).Field(path, shape)
		if err != nil {
			return nil, err
		}
		member, err := field.Member(config.Member)
		if err != nil {
			return nil, err
		}
		key = member.Key()
	}
	result := &slotOutput{
		Field:   path.String(),
		Slot:    key.Slot,
		Offset:  key.Offset,
		FieldID: key.FieldID,
	}
	id := key.FieldID
	for _, child := range config.Children {
		suffix, err := hexutil.Decode(child)
		if err != nil {
			return nil, errors.Wrapf(err, "child suffix %q", child)
		}
		id = deriver.DeriveChild(id, suffix)
		result.Children = append(result.Children, id)
	}
	return result, nil
}

// slotctl layout

type LayoutConfig struct {
	CommonConfig `koanf:",squash"`
	Types        TypesConfig `koanf:"types"`
	Type         string      `koanf:"type"`
	Previous     string      `koanf:"previous"`
}

var LayoutConfigDefault = LayoutConfig{
	CommonConfig: CommonConfigDefault,
	Types:        TypesConfigDefault,
	Type:         "",
	Previous:     "",
}

func LayoutConfigAddOptions(f *flag.FlagSet) {
	TypesConfigAddOptions("types", f)
	f.String("type", LayoutConfigDefault.Type, "type to plan, e.g. (u64, bool) or a named type of the ABI")
	f.String("previous", LayoutConfigDefault.Previous, "earlier version of the type to check the layout against")
}

func parseLayoutConfig(args []string) (*LayoutConfig, error) {
	f := flag.NewFlagSet("layout", flag.ContinueOnError)
	LayoutConfigAddOptions(f)
	config := LayoutConfigDefault
	if err := parseConfig(f, args, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

type layoutLeaf struct {
	Path   string `json:"path"`
	Offset uint64 `json:"offset"`
	Kind   string `json:"kind"`
}

type layoutChange struct {
	Path       string      `json:"path"`
	Type       string      `json:"type"`
	Compatible bool        `json:"compatible"`
	From       interface{} `json:"from,omitempty"`
	To         interface{} `json:"to,omitempty"`
}

type layoutOutput struct {
	Type       string         `json:"type"`
	Words      uint64         `json:"words"`
	Slots      uint64         `json:"slots"`
	Leaves     []layoutLeaf   `json:"leaves"`
	Changes    []layoutChange `json:"changes,omitempty"`
	Compatible *bool          `json:"compatible,omitempty"`
}

func startLayout(_ context.Context, args []string, out io.Writer) error {
	config, err := parseLayoutConfig(args)
	if err != nil {
		return err
	}
	result, err := runLayout(config)
	if err != nil {
		return err
	}
	return printJSON(out, result)
}

func runLayout(config *LayoutConfig) (*layoutOutput, error) {
	shape, err := config.Types.Resolve(config.Type)
	if err != nil {
		return nil, err
	}
	planned, err := layout.Plan(shape)
	if err != nil {
		return nil, err
	}
	result := &layoutOutput{
		Type:  shape.String(),
		Words: planned.Words,
		Slots: planned.Slots(),
	}
	for _, o := range planned.Offsets() {
		result.Leaves = append(result.Leaves, layoutLeaf{Path: o.Path, Offset: o.Offset, Kind: o.Kind.String()})
	}
	if config.Previous == "" {
		return result, nil
	}
	previousShape, err := config.Types.Resolve(config.Previous)
	if err != nil {
		return nil, errors.Wrap(err, "previous type")
	}
	previous, err := layout.Plan(previousShape)
	if err != nil {
		return nil, errors.Wrap(err, "previous type")
	}
	changes, err := layout.Compare(previous, planned)
	if err != nil {
		return nil, err
	}
	for _, c := range changes {
		result.Changes = append(result.Changes, layoutChange(c))
	}
	compatible := layout.Compatible(changes)
	result.Compatible = &compatible
	return result, nil
}
