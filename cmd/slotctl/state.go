// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/slotcodec/burn"
	"github.com/offchainlabs/slotcodec/codec"
	"github.com/offchainlabs/slotcodec/slotdb"
	"github.com/offchainlabs/slotcodec/slots"
	"github.com/offchainlabs/slotcodec/storage"
)

func writeSlots(out io.Writer, path string, slots []storage.Slot) error {
	if path == "" || path == "-" {
		return slotdb.WriteSnapshot(out, slots, -1)
	}
	if err := slotdb.WriteSnapshotFile(path, slots); err != nil {
		return err
	}
	log.Info("wrote slots", "file", path, "count", len(slots))
	return nil
}

// slotctl init-slots

type InitSlotsConfig struct {
	CommonConfig `koanf:",squash"`
	Types        TypesConfig          `koanf:"types"`
	Schema       string               `koanf:"schema"`
	Output       string               `koanf:"output"`
	Apply        bool                 `koanf:"apply"`
	Backend      slotdb.BackendConfig `koanf:"backend"`
}

var InitSlotsConfigDefault = InitSlotsConfig{
	CommonConfig: CommonConfigDefault,
	Types:        TypesConfigDefault,
	Schema:       "",
	Output:       "",
	Apply:        false,
	Backend:      slotdb.BackendConfigDefault,
}

func InitSlotsConfigAddOptions(f *flag.FlagSet) {
	TypesConfigAddOptions("types", f)
	f.String("schema", InitSlotsConfigDefault.Schema, "storage schema JSON file")
	f.String("output", InitSlotsConfigDefault.Output, "file to write the slots to, brotli compressed if it ends in .br (empty = stdout)")
	f.Bool("apply", InitSlotsConfigDefault.Apply, "also write the slots into the backend")
	slotdb.BackendConfigAddOptions("backend", f)
}

func parseInitSlotsConfig(args []string) (*InitSlotsConfig, error) {
	f := flag.NewFlagSet("init-slots", flag.ContinueOnError)
	InitSlotsConfigAddOptions(f)
	config := InitSlotsConfigDefault
	if err := parseConfig(f, args, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func startInitSlots(ctx context.Context, args []string, out io.Writer) error {
	config, err := parseInitSlotsConfig(args)
	if err != nil {
		return err
	}
	return runInitSlots(ctx, config, out)
}

func runInitSlots(ctx context.Context, config *InitSlotsConfig, out io.Writer) error {
	if config.Schema == "" {
		return errors.New("no schema file given")
	}
	data, err := os.ReadFile(config.Schema)
	if err != nil {
		return err
	}
	resolve, err := config.Types.Resolver()
	if err != nil {
		return err
	}
	schema, err := storage.ParseSchema(data, resolve)
	if err != nil {
		return err
	}
	initial, err := storage.InitialSlots(schema)
	if err != nil {
		return err
	}
	if config.Apply {
		store, closer, err := slotdb.OpenBackend(ctx, &config.Backend)
		if err != nil {
			return err
		}
		defer closer.Close()
		if err := slotdb.Import(store, initial); err != nil {
			return err
		}
		log.Info("initialized storage", "fields", len(schema.Declarations), "slots", len(initial))
	}
	return writeSlots(out, config.Output, initial)
}

// slotctl inspect

type InspectConfig struct {
	CommonConfig `koanf:",squash"`
	Types        TypesConfig          `koanf:"types"`
	Backend      slotdb.BackendConfig `koanf:"backend"`
	Hash         string               `koanf:"hash"`
	Field        string               `koanf:"field"`
	Type         string               `koanf:"type"`
	Member       string               `koanf:"member"`
	Raw          bool                 `koanf:"raw"`
}

var InspectConfigDefault = InspectConfig{
	CommonConfig: CommonConfigDefault,
	Types:        TypesConfigDefault,
	Backend:      slotdb.BackendConfigDefault,
	Hash:         "sha256",
	Field:        "",
	Type:         "",
	Member:       "",
	Raw:          false,
}

func InspectConfigAddOptions(f *flag.FlagSet) {
	TypesConfigAddOptions("types", f)
	slotdb.BackendConfigAddOptions("backend", f)
	f.String("hash", InspectConfigDefault.Hash, "slot hash: sha256 or keccak256")
	f.String("field", InspectConfigDefault.Field, "field path to read")
	f.String("type", InspectConfigDefault.Type, "type of the field")
	f.String("member", InspectConfigDefault.Member, "member path within the field")
	f.Bool("raw", InspectConfigDefault.Raw, "print the raw slots holding the value instead of the value")
}

func parseInspectConfig(args []string) (*InspectConfig, error) {
	f := flag.NewFlagSet("inspect", flag.ContinueOnError)
	InspectConfigAddOptions(f)
	config := InspectConfigDefault
	if err := parseConfig(f, args, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func startInspect(ctx context.Context, args []string, out io.Writer) error {
	config, err := parseInspectConfig(args)
	if err != nil {
		return err
	}
	store, closer, err := slotdb.OpenBackend(ctx, &config.Backend)
	if err != nil {
		return err
	}
	defer closer.Close()
	return runInspect(store, config, out)
}

type rawOutput struct {
	Key   slots.StorageKey `json:"key"`
	Slots []common.Hash    `json:"slots"`
}

func runInspect(store storage.KVStore, config *InspectConfig, out io.Writer) error {
	hasher, err := slots.HasherByName(config.Hash)
	if err != nil {
		return err
	}
	path, err := slots.ParseFieldPath(config.Field)
	if err != nil {
		return err
	}
	shape, err := config.Types.Resolve(config.Type)
	if err != nil {
		return err
	}
	root := storage.NewRoot(store, hasher, burn.NewSystemBurner(true))
	field, err := root.Field(path, shape)
	if err != nil {
		return err
	}
	if config.Member != "" {
		field, err = field.Member(config.Member)
		if err != nil {
			return err
		}
	}
	if config.Raw {
		images, err := field.RawSlots()
		if err != nil {
			return err
		}
		return printJSON(out, rawOutput{Key: field.Key(), Slots: images})
	}
	value, err := field.Load()
	if err != nil {
		return err
	}
	encoded, err := codec.ToJSON(field.Shape(), value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(encoded))
	return err
}

// slotctl snapshot

type SnapshotConfig struct {
	CommonConfig `koanf:",squash"`
	Backend      slotdb.BackendConfig `koanf:"backend"`
	Output       string               `koanf:"output"`
	Import       string               `koanf:"import"`
}

var SnapshotConfigDefault = SnapshotConfig{
	CommonConfig: CommonConfigDefault,
	Backend:      slotdb.BackendConfigDefault,
	Output:       "",
	Import:       "",
}

func SnapshotConfigAddOptions(f *flag.FlagSet) {
	slotdb.BackendConfigAddOptions("backend", f)
	f.String("output", SnapshotConfigDefault.Output, "file to export the slots to, brotli compressed if it ends in .br (empty = stdout)")
	f.String("import", SnapshotConfigDefault.Import, "snapshot file to import into the backend instead of exporting")
}

func parseSnapshotConfig(args []string) (*SnapshotConfig, error) {
	f := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	SnapshotConfigAddOptions(f)
	config := SnapshotConfigDefault
	if err := parseConfig(f, args, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func startSnapshot(ctx context.Context, args []string, out io.Writer) error {
	config, err := parseSnapshotConfig(args)
	if err != nil {
		return err
	}
	store, closer, err := slotdb.OpenBackend(ctx, &config.Backend)
	if err != nil {
		return err
	}
	defer closer.Close()
	return runSnapshot(store, config, out)
}

func runSnapshot(store slotdb.Store, config *SnapshotConfig, out io.Writer) error {
	if config.Import != "" {
		imported, err := slotdb.ReadSnapshotFile(config.Import)
		if err != nil {
			return err
		}
		if err := slotdb.Import(store, imported); err != nil {
			return err
		}
		log.Info("imported slots", "file", config.Import, "count", len(imported))
		return nil
	}
	exported, err := slotdb.Export(store)
	if err != nil {
		return err
	}
	return writeSlots(out, config.Output, exported)
}
