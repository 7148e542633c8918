// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/slotcodec/abi"
	"github.com/offchainlabs/slotcodec/layout"
	"github.com/offchainlabs/slotcodec/storage"
)

// TypesConfig selects where type expressions are resolved: against the named
// types of a program ABI file, or against the built-in types only.
type TypesConfig struct {
	ABI string `koanf:"abi"`
}

var TypesConfigDefault = TypesConfig{
	ABI: "",
}

func TypesConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".abi", TypesConfigDefault.ABI, "program ABI JSON file whose named types may be used in type expressions")
}

func (c *TypesConfig) Program() (*abi.ProgramABI, error) {
	if c.ABI == "" {
		return nil, errors.New("no program ABI file configured")
	}
	return abi.LoadProgramABI(c.ABI)
}

func (c *TypesConfig) Resolver() (storage.TypeResolver, error) {
	if c.ABI == "" {
		return func(expr string) (*layout.Shape, error) {
			return abi.ParseType(expr, nil)
		}, nil
	}
	program, err := c.Program()
	if err != nil {
		return nil, err
	}
	return program.TypeResolver()
}

func (c *TypesConfig) Resolve(expr string) (*layout.Shape, error) {
	if expr == "" {
		return nil, errors.New("no type given")
	}
	resolve, err := c.Resolver()
	if err != nil {
		return nil, err
	}
	return resolve(expr)
}

func printJSON(out io.Writer, v interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
