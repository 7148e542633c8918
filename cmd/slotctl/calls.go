// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/slotcodec/abi"
	"github.com/offchainlabs/slotcodec/codec"
	"github.com/offchainlabs/slotcodec/layout"
)

// slotctl encode

type EncodeConfig struct {
	CommonConfig `koanf:",squash"`
	Types        TypesConfig `koanf:"types"`
	Function     string      `koanf:"function"`
	Args         string      `koanf:"args"`
	Type         string      `koanf:"type"`
	Value        string      `koanf:"value"`
}

var EncodeConfigDefault = EncodeConfig{
	CommonConfig: CommonConfigDefault,
	Types:        TypesConfigDefault,
	Function:     "",
	Args:         "[]",
	Type:         "",
	Value:        "",
}

func EncodeConfigAddOptions(f *flag.FlagSet) {
	TypesConfigAddOptions("types", f)
	f.String("function", EncodeConfigDefault.Function, "ABI function whose arguments to encode")
	f.String("args", EncodeConfigDefault.Args, "function arguments as a JSON array")
	f.String("type", EncodeConfigDefault.Type, "type of a single value to encode instead of function arguments")
	f.String("value", EncodeConfigDefault.Value, "JSON value to encode with --type")
}

func parseEncodeConfig(args []string) (*EncodeConfig, error) {
	f := flag.NewFlagSet("encode", flag.ContinueOnError)
	EncodeConfigAddOptions(f)
	config := EncodeConfigDefault
	if err := parseConfig(f, args, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func startEncode(_ context.Context, args []string, out io.Writer) error {
	config, err := parseEncodeConfig(args)
	if err != nil {
		return err
	}
	encoded, err := runEncode(config)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hexutil.Encode(encoded))
	return err
}

func runEncode(config *EncodeConfig) ([]byte, error) {
	if config.Function == "" {
		shape, err := config.Types.Resolve(config.Type)
		if err != nil {
			return nil, err
		}
		value, err := codec.FromJSON(shape, []byte(config.Value))
		if err != nil {
			return nil, err
		}
		return abi.Encode(shape, value)
	}
	program, err := config.Types.Program()
	if err != nil {
		return nil, err
	}
	function, err := program.Function(config.Function)
	if err != nil {
		return nil, err
	}
	values, err := program.ArgsFromJSON(function, []byte(config.Args))
	if err != nil {
		return nil, err
	}
	return program.EncodeArgs(function, values...)
}

// slotctl decode

const (
	DecodeArgs   = "args"
	DecodeOutput = "output"
	DecodeLog    = "log"
)

type DecodeConfig struct {
	CommonConfig `koanf:",squash"`
	Types        TypesConfig `koanf:"types"`
	Data         string      `koanf:"data"`
	Function     string      `koanf:"function"`
	Part         string      `koanf:"part"`
	LogID        string      `koanf:"log-id"`
	Type         string      `koanf:"type"`
}

var DecodeConfigDefault = DecodeConfig{
	CommonConfig: CommonConfigDefault,
	Types:        TypesConfigDefault,
	Data:         "0x",
	Function:     "",
	Part:         DecodeArgs,
	LogID:        "",
	Type:         "",
}

func DecodeConfigAddOptions(f *flag.FlagSet) {
	TypesConfigAddOptions("types", f)
	f.String("data", DecodeConfigDefault.Data, "hex encoded data to decode")
	f.String("function", DecodeConfigDefault.Function, "ABI function the data belongs to")
	f.String("part", DecodeConfigDefault.Part, "what the function data holds: args or output")
	f.String("log-id", DecodeConfigDefault.LogID, "decode the data as the logged type with this id")
	f.String("type", DecodeConfigDefault.Type, "type of a single value to decode")
}

func parseDecodeConfig(args []string) (*DecodeConfig, error) {
	f := flag.NewFlagSet("decode", flag.ContinueOnError)
	DecodeConfigAddOptions(f)
	config := DecodeConfigDefault
	if err := parseConfig(f, args, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func startDecode(_ context.Context, args []string, out io.Writer) error {
	config, err := parseDecodeConfig(args)
	if err != nil {
		return err
	}
	decoded, err := runDecode(config)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(decoded))
	return err
}

// runDecode returns the decoded value as JSON. Function arguments decode to
// a JSON array.
func runDecode(config *DecodeConfig) (json.RawMessage, error) {
	data, err := hexutil.Decode(config.Data)
	if err != nil {
		return nil, errors.Wrap(err, "data")
	}
	if config.LogID == "" && config.Function == "" {
		shape, err := config.Types.Resolve(config.Type)
		if err != nil {
			return nil, err
		}
		value, err := abi.Decode(shape, data)
		if err != nil {
			return nil, err
		}
		return codec.ToJSON(shape, value)
	}
	program, err := config.Types.Program()
	if err != nil {
		return nil, err
	}
	if config.LogID != "" {
		value, shape, err := program.DecodeLog(config.LogID, data)
		if err != nil {
			return nil, err
		}
		return codec.ToJSON(shape, value)
	}
	function, err := program.Function(config.Function)
	if err != nil {
		return nil, err
	}
	switch config.Part {
	case DecodeArgs:
		shapes, err := program.InputShapes(function)
		if err != nil {
			return nil, err
		}
		values, err := program.DecodeArgs(function, data)
		if err != nil {
			return nil, err
		}
		return codec.ToJSON(layout.Tuple(shapes...), codec.Tuple(values...))
	case DecodeOutput:
		shape, err := program.Resolve(function.Output)
		if err != nil {
			return nil, err
		}
		value, err := program.DecodeOutput(function, data)
		if err != nil {
			return nil, err
		}
		return codec.ToJSON(shape, value)
	}
	return nil, errors.Errorf("unknown part %q, valid values are args and output", config.Part)
}
