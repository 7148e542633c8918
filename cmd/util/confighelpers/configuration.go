// Copyright 2021-2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// Package confighelpers loads command configuration from flags, JSON files,
// a JSON string and environment variables, in increasing order of priority
// below explicitly set flags.
package confighelpers

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
)

var ErrUnexpectedParameter = errors.New("unexpected parameter")

// BeginCommonParse parses args against f and layers the configuration files,
// JSON string and environment variables named by the conf.* flags on top of
// the flag defaults. Flags set on the command line win over all of them.
func BeginCommonParse(f *flag.FlagSet, args []string) (*koanf.Koanf, error) {
	if err := f.Parse(args); err != nil {
		return nil, err
	}
	if f.NArg() != 0 {
		return nil, errors.Wrap(ErrUnexpectedParameter, f.Arg(0))
	}

	k := koanf.New(".")

	// Initial application of command line parameters and defaults
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, errors.Wrap(err, "error loading config")
	}

	for _, configFile := range k.Strings("conf.file") {
		if configFile == "" {
			continue
		}
		if err := k.Load(file.Provider(configFile), json.Parser()); err != nil {
			return nil, errors.Wrapf(err, "error loading local config file %s", configFile)
		}
	}
	if configString := k.String("conf.string"); configString != "" {
		if err := k.Load(rawbytes.Provider([]byte(configString)), json.Parser()); err != nil {
			return nil, errors.Wrap(err, "error loading config string")
		}
	}
	if err := loadEnvironmentVariables(k); err != nil {
		return nil, err
	}

	// Reapply command line parameters so they take priority
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, errors.Wrap(err, "error loading command line config")
	}
	return k, nil
}

// loadEnvironmentVariables maps PREFIX_LOG_LEVEL to log.level and
// PREFIX_BACKEND_CACHE__SIZE to backend.cache-size.
func loadEnvironmentVariables(k *koanf.Koanf) error {
	envPrefix := k.String("conf.env-prefix")
	if envPrefix == "" {
		return nil
	}
	envPrefix = strings.ToUpper(envPrefix) + "_"
	return k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		s = strings.ReplaceAll(s, "__", "-")
		return strings.ReplaceAll(s, "_", ".")
	}), nil)
}

// EndCommonParse decodes the loaded configuration into config, rejecting
// keys that config has no field for.
func EndCommonParse(k *koanf.Koanf, config interface{}) error {
	decoderConfig := mapstructure.DecoderConfig{
		ErrorUnused: true,

		// Default values
		WeaklyTypedInput: true,
		Metadata:         nil,
		Result:           config,
		TagName:          "koanf",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}
	return k.UnmarshalWithConf("", config, koanf.UnmarshalConf{DecoderConfig: &decoderConfig})
}

// DumpConfig prints the active configuration as JSON.
func DumpConfig(k *koanf.Koanf) error {
	// Don't keep printing configuration file and don't print the dump flag
	if err := k.Load(rawbytes.Provider([]byte(`{"conf":{"dump":false,"file":[]}}`)), json.Parser()); err != nil {
		return errors.Wrap(err, "error removing extra parameters before dump")
	}
	c, err := k.Marshal(json.Parser())
	if err != nil {
		return errors.Wrap(err, "unable to marshal config file to JSON")
	}
	fmt.Println(string(c))
	return nil
}

// PrintErrorAndExit prints usage, followed by err unless it only asked for
// help, and exits.
func PrintErrorAndExit(err error, usage func(string)) {
	usage(os.Args[0])
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Printf("\nERROR: %s\n", err.Error())
		os.Exit(1)
	}
	os.Exit(0)
}
