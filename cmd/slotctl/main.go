// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

// slotctl derives storage slots, plans layouts, encodes and decodes call
// data, and reads or exports the slots of a slot store.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/slotcodec/cmd/genericconf"
	"github.com/offchainlabs/slotcodec/cmd/util/confighelpers"
)

var errConfigDumped = errors.New("configuration dumped")

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, args []string, out io.Writer) error
}

var commands = []command{
	{"slot", "derive the base slot of a field, a member's location or child ids", startSlot},
	{"layout", "plan the storage layout of a type", startLayout},
	{"encode", "encode function arguments or a value", startEncode},
	{"decode", "decode function arguments, outputs, logs or a value", startDecode},
	{"init-slots", "compute the initial storage slots of a schema", startInitSlots},
	{"inspect", "read a field from a slot store", startInspect},
	{"snapshot", "export or import every slot of a slot store", startSnapshot},
}

func printUsage(progname string) {
	fmt.Printf("Usage: %s <command> [flags]\n\nCommands:\n", progname)
	for _, c := range commands {
		fmt.Printf("  %-12s %s\n", c.name, c.usage)
	}
	fmt.Printf("\nRun %s <command> --help for the flags of a command.\n", progname)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	err := mainImpl(ctx, os.Args[1:], os.Stdout)
	if errors.Is(err, errConfigDumped) {
		os.Exit(0)
	}
	if err != nil {
		confighelpers.PrintErrorAndExit(err, printUsage)
	}
}

func mainImpl(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("no command given")
	}
	name := strings.ToLower(args[0])
	for _, c := range commands {
		if c.name == name {
			return c.run(ctx, args[1:], out)
		}
	}
	return errors.Errorf("unknown command %q", args[0])
}

// CommonConfig holds the options every command accepts.
type CommonConfig struct {
	Conf genericconf.ConfConfig `koanf:"conf"`
	Log  genericconf.LogConfig  `koanf:"log"`
}

var CommonConfigDefault = CommonConfig{
	Conf: genericconf.ConfConfigDefault,
	Log:  genericconf.LogConfigDefault,
}

func CommonConfigAddOptions(f *flag.FlagSet) {
	genericconf.ConfConfigAddOptions("conf", f)
	genericconf.LogConfigAddOptions("log", f)
}

func (c *CommonConfig) common() *CommonConfig {
	return c
}

type commandConfig interface {
	common() *CommonConfig
}

// parseConfig loads config from args and installs the configured logger.
func parseConfig(f *flag.FlagSet, args []string, config commandConfig) error {
	CommonConfigAddOptions(f)
	k, err := confighelpers.BeginCommonParse(f, args)
	if err != nil {
		return err
	}
	if err := confighelpers.EndCommonParse(k, config); err != nil {
		return err
	}
	common := config.common()
	if common.Conf.Dump {
		if err := confighelpers.DumpConfig(k); err != nil {
			return err
		}
		return errConfigDumped
	}
	if err := genericconf.InitLog(&common.Log, genericconf.DefaultPathResolver("")); err != nil {
		return err
	}
	log.Debug("parsed configuration", "command", f.Name())
	return nil
}
