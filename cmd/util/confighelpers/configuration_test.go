// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package confighelpers

import (
	"os"
	"path/filepath"
	"testing"

	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/offchainlabs/slotcodec/cmd/genericconf"
	"github.com/offchainlabs/slotcodec/util/testhelpers"
)

type testConfig struct {
	Conf  genericconf.ConfConfig `koanf:"conf"`
	Log   genericconf.LogConfig  `koanf:"log"`
	Path  string                 `koanf:"path"`
	Count uint64                 `koanf:"count"`
}

func parseTestConfig(t *testing.T, args []string) (*testConfig, error) {
	t.Helper()
	f := flag.NewFlagSet("test", flag.ContinueOnError)
	genericconf.ConfConfigAddOptions("conf", f)
	genericconf.LogConfigAddOptions("log", f)
	f.String("path", "storage.counter", "field path")
	f.Uint64("count", 1, "count")
	k, err := BeginCommonParse(f, args)
	if err != nil {
		return nil, err
	}
	var config testConfig
	if err := EndCommonParse(k, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func TestDefaults(t *testing.T) {
	config, err := parseTestConfig(t, nil)
	testhelpers.RequireImpl(t, err)
	require.Equal(t, "storage.counter", config.Path)
	require.Equal(t, uint64(1), config.Count)
	require.Equal(t, genericconf.LogConfigDefault, config.Log)
}

func TestPriority(t *testing.T) {
	dir := t.TempDir()
	confFile := filepath.Join(dir, "conf.json")
	testhelpers.RequireImpl(t, os.WriteFile(confFile, []byte(`{"path": "storage.file", "count": 7, "log": {"level": "DEBUG"}}`), 0o600))

	config, err := parseTestConfig(t, []string{"--conf.file", confFile})
	testhelpers.RequireImpl(t, err)
	require.Equal(t, "storage.file", config.Path)
	require.Equal(t, uint64(7), config.Count)
	require.Equal(t, "DEBUG", config.Log.Level)

	config, err = parseTestConfig(t, []string{"--conf.file", confFile, "--conf.string", `{"count": 9}`, "--path", "storage.flag"})
	testhelpers.RequireImpl(t, err)
	require.Equal(t, "storage.flag", config.Path)
	require.Equal(t, uint64(9), config.Count)

	t.Setenv("SLOTTEST_PATH", "storage.env")
	t.Setenv("SLOTTEST_LOG_FILE__LOGGING_ENABLE", "true")
	config, err = parseTestConfig(t, []string{"--conf.env-prefix", "slottest"})
	testhelpers.RequireImpl(t, err)
	require.Equal(t, "storage.env", config.Path)
	require.True(t, config.Log.FileLogging.Enable)
}

func TestRejectsUnknownKeys(t *testing.T) {
	_, err := parseTestConfig(t, []string{"--conf.string", `{"colour": "blue"}`})
	require.Error(t, err)
	_, err = parseTestConfig(t, []string{"stray"})
	require.ErrorIs(t, err, ErrUnexpectedParameter)
}
