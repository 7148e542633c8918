// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package slotdb

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/andybalholm/brotli"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/offchainlabs/slotcodec/codec"
	"github.com/offchainlabs/slotcodec/layout"
	"github.com/offchainlabs/slotcodec/slots"
	"github.com/offchainlabs/slotcodec/storage"
	"github.com/offchainlabs/slotcodec/util/testhelpers"
	"github.com/offchainlabs/slotcodec/util/testhelpers/env"
)

func Require(t *testing.T, err error, printables ...interface{}) {
	t.Helper()
	testhelpers.RequireImpl(t, err, printables...)
}

func newTestRedis(t *testing.T) *Redis {
	t.Helper()
	url := env.GetTestRedisURL()
	prefix := "slots:"
	if url == "" {
		server, err := miniredis.Run()
		Require(t, err)
		t.Cleanup(server.Close)
		url = fmt.Sprintf("redis://%s/0", server.Addr())
	} else {
		// a shared server keeps the slots of earlier runs
		prefix = fmt.Sprintf("slots-%x:", testhelpers.RandomHash().Bytes()[:8])
	}
	store, err := RedisFromURL(context.Background(), url, prefix)
	Require(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestBadger(t *testing.T) *Badger {
	t.Helper()
	store, err := OpenBadger("", []byte("s/"))
	Require(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	config := DatabaseConfigDefault
	config.Engine = env.GetTestDatabaseEngine()
	config.Directory = t.TempDir()
	store, err := OpenDatabase(&config)
	Require(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testStores(t *testing.T) map[string]Store {
	return map[string]Store{
		"database": newTestDatabase(t),
		"prefixed": NewDatabase(NewMemory().db, []byte("prefix")),
		"badger":   newTestBadger(t),
		"redis":    newTestRedis(t),
	}
}

func TestStoreContract(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			key := testhelpers.RandomHash()
			_, present, err := store.ReadSlot(key)
			Require(t, err)
			require.False(t, present)

			var written []storage.Slot
			for i := 0; i < 10; i++ {
				slot := storage.Slot{Key: testhelpers.RandomHash(), Value: testhelpers.RandomHash()}
				Require(t, store.WriteSlot(slot.Key, slot.Value))
				written = append(written, slot)
			}
			overwritten := written[3].Value
			written[3].Value = common.Hash{}
			Require(t, store.WriteSlot(written[3].Key, written[3].Value))

			value, present, err := store.ReadSlot(written[3].Key)
			Require(t, err)
			require.True(t, present)
			require.Equal(t, common.Hash{}, value)
			require.NotEqual(t, overwritten, value)

			exported, err := Export(store)
			Require(t, err)
			storage.SortSlots(written)
			require.Equal(t, written, exported)
		})
	}
}

func TestStateDBTreatsZeroAsAbsent(t *testing.T) {
	store := NewStateDB(NewMemoryBackedStateDB(), DefaultAccount)
	key := testhelpers.RandomHash()
	value := testhelpers.RandomHash()
	Require(t, store.WriteSlot(key, value))
	got, present, err := store.ReadSlot(key)
	Require(t, err)
	require.True(t, present)
	require.Equal(t, value, got)

	Require(t, store.WriteSlot(key, common.Hash{}))
	_, present, err = store.ReadSlot(key)
	Require(t, err)
	require.False(t, present)

	_, err = Iterable(store)
	require.ErrorIs(t, err, ErrNotIterable)
}

func TestCachedReadsThrough(t *testing.T) {
	inner := NewMetered(NewMemory(), "test/cached")
	cached, err := NewCached(inner, 4)
	Require(t, err)

	key := testhelpers.RandomHash()
	for i := 0; i < 3; i++ {
		_, present, err := cached.ReadSlot(key)
		Require(t, err)
		require.False(t, present)
	}
	require.Equal(t, uint64(1), inner.Reads())
	require.Equal(t, uint64(1), inner.Misses())

	value := testhelpers.RandomHash()
	Require(t, cached.WriteSlot(key, value))
	require.Equal(t, uint64(1), inner.Writes())
	got, present, err := cached.ReadSlot(key)
	Require(t, err)
	require.True(t, present)
	require.Equal(t, value, got)
	require.Equal(t, uint64(1), inner.Reads())

	cached.Purge()
	got, _, err = cached.ReadSlot(key)
	Require(t, err)
	require.Equal(t, value, got)
	require.Equal(t, uint64(2), inner.Reads())

	exported, err := Export(cached)
	Require(t, err)
	require.Equal(t, []storage.Slot{{Key: key, Value: value}}, exported)
}

func TestSnapshotRoundTrip(t *testing.T) {
	var slotList []storage.Slot
	for i := 0; i < 20; i++ {
		slotList = append(slotList, storage.Slot{Key: testhelpers.RandomHash(), Value: testhelpers.RandomHash()})
	}
	for _, level := range []int{-1, brotli.BestSpeed, brotli.BestCompression} {
		var buf bytes.Buffer
		Require(t, WriteSnapshot(&buf, slotList, level))
		back, err := ReadSnapshot(&buf, level >= 0)
		Require(t, err)
		sorted := append([]storage.Slot{}, slotList...)
		storage.SortSlots(sorted)
		require.Equal(t, sorted, back)
	}

	dir := t.TempDir()
	for _, name := range []string{"storage_slots.json", "storage_slots.json" + CompressedSuffix} {
		path := filepath.Join(dir, name)
		Require(t, WriteSnapshotFile(path, nil))
		back, err := ReadSnapshotFile(path)
		Require(t, err)
		require.Empty(t, back)
	}
}

func TestRootOverBackends(t *testing.T) {
	shape := layout.Struct("Account",
		layout.F("balance", layout.U256()),
		layout.F("nonce", layout.U64()),
		layout.F("history", layout.Vector(layout.U64())),
	)
	value := codec.Struct(
		codec.U256(testhelpers.RandomUint256()),
		codec.U64(testhelpers.RandomUint64(0, 1<<40)),
		codec.Vector(codec.U64(1), codec.U64(2), codec.U64(3)),
	)
	path := slots.NewFieldPath("account")

	var reference []storage.Slot
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			root := storage.NewRoot(store, nil, nil)
			field, err := root.Field(path, shape)
			Require(t, err)
			Require(t, field.Store(value))

			reopened, err := storage.NewRoot(store, nil, nil).Field(path, shape)
			Require(t, err)
			back, err := reopened.Load()
			Require(t, err)
			require.True(t, value.Equal(back), "loaded %v", back)

			exported, err := Export(store)
			Require(t, err)
			if reference == nil {
				reference = exported
			} else {
				require.Equal(t, reference, exported)
			}
		})
	}
}

func TestDatabaseConfig(t *testing.T) {
	config := DatabaseConfigDefault
	require.Error(t, config.Validate())
	config.Directory = t.TempDir()
	Require(t, config.Validate())
	config.Engine = EngineLeveldb
	Require(t, config.Validate())
	config.Directory = ""
	require.Error(t, config.Validate())
	config.Engine = EngineMemory
	Require(t, config.Validate())
	store, err := OpenDatabase(&config)
	Require(t, err)
	defer store.Close()
	Require(t, store.WriteSlot(common.Hash{1}, common.Hash{2}))

	config.Engine = "sqlite"
	require.Error(t, config.Validate())

	for _, engine := range []string{env.PebbleDB, env.LeveldbDB, env.MemoryDB} {
		config := DatabaseConfig{Engine: engine, Directory: t.TempDir()}
		Require(t, config.Validate(), engine)
	}
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()
	config := BackendConfigDefault
	config.Database.Engine = "memory"
	config.CacheSize = 64
	config.Metrics = "test"
	store, closer, err := OpenBackend(ctx, &config)
	Require(t, err)
	defer closer.Close()
	Require(t, store.WriteSlot(common.Hash{1}, common.Hash{2}))
	slots, err := Export(store)
	Require(t, err)
	require.Len(t, slots, 1)
	metered, ok := store.(*Metered)
	require.True(t, ok)
	require.Equal(t, uint64(1), metered.Writes())

	config = BackendConfigDefault
	config.Kind = BackendBadger
	store, closer, err = OpenBackend(ctx, &config)
	Require(t, err)
	defer closer.Close()
	_, present, err := store.ReadSlot(common.Hash{1})
	Require(t, err)
	require.False(t, present)

	config = BackendConfigDefault
	config.Kind = BackendRedis
	require.Error(t, config.Validate())
	config.Redis.URL = "redis://" + miniredis.RunT(t).Addr()
	store, closer, err = OpenBackend(ctx, &config)
	Require(t, err)
	defer closer.Close()
	Require(t, store.WriteSlot(common.Hash{3}, common.Hash{4}))

	config.Kind = "etcd"
	require.Error(t, config.Validate())
}
