// Copyright 2024-2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package env

import (
	"github.com/ethereum/go-ethereum/log"

	testflag "github.com/offchainlabs/slotcodec/util/testhelpers/flag"
)

const (
	MemoryDB  = "memory"
	PebbleDB  = "pebble"
	LeveldbDB = "leveldb"
)

// GetTestDatabaseEngine returns the database engine slot store tests run on,
// set with -- --test_database_engine=pebble.
func GetTestDatabaseEngine() string {
	engineFlag := *testflag.DatabaseEngineFlag
	databaseEngine := MemoryDB

	switch engineFlag {
	case "":
	case LeveldbDB, PebbleDB, MemoryDB:
		databaseEngine = engineFlag
	default:
		log.Warn("invalid test database engine flag; using default",
			"provided", engineFlag,
			"default", MemoryDB,
		)
	}

	log.Debug("test database engine", "testDatabaseEngine", databaseEngine)
	return databaseEngine
}

// GetTestRedisURL returns the redis server set with -- --test_redis, or ""
// when tests should start their own.
func GetTestRedisURL() string {
	return *testflag.RedisFlag
}
