// Copyright 2021-2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package testhelpers

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Fail a test should an error occur
func RequireImpl(t testing.TB, err error, printables ...interface{}) {
	t.Helper()
	if err != nil {
		t.Fatal(printables, err)
	}
}

func FailImpl(t testing.TB, printables ...interface{}) {
	t.Helper()
	t.Fatal(printables...)
}

func RandomizeSlice(slice []byte) []byte {
	_, err := rand.Read(slice)
	if err != nil {
		panic(err)
	}
	return slice
}

func RandomSlice(size uint64) []byte {
	return RandomizeSlice(make([]byte, size))
}

func RandomHash() common.Hash {
	var hash common.Hash
	RandomizeSlice(hash[:])
	return hash
}

func RandomUint256() *uint256.Int {
	var buf [32]byte
	RandomizeSlice(buf[:])
	return new(uint256.Int).SetBytes32(buf[:])
}

// Computes a psuedo-random uint64 on the interval [min, max]
func RandomUint64(min, max uint64) uint64 {
	if max-min == math.MaxUint64 {
		return rand.Uint64()
	}
	return rand.Uint64()%(max-min+1) + min
}

func RandomBool() bool {
	return rand.Int31n(2) == 0
}
