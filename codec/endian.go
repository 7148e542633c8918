// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package codec

import (
	"encoding/binary"

	"github.com/holiman/uint256"
)

func U16ToLEBytes(x uint16) [2]byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], x)
	return b
}

func U16FromLEBytes(b [2]byte) uint16 { return binary.LittleEndian.Uint16(b[:]) }

func U16ToBEBytes(x uint16) [2]byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], x)
	return b
}

func U16FromBEBytes(b [2]byte) uint16 { return binary.BigEndian.Uint16(b[:]) }

func U32ToLEBytes(x uint32) [4]byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], x)
	return b
}

func U32FromLEBytes(b [4]byte) uint32 { return binary.LittleEndian.Uint32(b[:]) }

func U32ToBEBytes(x uint32) [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], x)
	return b
}

func U32FromBEBytes(b [4]byte) uint32 { return binary.BigEndian.Uint32(b[:]) }

func U64ToLEBytes(x uint64) [8]byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], x)
	return b
}

func U64FromLEBytes(b [8]byte) uint64 { return binary.LittleEndian.Uint64(b[:]) }

func U64ToBEBytes(x uint64) [8]byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], x)
	return b
}

func U64FromBEBytes(b [8]byte) uint64 { return binary.BigEndian.Uint64(b[:]) }

func U256ToBEBytes(x *uint256.Int) [32]byte { return x.Bytes32() }

func U256FromBEBytes(b [32]byte) *uint256.Int { return new(uint256.Int).SetBytes32(b[:]) }

func U256ToLEBytes(x *uint256.Int) [32]byte {
	b := x.Bytes32()
	reverse(b[:])
	return b
}

func U256FromLEBytes(b [32]byte) *uint256.Int {
	reverse(b[:])
	return new(uint256.Int).SetBytes32(b[:])
}

// U256Limbs splits x into four 64-bit limbs, most significant first.
func U256Limbs(x *uint256.Int) [4]uint64 {
	return [4]uint64{x[3], x[2], x[1], x[0]}
}

// U256FromLimbs is the inverse of U256Limbs.
func U256FromLimbs(limbs [4]uint64) *uint256.Int {
	return &uint256.Int{limbs[3], limbs[2], limbs[1], limbs[0]}
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
