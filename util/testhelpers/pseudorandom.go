// Copyright 2022-2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package testhelpers

import (
	"encoding/binary"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// PseudoRandomDataSource yields the same sequence for the same salt, so a
// failing randomized test can be replayed.
type PseudoRandomDataSource struct {
	salt  common.Hash
	index uint64
}

// T param is to make sure it's only used in testing
func NewPseudoRandomDataSource(_ testing.TB, saltParam uint64) *PseudoRandomDataSource {
	salt := crypto.Keccak256Hash([]byte{'s'}, binary.BigEndian.AppendUint64(nil, saltParam))
	return &PseudoRandomDataSource{
		salt:  salt,
		index: 0,
	}
}

func (r *PseudoRandomDataSource) GetHash() common.Hash {
	r.index++
	return crypto.Keccak256Hash(r.salt[:], binary.BigEndian.AppendUint64(nil, r.index))
}

func (r *PseudoRandomDataSource) GetUint64() uint64 {
	return binary.BigEndian.Uint64(r.GetHash().Bytes()[:8])
}

// GetUint64Below returns a value in [0, n). n must not be zero.
func (r *PseudoRandomDataSource) GetUint64Below(n uint64) uint64 {
	return r.GetUint64() % n
}

func (r *PseudoRandomDataSource) GetBool() bool {
	return r.GetHash()[0]&1 == 1
}

func (r *PseudoRandomDataSource) GetUint256() *uint256.Int {
	hash := r.GetHash()
	return new(uint256.Int).SetBytes32(hash[:])
}

func (r *PseudoRandomDataSource) GetData(size int) []byte {
	ret := []byte{}
	for len(ret) < size {
		ret = append(ret, r.GetHash().Bytes()...)
	}
	return ret[:size]
}
