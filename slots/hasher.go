// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package slots

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/minio/sha256-simd"
	"github.com/pkg/errors"
)

// HashVersion identifies the hash function used to derive slots. It is part of the
// storage format: a store written under one version is unreadable under another.
type HashVersion uint8

const (
	Sha256Version    HashVersion = 1
	Keccak256Version HashVersion = 2
)

const DefaultHashVersion = Sha256Version

type Hasher interface {
	Version() HashVersion
	Hash(data ...[]byte) common.Hash
}

type sha256Hasher struct{}

func (sha256Hasher) Version() HashVersion { return Sha256Version }

func (sha256Hasher) Hash(data ...[]byte) common.Hash {
	h := sha256.New()
	for _, b := range data {
		h.Write(b)
	}
	var out common.Hash
	h.Sum(out[:0])
	return out
}

type keccakHasher struct{}

func (keccakHasher) Version() HashVersion { return Keccak256Version }

func (keccakHasher) Hash(data ...[]byte) common.Hash {
	return crypto.Keccak256Hash(data...)
}

func Sha256() Hasher    { return sha256Hasher{} }
func Keccak256() Hasher { return keccakHasher{} }

func HasherForVersion(version HashVersion) (Hasher, error) {
	switch version {
	case Sha256Version:
		return sha256Hasher{}, nil
	case Keccak256Version:
		return keccakHasher{}, nil
	default:
		return nil, errors.Errorf("unknown slot hash version %d", version)
	}
}

// HasherByName accepts the names used in configuration files ("sha256", "keccak256").
func HasherByName(name string) (Hasher, error) {
	switch strings.ToLower(name) {
	case "", "sha256", "sha-256":
		return sha256Hasher{}, nil
	case "keccak", "keccak256", "keccak-256":
		return keccakHasher{}, nil
	default:
		return nil, errors.Errorf("unknown slot hash %q, valid values are sha256 and keccak256", name)
	}
}

func (v HashVersion) String() string {
	switch v {
	case Sha256Version:
		return "sha256"
	case Keccak256Version:
		return "keccak256"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(v))
	}
}
