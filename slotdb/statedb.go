// Copyright 2021-2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package slotdb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
)

// StateDB is the part of go-ethereum's vm.StateDB account storage needs.
type StateDB interface {
	GetState(common.Address, common.Hash) common.Hash
	SetState(common.Address, common.Hash, common.Hash)
	GetNonce(common.Address) uint64
	SetNonce(common.Address, uint64)
}

// DefaultAccount is the account whose storage holds the slots when none is
// given.
var DefaultAccount = common.HexToAddress("0xA4B05FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF")

// AccountStorage keeps slots in the storage of an Ethereum account. Account
// storage cannot tell a zero slot from a missing one, so zero slots read as
// not present.
type AccountStorage struct {
	db      StateDB
	account common.Address
}

func NewStateDB(statedb StateDB, account common.Address) *AccountStorage {
	if statedb.GetNonce(account) == 0 {
		statedb.SetNonce(account, 1) // setting the nonce ensures Geth won't treat the account as empty
	}
	return &AccountStorage{db: statedb, account: account}
}

// NewMemoryBackedStateDB creates an empty statedb over Geth's memory database.
func NewMemoryBackedStateDB() *state.StateDB {
	raw := rawdb.NewMemoryDatabase()
	db := state.NewDatabase(raw)
	statedb, err := state.New(types.EmptyRootHash, db, nil)
	if err != nil {
		panic("failed to init empty statedb")
	}
	return statedb
}

func (a *AccountStorage) Account() common.Address {
	return a.account
}

func (a *AccountStorage) ReadSlot(key common.Hash) (common.Hash, bool, error) {
	value := a.db.GetState(a.account, key)
	return value, value != (common.Hash{}), nil
}

func (a *AccountStorage) WriteSlot(key common.Hash, value common.Hash) error {
	a.db.SetState(a.account, key, value)
	return nil
}
