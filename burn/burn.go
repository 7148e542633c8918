// Copyright 2021-2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package burn

import (
	"github.com/ethereum/go-ethereum/core/vm"
	glog "github.com/ethereum/go-ethereum/log"
)

var ErrOutOfGas = vm.ErrOutOfGas

// Burner is charged for every slot access. A read-only burner refuses writes.
type Burner interface {
	Burn(amount uint64) error
	Burned() uint64
	ReadOnly() bool
}

// SystemBurner tallies gas without a limit.
type SystemBurner struct {
	gasBurnt uint64
	readOnly bool
}

func NewSystemBurner(readOnly bool) *SystemBurner {
	return &SystemBurner{
		readOnly: readOnly,
	}
}

func (burner *SystemBurner) Burn(amount uint64) error {
	burner.gasBurnt += amount
	return nil
}

func (burner *SystemBurner) Burned() uint64 {
	return burner.gasBurnt
}

func (burner *SystemBurner) ReadOnly() bool {
	return burner.readOnly
}

// LimitedBurner fails with ErrOutOfGas once the limit would be exceeded. The
// failed charge consumes the remaining gas.
type LimitedBurner struct {
	SystemBurner
	limit uint64
}

func NewLimitedBurner(limit uint64, readOnly bool) *LimitedBurner {
	return &LimitedBurner{
		SystemBurner: SystemBurner{readOnly: readOnly},
		limit:        limit,
	}
}

func (burner *LimitedBurner) Burn(amount uint64) error {
	if amount > burner.limit-burner.gasBurnt {
		glog.Debug("burner out of gas", "limit", burner.limit, "burnt", burner.gasBurnt, "amount", amount)
		burner.gasBurnt = burner.limit
		return ErrOutOfGas
	}
	burner.gasBurnt += amount
	return nil
}

func (burner *LimitedBurner) Remaining() uint64 {
	return burner.limit - burner.gasBurnt
}
