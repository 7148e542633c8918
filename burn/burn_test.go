// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package burn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSystemBurner(t *testing.T) {
	burner := NewSystemBurner(false)
	require.NoError(t, burner.Burn(800))
	require.NoError(t, burner.Burn(20000))
	require.Equal(t, uint64(20800), burner.Burned())
	require.False(t, burner.ReadOnly())
	require.True(t, NewSystemBurner(true).ReadOnly())
}

func TestLimitedBurner(t *testing.T) {
	burner := NewLimitedBurner(1000, false)
	require.NoError(t, burner.Burn(600))
	require.Equal(t, uint64(400), burner.Remaining())
	require.ErrorIs(t, burner.Burn(401), ErrOutOfGas)
	require.Equal(t, uint64(1000), burner.Burned())
	require.Equal(t, uint64(0), burner.Remaining())
	require.ErrorIs(t, burner.Burn(1), ErrOutOfGas)
	require.NoError(t, burner.Burn(0))

	var _ Burner = burner
}
