// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package storage

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Slot is one entry of a storage_slots.json file. Keys and values are written
// as 64 hex digits without a prefix.
type Slot struct {
	Key   common.Hash
	Value common.Hash
}

type jsonSlot struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (s Slot) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonSlot{
		Key:   hex.EncodeToString(s.Key[:]),
		Value: hex.EncodeToString(s.Value[:]),
	})
}

func parseHash(text string) (common.Hash, error) {
	text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	if len(text) != 2*common.HashLength {
		return common.Hash{}, errors.Errorf("slot hash %q must have %d hex digits", text, 2*common.HashLength)
	}
	b, err := hex.DecodeString(text)
	if err != nil {
		return common.Hash{}, errors.Wrapf(err, "slot hash %q", text)
	}
	return common.BytesToHash(b), nil
}

func (s *Slot) UnmarshalJSON(data []byte) error {
	var raw jsonSlot
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var err error
	if s.Key, err = parseHash(raw.Key); err != nil {
		return err
	}
	s.Value, err = parseHash(raw.Value)
	return err
}

// SortSlots orders slots by key, the order storage_slots.json files use.
func SortSlots(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool {
		return bytes.Compare(slots[i].Key[:], slots[j].Key[:]) < 0
	})
}

// recorder is a KVStore that remembers every slot written to it.
type recorder struct {
	slots map[common.Hash]common.Hash
}

func newRecorder() *recorder {
	return &recorder{slots: make(map[common.Hash]common.Hash)}
}

func (r *recorder) ReadSlot(key common.Hash) (common.Hash, bool, error) {
	value, ok := r.slots[key]
	return value, ok, nil
}

func (r *recorder) WriteSlot(key common.Hash, value common.Hash) error {
	r.slots[key] = value
	return nil
}

func (r *recorder) sorted() []Slot {
	out := make([]Slot, 0, len(r.slots))
	for k, v := range r.slots {
		out = append(out, Slot{Key: k, Value: v})
	}
	SortSlots(out)
	return out
}
