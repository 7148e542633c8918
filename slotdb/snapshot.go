// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package slotdb

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/pkg/errors"

	"github.com/offchainlabs/slotcodec/storage"
)

// CompressedSuffix marks brotli compressed snapshot files.
const CompressedSuffix = ".br"

// WriteSnapshot writes slots in key order as a storage_slots.json array,
// brotli compressed when level is not negative.
func WriteSnapshot(w io.Writer, slots []storage.Slot, level int) error {
	sorted := make([]storage.Slot, len(slots))
	copy(sorted, slots)
	storage.SortSlots(sorted)
	if level < 0 {
		return writeSlotsJSON(w, sorted)
	}
	compressor := brotli.NewWriterLevel(w, level)
	if err := writeSlotsJSON(compressor, sorted); err != nil {
		return err
	}
	return compressor.Close()
}

func writeSlotsJSON(w io.Writer, slots []storage.Slot) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(slots)
}

// ReadSnapshot reads a storage_slots.json array.
func ReadSnapshot(r io.Reader, compressed bool) ([]storage.Slot, error) {
	if compressed {
		r = brotli.NewReader(r)
	}
	var slots []storage.Slot
	if err := json.NewDecoder(r).Decode(&slots); err != nil {
		return nil, errors.Wrap(err, "reading slot snapshot")
	}
	return slots, nil
}

// WriteSnapshotFile writes a snapshot to path, compressing it when the path
// ends in CompressedSuffix.
func WriteSnapshotFile(path string, slots []storage.Slot) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	level := -1
	if strings.HasSuffix(path, CompressedSuffix) {
		level = brotli.DefaultCompression
	}
	if err := WriteSnapshot(file, slots, level); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func ReadSnapshotFile(path string) ([]storage.Slot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadSnapshot(file, strings.HasSuffix(path, CompressedSuffix))
}
