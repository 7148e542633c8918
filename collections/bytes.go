// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package collections

import (
	"github.com/pkg/errors"

	"github.com/offchainlabs/slotcodec/layout"
	"github.com/offchainlabs/slotcodec/slots"
	"github.com/offchainlabs/slotcodec/storage"
)

// Bytes is a handle on a StorageBytes.
type Bytes struct {
	storage *storage.Storage
}

func OpenBytes(s *storage.Storage) (*Bytes, error) {
	if kind := s.Shape().Kind; kind != layout.KindBytes && kind != layout.KindString {
		return nil, errors.Wrapf(ErrNotCollection, "%v is not a byte string", s.Shape())
	}
	return &Bytes{storage: s}, nil
}

func NewBytes(root *storage.Root, path slots.FieldPath) (*Bytes, error) {
	s, err := root.Field(path, layout.Bytes())
	if err != nil {
		return nil, err
	}
	return OpenBytes(s)
}

func (b *Bytes) Len() (uint64, error) {
	return b.storage.GetBytesSize()
}

func (b *Bytes) IsEmpty() (bool, error) {
	n, err := b.Len()
	return n == 0, err
}

func (b *Bytes) Get() ([]byte, error) {
	return b.storage.GetBytes()
}

// Set replaces the contents, zeroing the data slots of the old contents.
func (b *Bytes) Set(data []byte) error {
	return b.storage.SetBytes(data)
}

func (b *Bytes) Clear() error {
	return b.storage.ClearBytes()
}

// Append adds data to the end of the contents.
func (b *Bytes) Append(data []byte) error {
	old, err := b.Get()
	if err != nil {
		return err
	}
	return b.Set(append(old, data...))
}

// String is a handle on a StorageString.
type String struct {
	bytes Bytes
}

func OpenString(s *storage.Storage) (*String, error) {
	if s.Shape().Kind != layout.KindString {
		return nil, errors.Wrapf(ErrNotCollection, "%v is not a StorageString", s.Shape())
	}
	return &String{bytes: Bytes{storage: s}}, nil
}

func NewString(root *storage.Root, path slots.FieldPath) (*String, error) {
	s, err := root.Field(path, layout.String())
	if err != nil {
		return nil, err
	}
	return OpenString(s)
}

func (s *String) Len() (uint64, error) {
	return s.bytes.Len()
}

func (s *String) Get() (string, error) {
	b, err := s.bytes.Get()
	return string(b), err
}

func (s *String) Set(text string) error {
	return s.bytes.Set([]byte(text))
}

func (s *String) Clear() error {
	return s.bytes.Clear()
}
