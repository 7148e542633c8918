// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package codec

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrShortInput      = errors.New("input too short")
	ErrTrailingBytes   = errors.New("trailing bytes")
	ErrInvalidBool     = errors.New("invalid bool")
	ErrIntegerOverflow = errors.New("integer does not fit its type")
	ErrUnknownVariant  = errors.New("unknown enum variant")
	ErrNonZeroPadding  = errors.New("non-zero padding")
	ErrShapeMismatch   = errors.New("value does not match shape")
)

// DecodeError reports malformed stored or encoded data. Path names the
// offending member and Offset its position, in words for storage and in
// bytes at the call boundary.
type DecodeError struct {
	Path   string
	Offset uint64
	Err    error
}

func (e *DecodeError) Error() string {
	path := e.Path
	if path == "" {
		path = "value"
	}
	return fmt.Sprintf("decoding %s at offset %d: %v", path, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func NewDecodeError(path string, offset uint64, err error) *DecodeError {
	return &DecodeError{Path: path, Offset: offset, Err: err}
}

// IsDecodeError reports whether err stems from malformed data rather than
// from a bad shape or a failing backend.
func IsDecodeError(err error) bool {
	var decodeErr *DecodeError
	return errors.As(err, &decodeErr)
}
