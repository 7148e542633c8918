// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package codec

import (
	"github.com/pkg/errors"

	"github.com/offchainlabs/slotcodec/layout"
)

// Check verifies that v is a value of the given shape. Members of dynamic
// kind may be anchors, since their contents are not held inline.
func Check(shape *layout.Shape, v Value) error {
	return check("", shape, v)
}

func mismatch(path string, shape *layout.Shape, v Value, format string, args ...interface{}) error {
	if path == "" {
		path = "value"
	}
	return errors.Wrapf(ErrShapeMismatch, "%s: %v for %v: "+format, append([]interface{}{path, v.kind, shape}, args...)...)
}

func check(path string, shape *layout.Shape, v Value) error {
	if shape == nil {
		return errors.Wrap(layout.ErrInvalidShape, "missing shape")
	}
	if v.kind != shape.Kind {
		return mismatch(path, shape, v, "wrong kind")
	}
	switch shape.Kind {
	case layout.KindStrArray:
		if uint64(len(v.data)) != shape.Len {
			return mismatch(path, shape, v, "length %d", len(v.data))
		}
	case layout.KindArray:
		if uint64(len(v.items)) != shape.Len {
			return mismatch(path, shape, v, "%d elements", len(v.items))
		}
		for i, item := range v.items {
			if err := check(indexPath(path, i), shape.Elem, item); err != nil {
				return err
			}
		}
	case layout.KindTuple, layout.KindStruct:
		if len(v.items) != len(shape.Fields) {
			return mismatch(path, shape, v, "%d members", len(v.items))
		}
		for i, f := range shape.Fields {
			if err := check(memberPath(path, f.Name, i), f.Shape, v.items[i]); err != nil {
				return err
			}
		}
	case layout.KindEnum:
		if v.tag >= uint64(len(shape.Fields)) {
			return mismatch(path, shape, v, "tag %d of %d variants", v.tag, len(shape.Fields))
		}
		variant := shape.Fields[v.tag]
		return check(joinPath(path, variant.Name), variant.Shape, v.Payload())
	case layout.KindVector:
		for i, item := range v.items {
			if err := check(indexPath(path, i), shape.Elem, item); err != nil {
				return err
			}
		}
	}
	return nil
}
