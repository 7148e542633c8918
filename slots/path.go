// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package slots

import (
	"strings"

	"github.com/pkg/errors"
)

const storagePrefix = "storage"

var ErrInvalidFieldPath = errors.New("invalid storage field path")

// FieldPath names a top-level storage field by its declaration site: the
// namespaces it is nested in, outermost first, and the field name.
type FieldPath struct {
	Namespaces []string
	Field      string
}

// NewFieldPath builds a path from literal segments and panics when one of them
// is empty or contains a separator. Use ParseFieldPath for untrusted input.
func NewFieldPath(field string, namespaces ...string) FieldPath {
	p := FieldPath{Namespaces: namespaces, Field: field}
	if err := p.Validate(); err != nil {
		panic(err)
	}
	return p
}

func checkSegment(seg string) error {
	if seg == "" {
		return errors.Wrap(ErrInvalidFieldPath, "empty segment")
	}
	if strings.ContainsAny(seg, ". ") || strings.Contains(seg, "::") {
		return errors.Wrapf(ErrInvalidFieldPath, "segment %q contains a separator", seg)
	}
	return nil
}

// Validate checks that the path's canonical form names it unambiguously: no
// segment may be empty or contain "." or "::".
func (p FieldPath) Validate() error {
	for _, ns := range p.Namespaces {
		if err := checkSegment(ns); err != nil {
			return err
		}
	}
	return checkSegment(p.Field)
}

// String returns the canonical form hashed into the base slot, e.g.
// "storage.counter" or "storage::admin::roles.owners".
func (p FieldPath) String() string {
	var sb strings.Builder
	sb.WriteString(storagePrefix)
	for _, ns := range p.Namespaces {
		sb.WriteString("::")
		sb.WriteString(ns)
	}
	sb.WriteByte('.')
	sb.WriteString(p.Field)
	return sb.String()
}

// ParseFieldPath accepts the canonical form, with or without the leading
// "storage" segment ("counter", "admin::roles.owners" and "storage.counter" are
// all valid).
func ParseFieldPath(s string) (FieldPath, error) {
	if s == "" {
		return FieldPath{}, errors.Wrap(ErrInvalidFieldPath, "empty path")
	}
	dot := strings.LastIndexByte(s, '.')
	var prefix, field string
	if dot < 0 {
		prefix, field = "", s
	} else {
		prefix, field = s[:dot], s[dot+1:]
	}
	if field == "" || strings.Contains(field, "::") {
		return FieldPath{}, errors.Wrapf(ErrInvalidFieldPath, "missing field name in %q", s)
	}
	var namespaces []string
	if prefix != "" {
		segments := strings.Split(prefix, "::")
		if segments[0] == storagePrefix {
			segments = segments[1:]
		}
		if len(segments) > 0 {
			namespaces = segments
		}
	}
	p := FieldPath{Namespaces: namespaces, Field: field}
	if err := p.Validate(); err != nil {
		return FieldPath{}, errors.Wrapf(err, "parsing %q", s)
	}
	return p, nil
}

func MustParseFieldPath(s string) FieldPath {
	p, err := ParseFieldPath(s)
	if err != nil {
		panic(err)
	}
	return p
}
