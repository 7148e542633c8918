// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package layout

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// TagMember names the discriminant word of an enum.
const TagMember = "#tag"

var ErrNoSuchMember = errors.New("no such member")

// Member is a direct part of a value: a struct field, tuple or array element,
// the tag of an enum, or the payload of one of its variants. Offsets are in
// words from the start of the enclosing value. Suffix is the input used to
// derive the member's field id from the parent's.
type Member struct {
	Name   string
	Offset uint64
	Words  uint64
	Shape  *Shape
	Suffix []byte
}

type Layout struct {
	Shape   *Shape
	Words   uint64
	Members []Member

	planner *Planner
}

// Slots is the number of whole storage slots spanned by the value.
func (l *Layout) Slots() uint64 {
	return SlotsFor(l.Words)
}

// Planner returns the planner that produced the layout, with its size cache.
func (l *Layout) Planner() *Planner {
	return l.planner
}

func (l *Layout) Member(name string) (Member, bool) {
	for _, m := range l.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// Sub plans the layout of one of the value's members. Offsets in the result
// are relative to the member.
func (l *Layout) Sub(m Member) (*Layout, error) {
	return l.planner.Plan(m.Shape)
}

// Location is a resolved member path.
type Location struct {
	Path     string
	Offset   uint64
	Words    uint64
	Shape    *Shape
	Suffixes [][]byte
}

// Lookup resolves a member path such as "config.limits[2].max" or
// "pair.0". Enum payloads are addressed by variant name, and the tag by
// "#tag". The empty path resolves to the whole value.
func (l *Layout) Lookup(path string) (Location, error) {
	segments, err := splitPath(path)
	if err != nil {
		return Location{}, err
	}
	loc := Location{Path: path, Words: l.Words, Shape: l.Shape}
	current := l
	for i, seg := range segments {
		m, ok := current.Member(seg)
		if !ok {
			return Location{}, errors.Wrapf(ErrNoSuchMember, "%q in %v", strings.Join(segments[:i+1], "."), l.Shape)
		}
		loc.Offset += m.Offset
		loc.Words = m.Words
		loc.Shape = m.Shape
		if m.Suffix != nil {
			loc.Suffixes = append(loc.Suffixes, m.Suffix)
		}
		if i+1 < len(segments) {
			current, err = current.Sub(m)
			if err != nil {
				return Location{}, err
			}
		}
	}
	return loc, nil
}

// splitPath turns "a.b[2].c" into ["a", "b", "[2]", "c"].
func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	var segments []string
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return nil, errors.Wrapf(ErrNoSuchMember, "empty segment in %q", path)
		}
		open := strings.IndexByte(part, '[')
		if open < 0 {
			segments = append(segments, part)
			continue
		}
		if open > 0 {
			segments = append(segments, part[:open])
		}
		for rest := part[open:]; rest != ""; {
			end := strings.IndexByte(rest, ']')
			if rest[0] != '[' || end < 0 {
				return nil, errors.Wrapf(ErrNoSuchMember, "malformed index in %q", path)
			}
			index, err := strconv.ParseUint(rest[1:end], 10, 64)
			if err != nil {
				return nil, errors.Wrapf(ErrNoSuchMember, "bad index %q in %q", rest[1:end], path)
			}
			segments = append(segments, "["+strconv.FormatUint(index, 10)+"]")
			rest = rest[end+1:]
		}
	}
	return segments, nil
}

// Offset is one leaf of a flattened layout.
type Offset struct {
	Path   string
	Offset uint64
	Kind   Kind
}

// Offsets flattens the layout into the word offsets of its scalar leaves,
// enum tags and dynamic anchors, in placement order. Payloads of different
// enum variants overlap.
func (l *Layout) Offsets() []Offset {
	var out []Offset
	l.flatten("", 0, l.Shape, &out)
	return out
}

func (l *Layout) flatten(prefix string, base uint64, shape *Shape, out *[]Offset) {
	switch shape.Kind {
	case KindUnit:
		return
	case KindArray, KindTuple, KindStruct, KindEnum:
		members, err := l.planner.members(shape)
		if err != nil {
			// unreachable: inline shapes were sized when the layout was planned
			return
		}
		for _, m := range members {
			path := joinPath(prefix, m.Name)
			if m.Name == TagMember {
				*out = append(*out, Offset{Path: path, Offset: base, Kind: KindU64})
				continue
			}
			l.flatten(path, base+m.Offset, m.Shape, out)
		}
	default:
		*out = append(*out, Offset{Path: prefix, Offset: base, Kind: shape.Kind})
	}
}

func joinPath(prefix, name string) string {
	if prefix == "" || strings.HasPrefix(name, "[") {
		return prefix + name
	}
	return prefix + "." + name
}
