// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package layout

import (
	"github.com/r3labs/diff/v3"
)

type placement struct {
	Offset uint64 `diff:"offset"`
	Kind   string `diff:"kind"`
}

// Change is a difference between two layouts of the same storage field.
// Compatible changes only add leaves that previous data never occupied.
type Change struct {
	Path       string
	Type       string
	Compatible bool
	From       interface{}
	To         interface{}
}

func placements(l *Layout) map[string]placement {
	out := make(map[string]placement)
	for _, o := range l.Offsets() {
		out[o.Path] = placement{Offset: o.Offset, Kind: o.Kind.String()}
	}
	return out
}

// Compare reports how the layout of a field changes between two versions of
// its type. Moving, retyping or removing a leaf is incompatible with data
// already in storage. Adding a leaf is compatible when it lies past the end
// of the old value.
func Compare(previous, next *Layout) ([]Change, error) {
	changelog, err := diff.Diff(placements(previous), placements(next))
	if err != nil {
		return nil, err
	}
	var changes []Change
	index := make(map[string]int)
	for _, c := range changelog {
		if len(c.Path) == 0 {
			continue
		}
		path := c.Path[0]
		i, ok := index[path]
		if !ok {
			i = len(changes)
			index[path] = i
			changes = append(changes, Change{Path: path, Type: c.Type})
		}
		change := &changes[i]
		if c.Type != diff.CREATE {
			change.Type = c.Type
		}
		if len(c.Path) == 1 || c.Path[1] == "offset" {
			change.From, change.To = c.From, c.To
		}
	}
	for i := range changes {
		change := &changes[i]
		if change.Type != diff.CREATE {
			continue
		}
		switch to := change.To.(type) {
		case uint64:
			change.Compatible = to >= previous.Words
		case placement:
			change.Compatible = to.Offset >= previous.Words
		}
	}
	return changes, nil
}

// Compatible is true when none of the changes invalidate existing data.
func Compatible(changes []Change) bool {
	for _, c := range changes {
		if !c.Compatible {
			return false
		}
	}
	return true
}
