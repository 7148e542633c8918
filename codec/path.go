// Copyright 2025, Offchain Labs, Inc.
// For license information, see https://github.com/OffchainLabs/nitro/blob/master/LICENSE.md

package codec

import (
	"fmt"
	"strconv"
)

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func indexPath(prefix string, i int) string {
	return fmt.Sprintf("%s[%d]", prefix, i)
}

// memberPath names struct members by name and tuple elements by position.
func memberPath(prefix, name string, i int) string {
	if name == "" {
		name = strconv.Itoa(i)
	}
	return joinPath(prefix, name)
}
