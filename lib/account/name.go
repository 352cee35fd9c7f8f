// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package account

import (
	"fmt"
	"strings"
)

// MaxNameLength is the maximum length of a registry name. Names are
// used as map keys and SQLite primary keys only, so the limit exists
// to keep log lines and CLI output readable rather than to satisfy any
// storage constraint.
const MaxNameLength = 128

// allowedNameChars is the set of characters permitted in registry
// names. Checked via a lookup table for O(1) per-character validation.
var allowedNameChars [256]bool

func init() {
	for c := 'a'; c <= 'z'; c++ {
		allowedNameChars[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		allowedNameChars[c] = true
	}
	allowedNameChars['.'] = true
	allowedNameChars['_'] = true
	allowedNameChars['-'] = true
	allowedNameChars['/'] = true
}

// ValidateName checks that a registry name is well-formed.
//
// Rules enforced:
//   - Non-empty
//   - Only lowercase a-z, 0-9, ., _, -, /
//   - No empty segments (double slashes, leading or trailing "/")
//   - No "." or ".." segments
//   - Maximum 128 characters
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("registry name is empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("registry name is %d characters, maximum is %d", len(name), MaxNameLength)
	}

	for i := 0; i < len(name); i++ {
		if !allowedNameChars[name[i]] {
			return fmt.Errorf("invalid character %q at position %d in registry name (allowed: a-z, 0-9, ., _, -, /)", name[i], i)
		}
	}

	for _, segment := range strings.Split(name, "/") {
		if segment == "" {
			return fmt.Errorf("registry name %q contains an empty segment", name)
		}
		if segment == "." || segment == ".." {
			return fmt.Errorf("registry name %q contains a %q segment", name, segment)
		}
	}

	return nil
}
