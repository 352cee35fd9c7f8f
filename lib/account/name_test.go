// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package account

import (
	"strings"
	"testing"
)

func TestValidateName_Valid(t *testing.T) {
	for _, name := range []string{
		"vault",
		"swap/pool",
		"liquidity_pool.v2",
		"a",
		"core/markets/usdc-eth",
		strings.Repeat("a", MaxNameLength),
	} {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", name, err)
		}
	}
}

func TestValidateName_Invalid(t *testing.T) {
	for _, name := range []string{
		"",
		"Vault",
		"has space",
		"/leading",
		"trailing/",
		"double//slash",
		"dot/./segment",
		"dot/../segment",
		strings.Repeat("a", MaxNameLength+1),
	} {
		if err := ValidateName(name); err == nil {
			t.Errorf("ValidateName(%q) succeeded, want error", name)
		}
	}
}
