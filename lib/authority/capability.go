// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package authority

import (
	"crypto/rand"
	"fmt"

	"github.com/depot-foundation/depot/lib/account"
	"github.com/depot-foundation/depot/lib/secret"
)

// SeedSize is the size of a capability seed in bytes.
const SeedSize = 32

// Capability is the unforgeable token proving the right to act as the
// controlled account. All fields are unexported; the only constructors
// are Vault.Retrieve and MintForTesting.
//
// The seed is held in an mmap-locked secret.Buffer. Close releases it;
// after Close the capability can no longer materialize handles. In
// normal operation the capability is handed to the permission store at
// initialization and lives for the rest of the process.
type Capability struct {
	controlled account.Address
	seed       *secret.Buffer
}

// newCapability wraps a seed buffer. The buffer is owned by the
// returned capability from this point on.
func newCapability(controlled account.Address, seed *secret.Buffer) (*Capability, error) {
	if controlled.IsZero() {
		return nil, fmt.Errorf("authority: controlled account is the null address")
	}
	if seed.Len() != SeedSize {
		return nil, fmt.Errorf("authority: capability seed is %d bytes, want %d", seed.Len(), SeedSize)
	}
	return &Capability{controlled: controlled, seed: seed}, nil
}

// Account returns the controlled account this capability is bound to.
func (c *Capability) Account() account.Address {
	return c.controlled
}

// Close releases the seed memory. After Close, Materialize fails.
func (c *Capability) Close() error {
	return c.seed.Close()
}

// MintForTesting creates a capability with a fresh random seed, bound
// to the given controlled account. It bypasses the vault entirely and
// exists for isolated test execution only — a capability minted here
// corresponds to no provisioned identity.
func MintForTesting(controlled account.Address) (*Capability, error) {
	seedBytes := make([]byte, SeedSize)
	if _, err := rand.Read(seedBytes); err != nil {
		return nil, fmt.Errorf("authority: generating synthetic seed: %w", err)
	}
	seed, err := secret.NewFromBytes(seedBytes)
	if err != nil {
		return nil, fmt.Errorf("authority: protecting synthetic seed: %w", err)
	}
	return newCapability(controlled, seed)
}
