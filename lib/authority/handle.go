// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package authority

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"

	"github.com/depot-foundation/depot/lib/account"
	"github.com/depot-foundation/depot/lib/clock"
)

// HandleTTL is how long a materialized handle remains usable. Handles
// are cheap to materialize, so consumers take a fresh one per operation
// rather than holding one across a long-running task.
const HandleTTL = 5 * time.Minute

// handleDerivationInfo is the HKDF info string binding derived keys to
// this use. Changing it changes every derived signing key — it is a
// protocol constant.
const handleDerivationInfo = "depot/authority/handle/v1"

// ErrHandleExpired is returned by Handle.Sign after the handle's TTL
// has elapsed.
var ErrHandleExpired = errors.New("authority: handle has expired")

// Handle is a short-lived, usable form of the controlled account's
// authority: an Ed25519 signer plus an expiry. Handles are derived
// deterministically from the capability seed, so every handle for a
// given capability signs under the same public key.
type Handle struct {
	controlled account.Address
	key        ed25519.PrivateKey
	expiresAt  time.Time
	clk        clock.Clock
}

// Materialize derives a handle from the capability. The derivation is
// pure: it does not consume or mutate the capability, and can be
// repeated any number of times. The handle expires HandleTTL after
// materialization.
func Materialize(c *Capability, clk clock.Clock) (*Handle, error) {
	reader := hkdf.New(sha256.New, c.seed.Bytes(), c.controlled[:], []byte(handleDerivationInfo))
	keySeed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(reader, keySeed); err != nil {
		return nil, fmt.Errorf("authority: deriving handle key: %w", err)
	}

	return &Handle{
		controlled: c.controlled,
		key:        ed25519.NewKeyFromSeed(keySeed),
		expiresAt:  clk.Now().Add(HandleTTL),
		clk:        clk,
	}, nil
}

// Account returns the controlled account the handle acts as.
func (h *Handle) Account() account.Address {
	return h.controlled
}

// PublicKey returns the Ed25519 public key the handle signs under.
// Stable across materializations of the same capability.
func (h *Handle) PublicKey() ed25519.PublicKey {
	return h.key.Public().(ed25519.PublicKey)
}

// ExpiresAt returns when the handle stops signing.
func (h *Handle) ExpiresAt() time.Time {
	return h.expiresAt
}

// Sign signs payload as the controlled account. Returns
// ErrHandleExpired once the TTL has elapsed; the caller must
// materialize a fresh handle.
func (h *Handle) Sign(payload []byte) ([]byte, error) {
	if h.clk.Now().After(h.expiresAt) {
		return nil, ErrHandleExpired
	}
	return ed25519.Sign(h.key, payload), nil
}
