// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package authority

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/depot-foundation/depot/lib/account"
	"github.com/depot-foundation/depot/lib/codec"
	"github.com/depot-foundation/depot/lib/sealed"
	"github.com/depot-foundation/depot/lib/secret"
)

// Errors returned by Vault operations.
var (
	// ErrNotProvisioned is returned by Retrieve when no bundle exists
	// for the controlled account.
	ErrNotProvisioned = errors.New("authority: no capability bundle for account")

	// ErrAlreadyProvisioned is returned by Provision when a bundle
	// already exists for the controlled account.
	ErrAlreadyProvisioned = errors.New("authority: capability bundle already exists")

	// ErrNotDeployer is returned by Retrieve when the caller is not
	// the registered deployer for the controlled account.
	ErrNotDeployer = errors.New("authority: caller is not the registered deployer")

	// ErrAlreadyClaimed is returned by Retrieve when the capability
	// has already been handed out. Retrieval is a one-shot transfer:
	// after the first success, the bundle is spent.
	ErrAlreadyClaimed = errors.New("authority: capability already claimed")
)

// bundleVersion is the format version of vault bundle files.
const bundleVersion = 1

// bundle is the on-disk form of a sealed capability. The seed is age-
// encrypted to the recipients; everything else is plaintext metadata.
type bundle struct {
	Version    int             `cbor:"version"`
	Account    account.Address `cbor:"account"`
	Deployer   account.Address `cbor:"deployer"`
	Recipients []string        `cbor:"recipients"`
	Ciphertext string          `cbor:"ciphertext"`
	CreatedAt  int64           `cbor:"created_at"`
}

// Vault is the identity-provisioning store: a directory of sealed
// capability bundles, one per controlled account. Provisioning mints a
// capability seed and seals it; retrieval hands the capability to the
// registered deployer exactly once.
type Vault struct {
	dir string
}

// OpenVault opens (creating if necessary) a vault directory.
func OpenVault(dir string) (*Vault, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("authority: creating vault directory: %w", err)
	}
	return &Vault{dir: dir}, nil
}

// bundlePath returns the bundle file path for a controlled account.
func (v *Vault) bundlePath(controlled account.Address) string {
	return filepath.Join(v.dir, controlled.String()+".cap")
}

// claimPath returns the claim marker path for a controlled account.
func (v *Vault) claimPath(controlled account.Address) string {
	return v.bundlePath(controlled) + ".claimed"
}

// Provision mints a fresh capability seed for the controlled account,
// seals it to the recipient age public keys, and records the deployer
// as the one principal entitled to retrieve it. Fails with
// ErrAlreadyProvisioned if a bundle already exists — a controlled
// account's capability is minted exactly once.
func (v *Vault) Provision(controlled, deployer account.Address, recipientKeys []string) error {
	if controlled.IsZero() {
		return fmt.Errorf("authority: controlled account is the null address")
	}
	if deployer.IsZero() {
		return fmt.Errorf("authority: deployer is the null address")
	}
	for _, key := range recipientKeys {
		if err := sealed.ParsePublicKey(key); err != nil {
			return fmt.Errorf("authority: recipient key: %w", err)
		}
	}

	if _, err := os.Stat(v.bundlePath(controlled)); err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyProvisioned, controlled.Short())
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("authority: checking bundle: %w", err)
	}

	seedBytes := make([]byte, SeedSize)
	if _, err := rand.Read(seedBytes); err != nil {
		return fmt.Errorf("authority: generating capability seed: %w", err)
	}

	ciphertext, err := sealed.Encrypt(seedBytes, recipientKeys)
	if err != nil {
		secret.Zero(seedBytes)
		return fmt.Errorf("authority: sealing capability seed: %w", err)
	}
	// sealed.Encrypt does not consume the plaintext; drop our copy now.
	secret.Zero(seedBytes)

	data, err := codec.Marshal(bundle{
		Version:    bundleVersion,
		Account:    controlled,
		Deployer:   deployer,
		Recipients: recipientKeys,
		Ciphertext: ciphertext,
		CreatedAt:  time.Now().UTC().Unix(),
	})
	if err != nil {
		return fmt.Errorf("authority: encoding bundle: %w", err)
	}

	if err := os.WriteFile(v.bundlePath(controlled), data, 0o600); err != nil {
		return fmt.Errorf("authority: writing bundle: %w", err)
	}
	return nil
}

// Retrieve hands the controlled account's capability to the caller.
// The caller must be the deployer recorded at provisioning time
// (ErrNotDeployer otherwise), must hold a private key matching one of
// the bundle's recipients, and may succeed at most once per account
// (ErrAlreadyClaimed afterwards).
//
// On success the claim marker is written before the capability is
// returned, so a crash between the two leaves the bundle spent rather
// than duplicable.
func (v *Vault) Retrieve(caller, controlled account.Address, privateKey *secret.Buffer) (*Capability, error) {
	data, err := os.ReadFile(v.bundlePath(controlled))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotProvisioned, controlled.Short())
		}
		return nil, fmt.Errorf("authority: reading bundle: %w", err)
	}

	var b bundle
	if err := codec.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("authority: decoding bundle: %w", err)
	}
	if b.Version != bundleVersion {
		return nil, fmt.Errorf("authority: unsupported bundle version %d", b.Version)
	}

	if caller != b.Deployer {
		return nil, fmt.Errorf("%w: caller %s, deployer %s", ErrNotDeployer, caller.Short(), b.Deployer.Short())
	}

	if _, err := os.Stat(v.claimPath(controlled)); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyClaimed, controlled.Short())
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("authority: checking claim marker: %w", err)
	}

	seed, err := sealed.Decrypt(b.Ciphertext, privateKey)
	if err != nil {
		return nil, fmt.Errorf("authority: unsealing capability: %w", err)
	}

	capability, err := newCapability(b.Account, seed)
	if err != nil {
		seed.Close()
		return nil, err
	}

	// Mark the bundle spent. O_EXCL closes the race between two
	// concurrent retrievals: exactly one creates the marker.
	marker, err := os.OpenFile(v.claimPath(controlled), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		capability.Close()
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyClaimed, controlled.Short())
		}
		return nil, fmt.Errorf("authority: writing claim marker: %w", err)
	}
	marker.Close()

	return capability, nil
}
