// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed provides age encryption and decryption for Depot
// capability bundles. It wraps filippo.io/age for the specific
// operations the vault needs: generate keypairs, encrypt plaintext to
// multiple recipients, decrypt ciphertext with a private key.
//
// Ciphertext is base64-encoded for storage in the vault's CBOR bundle
// files. The base64 encoding is handled internally — callers pass
// plaintext []byte in and get base64 strings out (and vice versa for
// decryption).
//
// Private keys and decrypted plaintext are returned as *secret.Buffer
// values, which are backed by mmap memory outside the Go heap (locked
// against swap, excluded from core dumps, zeroed on close).
//
// This package is used by:
//   - The vault (seal the capability seed to the deployer's public key,
//     plus an optional operator escrow key)
//   - lib/authority (unseal the capability seed during Retrieve)
package sealed
