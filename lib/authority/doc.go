// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package authority models the delegated authority of the controlled
// account as an unforgeable capability.
//
// A Capability is the proof of the right to act as the controlled
// account. It has no exported fields and no exported constructor: the
// only ways to obtain one are Vault.Retrieve (the identity-provisioning
// path, which succeeds exactly once and only for the registered
// deployer) and MintForTesting (a synthetic capability for isolated
// tests). The capability's seed lives in an mmap-locked secret.Buffer,
// so a struct copy of a Capability shares rather than duplicates the
// underlying secret — there is never a second independent copy of the
// seed in memory.
//
// A Handle is the short-lived, usable form of the authority: an Ed25519
// signer derived deterministically from the capability seed via HKDF.
// Materializing a handle is pure and repeatable; the capability itself
// is never consumed or exposed. Handles expire after HandleTTL and
// refuse to sign afterwards.
package authority
