// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package packstore is Depot's package-execution platform: a
// content-addressed on-disk store of published code packages.
//
// A publish call takes an authority handle, opaque package metadata,
// and a sequence of code modules. Each module is BLAKE3-digested,
// compressed (zstd or lz4, probed per payload), and written once under
// its digest; a CBOR manifest ties the modules together and carries an
// Ed25519 signature made with the authority handle, so anyone holding
// the controlled account's public key can verify what was published
// under its identity.
//
// Package and module hashes use keyed BLAKE3 with distinct ASCII
// domain keys, so a module digest can never collide with a package
// digest even for identical input bytes.
//
// The store validates nothing about the modules themselves — bytecode
// verification, compilation, and execution belong to the chain
// runtime, not to this store.
package packstore
