// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Depotd is the daemon that governs a single controlled account: it
// holds the account's capability, enforces the deployer-only publish
// rule, and serves the insert-once named-address registry.
//
// # Startup
//
// The daemon loads its configuration from DEPOT_CONFIG (or --config),
// then acquires the controlled account's capability. In production
// the capability comes from the vault: the operator supplies the age
// identity via --escrow-key, and the vault's one-shot claim marker
// guarantees the bundle is handed out exactly once. With --dev a
// synthetic capability is minted in-process instead.
//
// Once the capability is held, the daemon initializes the controller,
// opens the package store, and replays the registry journal so that
// every name registered in a previous run is bound again before the
// sockets open.
//
// # Socket API
//
// Two Unix sockets carry the CBOR request-response protocol from
// lib/socketapi:
//
//   - The public socket answers status, exists, lookup, names, and
//     packages queries from anyone on the machine, and accepts
//     publish requests (rejected inside the controller unless the
//     caller is the deployer).
//   - The admin socket accepts register and entries actions. It is
//     the only path that writes the registry; protect it with
//     directory permissions.
package main
