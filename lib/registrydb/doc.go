// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package registrydb persists the named-address registry across
// daemon restarts.
//
// The authoritative registry lives in memory inside the permission
// store, where insert-once semantics are enforced. This package is
// the durable journal behind it: every successful registration is
// appended here, and on startup the daemon replays the journal
// through the trusted surface to rebuild the in-memory state. The
// journal mirrors the registry's write-once rule with a primary-key
// constraint, so a replayed or raced duplicate fails loudly instead
// of silently rebinding a name.
//
// Storage is a single SQLite database opened through
// [github.com/depot-foundation/depot/lib/sqlitepool].
package registrydb
