// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package permstore owns the controlled account's delegated-authority
// capability and the name registry. It provides primitive storage
// operations only — no operation here performs authorization. Callers
// that need gating go through lib/control (the public and privileged
// surfaces) or internal/trusted (the same-module collaborator surface).
//
// One Store exists per controlled-account storage location, held in a
// package-level table. Create installs a store exactly once; the store
// then lives for the rest of the process with no teardown path. The
// test bootstrap InitForTesting installs an equivalent store with a
// synthetic capability and is idempotent.
//
// The package is internal: only code compiled into this module can
// reach the store's primitives or the capability they guard.
package permstore
