// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package account defines account addresses and registry name validation
// for Depot.
//
// An Address is the 32-byte identifier of an on-platform account. The
// controlled account, the deployer, and every value stored in the name
// registry are all addresses. Addresses are plain immutable scalars —
// they are copied freely and carry no authority by themselves (authority
// lives in lib/authority).
//
// Registry names are the human-readable keys of the name registry. They
// are validated once at the registry boundary so every consumer can treat
// a stored name as well-formed.
package account
