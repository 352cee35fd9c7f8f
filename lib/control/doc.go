// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package control gates access to the permission store behind identity
// checks. It distinguishes three trust tiers:
//
//   - Public reads: NamedAddressExists and GetNamedAddress are pure
//     pass-throughs to the registry, callable by anyone. Registry
//     contents are not secret.
//   - The privileged entry point: PublishPackage first checks the
//     caller against the configured deployer — on every invocation,
//     with no caching of past decisions — and only then materializes
//     the controlled account's authority and forwards to the package
//     platform.
//   - The trusted collaborator surface (GetAuthority, AddNamedAddress)
//     lives in internal/trusted, reachable only from code compiled
//     into this module.
//
// The controller performs no error translation: the store's errors and
// the platform's errors surface to callers unchanged.
package control
