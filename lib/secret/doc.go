// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret provides a memory-safe buffer for sensitive data: the
// controlled account's capability seed, age private keys, and decrypted
// vault bundles.
//
// Buffer allocates memory outside the Go heap via mmap(MAP_ANONYMOUS),
// locks it into physical RAM via mlock (preventing swap), and marks it
// excluded from core dumps via madvise(MADV_DONTDUMP). On Close, the
// memory is zeroed, unlocked, and unmapped.
//
// Because the memory is allocated outside the Go heap, the garbage
// collector never sees it and cannot copy or relocate it. A Buffer is
// therefore also non-duplicable in the sense the capability model
// requires: there is exactly one mapping holding the seed, and assigning
// the *Buffer around moves access to it rather than copying it.
package secret
