// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Depot packages.
//
// [UniqueAddress] and [UniqueName] generate monotonically increasing
// identifiers. The permission store's storage-location table is
// process-wide with no teardown path, so tests that create stores must
// use distinct controlled-account addresses rather than a shared
// constant.
//
// [SocketDir] creates a temporary directory in /tmp suitable for Unix
// domain sockets. Unix domain sockets have a 108-byte path limit
// (sun_path in sockaddr_un), and some environments set TMPDIR to
// deeply nested paths that exceed it, making t.TempDir() unsuitable
// for socket files. The directory is removed when the test completes.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"github.com/depot-foundation/depot/lib/account"
)

var uniqueCounter atomic.Uint64

// UniqueID returns a string of the form "prefix-N" where N is a
// monotonically increasing integer.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}

// UniqueName returns a registry name unique within the test process.
func UniqueName(prefix string) string {
	return UniqueID(prefix)
}

// UniqueAddress returns an account address unique within the test
// process. The counter occupies the high bytes so the addresses never
// collide with the small literal addresses tests write by hand.
func UniqueAddress() account.Address {
	var address account.Address
	binary.BigEndian.PutUint64(address[:8], uniqueCounter.Add(1))
	return address
}

// SocketDir creates a temporary directory suitable for Unix domain
// sockets. Removed automatically when the test completes.
func SocketDir(t *testing.T) string {
	t.Helper()
	directory, err := os.MkdirTemp("/tmp", "depot-test-*")
	if err != nil {
		t.Fatalf("creating socket directory: %v", err)
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(directory)
	})
	return directory
}
