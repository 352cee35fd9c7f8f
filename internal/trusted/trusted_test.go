// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package trusted

import (
	"errors"
	"testing"

	"github.com/depot-foundation/depot/internal/permstore"
	"github.com/depot-foundation/depot/lib/testutil"
)

func TestOpenRequiresStore(t *testing.T) {
	if _, err := Open(testutil.UniqueAddress()); !errors.Is(err, permstore.ErrNotInitialized) {
		t.Errorf("Open without store = %v, want ErrNotInitialized", err)
	}
}

func TestGetAuthority(t *testing.T) {
	controlled := testutil.UniqueAddress()
	if _, err := permstore.InitForTesting(controlled); err != nil {
		t.Fatalf("InitForTesting: %v", err)
	}

	access, err := Open(controlled)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	handle, err := access.GetAuthority()
	if err != nil {
		t.Fatalf("GetAuthority: %v", err)
	}
	if handle.Account() != controlled {
		t.Errorf("handle account = %s, want %s", handle.Account(), controlled)
	}

	// Unbounded repetition, same derived identity.
	again, err := access.GetAuthority()
	if err != nil {
		t.Fatalf("second GetAuthority: %v", err)
	}
	if !handle.PublicKey().Equal(again.PublicKey()) {
		t.Error("repeated GetAuthority derived a different key")
	}
}

func TestAddNamedAddress(t *testing.T) {
	controlled := testutil.UniqueAddress()
	store, err := permstore.InitForTesting(controlled)
	if err != nil {
		t.Fatalf("InitForTesting: %v", err)
	}

	access := For(store)
	target := testutil.UniqueAddress()

	if err := access.AddNamedAddress("oracle", target); err != nil {
		t.Fatalf("AddNamedAddress: %v", err)
	}
	got, err := store.Lookup("oracle")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != target {
		t.Errorf("Lookup = %s, want %s", got, target)
	}

	// Duplicate surfaces the store's error unchanged.
	if err := access.AddNamedAddress("oracle", testutil.UniqueAddress()); !errors.Is(err, permstore.ErrDuplicateName) {
		t.Errorf("duplicate AddNamedAddress = %v, want ErrDuplicateName", err)
	}
}
