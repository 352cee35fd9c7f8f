// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

// Package trusted is the same-module collaborator surface over the
// permission store. Code compiled into this module — the daemon's
// bootstrap, the registry journal replay, sibling services shipped in
// this repository — obtains the controlled account's authority and
// registers discovered addresses through it, with no caller identity
// check: being inside the module is the authorization.
//
// The package sits under internal/ precisely so that boundary holds at
// compile time. External importers see only lib/control's read-only
// and deployer-gated operations.
package trusted

import (
	"github.com/depot-foundation/depot/internal/permstore"
	"github.com/depot-foundation/depot/lib/account"
	"github.com/depot-foundation/depot/lib/authority"
)

// Access is a handle on the controlled account's store for trusted
// collaborators.
type Access struct {
	store *permstore.Store
}

// Open returns the collaborator surface for a controlled account's
// store. Fails with permstore.ErrNotInitialized if the store has not
// been created.
func Open(controlled account.Address) (*Access, error) {
	store, err := permstore.Open(controlled)
	if err != nil {
		return nil, err
	}
	return &Access{store: store}, nil
}

// For wraps an already-held store. Used by the daemon, which creates
// the store itself during bootstrap.
func For(store *permstore.Store) *Access {
	return &Access{store: store}
}

// GetAuthority materializes the controlled account's authority for the
// collaborator to exercise independently — for example, to sign
// operations as the controlled account. Callable any number of times;
// each call yields a fresh handle.
func (a *Access) GetAuthority() (*authority.Handle, error) {
	return a.store.MaterializeAuthority()
}

// AddNamedAddress registers a name → address mapping. Surfaces
// permstore.ErrDuplicateName unchanged if the name is taken.
func (a *Access) AddNamedAddress(name string, address account.Address) error {
	return a.store.Insert(name, address)
}
