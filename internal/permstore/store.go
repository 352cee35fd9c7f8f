// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package permstore

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/depot-foundation/depot/lib/account"
	"github.com/depot-foundation/depot/lib/authority"
	"github.com/depot-foundation/depot/lib/clock"
)

// Errors returned by store operations.
var (
	// ErrAlreadyInitialized is returned by Create when a store already
	// exists for the controlled account's storage location.
	ErrAlreadyInitialized = errors.New("permstore: store already exists for account")

	// ErrNotInitialized is returned by Open when no store exists for
	// the controlled account.
	ErrNotInitialized = errors.New("permstore: no store for account")

	// ErrDuplicateName is returned by Insert when the name is already
	// registered. The existing mapping is left unchanged.
	ErrDuplicateName = errors.New("permstore: name already registered")

	// ErrNameNotFound is returned by Lookup for an absent name.
	ErrNameNotFound = errors.New("permstore: name not found")
)

// Store holds the delegated-authority capability and the name registry
// for one controlled account. The capability is set at creation and
// never reassigned; registry entries are inserted once and never
// removed or overwritten.
//
// Store is safe for concurrent use. Each operation is atomic: it fully
// completes or fully fails with no partial mutation.
type Store struct {
	capability *authority.Capability
	clk        clock.Clock

	mu       sync.RWMutex
	registry map[string]account.Address
}

// stores is the process-wide table of storage locations. The host
// environment's "one record per location" semantic lives here: Create
// refuses a second store for the same controlled account.
var (
	storesMu sync.Mutex
	stores   = make(map[account.Address]*Store)
)

// Create installs the store for the capability's controlled account
// with an empty registry. Fails with ErrAlreadyInitialized if a store
// already exists at that location. The capability is owned by the
// store from this point on.
func Create(capability *authority.Capability, clk clock.Clock) (*Store, error) {
	storesMu.Lock()
	defer storesMu.Unlock()

	controlled := capability.Account()
	if _, exists := stores[controlled]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, controlled.Short())
	}

	store := &Store{
		capability: capability,
		clk:        clk,
		registry:   make(map[string]account.Address),
	}
	stores[controlled] = store
	return store, nil
}

// Open returns the existing store for a controlled account, or
// ErrNotInitialized if Create has not run for it.
func Open(controlled account.Address) (*Store, error) {
	storesMu.Lock()
	defer storesMu.Unlock()

	store, exists := stores[controlled]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotInitialized, controlled.Short())
	}
	return store, nil
}

// InitForTesting installs a store with a synthetic capability for the
// given controlled account. Idempotent: if a store already exists at
// the location, it is returned unchanged — two calls never produce two
// records or an error. For isolated test execution only.
func InitForTesting(controlled account.Address) (*Store, error) {
	storesMu.Lock()
	defer storesMu.Unlock()

	if store, exists := stores[controlled]; exists {
		return store, nil
	}

	capability, err := authority.MintForTesting(controlled)
	if err != nil {
		return nil, fmt.Errorf("permstore: minting synthetic capability: %w", err)
	}
	store := &Store{
		capability: capability,
		clk:        clock.Real(),
		registry:   make(map[string]account.Address),
	}
	stores[controlled] = store
	return store, nil
}

// Account returns the controlled account this store belongs to.
func (s *Store) Account() account.Address {
	return s.capability.Account()
}

// MaterializeAuthority derives a fresh authority handle from the
// stored capability. Pure and repeatable: the capability is neither
// consumed nor mutated, and there is no limit on the number of handles
// materialized.
func (s *Store) MaterializeAuthority() (*authority.Handle, error) {
	return authority.Materialize(s.capability, s.clk)
}

// Insert adds a new name → address mapping. Fails with
// ErrDuplicateName if the name is already registered, leaving the
// existing mapping unchanged. Names are validated here so everything
// downstream can trust stored keys.
func (s *Store) Insert(name string, address account.Address) error {
	if err := account.ValidateName(name); err != nil {
		return fmt.Errorf("permstore: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.registry[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	s.registry[name] = address
	return nil
}

// Contains reports whether a name is registered.
func (s *Store) Contains(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.registry[name]
	return exists
}

// Lookup returns the address registered under name, or ErrNameNotFound.
// The address is returned by value — registry entries are immutable
// scalars.
func (s *Store) Lookup(name string) (account.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	address, exists := s.registry[name]
	if !exists {
		return account.Address{}, fmt.Errorf("%w: %q", ErrNameNotFound, name)
	}
	return address, nil
}

// Names returns all registered names, sorted. Used by the daemon's
// admin listing; the registry itself has no ordering.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.registry))
	for name := range s.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
