// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package registrydb_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/depot-foundation/depot/lib/account"
	"github.com/depot-foundation/depot/lib/clock"
	"github.com/depot-foundation/depot/lib/registrydb"
	"github.com/depot-foundation/depot/lib/testutil"
)

func openTestJournal(t *testing.T, path string) *registrydb.Journal {
	t.Helper()
	journal, err := registrydb.Open(path, clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := journal.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return journal
}

func TestRecordAndEntries(t *testing.T) {
	journal := openTestJournal(t, filepath.Join(t.TempDir(), "registry.db"))
	ctx := context.Background()
	controlled := testutil.UniqueAddress()

	first := testutil.UniqueAddress()
	second := testutil.UniqueAddress()
	if err := journal.Record(ctx, controlled, "core/framework", first); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := journal.Record(ctx, controlled, "core/extensions", second); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := journal.Entries(ctx, controlled)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Entries returned %d rows, want 2", len(entries))
	}
	if entries[0].Name != "core/framework" || entries[0].Address != first {
		t.Errorf("entry 0 = %q → %s, want core/framework → %s", entries[0].Name, entries[0].Address.Short(), first.Short())
	}
	if entries[1].Name != "core/extensions" || entries[1].Address != second {
		t.Errorf("entry 1 = %q → %s, want core/extensions → %s", entries[1].Name, entries[1].Address.Short(), second.Short())
	}
}

func TestRecordRejectsDuplicate(t *testing.T) {
	journal := openTestJournal(t, filepath.Join(t.TempDir(), "registry.db"))
	ctx := context.Background()
	controlled := testutil.UniqueAddress()

	if err := journal.Record(ctx, controlled, "shared", testutil.UniqueAddress()); err != nil {
		t.Fatalf("Record: %v", err)
	}

	err := journal.Record(ctx, controlled, "shared", testutil.UniqueAddress())
	if !errors.Is(err, registrydb.ErrDuplicateEntry) {
		t.Fatalf("duplicate Record = %v, want ErrDuplicateEntry", err)
	}

	// The original binding survives the rejected rebind.
	entries, err := journal.Entries(ctx, controlled)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("journal has %d entries after rejected duplicate, want 1", len(entries))
	}
}

func TestSameNameDifferentControlledAccounts(t *testing.T) {
	journal := openTestJournal(t, filepath.Join(t.TempDir(), "registry.db"))
	ctx := context.Background()

	if err := journal.Record(ctx, testutil.UniqueAddress(), "shared", testutil.UniqueAddress()); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := journal.Record(ctx, testutil.UniqueAddress(), "shared", testutil.UniqueAddress()); err != nil {
		t.Errorf("same name under a different controlled account = %v, want nil", err)
	}
}

func TestReplayAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")
	ctx := context.Background()
	controlled := testutil.UniqueAddress()
	bound := testutil.UniqueAddress()

	journal, err := registrydb.Open(path, clock.Real(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := journal.Record(ctx, controlled, "survivor", bound); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := openTestJournal(t, path)
	replayed := make(map[string]account.Address)
	err = reopened.Replay(ctx, controlled, func(name string, addr account.Address) error {
		replayed[name] = addr
		return nil
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if replayed["survivor"] != bound {
		t.Errorf("replayed binding = %s, want %s", replayed["survivor"].Short(), bound.Short())
	}
}

func TestReplayStopsOnCallbackError(t *testing.T) {
	journal := openTestJournal(t, filepath.Join(t.TempDir(), "registry.db"))
	ctx := context.Background()
	controlled := testutil.UniqueAddress()

	for _, name := range []string{"a", "b", "c"} {
		if err := journal.Record(ctx, controlled, name, testutil.UniqueAddress()); err != nil {
			t.Fatalf("Record %q: %v", name, err)
		}
	}

	sentinel := errors.New("stop")
	var seen int
	err := journal.Replay(ctx, controlled, func(string, account.Address) error {
		seen++
		if seen == 2 {
			return sentinel
		}
		return nil
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Replay = %v, want wrapped sentinel", err)
	}
	if seen != 2 {
		t.Errorf("callback ran %d times, want 2", seen)
	}
}
