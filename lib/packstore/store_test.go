// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package packstore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/depot-foundation/depot/lib/authority"
	"github.com/depot-foundation/depot/lib/clock"
	"github.com/depot-foundation/depot/lib/testutil"
)

func testHandle(t *testing.T, clk clock.Clock) *authority.Handle {
	t.Helper()
	capability, err := authority.MintForTesting(testutil.UniqueAddress())
	if err != nil {
		t.Fatalf("MintForTesting: %v", err)
	}
	t.Cleanup(func() { capability.Close() })

	handle, err := authority.Materialize(capability, clk)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	return handle
}

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return store
}

func TestPublishAndRead(t *testing.T) {
	store := testStore(t)
	handle := testHandle(t, clock.Real())

	metadata := []byte(`{"name":"swap","version":1}`)
	modules := [][]byte{
		[]byte(strings.Repeat("compressible module text ", 100)),
		bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 64),
	}

	if err := store.Publish(context.Background(), handle, metadata, modules); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	ids, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("List returned %d packages, want 1", len(ids))
	}

	manifest, err := store.Load(ids[0])
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if manifest.Account != handle.Account() {
		t.Errorf("manifest account = %s, want %s", manifest.Account, handle.Account())
	}
	if !bytes.Equal(manifest.Metadata, metadata) {
		t.Error("metadata was not stored unchanged")
	}
	if len(manifest.Modules) != len(modules) {
		t.Fatalf("manifest has %d modules, want %d", len(manifest.Modules), len(modules))
	}

	for i, reference := range manifest.Modules {
		content, err := store.ReadModule(reference)
		if err != nil {
			t.Fatalf("ReadModule %d: %v", i, err)
		}
		if !bytes.Equal(content, modules[i]) {
			t.Errorf("module %d round trip mismatch", i)
		}
	}
}

func TestPublishIsIdempotentForIdenticalContent(t *testing.T) {
	store := testStore(t)
	handle := testHandle(t, clock.Real())
	ctx := context.Background()

	metadata := []byte("meta")
	modules := [][]byte{[]byte("module body")}

	if err := store.Publish(ctx, handle, metadata, modules); err != nil {
		t.Fatalf("first Publish: %v", err)
	}
	if err := store.Publish(ctx, handle, metadata, modules); err != nil {
		t.Fatalf("second Publish: %v", err)
	}

	ids, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("identical publishes produced %d packages, want 1", len(ids))
	}
}

func TestPublishWithExpiredHandle(t *testing.T) {
	store := testStore(t)
	clk := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	handle := testHandle(t, clk)

	clk.Advance(authority.HandleTTL + time.Minute)

	err := store.Publish(context.Background(), handle, []byte("meta"), [][]byte{[]byte("mod")})
	if !errors.Is(err, authority.ErrHandleExpired) {
		t.Fatalf("Publish with expired handle = %v, want ErrHandleExpired", err)
	}

	// A failed publish leaves no partial package behind.
	ids, listErr := store.List()
	if listErr != nil {
		t.Fatalf("List: %v", listErr)
	}
	if len(ids) != 0 {
		t.Errorf("failed publish left %d packages behind", len(ids))
	}
}

func TestLoadDetectsTampering(t *testing.T) {
	store := testStore(t)
	handle := testHandle(t, clock.Real())

	if err := store.Publish(context.Background(), handle, []byte("meta"), [][]byte{[]byte("mod")}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	ids, err := store.List()
	if err != nil || len(ids) != 1 {
		t.Fatalf("List: %v (%d packages)", err, len(ids))
	}

	// Flip a byte in the stored manifest.
	path := store.manifestPath(ids[0])
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	data[len(data)/2] ^= 0xff
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := store.Load(ids[0]); err == nil {
		t.Error("Load of tampered manifest succeeded")
	}
}

func TestReadModuleDetectsCorruption(t *testing.T) {
	store := testStore(t)
	handle := testHandle(t, clock.Real())

	module := []byte(strings.Repeat("corrupt me ", 50))
	if err := store.Publish(context.Background(), handle, []byte("meta"), [][]byte{module}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	ids, err := store.List()
	if err != nil || len(ids) != 1 {
		t.Fatalf("List: %v (%d packages)", err, len(ids))
	}
	manifest, err := store.Load(ids[0])
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	reference := manifest.Modules[0]
	blob, err := os.ReadFile(store.modulePath(reference.Digest))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	blob[0] ^= 0xff
	if err := os.WriteFile(store.modulePath(reference.Digest), blob, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := store.ReadModule(reference); err == nil {
		t.Error("ReadModule of corrupted blob succeeded")
	}
}

func TestLoadUnknownPackage(t *testing.T) {
	store := testStore(t)
	if _, err := store.Load(HashModule([]byte("no such package"))); !errors.Is(err, ErrPackageNotFound) {
		t.Errorf("Load unknown = %v, want ErrPackageNotFound", err)
	}
}

func TestDigestDomainSeparation(t *testing.T) {
	data := []byte("same input")
	moduleDigest := HashModule(data)
	packageDigest := HashPackage(data, nil)
	if moduleDigest == packageDigest {
		t.Error("module and package digests collide for identical input")
	}
}

func TestCompressRoundTrip(t *testing.T) {
	cases := map[string][]byte{
		"text":         []byte(strings.Repeat("registry controller text ", 200)),
		"binary":       bytes.Repeat([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 100),
		"empty":        {},
		"single":       {0x42},
		"incompressib": {0x9f, 0x1c, 0x84, 0x5a, 0xe3, 0x07, 0x6d, 0xb2, 0x41, 0xf8},
	}

	for name, original := range cases {
		compressed, tag := compress(original)
		restored, err := decompress(compressed, tag, len(original))
		if err != nil {
			t.Errorf("%s: decompress: %v", name, err)
			continue
		}
		if !bytes.Equal(restored, original) {
			t.Errorf("%s: round trip mismatch (tag %s)", name, tag)
		}
	}
}
