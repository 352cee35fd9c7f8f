// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/depot-foundation/depot/lib/account"
	"github.com/depot-foundation/depot/lib/authority"
	"github.com/depot-foundation/depot/lib/testutil"
)

// recordingPlatform captures publish calls for assertions.
type recordingPlatform struct {
	calls []publishCall
	err   error
}

type publishCall struct {
	handle   *authority.Handle
	metadata []byte
	modules  [][]byte
}

func (p *recordingPlatform) Publish(ctx context.Context, handle *authority.Handle, metadata []byte, modules [][]byte) error {
	if p.err != nil {
		return p.err
	}
	p.calls = append(p.calls, publishCall{handle: handle, metadata: metadata, modules: modules})
	return nil
}

func testController(t *testing.T) (*Controller, *recordingPlatform, account.Address) {
	t.Helper()
	platform := &recordingPlatform{}
	deployer := testutil.UniqueAddress()
	controller, err := InitForTesting(testutil.UniqueAddress(), deployer, platform)
	if err != nil {
		t.Fatalf("InitForTesting: %v", err)
	}
	return controller, platform, deployer
}

func TestPublishPackageByStranger(t *testing.T) {
	controller, platform, _ := testController(t)

	stranger := testutil.UniqueAddress()
	err := controller.PublishPackage(context.Background(), stranger, []byte("meta"), [][]byte{[]byte("mod")})
	if !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("PublishPackage by stranger = %v, want ErrNotAuthorized", err)
	}
	if len(platform.calls) != 0 {
		t.Error("platform was called despite authorization failure")
	}
	if names := controller.Names(); len(names) != 0 {
		t.Errorf("registry changed by failed publish: %v", names)
	}
}

func TestPublishPackageByDeployer(t *testing.T) {
	controller, platform, deployer := testController(t)

	metadata := []byte("package metadata")
	modules := [][]byte{[]byte("module one"), []byte("module two")}

	if err := controller.PublishPackage(context.Background(), deployer, metadata, modules); err != nil {
		t.Fatalf("PublishPackage: %v", err)
	}

	if len(platform.calls) != 1 {
		t.Fatalf("platform called %d times, want 1", len(platform.calls))
	}
	call := platform.calls[0]
	if call.handle.Account() != controller.Account() {
		t.Errorf("handle account = %s, want %s", call.handle.Account(), controller.Account())
	}
	if !bytes.Equal(call.metadata, metadata) {
		t.Error("metadata was not forwarded unchanged")
	}
	if len(call.modules) != len(modules) {
		t.Fatalf("forwarded %d modules, want %d", len(call.modules), len(modules))
	}
	for i := range modules {
		if !bytes.Equal(call.modules[i], modules[i]) {
			t.Errorf("module %d was not forwarded unchanged", i)
		}
	}

	// Publishing itself must not touch the registry.
	if names := controller.Names(); len(names) != 0 {
		t.Errorf("registry changed by publish: %v", names)
	}
}

func TestPublishPackagePlatformErrorPassthrough(t *testing.T) {
	platform := &recordingPlatform{err: errors.New("platform rejected bytecode")}
	deployer := testutil.UniqueAddress()
	controller, err := InitForTesting(testutil.UniqueAddress(), deployer, platform)
	if err != nil {
		t.Fatalf("InitForTesting: %v", err)
	}

	err = controller.PublishPackage(context.Background(), deployer, []byte("meta"), nil)
	if !errors.Is(err, platform.err) {
		t.Errorf("platform error was translated: got %v, want %v", err, platform.err)
	}
}

func TestAuthorizationRecheckedEveryCall(t *testing.T) {
	controller, platform, deployer := testController(t)
	ctx := context.Background()

	if err := controller.PublishPackage(ctx, deployer, []byte("meta"), nil); err != nil {
		t.Fatalf("deployer publish: %v", err)
	}
	// A prior success must not leak authorization to another caller.
	if err := controller.PublishPackage(ctx, testutil.UniqueAddress(), []byte("meta"), nil); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("stranger publish after deployer success = %v, want ErrNotAuthorized", err)
	}
	if len(platform.calls) != 1 {
		t.Errorf("platform called %d times, want 1", len(platform.calls))
	}
}

func TestReadSurface(t *testing.T) {
	controller, _, _ := testController(t)

	vault := account.MustParseAddress("0xaa")
	name := testutil.UniqueName("vault")

	if controller.NamedAddressExists(name) {
		t.Error("NamedAddressExists before registration = true")
	}
	if _, err := controller.GetNamedAddress(name); !errors.Is(err, ErrNameNotFound) {
		t.Errorf("GetNamedAddress before registration = %v, want ErrNameNotFound", err)
	}

	// Registration goes through the store; reads must observe it.
	if err := controller.store.Insert(name, vault); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !controller.NamedAddressExists(name) {
		t.Error("NamedAddressExists after registration = false")
	}
	got, err := controller.GetNamedAddress(name)
	if err != nil {
		t.Fatalf("GetNamedAddress: %v", err)
	}
	if got != vault {
		t.Errorf("GetNamedAddress = %s, want %s", got, vault)
	}
}

// TestRegistryScenario walks the canonical insert-once flow end to end.
func TestRegistryScenario(t *testing.T) {
	controller, _, _ := testController(t)

	first := account.MustParseAddress("0xaa")
	second := account.MustParseAddress("0xbb")

	if err := controller.store.Insert("vault", first); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, err := controller.GetNamedAddress("vault")
	if err != nil || got != first {
		t.Fatalf("GetNamedAddress = %s, %v; want %s", got, err, first)
	}

	if err := controller.store.Insert("vault", second); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("duplicate Insert = %v, want ErrDuplicateName", err)
	}
	got, err = controller.GetNamedAddress("vault")
	if err != nil || got != first {
		t.Errorf("GetNamedAddress after duplicate = %s, %v; want original %s", got, err, first)
	}
}

func TestInitRequiresPlatformAndDeployer(t *testing.T) {
	capability, err := authority.MintForTesting(testutil.UniqueAddress())
	if err != nil {
		t.Fatalf("MintForTesting: %v", err)
	}
	defer capability.Close()

	if _, err := Init(Params{Capability: capability, Deployer: testutil.UniqueAddress()}); err == nil {
		t.Error("Init without platform succeeded")
	}
	if _, err := Init(Params{Capability: capability, Platform: &recordingPlatform{}}); err == nil {
		t.Error("Init without deployer succeeded")
	}
}

func TestInitTwiceSameAccount(t *testing.T) {
	controlled := testutil.UniqueAddress()

	capability, err := authority.MintForTesting(controlled)
	if err != nil {
		t.Fatalf("MintForTesting: %v", err)
	}
	params := Params{
		Capability: capability,
		Deployer:   testutil.UniqueAddress(),
		Platform:   &recordingPlatform{},
	}
	if _, err := Init(params); err != nil {
		t.Fatalf("first Init: %v", err)
	}

	duplicate, err := authority.MintForTesting(controlled)
	if err != nil {
		t.Fatalf("MintForTesting: %v", err)
	}
	defer duplicate.Close()
	params.Capability = duplicate
	if _, err := Init(params); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Init = %v, want ErrAlreadyInitialized", err)
	}
}
