// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package authority

import (
	"errors"
	"testing"

	"github.com/depot-foundation/depot/lib/account"
	"github.com/depot-foundation/depot/lib/sealed"
)

var (
	vaultControlled = account.MustParseAddress("0xdeed")
	vaultDeployer   = account.MustParseAddress("0xcafe")
	vaultStranger   = account.MustParseAddress("0xbad")
)

func provisionedVault(t *testing.T) (*Vault, *sealed.Keypair) {
	t.Helper()

	keypair, err := sealed.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	t.Cleanup(func() { keypair.Close() })

	vault, err := OpenVault(t.TempDir())
	if err != nil {
		t.Fatalf("OpenVault: %v", err)
	}
	if err := vault.Provision(vaultControlled, vaultDeployer, []string{keypair.PublicKey}); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	return vault, keypair
}

func TestProvisionAndRetrieve(t *testing.T) {
	vault, keypair := provisionedVault(t)

	capability, err := vault.Retrieve(vaultDeployer, vaultControlled, keypair.PrivateKey)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	defer capability.Close()

	if capability.Account() != vaultControlled {
		t.Errorf("capability account = %s, want %s", capability.Account(), vaultControlled)
	}
}

func TestRetrieveByStranger(t *testing.T) {
	vault, keypair := provisionedVault(t)

	if _, err := vault.Retrieve(vaultStranger, vaultControlled, keypair.PrivateKey); !errors.Is(err, ErrNotDeployer) {
		t.Errorf("Retrieve by stranger = %v, want ErrNotDeployer", err)
	}

	// The failed attempt must not spend the bundle.
	capability, err := vault.Retrieve(vaultDeployer, vaultControlled, keypair.PrivateKey)
	if err != nil {
		t.Fatalf("Retrieve by deployer after failed attempt: %v", err)
	}
	capability.Close()
}

func TestRetrieveIsOneShot(t *testing.T) {
	vault, keypair := provisionedVault(t)

	capability, err := vault.Retrieve(vaultDeployer, vaultControlled, keypair.PrivateKey)
	if err != nil {
		t.Fatalf("first Retrieve: %v", err)
	}
	defer capability.Close()

	if _, err := vault.Retrieve(vaultDeployer, vaultControlled, keypair.PrivateKey); !errors.Is(err, ErrAlreadyClaimed) {
		t.Errorf("second Retrieve = %v, want ErrAlreadyClaimed", err)
	}
}

func TestRetrieveUnprovisioned(t *testing.T) {
	vault, keypair := provisionedVault(t)

	other := account.MustParseAddress("0x9999")
	if _, err := vault.Retrieve(vaultDeployer, other, keypair.PrivateKey); !errors.Is(err, ErrNotProvisioned) {
		t.Errorf("Retrieve of unprovisioned account = %v, want ErrNotProvisioned", err)
	}
}

func TestProvisionTwice(t *testing.T) {
	vault, keypair := provisionedVault(t)

	err := vault.Provision(vaultControlled, vaultDeployer, []string{keypair.PublicKey})
	if !errors.Is(err, ErrAlreadyProvisioned) {
		t.Errorf("second Provision = %v, want ErrAlreadyProvisioned", err)
	}
}

func TestProvisionRejectsBadRecipient(t *testing.T) {
	vault, err := OpenVault(t.TempDir())
	if err != nil {
		t.Fatalf("OpenVault: %v", err)
	}
	if err := vault.Provision(vaultControlled, vaultDeployer, []string{"not-an-age-key"}); err == nil {
		t.Error("Provision with invalid recipient key succeeded")
	}
}
