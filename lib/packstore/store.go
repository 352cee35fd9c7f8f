// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package packstore

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/depot-foundation/depot/lib/account"
	"github.com/depot-foundation/depot/lib/authority"
	"github.com/depot-foundation/depot/lib/codec"
)

// manifestVersion is the format version of package manifest files.
const manifestVersion = 1

// Errors returned by store reads.
var (
	// ErrPackageNotFound is returned by Load for an unknown package ID.
	ErrPackageNotFound = errors.New("packstore: package not found")

	// ErrModuleNotFound is returned by ReadModule for an unknown
	// module digest.
	ErrModuleNotFound = errors.New("packstore: module not found")

	// ErrCorruptModule is returned by ReadModule when a blob's content
	// does not match its digest.
	ErrCorruptModule = errors.New("packstore: module content does not match digest")

	// ErrBadSignature is returned by Load when a manifest's signature
	// does not verify under its embedded public key.
	ErrBadSignature = errors.New("packstore: manifest signature does not verify")
)

// ModuleRef describes one stored module within a manifest.
type ModuleRef struct {
	// Digest is the module-domain BLAKE3 digest of the uncompressed
	// module bytes; also the blob's on-disk address.
	Digest Digest `cbor:"digest"`

	// Size is the uncompressed size in bytes.
	Size int64 `cbor:"size"`

	// StoredSize is the on-disk (possibly compressed) size in bytes.
	StoredSize int64 `cbor:"stored_size"`

	// Compression is the algorithm the blob is stored with.
	Compression CompressionTag `cbor:"compression"`
}

// Manifest describes one published package. The signature covers the
// deterministic CBOR encoding of the manifest with the Signature field
// empty, made with the publishing authority handle's Ed25519 key.
type Manifest struct {
	Version  int             `cbor:"version"`
	ID       Digest          `cbor:"id"`
	Account  account.Address `cbor:"account"`
	Metadata []byte          `cbor:"metadata"`
	Modules  []ModuleRef     `cbor:"modules"`

	// SignerKey is the Ed25519 public key of the authority handle that
	// signed this manifest — the controlled account's stable derived
	// key.
	SignerKey []byte `cbor:"signer_key"`

	// Signature is the Ed25519 signature. Empty while signing.
	Signature []byte `cbor:"signature,omitempty"`
}

// Store is an on-disk package store rooted at a directory:
//
//	<root>/modules/<digest>          compressed module blobs
//	<root>/packages/<id>.manifest    CBOR manifests
type Store struct {
	root   string
	logger *slog.Logger
}

// Open opens (creating if necessary) a package store at root.
func Open(root string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for _, subdir := range []string{"modules", "packages"} {
		if err := os.MkdirAll(filepath.Join(root, subdir), 0o755); err != nil {
			return nil, fmt.Errorf("packstore: creating %s directory: %w", subdir, err)
		}
	}
	return &Store{root: root, logger: logger}, nil
}

func (s *Store) modulePath(digest Digest) string {
	return filepath.Join(s.root, "modules", digest.String())
}

func (s *Store) manifestPath(id Digest) string {
	return filepath.Join(s.root, "packages", id.String()+".manifest")
}

// Publish stores a package under the controlled account's identity.
// Implements the platform contract consumed by lib/control: metadata
// and modules are opaque, and the manifest is signed with the handle.
// Re-publishing identical content is idempotent (same package ID, same
// blobs); publishing new content under the same account writes a new
// manifest alongside the old — upgrades are new packages, not
// overwrites.
func (s *Store) Publish(ctx context.Context, handle *authority.Handle, metadata []byte, modules [][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Digest everything first; nothing is written until the manifest
	// signs, so a failed publish leaves no partial package.
	moduleDigests := make([]Digest, len(modules))
	references := make([]ModuleRef, len(modules))
	stored := make([][]byte, len(modules))
	for i, module := range modules {
		digest := HashModule(module)
		compressed, tag := compress(module)
		moduleDigests[i] = digest
		stored[i] = compressed
		references[i] = ModuleRef{
			Digest:      digest,
			Size:        int64(len(module)),
			StoredSize:  int64(len(compressed)),
			Compression: tag,
		}
	}

	manifest := Manifest{
		Version:   manifestVersion,
		ID:        HashPackage(metadata, moduleDigests),
		Account:   handle.Account(),
		Metadata:  metadata,
		Modules:   references,
		SignerKey: handle.PublicKey(),
	}

	unsigned, err := codec.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("packstore: encoding manifest: %w", err)
	}
	signature, err := handle.Sign(unsigned)
	if err != nil {
		// Surfaces authority.ErrHandleExpired unchanged.
		return err
	}
	manifest.Signature = signature

	signed, err := codec.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("packstore: encoding signed manifest: %w", err)
	}

	for i, blob := range stored {
		if err := writeFileOnce(s.modulePath(references[i].Digest), blob); err != nil {
			return fmt.Errorf("packstore: writing module %s: %w", references[i].Digest, err)
		}
	}
	if err := os.WriteFile(s.manifestPath(manifest.ID), signed, 0o644); err != nil {
		return fmt.Errorf("packstore: writing manifest: %w", err)
	}

	s.logger.Info("package stored",
		"package", manifest.ID.String(),
		"account", manifest.Account.Short(),
		"modules", len(modules),
	)
	return nil
}

// Load reads and verifies a manifest. The signature is checked against
// the manifest's embedded signer key; ErrBadSignature means the file
// was tampered with or corrupted.
func (s *Store) Load(id Digest) (*Manifest, error) {
	data, err := os.ReadFile(s.manifestPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, id)
		}
		return nil, fmt.Errorf("packstore: reading manifest: %w", err)
	}

	var manifest Manifest
	if err := codec.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("packstore: decoding manifest: %w", err)
	}
	if manifest.Version != manifestVersion {
		return nil, fmt.Errorf("packstore: unsupported manifest version %d", manifest.Version)
	}

	signature := manifest.Signature
	manifest.Signature = nil
	unsigned, err := codec.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("packstore: re-encoding manifest: %w", err)
	}
	if len(manifest.SignerKey) != ed25519.PublicKeySize ||
		!ed25519.Verify(ed25519.PublicKey(manifest.SignerKey), unsigned, signature) {
		return nil, fmt.Errorf("%w: %s", ErrBadSignature, id)
	}
	manifest.Signature = signature

	return &manifest, nil
}

// ReadModule returns the uncompressed bytes of a stored module,
// verifying them against the digest.
func (s *Store) ReadModule(reference ModuleRef) ([]byte, error) {
	data, err := os.ReadFile(s.modulePath(reference.Digest))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, reference.Digest)
		}
		return nil, fmt.Errorf("packstore: reading module: %w", err)
	}

	module, err := decompress(data, reference.Compression, int(reference.Size))
	if err != nil {
		return nil, fmt.Errorf("packstore: module %s: %w", reference.Digest, err)
	}
	if HashModule(module) != reference.Digest {
		return nil, fmt.Errorf("%w: %s", ErrCorruptModule, reference.Digest)
	}
	return module, nil
}

// List returns the IDs of all stored packages, sorted.
func (s *Store) List() ([]Digest, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, "packages"))
	if err != nil {
		return nil, fmt.Errorf("packstore: listing packages: %w", err)
	}

	var ids []Digest
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".manifest")
		if !ok {
			continue
		}
		id, err := ParseDigest(name)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids, nil
}

// writeFileOnce writes data to path unless the path already exists.
// Module blobs are content-addressed, so an existing file already
// holds identical bytes.
func writeFileOnce(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
