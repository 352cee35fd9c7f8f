// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package packstore

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 digest. Module and package digests are
// both this size but live in separate hash domains.
type Digest [32]byte

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation ensures the same input bytes produce different digests in
// different contexts.
type domainKey [32]byte

// Domain separation keys. Fixed protocol constants — changing them
// invalidates every existing digest in that domain. The byte values
// are the ASCII encoding of the domain name, zero-padded to 32 bytes,
// so the keys are readable in hex dumps.
var (
	moduleDomainKey = domainKey{
		'd', 'e', 'p', 'o', 't', '.', 'p', 'a', 'c', 'k', 'a', 'g', 'e', '.',
		'm', 'o', 'd', 'u', 'l', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	packageDomainKey = domainKey{
		'd', 'e', 'p', 'o', 't', '.', 'p', 'a', 'c', 'k', 'a', 'g', 'e', '.',
		'm', 'a', 'n', 'i', 'f', 'e', 's', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

func keyedHash(key domainKey, data []byte) Digest {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		// NewKeyed only fails on a key of the wrong length, which is
		// impossible with the domainKey type.
		panic("packstore: blake3 keyed hasher: " + err.Error())
	}
	hasher.Write(data)

	var digest Digest
	hasher.Digest().Read(digest[:])
	return digest
}

// HashModule computes the module-domain digest of a code module's
// uncompressed bytes. Module blobs are addressed by this digest, so
// identical modules across packages are stored once.
func HashModule(data []byte) Digest {
	return keyedHash(moduleDomainKey, data)
}

// HashPackage computes the package-domain digest from the metadata and
// the ordered module digests. This is the package's identity: two
// publishes with the same metadata and module content get the same ID.
func HashPackage(metadata []byte, modules []Digest) Digest {
	input := make([]byte, 0, len(metadata)+len(modules)*len(Digest{}))
	input = append(input, metadata...)
	for _, digest := range modules {
		input = append(input, digest[:]...)
	}
	return keyedHash(packageDomainKey, input)
}

// String returns the hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDigest parses a 64-character hex digest string.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != len(digest) {
		return digest, fmt.Errorf("digest is %d bytes, want %d", len(decoded), len(digest))
	}
	copy(digest[:], decoded)
	return digest, nil
}
