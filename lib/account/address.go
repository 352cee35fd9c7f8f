// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package account

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength is the size of an account address in bytes.
const AddressLength = 32

// Address is a 32-byte account address. The zero value is the null
// address, which is never a valid controlled account or deployer.
//
// Address implements encoding.TextMarshaler and TextUnmarshaler, so it
// serializes as a hex string in CBOR, JSON, and YAML rather than as a
// byte array.
type Address [AddressLength]byte

// ParseAddress parses a hex account address. The "0x" prefix is
// optional. Short forms are accepted and left-padded with zeros, so
// "0xaa" and the full 64-digit form denote the same address.
func ParseAddress(s string) (Address, error) {
	var address Address

	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if trimmed == "" {
		return address, fmt.Errorf("invalid address %q: no hex digits", s)
	}
	if len(trimmed) > 2*AddressLength {
		return address, fmt.Errorf("invalid address %q: %d hex digits, maximum is %d", s, len(trimmed), 2*AddressLength)
	}

	// Left-pad to the full width so short forms decode into the low
	// bytes, matching how account addresses are conventionally written.
	if len(trimmed)%2 == 1 {
		trimmed = "0" + trimmed
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return address, fmt.Errorf("invalid address %q: %w", s, err)
	}
	copy(address[AddressLength-len(decoded):], decoded)
	return address, nil
}

// MustParseAddress is ParseAddress that panics on error. For use with
// compile-time constant inputs (tests, well-known addresses).
func MustParseAddress(s string) Address {
	address, err := ParseAddress(s)
	if err != nil {
		panic("account: " + err.Error())
	}
	return address
}

// IsZero reports whether the address is the null address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String returns the canonical form: "0x" followed by the full 64
// lowercase hex digits.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Short returns the address with leading zero bytes trimmed, for log
// output and CLI display. The null address renders as "0x0".
func (a Address) Short() string {
	trimmed := bytes.TrimLeft(a[:], "\x00")
	if len(trimmed) == 0 {
		return "0x0"
	}
	return "0x" + strings.TrimPrefix(hex.EncodeToString(trimmed), "0")
}

// MarshalText implements encoding.TextMarshaler using the canonical
// full-width form.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
