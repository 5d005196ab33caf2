// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package volume makes the macOS system volume writable for the duration of
// an installation and restores it afterwards.
package volume

// XNU major versions that change the root volume protocol.
const (
	XNUCatalina = 19
	XNUBigSur   = 20
)

// Tier selects the mount protocol.
type Tier int

const (
	// PreSealed roots are always writable.
	PreSealed Tier = iota
	// ReadOnlyUnsealed roots are remounted read-write in place.
	ReadOnlyUnsealed
	// SealedSnapshot roots are mounted at an overlay and re-sealed with a new
	// boot snapshot on unmount.
	SealedSnapshot
)

// TierFor maps an XNU major version to its tier.
func TierFor(xnuMajor int) Tier {
	switch {
	case xnuMajor < XNUCatalina:
		return PreSealed
	case xnuMajor == XNUCatalina:
		return ReadOnlyUnsealed
	default:
		return SealedSnapshot
	}
}

func (t Tier) String() string {
	switch t {
	case PreSealed:
		return "pre-sealed"
	case ReadOnlyUnsealed:
		return "read-only-unsealed"
	case SealedSnapshot:
		return "sealed-with-snapshot"
	}
	return "unknown"
}
