// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

//go:build !darwin && !linux

package platform

// Kernel release gating is only used for the macOS root volume.
func kernelRelease() (string, error) {
	return "", nil
}
