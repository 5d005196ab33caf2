// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package installer

import (
	"golang.org/x/sys/windows/registry"
)

type registryRunKey struct{}

func (registryRunKey) SetRunValue(name, command string) error {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, RunKeyPath, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer key.Close()

	return key.SetStringValue(name, command)
}
