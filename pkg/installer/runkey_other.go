// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package installer

import (
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
)

type registryRunKey struct{}

func (registryRunKey) SetRunValue(name, _ string) error {
	return nkerrors.New(nkerrors.UnsupportedPlatform, "the registry exists only on windows").
		WithMetadata("value", name)
}
