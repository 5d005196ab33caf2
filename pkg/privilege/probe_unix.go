// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package privilege

import (
	"context"

	"github.com/stratastor/nekrosis/pkg/platform"
	"golang.org/x/sys/unix"
)

func current(_ context.Context) (Level, error) {
	return Level{
		Platform: platform.Current(),
		EUID:     unix.Geteuid(),
	}, nil
}
