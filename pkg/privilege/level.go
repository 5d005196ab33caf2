// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package privilege resolves the caller's privilege level.
//
// The canonical representation differs per platform: POSIX hosts are
// identified by the effective user id (0 is root), Windows hosts by the UAC
// elevation flag of the process token. The account SID is carried as extra
// identity on Windows but never decides privilege.
package privilege

import (
	"context"
	"fmt"

	"github.com/stratastor/nekrosis/pkg/platform"
)

// RootUID is the POSIX effective user id of the superuser.
const RootUID = 0

// Level is captured once per engine and never changes afterwards.
type Level struct {
	Platform platform.Platform `json:"platform"`
	EUID     int               `json:"euid"`
	Elevated bool              `json:"elevated"`
	SID      string            `json:"sid,omitempty"`
}

// Root returns the POSIX superuser level for p.
func Root(p platform.Platform) Level {
	return Level{Platform: p, EUID: RootUID}
}

// User returns an unprivileged POSIX level for p.
func User(p platform.Platform, euid int) Level {
	return Level{Platform: p, EUID: euid}
}

// Admin returns an elevated Windows level.
func Admin() Level {
	return Level{Platform: platform.Windows, EUID: -1, Elevated: true}
}

// Standard returns a non-elevated Windows level.
func Standard() Level {
	return Level{Platform: platform.Windows, EUID: -1}
}

// IsPrivileged reports root on POSIX and elevation on Windows.
func (l Level) IsPrivileged() bool {
	if l.Platform.IsPOSIX() {
		return l.EUID == RootUID
	}
	return l.Elevated
}

func (l Level) String() string {
	if l.Platform.IsPOSIX() {
		return fmt.Sprintf("Effective User ID: %d", l.EUID)
	}
	return fmt.Sprintf("Administrator: %t", l.Elevated)
}

// Current captures the privilege level of the running process.
func Current(ctx context.Context) (Level, error) {
	return current(ctx)
}
