// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"github.com/stratastor/nekrosis/pkg/platform"
)

var linuxMethods = []Method{
	{
		ID:       CronjobUser,
		Label:    "Cronjob - Current User",
		Platform: platform.Linux,
		Requires: []Requirement{RequireCron},
	},
	{
		ID:         CronjobRoot,
		Label:      "Cronjob - Root",
		Platform:   platform.Linux,
		Privileged: true,
		Requires:   []Requirement{RequireCron},
	},
	{
		ID:         SystemdServiceRoot,
		Label:      "Systemd Service - Root",
		Platform:   platform.Linux,
		Privileged: true,
		Requires:   []Requirement{RequireSystemd},
	},
}

var darwinMethods = []Method{
	{
		ID:       LaunchAgentUser,
		Label:    "LaunchAgent - Current User",
		Platform: platform.Darwin,
	},
	{
		ID:       LaunchAgentElectron,
		Label:    "LaunchAgent - Electron",
		Platform: platform.Darwin,
		Requires: []Requirement{RequireElectron},
	},
	{
		ID:         LaunchAgentLibrary,
		Label:      "LaunchAgent - Library",
		Platform:   platform.Darwin,
		Privileged: true,
	},
	{
		ID:         LaunchDaemonLibrary,
		Label:      "LaunchDaemon - Library",
		Platform:   platform.Darwin,
		Privileged: true,
	},
	{
		ID:           LaunchAgentSystem,
		Label:        "LaunchAgent - System",
		Platform:     platform.Darwin,
		Privileged:   true,
		Requires:     []Requirement{RequireSIPLowered},
		SealedVolume: true,
	},
	{
		ID:           LaunchDaemonSystem,
		Label:        "LaunchDaemon - System",
		Platform:     platform.Darwin,
		Privileged:   true,
		Requires:     []Requirement{RequireSIPLowered},
		SealedVolume: true,
	},
	{
		ID:       CronjobUser,
		Label:    "Cronjob - Current User",
		Platform: platform.Darwin,
		Requires: []Requirement{RequireCron},
	},
	{
		ID:         CronjobRoot,
		Label:      "Cronjob - Root",
		Platform:   platform.Darwin,
		Privileged: true,
		Requires:   []Requirement{RequireCron},
	},
}

var windowsMethods = []Method{
	{
		ID:         RegistryRunKey,
		Label:      "Regedit Run Key",
		Platform:   platform.Windows,
		Privileged: true,
	},
	{
		ID:       StartupFolderUser,
		Label:    "Startup Folder (Current User)",
		Platform: platform.Windows,
	},
	{
		ID:         StartupFolderGlobal,
		Label:      "Startup Folder (Global)",
		Platform:   platform.Windows,
		Privileged: true,
	},
}

var declared = map[platform.Platform][]Method{
	platform.Linux:   linuxMethods,
	platform.Darwin:  darwinMethods,
	platform.Windows: windowsMethods,
}

// Declared returns a copy of the full method table for p.
func Declared(p platform.Platform) ([]Method, bool) {
	methods, ok := declared[p]
	if !ok {
		return nil, false
	}
	out := make([]Method, len(methods))
	copy(out, methods)
	return out, true
}

// Supported reports whether p has a method table.
func Supported(p platform.Platform) bool {
	_, ok := declared[p]
	return ok
}
