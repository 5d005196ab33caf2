// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package catalog holds the compiled-in persistence method tables and the
// algorithms that filter, recommend and override methods for one resolution
// pass.
package catalog

import (
	"github.com/stratastor/nekrosis/pkg/platform"
	"github.com/stratastor/nekrosis/pkg/privilege"
)

// MethodID identifies a method independently of its platform label.
type MethodID string

const (
	CronjobUser         MethodID = "cronjob-user"
	CronjobRoot         MethodID = "cronjob-root"
	SystemdServiceRoot  MethodID = "systemd-service-root"
	LaunchAgentUser     MethodID = "launch-agent-user"
	LaunchAgentElectron MethodID = "launch-agent-electron"
	LaunchAgentLibrary  MethodID = "launch-agent-library"
	LaunchDaemonLibrary MethodID = "launch-daemon-library"
	LaunchAgentSystem   MethodID = "launch-agent-system"
	LaunchDaemonSystem  MethodID = "launch-daemon-system"
	RegistryRunKey      MethodID = "registry-run-key"
	StartupFolderUser   MethodID = "startup-folder-user"
	StartupFolderGlobal MethodID = "startup-folder-global"
)

// Requirement is a live availability prerequisite of a method.
type Requirement string

const (
	// RequireCron: the cron scheduler is installed and enabled.
	RequireCron Requirement = "cron"
	// RequireSystemd: the host is managed by systemd.
	RequireSystemd Requirement = "systemd"
	// RequireElectron: a vulnerable Electron application was found.
	RequireElectron Requirement = "electron"
	// RequireSIPLowered: integrity protection allows root volume edits.
	RequireSIPLowered Requirement = "sip-lowered"
)

// Method is one persistence mechanism of one platform.
type Method struct {
	ID       MethodID
	Label    string
	Platform platform.Platform

	// Privileged methods need root (POSIX) or elevation (Windows).
	Privileged bool
	Requires   []Requirement

	// SealedVolume methods write beneath the macOS system volume.
	SealedVolume bool
}

// noneLabel is never a declared label.
const noneLabel = ""

// NoRecommendation is the sentinel returned when no method satisfies the
// recommendation policy. It is never a catalog member.
var NoRecommendation = Method{ID: "none", Label: noneLabel}

// IsNone reports whether m is the NoRecommendation sentinel.
func (m Method) IsNone() bool {
	return m.ID == NoRecommendation.ID
}

// PermittedFor applies the static privilege predicate.
func (m Method) PermittedFor(level privilege.Level) bool {
	return !m.Privileged || level.IsPrivileged()
}

func (m Method) String() string {
	if m.IsNone() {
		return "none"
	}
	return m.Label
}

// Catalog is the privilege- and availability-filtered method list, in
// declaration order.
type Catalog []Method

// Labels returns the wire identifiers in catalog order.
func (c Catalog) Labels() []string {
	labels := make([]string, 0, len(c))
	for _, m := range c {
		labels = append(labels, m.Label)
	}
	return labels
}

// Find returns the method with the given id.
func (c Catalog) Find(id MethodID) (Method, bool) {
	for _, m := range c {
		if m.ID == id {
			return m, true
		}
	}
	return Method{}, false
}

// Contains reports whether a method with id is in the catalog.
func (c Catalog) Contains(id MethodID) bool {
	_, ok := c.Find(id)
	return ok
}

// IndexOf returns the position of m, or -1.
func (c Catalog) IndexOf(m Method) int {
	for i, cm := range c {
		if cm.ID == m.ID {
			return i
		}
	}
	return -1
}
