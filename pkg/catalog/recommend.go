// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"github.com/stratastor/nekrosis/pkg/platform"
	"github.com/stratastor/nekrosis/pkg/privilege"
)

// Tier restricts a recommendation rule to a privilege class.
type Tier int

const (
	AnyTier Tier = iota
	PrivilegedTier
	UnprivilegedTier
)

func (t Tier) matches(level privilege.Level) bool {
	switch t {
	case PrivilegedTier:
		return level.IsPrivileged()
	case UnprivilegedTier:
		return !level.IsPrivileged()
	default:
		return true
	}
}

type rule struct {
	method MethodID
	tier   Tier
}

// Rules are evaluated top to bottom; the first match wins.
var recommendationRules = map[platform.Platform][]rule{
	platform.Linux: {
		{CronjobRoot, PrivilegedTier},
		{CronjobUser, AnyTier},
	},
	platform.Darwin: {
		{LaunchAgentElectron, AnyTier},
		{LaunchAgentUser, UnprivilegedTier},
		{LaunchDaemonSystem, PrivilegedTier},
		{LaunchDaemonLibrary, PrivilegedTier},
	},
	platform.Windows: {
		{StartupFolderUser, UnprivilegedTier},
		{StartupFolderGlobal, PrivilegedTier},
	},
}

// Recommend picks the best method of cat for level by the fixed per-platform
// priority order. It returns NoRecommendation when no rule matches; callers
// must check IsNone before installing.
func Recommend(cat Catalog, level privilege.Level) Method {
	for _, r := range recommendationRules[level.Platform] {
		if !r.tier.matches(level) {
			continue
		}
		if m, ok := cat.Find(r.method); ok {
			return m
		}
	}
	return NoRecommendation
}
