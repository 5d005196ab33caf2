// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package constants

// Build-time variables set via ldflags
var (
	Version   = "v0.0.1-dev" // Set via -X flag during build
	CommitSHA = "unknown"    // Set via -X flag during build
	BuildTime = "unknown"    // Set via -X flag during build
)

const (
	AppName = "nekrosis"

	// config
	ConfigFileName  = "nekrosis.yml"
	ConfigDirName   = ".nekrosis"
	SystemConfigDir = "/etc/nekrosis"
	EnvPrefix       = "NEKROSIS"
	EnvConfigPath   = "NEKROSIS_CONFIG"

	// PIDFileName lives in the OS temp dir and serialises installs.
	PIDFileName = "nekrosis.pid"
)
