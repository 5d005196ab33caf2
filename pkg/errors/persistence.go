// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

const (
	// Method resolution (3000-3099)
	UnsupportedPlatform = 3000 + iota // Host platform has no method table
	NoRecommendedMethod               // No method satisfies the recommendation policy
	UnsupportedMethod                 // Override label not in the catalog
	IndexOutOfRange                   // Override index outside the catalog
)

const (
	// Privilege probing (3100-3199)
	PrivilegeProbeError = 3100 + iota // Privilege could not be determined
)

const (
	// Electron fuse parsing (3200-3299)
	MalformedFuseTable = 3200 + iota // Fuse wire truncated or carrying unknown states
	ElectronScanFailed               // Application search root unreadable
)

const (
	// Sealed volume (3300-3399)
	MountFailed          = 3300 + iota // Root volume could not be made writable
	UnmountFailed                      // Root volume could not be sealed again
	VolumeNotMounted                   // Unmount without a successful mount
	VolumeUnsupportedOS                // No mount protocol for this OS version
	VolumeIdentifierFail               // Root device identifier unresolved
)

const (
	// Installation (3400-3499)
	InstallFailed       = 3400 + iota // Installer reported a failure
	PayloadNotFound                   // Payload path does not exist
	InstallerMissing                  // No installer registered for the method
	PayloadRemoveFailed               // Payload could not be removed
)

const (
	// Export (3500-3599)
	ExportFailed        = 3500 + iota // Serialization failed
	ExportFormatInvalid               // Unknown export format
	ImportFailed                      // Deserialization failed
)

func init() {
	register(map[ErrorCode]errorDefinition{
		UnsupportedPlatform: {"Unsupported platform", DomainPersist, 2},
		NoRecommendedMethod: {"No recommended persistence method available", DomainPersist, 3},
		UnsupportedMethod:   {"Persistence method is not supported", DomainPersist, 4},
		IndexOutOfRange:     {"Persistence method index out of range", DomainPersist, 4},

		PrivilegeProbeError: {"Failed to determine privilege level", DomainPrivilege, 2},

		MalformedFuseTable: {"Malformed Electron fuse table", DomainElectron, 1},
		ElectronScanFailed: {"Failed to scan for Electron applications", DomainElectron, 1},

		MountFailed:          {"Failed to mount root volume", DomainVolume, 5},
		UnmountFailed:        {"Failed to unmount root volume", DomainVolume, 5},
		VolumeNotMounted:     {"Root volume is not mounted", DomainVolume, 5},
		VolumeUnsupportedOS:  {"Root volume protocol not supported on this OS version", DomainVolume, 5},
		VolumeIdentifierFail: {"Failed to resolve root volume identifier", DomainVolume, 5},

		InstallFailed:       {"Installation failed", DomainInstall, 6},
		PayloadNotFound:     {"Payload does not exist", DomainInstall, 6},
		InstallerMissing:    {"No installer for persistence method", DomainInstall, 6},
		PayloadRemoveFailed: {"Failed to remove payload", DomainInstall, 6},

		ExportFailed:        {"Failed to export persistence methods", DomainExport, 1},
		ExportFormatInvalid: {"Unsupported export format", DomainExport, 1},
		ImportFailed:        {"Failed to decode persistence methods", DomainExport, 1},
	})
}
