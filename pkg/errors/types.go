// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

const (
	DomainConfig    Domain = "CONFIG"
	DomainCommand   Domain = "CMD"
	DomainPersist   Domain = "PERSIST"
	DomainPrivilege Domain = "PRIVILEGE"
	DomainElectron  Domain = "ELECTRON"
	DomainVolume    Domain = "VOLUME"
	DomainInstall   Domain = "INSTALL"
	DomainExport    Domain = "EXPORT"
	DomainMisc      Domain = "MISC"
)

// ErrorCode represents unique error identifiers
type ErrorCode int

// Domain represents the subsystem where the error originated
type Domain string

// Error code ranges:
// 1000-1099: Configuration errors
// 1300-1399: Command execution
// 1600-1699: Miscellaneous program errors
// 3000-3099: Method resolution
// 3100-3199: Privilege probing
// 3200-3299: Electron fuse parsing
// 3300-3399: Sealed volume
// 3400-3499: Installation
// 3500-3599: Export
const (
	// Configuration Errors (1000-1099)
	ConfigNotFound           = 1000 + iota // Config file not found
	ConfigInvalid                          // Invalid config format
	ConfigLoadFailed                       // Failed to load config
	ConfigWriteFailed                      // Failed to write config
	ConfigMarshalFailed                    // Config serialization failed
	ConfigHomeDirectoryError               // Error getting home directory
)

const (
	// Command Execution (1300-1399)
	CommandNotFound     = 1300 + iota // Command not found
	CommandExecution                  // Execution failed
	CommandTimeout                    // Command timed out
	CommandInvalidInput               // Invalid command input
	CommandOutputParse                // Output parsing failed
	CommandPipe                       // Command pipe error
)

const (
	// Miscellaneous (1600-1699)
	NekrosisMisc    = 1600 + iota // Miscellaneous program error
	FSError                       // Filesystem error
	LoggerError                   // Logger error
	InstanceRunning               // Another instance holds the lock
)

type errorDefinition struct {
	message  string
	domain   Domain
	exitCode int
}

var errorDefinitions = map[ErrorCode]errorDefinition{
	ConfigNotFound:           {"Configuration file not found", DomainConfig, 1},
	ConfigInvalid:            {"Invalid configuration", DomainConfig, 1},
	ConfigLoadFailed:         {"Failed to load configuration", DomainConfig, 1},
	ConfigWriteFailed:        {"Failed to write configuration", DomainConfig, 1},
	ConfigMarshalFailed:      {"Failed to serialize configuration", DomainConfig, 1},
	ConfigHomeDirectoryError: {"Failed to resolve home directory", DomainConfig, 1},

	CommandNotFound:     {"Command not found", DomainCommand, 1},
	CommandExecution:    {"Command execution failed", DomainCommand, 1},
	CommandTimeout:      {"Command timed out", DomainCommand, 1},
	CommandInvalidInput: {"Invalid command input", DomainCommand, 1},
	CommandOutputParse:  {"Failed to parse command output", DomainCommand, 1},
	CommandPipe:         {"Command pipe error", DomainCommand, 1},

	NekrosisMisc: {"Internal error", DomainMisc, 1},
	FSError:      {"Filesystem error", DomainMisc, 1},
	LoggerError:  {"Logger error", DomainMisc, 1},

	InstanceRunning: {"Another instance is already running", DomainMisc, 1},
}

func register(defs map[ErrorCode]errorDefinition) {
	for code, def := range defs {
		errorDefinitions[code] = def
	}
}

// ExitCode maps an error to the process exit status. nil maps to 0 and every
// failure maps to a non-zero value.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if code, ok := CodeOf(err); ok {
		if def, ok := errorDefinitions[code]; ok && def.exitCode != 0 {
			return def.exitCode
		}
	}
	return 1
}
