// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/stratastor/nekrosis/internal/constants"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
)

// ExpandPath expands a path with tilde (~) to the user's home directory
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", nkerrors.Wrap(err, nkerrors.ConfigHomeDirectoryError).
			WithMetadata("path", path)
	}
	return expanded, nil
}

// GetConfigDir returns the appropriate configuration directory
// If running as root, it returns the system config directory
// Otherwise, it returns the user config directory
func GetConfigDir() (string, error) {
	if os.Geteuid() == 0 {
		return constants.SystemConfigDir, nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", nkerrors.Wrap(err, nkerrors.ConfigHomeDirectoryError)
	}
	return filepath.Join(home, constants.ConfigDirName), nil
}

// EnsureDir ensures a directory exists, creating it if necessary
func EnsureDir(path string, perm os.FileMode) error {
	expandedPath, err := ExpandPath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(expandedPath, perm); err != nil {
		return nkerrors.Wrap(err, nkerrors.FSError).
			WithMetadata("operation", "mkdir").
			WithMetadata("path", expandedPath)
	}
	return nil
}
