// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package volume

import (
	"context"
	"regexp"

	"github.com/stratastor/nekrosis/internal/command"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
	"howett.net/plist"
)

const BinDiskutil = "/usr/sbin/diskutil"

var snapshotSuffix = regexp.MustCompile(`s\d+$`)

// diskInfo is the subset of `diskutil info -plist` output we consume.
type diskInfo struct {
	DeviceIdentifier string `plist:"DeviceIdentifier"`
	APFSSnapshot     bool   `plist:"APFSSnapshot"`
	MountPoint       string `plist:"MountPoint"`
}

// RootDeviceIdentifier resolves the block device backing "/". When the root
// is booted from a live snapshot the snapshot suffix is stripped so the
// underlying volume is returned (disk1s1s1 -> disk1s1).
func RootDeviceIdentifier(ctx context.Context, runner command.Runner) (string, error) {
	out, err := runner.Run(ctx, BinDiskutil, "info", "-plist", "/")
	if err != nil {
		return "", nkerrors.Wrap(err, nkerrors.VolumeIdentifierFail)
	}
	return ParseRootDeviceIdentifier(out)
}

// ParseRootDeviceIdentifier decodes diskutil plist output.
func ParseRootDeviceIdentifier(data []byte) (string, error) {
	var info diskInfo
	if _, err := plist.Unmarshal(data, &info); err != nil {
		return "", nkerrors.Wrap(err, nkerrors.VolumeIdentifierFail).
			WithMetadata("reason", "invalid diskutil plist")
	}
	if info.DeviceIdentifier == "" {
		return "", nkerrors.New(nkerrors.VolumeIdentifierFail, "diskutil reported no device identifier")
	}

	id := info.DeviceIdentifier
	if info.APFSSnapshot {
		id = snapshotSuffix.ReplaceAllString(id, "")
	}
	return id, nil
}
