// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package volume

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"github.com/stratastor/logger"
	"github.com/stratastor/nekrosis/internal/command"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
)

const (
	BinMount  = "/sbin/mount"
	BinUmount = "/sbin/umount"
	BinBless  = "/usr/sbin/bless"

	// OverlayPath is where the sealed system volume is mounted writable.
	OverlayPath = "/System/Volumes/Update/mnt1"

	systemVersionPlist = "System/Library/CoreServices/SystemVersion.plist"
	coreServices       = "System/Library/CoreServices"
)

// State is the mount state of the system volume.
type State int

const (
	Unmounted State = iota
	MountedInPlace
	MountedAtOverlay
)

func (s State) String() string {
	switch s {
	case Unmounted:
		return "unmounted"
	case MountedInPlace:
		return "mounted-in-place"
	case MountedAtOverlay:
		return "mounted-at-overlay"
	}
	return "unknown"
}

// Volume is a system volume that can be made writable.
type Volume interface {
	// Mount makes the volume writable and returns the path that maps to "/".
	Mount(ctx context.Context) (string, error)
	// Unmount restores the volume. It is only valid after a successful Mount.
	Unmount(ctx context.Context) error
	// RequiresReboot reports whether changes only take effect after the next
	// boot.
	RequiresReboot() bool
}

// Option configures a Mounter.
type Option func(*Mounter)

// WithArch overrides the host architecture used to pick the bless invocation.
func WithArch(arch string) Option {
	return func(m *Mounter) { m.arch = arch }
}

// WithExists overrides the file existence check used to detect a reusable
// overlay.
func WithExists(exists func(path string) bool) Option {
	return func(m *Mounter) { m.exists = exists }
}

// Mounter implements Volume for one tier.
type Mounter struct {
	logger logger.Logger
	runner command.Runner
	tier   Tier
	arch   string
	exists func(path string) bool

	state State
	root  string
}

// NewMounter creates a Mounter for the given XNU major version.
func NewMounter(l logger.Logger, runner command.Runner, xnuMajor int, opts ...Option) *Mounter {
	m := &Mounter{
		logger: l,
		runner: runner,
		tier:   TierFor(xnuMajor),
		arch:   runtime.GOARCH,
		exists: fileExists,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mounter) Tier() Tier   { return m.tier }
func (m *Mounter) State() State { return m.state }

func (m *Mounter) RequiresReboot() bool {
	return m.tier == SealedSnapshot
}

// Mount makes the system volume writable. Calling Mount while mounted returns
// the current root without side effects.
func (m *Mounter) Mount(ctx context.Context) (string, error) {
	if m.state != Unmounted {
		return m.root, nil
	}

	switch m.tier {
	case PreSealed:
		// Nothing to do, but the pairing with Unmount is still tracked.
		m.state, m.root = MountedInPlace, "/"
		return m.root, nil

	case ReadOnlyUnsealed:
		if _, err := m.runner.Run(ctx, BinMount, "-uw", "/"); err != nil {
			return "", mountFailed(err, "/")
		}
		m.state, m.root = MountedInPlace, "/"

	case SealedSnapshot:
		if m.exists(filepath.Join(OverlayPath, systemVersionPlist)) {
			m.logger.Debug("Reusing mounted system volume", "overlay", OverlayPath)
			m.state, m.root = MountedAtOverlay, OverlayPath
			return m.root, nil
		}

		device, err := RootDeviceIdentifier(ctx, m.runner)
		if err != nil {
			return "", mountFailed(err, OverlayPath)
		}
		if _, err := m.runner.Run(ctx, BinMount,
			"-o", "nobrowse", "-t", "apfs", "/dev/"+device, OverlayPath); err != nil {
			return "", mountFailed(err, OverlayPath).WithMetadata("device", device)
		}
		m.state, m.root = MountedAtOverlay, OverlayPath
	}

	m.logger.Info("Mounted system volume writable",
		"tier", m.tier.String(),
		"root", m.root)
	return m.root, nil
}

// Unmount restores the system volume. On failure the volume stays mounted
// and the state is unchanged.
func (m *Mounter) Unmount(ctx context.Context) error {
	if m.state == Unmounted {
		return nkerrors.New(nkerrors.VolumeNotMounted, "unmount without a successful mount").
			WithMetadata("tier", m.tier.String())
	}

	switch m.tier {
	case ReadOnlyUnsealed:
		if _, err := m.runner.Run(ctx, BinMount, "-ur", "/"); err != nil {
			return unmountFailed(err, "/")
		}

	case SealedSnapshot:
		if _, err := m.runner.Run(ctx, BinBless, m.blessArgs()...); err != nil {
			return unmountFailed(err, m.root).WithMetadata("step", "bless")
		}
		if _, err := m.runner.Run(ctx, BinUmount, m.root); err != nil {
			return unmountFailed(err, m.root).WithMetadata("step", "umount")
		}
		m.logger.Info("Created boot snapshot, changes apply after reboot", "overlay", m.root)
	}

	m.state, m.root = Unmounted, ""
	return nil
}

func (m *Mounter) blessArgs() []string {
	if m.arch == "arm64" {
		return []string{"--mount", m.root, "--create-snapshot"}
	}
	return []string{
		"--folder", filepath.Join(m.root, coreServices),
		"--bootefi", "--create-snapshot",
	}
}

// WithWritableRoot mounts v, runs fn with the writable root and always
// unmounts afterwards. An unmount error is joined with fn's error, never
// dropped.
func WithWritableRoot(ctx context.Context, v Volume, fn func(root string) error) (err error) {
	root, err := v.Mount(ctx)
	if err != nil {
		return err
	}
	defer func() {
		// The volume is sealed again even when ctx was cancelled during fn.
		if uerr := v.Unmount(context.WithoutCancel(ctx)); uerr != nil {
			err = errors.Join(err, uerr)
		}
	}()
	return fn(root)
}

// Passthrough is the Volume of hosts without a sealed system volume.
type Passthrough struct{}

func (Passthrough) Mount(context.Context) (string, error) { return "/", nil }
func (Passthrough) Unmount(context.Context) error         { return nil }
func (Passthrough) RequiresReboot() bool                  { return false }

func mountFailed(err error, target string) *nkerrors.NekrosisError {
	return nkerrors.Wrap(err, nkerrors.MountFailed).WithMetadata("target", target)
}

func unmountFailed(err error, target string) *nkerrors.NekrosisError {
	return nkerrors.Wrap(err, nkerrors.UnmountFailed).WithMetadata("target", target)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
