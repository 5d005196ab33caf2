// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package platform identifies the host operating system, its kernel release
// and CPU architecture.
package platform

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Platform is a GOOS value with a method table.
type Platform string

const (
	Linux   Platform = "linux"
	Darwin  Platform = "darwin"
	Windows Platform = "windows"
)

// Current returns the platform the binary runs on.
func Current() Platform {
	return Platform(runtime.GOOS)
}

// FriendlyName is the name shown to operators.
func (p Platform) FriendlyName() string {
	switch p {
	case Linux:
		return "Linux"
	case Darwin:
		return "macOS"
	case Windows:
		return "Windows"
	default:
		return string(p)
	}
}

// IsPOSIX reports whether privilege is an effective user id on p.
func (p Platform) IsPOSIX() bool {
	return p != Windows
}

// Host describes the running kernel.
type Host struct {
	Platform Platform
	Arch     string
	// Release is the raw kernel release, e.g. "23.4.0" on macOS Sonoma.
	Release string
}

// Detect fills a Host from the running system.
func Detect() (Host, error) {
	release, err := kernelRelease()
	if err != nil {
		return Host{}, err
	}
	return Host{
		Platform: Current(),
		Arch:     runtime.GOARCH,
		Release:  release,
	}, nil
}

// KernelMajor parses the leading component of the kernel release. On macOS
// this is the XNU major version (19 = Catalina, 20 = Big Sur).
func (h Host) KernelMajor() (int, error) {
	return ParseKernelMajor(h.Release)
}

// ParseKernelMajor extracts the major version from a kernel release string
// such as "23.4.0" or "6.8.0-45-generic".
func ParseKernelMajor(release string) (int, error) {
	release = strings.TrimSpace(release)
	if release == "" {
		return 0, fmt.Errorf("empty kernel release")
	}
	v, err := semver.NewVersion(release)
	if err != nil {
		// Distribution suffixes are not always semver-clean.
		head, _, _ := strings.Cut(release, "-")
		if parts := strings.Split(head, "."); len(parts) > 3 {
			head = strings.Join(parts[:3], ".")
		}
		v, err = semver.NewVersion(head)
		if err != nil {
			return 0, fmt.Errorf("unparseable kernel release %q: %w", release, err)
		}
	}
	return int(v.Major()), nil
}
