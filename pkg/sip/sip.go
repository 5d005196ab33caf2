// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package sip reports whether macOS System Integrity Protection allows the
// root volume to be modified.
package sip

import (
	"bufio"
	"bytes"
	"context"
	"strings"

	"github.com/stratastor/nekrosis/internal/command"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
)

const BinCsrutil = "/usr/bin/csrutil"

// Checker answers whether the root volume may be edited.
type Checker interface {
	CanEditRoot(ctx context.Context) (bool, error)
}

// Status is the parsed output of `csrutil status`.
type Status struct {
	// Enabled is false only when SIP is fully disabled.
	Enabled bool
	// Custom is set for partially disabled configurations.
	Custom bool
	// FilesystemProtections is the state of the filesystem protection
	// component, which is what guards the root volume.
	FilesystemProtections bool
}

// CanEditRoot reports whether the filesystem component is off.
func (s Status) CanEditRoot() bool {
	return !s.Enabled || !s.FilesystemProtections
}

// ParseStatus decodes `csrutil status` output:
//
//	System Integrity Protection status: enabled.
//	System Integrity Protection status: unknown (Custom Configuration).
//
//	Configuration:
//		Filesystem Protections: disabled
func ParseStatus(out []byte) (Status, error) {
	var (
		status   Status
		seenHead bool
	)
	status.FilesystemProtections = true

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(value), "."))

		switch strings.TrimSpace(key) {
		case "System Integrity Protection status":
			seenHead = true
			switch {
			case strings.HasPrefix(value, "enabled"):
				status.Enabled = true
			case strings.HasPrefix(value, "disabled"):
				status.Enabled = false
				status.FilesystemProtections = false
			default:
				status.Enabled = true
				status.Custom = true
			}
		case "Filesystem Protections":
			status.FilesystemProtections = value != "disabled"
		}
	}

	if !seenHead {
		return Status{}, nkerrors.New(nkerrors.CommandOutputParse, "unrecognised csrutil output").
			WithMetadata("output", string(out))
	}
	return status, nil
}

// CSRUtil checks SIP via csrutil.
type CSRUtil struct {
	runner command.Runner
}

func NewCSRUtil(runner command.Runner) *CSRUtil {
	return &CSRUtil{runner: runner}
}

func (c *CSRUtil) Status(ctx context.Context) (Status, error) {
	out, err := c.runner.Run(ctx, BinCsrutil, "status")
	if err != nil {
		return Status{}, err
	}
	return ParseStatus(out)
}

func (c *CSRUtil) CanEditRoot(ctx context.Context) (bool, error) {
	s, err := c.Status(ctx)
	if err != nil {
		return false, err
	}
	return s.CanEditRoot(), nil
}

// Unsupported is the Checker of hosts without SIP. It never allows edits.
type Unsupported struct{}

func (Unsupported) CanEditRoot(context.Context) (bool, error) {
	return false, nil
}
