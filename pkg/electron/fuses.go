// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package electron detects Electron applications whose runtime can be
// re-executed as a plain Node.js interpreter.
package electron

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
)

// FuseSentinel precedes the fuse wire in the Electron Framework binary.
const FuseSentinel = "dL7pKGdnNz796PbbjQWNKmHXBZaB9tsX"

// RunAsNodeTrigger is the environment variable honoured by runtimes that can
// be re-executed as an interpreter.
const RunAsNodeTrigger = "ELECTRON_RUN_AS_NODE"

// RunAsNodeFuseSymbol is exported by binaries built with fuse support.
const RunAsNodeFuseSymbol = "__ZN8electron5fuses18IsRunAsNodeEnabledEv"

// FuseState is the one-byte state of a single fuse.
type FuseState byte

const (
	FuseDisabled FuseState = 0x30
	FuseEnabled  FuseState = 0x31
	FuseRemoved  FuseState = 0x72
	FuseInherit  FuseState = 0x90
)

func (s FuseState) Valid() bool {
	switch s {
	case FuseDisabled, FuseEnabled, FuseRemoved, FuseInherit:
		return true
	}
	return false
}

func (s FuseState) String() string {
	switch s {
	case FuseDisabled:
		return "disabled"
	case FuseEnabled:
		return "enabled"
	case FuseRemoved:
		return "removed"
	case FuseInherit:
		return "inherit"
	}
	return fmt.Sprintf("unknown(0x%02x)", byte(s))
}

// Fuse indexes of wire version 1.
const (
	FuseRunAsNode = iota
	FuseEnableCookieEncryption
	FuseEnableNodeOptionsEnvironmentVariable
	FuseEnableNodeCliInspectArguments
	FuseEnableEmbeddedAsarIntegrityValidation
	FuseOnlyLoadAppFromAsar
	FuseLoadBrowserProcessSpecificV8Snapshot
	FuseGrantFileProtocolExtraPrivileges
)

// ErrNoFuseWire is returned when a binary carries no fuse sentinel.
var ErrNoFuseWire = errors.New("no fuse wire present")

// FuseConfig is the decoded fuse wire of one binary.
type FuseConfig struct {
	Version byte
	States  []FuseState
}

// State returns the state at index, or false when the wire is shorter.
func (c FuseConfig) State(index int) (FuseState, bool) {
	if index < 0 || index >= len(c.States) {
		return 0, false
	}
	return c.States[index], true
}

// VulnerableToReexec reports whether the run-as-node fuse is enabled.
func (c FuseConfig) VulnerableToReexec() bool {
	s, ok := c.State(FuseRunAsNode)
	return ok && s == FuseEnabled
}

// ParseFuseWire decodes the fuse wire embedded in data.
func ParseFuseWire(data []byte) (FuseConfig, error) {
	idx := bytes.Index(data, []byte(FuseSentinel))
	if idx < 0 {
		return FuseConfig{}, ErrNoFuseWire
	}

	pos := idx + len(FuseSentinel)
	if pos+2 > len(data) {
		return FuseConfig{}, malformed("truncated fuse wire header", pos)
	}

	version := data[pos]
	n := int(data[pos+1])
	if pos+2+n > len(data) {
		return FuseConfig{}, malformed(
			fmt.Sprintf("fuse wire declares %d fuses beyond end of binary", n), pos)
	}

	states := make([]FuseState, n)
	for i := range n {
		s := FuseState(data[pos+2+i])
		if !s.Valid() {
			return FuseConfig{}, malformed(
				fmt.Sprintf("fuse %d has unknown state 0x%02x", i, byte(s)), pos)
		}
		states[i] = s
	}

	return FuseConfig{Version: version, States: states}, nil
}

func malformed(details string, pos int) error {
	return nkerrors.New(nkerrors.MalformedFuseTable, details).
		WithMetadata("position", strconv.Itoa(pos))
}

// Assess qualifies a single framework binary. Binaries without a fuse wire
// are exploitable iff they still carry the legacy trigger string; binaries
// with a wire are exploitable iff the run-as-node fuse is enabled.
func Assess(data []byte) (bool, error) {
	cfg, err := ParseFuseWire(data)
	if errors.Is(err, ErrNoFuseWire) {
		return bytes.Contains(data, []byte(RunAsNodeTrigger)), nil
	}
	if err != nil {
		return false, err
	}
	return cfg.VulnerableToReexec(), nil
}
