// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package privilege

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/stratastor/nekrosis/internal/command"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
)

// BinWhoami is the account query utility used for the SID probe.
const BinWhoami = `C:\Windows\System32\whoami.exe`

// sidPrefix is the revision/authority prefix every SID string starts with.
const sidPrefix = "S-1-"

// AccountSID returns the invoking account's security identifier. It is the
// account-level identity variant of the Windows probe.
func AccountSID(ctx context.Context, runner command.Runner) (string, error) {
	out, err := runner.Run(ctx, BinWhoami, "/user", "/fo", "csv", "/nh")
	if err != nil {
		return "", nkerrors.Wrap(err, nkerrors.PrivilegeProbeError).
			WithMetadata("command", BinWhoami)
	}
	return ParseWhoamiSID(string(out))
}

// WithAccountSID returns a copy of l carrying the account SID.
func WithAccountSID(ctx context.Context, l Level, runner command.Runner) (Level, error) {
	sid, err := AccountSID(ctx, runner)
	if err != nil {
		return l, err
	}
	l.SID = sid
	return l, nil
}

// ParseWhoamiSID parses `whoami /user /fo csv /nh` output, which must be a
// single record of exactly two fields: "DOMAIN\user","S-1-5-21-...".
func ParseWhoamiSID(output string) (string, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimSpace(output)))
	records, err := r.ReadAll()
	if err != nil {
		return "", nkerrors.Wrap(err, nkerrors.PrivilegeProbeError).
			WithMetadata("output", output)
	}

	if len(records) != 1 || len(records[0]) != 2 {
		return "", nkerrors.New(
			nkerrors.PrivilegeProbeError,
			fmt.Sprintf("unexpected whoami output shape: %d record(s)", len(records)),
		).WithMetadata("output", output)
	}

	sid := strings.TrimSpace(records[0][1])
	if !strings.HasPrefix(sid, sidPrefix) || len(sid) == len(sidPrefix) {
		return "", nkerrors.New(
			nkerrors.PrivilegeProbeError,
			fmt.Sprintf("%q is not a security identifier", sid),
		).WithMetadata("output", output)
	}

	return sid, nil
}
