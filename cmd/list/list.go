// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package list

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stratastor/nekrosis/internal/cli"
	"github.com/stratastor/nekrosis/pkg/catalog"
	"github.com/stratastor/nekrosis/pkg/platform"
	"github.com/stratastor/nekrosis/pkg/privilege"
)

var (
	recommendedColor = color.New(color.FgGreen, color.Bold)
	hintColor        = color.New(color.FgYellow)
)

func NewListCmd(flags *cli.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the persistence methods available on this host",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := flags.Engine(cmd.Context())
			if err != nil {
				return err
			}
			Render(cmd.OutOrStdout(), eng.Platform(), eng.Level(), eng.Catalog(), eng.Recommended())
			return nil
		},
	}
}

// Render prints the catalog with indices usable by `install --method`.
func Render(
	w io.Writer,
	p platform.Platform,
	level privilege.Level,
	cat catalog.Catalog,
	recommended catalog.Method,
) {
	fmt.Fprintf(w, "Supported persistence methods for %s (%s):\n", p.FriendlyName(), level.String())
	if len(cat) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for i, m := range cat {
		if m.ID == recommended.ID {
			recommendedColor.Fprintf(w, "  %d - %q (recommended)\n", i, m.Label)
			continue
		}
		fmt.Fprintf(w, "  %d - %q\n", i, m.Label)
	}

	if recommended.IsNone() {
		fmt.Fprintln(w, "No recommended method.")
	}
	if !level.IsPrivileged() {
		hintColor.Fprintln(w, "Run with elevated privileges to see more methods.")
	}
}
