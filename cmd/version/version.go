// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stratastor/nekrosis/internal/constants"
)

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show Nekrosis version",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Nekrosis Version: %s\n", constants.Version)
			fmt.Fprintf(out, "Commit: %s\n", constants.CommitSHA)
			fmt.Fprintf(out, "Build Time: %s\n", constants.BuildTime)
		},
	}
}
