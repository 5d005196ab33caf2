// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package install

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/stratastor/nekrosis/internal/cli"
	"github.com/stratastor/nekrosis/internal/constants"
	"github.com/stratastor/nekrosis/pkg/lifecycle"
)

func NewInstallCmd(flags *cli.Flags) *cobra.Command {
	var (
		payload       string
		method        string
		removePayload bool
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Persist a payload through the recommended or selected method",
		Long: `Install copies the payload into place and registers it to start at boot
or login. Without --method the recommended method is used. --method accepts
an index or a label as printed by "nekrosis list".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			release, err := lifecycle.EnsureSingleInstance(
				filepath.Join(os.TempDir(), constants.PIDFileName))
			if err != nil {
				return err
			}
			defer release()

			eng, l, err := flags.Engine(ctx)
			if err != nil {
				return err
			}

			m, err := eng.Resolve(method)
			if err != nil {
				return err
			}

			result, err := eng.Install(ctx, payload, m)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Installed via %s\n", m.Label)
			fmt.Fprintf(out, "  payload:    %s\n", result.PayloadPath)
			fmt.Fprintf(out, "  definition: %s\n", result.Definition)
			if result.Deferred {
				fmt.Fprintln(out, "  takes effect on next boot")
			}

			if removePayload {
				if err := eng.RemovePayload(ctx, payload); err != nil {
					return err
				}
				l.Debug("Original payload removed", "payload", payload)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&payload, "payload", "p", "", "Path to the executable to persist")
	cmd.Flags().StringVarP(&method, "method", "m", "", "Method index or label (default: recommended)")
	cmd.Flags().BoolVar(&removePayload, "remove-payload", false, "Delete the original payload after installing")
	_ = cmd.MarkFlagRequired("payload")

	return cmd
}
