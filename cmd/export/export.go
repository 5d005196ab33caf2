// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stratastor/nekrosis/internal/cli"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
	"github.com/stratastor/nekrosis/pkg/export"
)

func NewExportCmd(flags *cli.Flags) *cobra.Command {
	var (
		format string
		output string
	)

	names := make([]string, 0, len(export.Formats()))
	for _, f := range export.Formats() {
		names = append(names, string(f))
	}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the available methods as structured data",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = flags.Config().Export.Format
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			eng, _, err := flags.Engine(cmd.Context())
			if err != nil {
				return err
			}

			data, err := export.Encode(eng.Report(), f)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return nkerrors.Wrap(err, nkerrors.ExportFailed).WithMetadata("path", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: "+strings.Join(names, ", "))
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}
