// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/stratastor/nekrosis/cmd/config"
	"github.com/stratastor/nekrosis/cmd/export"
	"github.com/stratastor/nekrosis/cmd/install"
	"github.com/stratastor/nekrosis/cmd/list"
	"github.com/stratastor/nekrosis/cmd/version"
	"github.com/stratastor/nekrosis/internal/cli"
)

func NewRootCmd() *cobra.Command {
	flags := &cli.Flags{}

	rootCmd := &cobra.Command{
		Use:           "nekrosis",
		Short:         "Nekrosis: cross-platform boot persistence",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&flags.Silent, "silent", "s", false, "Only log errors")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Log debug output")

	rootCmd.AddCommand(install.NewInstallCmd(flags))
	rootCmd.AddCommand(list.NewListCmd(flags))
	rootCmd.AddCommand(export.NewExportCmd(flags))
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(config.NewConfigCmd(flags))

	return rootCmd
}
