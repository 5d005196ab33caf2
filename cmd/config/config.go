// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/stratastor/nekrosis/config"
	"github.com/stratastor/nekrosis/internal/cli"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
	"gopkg.in/yaml.v2"
)

func NewConfigCmd(flags *cli.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage Nekrosis configuration",
	}

	cmd.AddCommand(NewPrintConfigCmd(flags))
	cmd.AddCommand(NewInitConfigCmd(flags))
	return cmd
}

func NewPrintConfigCmd(flags *cli.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Print the currently loaded configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.Config()

			ymlData, err := yaml.Marshal(cfg)
			if err != nil {
				return nkerrors.Wrap(err, nkerrors.ConfigMarshalFailed)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", config.GetLoadedConfigPath(), string(ymlData))
			return nil
		},
	}
}

func NewInitConfigCmd(flags *cli.Flags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current configuration to the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.Config()
			path := config.GetLoadedConfigPath()

			if _, err := os.Stat(path); err == nil && !force {
				return nkerrors.New(nkerrors.ConfigWriteFailed, "config file exists, use --force to overwrite").
					WithMetadata("path", path)
			}
			if err := config.SaveConfig(path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")
	return cmd
}
