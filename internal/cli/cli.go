// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package cli holds the state shared by the subcommands: persistent flags,
// the process logger and engine construction.
package cli

import (
	"context"

	"github.com/stratastor/logger"
	"github.com/stratastor/nekrosis/config"
	"github.com/stratastor/nekrosis/internal/common"
	"github.com/stratastor/nekrosis/pkg/engine"
	"github.com/stratastor/nekrosis/pkg/installer"
)

// Flags are the persistent flags of the root command.
type Flags struct {
	ConfigPath string
	Silent     bool
	Verbose    bool
}

// Config loads the configuration once per process.
func (f *Flags) Config() *config.Config {
	return config.LoadConfig(f.ConfigPath)
}

// Logger returns the process logger at the level selected by the flags.
func (f *Flags) Logger() (logger.Logger, error) {
	lcfg := config.NewLoggerConfig(f.Config())
	lcfg.LogLevel = common.LogLevel(lcfg.LogLevel, f.Silent, f.Verbose)
	return common.InitLogger(lcfg)
}

// Engine runs one resolution pass with the configured installers.
func (f *Flags) Engine(ctx context.Context) (*engine.Engine, logger.Logger, error) {
	l, err := f.Logger()
	if err != nil {
		return nil, nil, err
	}

	cfg := f.Config()
	env, err := installer.DefaultEnv(cfg.Install.LabelPrefix, cfg.Install.PayloadDir)
	if err != nil {
		return nil, l, err
	}

	e, err := engine.New(ctx, l,
		engine.WithEnv(env),
		engine.WithElectronSearch(cfg.Electron.SearchRoot, cfg.Electron.Exclusions))
	if err != nil {
		return nil, l, err
	}
	return e, l, nil
}
