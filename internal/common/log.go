// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package common

import (
	"sync"

	"github.com/stratastor/logger"
	"github.com/stratastor/nekrosis/internal/constants"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
)

var (
	logOnce sync.Once
	log     logger.Logger
	logErr  error
)

// InitLogger creates the process logger on first call. Later calls return
// the same logger and ignore cfg.
func InitLogger(cfg logger.Config) (logger.Logger, error) {
	logOnce.Do(func() {
		log, logErr = logger.NewTag(cfg, constants.AppName)
		if logErr != nil {
			logErr = nkerrors.Wrap(logErr, nkerrors.LoggerError)
		}
	})
	return log, logErr
}

// LogLevel applies the --silent and --verbose flags to the configured level.
// Silent wins when both are set.
func LogLevel(configured string, silent, verbose bool) string {
	switch {
	case silent:
		return "error"
	case verbose:
		return "debug"
	case configured == "":
		return "info"
	default:
		return configured
	}
}
