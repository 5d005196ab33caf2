// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package installer

import (
	"context"
	"path/filepath"

	"github.com/stratastor/logger"
	"github.com/stratastor/nekrosis/pkg/catalog"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
)

var startupSubdir = filepath.Join("Microsoft", "Windows", "Start Menu", "Programs", "Startup")

// StartupFolderInstaller copies the payload into a Startup folder, which
// Explorer runs at logon.
type StartupFolderInstaller struct {
	logger logger.Logger
	env    Env
}

func NewStartupFolderInstaller(l logger.Logger, env Env) *StartupFolderInstaller {
	return &StartupFolderInstaller{logger: l, env: env}
}

// Folder returns the Startup folder of method id.
func (s *StartupFolderInstaller) Folder(id catalog.MethodID) (string, bool) {
	switch id {
	case catalog.StartupFolderUser:
		return filepath.Join(s.env.AppData, startupSubdir), true
	case catalog.StartupFolderGlobal:
		return filepath.Join(s.env.ProgramData, startupSubdir), true
	}
	return "", false
}

func (s *StartupFolderInstaller) Install(ctx context.Context, req Request) (*Result, error) {
	folder, ok := s.Folder(req.Method.ID)
	if !ok {
		return nil, nkerrors.New(nkerrors.UnsupportedMethod, req.Method.Label)
	}

	files := NewLocalFileOperations(s.logger, folder)
	if err := files.MkdirAll(ctx, folder, 0o755); err != nil {
		return nil, installFailed(err, req.Method)
	}

	// An existing copy is replaced.
	dst := filepath.Join(folder, filepath.Base(req.Payload))
	if err := files.CopyFile(ctx, req.Payload, dst, 0o755); err != nil {
		return nil, installFailed(err, req.Method)
	}

	s.logger.Info("Installed payload into Startup folder", "path", dst)
	return &Result{
		Method:      req.Method,
		PayloadPath: dst,
		Definition:  dst,
	}, nil
}
