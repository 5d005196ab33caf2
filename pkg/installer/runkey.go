// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package installer

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/stratastor/logger"
	"github.com/stratastor/nekrosis/pkg/catalog"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
)

// RunKeyPath is the machine-wide Run key beneath HKEY_LOCAL_MACHINE.
const RunKeyPath = `Software\Microsoft\Windows\CurrentVersion\Run`

// RunKeyWriter sets a value of the Run key.
type RunKeyWriter interface {
	SetRunValue(name, command string) error
}

// RunKeyInstaller relocates the payload and registers it under the Run key.
type RunKeyInstaller struct {
	logger logger.Logger
	env    Env
	writer RunKeyWriter
}

// NewRunKeyInstaller creates the installer. A nil writer uses the host
// registry.
func NewRunKeyInstaller(l logger.Logger, env Env, writer RunKeyWriter) *RunKeyInstaller {
	if writer == nil {
		writer = registryRunKey{}
	}
	return &RunKeyInstaller{logger: l, env: env, writer: writer}
}

// ValueName derives the Run value name from the payload.
func (r *RunKeyInstaller) ValueName(payload string) string {
	base := filepath.Base(payload)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(r.env.LabelPrefix, ".", "-") + "-" + base
}

func (r *RunKeyInstaller) Install(ctx context.Context, req Request) (*Result, error) {
	if req.Method.ID != catalog.RegistryRunKey {
		return nil, nkerrors.New(nkerrors.UnsupportedMethod, req.Method.Label)
	}

	dir := filepath.Join(r.env.ProgramData, strings.TrimPrefix(r.env.LabelPrefix, "com."))
	files := NewLocalFileOperations(r.logger, dir)
	payload, err := relocate(ctx, files, req.Payload, dir)
	if err != nil {
		return nil, installFailed(err, req.Method)
	}

	name := r.ValueName(req.Payload)
	if err := r.writer.SetRunValue(name, `"`+payload+`"`); err != nil {
		return nil, installFailed(err, req.Method)
	}

	r.logger.Info("Registered Run key value", "name", name, "payload", payload)
	return &Result{
		Method:      req.Method,
		PayloadPath: payload,
		Definition:  `HKLM\` + RunKeyPath + `\` + name,
	}, nil
}
