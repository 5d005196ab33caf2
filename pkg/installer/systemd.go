// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package installer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/stratastor/logger"
	"github.com/stratastor/nekrosis/internal/command"
	"github.com/stratastor/nekrosis/internal/services/systemd"
	"github.com/stratastor/nekrosis/internal/templates"
	"github.com/stratastor/nekrosis/pkg/catalog"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
)

const (
	SystemdUnitDir    = "/etc/systemd/system"
	SystemPayloadDir  = "/usr/local/libexec"
	unitTemplate      = "unit.service.tmpl"
	defaultSystemctl  = "/usr/bin/systemctl"
	unitFilePerm      = 0o644
	unitDirectoryPerm = 0o755
)

// UnitManager is the subset of systemctl used after writing a unit.
type UnitManager interface {
	DaemonReload(ctx context.Context) error
	EnableService(ctx context.Context, serviceName string) error
	StartService(ctx context.Context, serviceName string) error
}

// SystemdInstaller writes and enables a system service unit.
type SystemdInstaller struct {
	logger     logger.Logger
	units      UnitManager
	env        Env
	unitDir    string
	payloadDir string
}

func NewSystemdInstaller(l logger.Logger, runner command.Runner, env Env) *SystemdInstaller {
	bin, err := exec.LookPath("systemctl")
	if err != nil {
		bin = defaultSystemctl
	}
	return &SystemdInstaller{
		logger:     l,
		units:      systemd.NewClientWithBinary(l, runner, bin),
		env:        env,
		unitDir:    SystemdUnitDir,
		payloadDir: SystemPayloadDir,
	}
}

type unitData struct {
	Description string
	ExecStart   string
}

// RenderUnit renders the unit file that runs payload.
func RenderUnit(description, payload string) ([]byte, error) {
	content, err := templates.GetSystemdTemplate(unitTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to load unit template: %w", err)
	}

	parsed, err := template.New(unitTemplate).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse unit template: %w", err)
	}

	var out bytes.Buffer
	if err := parsed.Execute(&out, unitData{
		Description: description,
		ExecStart:   execStart(payload),
	}); err != nil {
		return nil, fmt.Errorf("failed to render unit template: %w", err)
	}
	return out.Bytes(), nil
}

// execStart quotes payload the way systemd splits command lines.
func execStart(payload string) string {
	if strings.ContainsAny(payload, " \t\"'\\") {
		return strconv.Quote(payload)
	}
	return payload
}

func (s *SystemdInstaller) unitName() string {
	prefix := strings.ReplaceAll(strings.TrimPrefix(s.env.LabelPrefix, "com."), ".", "-")
	return fmt.Sprintf("%s-%s.service", prefix, shortID())
}

func (s *SystemdInstaller) Install(ctx context.Context, req Request) (*Result, error) {
	if req.Method.ID != catalog.SystemdServiceRoot {
		return nil, nkerrors.New(nkerrors.UnsupportedMethod, req.Method.Label)
	}

	unitDir := underRoot(req.Root, s.unitDir)
	payloadDir := underRoot(req.Root, s.payloadDir)
	files := NewLocalFileOperations(s.logger, unitDir, payloadDir)

	payload, err := relocate(ctx, files, req.Payload, payloadDir)
	if err != nil {
		return nil, installFailed(err, req.Method)
	}

	unit := s.unitName()
	content, err := RenderUnit(
		fmt.Sprintf("Boot persistence for %s", filepath.Base(req.Payload)),
		stripRoot(req.Root, payload))
	if err != nil {
		return nil, installFailed(err, req.Method)
	}

	if err := files.MkdirAll(ctx, unitDir, unitDirectoryPerm); err != nil {
		return nil, installFailed(err, req.Method)
	}
	unitPath := filepath.Join(unitDir, unit)
	if err := files.WriteFile(ctx, unitPath, content, unitFilePerm); err != nil {
		return nil, installFailed(err, req.Method)
	}
	s.logger.Info("Wrote systemd unit", "unit", unitPath, "payload", payload)

	if err := s.units.DaemonReload(ctx); err != nil {
		return nil, installFailed(err, req.Method)
	}
	if err := s.units.EnableService(ctx, unit); err != nil {
		return nil, installFailed(err, req.Method)
	}

	result := &Result{
		Method:      req.Method,
		PayloadPath: stripRoot(req.Root, payload),
		Definition:  stripRoot(req.Root, unitPath),
		Deferred:    req.DeferStart,
	}
	if req.DeferStart {
		return result, nil
	}

	if err := s.units.StartService(ctx, unit); err != nil {
		return nil, installFailed(err, req.Method)
	}
	result.Started = true
	return result, nil
}
