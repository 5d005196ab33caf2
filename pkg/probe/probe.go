// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package probe answers live method prerequisites against the running host.
package probe

import (
	"context"
	"os/exec"
	"sync"

	"github.com/stratastor/logger"
	"github.com/stratastor/nekrosis/internal/command"
	"github.com/stratastor/nekrosis/internal/services/systemd"
	"github.com/stratastor/nekrosis/pkg/catalog"
	"github.com/stratastor/nekrosis/pkg/electron"
	"github.com/stratastor/nekrosis/pkg/platform"
	"github.com/stratastor/nekrosis/pkg/sip"
)

// Cron units probed on systemd hosts, Debian and RedHat naming.
var cronUnits = []string{"cron.service", "crond.service"}

// ElectronFinder locates an exploitable Electron application.
type ElectronFinder interface {
	FindFirstExploitable(ctx context.Context) (*electron.Application, error)
}

// UnitChecker reports whether a systemd unit is enabled.
type UnitChecker interface {
	IsEnabled(ctx context.Context, unit string) (bool, error)
}

// Deps are the host facilities used by Host. Nil fields are filled with the
// real implementations by New.
type Deps struct {
	Platform      platform.Platform
	Runner        command.Runner
	Electron      ElectronFinder
	SIP           sip.Checker
	Units         UnitChecker
	LookPath      func(file string) (string, error)
	SystemdBooted func() bool
}

// Host implements catalog.Availability.
type Host struct {
	logger logger.Logger
	deps   Deps

	mu       sync.Mutex
	electron *electron.Application
}

var _ catalog.Availability = (*Host)(nil)

// New creates a Host probe.
func New(l logger.Logger, deps Deps) *Host {
	if deps.Platform == "" {
		deps.Platform = platform.Current()
	}
	if deps.Runner == nil {
		deps.Runner = command.NewExecutor(l)
	}
	if deps.LookPath == nil {
		deps.LookPath = exec.LookPath
	}
	if deps.SystemdBooted == nil {
		deps.SystemdBooted = systemd.Booted
	}
	if deps.SIP == nil {
		if deps.Platform == platform.Darwin {
			deps.SIP = sip.NewCSRUtil(deps.Runner)
		} else {
			deps.SIP = sip.Unsupported{}
		}
	}
	if deps.Electron == nil && deps.Platform == platform.Darwin {
		deps.Electron = electron.NewScanner(l, "", nil)
	}
	return &Host{logger: l, deps: deps}
}

func (h *Host) Available(ctx context.Context, req catalog.Requirement) (bool, error) {
	switch req {
	case catalog.RequireCron:
		return h.cronAvailable(ctx)
	case catalog.RequireSystemd:
		return h.deps.Platform == platform.Linux && h.deps.SystemdBooted(), nil
	case catalog.RequireElectron:
		return h.electronAvailable(ctx)
	case catalog.RequireSIPLowered:
		return h.deps.SIP.CanEditRoot(ctx)
	}
	h.logger.Warn("Unknown requirement", "requirement", string(req))
	return false, nil
}

// ElectronApplication returns the application found by the last electron
// probe, or nil.
func (h *Host) ElectronApplication() *electron.Application {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.electron
}

func (h *Host) cronAvailable(ctx context.Context) (bool, error) {
	if _, err := h.deps.LookPath("crontab"); err != nil {
		h.logger.Debug("crontab not found", "err", err)
		return false, nil
	}

	// Cron on macOS is launchd-managed and always present with crontab.
	if h.deps.Platform != platform.Linux || !h.deps.SystemdBooted() {
		return true, nil
	}

	units := h.deps.Units
	if units == nil {
		client, err := systemd.NewClient(h.logger, h.deps.Runner)
		if err != nil {
			return false, err
		}
		units = client
	}

	for _, unit := range cronUnits {
		enabled, err := units.IsEnabled(ctx, unit)
		if err != nil {
			return false, err
		}
		if enabled {
			return true, nil
		}
	}
	return false, nil
}

func (h *Host) electronAvailable(ctx context.Context) (bool, error) {
	if h.deps.Electron == nil {
		return false, nil
	}
	app, err := h.deps.Electron.FindFirstExploitable(ctx)
	if err != nil {
		return false, err
	}

	h.mu.Lock()
	h.electron = app
	h.mu.Unlock()
	return app != nil, nil
}
