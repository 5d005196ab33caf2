// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package systemd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/stratastor/logger"
	"github.com/stratastor/nekrosis/internal/command"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
)

// RuntimeDir exists only on hosts booted with systemd as init.
const RuntimeDir = "/run/systemd/system"

// ServiceStatus represents systemd service status information
type ServiceStatus struct {
	Service string `json:"service"`
	Status  string `json:"status"`
	State   string `json:"state"`
}

func (s ServiceStatus) String() string {
	return fmt.Sprintf("%s is %s [%s]", s.Service, s.State, s.Status)
}

// Client provides a systemd service management client
type Client struct {
	logger       logger.Logger
	runner       command.Runner
	systemctlBin string
}

// NewClient creates a new systemd client
func NewClient(l logger.Logger, runner command.Runner) (*Client, error) {
	if l == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	// Check if systemctl is installed
	systemctlBin, err := exec.LookPath("systemctl")
	if err != nil {
		return nil, nkerrors.Wrap(err, nkerrors.CommandNotFound).
			WithMetadata("command", "systemctl")
	}

	return NewClientWithBinary(l, runner, systemctlBin), nil
}

// NewClientWithBinary creates a client for a known systemctl path.
func NewClientWithBinary(l logger.Logger, runner command.Runner, systemctlBin string) *Client {
	return &Client{logger: l, runner: runner, systemctlBin: systemctlBin}
}

// Booted reports whether the host is managed by systemd.
func Booted() bool {
	fi, err := os.Stat(RuntimeDir)
	return err == nil && fi.IsDir()
}

func unitName(serviceName string) string {
	if strings.Contains(serviceName, ".") {
		return serviceName
	}
	return serviceName + ".service"
}

// IsEnabled reports whether a unit starts at boot. systemctl exits zero only
// for enabled units; disabled and unknown units are reported as not enabled.
func (c *Client) IsEnabled(ctx context.Context, serviceName string) (bool, error) {
	out, err := c.runner.Run(ctx, c.systemctlBin, "is-enabled", unitName(serviceName))
	state := strings.TrimSpace(string(out))
	if err != nil {
		if nkerrors.HasCode(err, nkerrors.CommandExecution) {
			c.logger.Debug("Unit not enabled", "unit", unitName(serviceName), "state", state)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetServiceStatus returns the status of a systemd service
func (c *Client) GetServiceStatus(ctx context.Context, serviceName string) (*ServiceStatus, error) {
	serviceUnit := unitName(serviceName)

	output, err := c.runner.Run(ctx, c.systemctlBin, "status", serviceUnit, "--no-pager")
	statusFull := string(output)
	status := &ServiceStatus{Service: serviceUnit, State: "unknown", Status: "Unknown status"}

	for _, line := range strings.Split(statusFull, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Active:") {
			status.Status = strings.TrimSpace(strings.TrimPrefix(line, "Active:"))
			break
		}
	}

	switch {
	case strings.Contains(statusFull, "Active: active (running)"):
		status.State = "running"
	case strings.Contains(statusFull, "Active: inactive"):
		status.State = "stopped"
	case strings.Contains(statusFull, "Active: failed"):
		status.State = "failed"
	case err != nil:
		return nil, err
	}

	// systemctl status exits non-zero for inactive units; the parsed state
	// already says so.
	return status, nil
}

// DaemonReload makes systemd pick up new unit files.
func (c *Client) DaemonReload(ctx context.Context) error {
	if _, err := c.runner.Run(ctx, c.systemctlBin, "daemon-reload"); err != nil {
		return fmt.Errorf("failed to reload systemd: %w", err)
	}
	return nil
}

// EnableService enables a systemd service to start on boot
func (c *Client) EnableService(ctx context.Context, serviceName string) error {
	if _, err := c.runner.Run(ctx, c.systemctlBin, "enable", unitName(serviceName)); err != nil {
		return fmt.Errorf("failed to enable service %s: %w", serviceName, err)
	}
	return nil
}

// StartService starts a systemd service
func (c *Client) StartService(ctx context.Context, serviceName string) error {
	if _, err := c.runner.Run(ctx, c.systemctlBin, "start", unitName(serviceName)); err != nil {
		return fmt.Errorf("failed to start service %s: %w", serviceName, err)
	}
	return nil
}
