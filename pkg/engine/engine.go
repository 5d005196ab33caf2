// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package engine resolves the persistence methods of the running host and
// dispatches installation of a payload through one of them.
//
// An Engine captures the privilege level and builds the catalog exactly once,
// in New. Every later query is answered from that snapshot.
package engine

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/stratastor/logger"
	"github.com/stratastor/nekrosis/internal/command"
	"github.com/stratastor/nekrosis/pkg/catalog"
	"github.com/stratastor/nekrosis/pkg/electron"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
	"github.com/stratastor/nekrosis/pkg/export"
	"github.com/stratastor/nekrosis/pkg/installer"
	"github.com/stratastor/nekrosis/pkg/platform"
	"github.com/stratastor/nekrosis/pkg/privilege"
	"github.com/stratastor/nekrosis/pkg/probe"
	"github.com/stratastor/nekrosis/pkg/volume"
)

// ElectronSource exposes the application found while probing availability.
type ElectronSource interface {
	ElectronApplication() *electron.Application
}

// Option configures an Engine.
type Option func(*Engine)

// WithPlatform overrides the detected platform.
func WithPlatform(p platform.Platform) Option {
	return func(e *Engine) { e.platform = p }
}

// WithLevel supplies the privilege level instead of probing the process.
func WithLevel(level privilege.Level) Option {
	return func(e *Engine) {
		e.level = level
		e.levelSet = true
	}
}

// WithRunner sets the command runner shared by probes and installers.
func WithRunner(runner command.Runner) Option {
	return func(e *Engine) { e.runner = runner }
}

// WithAvailability replaces the host probe.
func WithAvailability(a catalog.Availability) Option {
	return func(e *Engine) { e.availability = a }
}

// WithElectronSearch configures where the host probe looks for Electron
// applications.
func WithElectronSearch(root string, exclusions []string) Option {
	return func(e *Engine) {
		e.electronRoot = root
		e.electronExclusions = exclusions
	}
}

// WithEnv sets the installer environment.
func WithEnv(env installer.Env) Option {
	return func(e *Engine) {
		e.env = env
		e.envSet = true
	}
}

// WithInstallers replaces the platform installers.
func WithInstallers(set *installer.Set) Option {
	return func(e *Engine) { e.installers = set }
}

// WithVolume supplies the system volume used by sealed-volume methods.
func WithVolume(v volume.Volume) Option {
	return func(e *Engine) { e.volume = v }
}

// Engine is one resolution pass over the host.
type Engine struct {
	logger logger.Logger

	platform     platform.Platform
	level        privilege.Level
	levelSet     bool
	runner       command.Runner
	availability catalog.Availability
	installers   *installer.Set
	volume       volume.Volume
	env          installer.Env
	envSet       bool

	electronRoot       string
	electronExclusions []string

	catalog     catalog.Catalog
	recommended catalog.Method
}

// New captures the privilege level, probes availability and builds the
// catalog.
func New(ctx context.Context, l logger.Logger, opts ...Option) (*Engine, error) {
	e := &Engine{logger: l, platform: platform.Current()}
	for _, opt := range opts {
		opt(e)
	}

	if !catalog.Supported(e.platform) {
		return nil, nkerrors.New(nkerrors.UnsupportedPlatform, string(e.platform)).
			WithMetadata("platform", string(e.platform))
	}
	if e.runner == nil {
		e.runner = command.NewExecutor(l)
	}

	if err := e.captureLevel(ctx); err != nil {
		return nil, err
	}
	l.Debug("Captured privilege level",
		"platform", e.platform.FriendlyName(),
		"privilege", e.level.String())

	if e.availability == nil {
		e.availability = e.hostProbe()
	}

	cat, err := catalog.NewBuilder(l, catalog.NewCachedAvailability(e.availability)).
		Build(ctx, e.platform, e.level)
	if err != nil {
		return nil, err
	}
	e.catalog = cat
	e.recommended = catalog.Recommend(cat, e.level)

	l.Info("Resolved persistence methods",
		"platform", e.platform.FriendlyName(),
		"methods", len(cat),
		"recommended", e.recommended.String())
	return e, nil
}

func (e *Engine) captureLevel(ctx context.Context) error {
	if e.levelSet {
		return nil
	}

	level, err := privilege.Current(ctx)
	if err != nil {
		return nkerrors.Wrap(err, nkerrors.PrivilegeProbeError)
	}
	if level.Platform == platform.Windows {
		// The SID is informational only.
		if withSID, err := privilege.WithAccountSID(ctx, level, e.runner); err != nil {
			e.logger.Warn("Failed to resolve account SID", "err", err)
		} else {
			level = withSID
		}
	}
	e.level = level
	return nil
}

func (e *Engine) hostProbe() *probe.Host {
	deps := probe.Deps{Platform: e.platform, Runner: e.runner}
	if e.platform == platform.Darwin {
		deps.Electron = electron.NewScanner(e.logger, e.electronRoot, e.electronExclusions)
	}
	return probe.New(e.logger, deps)
}

func (e *Engine) Platform() platform.Platform { return e.platform }
func (e *Engine) Level() privilege.Level      { return e.level }

// Catalog returns the filtered methods in declaration order.
func (e *Engine) Catalog() catalog.Catalog {
	out := make(catalog.Catalog, len(e.catalog))
	copy(out, e.catalog)
	return out
}

// Recommended returns the recommended method or catalog.NoRecommendation.
func (e *Engine) Recommended() catalog.Method { return e.recommended }

// Report is the exportable view of the catalog.
func (e *Engine) Report() export.Report {
	return export.NewReport(e.catalog, e.recommended)
}

// Resolve maps a selector to a method. An empty selector means the
// recommended method.
func (e *Engine) Resolve(selector string) (catalog.Method, error) {
	if selector == "" {
		if e.recommended.IsNone() {
			return catalog.NoRecommendation, e.noRecommendation()
		}
		return e.recommended, nil
	}
	return catalog.ResolveOverride(e.catalog, selector)
}

func (e *Engine) noRecommendation() error {
	return nkerrors.New(nkerrors.NoRecommendedMethod, e.level.String()).
		WithMetadata("platform", string(e.platform)).
		WithMetadata("catalog_size", strconv.Itoa(len(e.catalog)))
}

// Install persists payload through m. Methods on the sealed system volume are
// installed between a mount and an unmount of that volume.
func (e *Engine) Install(ctx context.Context, payload string, m catalog.Method) (*installer.Result, error) {
	path, err := verifyPayload(payload)
	if err != nil {
		return nil, err
	}
	if m.IsNone() {
		return nil, e.noRecommendation()
	}
	if !e.catalog.Contains(m.ID) {
		return nil, nkerrors.New(nkerrors.UnsupportedMethod, m.Label).
			WithMetadata("catalog", strings.Join(e.catalog.Labels(), ", "))
	}

	inst, ok := e.installerSet().For(m.ID)
	if !ok {
		return nil, nkerrors.New(nkerrors.InstallerMissing, m.Label)
	}

	req := installer.Request{
		Payload: path,
		Method:  m,
		Root:    "/",
	}
	if src, ok := e.availability.(ElectronSource); ok {
		req.Electron = src.ElectronApplication()
	}

	e.logger.Info("Installing payload", "payload", path, "method", m.Label)

	var result *installer.Result
	if m.SealedVolume {
		vol, err := e.systemVolume()
		if err != nil {
			return nil, err
		}
		err = volume.WithWritableRoot(ctx, vol, func(root string) error {
			req.Root = root
			req.DeferStart = vol.RequiresReboot()
			var ierr error
			result, ierr = inst.Install(ctx, req)
			return asInstallError(ierr, m)
		})
		if err != nil {
			return nil, err
		}
	} else {
		result, err = inst.Install(ctx, req)
		if err != nil {
			return nil, asInstallError(err, m)
		}
	}

	e.logger.Info("Installed payload",
		"method", m.Label,
		"path", result.PayloadPath,
		"definition", result.Definition)
	if result.Deferred {
		e.logger.Info("Persistence will take effect on next boot", "method", m.Label)
	}
	return result, nil
}

// RemovePayload deletes the original payload after a successful install.
func (e *Engine) RemovePayload(ctx context.Context, payload string) error {
	path, err := verifyPayload(payload)
	if err != nil {
		return err
	}
	files := installer.NewLocalFileOperations(e.logger, filepath.Dir(path))
	if err := files.DeleteFile(ctx, path); err != nil {
		return nkerrors.Wrap(err, nkerrors.PayloadRemoveFailed).WithMetadata("payload", path)
	}
	e.logger.Info("Removed payload", "payload", path)
	return nil
}

func (e *Engine) installerSet() *installer.Set {
	if e.installers != nil {
		return e.installers
	}
	if !e.envSet {
		env, err := installer.DefaultEnv("", "")
		if err != nil {
			e.logger.Warn("Failed to resolve installer environment", "err", err)
		}
		e.env = env
		e.envSet = true
	}
	e.installers = installer.DefaultSet(e.logger, e.runner, e.platform, e.env)
	return e.installers
}

// systemVolume resolves the mount protocol from the running kernel on first
// use.
func (e *Engine) systemVolume() (volume.Volume, error) {
	if e.volume != nil {
		return e.volume, nil
	}
	if e.platform != platform.Darwin {
		e.volume = volume.Passthrough{}
		return e.volume, nil
	}

	host, err := platform.Detect()
	if err != nil {
		return nil, nkerrors.Wrap(err, nkerrors.VolumeUnsupportedOS)
	}
	major, err := host.KernelMajor()
	if err != nil {
		return nil, nkerrors.Wrap(err, nkerrors.VolumeUnsupportedOS).
			WithMetadata("release", host.Release)
	}
	m := volume.NewMounter(e.logger, e.runner, major, volume.WithArch(host.Arch))
	e.logger.Debug("Selected volume protocol", "xnu_major", major, "tier", m.Tier().String())
	e.volume = m
	return e.volume, nil
}

func verifyPayload(payload string) (string, error) {
	if payload == "" {
		return "", nkerrors.New(nkerrors.PayloadNotFound, "no payload given")
	}
	path, err := filepath.Abs(payload)
	if err != nil {
		return "", nkerrors.Wrap(err, nkerrors.PayloadNotFound).WithMetadata("payload", payload)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", nkerrors.Wrap(err, nkerrors.PayloadNotFound).WithMetadata("payload", path)
	}
	if info.IsDir() {
		return "", nkerrors.New(nkerrors.PayloadNotFound, "payload is a directory").
			WithMetadata("payload", path)
	}
	return path, nil
}

// asInstallError gives uncoded installer errors the InstallFailed code and
// leaves coded ones untouched.
func asInstallError(err error, m catalog.Method) error {
	if err == nil {
		return nil
	}
	if _, ok := nkerrors.CodeOf(err); ok {
		return err
	}
	return nkerrors.Wrap(err, nkerrors.InstallFailed).WithMetadata("method", m.Label)
}
