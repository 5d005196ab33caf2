// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package installer holds the platform side effects that make a payload
// start at boot or login: crontab entries, systemd units, launchd property
// lists, startup folder copies and registry run keys.
package installer

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"github.com/stratastor/logger"
	"github.com/stratastor/nekrosis/internal/command"
	"github.com/stratastor/nekrosis/pkg/catalog"
	"github.com/stratastor/nekrosis/pkg/electron"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
	"github.com/stratastor/nekrosis/pkg/platform"
)

// DefaultLabelPrefix names launchd jobs, systemd units and run key values.
const DefaultLabelPrefix = "com.nekrosis"

// Request describes one installation.
type Request struct {
	// Payload is the absolute path of the executable to persist.
	Payload string
	Method  catalog.Method
	// Root is the writable path that maps to "/". It differs from "/" only
	// while a sealed system volume is mounted at an overlay.
	Root string
	// DeferStart asks the installer not to start the service now because the
	// change only becomes visible after the next boot.
	DeferStart bool
	// Electron is the vulnerable application used by the Electron method.
	Electron *electron.Application
}

// Result reports what an installer changed.
type Result struct {
	Method catalog.Method
	// PayloadPath is the relocated payload as seen after boot.
	PayloadPath string
	// Definition is the file, crontab entry or registry value that starts
	// the payload.
	Definition string
	Started    bool
	Deferred   bool
}

// Installer performs the side effects of one or more methods.
type Installer interface {
	Install(ctx context.Context, req Request) (*Result, error)
}

// InstallerFunc adapts a function to Installer.
type InstallerFunc func(ctx context.Context, req Request) (*Result, error)

func (f InstallerFunc) Install(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}

// Env is the host context shared by installers.
type Env struct {
	HomeDir     string
	Username    string
	LabelPrefix string
	// PayloadDir overrides the per-user relocation directory.
	PayloadDir  string
	AppData     string
	ProgramData string
}

// DefaultEnv resolves Env for the running user.
func DefaultEnv(labelPrefix, payloadDir string) (Env, error) {
	home, err := homedir.Dir()
	if err != nil {
		return Env{}, nkerrors.Wrap(err, nkerrors.ConfigHomeDirectoryError)
	}

	username := os.Getenv("USER")
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	if labelPrefix == "" {
		labelPrefix = DefaultLabelPrefix
	}
	if payloadDir != "" {
		if payloadDir, err = homedir.Expand(payloadDir); err != nil {
			return Env{}, nkerrors.Wrap(err, nkerrors.ConfigHomeDirectoryError)
		}
	}

	env := Env{
		HomeDir:     home,
		Username:    username,
		LabelPrefix: labelPrefix,
		PayloadDir:  payloadDir,
		AppData:     os.Getenv("APPDATA"),
		ProgramData: os.Getenv("ProgramData"),
	}
	if env.AppData == "" {
		env.AppData = filepath.Join(home, "AppData", "Roaming")
	}
	if env.ProgramData == "" {
		env.ProgramData = `C:\ProgramData`
	}
	return env, nil
}

// userPayloadDir is where user-scoped methods relocate the payload.
func (e Env) userPayloadDir(p platform.Platform) string {
	if e.PayloadDir != "" {
		return e.PayloadDir
	}
	name := strings.TrimPrefix(e.LabelPrefix, "com.")
	switch p {
	case platform.Darwin:
		return filepath.Join(e.HomeDir, "Library", "Application Support", name)
	case platform.Windows:
		return filepath.Join(e.AppData, name)
	default:
		return filepath.Join(e.HomeDir, ".local", "share", name)
	}
}

// newLabel returns a unique job label such as com.nekrosis.1b4e28ba.
func (e Env) newLabel() string {
	return e.LabelPrefix + "." + shortID()
}

func shortID() string {
	return strings.Split(uuid.NewString(), "-")[0]
}

// relocatedName keeps the payload recognisable while avoiding collisions
// between installs.
func relocatedName(payload string) string {
	base := filepath.Base(payload)
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s-%s%s", strings.TrimSuffix(base, ext), shortID(), ext)
}

// relocate copies payload into dir and returns the new path.
func relocate(ctx context.Context, files FileOperations, payload, dir string) (string, error) {
	if err := files.MkdirAll(ctx, dir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(dir, relocatedName(payload))
	if err := files.CopyFile(ctx, payload, dst, 0o755); err != nil {
		return "", err
	}
	return dst, nil
}

// underRoot maps an absolute path onto the writable root.
func underRoot(root, path string) string {
	if root == "" || root == "/" {
		return path
	}
	return filepath.Join(root, path)
}

// stripRoot maps a path beneath the writable root back to its boot-time path.
func stripRoot(root, path string) string {
	if root == "" || root == "/" {
		return path
	}
	trimmed := strings.TrimPrefix(path, filepath.Clean(root))
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return trimmed
}

func installFailed(err error, m catalog.Method) error {
	return nkerrors.Wrap(err, nkerrors.InstallFailed).WithMetadata("method", m.Label)
}

// Set maps method ids to installers.
type Set struct {
	installers map[catalog.MethodID]Installer
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{installers: make(map[catalog.MethodID]Installer)}
}

// Register binds inst to the given methods.
func (s *Set) Register(inst Installer, ids ...catalog.MethodID) *Set {
	for _, id := range ids {
		s.installers[id] = inst
	}
	return s
}

// For returns the installer of id.
func (s *Set) For(id catalog.MethodID) (Installer, bool) {
	inst, ok := s.installers[id]
	return inst, ok
}

// DefaultSet wires the real installers of p.
func DefaultSet(l logger.Logger, runner command.Runner, p platform.Platform, env Env) *Set {
	set := NewSet()
	switch p {
	case platform.Linux:
		set.Register(NewCronInstaller(l, runner, p, env), catalog.CronjobUser, catalog.CronjobRoot)
		set.Register(NewSystemdInstaller(l, runner, env), catalog.SystemdServiceRoot)
	case platform.Darwin:
		set.Register(NewCronInstaller(l, runner, p, env), catalog.CronjobUser, catalog.CronjobRoot)
		set.Register(NewLaunchdInstaller(l, runner, env),
			catalog.LaunchAgentUser,
			catalog.LaunchAgentElectron,
			catalog.LaunchAgentLibrary,
			catalog.LaunchDaemonLibrary,
			catalog.LaunchAgentSystem,
			catalog.LaunchDaemonSystem)
	case platform.Windows:
		set.Register(NewStartupFolderInstaller(l, env),
			catalog.StartupFolderUser, catalog.StartupFolderGlobal)
		set.Register(NewRunKeyInstaller(l, env, nil), catalog.RegistryRunKey)
	}
	return set
}
