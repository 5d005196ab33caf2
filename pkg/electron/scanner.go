// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package electron

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/stratastor/logger"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
)

const (
	DefaultSearchRoot = "/Applications"

	frameworkGlob = "*.app/Contents/Frameworks/Electron Framework.framework/Versions/A/Electron Framework"
	executableDir = "Contents/MacOS"
)

// DefaultExclusions are bundles known to report false positives.
var DefaultExclusions = []string{"/Applications/Visual Studio Code.app"}

// Application is an installed bundle whose runtime can be re-executed as an
// interpreter.
type Application struct {
	Path        string
	Framework   string
	Executables []string
}

// Executable returns the first executable that honours the trigger.
func (a *Application) Executable() string {
	if len(a.Executables) == 0 {
		return ""
	}
	return a.Executables[0]
}

// Scanner walks an application root for exploitable Electron bundles.
type Scanner struct {
	logger     logger.Logger
	root       string
	exclusions map[string]struct{}
}

// NewScanner creates a Scanner. An empty root uses DefaultSearchRoot; nil
// exclusions use DefaultExclusions.
func NewScanner(l logger.Logger, root string, exclusions []string) *Scanner {
	if root == "" {
		root = DefaultSearchRoot
	}
	if exclusions == nil {
		exclusions = DefaultExclusions
	}
	ex := make(map[string]struct{}, len(exclusions))
	for _, e := range exclusions {
		ex[filepath.Clean(e)] = struct{}{}
	}
	return &Scanner{logger: l, root: root, exclusions: ex}
}

// FindFirstExploitable returns the first vulnerable bundle in lexical order,
// or nil when none qualifies.
func (s *Scanner) FindFirstExploitable(ctx context.Context) (*Application, error) {
	frameworks, err := filepath.Glob(filepath.Join(s.root, frameworkGlob))
	if err != nil {
		return nil, nkerrors.Wrap(err, nkerrors.ElectronScanFailed).
			WithMetadata("root", s.root)
	}
	sort.Strings(frameworks)

	for _, framework := range frameworks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bundle := bundleOf(framework)
		if _, skip := s.exclusions[filepath.Clean(bundle)]; skip {
			s.logger.Debug("Skipping excluded application", "bundle", bundle)
			continue
		}

		app, ok := s.assessBundle(bundle, framework)
		if ok {
			s.logger.Info("Found exploitable Electron application",
				"bundle", app.Path,
				"executable", app.Executable())
			return app, nil
		}
	}

	return nil, nil
}

func (s *Scanner) assessBundle(bundle, framework string) (*Application, bool) {
	triggers, mitigated := s.inspectExecutables(bundle)
	if len(triggers) == 0 {
		return nil, false
	}

	app := &Application{Path: bundle, Framework: framework, Executables: triggers}
	if !mitigated {
		// Built before fuses existed.
		return app, true
	}

	data, err := os.ReadFile(framework)
	if err != nil {
		s.logger.Debug("Failed to read Electron framework", "framework", framework, "err", err)
		return nil, false
	}

	cfg, err := ParseFuseWire(data)
	switch {
	case errors.Is(err, ErrNoFuseWire):
		return app, true
	case err != nil:
		s.logger.Warn("Ignoring application with malformed fuse wire",
			"bundle", bundle,
			"err", err)
		return nil, false
	}

	state, _ := cfg.State(FuseRunAsNode)
	s.logger.Debug("Decoded fuse wire",
		"bundle", bundle,
		"version", cfg.Version,
		"run_as_node", state.String())
	return app, cfg.VulnerableToReexec()
}

// inspectExecutables returns the executables carrying the trigger string and
// whether any executable exports the fuse accessor symbol.
func (s *Scanner) inspectExecutables(bundle string) ([]string, bool) {
	entries, err := os.ReadDir(filepath.Join(bundle, executableDir))
	if err != nil {
		s.logger.Debug("No executables in bundle", "bundle", bundle, "err", err)
		return nil, false
	}

	var triggers []string
	mitigated := false
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(bundle, executableDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if bytes.Contains(data, []byte(RunAsNodeTrigger)) {
			triggers = append(triggers, path)
		}
		if bytes.Contains(data, []byte(RunAsNodeFuseSymbol)) {
			mitigated = true
		}
	}
	return triggers, mitigated
}

// bundleOf climbs from the framework binary to the enclosing .app.
func bundleOf(framework string) string {
	dir := framework
	for range 6 {
		dir = filepath.Dir(dir)
	}
	return dir
}
