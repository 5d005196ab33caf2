// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stratastor/logger"
	"github.com/stratastor/nekrosis/internal/command/commandtest"
	"github.com/stratastor/nekrosis/internal/services/systemd"
	"github.com/stratastor/nekrosis/pkg/catalog"
	"github.com/stratastor/nekrosis/pkg/electron"
	"github.com/stratastor/nekrosis/pkg/platform"
	"github.com/stratastor/nekrosis/pkg/sip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestLogger(t *testing.T) logger.Logger {
	testLogger, err := logger.New(logger.Config{LogLevel: "debug"})
	require.NoError(t, err)
	return testLogger
}

func found(string) (string, error)   { return "/usr/bin/crontab", nil }
func missing(string) (string, error) { return "", exec.ErrNotFound }
func booted() bool                   { return true }
func notBooted() bool                { return false }

type fakeFinder struct {
	app *electron.Application
	err error
}

func (f fakeFinder) FindFirstExploitable(context.Context) (*electron.Application, error) {
	return f.app, f.err
}

type fakeSIP struct{ ok bool }

func (f fakeSIP) CanEditRoot(context.Context) (bool, error) { return f.ok, nil }

func TestHost_Cron(t *testing.T) {
	const systemctl = "/usr/bin/systemctl"

	tests := []struct {
		name     string
		platform platform.Platform
		lookPath func(string) (string, error)
		booted   func() bool
		disabled []string
		want     bool
	}{
		{
			name:     "no crontab",
			platform: platform.Linux,
			lookPath: missing,
			booted:   booted,
			want:     false,
		},
		{
			name:     "linux without systemd",
			platform: platform.Linux,
			lookPath: found,
			booted:   notBooted,
			want:     true,
		},
		{
			name:     "debian cron enabled",
			platform: platform.Linux,
			lookPath: found,
			booted:   booted,
			disabled: []string{"crond.service"},
			want:     true,
		},
		{
			name:     "redhat crond enabled",
			platform: platform.Linux,
			lookPath: found,
			booted:   booted,
			disabled: []string{"cron.service"},
			want:     true,
		},
		{
			name:     "cron units disabled",
			platform: platform.Linux,
			lookPath: found,
			booted:   booted,
			disabled: []string{"cron.service", "crond.service"},
			want:     false,
		},
		{
			name:     "darwin",
			platform: platform.Darwin,
			lookPath: found,
			booted:   notBooted,
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := createTestLogger(t)
			rec := commandtest.NewRecorder()
			for _, unit := range tt.disabled {
				rec.Fail(systemctl+" is-enabled "+unit, 1, "disabled")
			}

			h := New(l, Deps{
				Platform:      tt.platform,
				Runner:        rec,
				LookPath:      tt.lookPath,
				SystemdBooted: tt.booted,
				Units:         systemd.NewClientWithBinary(l, rec, systemctl),
				SIP:           sip.Unsupported{},
				Electron:      fakeFinder{},
			})

			got, err := h.Available(context.Background(), catalog.RequireCron)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHost_Systemd(t *testing.T) {
	l := createTestLogger(t)
	h := New(l, Deps{Platform: platform.Linux, Runner: commandtest.NewRecorder(), SystemdBooted: booted})
	ok, err := h.Available(context.Background(), catalog.RequireSystemd)
	require.NoError(t, err)
	assert.True(t, ok)

	h = New(l, Deps{Platform: platform.Darwin, Runner: commandtest.NewRecorder(), SystemdBooted: booted})
	ok, err = h.Available(context.Background(), catalog.RequireSystemd)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHost_Electron(t *testing.T) {
	l := createTestLogger(t)
	app := &electron.Application{Path: "/Applications/Slack.app"}

	h := New(l, Deps{
		Platform: platform.Darwin,
		Runner:   commandtest.NewRecorder(),
		Electron: fakeFinder{app: app},
		SIP:      fakeSIP{},
	})
	ok, err := h.Available(context.Background(), catalog.RequireElectron)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, app, h.ElectronApplication())

	h = New(l, Deps{
		Platform: platform.Darwin,
		Runner:   commandtest.NewRecorder(),
		Electron: fakeFinder{err: errors.New("walk failed")},
		SIP:      fakeSIP{},
	})
	_, err = h.Available(context.Background(), catalog.RequireElectron)
	require.Error(t, err)
	assert.Nil(t, h.ElectronApplication())

	h = New(l, Deps{Platform: platform.Linux, Runner: commandtest.NewRecorder()})
	ok, err = h.Available(context.Background(), catalog.RequireElectron)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHost_SIP(t *testing.T) {
	l := createTestLogger(t)
	h := New(l, Deps{
		Platform: platform.Darwin,
		Runner:   commandtest.NewRecorder(),
		Electron: fakeFinder{},
		SIP:      fakeSIP{ok: true},
	})
	ok, err := h.Available(context.Background(), catalog.RequireSIPLowered)
	require.NoError(t, err)
	assert.True(t, ok)

	h = New(l, Deps{Platform: platform.Windows, Runner: commandtest.NewRecorder()})
	ok, err = h.Available(context.Background(), catalog.RequireSIPLowered)
	require.NoError(t, err)
	assert.False(t, ok)
}
