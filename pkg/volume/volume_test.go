// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package volume

import (
	"context"
	"errors"
	"testing"

	"github.com/stratastor/logger"
	"github.com/stratastor/nekrosis/internal/command/commandtest"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const diskutilSnapshot = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>APFSSnapshot</key>
	<true/>
	<key>DeviceIdentifier</key>
	<string>disk3s1s1</string>
	<key>MountPoint</key>
	<string>/</string>
</dict>
</plist>`

const diskutilPlain = `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
	<key>DeviceIdentifier</key>
	<string>disk1s5</string>
</dict>
</plist>`

const diskutilLine = BinDiskutil + " info -plist /"

func createTestLogger(t *testing.T) logger.Logger {
	testLogger, err := logger.New(logger.Config{LogLevel: "debug"})
	require.NoError(t, err)
	return testLogger
}

func noOverlay(string) bool { return false }

func TestTierFor(t *testing.T) {
	tests := []struct {
		major int
		want  Tier
	}{
		{17, PreSealed},
		{18, PreSealed},
		{19, ReadOnlyUnsealed},
		{20, SealedSnapshot},
		{24, SealedSnapshot},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.major), "xnu %d", tt.major)
	}
}

func TestParseRootDeviceIdentifier(t *testing.T) {
	id, err := ParseRootDeviceIdentifier([]byte(diskutilSnapshot))
	require.NoError(t, err)
	assert.Equal(t, "disk3s1", id)

	id, err = ParseRootDeviceIdentifier([]byte(diskutilPlain))
	require.NoError(t, err)
	assert.Equal(t, "disk1s5", id)

	_, err = ParseRootDeviceIdentifier([]byte("not a plist"))
	require.Error(t, err)
	assert.True(t, nkerrors.HasCode(err, nkerrors.VolumeIdentifierFail))
}

func TestMounter_PreSealedPerformsNoOperations(t *testing.T) {
	rec := commandtest.NewRecorder()
	m := NewMounter(createTestLogger(t), rec, 18, WithExists(noOverlay))

	root, err := m.Mount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/", root)
	require.NoError(t, m.Unmount(context.Background()))

	assert.Empty(t, rec.Lines())
	assert.False(t, m.RequiresReboot())
}

func TestMounter_Catalina(t *testing.T) {
	rec := commandtest.NewRecorder()
	m := NewMounter(createTestLogger(t), rec, 19)

	root, err := m.Mount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/", root)
	assert.Equal(t, MountedInPlace, m.State())
	require.NoError(t, m.Unmount(context.Background()))

	assert.Equal(t, []string{
		"/sbin/mount -uw /",
		"/sbin/mount -ur /",
	}, rec.Lines())
}

func TestMounter_CatalinaMountFailure(t *testing.T) {
	rec := commandtest.NewRecorder().Fail("/sbin/mount -uw /", 1, "Operation not permitted")
	m := NewMounter(createTestLogger(t), rec, 19)

	_, err := m.Mount(context.Background())
	require.Error(t, err)
	assert.True(t, nkerrors.HasCode(err, nkerrors.MountFailed))
	assert.Equal(t, Unmounted, m.State())
}

func TestMounter_SealedCallOrder(t *testing.T) {
	tests := []struct {
		name string
		arch string
		want []string
	}{
		{
			name: "arm64",
			arch: "arm64",
			want: []string{
				diskutilLine,
				"/sbin/mount -o nobrowse -t apfs /dev/disk3s1 /System/Volumes/Update/mnt1",
				"/usr/sbin/bless --mount /System/Volumes/Update/mnt1 --create-snapshot",
				"/sbin/umount /System/Volumes/Update/mnt1",
			},
		},
		{
			name: "amd64",
			arch: "amd64",
			want: []string{
				diskutilLine,
				"/sbin/mount -o nobrowse -t apfs /dev/disk3s1 /System/Volumes/Update/mnt1",
				"/usr/sbin/bless --folder /System/Volumes/Update/mnt1/System/Library/CoreServices --bootefi --create-snapshot",
				"/sbin/umount /System/Volumes/Update/mnt1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := commandtest.NewRecorder().
				On(diskutilLine, commandtest.Response{Output: []byte(diskutilSnapshot)})
			m := NewMounter(createTestLogger(t), rec, 23, WithArch(tt.arch), WithExists(noOverlay))

			root, err := m.Mount(context.Background())
			require.NoError(t, err)
			assert.Equal(t, OverlayPath, root)
			assert.Equal(t, MountedAtOverlay, m.State())
			assert.True(t, m.RequiresReboot())

			require.NoError(t, m.Unmount(context.Background()))
			assert.Equal(t, Unmounted, m.State())
			assert.Equal(t, tt.want, rec.Lines())
		})
	}
}

func TestMounter_SealedReusesOverlay(t *testing.T) {
	rec := commandtest.NewRecorder()
	m := NewMounter(createTestLogger(t), rec, 22, WithArch("arm64"),
		WithExists(func(path string) bool {
			return path == OverlayPath+"/System/Library/CoreServices/SystemVersion.plist"
		}))

	root, err := m.Mount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OverlayPath, root)
	assert.Empty(t, rec.Lines())
}

func TestMounter_UnmountWithoutMount(t *testing.T) {
	for _, major := range []int{18, 19, 21} {
		rec := commandtest.NewRecorder()
		m := NewMounter(createTestLogger(t), rec, major, WithExists(noOverlay))

		err := m.Unmount(context.Background())
		require.Error(t, err)
		assert.True(t, nkerrors.HasCode(err, nkerrors.VolumeNotMounted))
		assert.Empty(t, rec.Lines())
	}
}

func TestMounter_BlessFailureKeepsMounted(t *testing.T) {
	rec := commandtest.NewRecorder().
		On(diskutilLine, commandtest.Response{Output: []byte(diskutilSnapshot)}).
		Fail("/usr/sbin/bless --mount /System/Volumes/Update/mnt1 --create-snapshot", 3, "bless failed")
	m := NewMounter(createTestLogger(t), rec, 21, WithArch("arm64"), WithExists(noOverlay))

	_, err := m.Mount(context.Background())
	require.NoError(t, err)

	err = m.Unmount(context.Background())
	require.Error(t, err)
	assert.True(t, nkerrors.HasCode(err, nkerrors.UnmountFailed))
	assert.Equal(t, MountedAtOverlay, m.State())
	assert.NotContains(t, rec.Lines(), "/sbin/umount /System/Volumes/Update/mnt1")
}

func TestMounter_DiskutilFailure(t *testing.T) {
	rec := commandtest.NewRecorder().Fail(diskutilLine, 1, "no such disk")
	m := NewMounter(createTestLogger(t), rec, 21, WithExists(noOverlay))

	_, err := m.Mount(context.Background())
	require.Error(t, err)
	assert.True(t, nkerrors.HasCode(err, nkerrors.MountFailed))
	assert.True(t, nkerrors.HasCode(err, nkerrors.VolumeIdentifierFail))
}

// recordingVolume records the paired-call protocol.
type recordingVolume struct {
	calls      []string
	mountErr   error
	unmountErr error
}

func (v *recordingVolume) Mount(context.Context) (string, error) {
	v.calls = append(v.calls, "mount")
	return "/overlay", v.mountErr
}

func (v *recordingVolume) Unmount(context.Context) error {
	v.calls = append(v.calls, "unmount")
	return v.unmountErr
}

func (v *recordingVolume) RequiresReboot() bool { return true }

func TestWithWritableRoot(t *testing.T) {
	installErr := errors.New("install failed")
	unmountErr := nkerrors.New(nkerrors.UnmountFailed, "bless failed")

	tests := []struct {
		name       string
		mountErr   error
		unmountErr error
		fnErr      error
		wantCalls  []string
		wantErrs   []error
	}{
		{
			name:      "success",
			wantCalls: []string{"mount", "fn", "unmount"},
		},
		{
			name:      "callback failure still unmounts",
			fnErr:     installErr,
			wantCalls: []string{"mount", "fn", "unmount"},
			wantErrs:  []error{installErr},
		},
		{
			name:       "unmount failure surfaces",
			unmountErr: unmountErr,
			wantCalls:  []string{"mount", "fn", "unmount"},
			wantErrs:   []error{unmountErr},
		},
		{
			name:       "both failures are joined",
			fnErr:      installErr,
			unmountErr: unmountErr,
			wantCalls:  []string{"mount", "fn", "unmount"},
			wantErrs:   []error{installErr, unmountErr},
		},
		{
			name:      "mount failure skips callback and unmount",
			mountErr:  nkerrors.New(nkerrors.MountFailed, "denied"),
			wantCalls: []string{"mount"},
			wantErrs:  []error{nkerrors.New(nkerrors.MountFailed, "")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &recordingVolume{mountErr: tt.mountErr, unmountErr: tt.unmountErr}
			err := WithWritableRoot(context.Background(), v, func(root string) error {
				assert.Equal(t, "/overlay", root)
				v.calls = append(v.calls, "fn")
				return tt.fnErr
			})

			assert.Equal(t, tt.wantCalls, v.calls)
			if len(tt.wantErrs) == 0 {
				assert.NoError(t, err)
				return
			}
			for _, want := range tt.wantErrs {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestPassthrough(t *testing.T) {
	var v Volume = Passthrough{}
	root, err := v.Mount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/", root)
	assert.NoError(t, v.Unmount(context.Background()))
	assert.False(t, v.RequiresReboot())
}
