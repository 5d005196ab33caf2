// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunShutdownHooks_ReverseOrder(t *testing.T) {
	var order []int
	RegisterShutdownHook(func() { order = append(order, 1) })
	RegisterShutdownHook(func() { order = append(order, 2) })
	RegisterShutdownHook(func() { order = append(order, 3) })

	RunShutdownHooks()
	assert.Equal(t, []int{3, 2, 1}, order)

	RunShutdownHooks()
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestEnsureSingleInstance(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "nekrosis.pid")

	release, err := EnsureSingleInstance(pidPath)
	require.NoError(t, err)

	content, err := os.ReadFile(pidPath)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(content))

	release()
	assert.NoFileExists(t, pidPath)
	release()
	RunShutdownHooks()
}

func TestEnsureSingleInstance_Held(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("signal 0 is not supported on windows")
	}

	cmd := exec.Command("sleep", "30")
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	pidPath := filepath.Join(t.TempDir(), "nekrosis.pid")
	require.NoError(t, os.WriteFile(pidPath, []byte(strconv.Itoa(cmd.Process.Pid)), 0o644))

	_, err := EnsureSingleInstance(pidPath)
	require.Error(t, err)
	assert.True(t, nkerrors.HasCode(err, nkerrors.InstanceRunning))
	assert.FileExists(t, pidPath)
}

func TestEnsureSingleInstance_Stale(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]string{
		"empty": "",
		"dead":  "2147483646",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			pidPath := filepath.Join(dir, name+".pid")
			require.NoError(t, os.WriteFile(pidPath, []byte(content), 0o644))
			old := time.Now().Add(-time.Hour)
			require.NoError(t, os.Chtimes(pidPath, old, old))

			release, err := EnsureSingleInstance(pidPath)
			require.NoError(t, err)
			defer release()
		})
	}
	RunShutdownHooks()

	pidPath := filepath.Join(dir, "garbage.pid")
	require.NoError(t, os.WriteFile(pidPath, []byte("not-a-pid"), 0o644))
	_, err := EnsureSingleInstance(pidPath)
	assert.True(t, nkerrors.HasCode(err, nkerrors.FSError))
}

func TestEnsureSingleInstance_SecondAcquireFails(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "nekrosis.pid")

	release, err := EnsureSingleInstance(pidPath)
	require.NoError(t, err)
	defer release()

	_, err = EnsureSingleInstance(pidPath)
	require.Error(t, err)
	assert.True(t, nkerrors.HasCode(err, nkerrors.InstanceRunning))

	content, err := os.ReadFile(pidPath)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(content))
}

func TestEnsureSingleInstance_FreshEmptyFileIsHeld(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "nekrosis.pid")
	require.NoError(t, os.WriteFile(pidPath, nil, 0o644))

	_, err := EnsureSingleInstance(pidPath)
	require.Error(t, err)
	assert.True(t, nkerrors.HasCode(err, nkerrors.InstanceRunning))
	assert.FileExists(t, pidPath)
}

func TestEnsureSingleInstance_ConcurrentAcquire(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "nekrosis.pid")

	var (
		wg       sync.WaitGroup
		acquired atomic.Int32
		releases = make(chan func(), 8)
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := EnsureSingleInstance(pidPath)
			if err != nil {
				assert.True(t, nkerrors.HasCode(err, nkerrors.InstanceRunning))
				return
			}
			acquired.Add(1)
			releases <- release
		}()
	}
	wg.Wait()
	close(releases)

	assert.Equal(t, int32(1), acquired.Load())
	for release := range releases {
		release()
	}
	assert.NoFileExists(t, pidPath)
	RunShutdownHooks()
}

func TestHandleSignals_ParentCancel(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := HandleSignals(parent)
	defer cancel()

	cancelParent()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
