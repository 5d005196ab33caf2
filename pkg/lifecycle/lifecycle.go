// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package lifecycle handles process-wide concerns: termination signals,
// shutdown hooks and the single-instance lock.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
)

var (
	mu            sync.Mutex
	shutdownHooks []func()
)

// RegisterShutdownHook adds a hook run by RunShutdownHooks.
func RegisterShutdownHook(hook func()) {
	mu.Lock()
	defer mu.Unlock()
	shutdownHooks = append(shutdownHooks, hook)
}

// RunShutdownHooks runs the registered hooks in reverse order of
// registration and clears them.
func RunShutdownHooks() {
	mu.Lock()
	hooks := shutdownHooks
	shutdownHooks = nil
	mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}

// HandleSignals returns a context that is cancelled on SIGINT or SIGTERM.
// Cancellation lets an in-flight install unwind, including unmounting a
// system volume, instead of exiting mid-way.
func HandleSignals(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(stop)
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// pidWriteGrace is how long an empty PID file is assumed to belong to a
// holder that has created it but not yet written its PID.
const pidWriteGrace = 2 * time.Second

// EnsureSingleInstance creates pidPath holding the current PID unless a live
// process already owns it. The file is created exclusively; a stale file is
// removed and creation is retried once. The returned release removes the file
// and is also registered as a shutdown hook.
func EnsureSingleInstance(pidPath string) (release func(), err error) {
	if pidPath == "" {
		return nil, nkerrors.New(nkerrors.FSError, "invalid PID file path")
	}

	for attempt := 0; ; attempt++ {
		err := createPIDFile(pidPath)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, nkerrors.Wrap(err, nkerrors.FSError).
				WithMetadata("operation", "write_pid").
				WithMetadata("path", pidPath)
		}
		if attempt > 0 {
			return nil, nkerrors.New(nkerrors.InstanceRunning, "PID file was recreated concurrently").
				WithMetadata("path", pidPath)
		}
		if err := checkStale(pidPath); err != nil {
			return nil, err
		}
		if err := os.Remove(pidPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, nkerrors.Wrap(err, nkerrors.FSError).
				WithMetadata("operation", "remove_stale_pid").
				WithMetadata("path", pidPath)
		}
	}

	var once sync.Once
	release = func() {
		once.Do(func() { _ = os.Remove(pidPath) })
	}
	RegisterShutdownHook(release)
	return release, nil
}

func createPIDFile(pidPath string) error {
	f, err := os.OpenFile(pidPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	_, err = f.WriteString(strconv.Itoa(os.Getpid()))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(pidPath)
	}
	return err
}

// checkStale returns nil when the PID file at pidPath may be replaced.
func checkStale(pidPath string) error {
	info, err := os.Stat(pidPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return nkerrors.Wrap(err, nkerrors.FSError).WithMetadata("path", pidPath)
	}

	pidBytes, err := os.ReadFile(pidPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return nkerrors.Wrap(err, nkerrors.FSError).WithMetadata("path", pidPath)
	}

	content := strings.TrimSpace(string(pidBytes))
	if content == "" {
		if time.Since(info.ModTime()) < pidWriteGrace {
			return nkerrors.New(nkerrors.InstanceRunning, "PID file is being written").
				WithMetadata("path", pidPath)
		}
		return nil
	}

	pid, err := strconv.Atoi(content)
	if err != nil {
		return nkerrors.Wrap(err, nkerrors.FSError).
			WithMetadata("path", pidPath).
			WithMetadata("content", content)
	}
	if pid == os.Getpid() || processAlive(pid) {
		return nkerrors.New(nkerrors.InstanceRunning, fmt.Sprintf("PID %d", pid)).
			WithMetadata("path", pidPath)
	}
	return nil
}

func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
