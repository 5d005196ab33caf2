// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/stratastor/logger"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
)

// Dangerous characters that could enable command injection
var dangerousChars = "&|><$`;{}"

// maxArgs caps the argument count of a single invocation
const maxArgs = 64

// Runner executes external programs. Probes, the volume mounter and the
// installers take a Runner so tests can record invocations.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	RunInput(ctx context.Context, input []byte, name string, args ...string) ([]byte, error)
}

// Executor is the Runner backed by os/exec.
type Executor struct {
	logger logger.Logger
}

// NewExecutor creates an Executor that logs every invocation at debug level.
func NewExecutor(l logger.Logger) *Executor {
	return &Executor{logger: l}
}

// Run implements Runner.
func (e *Executor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return ExecCommandInput(ctx, e.logger, nil, name, args...)
}

// RunInput implements Runner.
func (e *Executor) RunInput(
	ctx context.Context,
	input []byte,
	name string,
	args ...string,
) ([]byte, error) {
	return ExecCommandInput(ctx, e.logger, input, name, args...)
}

// ExecCommand executes a system command with proper security checks
func ExecCommand(
	ctx context.Context,
	logger logger.Logger,
	name string,
	args ...string,
) ([]byte, error) {
	return ExecCommandInput(ctx, logger, nil, name, args...)
}

// ExecCommandInput executes a system command, feeding input on stdin when it
// is non-nil. It returns stdout; stderr is attached to the error metadata.
// No timeout is applied beyond the deadline already carried by ctx.
func ExecCommandInput(
	ctx context.Context,
	logger logger.Logger,
	input []byte,
	name string,
	args ...string,
) ([]byte, error) {
	if err := validateCommand(name, args); err != nil {
		return nil, err
	}

	cmdString := name + " " + strings.Join(args, " ")
	logger.Debug("Executing command", "cmd", cmdString)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = minimalEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			logger.Error("Command execution failed with exit code",
				"cmd", cmdString,
				"exit_code", exitErr.ExitCode(),
				"stderr", stderr.String())

			return stdout.Bytes(), nkerrors.NewCommandError(
				cmdString,
				exitErr.ExitCode(),
				stderr.String(),
			).WithMetadata("output", stdout.String())
		}

		if errors.Is(err, exec.ErrNotFound) {
			return nil, nkerrors.Wrap(err, nkerrors.CommandNotFound).
				WithMetadata("command", cmdString)
		}

		logger.Error("Command execution failed",
			"cmd", cmdString,
			"err", err)

		return stdout.Bytes(), nkerrors.Wrap(err, nkerrors.CommandExecution).
			WithMetadata("command", cmdString)
	}

	return stdout.Bytes(), nil
}

// minimalEnv passes through only what the invoked system tools need to
// locate binaries and, on Windows, the system root.
func minimalEnv() []string {
	env := []string{}
	keys := []string{"PATH"}
	if runtime.GOOS == "windows" {
		keys = append(keys, "SystemRoot", "COMSPEC")
	}
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			env = append(env, k+"="+v)
		}
	}
	return env
}

// validateCommand performs security checks on the command and arguments
func validateCommand(name string, args []string) error {
	if name == "" {
		return nkerrors.New(nkerrors.CommandInvalidInput, "empty command")
	}

	// Absolute path or bare program name only
	if !isAbsolute(name) && strings.ContainsAny(name, "/\\") {
		return nkerrors.New(
			nkerrors.CommandInvalidInput,
			"relative paths are not allowed for commands",
		)
	}

	if strings.ContainsAny(name, dangerousChars) {
		return nkerrors.New(nkerrors.CommandInvalidInput, "command contains invalid characters")
	}

	for _, arg := range args {
		if strings.ContainsAny(arg, dangerousChars) {
			return nkerrors.New(
				nkerrors.CommandInvalidInput,
				fmt.Sprintf("argument %q contains invalid characters", arg),
			)
		}

		if strings.Contains(arg, "..") {
			return nkerrors.New(nkerrors.CommandInvalidInput, "path traversal not allowed")
		}
	}

	if len(args) > maxArgs {
		return nkerrors.New(nkerrors.CommandInvalidInput, "too many arguments")
	}

	return nil
}

func isAbsolute(name string) bool {
	if strings.HasPrefix(name, "/") {
		return true
	}
	// C:\Windows\System32\whoami.exe
	return len(name) > 2 && name[1] == ':' && (name[2] == '\\' || name[2] == '/')
}
