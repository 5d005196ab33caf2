// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package installer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/stratastor/logger"
	"github.com/stratastor/nekrosis/internal/command"
	"github.com/stratastor/nekrosis/pkg/catalog"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
	"github.com/stratastor/nekrosis/pkg/platform"
)

const BinCrontab = "/usr/bin/crontab"

// CronInstaller adds an @reboot entry to a crontab.
type CronInstaller struct {
	logger   logger.Logger
	runner   command.Runner
	platform platform.Platform
	env      Env
}

func NewCronInstaller(l logger.Logger, runner command.Runner, p platform.Platform, env Env) *CronInstaller {
	return &CronInstaller{logger: l, runner: runner, platform: p, env: env}
}

func (c *CronInstaller) Install(ctx context.Context, req Request) (*Result, error) {
	var userArgs []string
	switch req.Method.ID {
	case catalog.CronjobUser:
	case catalog.CronjobRoot:
		userArgs = []string{"-u", "root"}
	default:
		return nil, nkerrors.New(nkerrors.UnsupportedMethod, req.Method.Label)
	}

	dir := c.env.userPayloadDir(c.platform)
	files := NewLocalFileOperations(c.logger, dir)
	payload, err := relocate(ctx, files, req.Payload, dir)
	if err != nil {
		return nil, installFailed(err, req.Method)
	}
	c.logger.Info("Relocated payload", "path", payload)

	current, err := c.readCrontab(ctx, userArgs)
	if err != nil {
		return nil, installFailed(err, req.Method)
	}

	entry := CronEntry(payload)
	updated := AppendCronEntry(current, entry)

	args := append(append([]string{}, userArgs...), "-")
	if _, err := c.runner.RunInput(ctx, updated, BinCrontab, args...); err != nil {
		return nil, installFailed(err, req.Method)
	}

	c.logger.Info("Installed cronjob", "entry", entry)
	return &Result{
		Method:      req.Method,
		PayloadPath: payload,
		Definition:  entry,
	}, nil
}

// readCrontab returns the current table. Only the "no crontab for" failure
// counts as an empty table; any other failure must not lead to the table
// being replaced.
func (c *CronInstaller) readCrontab(ctx context.Context, userArgs []string) ([]byte, error) {
	args := append(append([]string{}, userArgs...), "-l")
	out, err := c.runner.Run(ctx, BinCrontab, args...)
	if err != nil {
		if noCrontab(err) {
			c.logger.Debug("No existing crontab", "err", err)
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

func noCrontab(err error) bool {
	var e *nkerrors.NekrosisError
	if !errors.As(err, &e) || e.Code != nkerrors.CommandExecution {
		return false
	}
	return strings.Contains(e.Metadata["stderr"], "no crontab for")
}

// CronEntry renders the @reboot line for payload. Cron treats an unescaped
// % as a newline.
func CronEntry(payload string) string {
	quoted := shellquote.Join(payload)
	return "@reboot " + strings.ReplaceAll(quoted, "%", `\%`)
}

// AppendCronEntry adds entry to table unless an identical line exists.
func AppendCronEntry(table []byte, entry string) []byte {
	var b bytes.Buffer
	scanner := bufio.NewScanner(bytes.NewReader(table))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == entry {
			return table
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(entry)
	b.WriteByte('\n')
	return b.Bytes()
}
