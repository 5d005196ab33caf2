// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package installer

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/stratastor/logger"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
)

// FileOperations are the filesystem writes an installer may perform.
type FileOperations interface {
	// MkdirAll creates a directory tree
	MkdirAll(ctx context.Context, dir string, perm fs.FileMode) error

	// WriteFile writes data, replacing any existing file
	WriteFile(ctx context.Context, path string, data []byte, perm fs.FileMode) error

	// CopyFile copies src to dst and applies perm to dst
	CopyFile(ctx context.Context, src, dst string, perm fs.FileMode) error

	// DeleteFile removes a file
	DeleteFile(ctx context.Context, path string) error

	// Exists checks if a file exists
	Exists(ctx context.Context, path string) (bool, error)
}

// LocalFileOperations performs writes with the caller's own privileges and
// refuses any destination outside its allowed paths.
type LocalFileOperations struct {
	logger        logger.Logger
	allowedPaths  []string
	allowedRegexp []*regexp.Regexp
}

var _ FileOperations = (*LocalFileOperations)(nil)

// NewLocalFileOperations scopes writes to allowedPaths and their children.
func NewLocalFileOperations(l logger.Logger, allowedPaths ...string) *LocalFileOperations {
	allowedRegexp := make([]*regexp.Regexp, 0, len(allowedPaths))
	for _, path := range allowedPaths {
		re := regexp.MustCompile("^" + regexp.QuoteMeta(filepath.Clean(path)) + "($|" + regexp.QuoteMeta(string(filepath.Separator)) + ".*)")
		allowedRegexp = append(allowedRegexp, re)
	}

	return &LocalFileOperations{
		logger:        l,
		allowedPaths:  allowedPaths,
		allowedRegexp: allowedRegexp,
	}
}

func (o *LocalFileOperations) isPathAllowed(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	for _, re := range o.allowedRegexp {
		if re.MatchString(absPath) {
			return true
		}
	}
	return false
}

func (o *LocalFileOperations) denied(path string) error {
	return nkerrors.New(nkerrors.FSError, "path outside installation scope").
		WithMetadata("path", path)
}

func (o *LocalFileOperations) MkdirAll(_ context.Context, dir string, perm fs.FileMode) error {
	if !o.isPathAllowed(dir) {
		return o.denied(dir)
	}
	if err := os.MkdirAll(dir, perm); err != nil {
		return nkerrors.Wrap(err, nkerrors.FSError).
			WithMetadata("operation", "mkdir").
			WithMetadata("path", dir)
	}
	return nil
}

func (o *LocalFileOperations) WriteFile(_ context.Context, path string, data []byte, perm fs.FileMode) error {
	if !o.isPathAllowed(path) {
		return o.denied(path)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return nkerrors.Wrap(err, nkerrors.FSError).
			WithMetadata("operation", "write_file").
			WithMetadata("path", path)
	}
	// WriteFile only applies perm on create.
	if err := os.Chmod(path, perm); err != nil {
		return nkerrors.Wrap(err, nkerrors.FSError).
			WithMetadata("operation", "chmod").
			WithMetadata("path", path)
	}
	return nil
}

func (o *LocalFileOperations) CopyFile(_ context.Context, src, dst string, perm fs.FileMode) error {
	if !o.isPathAllowed(dst) {
		return o.denied(dst)
	}

	in, err := os.Open(src)
	if err != nil {
		return nkerrors.Wrap(err, nkerrors.FSError).
			WithMetadata("operation", "copy_file").
			WithMetadata("src", src)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return nkerrors.Wrap(err, nkerrors.FSError).
			WithMetadata("operation", "copy_file").
			WithMetadata("dst", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return nkerrors.Wrap(err, nkerrors.FSError).
			WithMetadata("operation", "copy_file").
			WithMetadata("src", src).
			WithMetadata("dst", dst)
	}
	if err := out.Close(); err != nil {
		return nkerrors.Wrap(err, nkerrors.FSError).
			WithMetadata("operation", "copy_file").
			WithMetadata("dst", dst)
	}
	if err := os.Chmod(dst, perm); err != nil {
		return nkerrors.Wrap(err, nkerrors.FSError).
			WithMetadata("operation", "chmod").
			WithMetadata("path", dst)
	}

	o.logger.Debug("Copied file", "src", src, "dst", dst)
	return nil
}

func (o *LocalFileOperations) DeleteFile(_ context.Context, path string) error {
	if !o.isPathAllowed(path) {
		return o.denied(path)
	}
	if err := os.Remove(path); err != nil {
		return nkerrors.Wrap(err, nkerrors.FSError).
			WithMetadata("operation", "delete_file").
			WithMetadata("path", path)
	}
	return nil
}

func (o *LocalFileOperations) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, nkerrors.Wrap(err, nkerrors.FSError).WithMetadata("path", path)
}
