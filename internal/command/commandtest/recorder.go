// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package commandtest provides a recording command.Runner for tests.
package commandtest

import (
	"context"
	"strings"
	"sync"

	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
)

// Response is the scripted outcome of one command line.
type Response struct {
	Output   []byte
	ExitCode int
	Stderr   string
}

// Call is one recorded invocation.
type Call struct {
	Line  string
	Input []byte
}

// Recorder records every invocation and answers from Responses keyed by the
// full command line ("name arg1 arg2"). Unscripted lines succeed with no
// output.
type Recorder struct {
	mu        sync.Mutex
	Responses map[string]Response
	Calls     []Call
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{Responses: make(map[string]Response)}
}

// On scripts the response for a command line.
func (r *Recorder) On(line string, resp Response) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Responses[line] = resp
	return r
}

// Fail scripts a nonzero exit for a command line.
func (r *Recorder) Fail(line string, exitCode int, stderr string) *Recorder {
	return r.On(line, Response{ExitCode: exitCode, Stderr: stderr})
}

func (r *Recorder) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return r.RunInput(ctx, nil, name, args...)
}

func (r *Recorder) RunInput(
	_ context.Context,
	input []byte,
	name string,
	args ...string,
) ([]byte, error) {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, Call{Line: line, Input: input})

	resp, ok := r.Responses[line]
	if !ok {
		return nil, nil
	}
	if resp.ExitCode != 0 {
		return resp.Output, nkerrors.NewCommandError(line, resp.ExitCode, resp.Stderr)
	}
	return resp.Output, nil
}

// Lines returns the recorded command lines in call order.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := make([]string, 0, len(r.Calls))
	for _, c := range r.Calls {
		lines = append(lines, c.Line)
	}
	return lines
}
