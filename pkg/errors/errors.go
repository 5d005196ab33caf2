// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// NekrosisError is the error type returned by every package of the engine.
type NekrosisError struct {
	Code    ErrorCode `json:"code"`
	Domain  Domain    `json:"domain"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`

	// Metadata carries command output, selectors, paths and similar context
	// that is useful in logs but does not belong in the message.
	Metadata map[string]string `json:"metadata,omitempty"`

	cause error
}

// New creates an error for a registered code.
func New(code ErrorCode, details string) *NekrosisError {
	def, ok := errorDefinitions[code]
	if !ok {
		return &NekrosisError{
			Code:    code,
			Domain:  DomainMisc,
			Message: "Unknown error",
			Details: details,
		}
	}
	return &NekrosisError{
		Code:    code,
		Domain:  def.domain,
		Message: def.message,
		Details: details,
	}
}

// Wrap attaches a code to an underlying error. Wrapping a NekrosisError keeps
// its metadata.
func Wrap(err error, code ErrorCode) *NekrosisError {
	if err == nil {
		return nil
	}
	e := New(code, err.Error())
	e.cause = err

	var inner *NekrosisError
	if stderrors.As(err, &inner) {
		for k, v := range inner.Metadata {
			e.WithMetadata(k, v)
		}
	}
	return e
}

// WithMetadata adds a key/value pair and returns the receiver for chaining.
func (e *NekrosisError) WithMetadata(key, value string) *NekrosisError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

func (e *NekrosisError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s-%d] %s", e.Domain, e.Code, e.Message)
	if e.Details != "" {
		b.WriteString(": ")
		b.WriteString(e.Details)
	}
	return b.String()
}

// Unwrap returns the wrapped cause, if any.
func (e *NekrosisError) Unwrap() error {
	return e.cause
}

// Is matches on the error code so that errors.Is(err, errors.New(code, ""))
// works regardless of details and metadata.
func (e *NekrosisError) Is(target error) bool {
	t, ok := target.(*NekrosisError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// MetadataString renders metadata sorted by key, for log lines.
func (e *NekrosisError) MetadataString() string {
	if len(e.Metadata) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Metadata))
	for k := range e.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+e.Metadata[k])
	}
	return strings.Join(parts, " ")
}

// HasCode reports whether any error in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	return stderrors.Is(err, &NekrosisError{Code: code})
}

// CodeOf returns the code of the outermost NekrosisError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var e *NekrosisError
	if stderrors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}

// NewCommandError records a failed external command.
func NewCommandError(command string, exitCode int, stderr string) *NekrosisError {
	return New(CommandExecution, fmt.Sprintf("command exited with status %d", exitCode)).
		WithMetadata("command", command).
		WithMetadata("exit_code", fmt.Sprintf("%d", exitCode)).
		WithMetadata("stderr", stderr)
}
