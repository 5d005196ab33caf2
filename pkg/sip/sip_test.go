// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package sip

import (
	"context"
	"testing"

	"github.com/stratastor/nekrosis/internal/command/commandtest"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		wantEdit bool
		custom   bool
	}{
		{
			name:     "enabled",
			output:   "System Integrity Protection status: enabled.\n",
			wantEdit: false,
		},
		{
			name:     "disabled",
			output:   "System Integrity Protection status: disabled.\n",
			wantEdit: true,
		},
		{
			name: "custom with filesystem protections off",
			output: "System Integrity Protection status: unknown (Custom Configuration).\n\n" +
				"Configuration:\n" +
				"\tApple Internal: disabled\n" +
				"\tKext Signing: enabled\n" +
				"\tFilesystem Protections: disabled\n" +
				"\tDebugging Restrictions: enabled\n",
			wantEdit: true,
			custom:   true,
		},
		{
			name: "custom with filesystem protections on",
			output: "System Integrity Protection status: unknown (Custom Configuration).\n\n" +
				"Configuration:\n" +
				"\tFilesystem Protections: enabled\n" +
				"\tDebugging Restrictions: disabled\n",
			wantEdit: false,
			custom:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseStatus([]byte(tt.output))
			require.NoError(t, err)
			assert.Equal(t, tt.wantEdit, s.CanEditRoot())
			assert.Equal(t, tt.custom, s.Custom)
		})
	}
}

func TestParseStatus_Unrecognised(t *testing.T) {
	_, err := ParseStatus([]byte("csrutil: command not found"))
	require.Error(t, err)
	assert.True(t, nkerrors.HasCode(err, nkerrors.CommandOutputParse))
}

func TestCSRUtil_CanEditRoot(t *testing.T) {
	rec := commandtest.NewRecorder().On(BinCsrutil+" status", commandtest.Response{
		Output: []byte("System Integrity Protection status: disabled.\n"),
	})
	ok, err := NewCSRUtil(rec).CanEditRoot(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	failing := commandtest.NewRecorder().Fail(BinCsrutil+" status", 1, "")
	ok, err = NewCSRUtil(failing).CanEditRoot(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
}

func TestUnsupported(t *testing.T) {
	ok, err := Unsupported{}.CanEditRoot(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
