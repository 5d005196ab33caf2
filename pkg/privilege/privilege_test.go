// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package privilege

import (
	"context"
	"testing"

	"github.com/stratastor/nekrosis/internal/command/commandtest"
	nkerrors "github.com/stratastor/nekrosis/pkg/errors"
	"github.com/stratastor/nekrosis/pkg/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel_IsPrivileged(t *testing.T) {
	assert.True(t, Root(platform.Linux).IsPrivileged())
	assert.False(t, User(platform.Linux, 1000).IsPrivileged())
	assert.True(t, Root(platform.Darwin).IsPrivileged())
	assert.True(t, Admin().IsPrivileged())
	assert.False(t, Standard().IsPrivileged())
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "Effective User ID: 501", User(platform.Darwin, 501).String())
	assert.Equal(t, "Administrator: true", Admin().String())
	assert.Equal(t, "Administrator: false", Standard().String())
}

func TestCurrent(t *testing.T) {
	l, err := Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, platform.Current(), l.Platform)
}

func TestParseWhoamiSID(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    string
		wantErr bool
	}{
		{
			name:   "domain account",
			output: "\"corp\\alice\",\"S-1-5-21-3623811015-3361044348-30300820-1013\"\r\n",
			want:   "S-1-5-21-3623811015-3361044348-30300820-1013",
		},
		{
			name:    "missing sid field",
			output:  "\"corp\\alice\"\r\n",
			wantErr: true,
		},
		{
			name:    "extra field",
			output:  "\"corp\\alice\",\"S-1-5-18\",\"x\"\r\n",
			wantErr: true,
		},
		{
			name:    "two records",
			output:  "\"a\",\"S-1-5-18\"\r\n\"b\",\"S-1-5-19\"\r\n",
			wantErr: true,
		},
		{
			name:    "wrong prefix",
			output:  "\"corp\\alice\",\"X-1-5-18\"\r\n",
			wantErr: true,
		},
		{
			name:    "bare prefix",
			output:  "\"corp\\alice\",\"S-1-\"\r\n",
			wantErr: true,
		},
		{
			name:    "empty",
			output:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWhoamiSID(tt.output)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, nkerrors.HasCode(err, nkerrors.PrivilegeProbeError))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithAccountSID(t *testing.T) {
	rec := commandtest.NewRecorder().On(
		BinWhoami+" /user /fo csv /nh",
		commandtest.Response{Output: []byte("\"host\\bob\",\"S-1-5-21-1-2-3-1001\"\r\n")},
	)

	l, err := WithAccountSID(context.Background(), Standard(), rec)
	require.NoError(t, err)
	assert.Equal(t, "S-1-5-21-1-2-3-1001", l.SID)
	assert.False(t, l.IsPrivileged())
}

func TestAccountSID_CommandFails(t *testing.T) {
	rec := commandtest.NewRecorder().Fail(BinWhoami+" /user /fo csv /nh", 1, "access denied")

	_, err := AccountSID(context.Background(), rec)
	require.Error(t, err)
	assert.True(t, nkerrors.HasCode(err, nkerrors.PrivilegeProbeError))
}
