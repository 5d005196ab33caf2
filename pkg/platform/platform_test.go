// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKernelMajor(t *testing.T) {
	tests := []struct {
		release string
		want    int
		wantErr bool
	}{
		{release: "23.4.0", want: 23},
		{release: "19.6.0", want: 19},
		{release: "18.7.0", want: 18},
		{release: "6.8.0-45-generic", want: 6},
		{release: "5.15.153.1-microsoft-standard-WSL2", want: 5},
		{release: "", wantErr: true},
		{release: "not-a-version", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.release, func(t *testing.T) {
			got, err := ParseKernelMajor(tt.release)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFriendlyName(t *testing.T) {
	assert.Equal(t, "macOS", Darwin.FriendlyName())
	assert.Equal(t, "Linux", Linux.FriendlyName())
	assert.Equal(t, "Windows", Windows.FriendlyName())
	assert.Equal(t, "plan9", Platform("plan9").FriendlyName())
	assert.True(t, Linux.IsPOSIX())
	assert.False(t, Windows.IsPOSIX())
}
