// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu_test

import (
	"testing"

	"github.com/aibor/bootlab/internal/qemu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArgumentStrings(t *testing.T) {
	tests := []struct {
		name        string
		args        []qemu.Argument
		expected    []string
		expectedErr error
	}{
		{
			name:     "empty",
			expected: []string{},
		},
		{
			name: "unique args",
			args: []qemu.Argument{
				qemu.UniqueArg("display", "none"),
				qemu.UniqueArg("no-reboot"),
			},
			expected: []string{"-display", "none", "-no-reboot"},
		},
		{
			name: "repeatable args with different values",
			args: []qemu.Argument{
				qemu.RepeatableArg("serial", "tcp::5555,server,nowait"),
				qemu.RepeatableArg("serial", "tcp::5557,server,nowait"),
			},
			expected: []string{
				"-serial", "tcp::5555,server,nowait",
				"-serial", "tcp::5557,server,nowait",
			},
		},
		{
			name: "multi value",
			args: []qemu.Argument{
				qemu.RepeatableArg("drive", "format=raw", "file=boot.bin"),
			},
			expected: []string{"-drive", "format=raw,file=boot.bin"},
		},
		{
			name: "colliding unique args",
			args: []qemu.Argument{
				qemu.UniqueArg("m", "128"),
				qemu.UniqueArg("m", "256"),
			},
			expectedErr: qemu.ErrArgumentCollision,
		},
		{
			name: "colliding repeatable args",
			args: []qemu.Argument{
				qemu.RepeatableArg("serial", "tcp::5555,server,nowait"),
				qemu.RepeatableArg("serial", "tcp::5555,server,nowait"),
			},
			expectedErr: qemu.ErrArgumentCollision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := qemu.BuildArgumentStrings(tt.args)
			require.ErrorIs(t, err, tt.expectedErr)

			if tt.expectedErr == nil {
				assert.Equal(t, tt.expected, actual)
			}
		})
	}
}
