// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aibor/bootlab/internal/qemu"
)

func TestFlagsParseArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectedErr error
		assert      func(t *testing.T, f *flags)
	}{
		{
			name: "defaults",
			args: []string{},
			assert: func(t *testing.T, f *flags) {
				t.Helper()
				assert.Equal(t, listenDefault, f.listenAddr)
				assert.Equal(t, workDirDefault, f.workDir)
				assert.EqualValues(t, qemu.DefaultMemory, f.memory)
				assert.EqualValues(t, qemu.DefaultSerialPort, f.serialPort)
				assert.EqualValues(t, qemu.DefaultMonitorPort, f.monitorPort)
				assert.Empty(t, f.historyDB)
				assert.False(t, f.debug)
			},
		},
		{
			name: "all set",
			args: []string{
				"-listen", ":9000",
				"-workdir", "/tmp/lab",
				"-nasm-bin", "/usr/bin/nasm",
				"-qemu-bin", "/usr/bin/qemu-system-x86_64",
				"-memory", "256",
				"-serial-port", "6000",
				"-monitor-port", "6001",
				"-trace", "cpu_reset",
				"-history-db", "/tmp/lab/runs.db",
				"-debug-log", "/tmp/lab/qemu.log",
				"-debug",
			},
			assert: func(t *testing.T, f *flags) {
				t.Helper()
				assert.Equal(t, ":9000", f.listenAddr)
				assert.Equal(t, "/tmp/lab", f.workDir)
				assert.Equal(t, "/usr/bin/nasm", f.nasmBin)
				assert.EqualValues(t, 256, f.memory)
				assert.EqualValues(t, 6000, f.serialPort)
				assert.EqualValues(t, 6001, f.monitorPort)
				assert.Equal(t, "/tmp/lab/runs.db", f.historyDB)
				assert.True(t, f.debug)

				spec := f.qemuSpec("/tmp/lab/boot.bin")
				assert.Equal(t, "/tmp/lab/boot.bin", spec.Image)
				assert.Equal(t, "localhost:6000", spec.SerialAddr())
			},
		},
		{
			name:        "unknown flag",
			args:        []string{"-nope"},
			expectedErr: &ParseArgsError{},
		},
		{
			name:        "unexpected positional argument",
			args:        []string{"boot.asm"},
			expectedErr: &ParseArgsError{},
		},
		{
			name:        "empty workdir",
			args:        []string{"-workdir", ""},
			expectedErr: &ParseArgsError{},
		},
		{
			name:        "port out of range",
			args:        []string{"-serial-port", "70000"},
			expectedErr: &ParseArgsError{},
		},
		{
			name:        "port collision",
			args:        []string{"-serial-port", "6000", "-monitor-port", "6000"},
			expectedErr: &ParseArgsError{},
		},
		{
			name:        "version",
			args:        []string{"-version"},
			expectedErr: flag.ErrHelp,
		},
		{
			name:        "help",
			args:        []string{"-help"},
			expectedErr: &ParseArgsError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := newFlags(io.Discard)

			err := flags.ParseArgs(tt.args)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				return
			}

			require.NoError(t, err)

			if tt.assert != nil {
				tt.assert(t, flags)
			}
		})
	}
}
