// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package serial_test

import (
	"io"
	"testing"
	"time"

	"github.com/aibor/bootlab/internal/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkTransport replays fixed chunks, simulating arbitrary splits of the
// byte stream across single receives. An empty chunk simulates a receive
// timeout. After the last chunk the stream reports end.
type chunkTransport struct {
	chunks [][]byte
	idx    int
}

func (t *chunkTransport) Receive(_ time.Duration) ([]byte, error) {
	if t.idx >= len(t.chunks) {
		return nil, io.EOF
	}

	chunk := t.chunks[t.idx]
	t.idx++

	return chunk, nil
}

func TestFramerRun(t *testing.T) {
	tests := []struct {
		name     string
		chunks   [][]byte
		expected []string
	}{
		{
			name: "empty stream",
		},
		{
			name:     "single line in one chunk",
			chunks:   [][]byte{[]byte("AI-OS Boot v0.3\n")},
			expected: []string{"AI-OS Boot v0.3"},
		},
		{
			name:     "crlf line endings",
			chunks:   [][]byte{[]byte("PONG\r\nREADY\r\n")},
			expected: []string{"PONG", "READY"},
		},
		{
			name: "line split mid-word across chunks",
			chunks: [][]byte{
				[]byte("AI-OS Bo"),
				[]byte("ot v0.3\nReady for com"),
				[]byte("mands\n"),
			},
			expected: []string{"AI-OS Boot v0.3", "Ready for commands"},
		},
		{
			name: "byte-wise splits",
			chunks: [][]byte{
				{'P'}, {'O'}, {'N'}, {'G'}, {'\r'}, {'\n'},
			},
			expected: []string{"PONG"},
		},
		{
			name: "timeouts interleaved",
			chunks: [][]byte{
				[]byte("PO"), {}, {}, []byte("NG\n"), {},
			},
			expected: []string{"PONG"},
		},
		{
			name: "newline split from line",
			chunks: [][]byte{
				[]byte("PONG"),
				[]byte("\n"),
			},
			expected: []string{"PONG"},
		},
		{
			name:     "trailing whitespace trimmed",
			chunks:   [][]byte{[]byte("PONG \t\r\n")},
			expected: []string{"PONG"},
		},
		{
			name:     "incomplete trailing line is not emitted",
			chunks:   [][]byte{[]byte("PONG\npartial")},
			expected: []string{"PONG"},
		},
		{
			name:     "empty lines are preserved",
			chunks:   [][]byte{[]byte("a\n\nb\n")},
			expected: []string{"a", "", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := serial.NewLineQueue()
			framer := serial.NewFramer(&chunkTransport{chunks: tt.chunks}, queue)

			err := framer.Run()
			require.ErrorIs(t, err, io.EOF)

			actual := []string{}
			for range queue.Len() {
				line, ok := queue.Pop(time.Millisecond)
				require.True(t, ok)
				actual = append(actual, line)
			}

			if tt.expected == nil {
				tt.expected = []string{}
			}

			assert.Equal(t, tt.expected, actual)
		})
	}
}

// TestFramerChunkBoundaryIndependence verifies that any split of the same
// byte stream produces the identical line sequence.
func TestFramerChunkBoundaryIndependence(t *testing.T) {
	stream := []byte("AI-OS Boot v0.3\r\nMemory: 128MB\r\nReady for commands\r\n")

	frame := func(chunks [][]byte) []string {
		queue := serial.NewLineQueue()
		framer := serial.NewFramer(&chunkTransport{chunks: chunks}, queue)

		err := framer.Run()
		require.ErrorIs(t, err, io.EOF)

		lines := []string{}
		for range queue.Len() {
			line, ok := queue.Pop(time.Millisecond)
			require.True(t, ok)
			lines = append(lines, line)
		}

		return lines
	}

	expected := frame([][]byte{stream})

	for splitAt := 1; splitAt < len(stream); splitAt++ {
		chunks := [][]byte{stream[:splitAt], stream[splitAt:]}
		assert.Equal(t, expected, frame(chunks), "split at byte %d", splitAt)
	}
}
