// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package serial

import (
	"bytes"
	"strings"
	"time"
)

// DefaultPollTimeout is the receive timeout for a single framer iteration.
const DefaultPollTimeout = 100 * time.Millisecond

// Transport is the byte stream source a [Framer] reads from.
//
// [Conn] implements it. Receive must report an elapsed timeout as empty
// data without error and a terminal stream condition as error.
type Transport interface {
	Receive(timeout time.Duration) ([]byte, error)
}

// Framer converts the unbounded console byte stream into discrete lines.
//
// It is the single producer for its [LineQueue]. Lines are the
// newline-delimited units of the stream with trailing whitespace and
// carriage returns trimmed. The sequence of emitted lines is independent of
// how the stream is split across single receives.
type Framer struct {
	transport Transport
	queue     *LineQueue

	// PollTimeout bounds a single receive. Defaults to
	// [DefaultPollTimeout].
	PollTimeout time.Duration
}

// NewFramer creates a new [Framer] reading from the given transport and
// producing into the given queue.
func NewFramer(transport Transport, queue *LineQueue) *Framer {
	return &Framer{
		transport:   transport,
		queue:       queue,
		PollTimeout: DefaultPollTimeout,
	}
}

// Run reads the transport until it is terminally closed or broken.
//
// A single receive timeout is the steady state of an idle serial line and
// keeps the loop polling. The terminal transport error is returned, so the
// owner can tell an expected shutdown (the connection was closed under the
// framer) from a genuine stream failure.
func (f *Framer) Run() error {
	var buf []byte

	for {
		data, err := f.transport.Receive(f.PollTimeout)
		if err != nil {
			return err
		}

		if len(data) == 0 {
			continue
		}

		buf = append(buf, data...)

		for {
			idx := bytes.IndexByte(buf, '\n')
			if idx < 0 {
				break
			}

			f.queue.Push(trimLine(buf[:idx]))
			buf = buf[idx+1:]
		}
	}
}

func trimLine(raw []byte) string {
	return strings.TrimRight(string(raw), " \t\r")
}
