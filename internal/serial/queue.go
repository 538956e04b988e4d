// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package serial

import (
	"sync"
	"time"
)

// LineQueue is an unbounded, insertion-ordered FIFO of console lines.
//
// It is safe for concurrent use. There is a single producer, the [Framer],
// and any number of consumers. Lines are delivered in the exact order they
// were framed, without duplication.
type LineQueue struct {
	mu    sync.Mutex
	lines []string
	wake  chan struct{}
}

// NewLineQueue creates a new empty [LineQueue].
func NewLineQueue() *LineQueue {
	return &LineQueue{
		wake: make(chan struct{}, 1),
	}
}

// Push appends a line to the queue and wakes a waiting consumer.
func (q *LineQueue) Push(line string) {
	q.mu.Lock()
	q.lines = append(q.lines, line)
	q.mu.Unlock()

	q.signal()
}

// Pop removes and returns the oldest line, waiting up to the given timeout
// for one to arrive.
//
// The second return value is false if the timeout elapsed without a line
// being available. This is a normal outcome, not a failure.
func (q *LineQueue) Pop(timeout time.Duration) (string, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if len(q.lines) > 0 {
			line := q.lines[0]
			q.lines = q.lines[1:]
			remaining := len(q.lines)
			q.mu.Unlock()

			// Pass the wakeup on so another waiting consumer does not
			// sleep on a non-empty queue.
			if remaining > 0 {
				q.signal()
			}

			return line, true
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-timer.C:
			return "", false
		}
	}
}

// Len returns the number of currently queued lines.
func (q *LineQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.lines)
}

func (q *LineQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
