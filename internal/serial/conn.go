// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package serial

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"
)

const (
	connectRetryInterval = 100 * time.Millisecond
	receiveBufferSize    = 4096
)

// Conn is a connection to the guest serial console.
//
// The zero value is not usable, use [Connect].
type Conn struct {
	addr string
	conn net.Conn

	closeOnce sync.Once
	closeErr  error
}

// Connect establishes a connection to the serial console at the given
// address.
//
// Connection attempts are retried at short intervals until overallTimeout
// elapses. This absorbs the race between the emulator process launch and
// its listener becoming ready. Each single attempt is bounded by
// attemptTimeout. The given context aborts the retry loop early, e.g. when
// the emulator process is observed dead.
func Connect(
	ctx context.Context,
	addr string,
	attemptTimeout time.Duration,
	overallTimeout time.Duration,
) (*Conn, error) {
	deadline := time.Now().Add(overallTimeout)

	var lastErr error

	for {
		dialer := net.Dialer{Timeout: attemptTimeout}

		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			return &Conn{addr: addr, conn: conn}, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return nil, &ConnError{
				Addr: addr,
				Err:  fmt.Errorf("%w: %w", ctx.Err(), lastErr),
			}
		}

		if time.Now().After(deadline) {
			return nil, &ConnError{
				Addr: addr,
				Err:  fmt.Errorf("%w: %w", ErrConnectTimeout, lastErr),
			}
		}

		select {
		case <-ctx.Done():
		case <-time.After(connectRetryInterval):
		}
	}
}

// Addr returns the remote address of the connection.
func (c *Conn) Addr() string {
	return c.addr
}

// Send writes the given data to the serial console.
func (c *Conn) Send(data []byte) error {
	_, err := c.conn.Write(data)
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			err = ErrClosed
		}

		return &ConnError{Addr: c.addr, Err: err}
	}

	return nil
}

// Receive reads available bytes from the serial console.
//
// It blocks for at most the given timeout. An elapsed timeout is the steady
// state of an idle serial line and reported as empty data without error. A
// terminal condition, like the connection being closed or broken, is
// reported as error. The two outcomes are deliberately distinct so callers
// can keep polling on the former and stop on the latter.
func (c *Conn) Receive(timeout time.Duration) ([]byte, error) {
	err := c.conn.SetReadDeadline(time.Now().Add(timeout))
	if err != nil {
		return nil, c.terminalErr(err)
	}

	buf := make([]byte, receiveBufferSize)

	n, err := c.conn.Read(buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, nil
		}

		return nil, c.terminalErr(err)
	}

	return buf[:n], nil
}

// Close closes the connection. It is idempotent and safe to call
// concurrently with an in-flight [Conn.Receive], which it unblocks.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})

	return c.closeErr
}

func (c *Conn) terminalErr(err error) error {
	if errors.Is(err, net.ErrClosed) {
		err = ErrClosed
	}

	return &ConnError{Addr: c.addr, Err: err}
}
