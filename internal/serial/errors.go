// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package serial

import "errors"

var (
	// ErrConnectTimeout is returned if no connection could be established
	// before the overall timeout elapsed. It usually means the emulator
	// exited before its listener came up.
	ErrConnectTimeout = errors.New("serial endpoint did not become ready")

	// ErrClosed is returned for operations on a closed [Conn].
	ErrClosed = errors.New("serial connection closed")
)

// ConnError wraps any error occurring on the serial connection.
type ConnError struct {
	Addr string
	Err  error
}

// Error implements the [error] interface.
func (e *ConnError) Error() string {
	return "serial " + e.Addr + ": " + e.Err.Error()
}

// Is implements the [errors.Is] interface.
func (*ConnError) Is(other error) bool {
	_, ok := other.(*ConnError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ConnError) Unwrap() error {
	return e.Err
}
