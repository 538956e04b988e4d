// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import "errors"

var (
	// ErrArgumentCollision is returned if two [Argument]s are considered
	// equal.
	ErrArgumentCollision = errors.New("colliding args")

	// ErrNotStarted is returned if an operation requires a running process
	// but the command has not been started.
	ErrNotStarted = errors.New("command not started")

	// ErrAlreadyStarted is returned if a [Command] is started a second
	// time. A Command is single use.
	ErrAlreadyStarted = errors.New("command already started")

	// ErrTerminateTimeout is returned if the process did not exit within
	// the bounded wait after termination, not even on SIGKILL. This is
	// considered fatal since the process can no longer be controlled.
	ErrTerminateTimeout = errors.New("process did not exit in time")
)

// ArgumentError indicates an issue with an input argument.
type ArgumentError struct {
	msg string
}

// Error implements the [error] interface.
func (e *ArgumentError) Error() string {
	return "argument error: " + e.msg
}

// Is implements the [errors.Is] interface.
func (*ArgumentError) Is(other error) bool {
	_, ok := other.(*ArgumentError)
	return ok
}

// CommandError wraps any error occurred during Command execution.
type CommandError struct {
	Err error
}

// Error implements the [error] interface.
func (e *CommandError) Error() string {
	return "qemu: " + e.Err.Error()
}

// Is implements the [errors.Is] interface.
func (*CommandError) Is(other error) bool {
	_, ok := other.(*CommandError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *CommandError) Unwrap() error {
	return e.Err
}
