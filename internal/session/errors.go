// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import "errors"

var (
	// ErrStart is returned if the emulator could not be launched or its
	// serial endpoint did not become ready in time. Any partially created
	// resources are torn down before it is returned, so the session is
	// fully stopped again.
	ErrStart = errors.New("session start failed")

	// ErrNotConnected is returned for operations that require a running
	// session. It is a caller error, recoverable by calling
	// [Session.Start] first.
	ErrNotConnected = errors.New("session not connected")

	// ErrNoImage is returned by [Session.Restart] if the session was never
	// started with an image before.
	ErrNoImage = errors.New("no image flashed yet")
)

// StartError wraps the cause of a failed session start.
type StartError struct {
	Err error
}

// Error implements the [error] interface.
func (e *StartError) Error() string {
	return ErrStart.Error() + ": " + e.Err.Error()
}

// Is implements the [errors.Is] interface.
func (e *StartError) Is(other error) bool {
	if other == ErrStart { //nolint:errorlint
		return true
	}

	_, ok := other.(*StartError)

	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *StartError) Unwrap() error {
	return e.Err
}
