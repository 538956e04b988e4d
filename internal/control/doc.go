// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package control exposes the harness over an HTTP JSON API.
//
// The verbs map onto session and compiler operations: compile, flash,
// reset, serial send/read, memory read and status. Every verb returns a
// structured result within its documented timeout; failures are part of the
// result, they are never raised to the transport as a plain 500.
package control
