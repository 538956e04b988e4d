// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session ties one emulator process, one serial connection and one
// background line framer together into a [Session] with a synchronous,
// timeout-bounded line API.
//
// A Session is either fully stopped or fully running. Callers never observe
// a partial state between a start and its completion or a failed start and
// its cleanup.
package session
