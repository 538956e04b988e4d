// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package serial provides the transport to the guest serial console.
//
// [Conn] is a TCP client for the console endpoint the emulator exposes on
// the loopback interface. [Framer] reads the raw byte stream in the
// background and emits discrete lines into a [LineQueue], which consumers
// drain with bounded waits.
package serial
