// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qemu provides the QEMU command for booting raw bootloader images.
//
// A [CommandSpec] describes the fixed harness configuration: a raw disk
// image, the serial console exposed on a loopback TCP port and the debug
// log redirected into a file. [Command] is the handle of the running
// emulator process.
package qemu
