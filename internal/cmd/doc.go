// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cmd provides the CLI entry point for bootlabd. It handles flag
// parsing, error handling, and output handling.
package cmd
