// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package report writes the plain text artifacts consumed by CI: per-test
// serial captures, a free-form summary and tail-truncated emulator debug
// logs.
package report

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

const (
	capturePrefix   = "serial_"
	captureSuffix   = ".txt"
	summaryFileName = "test_report.md"
)

// WriteCapture writes the given console lines into the capture file for the
// named test. The directory is created if necessary.
func WriteCapture(dir, name string, lines []string) (string, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, capturePrefix+name+captureSuffix)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create capture: %w", err)
	}

	for _, line := range lines {
		_, err = fmt.Fprintln(file, line)
		if err != nil {
			_ = file.Close()
			return "", fmt.Errorf("write capture: %w", err)
		}
	}

	err = file.Close()
	if err != nil {
		return "", fmt.Errorf("close capture: %w", err)
	}

	return path, nil
}

// WriteSummary writes the free-form summary report into the given
// directory.
func WriteSummary(dir, content string) (string, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, summaryFileName)

	err = os.WriteFile(path, []byte(content), 0o644)
	if err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}

	return path, nil
}

// Tail returns the last n lines of the file at the given path.
//
// Emulator debug logs grow quickly with CPU and interrupt tracing enabled;
// only the tail is of diagnostic interest.
func Tail(path string, n int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	lines := make([]string, 0, n)

	scanner := bufio.NewScanner(file)
	// Trace logs can contain long register dump lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}

	if scanner.Err() != nil {
		return nil, fmt.Errorf("read log: %w", scanner.Err())
	}

	return lines, nil
}
