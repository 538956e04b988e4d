// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package nasm invokes the assembler that turns bootloader source into a
// flashable raw image.
package nasm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

const (
	defaultExecutable = "nasm"
	sourceFileName    = "boot.asm"
	imageFileName     = "boot.bin"
)

// Result is the outcome of a single compile call.
//
// A failed compilation is a regular outcome carrying the toolchain's
// diagnostic output verbatim, not an error.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Compiler assembles bootloader source files in a fixed working directory.
//
// It has no state besides its configuration; every call is one synchronous
// toolchain subprocess.
type Compiler struct {
	// Path to the assembler binary. Defaults to "nasm".
	Executable string

	// Directory the source file is written to and the image is built in.
	WorkDir string
}

// New creates a new [Compiler] using the given working directory.
func New(workDir string) *Compiler {
	return &Compiler{
		Executable: defaultExecutable,
		WorkDir:    workDir,
	}
}

// SourcePath returns the path the source text is written to.
func (c *Compiler) SourcePath() string {
	return filepath.Join(c.WorkDir, sourceFileName)
}

// ImagePath returns the path of the flashable image. The file exists after
// a successful [Compiler.Compile].
func (c *Compiler) ImagePath() string {
	return filepath.Join(c.WorkDir, imageFileName)
}

// Compile writes the given source text and runs the assembler on it.
//
// A non-zero toolchain exit is reported in the [Result] with the diagnostic
// text and is never retried. The returned error covers harness side
// failures only, like the source file not being writable or the assembler
// being absent.
func (c *Compiler) Compile(ctx context.Context, source string) (Result, error) {
	err := os.WriteFile(c.SourcePath(), []byte(source), 0o644)
	if err != nil {
		return Result{}, fmt.Errorf("write source: %w", err)
	}

	cmd := exec.CommandContext(
		ctx,
		c.Executable,
		"-f", "bin",
		c.SourcePath(),
		"-o", c.ImagePath(),
	)

	var diagnostics bytes.Buffer
	cmd.Stderr = &diagnostics

	err = cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("run %s: %w", c.Executable, err)
		}

		return Result{
			Success: false,
			Message: "compilation failed: " + diagnostics.String(),
		}, nil
	}

	return Result{
		Success: true,
		Message: "compilation successful",
	}, nil
}
