// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// Command is a single QEMU process. It is single use: once terminated it
// cannot be started again.
type Command struct {
	spec CommandSpec
	args []string

	// Stderr of the QEMU process. If not set, output is discarded.
	ErrWriter io.Writer

	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// NewCommand creates a new [Command] with the given spec.
//
// Defaults are applied for unset spec fields and the spec is validated.
func NewCommand(spec CommandSpec) (*Command, error) {
	spec.ApplyDefaults()

	err := spec.Validate()
	if err != nil {
		return nil, err
	}

	args, err := BuildArgumentStrings(spec.arguments())
	if err != nil {
		return nil, err
	}

	return &Command{
		spec: spec,
		args: args,
	}, nil
}

// Spec returns the validated [CommandSpec] the command was built from.
func (c *Command) Spec() CommandSpec {
	return c.spec
}

// String implements [fmt.Stringer].
func (c *Command) String() string {
	return c.spec.Executable + " " + strings.Join(c.args, " ")
}

// Start launches the QEMU process.
//
// The process is reaped by a background wait, so [Command.Alive] stays
// accurate even if the process exits on its own.
func (c *Command) Start(ctx context.Context) error {
	if c.cmd != nil {
		return ErrAlreadyStarted
	}

	cmd := exec.CommandContext(ctx, c.spec.Executable, c.args...)
	cmd.Stderr = c.ErrWriter

	err := cmd.Start()
	if err != nil {
		return &CommandError{Err: fmt.Errorf("start: %w", err)}
	}

	c.cmd = cmd
	c.done = make(chan struct{})

	go func() {
		c.err = cmd.Wait()
		close(c.done)
	}()

	return nil
}

// Pid returns the process ID of the QEMU process, or 0 if not started.
func (c *Command) Pid() int {
	if c.cmd == nil {
		return 0
	}

	return c.cmd.Process.Pid
}

// Alive returns whether the process has been started and did not exit yet.
func (c *Command) Alive() bool {
	if c.cmd == nil {
		return false
	}

	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Wait blocks until the process exited or the given timeout elapsed.
func (c *Command) Wait(timeout time.Duration) error {
	if c.cmd == nil {
		return ErrNotStarted
	}

	select {
	case <-c.done:
		return nil
	case <-time.After(timeout):
		return ErrTerminateTimeout
	}
}

// Err returns the process exit result. It is only valid after the process
// exited. QEMU killed by Terminate reports the signal as exit error, which
// is expected and not a failure of the run.
func (c *Command) Err() error {
	if c.cmd == nil {
		return ErrNotStarted
	}

	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Terminate stops the QEMU process and waits for it to exit.
//
// The process is sent SIGTERM first. If it does not exit within the given
// timeout, it is killed and given the same timeout again. Exceeding that as
// well is fatal and returns [ErrTerminateTimeout].
func (c *Command) Terminate(timeout time.Duration) error {
	if c.cmd == nil {
		return ErrNotStarted
	}

	if !c.Alive() {
		return nil
	}

	err := unix.Kill(c.Pid(), unix.SIGTERM)
	if err != nil {
		return &CommandError{Err: fmt.Errorf("terminate: %w", err)}
	}

	if c.Wait(timeout) == nil {
		return nil
	}

	err = unix.Kill(c.Pid(), unix.SIGKILL)
	if err != nil {
		return &CommandError{Err: fmt.Errorf("kill: %w", err)}
	}

	return c.Wait(timeout)
}
