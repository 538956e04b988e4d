// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"fmt"
	"net"
	"strconv"
)

const (
	// DefaultSerialPort is the loopback TCP port the serial console is
	// exposed on.
	DefaultSerialPort = 5555

	// DefaultMonitorPort is the loopback TCP port the QEMU monitor is
	// exposed on.
	DefaultMonitorPort = 5556

	// DefaultMemory is the guest memory in MB.
	DefaultMemory = 128

	defaultExecutable = "qemu-system-x86_64"
	defaultTraceFlags = "cpu_reset,int"
)

// CommandSpec defines the parameters for a [Command].
type CommandSpec struct {
	// Path to the qemu-system binary.
	Executable string

	// Path to the raw disk image to boot. The image is attached as raw
	// format drive, so a plain boot sector works without any image header.
	Image string

	// Memory for the machine in MB.
	Memory uint64

	// TCP port on the loopback interface the serial console is exposed on.
	// QEMU acts as server and does not wait for a client, so the emulator
	// boots immediately and the harness connects with retries.
	SerialPort uint16

	// TCP port on the loopback interface the QEMU monitor is exposed on.
	MonitorPort uint16

	// Path to the file QEMU debug output is redirected to.
	DebugLog string

	// Debug trace flags passed via "-d". Defaults to CPU reset and
	// interrupt tracing.
	TraceFlags string

	// Print the command before running it.
	Verbose bool
}

// ApplyDefaults sets default values on fields that are not set yet.
func (s *CommandSpec) ApplyDefaults() {
	if s.Executable == "" {
		s.Executable = defaultExecutable
	}

	if s.Memory == 0 {
		s.Memory = DefaultMemory
	}

	if s.SerialPort == 0 {
		s.SerialPort = DefaultSerialPort
	}

	if s.MonitorPort == 0 {
		s.MonitorPort = DefaultMonitorPort
	}

	if s.TraceFlags == "" {
		s.TraceFlags = defaultTraceFlags
	}
}

// Validate checks for missing parameters and known incompatibilities.
func (s *CommandSpec) Validate() error {
	if s.Image == "" {
		return &ArgumentError{"image path must not be empty"}
	}

	if s.SerialPort == s.MonitorPort {
		return &ArgumentError{fmt.Sprintf(
			"serial and monitor port collide: %d", s.SerialPort,
		)}
	}

	return nil
}

// SerialAddr returns the address the guest serial console is reachable at.
func (s *CommandSpec) SerialAddr() string {
	return net.JoinHostPort("localhost", strconv.Itoa(int(s.SerialPort)))
}

// MonitorAddr returns the address the QEMU monitor is reachable at.
func (s *CommandSpec) MonitorAddr() string {
	return net.JoinHostPort("localhost", strconv.Itoa(int(s.MonitorPort)))
}

// arguments compiles the argument list for the QEMU command.
func (s *CommandSpec) arguments() []Argument {
	args := []Argument{
		RepeatableArg("drive", "format=raw", "file="+s.Image),
		UniqueArg("m", strconv.FormatUint(s.Memory, 10)),
		RepeatableArg("serial", tcpServerBackend(s.SerialPort)),
		UniqueArg("monitor", tcpServerBackend(s.MonitorPort)),
		// Disable video output.
		UniqueArg("display", "none"),
		// Guest must not reboot on triple fault, so a broken bootloader
		// fails visibly instead of boot-looping.
		UniqueArg("no-reboot"),
		// Trace CPU reset and interrupt events.
		UniqueArg("d", s.TraceFlags),
	}

	if s.DebugLog != "" {
		args = append(args, UniqueArg("D", s.DebugLog))
	}

	return args
}

// tcpServerBackend returns a chardev backend string that listens on the
// given loopback port without waiting for a client to connect.
func tcpServerBackend(port uint16) string {
	return fmt.Sprintf("tcp::%d,server,nowait", port)
}
