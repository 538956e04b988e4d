// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"flag"
	"fmt"
	"io"
	"math"
	"runtime/debug"

	"github.com/aibor/bootlab/internal/qemu"
)

const (
	name = "bootlabd"

	listenDefault  = "localhost:8080"
	workDirDefault = "."

	usageMessage = `Usage of 'bootlabd':
    bootlabd [flags...]

bootlabd serves the bootloader lab control API. It assembles boot sector
source, boots the image in an emulator and exposes the guest serial console
over HTTP and WebSocket.
`
)

type flags struct {
	flagSet *flag.FlagSet

	listenAddr string
	workDir    string
	nasmBin    string

	qemuBin     string
	memory      uint64
	serialPort  uint
	monitorPort uint
	traceFlags  string

	historyDB string
	debugLog  string

	version bool
	debug   bool
}

func newFlags(output io.Writer) *flags {
	flags := &flags{
		listenAddr:  listenDefault,
		workDir:     workDirDefault,
		memory:      qemu.DefaultMemory,
		serialPort:  qemu.DefaultSerialPort,
		monitorPort: qemu.DefaultMonitorPort,
	}

	flags.initFlagset(output)

	return flags
}

func (f *flags) initFlagset(output io.Writer) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usageMessage)
		fs.PrintDefaults()
	}

	fs.StringVar(
		&f.listenAddr,
		"listen",
		f.listenAddr,
		"address the control API listens on",
	)

	fs.StringVar(
		&f.workDir,
		"workdir",
		f.workDir,
		"directory source, image and log files are kept in",
	)

	fs.StringVar(
		&f.nasmBin,
		"nasm-bin",
		f.nasmBin,
		"assembler binary to use",
	)

	fs.StringVar(
		&f.qemuBin,
		"qemu-bin",
		f.qemuBin,
		"QEMU binary to use",
	)

	fs.Uint64Var(
		&f.memory,
		"memory",
		f.memory,
		"memory (in MB) for the QEMU VM",
	)

	fs.UintVar(
		&f.serialPort,
		"serial-port",
		f.serialPort,
		"loopback TCP port the guest serial console is exposed on",
	)

	fs.UintVar(
		&f.monitorPort,
		"monitor-port",
		f.monitorPort,
		"loopback TCP port the QEMU monitor is exposed on",
	)

	fs.StringVar(
		&f.traceFlags,
		"trace",
		f.traceFlags,
		"QEMU debug trace flags passed via -d",
	)

	fs.StringVar(
		&f.historyDB,
		"history-db",
		f.historyDB,
		"path of the run history database. Empty disables run history.",
	)

	fs.StringVar(
		&f.debugLog,
		"debug-log",
		f.debugLog,
		"path of the QEMU debug log. Defaults to qemu_debug.log in workdir.",
	)

	fs.BoolVar(
		&f.debug,
		"debug",
		f.debug,
		"enable debug output",
	)

	fs.BoolVar(
		&f.version,
		"version",
		f.version,
		"show version and exit",
	)

	f.flagSet = fs
}

// Fail fails like flag does. It prints the error first and then usage.
func (f *flags) Fail(msg string, err error) error {
	err = &ParseArgsError{msg: msg, err: err}
	fmt.Fprintln(f.flagSet.Output(), err.Error())

	f.flagSet.Usage()

	return err
}

func (f *flags) ParseArgs(args []string) error {
	err := f.flagSet.Parse(args)
	if err != nil {
		return &ParseArgsError{msg: "flag parse", err: err}
	}

	// With version flag, just print the version and exit. Using [flag.ErrHelp]
	// the main binary is supposed to return with a non error exit code.
	if f.version {
		f.printVersionInformation()
		return &ParseArgsError{msg: "version requested", err: flag.ErrHelp}
	}

	if len(f.flagSet.Args()) > 0 {
		return f.Fail("unexpected argument: "+f.flagSet.Arg(0), nil)
	}

	if f.workDir == "" {
		return f.Fail("workdir must not be empty", nil)
	}

	if f.serialPort == 0 || f.serialPort > math.MaxUint16 {
		return f.Fail(fmt.Sprintf("invalid serial port: %d", f.serialPort), nil)
	}

	if f.monitorPort == 0 || f.monitorPort > math.MaxUint16 {
		return f.Fail(fmt.Sprintf("invalid monitor port: %d", f.monitorPort), nil)
	}

	if f.serialPort == f.monitorPort {
		return f.Fail(
			fmt.Sprintf("serial and monitor port collide: %d", f.serialPort),
			nil,
		)
	}

	return nil
}

func (f *flags) printVersionInformation() {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	fmt.Fprintf(
		f.flagSet.Output(),
		"%s: %s\n",
		name,
		buildInfo.Main.Version,
	)
}

// qemuSpec builds the emulator parameters for the given image.
func (f *flags) qemuSpec(image string) qemu.CommandSpec {
	return qemu.CommandSpec{
		Executable:  f.qemuBin,
		Image:       image,
		Memory:      f.memory,
		SerialPort:  uint16(f.serialPort),
		MonitorPort: uint16(f.monitorPort),
		DebugLog:    f.debugLog,
		TraceFlags:  f.traceFlags,
		Verbose:     f.debug,
	}
}
