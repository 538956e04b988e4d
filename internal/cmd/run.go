// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aibor/bootlab/internal/control"
	"github.com/aibor/bootlab/internal/history"
	"github.com/aibor/bootlab/internal/nasm"
	"github.com/aibor/bootlab/internal/qemu"
	"github.com/aibor/bootlab/internal/session"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second

	debugLogFileName = "qemu_debug.log"
)

// IO provides input and output details for the command.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func run(ctx context.Context, flags *flags) error {
	workDir, err := filepath.Abs(flags.workDir)
	if err != nil {
		return fmt.Errorf("resolve workdir: %w", err)
	}

	err = os.MkdirAll(workDir, 0o755)
	if err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}

	flags.workDir = workDir

	if flags.debugLog == "" {
		flags.debugLog = filepath.Join(workDir, debugLogFileName)
	}

	compiler := nasm.New(workDir)
	if flags.nasmBin != "" {
		compiler.Executable = flags.nasmBin
	}

	sess := newSession(flags)

	var store *history.Store

	if flags.historyDB != "" {
		store, err = history.Open(flags.historyDB)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}

		defer store.Close()
	}

	handler := control.New(sess, compiler, store, flags.debugLog)

	err = serve(ctx, flags.listenAddr, handler)

	// The emulator must not outlive the daemon.
	stopErr := sess.Stop()
	if stopErr != nil {
		stopErr = fmt.Errorf("stop session: %w", stopErr)
	}

	return errors.Join(err, stopErr)
}

// newSession creates the emulator session. The serial endpoint address is
// fixed by the flags, while each start gets a fresh emulator process for the
// image flashed then.
func newSession(flags *flags) *session.Session {
	addrSpec := flags.qemuSpec("")
	addrSpec.ApplyDefaults()

	launch := func(image string) (session.Launcher, error) {
		spec := flags.qemuSpec(image)

		cmd, err := qemu.NewCommand(spec)
		if err != nil {
			return nil, fmt.Errorf("new qemu command: %w", err)
		}

		slog.Debug("QEMU command", slog.String("command", cmd.String()))

		return cmd, nil
	}

	return session.New(session.Config{
		SerialAddr: addrSpec.SerialAddr(),
	}, launch)
}

func serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	slog.Info("Control API listening", slog.String("addr", addr))

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("listen: %w", err)
	})

	eg.Go(func() error {
		<-egCtx.Done()

		slog.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}

		return nil
	})

	return eg.Wait() //nolint:wrapcheck
}

func handleParseArgsError(err error) int {
	// [flag.ErrHelp] is returned when help or version output is requested.
	// So exit without error in this case.
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}

	// ParseArgs already prints errors, so we just exit without an error.
	if !errors.Is(err, &ParseArgsError{}) {
		slog.Error(err.Error())
	}

	return -1
}

// Run is the main entry point for the CLI command.
func Run(ctx context.Context, args []string, cfg IO) int {
	flags := newFlags(cfg.Stderr)

	err := flags.ParseArgs(args)
	if err != nil {
		return handleParseArgsError(err)
	}

	setupLogging(cfg.Stderr, flags.debug)

	err = run(ctx, flags)
	if err != nil {
		slog.Error(err.Error())
		return -1
	}

	return 0
}
