// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aibor/bootlab/internal/serial"
)

const livenessPollInterval = 50 * time.Millisecond

// Launcher is the emulator process a [Session] controls.
//
// [github.com/aibor/bootlab/internal/qemu.Command] implements it.
type Launcher interface {
	Start(ctx context.Context) error
	Terminate(timeout time.Duration) error
	Alive() bool
	Pid() int
}

// LaunchFunc creates a new [Launcher] for the given image. A fresh Launcher
// is created for every start, since emulator processes are single use.
type LaunchFunc func(image string) (Launcher, error)

// Config holds the timing parameters of a [Session].
type Config struct {
	// Address of the guest serial console endpoint.
	SerialAddr string

	// Timeout for a single connection attempt.
	AttemptTimeout time.Duration

	// Overall timeout for the serial endpoint to become ready.
	ConnectTimeout time.Duration

	// Receive timeout for a single framer iteration, also the polling
	// granularity of [Session.ReadUntil].
	PollTimeout time.Duration

	// Bounded wait for the emulator process to exit on termination.
	TerminateTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.AttemptTimeout == 0 {
		c.AttemptTimeout = 100 * time.Millisecond
	}

	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 5 * time.Second
	}

	if c.PollTimeout == 0 {
		c.PollTimeout = serial.DefaultPollTimeout
	}

	if c.TerminateTimeout == 0 {
		c.TerminateTimeout = 5 * time.Second
	}
}

type state int

const (
	stateStopped state = iota
	stateStarting
	stateRunning
	stateStopping
)

// Session owns one emulator process, one serial connection and one
// background line framer.
//
// All methods are safe for concurrent use. Send and the read operations are
// only valid while the session is running and fail with [ErrNotConnected]
// otherwise.
type Session struct {
	cfg    Config
	launch LaunchFunc

	mu        sync.Mutex
	state     state
	launcher  Launcher
	conn      *serial.Conn
	queue     *serial.LineQueue
	reader    *errgroup.Group
	lastImage string

	framerMu  sync.Mutex
	framerErr error
}

// New creates a new stopped [Session] that launches emulator processes with
// the given [LaunchFunc].
func New(cfg Config, launch LaunchFunc) *Session {
	cfg.applyDefaults()

	return &Session{
		cfg:    cfg,
		launch: launch,
	}
}

// Start boots the given image.
//
// A running session is stopped first, fully retiring the old process,
// connection and queue before the new ones are created. On failure all
// partially created resources are torn down and the session is stopped
// again; the returned error wraps [ErrStart].
func (s *Session) Start(ctx context.Context, image string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateRunning {
		err := s.stopLocked()
		if err != nil {
			return &StartError{Err: fmt.Errorf("stop previous: %w", err)}
		}
	}

	s.state = stateStarting

	err := s.startLocked(ctx, image)
	if err != nil {
		s.state = stateStopped
		return &StartError{Err: err}
	}

	s.lastImage = image
	s.state = stateRunning

	return nil
}

func (s *Session) startLocked(ctx context.Context, image string) error {
	launcher, err := s.launch(image)
	if err != nil {
		return fmt.Errorf("launch: %w", err)
	}

	err = launcher.Start(ctx)
	if err != nil {
		return fmt.Errorf("launch: %w", err)
	}

	// Abort the connect retries early if the emulator exits right away,
	// e.g. because the image does not exist.
	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()

	go watchLiveness(watchCtx, cancelWatch, launcher)

	conn, err := serial.Connect(
		watchCtx,
		s.cfg.SerialAddr,
		s.cfg.AttemptTimeout,
		s.cfg.ConnectTimeout,
	)
	if err != nil {
		termErr := launcher.Terminate(s.cfg.TerminateTimeout)
		return errors.Join(fmt.Errorf("connect: %w", err), termErr)
	}

	queue := serial.NewLineQueue()

	framer := serial.NewFramer(conn, queue)
	framer.PollTimeout = s.cfg.PollTimeout

	s.setFramerErr(nil)

	reader := new(errgroup.Group)
	reader.Go(func() error {
		err := framer.Run()
		s.setFramerErr(err)

		return err
	})

	s.launcher = launcher
	s.conn = conn
	s.queue = queue
	s.reader = reader

	return nil
}

// Stop terminates the session. It is idempotent and safe to call from a
// different caller than Start, including deferred test cleanup.
//
// The serial connection is closed first, which unblocks the framer. Stop
// waits for the framer goroutine to exit before the process is terminated,
// so no reader survives the call.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stopLocked()
}

func (s *Session) stopLocked() error {
	if s.state != stateRunning {
		return nil
	}

	s.state = stateStopping

	_ = s.conn.Close()
	// The framer always exits with the close error, so this only waits, it
	// does not fail the stop.
	_ = s.reader.Wait()

	err := s.launcher.Terminate(s.cfg.TerminateTimeout)

	s.launcher = nil
	s.conn = nil
	s.queue = nil
	s.reader = nil
	s.state = stateStopped

	return err
}

// Send writes the given data to the guest serial console.
func (s *Session) Send(data []byte) error {
	s.mu.Lock()
	conn, err := s.conn, s.runningErr()
	s.mu.Unlock()

	if err != nil {
		return err
	}

	return conn.Send(data)
}

// ReadLine pops the next console line, waiting up to the given timeout.
//
// The second return value is false if no line arrived in time, which is a
// normal outcome, not a failure.
func (s *Session) ReadLine(timeout time.Duration) (string, bool, error) {
	s.mu.Lock()
	queue, err := s.queue, s.runningErr()
	s.mu.Unlock()

	if err != nil {
		return "", false, err
	}

	line, ok := queue.Pop(timeout)

	return line, ok, nil
}

// ReadUntil collects console lines until one contains the given pattern or
// the timeout elapses.
//
// All lines observed are returned in order, including the matching one. On
// timeout the lines collected so far are returned with found set to false,
// so partial output stays available for diagnostics.
func (s *Session) ReadUntil(
	pattern string,
	timeout time.Duration,
) ([]string, bool, error) {
	deadline := time.Now().Add(timeout)
	lines := []string{}

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return lines, false, nil
		}

		poll := min(s.cfg.PollTimeout, remaining)

		line, ok, err := s.ReadLine(poll)
		if err != nil {
			return lines, false, err
		}

		if !ok {
			continue
		}

		lines = append(lines, line)

		if strings.Contains(line, pattern) {
			return lines, true, nil
		}
	}
}

// ReadMemory returns size bytes of guest memory at the given address.
//
// Monitor based memory inspection is not implemented; the result is a
// zero-filled best-effort placeholder, not a debugger interface.
func (s *Session) ReadMemory(_ uint64, size int) ([]byte, error) {
	s.mu.Lock()
	err := s.runningErr()
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	return make([]byte, size), nil
}

// Restart stops the session and boots the last flashed image again.
func (s *Session) Restart(ctx context.Context) error {
	s.mu.Lock()
	image := s.lastImage
	s.mu.Unlock()

	if image == "" {
		return ErrNoImage
	}

	return s.Start(ctx, image)
}

// Status reports whether the emulator process is alive and its PID.
func (s *Session) Status() (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.launcher == nil || !s.launcher.Alive() {
		return false, 0
	}

	return true, s.launcher.Pid()
}

// Err returns the framer failure if the console stream broke down while the
// session was running. An expected shutdown, caused by Stop closing the
// connection under the framer, is not reported.
func (s *Session) Err() error {
	s.framerMu.Lock()
	defer s.framerMu.Unlock()

	if errors.Is(s.framerErr, serial.ErrClosed) {
		return nil
	}

	return s.framerErr
}

func (s *Session) setFramerErr(err error) {
	s.framerMu.Lock()
	s.framerErr = err
	s.framerMu.Unlock()
}

// runningErr must be called with s.mu held.
func (s *Session) runningErr() error {
	if s.state != stateRunning {
		return ErrNotConnected
	}

	return nil
}

func watchLiveness(
	ctx context.Context,
	cancel context.CancelFunc,
	launcher Launcher,
) {
	ticker := time.NewTicker(livenessPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !launcher.Alive() {
				cancel()
				return
			}
		}
	}
}
