// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package control

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aibor/bootlab/internal/history"
	"github.com/aibor/bootlab/internal/nasm"
)

const (
	// compileTimeout bounds a single toolchain invocation.
	compileTimeout = 60 * time.Second

	// startTimeout bounds a flash or reset, dominated by the emulator
	// launch and serial connect.
	startTimeout = 30 * time.Second

	// defaultReadTimeout is used for serial reads without explicit
	// timeout, matching the original interactive polling cadence.
	defaultReadTimeout = 500 * time.Millisecond

	// maxReadTimeout caps the serial read wait a client may request.
	maxReadTimeout = 10 * time.Second

	defaultHistoryLimit = 20
	maxHistoryLimit     = 100

	defaultTailLines = 100
	maxTailLines     = 1000
)

// SerialSession is the part of the session API the control surface drives.
type SerialSession interface {
	Start(ctx context.Context, image string) error
	Restart(ctx context.Context) error
	Stop() error
	Send(data []byte) error
	ReadLine(timeout time.Duration) (string, bool, error)
	ReadMemory(addr uint64, size int) ([]byte, error)
	Status() (bool, int)
}

// Compiler turns bootloader source into a flashable image.
type Compiler interface {
	Compile(ctx context.Context, source string) (nasm.Result, error)
	ImagePath() string
}

// CommandResult is the structured outcome of a control verb.
type CommandResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Server handles the control API requests.
type Server struct {
	mux      *http.ServeMux
	session  SerialSession
	compiler Compiler
	history  *history.Store
	debugLog string
}

// New creates a new [Server] driving the given session and compiler.
//
// The history store may be nil to disable run history. debugLog is the path
// of the emulator debug log served tail-truncated.
func New(
	session SerialSession,
	compiler Compiler,
	store *history.Store,
	debugLog string,
) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		session:  session,
		compiler: compiler,
		history:  store,
		debugLog: debugLog,
	}
	s.routes()

	return s
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)

	s.mux.HandleFunc("POST /api/compile", s.handleCompile)
	s.mux.HandleFunc("POST /api/flash", s.handleFlash)
	s.mux.HandleFunc("POST /api/reset", s.handleReset)

	s.mux.HandleFunc("POST /api/serial", s.handleSerialSend)
	s.mux.HandleFunc("GET /api/serial", s.handleSerialRead)

	s.mux.HandleFunc("GET /api/memory/{addr}/{size}", s.handleMemoryRead)

	s.mux.HandleFunc("GET /api/history", s.handleHistory)
	s.mux.HandleFunc("GET /api/debuglog", s.handleDebugLog)

	s.mux.HandleFunc("GET /ws/serial", s.handleSerialStream)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	Running bool `json:"running"`
	Pid     *int `json:"pid"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{}

	running, pid := s.session.Status()
	if running {
		resp.Running = true
		resp.Pid = &pid
	}

	writeJSON(w, http.StatusOK, resp)
}

// record appends the verb outcome to the run history, if enabled.
func (s *Server) record(ctx context.Context, verb string, result CommandResult) {
	if s.history == nil {
		return
	}

	_, err := s.history.Append(ctx, verb, result.Success, result.Message)
	if err != nil {
		slog.Warn("Failed to record run history",
			slog.String("verb", verb),
			slog.Any("error", err),
		)
	}
}
