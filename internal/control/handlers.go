// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package control

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aibor/bootlab/internal/report"
	"github.com/aibor/bootlab/internal/session"
)

const maxMemoryReadSize = 4096

type compileRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req compileRequest

	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), compileTimeout)
	defer cancel()

	result := s.compile(ctx, req.Code)
	s.record(r.Context(), "compile", result)

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) compile(ctx context.Context, code string) CommandResult {
	compiled, err := s.compiler.Compile(ctx, code)
	if err != nil {
		return CommandResult{Success: false, Message: err.Error()}
	}

	return CommandResult{Success: compiled.Success, Message: compiled.Message}
}

type flashRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleFlash(w http.ResponseWriter, r *http.Request) {
	var req flashRequest

	err := decodeJSON(r, &req)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), startTimeout)
	defer cancel()

	// If source is provided, compile it first.
	if req.Code != "" {
		result := s.compile(ctx, req.Code)
		if !result.Success {
			s.record(r.Context(), "flash", result)
			writeJSON(w, http.StatusOK, result)

			return
		}
	}

	result := CommandResult{Success: true, Message: "emulator started"}

	err = s.session.Start(ctx, s.compiler.ImagePath())
	if err != nil {
		result = CommandResult{Success: false, Message: err.Error()}
	}

	s.record(r.Context(), "flash", result)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), startTimeout)
	defer cancel()

	result := CommandResult{Success: true, Message: "emulator restarted"}

	err := s.session.Restart(ctx)
	if err != nil {
		result = CommandResult{Success: false, Message: err.Error()}
	}

	s.record(r.Context(), "reset", result)
	writeJSON(w, http.StatusOK, result)
}

type serialSendRequest struct {
	Data json.RawMessage `json:"data"`
}

// payload accepts the serial data either as text or as byte array, like the
// original clients send it.
func (r *serialSendRequest) payload() ([]byte, error) {
	var text string
	if json.Unmarshal(r.Data, &text) == nil {
		return []byte(text), nil
	}

	var raw []int
	if err := json.Unmarshal(r.Data, &raw); err != nil {
		return nil, err //nolint:wrapcheck
	}

	data := make([]byte, len(raw))
	for idx, b := range raw {
		data[idx] = byte(b)
	}

	return data, nil
}

func (s *Server) handleSerialSend(w http.ResponseWriter, r *http.Request) {
	var req serialSendRequest

	err := decodeJSON(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	data, err := req.payload()
	if err != nil {
		writeError(w, http.StatusBadRequest, "data must be text or byte array")
		return
	}

	err = s.session.Send(data)
	if err != nil {
		writeJSON(w, http.StatusOK, CommandResult{
			Success: false,
			Message: err.Error(),
		})

		return
	}

	writeJSON(w, http.StatusOK, CommandResult{Success: true})
}

type serialReadResponse struct {
	Data []int  `json:"data"`
	Text string `json:"text"`
}

func (s *Server) handleSerialRead(w http.ResponseWriter, r *http.Request) {
	timeout := parseTimeout(r.URL.Query().Get("timeout"))

	lines, err := s.drainLines(timeout)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	text := strings.Join(lines, "\n")
	if len(lines) > 0 {
		text += "\n"
	}

	resp := serialReadResponse{
		Data: make([]int, len(text)),
		Text: text,
	}
	for idx := range len(text) {
		resp.Data[idx] = int(text[idx])
	}

	writeJSON(w, http.StatusOK, resp)
}

// drainLines waits up to timeout for the first line, then grabs everything
// already queued behind it.
func (s *Server) drainLines(timeout time.Duration) ([]string, error) {
	lines := []string{}

	line, ok, err := s.session.ReadLine(timeout)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	for ok {
		lines = append(lines, line)

		line, ok, err = s.session.ReadLine(10 * time.Millisecond)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
	}

	return lines, nil
}

// parseTimeout accepts a Go duration string or plain seconds. Invalid or
// absent values fall back to the default, the result is capped.
func parseTimeout(value string) time.Duration {
	timeout := defaultReadTimeout

	if value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			timeout = parsed
		} else if seconds, err := strconv.ParseFloat(value, 64); err == nil {
			timeout = time.Duration(seconds * float64(time.Second))
		}
	}

	return min(max(timeout, 0), maxReadTimeout)
}

type memoryReadResponse struct {
	Data []int `json:"data"`
}

func (s *Server) handleMemoryRead(w http.ResponseWriter, r *http.Request) {
	addr, err := strconv.ParseUint(r.PathValue("addr"), 0, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}

	size, err := strconv.Atoi(r.PathValue("size"))
	if err != nil || size < 1 || size > maxMemoryReadSize {
		writeError(w, http.StatusBadRequest, "invalid size")
		return
	}

	data, err := s.session.ReadMemory(addr, size)
	if err != nil {
		if errors.Is(err, session.ErrNotConnected) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}

		writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	resp := memoryReadResponse{Data: make([]int, len(data))}
	for idx, b := range data {
		resp.Data[idx] = int(b)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "run history disabled")
		return
	}

	limit := defaultHistoryLimit
	if value := r.URL.Query().Get("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = min(parsed, maxHistoryLimit)
		}
	}

	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleDebugLog(w http.ResponseWriter, r *http.Request) {
	lines := defaultTailLines
	if value := r.URL.Query().Get("lines"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			lines = min(parsed, maxTailLines)
		}
	}

	if s.debugLog == "" {
		writeError(w, http.StatusNotFound, "debug log disabled")
		return
	}

	tail, err := report.Tail(s.debugLog, lines)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"lines": tail})
}
