// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package control

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aibor/bootlab/internal/session"
)

// streamPollTimeout is the per-iteration wait for a serial line before the
// stream loop checks for client disconnect again.
const streamPollTimeout = 500 * time.Millisecond

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type serialStreamMessage struct {
	Line string `json:"line"`
}

// handleSerialStream pushes serial output lines to the client as JSON
// messages. The stream survives phases where no emulator is running, so a
// client may connect before the first flash.
func (s *Server) handleSerialStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an error.
		return
	}
	defer conn.Close()

	// The client never sends payload, but reading is required to notice
	// close frames and broken connections.
	done := make(chan struct{})

	go func() {
		defer close(done)

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		default:
		}

		line, ok, err := s.session.ReadLine(streamPollTimeout)
		if err != nil {
			if errors.Is(err, session.ErrNotConnected) {
				time.Sleep(streamPollTimeout)
				continue
			}

			return
		}

		if !ok {
			continue
		}

		err = conn.WriteJSON(serialStreamMessage{Line: line})
		if err != nil {
			return
		}
	}
}
