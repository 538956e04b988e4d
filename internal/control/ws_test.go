// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package control_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aibor/bootlab/internal/control"
)

func TestSerialStream(t *testing.T) {
	sess := &fakeSession{
		running: true,
		lines:   []string{"AI-OS Boot v0.3", "Ready for commands"},
	}
	srv := control.New(sess, &fakeCompiler{}, nil, "")

	httpSrv := httptest.NewServer(srv)
	t.Cleanup(httpSrv.Close)

	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws/serial"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil) //nolint:bodyclose
	require.NoError(t, err)

	defer conn.Close()
	defer resp.Body.Close()

	err = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, err)

	var msg struct {
		Line string `json:"line"`
	}

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "AI-OS Boot v0.3", msg.Line)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "Ready for commands", msg.Line)
}

func TestSerialStreamClientClose(t *testing.T) {
	sess := &fakeSession{running: true}
	srv := control.New(sess, &fakeCompiler{}, nil, "")

	httpSrv := httptest.NewServer(srv)
	t.Cleanup(httpSrv.Close)

	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws/serial"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil) //nolint:bodyclose
	require.NoError(t, err)

	defer resp.Body.Close()

	// Closing the client side must release the server side handler, which
	// httptest.Server.Close waits for.
	require.NoError(t, conn.Close())
}
