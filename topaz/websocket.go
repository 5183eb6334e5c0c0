// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package topaz

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ergochat/irc-go/ircutils"
	"github.com/gorilla/websocket"

	"github.com/topazui/topaz/topaz/utils"
)

const (
	wsBufferSize = 2048
	// frames up to this multiple of max-request-size are read and truncated;
	// anything larger closes the connection
	wsReadLimitFactor = 4
)

// handleWebSocket streams translations: every text frame received is
// answered with one text frame holding its markup (or plain text, with
// ?strip=true). Binary frames are ignored.
func (a *topazAPI) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	config := a.server.Config()
	wsConfig := &config.Server.API.WebSocket
	if !wsConfig.Enabled {
		http.NotFound(w, r)
		return
	}

	strip := false
	if stripParam := r.URL.Query().Get("strip"); stripParam != "" {
		var err error
		strip, err = strconv.ParseBool(stripParam)
		if err != nil {
			http.Error(w, "invalid strip parameter", http.StatusBadRequest)
			return
		}
	}

	if !a.server.wsConnections.TryAcquire() {
		http.Error(w, "too many websocket connections", http.StatusServiceUnavailable)
		return
	}
	defer a.server.wsConnections.Release()

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  wsBufferSize,
		WriteBufferSize: wsBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			if len(wsConfig.allowedOriginRegexps) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if len(origin) == 0 {
				return false
			}
			return utils.MatchesAny(wsConfig.allowedOriginRegexps, origin)
		},
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		a.server.logger.Info("websocket", "upgrade error", r.RemoteAddr, err.Error())
		return
	}
	defer conn.Close()

	maxSize := config.MaxRequestSize()
	conn.SetReadLimit(int64(maxSize) * wsReadLimitFactor)
	tr := config.LegacyTranslator()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				a.server.logger.Debug("websocket", "read error", r.RemoteAddr, err.Error())
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		text := ircutils.TruncateUTF8Safe(string(data), maxSize)
		var result string
		if strip {
			result = tr.Strip(text)
		} else {
			result = tr.Translate(text)
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(result)); err != nil {
			a.server.logger.Debug("websocket", "write error", r.RemoteAddr, err.Error())
			return
		}
	}
}
