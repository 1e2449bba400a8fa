package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/vedanshmuni/videochat/internal/config"
	"github.com/vedanshmuni/videochat/internal/signaling"
)

// newUpgrader configures the websocket upgrader. The allowed origin comes
// from config; "*" accepts everything, anything else must equal the
// request's Origin header exactly.
func newUpgrader(cfg *config.Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  64 * 1024, // 64 KB
		WriteBufferSize: 64 * 1024, // 64 KB

		CheckOrigin: func(r *http.Request) bool {
			if cfg.AllowedOrigin == "*" {
				return true
			}
			return r.Header.Get("Origin") == cfg.AllowedOrigin
		},
	}
}

// ServeWs returns an http.HandlerFunc that upgrades the connection and
// hands the client over to the hub.
func ServeWs(hub *signaling.Hub, cfg *config.Config) http.HandlerFunc {
	upgrader := newUpgrader(cfg)

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("failed to upgrade connection", "err", err)
			return
		}

		client := &signaling.Client{
			Hub:  hub,
			Conn: conn,
			Send: make(chan *signaling.Message, 256),
		}

		// Register before the pumps start so the welcome message is
		// queued ahead of anything the client sends.
		client.Hub.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}

// Health returns a handler reporting registry sizes as plain text.
func Health(hub *signaling.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, waiting, rooms := hub.Stats()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok sessions=%d waiting=%d rooms=%d\n", sessions, waiting, rooms)
	}
}
