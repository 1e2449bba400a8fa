package main

import (
	"log"
	"log/slog"
	"net/http"

	"github.com/vedanshmuni/videochat/internal/config"
	"github.com/vedanshmuni/videochat/internal/logging"
	"github.com/vedanshmuni/videochat/internal/server"
	"github.com/vedanshmuni/videochat/internal/signaling"
)

func main() {
	logging.Init()

	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatal(err)
	}

	hub := signaling.NewHub()
	go hub.Run()

	http.HandleFunc("/health", server.Health(hub))
	http.HandleFunc("/ws", server.ServeWs(hub, cfg))

	slog.Info("starting signaling server", "addr", cfg.ListenAddr, "origin", cfg.AllowedOrigin)
	log.Fatal(http.ListenAndServe(cfg.ListenAddr, nil))
}
