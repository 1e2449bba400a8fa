package config

import (
	"fmt"
	"os"
)

// Default configuration values.
const (
	DefaultListenAddr = ":8080"
	DefaultOrigin     = "*"
	DefaultServerURL  = "ws://localhost:8080/ws"
	DefaultSTUN       = "stun:stun.l.google.com:19302"
)

// Config holds application configuration for both the signaling server and
// the chat client.
type Config struct {
	// Server side
	ListenAddr    string
	AllowedOrigin string

	// Client side
	ServerURL string

	// ICE servers for the peer connection
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
	ForceRelay bool
}

// Options carries CLI flag overrides into Load.
type Options struct {
	ListenAddr    string
	AllowedOrigin string
	ServerURL     string
	STUNServer    string
	TURNServer    string
	TURNUser      string
	TURNPass      string
	ForceRelay    bool
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	listenAddr := opts.ListenAddr
	if listenAddr == "" {
		if p := os.Getenv("PORT"); p != "" {
			// PORT env is a bare port number on most platforms.
			if p[0] != ':' {
				p = ":" + p
			}
			listenAddr = p
		}
	}
	if listenAddr == "" {
		listenAddr = DefaultListenAddr
	}

	cfg := &Config{
		ListenAddr:    listenAddr,
		AllowedOrigin: layered(opts.AllowedOrigin, "ALLOWED_ORIGIN", DefaultOrigin),
		ServerURL:     layered(opts.ServerURL, "VIDEOCHAT_SERVER", DefaultServerURL),
		STUNServer:    layered(opts.STUNServer, "STUN_SERVER", DefaultSTUN),
		TURNServer:    layered(opts.TURNServer, "TURN_SERVER", ""),
		TURNUser:      layered(opts.TURNUser, "TURN_USERNAME", ""),
		TURNPass:      layered(opts.TURNPass, "TURN_PASSWORD", ""),
		ForceRelay:    opts.ForceRelay || os.Getenv("FORCE_RELAY") == "1",
	}
	return cfg, nil
}

// layered picks the first non-empty value of flag > env > default.
func layered(flagValue, envKey, def string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return def
}

// GetSTUNServers returns STUN server URLs as strings.
func (c *Config) GetSTUNServers() []string {
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured.
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
		fmt.Sprintf("turns:%s:5349?transport=tcp", c.TURNServer),
	}
}

// GetTURNCredentials returns TURN username and password.
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}
