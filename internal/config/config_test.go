package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultOrigin, cfg.AllowedOrigin)
	assert.Equal(t, DefaultServerURL, cfg.ServerURL)
	assert.Equal(t, DefaultSTUN, cfg.STUNServer)
	assert.Empty(t, cfg.TURNServer)
	assert.False(t, cfg.ForceRelay)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGIN", "https://example.com")
	t.Setenv("VIDEOCHAT_SERVER", "wss://example.com/ws")
	t.Setenv("STUN_SERVER", "stun:stun.example.com:3478")

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr, "bare PORT gets a colon")
	assert.Equal(t, "https://example.com", cfg.AllowedOrigin)
	assert.Equal(t, "wss://example.com/ws", cfg.ServerURL)
	assert.Equal(t, "stun:stun.example.com:3478", cfg.STUNServer)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STUN_SERVER", "stun:env.example.com:3478")

	cfg, err := Load(Options{
		ListenAddr: ":7070",
		STUNServer: "stun:flag.example.com:3478",
	})
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, "stun:flag.example.com:3478", cfg.STUNServer)
}

func TestConfig_TURNServers(t *testing.T) {
	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Nil(t, cfg.GetTURNServers(), "no TURN configured by default")

	cfg, err = Load(Options{
		TURNServer: "turn:turn.example.com",
		TURNUser:   "user",
		TURNPass:   "pass",
	})
	require.NoError(t, err)

	servers := cfg.GetTURNServers()
	require.Len(t, servers, 3)
	assert.Contains(t, servers[0], "transport=udp")
	assert.Contains(t, servers[2], "turns:")

	user, pass := cfg.GetTURNCredentials()
	assert.Equal(t, "user", user)
	assert.Equal(t, "pass", pass)
}
