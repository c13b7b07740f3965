package api

import (
	"log/slog"
	"time"
)

// HTTPServerConfig configures the development broker's listener.
type HTTPServerConfig struct {
	// ListenAddr is the address the broker API listens on.
	ListenAddr string

	// EnablePprof mounts /debug/pprof next to the broker routes.
	EnablePprof bool

	Log *slog.Logger

	// GracefulShutdownDuration bounds how long Shutdown waits for in-flight
	// handshakes. Pending sessions are dropped either way.
	GracefulShutdownDuration time.Duration

	// ReadTimeout covers reading an auth or attest request with its body.
	ReadTimeout time.Duration

	// WriteTimeout covers writing the challenge or the JWE envelope.
	WriteTimeout time.Duration
}

// Addr returns ListenAddr, falling back to the broker's default
// 127.0.0.1:8000.
func (c *HTTPServerConfig) Addr() string {
	if c.ListenAddr == "" {
		return DefaultListenAddr
	}
	return c.ListenAddr
}

const DefaultListenAddr = "127.0.0.1:8000"
