// Command biwid runs a standalone BiWi reliable-UDP server.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/biwi-proto/biwi/internal/logging"
	"github.com/biwi-proto/biwi/transport"
)

const version = "0.1.0"

// Config is biwid's fixed startup configuration. BiWi keeps the
// configuration surface minimal (no CLI flags, no env parsing) — the
// tunables that matter are the transport.Options protocol defaults, not
// daemon-level settings.
type Config struct {
	Host       string
	Port       int
	AckTimeout time.Duration
	MaxRetries uint32
}

func loadConfig() Config {
	return Config{
		Host:       "0.0.0.0",
		Port:       7777,
		AckTimeout: transport.DefaultAckTimeout,
		MaxRetries: transport.DefaultMaxRetries,
	}
}

func main() {
	logging.Banner("BiWi UDP Server", version)

	config := loadConfig()

	opts := transport.DefaultOptions()
	opts.AckTimeout = config.AckTimeout
	opts.MaxRetries = config.MaxRetries

	logging.Info("Starting server on %s:%d", config.Host, config.Port)
	logging.Info("Ack timeout: %s, max retries: %d", opts.AckTimeout, opts.MaxRetries)

	srv, err := transport.Listen(config.Host, config.Port, opts)
	if err != nil {
		logging.Fatal("failed to start server: %v", err)
	}
	logging.Success("Server listening on %s:%d", config.Host, config.Port)

	go func() {
		for inbound := range srv.Inbound() {
			logging.Debug("message from %s: %d fields", inbound.PeerID, inbound.Message.FieldCount())
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logging.Warn("received signal: %v", sig)
	logging.Info("shutting down gracefully...")

	if err := srv.Close(); err != nil {
		logging.Error("error closing server: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	logging.Success("server stopped")
}
