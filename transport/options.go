package transport

import "time"

// Options bundles the protocol's tunable defaults (§6) into a single
// struct, generalizing the teacher's single-knob NewSession(addr, mtu)
// pattern to BiWi's half-dozen independent tunables.
type Options struct {
	AckTimeout         time.Duration
	MaxRetries         uint32
	ServerReadTimeout  time.Duration
	ClientReadTimeout  time.Duration
	IdleTimeout        time.Duration
	MaxDatagramSize    int
	MaxPayloadSize     int
	DuplicateCacheSize int
}

// DefaultOptions returns the protocol defaults from §6: 100ms ACK timeout,
// 3 retries, 100ms server / 1s client read timeout, 30s idle eviction,
// 1280-byte max datagram, 1267-byte max payload.
func DefaultOptions() Options {
	return Options{
		AckTimeout:         DefaultAckTimeout,
		MaxRetries:         DefaultMaxRetries,
		ServerReadTimeout:  serverReadTimeout,
		ClientReadTimeout:  clientReadTimeout,
		IdleTimeout:        connectionIdleTimeout,
		MaxDatagramSize:    MaxPacketSize,
		MaxPayloadSize:     MaxPayloadSize,
		DuplicateCacheSize: duplicateWindowSize,
	}
}
