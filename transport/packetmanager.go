package transport

import (
	"encoding/binary"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultAckTimeout is the default retransmission interval (§6).
	DefaultAckTimeout = 100 * time.Millisecond
	// DefaultMaxRetries is the default retransmit budget before giving up (§6).
	DefaultMaxRetries = 3
	// duplicateWindowSize bounds the received-sequence dedup set. The
	// original's HashSet grows without bound for a long-lived connection;
	// recent sequences are what matters for duplicate suppression, so a
	// bounded LRU caps memory while keeping the same behavior for any
	// connection with fewer than this many packets in flight.
	duplicateWindowSize = 4096
)

type pendingEntry struct {
	packet  UdpPacket
	sentAt  time.Time
	retries uint32
}

// PacketManager tracks outbound sequencing, pending ACKs, retransmission,
// and inbound duplicate suppression for one peer (§4.7). It is safe for
// concurrent use; callers needn't hold an external lock, mirroring the
// teacher's per-Session self-locking style.
type PacketManager struct {
	mu sync.Mutex

	sequence uint32
	// highestReceived is the highest inbound sequence seen from this peer,
	// piggybacked as AckNumber on outbound packets (§3) — not the sequence
	// of the last ACK this side received.
	highestReceived uint32
	pending         map[uint32]*pendingEntry
	received        *lru.Cache[uint32, struct{}]

	ackTimeout     time.Duration
	maxRetries     uint32
	maxPayloadSize int
}

// NewPacketManager creates a PacketManager with the protocol defaults.
func NewPacketManager() *PacketManager {
	return NewPacketManagerWithOptions(DefaultOptions())
}

// NewPacketManagerWithOptions creates a PacketManager tuned by opts.
func NewPacketManagerWithOptions(opts Options) *PacketManager {
	cacheSize := opts.DuplicateCacheSize
	if cacheSize <= 0 {
		cacheSize = duplicateWindowSize
	}
	maxPayload := opts.MaxPayloadSize
	if maxPayload <= 0 {
		maxPayload = MaxPayloadSize
	}
	received, _ := lru.New[uint32, struct{}](cacheSize)
	return &PacketManager{
		highestReceived: ^uint32(0), // max uint32 marks "nothing received yet"; the first recorded sequence (even 0) replaces it
		pending:         make(map[uint32]*pendingEntry),
		received:        received,
		ackTimeout:      opts.AckTimeout,
		maxRetries:      opts.MaxRetries,
		maxPayloadSize:  maxPayload,
	}
}

// CreatePackets frames payload into one or more Data packets, splitting at
// the configured max payload boundary and marking FIRST/LAST flags (§4.7).
// Every packet produced is registered in the pending-ACK table.
func (pm *PacketManager) CreatePackets(payload []byte) []UdpPacket {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if len(payload) <= pm.maxPayloadSize {
		pkt := UdpPacket{
			Type:      PacketData,
			Sequence:  pm.sequence,
			AckNumber: pm.highestReceived,
			Flags:     FlagFirst | FlagLast,
			Payload:   payload,
		}
		pm.registerPending(pkt)
		pm.sequence++
		return []UdpPacket{pkt}
	}

	var packets []UdpPacket
	offset := 0
	for offset < len(payload) {
		end := offset + pm.maxPayloadSize
		if end > len(payload) {
			end = len(payload)
		}
		isFirst := offset == 0
		isLast := end == len(payload)
		var flags uint32
		if isFirst {
			flags |= FlagFirst
		}
		if isLast {
			flags |= FlagLast
		}
		pkt := UdpPacket{
			Type:      PacketData,
			Sequence:  pm.sequence,
			AckNumber: pm.highestReceived,
			Flags:     flags,
			Payload:   payload[offset:end],
		}
		pm.registerPending(pkt)
		packets = append(packets, pkt)
		pm.sequence++
		offset = end
	}
	return packets
}

func (pm *PacketManager) registerPending(pkt UdpPacket) {
	pm.pending[pkt.Sequence] = &pendingEntry{packet: pkt, sentAt: time.Now()}
}

// CreateAckPacket builds an ACK for ackSequence. Not itself tracked for
// retransmission.
func (pm *PacketManager) CreateAckPacket(ackSequence uint32) UdpPacket {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return UdpPacket{
		Type:      PacketAck,
		Sequence:  pm.sequence,
		AckNumber: ackSequence,
		Flags:     0,
	}
}

// CreatePingPacket builds a keep-alive Ping, consuming the next sequence.
// The payload is the current Unix wall-clock time in milliseconds as a
// little-endian uint64 (informational only, §6); it is not a monotonic
// clock reading.
func (pm *PacketManager) CreatePingPacket() UdpPacket {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint64(payload, uint64(time.Now().UnixMilli()))
	pkt := UdpPacket{
		Type:      PacketPing,
		Sequence:  pm.sequence,
		AckNumber: pm.highestReceived,
		Flags:     0,
		Payload:   payload,
	}
	pm.sequence++
	return pkt
}

// RecordReceived reports whether sequence is new (true) or a duplicate
// (false), and on a fresh sequence updates the piggyback ack number.
func (pm *PacketManager) RecordReceived(sequence uint32) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if pm.received.Contains(sequence) {
		return false
	}
	pm.received.Add(sequence, struct{}{})
	if sequence > pm.highestReceived || pm.highestReceived == ^uint32(0) {
		pm.highestReceived = sequence
	}
	return true
}

// HandleAck clears the pending entry for ackNumber, reporting whether one
// existed.
func (pm *PacketManager) HandleAck(ackNumber uint32) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if _, ok := pm.pending[ackNumber]; !ok {
		return false
	}
	delete(pm.pending, ackNumber)
	return true
}

// RetransmitCandidate pairs a packet due for resend with its retry count
// after the bump.
type RetransmitCandidate struct {
	Packet  UdpPacket
	Retries uint32
}

// GetRetransmitPackets scans the pending table for entries older than the
// ACK timeout: those under the retry budget are bumped and returned for
// resend; those exhausted are dropped silently (§4.7's DROPPED state).
func (pm *PacketManager) GetRetransmitPackets() []RetransmitCandidate {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	now := time.Now()
	var out []RetransmitCandidate
	for seq, entry := range pm.pending {
		if now.Sub(entry.sentAt) <= pm.ackTimeout {
			continue
		}
		if entry.retries < pm.maxRetries {
			entry.retries++
			entry.sentAt = now
			out = append(out, RetransmitCandidate{Packet: entry.packet, Retries: entry.retries})
		} else {
			delete(pm.pending, seq)
		}
	}
	return out
}

// HasPendingAcks reports whether any Data packet awaits acknowledgment.
func (pm *PacketManager) HasPendingAcks() bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return len(pm.pending) > 0
}

// PendingAckCount returns the number of unacknowledged Data packets.
func (pm *PacketManager) PendingAckCount() int {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return len(pm.pending)
}

// Reset clears all sequencing and tracking state, as for a new session.
func (pm *PacketManager) Reset() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.sequence = 0
	pm.highestReceived = ^uint32(0)
	pm.pending = make(map[uint32]*pendingEntry)
	pm.received.Purge()
}
