package transport

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/biwi-proto/biwi/internal/logging"
	"github.com/biwi-proto/biwi/message"
)

// logFragmentFingerprint hashes a freshly reassembled message buffer and
// logs it at Debug. It is a completeness check, not protocol framing: the
// reassembler already keys strictly by sequence (§4.8), but a 32-bit
// sequence wraparound on a long-lived connection could in principle reuse
// a message id across two unrelated groups, and a mismatched fingerprint
// on a retransmitted copy of the "same" message is a useful signal during
// debugging.
func logFragmentFingerprint(peerID ConnectionID, messageID uint32, data []byte) {
	logging.Debug("reassembled message from %s (id=%d, %d bytes, xxhash=%016x)",
		peerID, messageID, len(data), xxhash.Sum64(data))
}

// connectionIdleTimeout evicts a peer that has been silent this long (§6).
const connectionIdleTimeout = 30 * time.Second

// serverReadTimeout bounds each socket read so the loop can service
// retransmits and eviction even with no inbound traffic (§4.9).
const serverReadTimeout = 100 * time.Millisecond

// ConnectionID identifies a peer by its observed UDP address string.

type ConnectionID = string

// connection holds the per-peer reliability state the server loop mutates.
type connection struct {
	id           ConnectionID
	addr         *net.UDPAddr
	packets      *PacketManager
	reassembler  *FragmentReassembler
	fragmentKey  uint32
	fragmentOpen bool
	lastActivity time.Time
}

// Inbound pairs a fully-reassembled message with the peer that sent it.
type Inbound struct {
	PeerID  ConnectionID
	Message *message.Message
}

// Server is a single-goroutine reliable-UDP server (§4.9, §5): one receive
// loop owns the socket; a mutex guards the per-peer connection table so
// SendTo/Broadcast/Connections may be called from any goroutine.
type Server struct {
	socket *net.UDPConn
	opts   Options

	mu          sync.Mutex
	connections map[ConnectionID]*connection

	inbound chan Inbound
	done    chan struct{}
}

// Listen binds a UDP server on host:port and starts its receive loop in a
// background goroutine. Call Close to stop it. An optional Options
// overrides the §6 defaults.
func Listen(host string, port int, opts ...Options) (*Server, error) {
	o := DefaultOptions()
	if len(opts) > 0 {
		o = opts[0]
	}
	addr := fmt.Sprintf("%s:%d", host, port)
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %s: %w", addr, err)
	}
	socket, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", addr, err)
	}

	s := &Server{
		socket:      socket,
		opts:        o,
		connections: make(map[ConnectionID]*connection),
		inbound:     make(chan Inbound, 256),
		done:        make(chan struct{}),
	}
	logging.Info("UDP server listening on %s", addr)
	go s.receiveLoop()
	return s, nil
}

// Inbound returns the channel of fully-reassembled peer messages.
func (s *Server) Inbound() <-chan Inbound { return s.inbound }

// Close stops the receive loop and releases the socket.
func (s *Server) Close() error {
	close(s.done)
	return s.socket.Close()
}

func (s *Server) receiveLoop() {
	buf := make([]byte, 65536)
	for {
		select {
		case <-s.done:
			return
		default:
		}

		s.socket.SetReadDeadline(time.Now().Add(s.opts.ServerReadTimeout))
		n, addr, err := s.socket.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				s.drainRetransmitsAndEvict()
				continue
			}
			select {
			case <-s.done:
				return
			default:
				logging.Warn("server read error: %v", err)
				continue
			}
		}

		pkt, err := ParsePacket(buf[:n])
		if err != nil {
			logging.Debug("dropping malformed datagram from %s: %v", addr, err)
			continue
		}
		s.handlePacket(pkt, addr)
	}
}

func (s *Server) connectionFor(addr *net.UDPAddr) *connection {
	id := addr.String()
	s.mu.Lock()
	defer s.mu.Unlock()
	conn, ok := s.connections[id]
	if !ok {
		conn = &connection{
			id:          id,
			addr:        addr,
			packets:     NewPacketManagerWithOptions(s.opts),
			reassembler: NewFragmentReassembler(),
		}
		s.connections[id] = conn
	}
	conn.lastActivity = time.Now()
	return conn
}

func (s *Server) handlePacket(pkt UdpPacket, addr *net.UDPAddr) {
	conn := s.connectionFor(addr)

	switch pkt.Type {
	case PacketData:
		ack := conn.packets.CreateAckPacket(pkt.Sequence)
		s.socket.WriteToUDP(ack.Bytes(), addr)

		if !conn.packets.RecordReceived(pkt.Sequence) {
			return
		}
		complete, ok := reassemble(conn, pkt)
		if !ok {
			return
		}
		logFragmentFingerprint(conn.id, pkt.Sequence, complete)
		s.inbound <- Inbound{PeerID: conn.id, Message: message.FromBuffer(complete)}

	case PacketAck:
		conn.packets.HandleAck(pkt.AckNumber)

	case PacketPing:
		pong := UdpPacket{Type: PacketPong, Sequence: 0, AckNumber: pkt.Sequence}
		s.socket.WriteToUDP(pong.Bytes(), addr)

	case PacketPong:
		// keep-alive response, nothing to do
	}
}

// reassemble folds a Data packet into its connection's fragment group
// (or decodes it immediately when it is a complete single-packet message).
func reassemble(conn *connection, pkt UdpPacket) ([]byte, bool) {
	if pkt.IsFirstFragment() && pkt.IsLastFragment() {
		return pkt.Payload, true
	}
	if pkt.IsFirstFragment() {
		conn.fragmentKey = pkt.Sequence
		conn.fragmentOpen = true
	}
	if !conn.fragmentOpen {
		return nil, false
	}
	index := int(pkt.Sequence - conn.fragmentKey)
	complete, done := conn.reassembler.AddFragment(conn.fragmentKey, index, pkt.IsLastFragment(), pkt.Payload)
	if done {
		conn.fragmentOpen = false
	}
	return complete, done
}

func (s *Server) drainRetransmitsAndEvict() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, conn := range s.connections {
		for _, cand := range conn.packets.GetRetransmitPackets() {
			s.socket.WriteToUDP(cand.Packet.Bytes(), conn.addr)
		}
		if now.Sub(conn.lastActivity) > s.opts.IdleTimeout {
			delete(s.connections, id)
		}
	}
}

// SendTo frames msg and transmits it to peerID, returning an error if the
// peer is unknown or the socket write fails.
func (s *Server) SendTo(peerID ConnectionID, msg *message.Message) error {
	s.mu.Lock()
	conn, ok := s.connections[peerID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("transport: unknown peer %q", peerID)
	}
	payload := msg.ToVec()
	for _, pkt := range conn.packets.CreatePackets(payload) {
		if _, err := s.socket.WriteToUDP(pkt.Bytes(), conn.addr); err != nil {
			return fmt.Errorf("transport: send to %s: %w", peerID, err)
		}
	}
	return nil
}

// Broadcast frames msg once and transmits it to every known peer, each
// with its own packet sequencing.
func (s *Server) Broadcast(msg *message.Message) error {
	payload := msg.ToVec()
	s.mu.Lock()
	conns := make([]*connection, 0, len(s.connections))
	for _, conn := range s.connections {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		for _, pkt := range conn.packets.CreatePackets(payload) {
			if _, err := s.socket.WriteToUDP(pkt.Bytes(), conn.addr); err != nil {
				return fmt.Errorf("transport: broadcast to %s: %w", conn.id, err)
			}
		}
	}
	return nil
}

// Connections returns the currently known peer ids.
func (s *Server) Connections() []ConnectionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]ConnectionID, 0, len(s.connections))
	for id := range s.connections {
		ids = append(ids, id)
	}
	return ids
}
