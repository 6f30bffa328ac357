package transport

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/biwi-proto/biwi/internal/logging"
	"github.com/biwi-proto/biwi/message"
)

// clientReadTimeout bounds each socket read on the client's receive
// goroutine so it can service retransmits and observe disconnect (§4.10).
const clientReadTimeout = 1 * time.Second

// Client is a single-background-goroutine reliable-UDP client (§4.10, §5).
type Client struct {
	socket     *net.UDPConn
	serverAddr *net.UDPAddr
	opts       Options

	packets     *PacketManager
	reassembler *FragmentReassembler

	fragmentMu   sync.Mutex
	fragmentKey  uint32
	fragmentOpen bool

	inbound chan *message.Message
	running int32
}

// Connect binds an ephemeral local port, resolves serverAddr, and starts
// the client's background receive goroutine. An optional Options
// overrides the §6 defaults.
func Connect(serverAddr string, opts ...Options) (*Client, error) {
	o := DefaultOptions()
	if len(opts) > 0 {
		o = opts[0]
	}
	addr, err := net.ResolveUDPAddr("udp", serverAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %s: %w", serverAddr, err)
	}
	socket, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, fmt.Errorf("transport: bind local socket: %w", err)
	}

	c := &Client{
		socket:      socket,
		serverAddr:  addr,
		opts:        o,
		packets:     NewPacketManagerWithOptions(o),
		reassembler: NewFragmentReassembler(),
		inbound:     make(chan *message.Message, 256),
		running:     1,
	}
	logging.Info("UDP client connected to %s", addr)
	go c.receiveLoop()
	return c, nil
}

func (c *Client) receiveLoop() {
	buf := make([]byte, 65536)
	for atomic.LoadInt32(&c.running) == 1 {
		c.socket.SetReadDeadline(time.Now().Add(c.opts.ClientReadTimeout))
		n, addr, err := c.socket.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				c.drainRetransmits()
				continue
			}
			if atomic.LoadInt32(&c.running) == 0 {
				return
			}
			continue
		}
		if addr.String() != c.serverAddr.String() {
			continue // packet from the wrong source, ignore
		}

		pkt, err := ParsePacket(buf[:n])
		if err != nil {
			logging.Debug("dropping malformed datagram: %v", err)
			continue
		}
		c.handlePacket(pkt)
	}
}

func (c *Client) handlePacket(pkt UdpPacket) {
	switch pkt.Type {
	case PacketData:
		ack := c.packets.CreateAckPacket(pkt.Sequence)
		c.socket.WriteToUDP(ack.Bytes(), c.serverAddr)

		if !c.packets.RecordReceived(pkt.Sequence) {
			return
		}
		complete, ok := c.reassemble(pkt)
		if !ok {
			return
		}
		logFragmentFingerprint("server", pkt.Sequence, complete)
		c.inbound <- message.FromBuffer(complete)

	case PacketAck:
		c.packets.HandleAck(pkt.AckNumber)

	case PacketPong:
		// keep-alive response, nothing to do
	}
}

func (c *Client) reassemble(pkt UdpPacket) ([]byte, bool) {
	if pkt.IsFirstFragment() && pkt.IsLastFragment() {
		return pkt.Payload, true
	}
	c.fragmentMu.Lock()
	defer c.fragmentMu.Unlock()
	if pkt.IsFirstFragment() {
		c.fragmentKey = pkt.Sequence
		c.fragmentOpen = true
	}
	if !c.fragmentOpen {
		return nil, false
	}
	index := int(pkt.Sequence - c.fragmentKey)
	complete, done := c.reassembler.AddFragment(c.fragmentKey, index, pkt.IsLastFragment(), pkt.Payload)
	if done {
		c.fragmentOpen = false
	}
	return complete, done
}

func (c *Client) drainRetransmits() {
	for _, cand := range c.packets.GetRetransmitPackets() {
		c.socket.WriteToUDP(cand.Packet.Bytes(), c.serverAddr)
	}
}

// Send frames msg and transmits it to the server.
func (c *Client) Send(msg *message.Message) error {
	payload := msg.ToVec()
	for _, pkt := range c.packets.CreatePackets(payload) {
		if _, err := c.socket.WriteToUDP(pkt.Bytes(), c.serverAddr); err != nil {
			return fmt.Errorf("transport: send: %w", err)
		}
	}
	return nil
}

// TryRecv returns the next queued message without blocking.
func (c *Client) TryRecv() (*message.Message, bool) {
	select {
	case msg := <-c.inbound:
		return msg, true
	default:
		return nil, false
	}
}

// Recv blocks until a message is available.
func (c *Client) Recv() (*message.Message, error) {
	msg, ok := <-c.inbound
	if !ok {
		return nil, fmt.Errorf("transport: connection closed")
	}
	return msg, nil
}

// RecvTimeout blocks until a message is available or timeout elapses.
func (c *Client) RecvTimeout(timeout time.Duration) (*message.Message, error) {
	select {
	case msg, ok := <-c.inbound:
		if !ok {
			return nil, fmt.Errorf("transport: connection closed")
		}
		return msg, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("transport: recv timeout")
	}
}

// IsActive reports whether the receive goroutine is still running.
func (c *Client) IsActive() bool { return atomic.LoadInt32(&c.running) == 1 }

// Ping sends a keep-alive packet to the server.
func (c *Client) Ping() error {
	ping := c.packets.CreatePingPacket()
	_, err := c.socket.WriteToUDP(ping.Bytes(), c.serverAddr)
	return err
}

// Disconnect flips the running flag and closes the socket; the receive
// goroutine's pending read then fails, it observes the flag, and exits.
func (c *Client) Disconnect() {
	if atomic.CompareAndSwapInt32(&c.running, 1, 0) {
		c.socket.Close()
	}
}
