package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUdpPacketRoundTrip(t *testing.T) {
	pkt := UdpPacket{
		Type:      PacketData,
		Sequence:  123,
		AckNumber: 456,
		Flags:     FlagFirst | FlagLast,
		Payload:   []byte{1, 2, 3, 4},
	}

	bytes := pkt.Bytes()
	got, err := ParsePacket(bytes)
	require.NoError(t, err)

	assert.Equal(t, pkt.Type, got.Type)
	assert.Equal(t, pkt.Sequence, got.Sequence)
	assert.Equal(t, pkt.AckNumber, got.AckNumber)
	assert.Equal(t, pkt.Flags, got.Flags)
	assert.Equal(t, pkt.Payload, got.Payload)
}

func TestParsePacketTooSmall(t *testing.T) {
	_, err := ParsePacket([]byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestParsePacketInvalidType(t *testing.T) {
	pkt := UdpPacket{Type: PacketData, Sequence: 1, AckNumber: 1, Flags: 0}
	bytes := pkt.Bytes()
	bytes[0] = 0xEE
	_, err := ParsePacket(bytes)
	assert.Error(t, err)
}

func TestFragmentFlagHelpers(t *testing.T) {
	p := UdpPacket{Flags: FlagFirst}
	assert.True(t, p.IsFirstFragment())
	assert.False(t, p.IsLastFragment())

	p = UdpPacket{Flags: FlagFirst | FlagLast}
	assert.True(t, p.IsFirstFragment())
	assert.True(t, p.IsLastFragment())
}
