// Package message implements the BiWi Message container: a field-id-keyed
// bag of wire.Values with lazy, cache-invalidated serialization.
package message

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/biwi-proto/biwi/wire"
)

// Message holds a set of fields identified by field id, mirroring the wire
// format's own field model (§3/§4.3). Serialization is cached until the
// next mutation, matching the original's to_buffer() caching behavior.
type Message struct {
	mu     sync.RWMutex
	fields map[uint32]wire.Value
	cached []byte

	compressor          wire.Compressor
	compressionMinBytes int
}

// WithCompression enables transparent compression of large Binary field
// payloads (wire.TypeCompressedBinary) for every subsequent encode. A
// minBytes of 0 disables it again. Invalidates the cache.
func (m *Message) WithCompression(c wire.Compressor, minBytes int) *Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compressor = c
	m.compressionMinBytes = minBytes
	m.cached = nil
	return m
}

// New creates an empty Message.
func New() *Message {
	return &Message{fields: make(map[uint32]wire.Value)}
}

// NewWithCapacity creates an empty Message with room for capacity fields
// before the backing map grows.
func NewWithCapacity(capacity int) *Message {
	return &Message{fields: make(map[uint32]wire.Value, capacity)}
}

// SetField sets field_id to value, invalidating the cached encoding.
func (m *Message) SetField(fieldID uint32, value wire.Value) *Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields[fieldID] = value
	m.cached = nil
	return m
}

// GetField returns the value stored at field_id, if any.
func (m *Message) GetField(fieldID uint32) (wire.Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.fields[fieldID]
	return v, ok
}

// HasField reports whether field_id is set.
func (m *Message) HasField(fieldID uint32) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.fields[fieldID]
	return ok
}

// UpdateField applies fn to the current value at field_id (Null if unset)
// and stores the result, invalidating the cached encoding. It holds the
// write lock across fn, giving callers an atomic read-modify-write where a
// separate GetField/SetField pair would otherwise race. This is the Go
// stand-in for a get_field_mut-style accessor: Value is an immutable
// struct, not a reference type, so there is nothing to mutate in place —
// fn receives the old value and returns the new one.
func (m *Message) UpdateField(fieldID uint32, fn func(wire.Value) wire.Value) *Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	old := m.fields[fieldID]
	m.fields[fieldID] = fn(old)
	m.cached = nil
	return m
}

// RemoveField deletes field_id, invalidating the cached encoding, and
// returns the value that was removed, if any.
func (m *Message) RemoveField(fieldID uint32) (wire.Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.fields[fieldID]
	if ok {
		delete(m.fields, fieldID)
		m.cached = nil
	}
	return v, ok
}

// FieldIDs returns the set of field ids present, in no particular order.
func (m *Message) FieldIDs() []uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]uint32, 0, len(m.fields))
	for id := range m.fields {
		ids = append(ids, id)
	}
	return ids
}

// FieldCount returns the number of fields set.
func (m *Message) FieldCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.fields)
}

// Clear removes all fields and invalidates the cache.
func (m *Message) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields = make(map[uint32]wire.Value)
	m.cached = nil
}

// ToBuffer encodes the message, caching the result until the next mutation.
// Concurrent callers observe the same cached slice; it must be treated as
// read-only by callers since it's shared.
func (m *Message) ToBuffer() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached != nil {
		return m.cached
	}
	m.cached = m.encode()
	return m.cached
}

// ToVec encodes the message to a fresh buffer without populating the cache.
func (m *Message) ToVec() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.encode()
}

// encode must be called with at least a read lock held.
func (m *Message) encode() []byte {
	enc := wire.NewEncoder()
	if m.compressor != nil && m.compressionMinBytes > 0 {
		enc.WithCompressor(m.compressor, m.compressionMinBytes)
	}
	for id, v := range m.fields {
		enc.EncodeField(id, v)
	}
	return enc.Bytes()
}

// Size returns the length of the cached (or freshly encoded) buffer.
func (m *Message) Size() int {
	return len(m.ToBuffer())
}

// FromBuffer decodes a Message from a BiWi byte buffer using DecodeAll, so
// a partial field at the end of buf is silently dropped and no error is
// returned. A caller that expects buf to hold exactly one complete message
// can use Decoder directly and check HasMore after DecodeAll if strict
// validation is needed.
func FromBuffer(buf []byte) *Message {
	return decodeBuffer(wire.NewDecoder(buf))
}

// FromBufferWithDecompressor decodes a Message, resolving any
// TypeCompressedBinary fields found using dec.
func FromBufferWithDecompressor(buf []byte, dec wire.Decompressor) *Message {
	return decodeBuffer(wire.NewDecoder(buf).WithDecompressor(dec))
}

func decodeBuffer(dec *wire.Decoder) *Message {
	msg := New()
	for _, f := range dec.DecodeAll() {
		msg.fields[f.FieldID] = f.Value
	}
	return msg
}

// Fingerprint returns a 64-bit content hash of the message's encoded form,
// suitable for deduplication or change detection across retransmitted
// copies of logically identical messages. Grounded in the domain stack's
// use of xxhash for fast, non-cryptographic content hashing.
func (m *Message) Fingerprint() uint64 {
	return xxhash.Sum64(m.ToBuffer())
}
