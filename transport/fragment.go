package transport

import (
	"sync"
	"time"
)

// fragmentGroupTimeout is how long an incomplete fragment group is kept
// before Cleanup discards it (§4.8's "timeout-driven" cleanup, no fixed
// value given by the spec — chosen to match the connection idle timeout).
const fragmentGroupTimeout = 30 * time.Second

type fragmentGroup struct {
	slots     []*[]byte
	lastIndex int // -1 until the LAST-flagged fragment has been seen
	touched   time.Time
}

// FragmentReassembler reconstructs a multi-packet message from its
// fragments (§4.8). It is keyed by a message id the transport derives
// itself — the wire format carries no message id — by using the sequence
// of the FIRST-flagged packet that opened the group.
type FragmentReassembler struct {
	mu     sync.Mutex
	groups map[uint32]*fragmentGroup
}

// NewFragmentReassembler creates an empty reassembler.
func NewFragmentReassembler() *FragmentReassembler {
	return &FragmentReassembler{groups: make(map[uint32]*fragmentGroup)}
}

// AddFragment records one fragment of messageID at fragmentIndex. isLast
// marks the fragment carrying the LAST flag, telling the group its final
// index; without having seen that fragment, a group can never report
// complete, no matter how many slots happen to be filled. It returns the
// concatenated payload once every slot from 0 through the LAST fragment's
// index is filled. Out-of-order arrivals are buffered; if the same slot is
// filled twice the first arrival wins and later ones are ignored.
func (r *FragmentReassembler) AddFragment(messageID uint32, fragmentIndex int, isLast bool, data []byte) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	group, ok := r.groups[messageID]
	if !ok {
		group = &fragmentGroup{lastIndex: -1, touched: time.Now()}
		r.groups[messageID] = group
	}
	group.touched = time.Now()

	if fragmentIndex >= len(group.slots) {
		grown := make([]*[]byte, fragmentIndex+1)
		copy(grown, group.slots)
		group.slots = grown
	}
	if group.slots[fragmentIndex] == nil {
		cp := make([]byte, len(data))
		copy(cp, data)
		group.slots[fragmentIndex] = &cp
	}
	if isLast {
		group.lastIndex = fragmentIndex
	}

	if group.lastIndex < 0 || len(group.slots) <= group.lastIndex {
		return nil, false
	}
	for _, slot := range group.slots {
		if slot == nil {
			return nil, false
		}
	}

	total := 0
	for _, slot := range group.slots {
		total += len(*slot)
	}
	complete := make([]byte, 0, total)
	for _, slot := range group.slots {
		complete = append(complete, (*slot)...)
	}
	delete(r.groups, messageID)
	return complete, true
}

// Cleanup discards fragment groups that have received no new data for
// longer than fragmentGroupTimeout.
func (r *FragmentReassembler) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for id, group := range r.groups {
		if now.Sub(group.touched) > fragmentGroupTimeout {
			delete(r.groups, id)
		}
	}
}
