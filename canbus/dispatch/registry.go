// Package dispatch routes bus frames to the protocol registered for their ID
// and paces outgoing command frames.
package dispatch

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/CodedInternet/godynastat/canbus"
	"github.com/CodedInternet/godynastat/canbus/protocol"
)

var (
	ErrUnknownID   = errors.New("no protocol registered for frame id")
	ErrDuplicateID = errors.New("frame id already registered")
	ErrNilProtocol = errors.New("nil protocol")
)

// Registry maps frame identifiers to protocol instances. Registration is safe
// alongside Dispatch; the state passed to Dispatch is the caller's to guard.
type Registry[S any] struct {
	lock      sync.RWMutex
	protocols map[uint32]protocol.Protocol[S]
}

func NewRegistry[S any]() *Registry[S] {
	return &Registry[S]{
		protocols: make(map[uint32]protocol.Protocol[S]),
	}
}

func (r *Registry[S]) Register(id uint32, p protocol.Protocol[S]) error {
	if p == nil {
		return ErrNilProtocol
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.protocols[id]; ok {
		return fmt.Errorf("%w: 0x%03X", ErrDuplicateID, id)
	}
	r.protocols[id] = p
	return nil
}

func (r *Registry[S]) Lookup(id uint32) (p protocol.Protocol[S], ok bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	p, ok = r.protocols[id]
	return
}

// IDs returns the registered identifiers in ascending order.
func (r *Registry[S]) IDs() []uint32 {
	r.lock.RLock()
	defer r.lock.RUnlock()

	ids := make([]uint32, 0, len(r.protocols))
	for id := range r.protocols {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Dispatch decodes f into state with the protocol registered for f.ID. Frames
// shorter than the protocol declares are refused before the protocol sees them.
func (r *Registry[S]) Dispatch(f canbus.Frame, state *S) error {
	p, ok := r.Lookup(f.ID)
	if !ok {
		return fmt.Errorf("%w: 0x%03X", ErrUnknownID, f.ID)
	}

	length := int(f.Len)
	if length > canbus.FrameLength {
		return fmt.Errorf("0x%03X: %w: length %d", f.ID, canbus.ErrDataTooLong, length)
	}
	if length < p.LengthBytes() {
		return fmt.Errorf("0x%03X: %w: got %d bytes, want %d", f.ID, protocol.ErrShortFrame, length, p.LengthBytes())
	}

	if err := protocol.DecodeAt(p, f.Data[:length], length, f.Timestamp, state); err != nil {
		return fmt.Errorf("0x%03X: %w", f.ID, err)
	}
	return nil
}

// ResetAll resets every registered protocol, as on a bus session restart.
func (r *Registry[S]) ResetAll() {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for _, p := range r.protocols {
		p.Reset()
	}
}
