package canbus

import (
	"sync"
	"sync/atomic"
)

// Bus is the transport the protocol layer sits on. Received frames are fanned
// out to listeners registered for their ID and to every monitor.
type Bus interface {
	SendMsg(f Frame) error
	AddListener(id uint32, rx chan<- Frame)
	AddMonitor(rx chan<- Frame)
	Close() error
}

// fanout delivers frames without blocking the reader. A listener that is not
// keeping up loses frames and the loss is counted.
type fanout struct {
	lock      sync.RWMutex
	listeners map[uint32][]chan<- Frame
	monitors  []chan<- Frame
	dropped   uint64
}

func (o *fanout) AddListener(id uint32, rx chan<- Frame) {
	o.lock.Lock()
	defer o.lock.Unlock()

	if o.listeners == nil {
		o.listeners = make(map[uint32][]chan<- Frame)
	}
	o.listeners[id] = append(o.listeners[id], rx)
}

func (o *fanout) AddMonitor(rx chan<- Frame) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.monitors = append(o.monitors, rx)
}

func (o *fanout) deliver(f Frame) {
	o.lock.RLock()
	defer o.lock.RUnlock()

	for _, rx := range o.listeners[f.ID] {
		o.offer(rx, f)
	}
	for _, rx := range o.monitors {
		o.offer(rx, f)
	}
}

func (o *fanout) offer(rx chan<- Frame, f Frame) {
	select {
	case rx <- f:
	default:
		atomic.AddUint64(&o.dropped, 1)
	}
}

// Dropped returns the number of frames discarded because a receiver was full.
func (o *fanout) Dropped() uint64 {
	return atomic.LoadUint64(&o.dropped)
}
