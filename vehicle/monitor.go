package vehicle

import (
	"context"
	"errors"
	"sync"

	"github.com/CodedInternet/godynastat/canbus"
	"github.com/CodedInternet/godynastat/canbus/dispatch"
	"github.com/rs/zerolog"
)

// Stats counts what happened to the frames a Monitor was given.
type Stats struct {
	Accepted uint64 `json:"accepted"`
	Rejected uint64 `json:"rejected"`
	Unknown  uint64 `json:"unknown"`
}

// Monitor owns a State and serialises decodes into it, so readers can take
// snapshots while frames are being applied.
type Monitor struct {
	reg *dispatch.Registry[State]
	log zerolog.Logger

	lock  sync.RWMutex
	state State
	stats Stats
}

func NewMonitor(reg *dispatch.Registry[State], log zerolog.Logger) *Monitor {
	return &Monitor{
		reg: reg,
		log: log.With().Str("component", "monitor").Logger(),
	}
}

func (m *Monitor) Registry() *dispatch.Registry[State] {
	return m.reg
}

// Apply decodes f into the monitored state. Unknown IDs are counted but are
// not an error; anything else the protocol refuses is returned.
func (m *Monitor) Apply(f canbus.Frame) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	err := m.reg.Dispatch(f, &m.state)
	switch {
	case err == nil:
		m.stats.Accepted++
	case errors.Is(err, dispatch.ErrUnknownID):
		m.stats.Unknown++
		return nil
	default:
		m.stats.Rejected++
	}
	return err
}

func (m *Monitor) Snapshot() State {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.state.Clone()
}

func (m *Monitor) Stats() Stats {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.stats
}

// Reset clears the state and resets every protocol, as on a bus restart.
func (m *Monitor) Reset() {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.reg.ResetAll()
	m.state = State{}
	m.stats = Stats{}
}

// Run applies frames from rx until ctx is done or rx is closed.
func (m *Monitor) Run(ctx context.Context, rx <-chan canbus.Frame) {
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-rx:
			if !ok {
				return
			}
			if err := m.Apply(f); err != nil {
				m.log.Debug().Err(err).Uint32("id", f.ID).Msg("frame rejected")
			}
		}
	}
}
