package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/CodedInternet/godynastat/canbus"
	"github.com/rs/zerolog"
)

// Encoder is the outgoing half of a protocol.
type Encoder interface {
	BuildOutgoingFrame(buf []byte)
	PeriodMicros() uint32
	LengthBytes() int
}

type entry struct {
	id  uint32
	enc Encoder
}

// Scheduler transmits each registered encoder's frame at the period the
// encoder declares.
type Scheduler struct {
	bus canbus.Bus
	log zerolog.Logger

	lock    sync.Mutex
	entries []entry
}

func NewScheduler(bus canbus.Bus, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		bus: bus,
		log: log.With().Str("component", "scheduler").Logger(),
	}
}

// Add registers an encoder. Encoders added after Run has started are picked
// up by the next Run.
func (s *Scheduler) Add(id uint32, enc Encoder) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.entries = append(s.entries, entry{id: id, enc: enc})
}

// Run blocks until ctx is done, sending one frame per encoder per period.
func (s *Scheduler) Run(ctx context.Context) {
	s.lock.Lock()
	entries := make([]entry, len(s.entries))
	copy(entries, s.entries)
	s.lock.Unlock()

	var wg sync.WaitGroup
	for _, e := range entries {
		wg.Add(1)
		go func(e entry) {
			defer wg.Done()
			s.pace(ctx, e)
		}(e)
	}
	wg.Wait()
}

// SendOnce builds and transmits a single frame for enc.
func (s *Scheduler) SendOnce(id uint32, enc Encoder) error {
	length := enc.LengthBytes()
	if length < 0 || length > canbus.FrameLength {
		return fmt.Errorf("length %d: %w", length, canbus.ErrDataTooLong)
	}

	buf := make([]byte, length)
	enc.BuildOutgoingFrame(buf)

	f, err := canbus.NewFrame(id, buf)
	if err != nil {
		return err
	}
	return s.bus.SendMsg(f)
}

func (s *Scheduler) pace(ctx context.Context, e entry) {
	period := time.Duration(e.enc.PeriodMicros()) * time.Microsecond
	if period <= 0 {
		s.log.Warn().Uint32("id", e.id).Msg("encoder declares no period, not scheduling")
		return
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SendOnce(e.id, e.enc); err != nil {
				s.log.Error().Err(err).Uint32("id", e.id).Msg("send failed")
			}
		}
	}
}
