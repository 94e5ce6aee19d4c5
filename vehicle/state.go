// Package vehicle holds the concrete protocols spoken on the vehicle bus and
// the sensor state they decode into.
package vehicle

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Frame identifiers on the vehicle bus.
const (
	IDSpeedReport     uint32 = 0x0A1
	IDSteeringReport  uint32 = 0x0A2
	IDAccelReport     uint32 = 0x0A3
	IDVersionReport   uint32 = 0x0AF
	IDThrottleCommand uint32 = 0x110
	IDSteeringCommand uint32 = 0x111
)

const (
	Gravity = 9.80665 // m/s^2 per g

	MaxSpeedMPS    = 100.0
	MaxSteeringDeg = 470.0
	MaxAccelG      = 16.0
	MaxThrottlePct = 100.0
)

// State is the vehicle state accumulated from decoded frames. Updated holds
// the capture time of the last accepted frame per ID, for staleness checks.
type State struct {
	SpeedMPS    float64
	SteeringDeg float64
	Accel       mgl64.Vec3
	Firmware    string

	// commands read back from the bus
	ThrottleCmdPct  float64
	SteeringCmdDeg  float64
	Enabled         bool // throttle enable flag
	SteeringEnabled bool

	Updated map[uint32]time.Time
}

func (s *State) touch(id uint32, ts time.Time) {
	if ts.IsZero() {
		return
	}
	if s.Updated == nil {
		s.Updated = make(map[uint32]time.Time)
	}
	s.Updated[id] = ts
}

// Clone returns a copy of s that shares nothing with it.
func (s State) Clone() State {
	c := s
	if s.Updated != nil {
		c.Updated = make(map[uint32]time.Time, len(s.Updated))
		for id, ts := range s.Updated {
			c.Updated[id] = ts
		}
	}
	return c
}

// Age reports how long ago a frame with id was last accepted, relative to now.
// ok is false when none has been seen.
func (s State) Age(id uint32, now time.Time) (age time.Duration, ok bool) {
	ts, ok := s.Updated[id]
	if !ok {
		return 0, false
	}
	return now.Sub(ts), true
}
