package vehicle

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/CodedInternet/godynastat/canbus/protocol"
)

const (
	throttleResolution = 0.1 // percent per count

	enableFlag  = 0x01
	counterMask = 0x0F
)

// ThrottleCommand is the outgoing pedal command:
//
//	0-1 pedal position, uint16 0.1%
//	2   enable flag
//	6   rolling counter, low nibble
//	7   checksum
//
// It also decodes its own layout so commands seen on the bus can be read back.
type ThrottleCommand struct {
	protocol.Base[State]

	lock    sync.Mutex
	pct     float64
	enabled bool
	counter uint8
}

// NewThrottleCommand builds a throttle command sent every periodMicros, or
// every 10ms when periodMicros is zero.
func NewThrottleCommand(periodMicros uint32) *ThrottleCommand {
	if periodMicros == 0 {
		periodMicros = 10 * 1000
	}
	return &ThrottleCommand{Base: protocol.NewBase[State](0, periodMicros)}
}

// Set stages a pedal position, clamped to [0, 100]%.
func (c *ThrottleCommand) Set(pct float64) float64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.pct = protocol.BoundedValue(0, MaxThrottlePct, pct)
	return c.pct
}

func (c *ThrottleCommand) Enable(on bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.enabled = on
}

// BuildOutgoingFrame fills buf, which must be at least LengthBytes long.
func (c *ThrottleCommand) BuildOutgoingFrame(buf []byte) {
	c.lock.Lock()
	defer c.lock.Unlock()

	binary.BigEndian.PutUint16(buf[0:2], scaleUint16(c.pct, throttleResolution))
	buf[2] = 0
	if c.enabled {
		buf[2] = enableFlag
	}
	buf[6] = c.counter & counterMask
	c.counter = (c.counter + 1) & counterMask
	protocol.StampChecksum(buf, c.LengthBytes())
}

func (c *ThrottleCommand) Decode(data []byte, length int, state *State) error {
	if err := checkFrame(data, length, c.LengthBytes(), true); err != nil {
		return err
	}
	pct := float64(binary.BigEndian.Uint16(data[0:2])) * throttleResolution
	state.ThrottleCmdPct = protocol.BoundedValue(0, MaxThrottlePct, pct)
	state.Enabled = data[2]&enableFlag != 0
	return nil
}

func (c *ThrottleCommand) DecodeAt(data []byte, length int, ts time.Time, state *State) error {
	if err := c.Decode(data, length, state); err != nil {
		return err
	}
	state.touch(IDThrottleCommand, ts)
	return nil
}

// Reset disables the command and zeroes the pedal and counter.
func (c *ThrottleCommand) Reset() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.pct = 0
	c.enabled = false
	c.counter = 0
}

// SteeringCommand is the outgoing steering angle request, int16 0.1 degrees
// in bytes 0-1, enable flag in byte 2, checksum in byte 7.
type SteeringCommand struct {
	protocol.Base[State]

	lock    sync.Mutex
	deg     float64
	enabled bool
}

func NewSteeringCommand(periodMicros uint32) *SteeringCommand {
	if periodMicros == 0 {
		periodMicros = 20 * 1000
	}
	return &SteeringCommand{Base: protocol.NewBase[State](0, periodMicros)}
}

// Set stages an angle, clamped to the steering rack limits.
func (c *SteeringCommand) Set(deg float64) float64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.deg = protocol.BoundedValue(-MaxSteeringDeg, MaxSteeringDeg, deg)
	return c.deg
}

func (c *SteeringCommand) Enable(on bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.enabled = on
}

// BuildOutgoingFrame fills buf, which must be at least LengthBytes long.
func (c *SteeringCommand) BuildOutgoingFrame(buf []byte) {
	c.lock.Lock()
	defer c.lock.Unlock()

	putInt16(buf[0:2], scaleInt16(c.deg, steeringResolution))
	buf[2] = 0
	if c.enabled {
		buf[2] = enableFlag
	}
	protocol.StampChecksum(buf, c.LengthBytes())
}

func (c *SteeringCommand) Decode(data []byte, length int, state *State) error {
	if err := checkFrame(data, length, c.LengthBytes(), true); err != nil {
		return err
	}
	deg := float64(getInt16(data[0:2])) * steeringResolution
	state.SteeringCmdDeg = protocol.BoundedValue(-MaxSteeringDeg, MaxSteeringDeg, deg)
	state.SteeringEnabled = data[2]&enableFlag != 0
	return nil
}

func (c *SteeringCommand) DecodeAt(data []byte, length int, ts time.Time, state *State) error {
	if err := c.Decode(data, length, state); err != nil {
		return err
	}
	state.touch(IDSteeringCommand, ts)
	return nil
}

func (c *SteeringCommand) Reset() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.deg = 0
	c.enabled = false
}

// Commands groups the outgoing protocols so the registry and the scheduler
// share the same instances.
type Commands struct {
	Throttle *ThrottleCommand
	Steering *SteeringCommand
}

// NewCommands builds both commands; zero periods select their defaults.
func NewCommands(throttleMicros, steeringMicros uint32) *Commands {
	return &Commands{
		Throttle: NewThrottleCommand(throttleMicros),
		Steering: NewSteeringCommand(steeringMicros),
	}
}
