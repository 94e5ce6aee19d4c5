package vehicle

import (
	"encoding/binary"
	"time"

	"github.com/CodedInternet/godynastat/canbus/protocol"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	speedResolution    = 0.01  // m/s per count
	steeringResolution = 0.1   // degrees per count
	accelResolution    = 0.001 // g per count
)

// SpeedReport carries vehicle speed as an unsigned 16-bit count of 0.01 m/s
// in bytes 0-1, checksum in byte 7.
type SpeedReport struct {
	protocol.Base[State]
}

func NewSpeedReport() *SpeedReport {
	return &SpeedReport{Base: protocol.NewBase[State](0, 0)}
}

func (p *SpeedReport) Decode(data []byte, length int, state *State) error {
	if err := checkFrame(data, length, p.LengthBytes(), true); err != nil {
		return err
	}
	raw := binary.BigEndian.Uint16(data[0:2])
	state.SpeedMPS = protocol.BoundedValue(0, MaxSpeedMPS, float64(raw)*speedResolution)
	return nil
}

func (p *SpeedReport) DecodeAt(data []byte, length int, ts time.Time, state *State) error {
	if err := p.Decode(data, length, state); err != nil {
		return err
	}
	state.touch(IDSpeedReport, ts)
	return nil
}

// EncodeSpeed writes a speed report into buf, which must hold a full frame.
func EncodeSpeed(buf []byte, mps float64) error {
	if len(buf) < protocol.DefaultLength {
		return protocol.ErrShortFrame
	}
	binary.BigEndian.PutUint16(buf[0:2], scaleUint16(mps, speedResolution))
	return protocol.StampChecksum(buf, protocol.DefaultLength)
}

// SteeringReport carries the measured steering wheel angle as a signed 16-bit
// count of 0.1 degrees, positive to the left. Sent every 20ms.
type SteeringReport struct {
	protocol.Base[State]
}

func NewSteeringReport() *SteeringReport {
	return &SteeringReport{Base: protocol.NewBase[State](0, 20*1000)}
}

func (p *SteeringReport) Decode(data []byte, length int, state *State) error {
	if err := checkFrame(data, length, p.LengthBytes(), true); err != nil {
		return err
	}
	deg := float64(getInt16(data[0:2])) * steeringResolution
	state.SteeringDeg = protocol.BoundedValue(-MaxSteeringDeg, MaxSteeringDeg, deg)
	return nil
}

func (p *SteeringReport) DecodeAt(data []byte, length int, ts time.Time, state *State) error {
	if err := p.Decode(data, length, state); err != nil {
		return err
	}
	state.touch(IDSteeringReport, ts)
	return nil
}

func EncodeSteering(buf []byte, deg float64) error {
	if len(buf) < protocol.DefaultLength {
		return protocol.ErrShortFrame
	}
	putInt16(buf[0:2], scaleInt16(deg, steeringResolution))
	return protocol.StampChecksum(buf, protocol.DefaultLength)
}

// AccelReport carries body acceleration on X, Y and Z as signed 16-bit counts
// of 0.001g in bytes 0-5. Decoded values are in m/s^2.
type AccelReport struct {
	protocol.Base[State]
}

func NewAccelReport() *AccelReport {
	return &AccelReport{Base: protocol.NewBase[State](0, 10*1000)}
}

func (p *AccelReport) Decode(data []byte, length int, state *State) error {
	if err := checkFrame(data, length, p.LengthBytes(), true); err != nil {
		return err
	}

	var v mgl64.Vec3
	for i := range v {
		g := float64(getInt16(data[i*2:i*2+2])) * accelResolution
		v[i] = protocol.BoundedValue(-MaxAccelG, MaxAccelG, g) * Gravity
	}
	state.Accel = v
	return nil
}

func (p *AccelReport) DecodeAt(data []byte, length int, ts time.Time, state *State) error {
	if err := p.Decode(data, length, state); err != nil {
		return err
	}
	state.touch(IDAccelReport, ts)
	return nil
}

// EncodeAccel writes an acceleration given in m/s^2.
func EncodeAccel(buf []byte, accel mgl64.Vec3) error {
	if len(buf) < protocol.DefaultLength {
		return protocol.ErrShortFrame
	}
	for i := range accel {
		putInt16(buf[i*2:i*2+2], scaleInt16(accel[i]/Gravity, accelResolution))
	}
	return protocol.StampChecksum(buf, protocol.DefaultLength)
}
