package protocol

import (
	"time"

	"github.com/CodedInternet/godynastat/canbus"
)

const (
	// DefaultLength is the frame width a protocol declares unless told otherwise.
	DefaultLength = canbus.FrameLength

	// DefaultPeriodMicros is the baseline transmission cadence, 100ms.
	DefaultPeriodMicros uint32 = 100 * 1000
)

// Protocol is implemented once per message type on the bus. S is the sensor
// state the dispatch layer owns and lends to Decode.
//
// Decode must leave state untouched when it returns an error. Implementations
// must check length against LengthBytes before indexing data.
type Protocol[S any] interface {
	Decode(data []byte, length int, state *S) error
	BuildOutgoingFrame(buf []byte)
	Reset()
	PeriodMicros() uint32
	LengthBytes() int
}

// TimedDecoder is implemented by protocols that use the capture time of a
// frame. Protocols without it are decoded through Decode and the timestamp is
// dropped.
type TimedDecoder[S any] interface {
	DecodeAt(data []byte, length int, ts time.Time, state *S) error
}

// DecodeAt decodes a timestamped frame with p, preferring its TimedDecoder.
func DecodeAt[S any](p Protocol[S], data []byte, length int, ts time.Time, state *S) error {
	if td, ok := p.(TimedDecoder[S]); ok {
		return td.DecodeAt(data, length, ts, state)
	}
	return p.Decode(data, length, state)
}

// Period returns the transmission cadence of p as a duration.
func Period[S any](p Protocol[S]) time.Duration {
	return time.Duration(p.PeriodMicros()) * time.Microsecond
}

// Base carries the frame metadata of a protocol and the default, inert
// lifecycle. Concrete protocols embed it and override what they need.
type Base[S any] struct {
	length int
	period uint32
}

// NewBase fixes the frame length and period of a protocol. Zero values select
// DefaultLength and DefaultPeriodMicros; a negative length is treated as zero.
func NewBase[S any](length int, periodMicros uint32) Base[S] {
	if length <= 0 {
		length = DefaultLength
	}
	if periodMicros == 0 {
		periodMicros = DefaultPeriodMicros
	}
	return Base[S]{length: length, period: periodMicros}
}

func (b Base[S]) PeriodMicros() uint32 {
	if b.period == 0 {
		return DefaultPeriodMicros
	}
	return b.period
}

func (b Base[S]) LengthBytes() int {
	if b.length == 0 {
		return DefaultLength
	}
	return b.length
}

// Decode accepts every frame and changes nothing.
func (b Base[S]) Decode(data []byte, length int, state *S) error {
	return nil
}

// BuildOutgoingFrame leaves buf as it is.
func (b Base[S]) BuildOutgoingFrame(buf []byte) {}

// Reset has nothing to clear; Base holds no mutable state.
func (b Base[S]) Reset() {}

// Inert is a protocol with no decode or encode logic at all. It is registered
// for IDs that must be recognised on the bus but carry nothing of interest.
type Inert[S any] struct {
	Base[S]
}

func NewInert[S any](length int, periodMicros uint32) *Inert[S] {
	return &Inert[S]{Base: NewBase[S](length, periodMicros)}
}

var _ Protocol[struct{}] = (*Inert[struct{}])(nil)
