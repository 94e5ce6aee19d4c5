package canbus

import (
	"encoding/binary"
	"errors"
	"time"
)

const (
	// FrameLength is the data width of every classical CAN frame on the bus.
	FrameLength = 8

	// RawFrameLength is the size of a SocketCAN struct can_frame.
	RawFrameLength = 16

	CAN_EFF_FLAG = 0x80000000
	CAN_RTR_FLAG = 0x40000000
	CAN_ERR_FLAG = 0x20000000
	CAN_SFF_MASK = 0x000007ff
	CAN_EFF_MASK = 0x1fffffff
)

// errors
var (
	ErrDataTooLong = errors.New("data length exceeds 8 bytes")
	ErrShortRaw    = errors.New("raw frame shorter than 16 bytes")
	ErrBadID       = errors.New("identifier exceeds 29 bits")
	ErrClosed      = errors.New("bus closed")
)

// Frame is a single classical CAN data frame. Timestamp is set by the bus
// when the frame is received and is zero for locally built frames.
type Frame struct {
	ID        uint32
	Len       uint8
	Data      [FrameLength]byte
	Timestamp time.Time
}

func NewFrame(id uint32, data []byte) (f Frame, err error) {
	if id > CAN_EFF_MASK {
		return f, ErrBadID
	}
	if len(data) > FrameLength {
		return f, ErrDataTooLong
	}
	f.ID = id
	f.Len = uint8(len(data))
	copy(f.Data[:], data)
	return f, nil
}

// Bytes returns the valid portion of the data field. A Len past the data
// field is clamped to FrameLength.
func (f Frame) Bytes() []byte {
	if f.Len > FrameLength {
		return f.Data[:]
	}
	return f.Data[:f.Len]
}

// Extended reports whether the ID needs the 29-bit format.
func (f Frame) Extended() bool {
	return f.ID&CAN_SFF_MASK != f.ID
}

// MarshalBinary encodes the frame in the little-endian struct can_frame layout
// used by SocketCAN:
//
//	0..3  can_id (EFF flag set for 29-bit IDs)
//	4     can_dlc
//	5..7  padding
//	8..15 data
func (f Frame) MarshalBinary() (raw []byte, err error) {
	if f.Len > FrameLength {
		return nil, ErrDataTooLong
	}
	if f.ID > CAN_EFF_MASK {
		return nil, ErrBadID
	}

	raw = make([]byte, RawFrameLength)

	oid := f.ID
	if f.Extended() {
		oid |= CAN_EFF_FLAG
	}
	binary.LittleEndian.PutUint32(raw[0:4], oid)
	raw[4] = f.Len
	copy(raw[8:], f.Data[:f.Len])

	return raw, nil
}

// UnmarshalFrame decodes a struct can_frame. RTR and error frames are reported
// with their flags stripped; callers that care should inspect the raw ID.
func UnmarshalFrame(raw []byte) (f Frame, err error) {
	if len(raw) < RawFrameLength {
		return f, ErrShortRaw
	}

	oid := binary.LittleEndian.Uint32(raw[0:4])
	if oid&CAN_EFF_FLAG != 0 {
		f.ID = oid & CAN_EFF_MASK
	} else {
		f.ID = oid & CAN_SFF_MASK
	}

	dlc := raw[4]
	if dlc > FrameLength {
		return f, ErrDataTooLong
	}
	f.Len = dlc
	copy(f.Data[:], raw[8:8+int(dlc)])

	return f, nil
}
