package vehicle

import (
	"encoding/binary"
	"math"

	"github.com/CodedInternet/godynastat/canbus/protocol"
)

// checkFrame validates the width of an inbound frame and, when sum is set,
// its trailing checksum.
func checkFrame(data []byte, length, want int, sum bool) error {
	if length < want || len(data) < want {
		return protocol.ErrShortFrame
	}
	if sum {
		return protocol.VerifyChecksum(data, want)
	}
	return nil
}

func getInt16(b []byte) int16 {
	return int16(binary.BigEndian.Uint16(b))
}

func putInt16(b []byte, v int16) {
	binary.BigEndian.PutUint16(b, uint16(v))
}

// scaleInt16 converts a physical value to raw counts, saturating at the
// limits of int16.
func scaleInt16(v, resolution float64) int16 {
	raw := math.Round(v / resolution)
	return int16(protocol.BoundedValue(math.MinInt16, math.MaxInt16, raw))
}

func scaleUint16(v, resolution float64) uint16 {
	raw := math.Round(v / resolution)
	return uint16(protocol.BoundedValue(0, math.MaxUint16, raw))
}
