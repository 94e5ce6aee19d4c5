package protocol

import "fmt"

const checksumMask = 0xFF

// CalculateChecksum sums data[:length] with 8-bit wraparound and complements
// the result. length is clamped into [0, len(data)]; an empty range yields 0xFF.
func CalculateChecksum(data []byte, length int) uint8 {
	if length > len(data) {
		length = len(data)
	}

	var sum uint8
	for i := 0; i < length; i++ {
		sum += data[i]
	}
	return sum ^ checksumMask
}

// Checksum is CalculateChecksum over the whole slice.
func Checksum(data []byte) uint8 {
	return CalculateChecksum(data, len(data))
}

// StampChecksum writes the checksum of buf[:length-1] into buf[length-1].
func StampChecksum(buf []byte, length int) error {
	if length < 1 || length > len(buf) {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortFrame, length, len(buf))
	}
	buf[length-1] = CalculateChecksum(buf, length-1)
	return nil
}

// VerifyChecksum checks that the final byte of data[:length] is the checksum
// of the bytes before it.
func VerifyChecksum(data []byte, length int) error {
	if length < 1 || length > len(data) {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortFrame, length, len(data))
	}

	want := CalculateChecksum(data, length-1)
	if got := data[length-1]; got != want {
		return &ChecksumError{Want: want, Got: got}
	}
	return nil
}
