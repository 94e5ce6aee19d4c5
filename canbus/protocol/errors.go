package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrShortFrame       = errors.New("frame shorter than protocol length")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// ChecksumError reports the checksum carried by a frame against the one
// computed from its contents. It matches ErrChecksumMismatch with errors.Is.
type ChecksumError struct {
	Want, Got uint8
}

func (err *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: computed 0x%02X, frame carries 0x%02X", err.Want, err.Got)
}

func (err *ChecksumError) Is(target error) bool {
	return target == ErrChecksumMismatch
}
