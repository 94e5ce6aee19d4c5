package vehicle

import (
	"bytes"

	"github.com/CodedInternet/godynastat/canbus/protocol"
	verrors "github.com/CodedInternet/godynastat/vehicle/errors"
	"github.com/Masterminds/semver"
)

const (
	// FirmwareConstraint is the range of controller firmware this stack speaks to.
	FirmwareConstraint = "~1.2.0"

	devFirmware = "DEV"
)

// VersionReport carries the controller firmware version as NUL padded ASCII
// filling the whole frame. It has no checksum byte and no use for the capture
// time, so it only implements the plain Decode.
type VersionReport struct {
	protocol.Base[State]
}

func NewVersionReport() *VersionReport {
	return &VersionReport{Base: protocol.NewBase[State](0, 1000*1000)}
}

func (p *VersionReport) Decode(data []byte, length int, state *State) error {
	if err := checkFrame(data, length, p.LengthBytes(), false); err != nil {
		return err
	}
	raw := data[:p.LengthBytes()]
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	state.Firmware = string(raw)
	return nil
}

// EncodeVersion writes version into buf, truncated to a frame.
func EncodeVersion(buf []byte, version string) error {
	if len(buf) < protocol.DefaultLength {
		return protocol.ErrShortFrame
	}
	n := copy(buf[:protocol.DefaultLength], version)
	for i := n; i < protocol.DefaultLength; i++ {
		buf[i] = 0
	}
	return nil
}

// CheckFirmware tests a reported firmware version against constraint. Builds
// reporting DEV are accepted; bare commit hashes are not.
func CheckFirmware(version, constraint string) error {
	if version == devFirmware {
		return nil
	}
	if len(version) == 0 {
		return verrors.FirmwareVersionError{Constraint: constraint, Reason: "no version reported"}
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		if len(version) == 7 {
			return verrors.FirmwareVersionError{Version: version, Reason: "commit builds are not supported"}
		}
		return verrors.FirmwareVersionError{Version: version, Reason: err.Error()}
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return verrors.FirmwareVersionError{Version: version, Constraint: constraint}
	}
	return nil
}
