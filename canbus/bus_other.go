//go:build !linux

package canbus

import (
	"errors"

	"github.com/rs/zerolog"
)

var ErrUnsupported = errors.New("SocketCAN is only available on linux")

// CANBus is unavailable off linux; use LoopbackBus instead.
type CANBus struct {
	LoopbackBus
}

func NewCANBus(ifname string, log zerolog.Logger) (*CANBus, error) {
	return nil, ErrUnsupported
}
