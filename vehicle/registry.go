package vehicle

import (
	"github.com/CodedInternet/godynastat/canbus/dispatch"
	"github.com/CodedInternet/godynastat/canbus/protocol"
)

// Descriptor names a registered protocol and its frame metadata.
type Descriptor struct {
	ID           uint32 `json:"id"`
	Name         string `json:"name"`
	PeriodMicros uint32 `json:"period_us"`
	LengthBytes  int    `json:"length"`
}

var names = map[uint32]string{
	IDSpeedReport:     "speed_report",
	IDSteeringReport:  "steering_report",
	IDAccelReport:     "accel_report",
	IDVersionReport:   "version_report",
	IDThrottleCommand: "throttle_command",
	IDSteeringCommand: "steering_command",
}

func Name(id uint32) string {
	if n, ok := names[id]; ok {
		return n
	}
	return "unknown"
}

// NewRegistry registers every protocol on the vehicle bus. The command
// protocols are registered too so their frames can be read back.
func NewRegistry(cmds *Commands) (*dispatch.Registry[State], error) {
	reg := dispatch.NewRegistry[State]()

	protocols := map[uint32]protocol.Protocol[State]{
		IDSpeedReport:     NewSpeedReport(),
		IDSteeringReport:  NewSteeringReport(),
		IDAccelReport:     NewAccelReport(),
		IDVersionReport:   NewVersionReport(),
		IDThrottleCommand: cmds.Throttle,
		IDSteeringCommand: cmds.Steering,
	}
	for id, p := range protocols {
		if err := reg.Register(id, p); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Describe lists the registry contents in ID order.
func Describe(reg *dispatch.Registry[State]) []Descriptor {
	ids := reg.IDs()
	out := make([]Descriptor, 0, len(ids))
	for _, id := range ids {
		p, _ := reg.Lookup(id)
		out = append(out, Descriptor{
			ID:           id,
			Name:         Name(id),
			PeriodMicros: p.PeriodMicros(),
			LengthBytes:  p.LengthBytes(),
		})
	}
	return out
}
