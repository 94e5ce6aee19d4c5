package vehicle

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/CodedInternet/godynastat/canbus"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
)

const (
	SIM_INTERVAL = 10 * time.Millisecond
	SIM_VERSION  = "1.2.3"

	simMaxAccel   = 3.0   // m/s^2 at full throttle
	simDrag       = 0.02  // per second, proportional to speed
	simSteerRate  = 360.0 // degrees per second
	simNoiseAccel = 0.05  // m/s^2
)

// Simulator plays the vehicle side of the bus: it listens for the command
// frames, integrates a crude longitudinal and steering model, and injects the
// report frames a real vehicle would send.
type Simulator struct {
	bus  *canbus.LoopbackBus
	rand *rand.Rand
	log  zerolog.Logger

	cmds  State
	speed float64
	steer float64
	accel mgl64.Vec3
	ticks int
}

func NewSimulator(bus *canbus.LoopbackBus, seed int64, log zerolog.Logger) *Simulator {
	return &Simulator{
		bus:  bus,
		rand: rand.New(rand.NewSource(seed)),
		log:  log.With().Str("component", "simulator").Logger(),
	}
}

// Run drives the simulation until ctx is done.
func (s *Simulator) Run(ctx context.Context) {
	rx := make(chan canbus.Frame, 16)
	s.bus.AddListener(IDThrottleCommand, rx)
	s.bus.AddListener(IDSteeringCommand, rx)

	throttle := NewThrottleCommand(0)
	steering := NewSteeringCommand(0)

	ticker := time.NewTicker(SIM_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case f := <-rx:
			var err error
			switch f.ID {
			case IDThrottleCommand:
				err = throttle.Decode(f.Bytes(), int(f.Len), &s.cmds)
			case IDSteeringCommand:
				err = steering.Decode(f.Bytes(), int(f.Len), &s.cmds)
			}
			if err != nil {
				s.log.Warn().Err(err).Uint32("id", f.ID).Msg("ignoring command frame")
			}
		case <-ticker.C:
			s.Step(SIM_INTERVAL)
			frames, err := s.Frames()
			if err != nil {
				s.log.Error().Err(err).Msg("unable to build report frames")
				continue
			}
			for _, f := range frames {
				s.bus.Inject(f)
			}
		}
	}
}

// Step advances the model by dt using the last commands seen.
func (s *Simulator) Step(dt time.Duration) {
	secs := dt.Seconds()

	var a float64
	if s.cmds.Enabled {
		a = s.cmds.ThrottleCmdPct / MaxThrottlePct * simMaxAccel
	}
	a -= simDrag * s.speed
	s.speed = math.Max(0, s.speed+a*secs)

	var target float64
	if s.cmds.SteeringEnabled {
		target = s.cmds.SteeringCmdDeg
	}
	delta := target - s.steer
	step := simSteerRate * secs
	s.steer += math.Max(-step, math.Min(step, delta))

	noise := func() float64 { return (s.rand.Float64()*2 - 1) * simNoiseAccel }
	s.accel = mgl64.Vec3{a + noise(), noise(), Gravity + noise()}
	s.ticks++
}

// Frames builds the report frames for the current model state. The version
// report goes out once a second.
func (s *Simulator) Frames() ([]canbus.Frame, error) {
	frames := make([]canbus.Frame, 0, 4)

	add := func(id uint32, encode func(buf []byte) error) error {
		buf := make([]byte, canbus.FrameLength)
		if err := encode(buf); err != nil {
			return err
		}
		f, err := canbus.NewFrame(id, buf)
		if err != nil {
			return err
		}
		frames = append(frames, f)
		return nil
	}

	err := add(IDSpeedReport, func(buf []byte) error { return EncodeSpeed(buf, s.speed) })
	if err == nil {
		err = add(IDSteeringReport, func(buf []byte) error { return EncodeSteering(buf, s.steer) })
	}
	if err == nil {
		err = add(IDAccelReport, func(buf []byte) error { return EncodeAccel(buf, s.accel) })
	}
	if err == nil && s.ticks%int(time.Second/SIM_INTERVAL) == 1 {
		err = add(IDVersionReport, func(buf []byte) error { return EncodeVersion(buf, SIM_VERSION) })
	}
	if err != nil {
		return nil, err
	}
	return frames, nil
}
