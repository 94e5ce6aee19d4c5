package vehicle

import (
	"testing"
	"time"

	"github.com/CodedInternet/godynastat/canbus/protocol"
	. "github.com/smartystreets/goconvey/convey"
)

func TestThrottleCommand(t *testing.T) {
	Convey("a throttle command", t, func() {
		c := NewThrottleCommand(0)
		So(c.PeriodMicros(), ShouldEqual, 10000)

		Convey("clamps the requested pedal position", func() {
			So(c.Set(150), ShouldEqual, 100)
			So(c.Set(-3), ShouldEqual, 0)
			So(c.Set(37.5), ShouldEqual, 37.5)
		})

		Convey("round trips through its own decoder", func() {
			c.Set(37.5)
			c.Enable(true)
			buf := make([]byte, c.LengthBytes())
			c.BuildOutgoingFrame(buf)
			So(protocol.VerifyChecksum(buf, len(buf)), ShouldBeNil)
			So(buf[0:3], ShouldResemble, []byte{0x01, 0x77, 0x01})

			var state State
			So(c.Decode(buf, len(buf), &state), ShouldBeNil)
			So(state.ThrottleCmdPct, ShouldAlmostEqual, 37.5)
			So(state.Enabled, ShouldBeTrue)
		})

		Convey("rolls its counter through a nibble", func() {
			buf := make([]byte, 8)
			for i := 0; i < 17; i++ {
				c.BuildOutgoingFrame(buf)
				So(buf[6], ShouldEqual, i%16)
			}
		})

		Convey("reset disables and zeroes the command", func() {
			c.Set(80)
			c.Enable(true)
			buf := make([]byte, 8)
			c.BuildOutgoingFrame(buf)
			c.Reset()
			c.BuildOutgoingFrame(buf)
			So(buf[0:3], ShouldResemble, []byte{0, 0, 0})
			So(buf[6], ShouldEqual, 0)
		})
	})
}

func TestSteeringCommand(t *testing.T) {
	Convey("a steering command", t, func() {
		c := NewSteeringCommand(0)

		Convey("clamps to the rack and round trips", func() {
			So(c.Set(500), ShouldEqual, MaxSteeringDeg)
			c.Set(-45.6)
			buf := make([]byte, 8)
			c.BuildOutgoingFrame(buf)

			var state State
			So(c.Decode(buf, 8, &state), ShouldBeNil)
			So(state.SteeringCmdDeg, ShouldAlmostEqual, -45.6, 0.05)
			So(state.SteeringEnabled, ShouldBeFalse)
		})

		Convey("reads back its enable flag separately from the throttle", func() {
			c.Enable(true)
			buf := make([]byte, 8)
			c.BuildOutgoingFrame(buf)
			So(buf[2], ShouldEqual, 0x01)

			var state State
			So(c.Decode(buf, 8, &state), ShouldBeNil)
			So(state.SteeringEnabled, ShouldBeTrue)
			So(state.Enabled, ShouldBeFalse)
		})

		Convey("stamps its update time when decoded with a timestamp", func() {
			buf := make([]byte, 8)
			c.BuildOutgoingFrame(buf)
			ts := time.Unix(1700000000, 0)

			var state State
			So(protocol.DecodeAt[State](c, buf, 8, ts, &state), ShouldBeNil)
			So(state.Updated[IDSteeringCommand], ShouldEqual, ts)
		})

		Convey("reset returns to centre", func() {
			c.Set(90)
			c.Enable(true)
			c.Reset()
			buf := make([]byte, 8)
			c.BuildOutgoingFrame(buf)
			So(buf[0:3], ShouldResemble, []byte{0, 0, 0})
		})
	})
}

func TestCommandPeriods(t *testing.T) {
	Convey("command periods can be configured", t, func() {
		cmds := NewCommands(25000, 0)
		So(cmds.Throttle.PeriodMicros(), ShouldEqual, 25000)
		So(cmds.Steering.PeriodMicros(), ShouldEqual, 20000)
	})
}
