package config

import (
	"os"
	"testing"

	"github.com/CodedInternet/godynastat/vehicle"
	. "github.com/smartystreets/goconvey/convey"
)

const testYaml = `
version: 1
bus: vcan0
firmware: "~1.2.3"
record: true
commands:
  throttle:
    enabled: true
    period_us: 20000
  steering:
    enabled: false
`

func TestParse(t *testing.T) {
	Convey("parsing is successful", t, func() {
		c, err := Parse([]byte(testYaml))
		So(err, ShouldBeNil)
		So(c.Bus, ShouldEqual, "vcan0")
		So(c.Firmware, ShouldEqual, "~1.2.3")
		So(c.Record, ShouldBeTrue)

		Convey("command settings are read", func() {
			So(c.Commands["throttle"], ShouldResemble, CommandConfig{Enabled: true, PeriodMicros: 20000})
			So(c.Commands["steering"].Enabled, ShouldBeFalse)
		})
	})

	Convey("defaults are filled in", t, func() {
		c, err := Parse([]byte("version: 1\n"))
		So(err, ShouldBeNil)
		So(c.Bus, ShouldEqual, "can0")
		So(c.Firmware, ShouldEqual, vehicle.FirmwareConstraint)
	})

	Convey("bad configs are refused", t, func() {
		_, err := Parse([]byte("version: 2\n"))
		So(err, ShouldNotBeNil)

		_, err = Parse([]byte("version: 1\nbogus: true\n"))
		So(err, ShouldNotBeNil)

		_, err = Parse([]byte("version: 1\ncommands:\n  brake: {enabled: true}\n"))
		So(err, ShouldNotBeNil)

		_, err = Load("/nonexistent/canprobe.yaml")
		So(err, ShouldNotBeNil)
	})
}

func TestParseEnv(t *testing.T) {
	Convey("environment overrides defaults", t, func() {
		os.Setenv("CANPROBE_SIM", "true")
		os.Setenv("CANPROBE_LISTEN", ":9000")
		defer os.Unsetenv("CANPROBE_SIM")
		defer os.Unsetenv("CANPROBE_LISTEN")

		cfg, err := ParseEnv()
		So(err, ShouldBeNil)
		So(cfg.Simulated, ShouldBeTrue)
		So(cfg.Listen, ShouldEqual, ":9000")
		So(cfg.ConfigFile, ShouldEqual, "./canprobe.yaml")
	})
}
