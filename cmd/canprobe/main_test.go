package main

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFloatArg(t *testing.T) {
	Convey("shell arguments parse as a single float", t, func() {
		v, err := floatArg([]string{"12.5"})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 12.5)

		_, err = floatArg(nil)
		So(err, ShouldNotBeNil)
		_, err = floatArg([]string{"1", "2"})
		So(err, ShouldNotBeNil)
		_, err = floatArg([]string{"fast"})
		So(err, ShouldNotBeNil)
	})
}

func TestOpenRecorder(t *testing.T) {
	Convey("the capture database directory is created", t, func() {
		dir, err := os.MkdirTemp("", "canprobe")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		rec, err := openRecorder(filepath.Join(dir, "nested", "capture.db"), "s1")
		So(err, ShouldBeNil)
		So(rec.Close(), ShouldBeNil)

		_, err = os.Stat(filepath.Join(dir, "nested", "capture.db"))
		So(err, ShouldBeNil)
	})
}
