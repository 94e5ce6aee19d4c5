package canbus

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFrame_MarshalBinary(t *testing.T) {
	Convey("Standard frame format encodes correctly", t, func() {
		f, err := NewFrame(0x123, []byte{0x34, 0x12})
		So(err, ShouldBeNil)
		raw, err := f.MarshalBinary()
		So(err, ShouldBeNil)

		Convey("ID gets set correctly", func() {
			So(raw[0:4], ShouldResemble, []byte{0x23, 0x01, 0x00, 0x00})
		})

		Convey("Data length is correctly set", func() {
			So(raw[4], ShouldEqual, 2)
		})

		Convey("Data is copied over", func() {
			So(raw[8:], ShouldResemble, []byte{0x34, 0x12, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
		})

		Convey("decoding gives back the same frame", func() {
			back, err := UnmarshalFrame(raw)
			So(err, ShouldBeNil)
			So(back.ID, ShouldEqual, f.ID)
			So(back.Bytes(), ShouldResemble, []byte{0x34, 0x12})
		})
	})

	Convey("Extended IDs carry the EFF flag", t, func() {
		f, err := NewFrame(0x18DAF110, []byte{1})
		So(err, ShouldBeNil)
		So(f.Extended(), ShouldBeTrue)

		raw, _ := f.MarshalBinary()
		So(raw[3]&0x80, ShouldEqual, 0x80)

		back, err := UnmarshalFrame(raw)
		So(err, ShouldBeNil)
		So(back.ID, ShouldEqual, 0x18DAF110)
	})

	Convey("data length errors are handled correctly", t, func() {
		_, err := NewFrame(0x10, make([]byte, 9))
		So(err, ShouldEqual, ErrDataTooLong)

		_, err = NewFrame(0x10, make([]byte, 8))
		So(err, ShouldBeNil)

		_, err = NewFrame(0x20000000, nil)
		So(err, ShouldEqual, ErrBadID)

		raw := make([]byte, RawFrameLength)
		raw[4] = 9
		_, err = UnmarshalFrame(raw)
		So(err, ShouldEqual, ErrDataTooLong)

		_, err = UnmarshalFrame(raw[:10])
		So(err, ShouldEqual, ErrShortRaw)
	})
}

func BenchmarkFrame_MarshalBinary(b *testing.B) {
	f, _ := NewFrame(0x7ff, []byte{1, 0, 0, 0, 0, 0, 0, 0})

	for n := 0; n < b.N; n++ {
		f.MarshalBinary()
	}
}

func BenchmarkUnmarshalFrame(b *testing.B) {
	f, _ := NewFrame(0x7ff, []byte{1, 0, 0, 0, 0, 0, 0, 0})
	raw, _ := f.MarshalBinary()

	for n := 0; n < b.N; n++ {
		UnmarshalFrame(raw)
	}
}

func TestFrame_Bytes(t *testing.T) {
	Convey("Bytes returns the valid data", t, func() {
		f, _ := NewFrame(0x10, []byte{1, 2, 3})
		So(f.Bytes(), ShouldResemble, []byte{1, 2, 3})

		Convey("and clamps a length past the data field", func() {
			f.Len = 200
			So(len(f.Bytes()), ShouldEqual, FrameLength)
		})
	})
}
