package dispatch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/CodedInternet/godynastat/canbus"
	"github.com/CodedInternet/godynastat/canbus/protocol"
	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"
)

type tickEncoder struct {
	protocol.Base[struct{}]
	built int32
}

func (e *tickEncoder) BuildOutgoingFrame(buf []byte) {
	n := atomic.AddInt32(&e.built, 1)
	buf[0] = byte(n)
	protocol.StampChecksum(buf, e.LengthBytes())
}

type negativeEncoder struct {
	tickEncoder
}

func (negativeEncoder) LengthBytes() int { return -1 }

func TestScheduler(t *testing.T) {
	Convey("a scheduler on a loopback bus", t, func() {
		bus := canbus.NewLoopbackBus()
		rx := make(chan canbus.Frame, 64)
		bus.AddListener(0x110, rx)

		s := NewScheduler(bus, zerolog.Nop())

		Convey("SendOnce builds a stamped frame of the declared length", func() {
			enc := &tickEncoder{Base: protocol.NewBase[struct{}](0, 0)}
			So(s.SendOnce(0x110, enc), ShouldBeNil)

			f := <-rx
			So(f.Len, ShouldEqual, 8)
			So(f.Data[0], ShouldEqual, 1)
			So(protocol.VerifyChecksum(f.Bytes(), 8), ShouldBeNil)
		})

		Convey("SendOnce refuses encoders wider than a frame", func() {
			enc := &tickEncoder{Base: protocol.NewBase[struct{}](12, 0)}
			So(errors.Is(s.SendOnce(0x110, enc), canbus.ErrDataTooLong), ShouldBeTrue)
			So(bus.TxCount(), ShouldEqual, 0)
		})

		Convey("SendOnce refuses a negative length without building", func() {
			enc := &negativeEncoder{tickEncoder{Base: protocol.NewBase[struct{}](0, 0)}}
			So(errors.Is(s.SendOnce(0x110, enc), canbus.ErrDataTooLong), ShouldBeTrue)
			So(int(atomic.LoadInt32(&enc.built)), ShouldEqual, 0)
			So(bus.TxCount(), ShouldEqual, 0)
		})

		Convey("Run paces frames until cancelled", func() {
			enc := &tickEncoder{Base: protocol.NewBase[struct{}](0, 5*1000)}
			s.Add(0x110, enc)

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
			defer cancel()
			s.Run(ctx)

			sent := bus.TxCount()
			So(sent, ShouldBeGreaterThanOrEqualTo, 3)
			So(sent, ShouldBeLessThanOrEqualTo, 13)
			So(int(atomic.LoadInt32(&enc.built)), ShouldEqual, sent)
		})
	})
}
