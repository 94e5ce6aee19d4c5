package canbus

import (
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// the reader wakes at least this often so Close is noticed
const readTimeout = 100 * time.Millisecond

// CANBus is a raw SocketCAN socket bound to a single interface.
type CANBus struct {
	fanout

	fd     int
	ifname string
	log    zerolog.Logger

	lock sync.Mutex
	open bool
	done chan struct{}
}

func NewCANBus(ifname string, log zerolog.Logger) (bus *CANBus, err error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, err
	}

	tv := unix.NsecToTimeval(int64(readTimeout))
	if err = unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		unix.Close(fd)
		return nil, err
	}

	if err = unix.Bind(fd, &unix.SockaddrCAN{Ifindex: iface.Index}); err != nil {
		unix.Close(fd)
		return nil, err
	}

	bus = &CANBus{
		fd:     fd,
		ifname: ifname,
		log:    log.With().Str("bus", ifname).Logger(),
		open:   true,
		done:   make(chan struct{}),
	}
	go bus.reader()

	return bus, nil
}

func (c *CANBus) SendMsg(f Frame) error {
	raw, err := f.MarshalBinary()
	if err != nil {
		return err
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.open {
		return ErrClosed
	}
	_, err = unix.Write(c.fd, raw)
	return err
}

func (c *CANBus) Close() error {
	c.lock.Lock()
	if !c.open {
		c.lock.Unlock()
		return ErrClosed
	}
	c.open = false
	c.lock.Unlock()

	<-c.done
	return unix.Close(c.fd)
}

func (c *CANBus) isOpen() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.open
}

func (c *CANBus) reader() {
	defer close(c.done)

	raw := make([]byte, RawFrameLength)
	for c.isOpen() {
		n, err := unix.Read(c.fd, raw)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
				continue
			}
			c.log.Error().Err(err).Msg("read failed")
			time.Sleep(readTimeout)
			continue
		}
		ts := time.Now()

		f, err := UnmarshalFrame(raw[:n])
		if err != nil {
			c.log.Warn().Err(err).Int("size", n).Msg("discarding malformed frame")
			continue
		}
		f.Timestamp = ts

		c.deliver(f)
	}
}
