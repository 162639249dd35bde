//go:build linux

package hardware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"
)

const (
	i2cRdwrIOCTL = 0x0707 // I2C_RDWR ioctl: combined write+read with REPEATED START
	i2cMsgRD     = 0x0001 // i2c_msg flag: read direction
)

// DefaultAddr is the 7-bit I2C address of the LT8618SXB (0x72 in 8-bit form).
const DefaultAddr uint16 = 0x39

// ErrClosed is returned by bus operations after Close.
var ErrClosed = errors.New("i2c: bus closed")

// i2cMsg mirrors struct i2c_msg from linux/i2c.h
type i2cMsg struct {
	addr   uint16
	flags  uint16
	length uint16
	_pad   uint16 // struct alignment
	buf    uintptr
}

// i2cRdwr mirrors struct i2c_rdwr_ioctl_data from linux/i2c-dev.h
type i2cRdwr struct {
	msgs  uintptr
	nmsgs uint32
}

// I2CBus talks to one chip through /dev/i2c-N using I2C_RDWR for all
// transactions (SMBus read_byte_data / write_byte_data).
type I2CBus struct {
	mu      sync.Mutex
	ctx     context.Context
	path    string
	addr    uint16
	fd      int
	limiter *rate.Limiter
}

// OpenI2C opens the i2c-dev node at path for the chip at the 7-bit addr.
// ctx bounds the rate limiter: once it is cancelled every transaction fails.
func OpenI2C(ctx context.Context, path string, addr uint16) (*I2CBus, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("i2c: open %s: %w", path, err)
	}
	slog.Debug("i2c: opened bus", "path", path, "addr", fmt.Sprintf("0x%02x", addr))
	return &I2CBus{
		ctx:     ctx,
		path:    path,
		addr:    addr,
		fd:      fd,
		limiter: rate.NewLimiter(rate.Limit(maxOpsPerSec), 16),
	}, nil
}

func (b *I2CBus) ReadReg(reg Register) (byte, error) {
	if err := b.limiter.Wait(b.ctx); err != nil {
		return 0, &BusError{Op: OpRead, Reg: reg, Err: err}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fd < 0 {
		return 0, &BusError{Op: OpRead, Reg: reg, Err: ErrClosed}
	}
	val, err := b.readByteData(reg)
	if err != nil {
		return 0, &BusError{Op: OpRead, Reg: reg, Err: err}
	}
	return val, nil
}

func (b *I2CBus) WriteReg(reg Register, val byte) error {
	if err := b.limiter.Wait(b.ctx); err != nil {
		return &BusError{Op: OpWrite, Reg: reg, Err: err}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fd < 0 {
		return &BusError{Op: OpWrite, Reg: reg, Err: ErrClosed}
	}
	if err := b.writeByteData(reg, val); err != nil {
		return &BusError{Op: OpWrite, Reg: reg, Err: err}
	}
	return nil
}

func (b *I2CBus) Sleep(d time.Duration) { time.Sleep(d) }

// Close releases the I2C file descriptor.
func (b *I2CBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fd < 0 {
		return nil
	}
	err := unix.Close(b.fd)
	b.fd = -1
	return err
}

// readByteData performs a combined write+read with REPEATED START:
// START→addr|W→reg→RS→addr|R→data→NACK→STOP
func (b *I2CBus) readByteData(reg Register) (byte, error) {
	wbuf := [1]byte{reg}
	rbuf := [1]byte{}

	msgs := [2]i2cMsg{
		{addr: b.addr, flags: 0, length: 1, buf: uintptr(unsafe.Pointer(&wbuf[0]))},
		{addr: b.addr, flags: i2cMsgRD, length: 1, buf: uintptr(unsafe.Pointer(&rbuf[0]))},
	}
	rdwr := i2cRdwr{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: 2}

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(b.fd), i2cRdwrIOCTL, uintptr(unsafe.Pointer(&rdwr))); errno != 0 {
		return 0, fmt.Errorf("i2c: I2C_RDWR read 0x%02x: %w", b.addr, errno)
	}
	return rbuf[0], nil
}

// writeByteData performs a single write of [reg, val] using I2C_RDWR.
func (b *I2CBus) writeByteData(reg Register, val byte) error {
	wbuf := [2]byte{reg, val}
	msgs := [1]i2cMsg{
		{addr: b.addr, flags: 0, length: 2, buf: uintptr(unsafe.Pointer(&wbuf[0]))},
	}
	rdwr := i2cRdwr{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: 1}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(b.fd), i2cRdwrIOCTL, uintptr(unsafe.Pointer(&rdwr))); errno != 0 {
		return fmt.Errorf("i2c: I2C_RDWR write 0x%02x: %w", b.addr, errno)
	}
	return nil
}
