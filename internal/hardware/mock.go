package hardware

import (
	"errors"
	"sync"
	"time"
)

// ErrInjected is the cause of every failure configured on a Mock.
var ErrInjected = errors.New("mock: injected bus failure")

// Txn is one recorded bus transaction.
type Txn struct {
	Op   Op
	Page byte // value of RegPage when the transaction was issued
	Reg  Register
	Val  byte // value written, or value returned by a read
}

// Mock is a thread-safe, page-aware in-memory LT8618SXB used by tests and by
// the daemon's -mock mode. Every transaction is recorded in order. Sleeps are
// recorded but do not block.
type Mock struct {
	mu       sync.Mutex
	page     byte
	regs     map[byte]map[Register]byte // page → register → value
	identity [3]byte
	log      []Txn
	sleeps   []time.Duration

	failAt   int // transaction index that fails, -1 = never
	failOp   Op
	failReg  int // -1 = any register
	readHook func(page byte, reg Register) (byte, bool)
}

// NewMock creates a mock of a production U3 chip whose PLL locks on the
// first poll.
func NewMock() *Mock {
	m := &Mock{
		regs:    make(map[byte]map[Register]byte),
		failAt:  -1,
		failReg: -1,
	}
	m.identity = [3]byte{0x17, 0x02, VariantU3}
	m.setLocked(PageVideo)
	return m
}

// NewMockWithIdentity creates a mock that reports the given identity bytes.
func NewMockWithIdentity(id0, id1, id2 byte) *Mock {
	m := NewMock()
	m.identity = [3]byte{id0, id1, id2}
	return m
}

func (m *Mock) setLocked(page byte) {
	regs := m.pageRegs(page)
	regs[RegPLLStatus0] = 0x80
	regs[RegPLLStatus1] = 0x00
	regs[RegPLLStatus2] = 0x80
}

func (m *Mock) pageRegs(page byte) map[Register]byte {
	regs, ok := m.regs[page]
	if !ok {
		regs = make(map[Register]byte)
		m.regs[page] = regs
	}
	return regs
}

// SetReg presets a register value on a page.
func (m *Mock) SetReg(page byte, reg Register, val byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageRegs(page)[reg] = val
}

// GetReg returns the last value stored in a register on a page.
func (m *Mock) GetReg(page byte, reg Register) byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[page][reg]
}

// FailAt makes transaction number n (0-based, counting reads and writes)
// fail. Later transactions succeed again.
func (m *Mock) FailAt(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAt = n
}

// FailOn makes every transaction of kind op on reg fail.
func (m *Mock) FailOn(op Op, reg Register) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOp = op
	m.failReg = int(reg)
}

// SetReadHook installs a function consulted before the register file on
// every read. Returning ok=false falls back to the stored value.
func (m *Mock) SetReadHook(fn func(page byte, reg Register) (byte, bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readHook = fn
}

// NeverLock makes the PLL status registers report "not locked" forever.
func (m *Mock) NeverLock() {
	m.SetReadHook(func(page byte, reg Register) (byte, bool) {
		if page == PageVideo && reg == RegPLLStatus0 {
			return 0x00, true
		}
		return 0, false
	})
}

func (m *Mock) shouldFail(op Op, reg Register) bool {
	if m.failAt >= 0 && len(m.log) == m.failAt {
		return true
	}
	return m.failReg >= 0 && m.failOp == op && Register(m.failReg) == reg
}

func (m *Mock) ReadReg(reg Register) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail(OpRead, reg) {
		m.log = append(m.log, Txn{Op: OpRead, Page: m.page, Reg: reg})
		return 0, &BusError{Op: OpRead, Reg: reg, Err: ErrInjected}
	}
	val := m.read(reg)
	m.log = append(m.log, Txn{Op: OpRead, Page: m.page, Reg: reg, Val: val})
	return val, nil
}

func (m *Mock) read(reg Register) byte {
	if reg == RegPage {
		return m.page
	}
	if m.readHook != nil {
		if v, ok := m.readHook(m.page, reg); ok {
			return v
		}
	}
	if m.page == PageSystem && reg <= RegChipID2 {
		// Identity reads as zero until the unlock register is written.
		if m.regs[PageSystem][RegUnlock] != 0x01 {
			return 0
		}
		return m.identity[reg]
	}
	return m.regs[m.page][reg]
}

func (m *Mock) WriteReg(reg Register, val byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail(OpWrite, reg) {
		m.log = append(m.log, Txn{Op: OpWrite, Page: m.page, Reg: reg, Val: val})
		return &BusError{Op: OpWrite, Reg: reg, Err: ErrInjected}
	}
	m.log = append(m.log, Txn{Op: OpWrite, Page: m.page, Reg: reg, Val: val})
	if reg == RegPage {
		m.page = val
		return nil
	}
	m.pageRegs(m.page)[reg] = val
	return nil
}

func (m *Mock) Sleep(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleeps = append(m.sleeps, d)
}

// Log returns a copy of every transaction issued so far, failed ones included.
func (m *Mock) Log() []Txn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Txn, len(m.log))
	copy(out, m.log)
	return out
}

// Writes returns only the recorded writes.
func (m *Mock) Writes() []Txn {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Txn
	for _, t := range m.log {
		if t.Op == OpWrite {
			out = append(out, t)
		}
	}
	return out
}

// Count returns the number of transactions issued so far.
func (m *Mock) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.log)
}

// Sleeps returns every recorded sleep duration.
func (m *Mock) Sleeps() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.sleeps))
	copy(out, m.sleeps)
	return out
}

// Reset clears the transaction and sleep logs, keeping register state.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = nil
	m.sleeps = nil
}

// Close is a no-op so the mock can stand in for the real buses.
func (m *Mock) Close() error { return nil }
