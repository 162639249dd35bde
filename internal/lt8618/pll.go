package lt8618

import (
	"fmt"
	"time"

	"github.com/micro-nova/hdmitx/internal/hardware"
)

const (
	pllAttempts     = 5
	pllPollInterval = 10 * time.Millisecond
)

// PLLState is the outcome of waiting for TX PLL lock.
type PLLState int

const (
	PLLNotPolled PLLState = iota // variant does not need PLL programming
	PLLLocked
	PLLGaveUp
	PLLAborted // a bus failure ended the poll
)

func (s PLLState) String() string {
	switch s {
	case PLLLocked:
		return "locked"
	case PLLGaveUp:
		return "gave-up"
	case PLLAborted:
		return "aborted"
	default:
		return "not-polled"
	}
}

func (s PLLState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *PLLState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "locked":
		*s = PLLLocked
	case "gave-up":
		*s = PLLGaveUp
	case "aborted":
		*s = PLLAborted
	case "not-polled":
		*s = PLLNotPolled
	default:
		return fmt.Errorf("unknown PLL state %q", b)
	}
	return nil
}

// PLLResult records how the lock wait ended. Attempts counts every lock
// check started, including one cut short by a bus failure.
type PLLResult struct {
	State    PLLState `json:"state"`
	Attempts int      `json:"attempts"`
}

// pllLocked kicks PLL calibration once and inspects the three status
// registers. A bus failure is returned as an error; "not locked" is not.
func pllLocked(bus hardware.Bus) (bool, error) {
	if err := pllKickTable.Apply(bus); err != nil {
		return false, err
	}

	var st0, st1, st2 byte
	if err := Read(hardware.RegPLLStatus0, &st0)(bus); err != nil {
		return false, err
	}
	if st0&0x80 == 0 {
		return false, nil
	}
	if err := Read(hardware.RegPLLStatus1, &st1)(bus); err != nil {
		return false, err
	}
	if st1 == 0xff {
		return false, nil
	}
	if err := Read(hardware.RegPLLStatus2, &st2)(bus); err != nil {
		return false, err
	}
	return st2&0x80 != 0, nil
}

// pollPLLLock retries the lock check up to pllAttempts times with a fixed
// pllPollInterval sleep before each attempt. Running out of attempts yields
// PLLGaveUp with a nil error; only bus failures abort, with PLLAborted.
func pollPLLLock(bus hardware.Bus) (PLLResult, error) {
	res := PLLResult{}
	for res.Attempts < pllAttempts {
		res.Attempts++
		bus.Sleep(pllPollInterval)

		locked, err := pllLocked(bus)
		if err != nil {
			res.State = PLLAborted
			return res, err
		}
		if locked {
			res.State = PLLLocked
			return res, nil
		}
	}
	res.State = PLLGaveUp
	return res, nil
}
