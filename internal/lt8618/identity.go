package lt8618

import (
	"fmt"

	"github.com/micro-nova/hdmitx/internal/hardware"
)

// ChipIdentity is the three identity bytes read from page 0x80.
type ChipIdentity [3]byte

func (id ChipIdentity) String() string {
	return fmt.Sprintf("%02x %02x %02x", id[0], id[1], id[2])
}

// Variant returns the silicon revision byte.
func (id ChipIdentity) Variant() byte { return id[2] }

// IsProduction applies the vendor's production-device heuristic: a part is
// rejected only when the first two bytes match and the third differs from both.
func (id ChipIdentity) IsProduction() bool {
	return !(id[0] == id[1] && id[1] != id[2] && id[2] != id[0])
}

// Validate returns a NotProductionError when the identity fails IsProduction.
func (id ChipIdentity) Validate() error {
	if !id.IsProduction() {
		return &NotProductionError{Identity: id}
	}
	return nil
}

// ReadIdentity unlocks the identity registers and reads them. Without the
// unlock write the chip reports 00 00 00. On error the bytes read before the
// failure are still returned.
func ReadIdentity(bus hardware.Bus) (ChipIdentity, error) {
	var id ChipIdentity
	err := Run(bus,
		Page(hardware.PageSystem),
		Write(hardware.RegUnlock, 0x01),
		Read(hardware.RegChipID0, &id[0]),
		Read(hardware.RegChipID1, &id[1]),
		Read(hardware.RegChipID2, &id[2]),
	)
	return id, err
}
