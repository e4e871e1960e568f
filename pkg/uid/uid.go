package uid

import (
	"fmt"
	"time"

	"github.com/sony/sonyflake"
)

// UID generates unique, roughly time ordered numeric ids.
type UID interface {
	NextID() (uint64, error)
}

// NewSonyflake returns UID backed by sonyflake. machineID 0 lets sonyflake derive it from the private IP.
func NewSonyflake(machineID uint16) (UID, error) {
	st := sonyflake.Settings{
		StartTime: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if machineID > 0 {
		st.MachineID = func() (uint16, error) {
			return machineID, nil
		}
	}

	sf := sonyflake.NewSonyflake(st)
	if sf == nil {
		return nil, fmt.Errorf("sonyflake cannot be initialized")
	}

	return sf, nil
}
