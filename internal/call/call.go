package call

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shoyo-inokuchi/elevator-playground/internal/simclock"
	"github.com/shoyo-inokuchi/elevator-playground/internal/simconsts"
)

var ErrSameFloor = errors.New("call origin equals destination")

// Call is a request to travel from Origin to Destination, created at CreatedAt.
// Only the serving elevator writes the completion fields, each exactly once.
type Call struct {
	ID          int            `json:"id"`
	Origin      int            `json:"origin"`
	Destination int            `json:"destination"`
	Direction   simconsts.Dirn `json:"direction"`
	CreatedAt   simclock.Time  `json:"created_at"`
	PickedUpAt  *simclock.Time `json:"picked_up_at,omitempty"`
	CompletedAt *simclock.Time `json:"completed_at,omitempty"`
	WaitTime    *simclock.Time `json:"wait_time,omitempty"`
	ProcessTime *simclock.Time `json:"process_time,omitempty"`
	Done        bool           `json:"done"`
}

func New(id, origin, destination int, createdAt simclock.Time) (*Call, error) {
	direction := simconsts.Toward(origin, destination)
	if direction == simconsts.Idle {
		return nil, fmt.Errorf("call %d at floor %d: %w", id, origin, ErrSameFloor)
	}
	return &Call{
		ID:          id,
		Origin:      origin,
		Destination: destination,
		Direction:   direction,
		CreatedAt:   createdAt,
	}, nil
}

// PickedUp records the pickup time and the resulting wait time.
func (c *Call) PickedUp(at simclock.Time) error {
	if c.PickedUpAt != nil {
		return fmt.Errorf("call %d pickup time: %w", c.ID, simconsts.ErrDoubleInitialization)
	}
	wait := at - c.CreatedAt
	c.PickedUpAt = &at
	c.WaitTime = &wait
	return nil
}

// Complete marks the call done and records the total process time.
func (c *Call) Complete(at simclock.Time) error {
	if c.Done {
		return fmt.Errorf("call %d completion time: %w", c.ID, simconsts.ErrDoubleInitialization)
	}
	process := at - c.CreatedAt
	c.CompletedAt = &at
	c.ProcessTime = &process
	c.Done = true
	return nil
}

func (c *Call) String() string {
	jsonData, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprintf("call %d", c.ID)
	}
	return string(jsonData)
}

// IDAllocator hands out sequential call ids starting at 1.
type IDAllocator struct {
	next int
}

func NewIDAllocator() *IDAllocator {
	return &IDAllocator{next: 1}
}

func (a *IDAllocator) Allocate() int {
	id := a.next
	a.next++
	return id
}
