package simclock

import (
	"fmt"

	"github.com/shoyo-inokuchi/elevator-playground/internal/simconsts"
)

// Time is virtual simulation time measured in frames.
type Time int64

// String renders the time as hhh:mm:ss:msms, e.g. "  0:08:43:30" for 5235 frames.
func (t Time) String() string {
	frames := int64(t)
	sign := ""
	if frames < 0 {
		sign = "-"
		frames = -frames
	}
	msec := frames % simconsts.FramesPerSecond * 6
	frames /= simconsts.FramesPerSecond
	hour := frames / 3600
	frames %= 3600
	mins := frames / 60
	sec := frames % 60
	return fmt.Sprintf("%3s:%02d:%02d:%02d", fmt.Sprintf("%s%d", sign, hour), mins, sec, msec)
}

// Seconds converts frames to simulated seconds.
func (t Time) Seconds() float64 {
	return float64(t) / simconsts.FramesPerSecond
}
